// Package metrics exports Prometheus metrics for the job service
package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/common/expfmt"

	"github.com/ErikING-Chile/fast-check/pkg/models"
	"github.com/ErikING-Chile/fast-check/pkg/store"
)

// Exporter exports Prometheus metrics derived from the job store
type Exporter struct {
	store     store.Store
	startTime time.Time
}

// NewExporter creates a new Prometheus exporter
func NewExporter(s store.Store) *Exporter {
	return &Exporter{
		store:     s,
		startTime: time.Now(),
	}
}

var allStates = []models.JobStatus{
	models.JobStatusQueued,
	models.JobStatusRunning,
	models.JobStatusCompleted,
	models.JobStatusFailed,
}

// ServeHTTP serves Prometheus-compatible metrics at /metrics
func (e *Exporter) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")

	jobMetrics, err := e.store.GetJobMetrics()
	if err != nil {
		http.Error(w, fmt.Sprintf("Error collecting job metrics: %v", err), http.StatusInternalServerError)
		return
	}

	// fastcheck_jobs_total{state}
	fmt.Fprintf(w, "# HELP fastcheck_jobs_total Total number of jobs by state\n")
	fmt.Fprintf(w, "# TYPE fastcheck_jobs_total counter\n")
	for _, state := range allStates {
		fmt.Fprintf(w, "fastcheck_jobs_total{state=\"%s\"} %d\n", state, jobMetrics.JobsByState[state])
	}

	fmt.Fprintf(w, "\n# HELP fastcheck_active_jobs Number of currently running jobs\n")
	fmt.Fprintf(w, "# TYPE fastcheck_active_jobs gauge\n")
	fmt.Fprintf(w, "fastcheck_active_jobs %d\n", jobMetrics.ActiveJobs)

	fmt.Fprintf(w, "\n# HELP fastcheck_queue_length Number of jobs waiting in queue\n")
	fmt.Fprintf(w, "# TYPE fastcheck_queue_length gauge\n")
	fmt.Fprintf(w, "fastcheck_queue_length %d\n", jobMetrics.QueueLength)

	fmt.Fprintf(w, "\n# HELP fastcheck_job_duration_seconds Average completed job duration in seconds\n")
	fmt.Fprintf(w, "# TYPE fastcheck_job_duration_seconds gauge\n")
	fmt.Fprintf(w, "fastcheck_job_duration_seconds %.2f\n", jobMetrics.AvgDuration)

	fmt.Fprintf(w, "\n# HELP fastcheck_edits_total Total edits appended across all jobs\n")
	fmt.Fprintf(w, "# TYPE fastcheck_edits_total counter\n")
	fmt.Fprintf(w, "fastcheck_edits_total %d\n", jobMetrics.TotalEdits)

	fmt.Fprintf(w, "\n# HELP fastcheck_uptime_seconds Service uptime in seconds\n")
	fmt.Fprintf(w, "# TYPE fastcheck_uptime_seconds gauge\n")
	fmt.Fprintf(w, "fastcheck_uptime_seconds %.0f\n", time.Since(e.startTime).Seconds())

	// Append metrics from the default Prometheus registry (request counters
	// from the middleware live there)
	fmt.Fprintf(w, "\n")
	metricFamilies, err := promclient.DefaultGatherer.Gather()
	if err != nil {
		fmt.Fprintf(w, "# Error gathering Prometheus metrics: %v\n", err)
		return
	}

	var buf bytes.Buffer
	encoder := expfmt.NewEncoder(&buf, expfmt.FmtText)
	for _, mf := range metricFamilies {
		if err := encoder.Encode(mf); err != nil {
			fmt.Fprintf(w, "# Error encoding metric %s: %v\n", mf.GetName(), err)
		}
	}
	w.Write(buf.Bytes())
}

var httpRequestsTotal = promauto.NewCounterVec(
	promclient.CounterOpts{
		Name: "fastcheck_http_requests_total",
		Help: "Total HTTP requests by method, path, and status code",
	},
	[]string{"method", "path", "status"},
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// InstrumentHandler counts requests per mux route. The route template is used
// as the path label so job ids do not explode cardinality.
func InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)

		path := r.URL.Path
		if route := muxCurrentRoute(r); route != "" {
			path = route
		}
		httpRequestsTotal.WithLabelValues(r.Method, path, fmt.Sprintf("%d", recorder.status)).Inc()
	})
}
