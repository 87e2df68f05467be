package store

import (
	"errors"

	"github.com/ErikING-Chile/fast-check/pkg/models"
)

var (
	// ErrJobNotFound is returned when the job id is unknown
	ErrJobNotFound = errors.New("job not found")
	// ErrInvalidTransition is returned for lifecycle violations, e.g. progress on a terminal job
	ErrInvalidTransition = errors.New("invalid job state transition")
	// ErrJobNotReady is returned when edits or results are requested before the job completed
	ErrJobNotReady = errors.New("job has no result yet")
)

// Store owns the job records and their edit logs. Writes to one job are
// serialized per job id so a status read or a materialization never observes
// a torn write; different jobs do not contend with each other.
type Store interface {
	// Job lifecycle
	CreateJob(job *models.Job) error
	GetJob(id string) (*models.Job, error)
	GetAllJobs() []*models.Job
	StartJob(id string) error
	UpdateProgress(id string, fraction float64, step, logLine string) error
	CompleteJob(id string, result *models.AnalysisResult) error
	FailJob(id string, reason string) error

	// Results and edit log
	GetResult(id string) (*models.AnalysisResult, error)
	AppendEdits(id string, edits []models.Edit) (int, error)
	ListEdits(id string) ([]models.Edit, error)

	// Lifecycle
	Close() error
	HealthCheck() error

	// Metrics operations
	GetJobMetrics() (*JobMetrics, error)
}

// JobMetrics contains aggregated job statistics for the metrics endpoint
type JobMetrics struct {
	JobsByState map[models.JobStatus]int
	ActiveJobs  int
	QueueLength int
	TotalJobs   int
	TotalEdits  int
	AvgDuration float64 // seconds, completed jobs only
}

// Config holds storage configuration
type Config struct {
	Type string // "sqlite" or "memory"
	Path string // database path for sqlite
}

// NewStore creates a store based on configuration
func NewStore(config Config) (Store, error) {
	switch config.Type {
	case "sqlite", "":
		path := config.Path
		if path == "" {
			path = "fastcheck.db"
		}
		return NewSQLiteStore(path)
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, errors.New("unsupported store type: " + config.Type)
	}
}
