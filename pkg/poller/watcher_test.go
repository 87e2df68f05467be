package poller

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ErikING-Chile/fast-check/pkg/models"
)

// snapshotServer serves a fixed progression of status snapshots, one per
// request, sticking on the last one.
func snapshotServer(t *testing.T, snapshots []models.StatusSnapshot) (*httptest.Server, *int32) {
	t.Helper()

	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		idx := int(n) - 1
		if idx >= len(snapshots) {
			idx = len(snapshots) - 1
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(snapshots[idx])
	}))
	t.Cleanup(server.Close)
	return server, &calls
}

func TestWatchUntilCompleted(t *testing.T) {
	server, _ := snapshotServer(t, []models.StatusSnapshot{
		{JobID: "job-1", Status: models.JobStatusQueued, Progress: 0},
		{JobID: "job-1", Status: models.JobStatusRunning, Progress: 0.4, CurrentStep: "transcribe"},
		{JobID: "job-1", Status: models.JobStatusCompleted, Progress: 1.0},
	})

	watcher := NewWatcher(NewClient(server.URL), 10*time.Millisecond)

	var seen []models.JobStatus
	final, err := watcher.Watch(context.Background(), "job-1", func(s *models.StatusSnapshot) {
		seen = append(seen, s.Status)
	})
	if err != nil {
		t.Fatalf("Watch failed: %v", err)
	}
	if final.Status != models.JobStatusCompleted {
		t.Errorf("Expected terminal status completed, got %s", final.Status)
	}
	if final.Progress != 1.0 {
		t.Errorf("Expected progress 1.0, got %f", final.Progress)
	}
	if len(seen) != 3 {
		t.Fatalf("Expected 3 callbacks, got %d", len(seen))
	}
	if seen[0] != models.JobStatusQueued || seen[2] != models.JobStatusCompleted {
		t.Errorf("Unexpected status progression: %v", seen)
	}
}

func TestWatchReturnsFailedJob(t *testing.T) {
	server, _ := snapshotServer(t, []models.StatusSnapshot{
		{JobID: "job-2", Status: models.JobStatusRunning, Progress: 0.7},
		{JobID: "job-2", Status: models.JobStatusFailed, Progress: 0.7, Error: "ffmpeg exited with status 1"},
	})

	watcher := NewWatcher(NewClient(server.URL), 10*time.Millisecond)
	final, err := watcher.Watch(context.Background(), "job-2", nil)
	if err != nil {
		t.Fatalf("Watch failed: %v", err)
	}
	if final.Status != models.JobStatusFailed {
		t.Errorf("Expected terminal status failed, got %s", final.Status)
	}
	if final.Error == "" {
		t.Error("Expected error detail on failed snapshot")
	}
}

func TestWatchRetriesTransientFailures(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(models.StatusSnapshot{
			JobID: "job-3", Status: models.JobStatusCompleted, Progress: 1.0,
		})
	}))
	defer server.Close()

	watcher := NewWatcher(NewClient(server.URL), 10*time.Millisecond)
	final, err := watcher.Watch(context.Background(), "job-3", nil)
	if err != nil {
		t.Fatalf("Watch failed: %v", err)
	}
	if final.Status != models.JobStatusCompleted {
		t.Errorf("Expected terminal status completed, got %s", final.Status)
	}
	if got := atomic.LoadInt32(&calls); got < 3 {
		t.Errorf("Expected at least 3 polls, got %d", got)
	}
}

func TestWatchStopsOnUnknownJob(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "Job not found", http.StatusNotFound)
	}))
	defer server.Close()

	// A 404 is not transient: the watcher must give up immediately instead
	// of polling a job that will never exist.
	watcher := NewWatcher(NewClient(server.URL), 10*time.Millisecond)
	_, err := watcher.Watch(context.Background(), "no-such-job", nil)
	if !errors.Is(err, ErrJobNotFound) {
		t.Fatalf("Expected ErrJobNotFound, got %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("Expected a single poll before giving up, got %d", got)
	}
}

func TestWatchCancellation(t *testing.T) {
	server, _ := snapshotServer(t, []models.StatusSnapshot{
		{JobID: "job-4", Status: models.JobStatusRunning, Progress: 0.2},
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	watcher := NewWatcher(NewClient(server.URL), 10*time.Millisecond)
	if _, err := watcher.Watch(ctx, "job-4", nil); err == nil {
		t.Error("Expected error when context expires before the job finishes")
	}
}

func TestWatcherDefaultInterval(t *testing.T) {
	watcher := NewWatcher(NewClient("http://localhost:0"), 0)
	if watcher.interval != 2*time.Second {
		t.Errorf("Expected default interval 2s, got %v", watcher.interval)
	}
}
