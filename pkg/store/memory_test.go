package store

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/ErikING-Chile/fast-check/pkg/models"
)

func newTestJob(id string) *models.Job {
	return &models.Job{
		ID:        id,
		VideoPath: "/videos/interview.mp4",
		Language:  "auto",
		Status:    models.JobStatusQueued,
		CreatedAt: time.Now(),
	}
}

func testResult() *models.AnalysisResult {
	return &models.AnalysisResult{
		Transcript: models.Transcript{
			Segments: []models.Segment{
				{Start: 0, End: 5, Speaker: "SPEAKER_00", Text: "hello"},
			},
		},
	}
}

func TestMemoryStoreLifecycle(t *testing.T) {
	s := NewMemoryStore()

	if err := s.CreateJob(newTestJob("job-1")); err != nil {
		t.Fatalf("CreateJob failed: %v", err)
	}

	job, err := s.GetJob("job-1")
	if err != nil {
		t.Fatalf("GetJob failed: %v", err)
	}
	if job.Status != models.JobStatusQueued {
		t.Errorf("status = %v, want queued", job.Status)
	}

	if err := s.StartJob("job-1"); err != nil {
		t.Fatalf("StartJob failed: %v", err)
	}
	job, _ = s.GetJob("job-1")
	if job.Status != models.JobStatusRunning {
		t.Errorf("status = %v, want running", job.Status)
	}
	if job.StartedAt == nil {
		t.Error("StartedAt not set")
	}

	if err := s.CompleteJob("job-1", testResult()); err != nil {
		t.Fatalf("CompleteJob failed: %v", err)
	}
	job, _ = s.GetJob("job-1")
	if job.Status != models.JobStatusCompleted {
		t.Errorf("status = %v, want completed", job.Status)
	}
	if job.Progress != 1.0 {
		t.Errorf("progress = %v, want 1.0", job.Progress)
	}
	if job.CompletedAt == nil {
		t.Error("CompletedAt not set")
	}
}

func TestMemoryStoreTerminalStatesFrozen(t *testing.T) {
	s := NewMemoryStore()
	s.CreateJob(newTestJob("job-1"))
	s.StartJob("job-1")
	s.CompleteJob("job-1", testResult())

	if err := s.StartJob("job-1"); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("StartJob on completed job: err = %v, want ErrInvalidTransition", err)
	}
	if err := s.FailJob("job-1", "late failure"); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("FailJob on completed job: err = %v, want ErrInvalidTransition", err)
	}
	if err := s.UpdateProgress("job-1", 0.5, "step", "line"); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("UpdateProgress on completed job: err = %v, want ErrInvalidTransition", err)
	}

	// Record is untouched
	job, _ := s.GetJob("job-1")
	if job.Status != models.JobStatusCompleted || job.Progress != 1.0 {
		t.Errorf("terminal record changed: %+v", job)
	}
}

func TestMemoryStoreFailJob(t *testing.T) {
	s := NewMemoryStore()
	s.CreateJob(newTestJob("job-1"))
	s.StartJob("job-1")

	if err := s.FailJob("job-1", "ffmpeg exited with code 1"); err != nil {
		t.Fatalf("FailJob failed: %v", err)
	}
	job, _ := s.GetJob("job-1")
	if job.Status != models.JobStatusFailed {
		t.Errorf("status = %v, want failed", job.Status)
	}
	if job.Error != "ffmpeg exited with code 1" {
		t.Errorf("error = %q", job.Error)
	}
	if len(job.Logs) == 0 || job.Logs[len(job.Logs)-1] != "Error: ffmpeg exited with code 1" {
		t.Errorf("logs = %v, want trailing error line", job.Logs)
	}
}

func TestMemoryStoreProgressRatchet(t *testing.T) {
	s := NewMemoryStore()
	s.CreateJob(newTestJob("job-1"))
	s.StartJob("job-1")

	s.UpdateProgress("job-1", 0.5, "transcribe", "")
	s.UpdateProgress("job-1", 0.3, "transcribe", "")
	job, _ := s.GetJob("job-1")
	if job.Progress != 0.5 {
		t.Errorf("progress regressed to %v, want 0.5", job.Progress)
	}

	s.UpdateProgress("job-1", 1.7, "verify", "")
	job, _ = s.GetJob("job-1")
	if job.Progress != 1.0 {
		t.Errorf("progress = %v, want clamped to 1.0", job.Progress)
	}
}

func TestMemoryStoreNotFound(t *testing.T) {
	s := NewMemoryStore()

	if _, err := s.GetJob("missing"); !errors.Is(err, ErrJobNotFound) {
		t.Errorf("GetJob: err = %v, want ErrJobNotFound", err)
	}
	if err := s.StartJob("missing"); !errors.Is(err, ErrJobNotFound) {
		t.Errorf("StartJob: err = %v, want ErrJobNotFound", err)
	}
	if _, err := s.GetResult("missing"); !errors.Is(err, ErrJobNotFound) {
		t.Errorf("GetResult: err = %v, want ErrJobNotFound", err)
	}
	if _, err := s.AppendEdits("missing", nil); !errors.Is(err, ErrJobNotFound) {
		t.Errorf("AppendEdits: err = %v, want ErrJobNotFound", err)
	}
}

func TestMemoryStoreEditsRequireResult(t *testing.T) {
	s := NewMemoryStore()
	s.CreateJob(newTestJob("job-1"))
	s.StartJob("job-1")

	edit := models.Edit{Action: models.EditActionRename, Old: "SPEAKER_00", New: "Alice"}
	if _, err := s.AppendEdits("job-1", []models.Edit{edit}); !errors.Is(err, ErrJobNotReady) {
		t.Errorf("AppendEdits before completion: err = %v, want ErrJobNotReady", err)
	}
	if _, err := s.GetResult("job-1"); !errors.Is(err, ErrJobNotReady) {
		t.Errorf("GetResult before completion: err = %v, want ErrJobNotReady", err)
	}

	s.CompleteJob("job-1", testResult())
	total, err := s.AppendEdits("job-1", []models.Edit{edit})
	if err != nil {
		t.Fatalf("AppendEdits after completion failed: %v", err)
	}
	if total != 1 {
		t.Errorf("total = %d, want 1", total)
	}
}

func TestMemoryStoreAppendEditsAtomic(t *testing.T) {
	s := NewMemoryStore()
	s.CreateJob(newTestJob("job-1"))
	s.StartJob("job-1")
	s.CompleteJob("job-1", testResult())

	// Second edit is malformed; the whole batch must be rejected
	batch := []models.Edit{
		{Action: models.EditActionRename, Old: "SPEAKER_00", New: "Alice"},
		{Action: models.EditActionAssign, Speaker: "Bob", Start: 5, End: 5},
	}
	if _, err := s.AppendEdits("job-1", batch); err == nil {
		t.Fatal("AppendEdits accepted an invalid batch")
	}
	edits, _ := s.ListEdits("job-1")
	if len(edits) != 0 {
		t.Errorf("edit log length = %d after rejected batch, want 0", len(edits))
	}
}

func TestMemoryStoreEditSequencing(t *testing.T) {
	s := NewMemoryStore()
	s.CreateJob(newTestJob("job-1"))
	s.StartJob("job-1")
	s.CompleteJob("job-1", testResult())

	first := []models.Edit{
		{Action: models.EditActionRename, Old: "SPEAKER_00", New: "Alice"},
		{Action: models.EditActionRename, Old: "SPEAKER_01", New: "Bob"},
	}
	second := []models.Edit{
		{Action: models.EditActionAssign, Speaker: "Carol", Start: 0, End: 5},
	}

	if total, _ := s.AppendEdits("job-1", first); total != 2 {
		t.Errorf("total after first batch = %d, want 2", total)
	}
	if total, _ := s.AppendEdits("job-1", second); total != 3 {
		t.Errorf("total after second batch = %d, want 3", total)
	}

	edits, err := s.ListEdits("job-1")
	if err != nil {
		t.Fatalf("ListEdits failed: %v", err)
	}
	for i, e := range edits {
		if e.Seq != i+1 {
			t.Errorf("edit %d has seq %d", i, e.Seq)
		}
	}
}

func TestMemoryStoreResultDetached(t *testing.T) {
	s := NewMemoryStore()
	s.CreateJob(newTestJob("job-1"))
	s.StartJob("job-1")
	s.CompleteJob("job-1", testResult())

	got, _ := s.GetResult("job-1")
	got.Transcript.Segments[0].Speaker = "MUTATED"

	again, _ := s.GetResult("job-1")
	if again.Transcript.Segments[0].Speaker != "SPEAKER_00" {
		t.Error("stored result was mutated through a returned copy")
	}
}

func TestMemoryStoreConcurrentEdits(t *testing.T) {
	s := NewMemoryStore()
	s.CreateJob(newTestJob("job-1"))
	s.StartJob("job-1")
	s.CompleteJob("job-1", testResult())

	numWriters := 10
	perWriter := 5
	var wg sync.WaitGroup
	for i := 0; i < numWriters; i++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for j := 0; j < perWriter; j++ {
				edit := models.Edit{
					Action: models.EditActionRename,
					Old:    fmt.Sprintf("S%d", w),
					New:    fmt.Sprintf("N%d-%d", w, j),
				}
				if _, err := s.AppendEdits("job-1", []models.Edit{edit}); err != nil {
					t.Errorf("AppendEdits failed: %v", err)
				}
			}
		}(i)
	}
	wg.Wait()

	edits, _ := s.ListEdits("job-1")
	if len(edits) != numWriters*perWriter {
		t.Fatalf("edit count = %d, want %d", len(edits), numWriters*perWriter)
	}
	seen := make(map[int]bool)
	for _, e := range edits {
		if seen[e.Seq] {
			t.Errorf("duplicate seq %d", e.Seq)
		}
		seen[e.Seq] = true
	}
}

func TestMemoryStoreMetrics(t *testing.T) {
	s := NewMemoryStore()
	s.CreateJob(newTestJob("queued-1"))
	s.CreateJob(newTestJob("running-1"))
	s.StartJob("running-1")
	s.CreateJob(newTestJob("done-1"))
	s.StartJob("done-1")
	s.CompleteJob("done-1", testResult())
	s.AppendEdits("done-1", []models.Edit{
		{Action: models.EditActionRename, Old: "SPEAKER_00", New: "Alice"},
	})

	m, err := s.GetJobMetrics()
	if err != nil {
		t.Fatalf("GetJobMetrics failed: %v", err)
	}
	if m.TotalJobs != 3 {
		t.Errorf("TotalJobs = %d, want 3", m.TotalJobs)
	}
	if m.QueueLength != 1 {
		t.Errorf("QueueLength = %d, want 1", m.QueueLength)
	}
	if m.ActiveJobs != 1 {
		t.Errorf("ActiveJobs = %d, want 1", m.ActiveJobs)
	}
	if m.TotalEdits != 1 {
		t.Errorf("TotalEdits = %d, want 1", m.TotalEdits)
	}
	if m.JobsByState[models.JobStatusCompleted] != 1 {
		t.Errorf("completed count = %d, want 1", m.JobsByState[models.JobStatusCompleted])
	}
}
