package jobs

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/ErikING-Chile/fast-check/pkg/models"
	"github.com/ErikING-Chile/fast-check/pkg/pipeline"
	"github.com/ErikING-Chile/fast-check/pkg/store"
)

// fakeRunner returns a canned result or error, reporting one progress step
// along the way.
type fakeRunner struct {
	result *models.AnalysisResult
	err    error
}

func (f *fakeRunner) Run(ctx context.Context, job *models.Job, report pipeline.ProgressFunc) (*models.AnalysisResult, error) {
	report(0.5, "transcribe", "transcribing "+job.VideoPath)
	if f.err != nil {
		return nil, f.err
	}
	result := f.result
	if result == nil {
		result = &models.AnalysisResult{
			Metadata: models.JobMetadata{JobID: job.ID, VideoPath: job.VideoPath},
			Transcript: models.Transcript{
				Segments: []models.Segment{
					{Start: 0, End: 5, Speaker: "SPEAKER_00", Text: "hello"},
				},
			},
		}
	}
	return result, nil
}

// waitTerminal polls the store until the job reaches a terminal state
func waitTerminal(t *testing.T, s store.Store, id string) *models.Job {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		job, err := s.GetJob(id)
		if err != nil {
			t.Fatalf("GetJob failed: %v", err)
		}
		if models.IsTerminalState(job.Status) {
			return job
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("Job %s never reached a terminal state", id)
	return nil
}

func TestSubmitValidation(t *testing.T) {
	one, two, four, five := 1, 2, 4, 5

	tests := []struct {
		name    string
		req     models.JobRequest
		wantErr bool
	}{
		{"Valid", models.JobRequest{VideoPath: "/v.mp4"}, false},
		{"ValidWithSpeakers", models.JobRequest{VideoPath: "/v.mp4", NumSpeakers: &two}, false},
		{"ValidUpperBound", models.JobRequest{VideoPath: "/v.mp4", NumSpeakers: &four}, false},
		{"ValidVerify", models.JobRequest{VideoPath: "/v.mp4", Verify: true, PackName: "economy"}, false},
		{"MissingVideoPath", models.JobRequest{}, true},
		{"TooFewSpeakers", models.JobRequest{VideoPath: "/v.mp4", NumSpeakers: &one}, true},
		{"TooManySpeakers", models.JobRequest{VideoPath: "/v.mp4", NumSpeakers: &five}, true},
		{"VerifyWithoutPack", models.JobRequest{VideoPath: "/v.mp4", Verify: true}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testStore := store.NewMemoryStore()
			defer testStore.Close()
			controller := NewController(testStore, &fakeRunner{}, 1)

			job, err := controller.Submit(tt.req)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidRequest) {
					t.Errorf("Expected ErrInvalidRequest, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Submit failed: %v", err)
			}
			if job.ID == "" {
				t.Error("Expected a job ID")
			}
			if job.Status != models.JobStatusQueued {
				t.Errorf("Expected status queued, got %s", job.Status)
			}
		})
	}
}

func TestSubmitDefaultsLanguage(t *testing.T) {
	testStore := store.NewMemoryStore()
	defer testStore.Close()
	controller := NewController(testStore, &fakeRunner{}, 1)

	job, err := controller.Submit(models.JobRequest{VideoPath: "/v.mp4"})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if job.Language != "auto" {
		t.Errorf("Expected language auto, got %q", job.Language)
	}
}

func TestJobRunsToCompletion(t *testing.T) {
	testStore := store.NewMemoryStore()
	defer testStore.Close()
	controller := NewController(testStore, &fakeRunner{}, 2)

	ctx, cancel := context.WithCancel(context.Background())
	controller.Start(ctx)
	defer func() {
		cancel()
		controller.Wait()
	}()

	job, err := controller.Submit(models.JobRequest{VideoPath: "/videos/debate.mp4"})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	final := waitTerminal(t, testStore, job.ID)
	if final.Status != models.JobStatusCompleted {
		t.Fatalf("Expected completed, got %s (error: %s)", final.Status, final.Error)
	}
	if final.Progress != 1.0 {
		t.Errorf("Expected progress 1.0, got %f", final.Progress)
	}

	result, err := controller.Result(job.ID, true)
	if err != nil {
		t.Fatalf("Result failed: %v", err)
	}
	if len(result.Transcript.Segments) != 1 {
		t.Errorf("Expected 1 segment, got %d", len(result.Transcript.Segments))
	}
}

func TestJobFailureIsRecorded(t *testing.T) {
	testStore := store.NewMemoryStore()
	defer testStore.Close()
	controller := NewController(testStore, &fakeRunner{err: fmt.Errorf("ffprobe: no such file")}, 1)

	ctx, cancel := context.WithCancel(context.Background())
	controller.Start(ctx)
	defer func() {
		cancel()
		controller.Wait()
	}()

	job, err := controller.Submit(models.JobRequest{VideoPath: "/videos/missing.mp4"})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	final := waitTerminal(t, testStore, job.ID)
	if final.Status != models.JobStatusFailed {
		t.Fatalf("Expected failed, got %s", final.Status)
	}
	if final.Error != "ffprobe: no such file" {
		t.Errorf("Expected pipeline error on the job, got %q", final.Error)
	}

	// A failed job has no result
	if _, err := controller.Result(job.ID, false); !errors.Is(err, store.ErrJobNotReady) {
		t.Errorf("Expected ErrJobNotReady, got %v", err)
	}
}

func TestStartRequeuesPendingJobs(t *testing.T) {
	testStore := store.NewMemoryStore()
	defer testStore.Close()

	// A job left queued by a previous process
	stale := &models.Job{
		ID:        "stale-job",
		VideoPath: "/videos/old.mp4",
		Language:  "auto",
		Status:    models.JobStatusQueued,
		CreatedAt: time.Now().Add(-time.Hour),
	}
	if err := testStore.CreateJob(stale); err != nil {
		t.Fatalf("CreateJob failed: %v", err)
	}

	controller := NewController(testStore, &fakeRunner{}, 1)
	ctx, cancel := context.WithCancel(context.Background())
	controller.Start(ctx)
	defer func() {
		cancel()
		controller.Wait()
	}()

	final := waitTerminal(t, testStore, stale.ID)
	if final.Status != models.JobStatusCompleted {
		t.Errorf("Expected requeued job to complete, got %s", final.Status)
	}
}

func TestListNewestFirst(t *testing.T) {
	testStore := store.NewMemoryStore()
	defer testStore.Close()
	controller := NewController(testStore, &fakeRunner{}, 1)

	first, err := controller.Submit(models.JobRequest{VideoPath: "/videos/a.mp4"})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	second, err := controller.Submit(models.JobRequest{VideoPath: "/videos/b.mp4"})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	all := controller.List()
	if len(all) != 2 {
		t.Fatalf("Expected 2 jobs, got %d", len(all))
	}
	if all[0].ID != second.ID || all[1].ID != first.ID {
		t.Error("Expected newest job first")
	}
}
