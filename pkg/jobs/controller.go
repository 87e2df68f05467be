// Package jobs owns the job lifecycle: submission, queueing, execution by a
// worker pool, and read-side access to statuses, results, and the edit log.
package jobs

import (
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/ErikING-Chile/fast-check/pkg/edits"
	"github.com/ErikING-Chile/fast-check/pkg/models"
	"github.com/ErikING-Chile/fast-check/pkg/pipeline"
	"github.com/ErikING-Chile/fast-check/pkg/store"
)

// ErrInvalidRequest is returned when a submission fails validation
var ErrInvalidRequest = errors.New("invalid job request")

const defaultQueueSize = 64

// Controller coordinates job submission and execution
type Controller struct {
	store   store.Store
	runner  pipeline.Runner
	queue   chan string
	workers int
	done    chan struct{}
}

// NewController creates a controller backed by the given store and pipeline.
// Call Start to launch the worker pool.
func NewController(st store.Store, runner pipeline.Runner, workers int) *Controller {
	if workers < 1 {
		workers = 1
	}
	return &Controller{
		store:   st,
		runner:  runner,
		queue:   make(chan string, defaultQueueSize),
		workers: workers,
		done:    make(chan struct{}),
	}
}

// Submit validates a request, creates a queued job record, and enqueues it
// for execution. The returned job is the initial queued snapshot.
func (c *Controller) Submit(req models.JobRequest) (*models.Job, error) {
	if req.VideoPath == "" {
		return nil, fmt.Errorf("%w: video_path is required", ErrInvalidRequest)
	}
	if req.NumSpeakers != nil && (*req.NumSpeakers < 2 || *req.NumSpeakers > 4) {
		return nil, fmt.Errorf("%w: num_speakers must be between 2 and 4", ErrInvalidRequest)
	}
	if req.Verify && req.PackName == "" {
		return nil, fmt.Errorf("%w: verify requires pack_name", ErrInvalidRequest)
	}

	language := req.Language
	if language == "" {
		language = "auto"
	}

	job := &models.Job{
		ID:          uuid.New().String(),
		VideoPath:   req.VideoPath,
		Language:    language,
		NumSpeakers: req.NumSpeakers,
		PackName:    req.PackName,
		Verify:      req.Verify,
		Status:      models.JobStatusQueued,
		CreatedAt:   time.Now(),
	}
	if err := c.store.CreateJob(job); err != nil {
		return nil, err
	}

	select {
	case c.queue <- job.ID:
	default:
		// Queue full: fail the job immediately rather than blocking the submitter
		if err := c.store.FailJob(job.ID, "job queue is full"); err != nil {
			log.Printf("Failed to mark job %s as failed: %v", job.ID, err)
		}
		refreshed, err := c.store.GetJob(job.ID)
		if err != nil {
			return nil, err
		}
		return refreshed, nil
	}

	log.Printf("Job %s queued: %s", job.ID, job.VideoPath)
	return job.Clone(), nil
}

// Status returns the poll view of one job
func (c *Controller) Status(id string) (*models.StatusSnapshot, error) {
	job, err := c.store.GetJob(id)
	if err != nil {
		return nil, err
	}
	snapshot := job.Snapshot()
	return &snapshot, nil
}

// List returns all known jobs, newest first
func (c *Controller) List() []*models.Job {
	all := c.store.GetAllJobs()
	sort.Slice(all, func(a, b int) bool {
		return all[a].CreatedAt.After(all[b].CreatedAt)
	})
	return all
}

// Result returns a job's analysis result. With applyEdits set, the stored
// edit log is layered over the base result; otherwise the base result is
// returned as produced by the pipeline.
func (c *Controller) Result(id string, applyEdits bool) (*models.AnalysisResult, error) {
	base, err := c.store.GetResult(id)
	if err != nil {
		return nil, err
	}
	if !applyEdits {
		return base, nil
	}
	editLog, err := c.store.ListEdits(id)
	if err != nil {
		return nil, err
	}
	return edits.Materialize(base, editLog), nil
}

// SaveEdits validates and appends edits to a completed job's log. It returns
// how many edits were accepted this call and the new log length.
func (c *Controller) SaveEdits(id string, batch []models.Edit) (accepted, total int, err error) {
	for i := range batch {
		if err := batch[i].Validate(); err != nil {
			return 0, 0, fmt.Errorf("%w: edit %d: %v", ErrInvalidRequest, i, err)
		}
	}
	total, err = c.store.AppendEdits(id, batch)
	if err != nil {
		return 0, 0, err
	}
	return len(batch), total, nil
}

// Edits returns a job's full edit log in append order
func (c *Controller) Edits(id string) ([]models.Edit, error) {
	return c.store.ListEdits(id)
}
