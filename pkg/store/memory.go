package store

import (
	"sync"
	"time"

	"github.com/ErikING-Chile/fast-check/pkg/models"
)

// jobEntry bundles one job's record, base result, and edit log under a
// single lock so all writes to the same job are serialized.
type jobEntry struct {
	mu     sync.Mutex
	job    *models.Job
	result *models.AnalysisResult
	edits  []models.Edit
}

// MemoryStore is an in-memory implementation of the data store. The top-level
// map is only locked for lookup and insert; each job carries its own mutex so
// jobs never contend with one another.
type MemoryStore struct {
	mu   sync.RWMutex
	jobs map[string]*jobEntry
}

// NewMemoryStore creates a new in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		jobs: make(map[string]*jobEntry),
	}
}

func (s *MemoryStore) entry(id string) (*jobEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.jobs[id]
	if !ok {
		return nil, ErrJobNotFound
	}
	return e, nil
}

// CreateJob adds a new job record to the store
func (s *MemoryStore) CreateJob(job *models.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = &jobEntry{job: job.Clone()}
	return nil
}

// GetJob retrieves a snapshot copy of a job by ID
func (s *MemoryStore) GetJob(id string) (*models.Job, error) {
	e, err := s.entry(id)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.job.Clone(), nil
}

// GetAllJobs returns snapshot copies of all jobs
func (s *MemoryStore) GetAllJobs() []*models.Job {
	s.mu.RLock()
	entries := make([]*jobEntry, 0, len(s.jobs))
	for _, e := range s.jobs {
		entries = append(entries, e)
	}
	s.mu.RUnlock()

	jobs := make([]*models.Job, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		jobs = append(jobs, e.job.Clone())
		e.mu.Unlock()
	}
	return jobs
}

// StartJob transitions a queued job to running
func (s *MemoryStore) StartJob(id string) error {
	e, err := s.entry(id)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := models.ValidateTransition(e.job.Status, models.JobStatusRunning); err != nil {
		return ErrInvalidTransition
	}
	now := time.Now()
	e.job.Status = models.JobStatusRunning
	e.job.StartedAt = &now
	return nil
}

// UpdateProgress advances progress and the current step, appending to the
// job's logs. Progress only ratchets upward; reports against a terminal job
// are rejected.
func (s *MemoryStore) UpdateProgress(id string, fraction float64, step, logLine string) error {
	e, err := s.entry(id)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if models.IsTerminalState(e.job.Status) {
		return ErrInvalidTransition
	}
	if fraction > 1.0 {
		fraction = 1.0
	}
	if fraction > e.job.Progress {
		e.job.Progress = fraction
	}
	if step != "" {
		e.job.CurrentStep = step
	}
	if logLine != "" {
		e.job.Logs = append(e.job.Logs, logLine)
	}
	return nil
}

// CompleteJob transitions to completed and attaches the immutable base result
func (s *MemoryStore) CompleteJob(id string, result *models.AnalysisResult) error {
	e, err := s.entry(id)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := models.ValidateTransition(e.job.Status, models.JobStatusCompleted); err != nil {
		return ErrInvalidTransition
	}
	now := time.Now()
	e.job.Status = models.JobStatusCompleted
	e.job.Progress = 1.0
	e.job.CurrentStep = "done"
	e.job.CompletedAt = &now
	e.result = result.Clone()
	return nil
}

// FailJob transitions to failed from any non-terminal state and records the reason
func (s *MemoryStore) FailJob(id string, reason string) error {
	e, err := s.entry(id)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := models.ValidateTransition(e.job.Status, models.JobStatusFailed); err != nil {
		return ErrInvalidTransition
	}
	now := time.Now()
	e.job.Status = models.JobStatusFailed
	e.job.CurrentStep = "error"
	e.job.Error = reason
	e.job.Logs = append(e.job.Logs, "Error: "+reason)
	e.job.CompletedAt = &now
	return nil
}

// GetResult returns a detached copy of the base result
func (s *MemoryStore) GetResult(id string) (*models.AnalysisResult, error) {
	e, err := s.entry(id)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.result == nil {
		return nil, ErrJobNotReady
	}
	return e.result.Clone(), nil
}

// AppendEdits validates and appends edits atomically in array order,
// assigning sequence numbers. Returns the new total edit count. Edits are
// only accepted once a base result exists.
func (s *MemoryStore) AppendEdits(id string, edits []models.Edit) (int, error) {
	e, err := s.entry(id)
	if err != nil {
		return 0, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.result == nil {
		return 0, ErrJobNotReady
	}
	for _, edit := range edits {
		if err := edit.Validate(); err != nil {
			return 0, err
		}
	}
	for _, edit := range edits {
		edit.Seq = len(e.edits) + 1
		e.edits = append(e.edits, edit)
	}
	return len(e.edits), nil
}

// ListEdits returns the full edit history in arrival order
func (s *MemoryStore) ListEdits(id string) ([]models.Edit, error) {
	e, err := s.entry(id)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]models.Edit, len(e.edits))
	copy(out, e.edits)
	return out, nil
}

// Close is a no-op for the in-memory store
func (s *MemoryStore) Close() error {
	return nil
}

// HealthCheck is always healthy for the in-memory store
func (s *MemoryStore) HealthCheck() error {
	return nil
}

// GetJobMetrics aggregates job statistics for the metrics endpoint
func (s *MemoryStore) GetJobMetrics() (*JobMetrics, error) {
	jobs := s.GetAllJobs()

	m := &JobMetrics{JobsByState: make(map[models.JobStatus]int)}
	var totalDuration float64
	completed := 0
	for _, job := range jobs {
		m.JobsByState[job.Status]++
		m.TotalJobs++
		if job.Status == models.JobStatusRunning {
			m.ActiveJobs++
		}
		if job.Status == models.JobStatusQueued {
			m.QueueLength++
		}
		if job.Status == models.JobStatusCompleted && job.StartedAt != nil && job.CompletedAt != nil {
			totalDuration += job.CompletedAt.Sub(*job.StartedAt).Seconds()
			completed++
		}
	}
	if completed > 0 {
		m.AvgDuration = totalDuration / float64(completed)
	}

	s.mu.RLock()
	for _, e := range s.jobs {
		e.mu.Lock()
		m.TotalEdits += len(e.edits)
		e.mu.Unlock()
	}
	s.mu.RUnlock()

	return m, nil
}
