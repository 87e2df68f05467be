package models

import (
	"time"
)

// JobStatus represents the lifecycle state of an analysis job
type JobStatus string

const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// JobRequest represents a request to analyze a video
type JobRequest struct {
	VideoPath   string `json:"video_path"`
	Language    string `json:"language,omitempty"`     // "auto" or a language code, passed through uninterpreted
	NumSpeakers *int   `json:"num_speakers,omitempty"` // nil means auto-detect
	PackName    string `json:"pack_name,omitempty"`
	Verify      bool   `json:"verify,omitempty"`
}

// Job is the mutable record tracking one analysis job. Status fields are
// written only through the store; once a terminal status is reached the
// record is frozen except for edit-log growth, which lives beside it.
type Job struct {
	ID          string     `json:"id"`
	VideoPath   string     `json:"video_path"`
	Language    string     `json:"language"`
	NumSpeakers *int       `json:"num_speakers,omitempty"`
	PackName    string     `json:"pack_name,omitempty"`
	Verify      bool       `json:"verify"`
	Status      JobStatus  `json:"status"`
	Progress    float64    `json:"progress"` // 0.0-1.0, never decreases
	CurrentStep string     `json:"current_step,omitempty"`
	Logs        []string   `json:"logs,omitempty"`
	Error       string     `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// StatusSnapshot is the read-only view returned to pollers
type StatusSnapshot struct {
	JobID       string    `json:"job_id"`
	Status      JobStatus `json:"status"`
	Progress    float64   `json:"progress"`
	CurrentStep string    `json:"current_step"`
	Logs        []string  `json:"logs"`
	Error       string    `json:"error,omitempty"`
}

// Snapshot builds the poll view from a job record
func (j *Job) Snapshot() StatusSnapshot {
	logs := make([]string, len(j.Logs))
	copy(logs, j.Logs)
	return StatusSnapshot{
		JobID:       j.ID,
		Status:      j.Status,
		Progress:    j.Progress,
		CurrentStep: j.CurrentStep,
		Logs:        logs,
		Error:       j.Error,
	}
}

// Clone returns a deep copy of the job record
func (j *Job) Clone() *Job {
	out := *j
	if j.Logs != nil {
		out.Logs = make([]string, len(j.Logs))
		copy(out.Logs, j.Logs)
	}
	if j.NumSpeakers != nil {
		n := *j.NumSpeakers
		out.NumSpeakers = &n
	}
	if j.StartedAt != nil {
		t := *j.StartedAt
		out.StartedAt = &t
	}
	if j.CompletedAt != nil {
		t := *j.CompletedAt
		out.CompletedAt = &t
	}
	return &out
}
