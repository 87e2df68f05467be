package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/ErikING-Chile/fast-check/pkg/models"
)

// SQLiteStore is a SQLite-based implementation of the data store
type SQLiteStore struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteStore creates a new SQLite store
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	// WAL for concurrent readers, busy timeout to ride out writer lock,
	// immediate txlock so write transactions fail fast instead of deadlocking.
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=10000&_synchronous=NORMAL&_txlock=immediate", dbPath)

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Single writer to avoid SQLITE_BUSY
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(30 * time.Minute)

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

// initSchema creates the database schema
func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS jobs (
		id TEXT PRIMARY KEY,
		video_path TEXT NOT NULL,
		language TEXT NOT NULL DEFAULT 'auto',
		num_speakers INTEGER,
		pack_name TEXT,
		verify BOOLEAN NOT NULL DEFAULT 0,
		status TEXT NOT NULL,
		progress REAL NOT NULL DEFAULT 0,
		current_step TEXT,
		logs TEXT,
		error TEXT,
		created_at DATETIME NOT NULL,
		started_at DATETIME,
		completed_at DATETIME
	);

	CREATE TABLE IF NOT EXISTS job_edits (
		job_id TEXT NOT NULL,
		seq INTEGER NOT NULL,
		payload TEXT NOT NULL,
		PRIMARY KEY (job_id, seq)
	);

	CREATE TABLE IF NOT EXISTS job_results (
		job_id TEXT PRIMARY KEY,
		payload TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs(status);
	`
	_, err := s.db.Exec(schema)
	return err
}

// CreateJob adds a new job record
func (s *SQLiteStore) CreateJob(job *models.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	logs, err := json.Marshal(job.Logs)
	if err != nil {
		return fmt.Errorf("failed to marshal logs: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO jobs
		(id, video_path, language, num_speakers, pack_name, verify, status, progress,
		 current_step, logs, error, created_at, started_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, job.ID, job.VideoPath, job.Language, nullableInt(job.NumSpeakers), job.PackName,
		job.Verify, string(job.Status), job.Progress, job.CurrentStep, string(logs),
		job.Error, job.CreatedAt, job.StartedAt, job.CompletedAt)
	return err
}

// GetJob retrieves a job by ID
func (s *SQLiteStore) GetJob(id string) (*models.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getJob(id)
}

func (s *SQLiteStore) getJob(id string) (*models.Job, error) {
	row := s.db.QueryRow(`
		SELECT id, video_path, language, num_speakers, pack_name, verify, status,
		       progress, current_step, logs, error, created_at, started_at, completed_at
		FROM jobs WHERE id = ?
	`, id)
	job, err := scanJob(row)
	if err == sql.ErrNoRows {
		return nil, ErrJobNotFound
	}
	return job, err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanJob(row rowScanner) (*models.Job, error) {
	var job models.Job
	var numSpeakers sql.NullInt64
	var packName, currentStep, logs, errMsg sql.NullString
	var startedAt, completedAt sql.NullTime
	var status string

	err := row.Scan(&job.ID, &job.VideoPath, &job.Language, &numSpeakers, &packName,
		&job.Verify, &status, &job.Progress, &currentStep, &logs, &errMsg,
		&job.CreatedAt, &startedAt, &completedAt)
	if err != nil {
		return nil, err
	}

	job.Status = models.JobStatus(status)
	if numSpeakers.Valid {
		n := int(numSpeakers.Int64)
		job.NumSpeakers = &n
	}
	job.PackName = packName.String
	job.CurrentStep = currentStep.String
	job.Error = errMsg.String
	if logs.Valid && logs.String != "" {
		if err := json.Unmarshal([]byte(logs.String), &job.Logs); err != nil {
			return nil, fmt.Errorf("failed to unmarshal logs: %w", err)
		}
	}
	if startedAt.Valid {
		t := startedAt.Time
		job.StartedAt = &t
	}
	if completedAt.Valid {
		t := completedAt.Time
		job.CompletedAt = &t
	}
	return &job, nil
}

// GetAllJobs returns all jobs, newest first
func (s *SQLiteStore) GetAllJobs() []*models.Job {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`
		SELECT id, video_path, language, num_speakers, pack_name, verify, status,
		       progress, current_step, logs, error, created_at, started_at, completed_at
		FROM jobs ORDER BY created_at DESC
	`)
	if err != nil {
		return nil
	}
	defer rows.Close()

	var jobs []*models.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			continue
		}
		jobs = append(jobs, job)
	}
	return jobs
}

// StartJob transitions a queued job to running
func (s *SQLiteStore) StartJob(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, err := s.getJob(id)
	if err != nil {
		return err
	}
	if err := models.ValidateTransition(job.Status, models.JobStatusRunning); err != nil {
		return ErrInvalidTransition
	}
	_, err = s.db.Exec(`UPDATE jobs SET status = ?, started_at = ? WHERE id = ?`,
		string(models.JobStatusRunning), time.Now(), id)
	return err
}

// UpdateProgress advances progress, step, and logs for a non-terminal job
func (s *SQLiteStore) UpdateProgress(id string, fraction float64, step, logLine string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, err := s.getJob(id)
	if err != nil {
		return err
	}
	if models.IsTerminalState(job.Status) {
		return ErrInvalidTransition
	}
	if fraction > 1.0 {
		fraction = 1.0
	}
	if fraction < job.Progress {
		fraction = job.Progress
	}
	if step == "" {
		step = job.CurrentStep
	}
	if logLine != "" {
		job.Logs = append(job.Logs, logLine)
	}
	logs, err := json.Marshal(job.Logs)
	if err != nil {
		return fmt.Errorf("failed to marshal logs: %w", err)
	}
	_, err = s.db.Exec(`UPDATE jobs SET progress = ?, current_step = ?, logs = ? WHERE id = ?`,
		fraction, step, string(logs), id)
	return err
}

// CompleteJob transitions to completed and attaches the base result
func (s *SQLiteStore) CompleteJob(id string, result *models.AnalysisResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, err := s.getJob(id)
	if err != nil {
		return err
	}
	if err := models.ValidateTransition(job.Status, models.JobStatusCompleted); err != nil {
		return ErrInvalidTransition
	}

	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`UPDATE jobs SET status = ?, progress = 1.0, current_step = 'done', completed_at = ? WHERE id = ?`,
		string(models.JobStatusCompleted), time.Now(), id); err != nil {
		return err
	}
	if _, err := tx.Exec(`INSERT INTO job_results (job_id, payload) VALUES (?, ?)`,
		id, string(payload)); err != nil {
		return err
	}
	return tx.Commit()
}

// FailJob transitions to failed and records the reason
func (s *SQLiteStore) FailJob(id string, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, err := s.getJob(id)
	if err != nil {
		return err
	}
	if err := models.ValidateTransition(job.Status, models.JobStatusFailed); err != nil {
		return ErrInvalidTransition
	}
	job.Logs = append(job.Logs, "Error: "+reason)
	logs, err := json.Marshal(job.Logs)
	if err != nil {
		return fmt.Errorf("failed to marshal logs: %w", err)
	}
	_, err = s.db.Exec(`UPDATE jobs SET status = ?, current_step = 'error', error = ?, logs = ?, completed_at = ? WHERE id = ?`,
		string(models.JobStatusFailed), reason, string(logs), time.Now(), id)
	return err
}

// GetResult returns the stored base result
func (s *SQLiteStore) GetResult(id string) (*models.AnalysisResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.getJob(id); err != nil {
		return nil, err
	}

	var payload string
	err := s.db.QueryRow(`SELECT payload FROM job_results WHERE job_id = ?`, id).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, ErrJobNotReady
	}
	if err != nil {
		return nil, err
	}

	var result models.AnalysisResult
	if err := json.Unmarshal([]byte(payload), &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal result: %w", err)
	}
	return &result, nil
}

// AppendEdits validates and appends edits atomically in array order
func (s *SQLiteStore) AppendEdits(id string, edits []models.Edit) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.getJob(id); err != nil {
		return 0, err
	}

	var haveResult int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM job_results WHERE job_id = ?`, id).Scan(&haveResult); err != nil {
		return 0, err
	}
	if haveResult == 0 {
		return 0, ErrJobNotReady
	}

	for _, edit := range edits {
		if err := edit.Validate(); err != nil {
			return 0, err
		}
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var total int
	if err := tx.QueryRow(`SELECT COALESCE(MAX(seq), 0) FROM job_edits WHERE job_id = ?`, id).Scan(&total); err != nil {
		return 0, err
	}
	for _, edit := range edits {
		total++
		edit.Seq = total
		payload, err := json.Marshal(edit)
		if err != nil {
			return 0, fmt.Errorf("failed to marshal edit: %w", err)
		}
		if _, err := tx.Exec(`INSERT INTO job_edits (job_id, seq, payload) VALUES (?, ?, ?)`,
			id, total, string(payload)); err != nil {
			return 0, err
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return total, nil
}

// ListEdits returns the full edit history in arrival order
func (s *SQLiteStore) ListEdits(id string) ([]models.Edit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.getJob(id); err != nil {
		return nil, err
	}

	rows, err := s.db.Query(`SELECT payload FROM job_edits WHERE job_id = ? ORDER BY seq`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var edits []models.Edit
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var edit models.Edit
		if err := json.Unmarshal([]byte(payload), &edit); err != nil {
			return nil, fmt.Errorf("failed to unmarshal edit: %w", err)
		}
		edits = append(edits, edit)
	}
	return edits, rows.Err()
}

// Close closes the database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// HealthCheck pings the database
func (s *SQLiteStore) HealthCheck() error {
	return s.db.Ping()
}

// GetJobMetrics aggregates job statistics for the metrics endpoint
func (s *SQLiteStore) GetJobMetrics() (*JobMetrics, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := &JobMetrics{JobsByState: make(map[models.JobStatus]int)}

	rows, err := s.db.Query(`SELECT status, COUNT(*) FROM jobs GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		st := models.JobStatus(status)
		m.JobsByState[st] = count
		m.TotalJobs += count
		if st == models.JobStatusRunning {
			m.ActiveJobs += count
		}
		if st == models.JobStatusQueued {
			m.QueueLength = count
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := s.db.QueryRow(`SELECT COUNT(*) FROM job_edits`).Scan(&m.TotalEdits); err != nil {
		return nil, err
	}

	var avg sql.NullFloat64
	err = s.db.QueryRow(`
		SELECT AVG(strftime('%s', completed_at) - strftime('%s', started_at))
		FROM jobs WHERE status = ? AND started_at IS NOT NULL AND completed_at IS NOT NULL
	`, string(models.JobStatusCompleted)).Scan(&avg)
	if err != nil {
		return nil, err
	}
	if avg.Valid {
		m.AvgDuration = avg.Float64
	}
	return m, nil
}

func nullableInt(v *int) interface{} {
	if v == nil {
		return nil
	}
	return *v
}
