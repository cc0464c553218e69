// Package store keeps a local record of submitted fine-tuning jobs in SQLite,
// so their status can be checked later without the remote job id at hand.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when no job has the requested id.
var ErrNotFound = errors.New("job not found")

// Job is one fine-tuning job as recorded locally.
type Job struct {
	JobID          string    `json:"job_id"`
	FileID         string    `json:"file_id"`
	Source         string    `json:"source"`
	BaseModel      string    `json:"base_model"`
	Status         string    `json:"status"`
	RemoteStatus   string    `json:"remote_status"`
	FineTunedModel string    `json:"fine_tuned_model,omitempty"`
	Detail         string    `json:"detail,omitempty"`
	Entries        int       `json:"entries"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Store is a SQLite-backed job table.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path. Use ":memory:" in tests that
// need no file.
func Open(path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(10000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Writes are serialized by SQLite anyway.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) initSchema() error {
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS finetune_jobs (
		job_id TEXT PRIMARY KEY,
		file_id TEXT NOT NULL,
		source TEXT NOT NULL DEFAULT '',
		base_model TEXT NOT NULL,
		status TEXT NOT NULL,
		remote_status TEXT NOT NULL DEFAULT '',
		fine_tuned_model TEXT NOT NULL DEFAULT '',
		detail TEXT NOT NULL DEFAULT '',
		entries INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_finetune_jobs_created_at ON finetune_jobs(created_at);
	`)
	return err
}

// Save inserts job, or replaces the row with the same id.
func (s *Store) Save(ctx context.Context, job *Job) error {
	if job.JobID == "" {
		return fmt.Errorf("job id is required")
	}
	now := time.Now().UTC()
	if job.CreatedAt.IsZero() {
		job.CreatedAt = now
	}
	job.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO finetune_jobs (job_id, file_id, source, base_model, status, remote_status,
			fine_tuned_model, detail, entries, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(job_id) DO UPDATE SET
			file_id = excluded.file_id,
			source = excluded.source,
			base_model = excluded.base_model,
			status = excluded.status,
			remote_status = excluded.remote_status,
			fine_tuned_model = excluded.fine_tuned_model,
			detail = excluded.detail,
			entries = excluded.entries,
			updated_at = excluded.updated_at`,
		job.JobID, job.FileID, job.Source, job.BaseModel, job.Status, job.RemoteStatus,
		job.FineTunedModel, job.Detail, job.Entries, job.CreatedAt, job.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save job %s: %w", job.JobID, err)
	}
	return nil
}

// StatusUpdate is the result of one status check.
type StatusUpdate struct {
	Status         string
	RemoteStatus   string
	FineTunedModel string
	Detail         string
}

// UpdateStatus records the latest status of a job. An empty FineTunedModel
// keeps the stored one.
func (s *Store) UpdateStatus(ctx context.Context, jobID string, u StatusUpdate) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE finetune_jobs SET
			status = ?,
			remote_status = ?,
			fine_tuned_model = CASE WHEN ? = '' THEN fine_tuned_model ELSE ? END,
			detail = ?,
			updated_at = ?
		WHERE job_id = ?`,
		u.Status, u.RemoteStatus, u.FineTunedModel, u.FineTunedModel, u.Detail, time.Now().UTC(), jobID)
	if err != nil {
		return fmt.Errorf("update job %s: %w", jobID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update job %s: %w", jobID, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

const selectJob = `SELECT job_id, file_id, source, base_model, status, remote_status,
	fine_tuned_model, detail, entries, created_at, updated_at FROM finetune_jobs`

// Get returns the job with id jobID.
func (s *Store) Get(ctx context.Context, jobID string) (*Job, error) {
	row := s.db.QueryRowContext(ctx, selectJob+` WHERE job_id = ?`, jobID)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get job %s: %w", jobID, err)
	}
	return job, nil
}

// List returns all jobs, newest first.
func (s *Store) List(ctx context.Context) ([]*Job, error) {
	rows, err := s.db.QueryContext(ctx, selectJob+` ORDER BY created_at DESC, job_id`)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("list jobs: %w", err)
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanJob(sc scanner) (*Job, error) {
	var j Job
	err := sc.Scan(&j.JobID, &j.FileID, &j.Source, &j.BaseModel, &j.Status, &j.RemoteStatus,
		&j.FineTunedModel, &j.Detail, &j.Entries, &j.CreatedAt, &j.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &j, nil
}
