package state

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/leapstack-labs/reportql/pkg/core"
)

// CreateJob records a queued job with its canonical config encoding.
func (s *Store) CreateJob(ctx context.Context, job *core.AnalyticsJob, config []byte) error {
	if err := s.ready(); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO jobs (id, hash, status, error, config, created_at)
		 VALUES (?, ?, ?, '', ?, ?)`,
		job.ID, job.Hash, job.Status, string(config), job.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create job %s: %w", job.ID, err)
	}
	return nil
}

// MarkJobRunning transitions a job to running.
func (s *Store) MarkJobRunning(ctx context.Context, id string) error {
	return s.setStatus(ctx, id, core.JobRunning, "", nil)
}

// CompleteJob stores the result and transitions the job to completed.
func (s *Store) CompleteJob(ctx context.Context, id string, result *core.QueryResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode result for job %s: %w", id, err)
	}
	return s.setStatus(ctx, id, core.JobCompleted, "", payload)
}

// FailJob records the failure message and transitions the job to failed.
func (s *Store) FailJob(ctx context.Context, id, message string) error {
	return s.setStatus(ctx, id, core.JobFailed, message, nil)
}

func (s *Store) setStatus(ctx context.Context, id string, status core.JobStatus, message string, result []byte) error {
	if err := s.ready(); err != nil {
		return err
	}

	var completedAt any
	if status.Terminal() {
		completedAt = time.Now().UTC()
	}
	var resultPayload any
	if result != nil {
		resultPayload = string(result)
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE jobs SET status = ?, error = ?, result = COALESCE(?, result), completed_at = ?
		 WHERE id = ?`,
		status, message, resultPayload, completedAt, id,
	)
	if err != nil {
		return fmt.Errorf("update job %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("job %s: %w", id, ErrNotFound)
	}
	return nil
}

// GetJob loads a job and, when present, its stored result.
func (s *Store) GetJob(ctx context.Context, id string) (*core.AnalyticsJob, *core.QueryResult, error) {
	if err := s.ready(); err != nil {
		return nil, nil, err
	}

	var (
		job         core.AnalyticsJob
		result      sql.NullString
		completedAt sql.NullTime
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, hash, status, error, result, created_at, completed_at FROM jobs WHERE id = ?`, id,
	).Scan(&job.ID, &job.Hash, &job.Status, &job.Error, &result, &job.CreatedAt, &completedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, fmt.Errorf("job %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("load job %s: %w", id, err)
	}
	if completedAt.Valid {
		t := completedAt.Time
		job.CompletedAt = &t
	}

	var payload *core.QueryResult
	if result.Valid {
		payload = &core.QueryResult{}
		if err := json.Unmarshal([]byte(result.String), payload); err != nil {
			return nil, nil, fmt.Errorf("decode result for job %s: %w", id, err)
		}
	}
	return &job, payload, nil
}

// ActiveJobByHash returns the newest non-terminal job with the given config
// hash, or nil when none is in flight.
func (s *Store) ActiveJobByHash(ctx context.Context, hash string) (*core.AnalyticsJob, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	var job core.AnalyticsJob
	err := s.db.QueryRowContext(ctx,
		`SELECT id, hash, status, error, created_at FROM jobs
		 WHERE hash = ? AND status IN (?, ?)
		 ORDER BY created_at DESC LIMIT 1`,
		hash, core.JobQueued, core.JobRunning,
	).Scan(&job.ID, &job.Hash, &job.Status, &job.Error, &job.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("look up job by hash: %w", err)
	}
	return &job, nil
}

// ListJobs returns the most recent jobs, newest first.
func (s *Store) ListJobs(ctx context.Context, limit int) ([]core.AnalyticsJob, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, hash, status, error, created_at, completed_at FROM jobs
		 ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var out []core.AnalyticsJob
	for rows.Next() {
		var (
			job         core.AnalyticsJob
			completedAt sql.NullTime
		)
		if err := rows.Scan(&job.ID, &job.Hash, &job.Status, &job.Error, &job.CreatedAt, &completedAt); err != nil {
			return nil, fmt.Errorf("scan job row: %w", err)
		}
		if completedAt.Valid {
			t := completedAt.Time
			job.CompletedAt = &t
		}
		out = append(out, job)
	}
	return out, rows.Err()
}

// PruneJobs deletes terminal jobs older than the cutoff and returns the
// number removed.
func (s *Store) PruneJobs(ctx context.Context, olderThan time.Time) (int64, error) {
	if err := s.ready(); err != nil {
		return 0, err
	}

	res, err := s.db.ExecContext(ctx,
		`DELETE FROM jobs WHERE status IN (?, ?) AND created_at < ?`,
		core.JobCompleted, core.JobFailed, olderThan,
	)
	if err != nil {
		return 0, fmt.Errorf("prune jobs: %w", err)
	}
	return res.RowsAffected()
}
