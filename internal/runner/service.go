// Package runner is the execution service: it compiles canonical query
// configurations to SQL, runs them through a database adapter, and manages
// background analytics jobs.
package runner

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/leapstack-labs/reportql/internal/schema"
	"github.com/leapstack-labs/reportql/pkg/adapter"
	"github.com/leapstack-labs/reportql/pkg/core"
)

// jobTimeout bounds a single background execution.
const jobTimeout = 10 * time.Minute

// JobStore persists analytics jobs and their results across polls.
type JobStore interface {
	CreateJob(ctx context.Context, job *core.AnalyticsJob, config []byte) error
	MarkJobRunning(ctx context.Context, id string) error
	CompleteJob(ctx context.Context, id string, result *core.QueryResult) error
	FailJob(ctx context.Context, id string, message string) error
	GetJob(ctx context.Context, id string) (*core.AnalyticsJob, *core.QueryResult, error)
	ActiveJobByHash(ctx context.Context, hash string) (*core.AnalyticsJob, error)
}

// Service executes queries against one connected adapter. It implements the
// transport interface the protocol client polls against.
type Service struct {
	db      adapter.Adapter
	gen     *Generator
	jobs    JobStore
	logger  *slog.Logger
	group   singleflight.Group
	running sync.WaitGroup
}

// NewService creates an execution service over a connected adapter.
func NewService(db adapter.Adapter, catalog *schema.Catalog, jobs JobStore, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{
		db:     db,
		gen:    NewGenerator(db.Dialect(), catalog),
		jobs:   jobs,
		logger: logger,
	}
}

// Wait blocks until all background jobs have finished. Used on shutdown.
func (s *Service) Wait() {
	s.running.Wait()
}

// RunQuery answers with an immediate result, or a job handle when the
// configuration allows async execution. Concurrent submissions of the same
// configuration collapse onto one job via the config hash.
func (s *Service) RunQuery(ctx context.Context, cfg core.QueryConfig) (*core.ExecutionResponse, error) {
	stmt, err := s.gen.Analytics(cfg)
	if err != nil {
		return nil, err
	}

	if !cfg.AllowAsync {
		result, err := s.run(ctx, stmt)
		if err != nil {
			return nil, err
		}
		return &core.ExecutionResponse{Result: result}, nil
	}

	hash, payload, err := ConfigHash(cfg)
	if err != nil {
		return nil, err
	}
	job, err, _ := s.group.Do(hash, func() (any, error) {
		return s.submitJob(ctx, hash, payload, stmt)
	})
	if err != nil {
		return nil, err
	}
	return &core.ExecutionResponse{Job: job.(*core.AnalyticsJob)}, nil
}

// GetJob answers a poll: the stored result for completed jobs, the job
// handle otherwise.
func (s *Service) GetJob(ctx context.Context, jobID string) (*core.ExecutionResponse, error) {
	job, result, err := s.jobs.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.Status == core.JobCompleted && result != nil {
		return &core.ExecutionResponse{Result: result}, nil
	}
	return &core.ExecutionResponse{Job: job}, nil
}

// RunPreview executes the row-level path synchronously.
func (s *Service) RunPreview(ctx context.Context, req core.PreviewRequest) (*core.QueryResult, error) {
	stmt, err := s.gen.Preview(req)
	if err != nil {
		return nil, err
	}
	return s.run(ctx, stmt)
}

// submitJob reuses an in-flight job with the same hash or creates a new one
// and launches its background execution.
func (s *Service) submitJob(ctx context.Context, hash string, config []byte, stmt Statement) (*core.AnalyticsJob, error) {
	if existing, err := s.jobs.ActiveJobByHash(ctx, hash); err != nil {
		return nil, err
	} else if existing != nil {
		s.logger.Debug("reusing in-flight job", "job", existing.ID, "hash", hash)
		return existing, nil
	}

	job := &core.AnalyticsJob{
		ID:        uuid.New().String(),
		Hash:      hash,
		Status:    core.JobQueued,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.jobs.CreateJob(ctx, job, config); err != nil {
		return nil, err
	}

	s.running.Add(1)
	go s.execute(job.ID, stmt)

	s.logger.Info("analytics job queued", "job", job.ID, "hash", hash)
	return job, nil
}

// execute drives one background job to a terminal state. It runs detached
// from the submitting request's context.
func (s *Service) execute(jobID string, stmt Statement) {
	defer s.running.Done()

	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	if err := s.jobs.MarkJobRunning(ctx, jobID); err != nil {
		s.logger.Error("mark job running", "job", jobID, "error", err)
		return
	}

	result, err := s.run(ctx, stmt)
	if err != nil {
		s.logger.Warn("analytics job failed", "job", jobID, "error", err)
		if storeErr := s.jobs.FailJob(ctx, jobID, err.Error()); storeErr != nil {
			s.logger.Error("record job failure", "job", jobID, "error", storeErr)
		}
		return
	}
	if err := s.jobs.CompleteJob(ctx, jobID, result); err != nil {
		s.logger.Error("record job result", "job", jobID, "error", err)
		return
	}
	s.logger.Info("analytics job completed", "job", jobID, "rows", len(result.Rows))
}

// run executes a statement and materializes its rows.
func (s *Service) run(ctx context.Context, stmt Statement) (*core.QueryResult, error) {
	start := time.Now()
	rows, err := s.db.Query(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		return nil, fmt.Errorf("execute query: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}

	result := &core.QueryResult{
		Columns: columns,
		Rows:    []map[string]any{},
		SQL:     stmt.SQL,
	}
	values := make([]any, len(columns))
	scan := make([]any, len(columns))
	for i := range values {
		scan[i] = &values[i]
	}
	for rows.Next() {
		if err := rows.Scan(scan...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		row := make(map[string]any, len(columns))
		for i, col := range columns {
			row[col] = normalizeValue(values[i])
		}
		result.Rows = append(result.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	result.Meta = core.ResultMeta{
		ExecutedAt: start.UTC(),
		DurationMS: time.Since(start).Milliseconds(),
	}
	return result, nil
}

// normalizeValue makes driver byte slices JSON-friendly.
func normalizeValue(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}

// ConfigHash returns the idempotency key for a configuration together with
// its canonical JSON encoding.
func ConfigHash(cfg core.QueryConfig) (string, []byte, error) {
	payload, err := json.Marshal(cfg)
	if err != nil {
		return "", nil, fmt.Errorf("hash config: %w", err)
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:]), payload, nil
}
