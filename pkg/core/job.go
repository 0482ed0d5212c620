package core

import "time"

// JobStatus is the lifecycle state of an analytics job.
type JobStatus string

// Job status constants.
const (
	JobQueued    JobStatus = "queued"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

// Terminal reports whether the status ends the job lifecycle.
func (s JobStatus) Terminal() bool {
	return s == JobCompleted || s == JobFailed
}

// AnalyticsJob is a transient execution handle for a long-running aggregate
// query. It is created by the execution service on submission and polled by
// the caller until a terminal status.
type AnalyticsJob struct {
	// ID is the job identifier
	ID string `json:"jobId"`
	// Hash is the optional config hash used as an idempotency key
	Hash string `json:"hash,omitempty"`
	// Status is the current lifecycle state
	Status JobStatus `json:"status"`
	// Error holds the failure message for failed jobs
	Error string `json:"error,omitempty"`
	// CreatedAt is the submission time
	CreatedAt time.Time `json:"createdAt"`
	// CompletedAt is set when the job reaches a terminal state
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// ResultMeta carries execution metadata alongside a result.
type ResultMeta struct {
	// ExecutedAt is when the query actually ran
	ExecutedAt time.Time `json:"executedAt"`
	// CachedAt is set when the result was served from a cache
	CachedAt *time.Time `json:"cachedAt,omitempty"`
	// DurationMS is the execution time in milliseconds
	DurationMS int64 `json:"durationMs"`
}

// QueryResult is an immediate (or completed-job) execution payload.
type QueryResult struct {
	// Columns is the ordered output column list
	Columns []string `json:"columns"`
	// Rows holds one map per row keyed by column alias
	Rows []map[string]any `json:"rows"`
	// SQL is the generated SQL text when the service exposes it
	SQL string `json:"sql,omitempty"`
	// Meta carries execution metadata
	Meta ResultMeta `json:"meta"`
}

// ExecutionResponse is the execution service's answer to a submission or a
// poll: exactly one of Result or Job is set.
type ExecutionResponse struct {
	Result *QueryResult  `json:"result,omitempty"`
	Job    *AnalyticsJob `json:"job,omitempty"`
}
