// Package exec implements the submit-then-poll execution protocol over a
// pluggable transport. Submissions carry generation tokens: when a newer
// submission starts, results from older in-flight poll chains are discarded.
package exec

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/leapstack-labs/reportql/pkg/core"
)

// Polling defaults. MaxPolls bounds an otherwise open-ended job wait; at the
// default interval it amounts to a five minute ceiling.
const (
	DefaultPollInterval = 1500 * time.Millisecond
	DefaultMaxPolls     = 200
)

// Runner is the execution transport. Implementations are the in-process
// runner and the HTTP client to a remote reportql server.
type Runner interface {
	// RunQuery submits an analytics configuration and answers with either an
	// immediate result or a job handle.
	RunQuery(ctx context.Context, cfg core.QueryConfig) (*core.ExecutionResponse, error)
	// GetJob polls a previously returned job handle.
	GetJob(ctx context.Context, jobID string) (*core.ExecutionResponse, error)
	// RunPreview executes a row-preview request synchronously.
	RunPreview(ctx context.Context, req core.PreviewRequest) (*core.QueryResult, error)
}

// Options tune the polling loop. Zero values take the defaults.
type Options struct {
	PollInterval time.Duration
	MaxPolls     int
}

// Executor drives the async protocol for one query slot. At most one poll
// chain is current at a time; Execute calls racing on the same executor
// resolve by last-submission-wins.
type Executor struct {
	runner       Runner
	logger       *slog.Logger
	pollInterval time.Duration
	maxPolls     int
	generation   atomic.Uint64
}

// NewExecutor creates an executor over the given transport.
func NewExecutor(runner Runner, logger *slog.Logger, opts Options) *Executor {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.MaxPolls <= 0 {
		opts.MaxPolls = DefaultMaxPolls
	}
	return &Executor{
		runner:       runner,
		logger:       logger,
		pollInterval: opts.PollInterval,
		maxPolls:     opts.MaxPolls,
	}
}

// Execute submits the configuration and waits for its result, polling when
// the service answers with a job handle. The derived field list is checked
// for staleness first: any stale field short-circuits with a
// StaleDerivedFieldError before the transport is touched.
func (e *Executor) Execute(ctx context.Context, cfg core.QueryConfig, derived []*core.DerivedField) (*core.QueryResult, error) {
	if stale := StaleFields(derived); len(stale) > 0 {
		return nil, &StaleDerivedFieldError{Fields: stale}
	}

	gen := e.generation.Add(1)

	resp, err := e.runner.RunQuery(ctx, cfg)
	if err != nil {
		return nil, &TransportError{Op: "submit", Err: err}
	}
	if resp.Result != nil {
		return e.deliver(gen, resp.Result)
	}
	if resp.Job == nil {
		return nil, &TransportError{Op: "submit", Err: errEmptyResponse}
	}

	e.logger.Debug("query queued", "job", resp.Job.ID, "status", resp.Job.Status)
	return e.poll(ctx, gen, resp.Job)
}

// Preview runs the row-preview path synchronously. Previews are not
// generation-tracked; the caller owns their lifecycle.
func (e *Executor) Preview(ctx context.Context, req core.PreviewRequest) (*core.QueryResult, error) {
	result, err := e.runner.RunPreview(ctx, req)
	if err != nil {
		return nil, &TransportError{Op: "preview", Err: err}
	}
	return result, nil
}

// poll drives one job handle to a terminal state. The ticker is stopped on
// every exit path so cancelled chains leak no timers.
func (e *Executor) poll(ctx context.Context, gen uint64, job *core.AnalyticsJob) (*core.QueryResult, error) {
	ticker := time.NewTicker(e.pollInterval)
	defer ticker.Stop()

	for polls := 0; polls < e.maxPolls; polls++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
		if !e.current(gen) {
			return nil, ErrSuperseded
		}

		resp, err := e.runner.GetJob(ctx, job.ID)
		if err != nil {
			return nil, &TransportError{Op: "poll", Err: err}
		}
		if resp.Result != nil {
			return e.deliver(gen, resp.Result)
		}
		if resp.Job == nil {
			return nil, &TransportError{Op: "poll", Err: errEmptyResponse}
		}
		if resp.Job.Status == core.JobFailed {
			return nil, &JobFailedError{JobID: job.ID, Message: resp.Job.Error}
		}
	}
	return nil, &JobFailedError{JobID: job.ID, Message: "timed out waiting for completion"}
}

// deliver hands the result to the caller unless a newer submission has
// superseded this chain in the meantime.
func (e *Executor) deliver(gen uint64, result *core.QueryResult) (*core.QueryResult, error) {
	if !e.current(gen) {
		return nil, ErrSuperseded
	}
	return result, nil
}

func (e *Executor) current(gen uint64) bool {
	return e.generation.Load() == gen
}

// StaleFields returns the IDs of stale derived fields, in input order.
func StaleFields(fields []*core.DerivedField) []string {
	var out []string
	for _, f := range fields {
		if f != nil && f.Status == core.DerivedStale {
			out = append(out, f.ID)
		}
	}
	return out
}

var errEmptyResponse = &emptyResponseError{}

type emptyResponseError struct{}

func (*emptyResponseError) Error() string {
	return "response carried neither a result nor a job handle"
}
