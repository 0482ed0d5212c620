package exec

import (
	"errors"
	"fmt"
	"strings"
)

// ErrSuperseded is returned when a newer submission replaced the one whose
// result just arrived. The caller should discard the outcome silently.
var ErrSuperseded = errors.New("superseded by a newer submission")

// StaleDerivedFieldError blocks execution when the configuration references
// derived fields whose required models are no longer selected. Recoverable by
// re-adding the missing models or disabling the fields.
type StaleDerivedFieldError struct {
	Fields []string
}

func (e *StaleDerivedFieldError) Error() string {
	return fmt.Sprintf("resolve stale derived fields before running: %s", strings.Join(e.Fields, ", "))
}

// JobFailedError is terminal for one execution attempt. The caller may
// resubmit the same configuration.
type JobFailedError struct {
	JobID   string
	Message string
}

func (e *JobFailedError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("analytics job %s failed", e.JobID)
	}
	return fmt.Sprintf("analytics job %s failed: %s", e.JobID, e.Message)
}

// TransportError wraps a failure of the underlying execution transport.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("execution transport %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
