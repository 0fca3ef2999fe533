package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"kserve-lifecycle/api/v1beta1"
	"kserve-lifecycle/internal/helpers/diagnostics"
	"kserve-lifecycle/internal/helpers/inference"
)

// SubmissionError is returned when the descriptor is malformed or the
// control plane refuses it.
type SubmissionError struct {
	Name          string
	Namespace     string
	AlreadyExists bool
	Err           error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("unable to submit InferenceService %s/%s: %v", e.Namespace, e.Name, e.Err)
}

func (e *SubmissionError) Unwrap() error { return e.Err }

// ReadinessTimeoutError is returned when the deadline elapses before the
// InferenceService reports Ready. It carries what was observed so the run can
// be triaged without re-running it.
type ReadinessTimeoutError struct {
	Name        string
	Namespace   string
	Timeout     time.Duration
	Elapsed     time.Duration
	Polls       int
	LastStatus  *v1beta1.InferenceServiceStatus
	LastErr     error
	Diagnostics *diagnostics.Diagnostics
}

func (e *ReadinessTimeoutError) Error() string {
	msg := fmt.Sprintf("InferenceService %s/%s not ready within %s (%d polls in %s)",
		e.Namespace, e.Name, e.Timeout, e.Polls, e.Elapsed.Round(time.Millisecond))
	if e.LastErr != nil {
		msg += fmt.Sprintf(": last poll error: %v", e.LastErr)
	}
	return msg
}

// Is makes errors.Is(err, context.DeadlineExceeded) hold for readiness timeouts.
func (e *ReadinessTimeoutError) Is(target error) bool {
	return target == context.DeadlineExceeded
}

// InferenceError wraps a failed predict or explain call.
type InferenceError struct {
	Verb string
	Name string
	Err  error
}

func (e *InferenceError) Error() string {
	return fmt.Sprintf("%s call to %s failed: %v", e.Verb, e.Name, e.Err)
}

func (e *InferenceError) Unwrap() error { return e.Err }

// StatusCode returns the HTTP status of the failed call, 0 on transport errors.
func (e *InferenceError) StatusCode() int {
	var statusErr *inference.StatusError
	if errors.As(e.Err, &statusErr) {
		return statusErr.Code
	}
	return 0
}

// TeardownError is returned when the deletion fails or cannot be confirmed.
type TeardownError struct {
	Name      string
	Namespace string
	Err       error
}

func (e *TeardownError) Error() string {
	return fmt.Sprintf("unable to delete InferenceService %s/%s: %v", e.Namespace, e.Name, e.Err)
}

func (e *TeardownError) Unwrap() error { return e.Err }
