package invoke

import (
	"errors"
	"fmt"
	"time"
)

// ErrCancelled reports that an invocation was cancelled, either
// through its Call token or through the caller's context.
var ErrCancelled = errors.New("invocation cancelled")

// TimeoutError reports that the connection's call timeout expired
// before the invocation completed. Expiry behaves exactly like an
// explicit cancellation: stream readers unblock with an error and an
// async callback fires once with this error.
type TimeoutError struct {
	Operation string
	After     time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("operation %s timed out after %s", e.Operation, e.After)
}

// Timeout reports this as a timeout, matching net.Error conventions.
func (e *TimeoutError) Timeout() bool { return true }

// InvocationError wraps a transport-level failure such as a refused
// connection or a mid-exchange reset.
type InvocationError struct {
	Operation string
	Err       error
}

func (e *InvocationError) Error() string {
	return fmt.Sprintf("operation %s failed: %v", e.Operation, e.Err)
}

func (e *InvocationError) Unwrap() error { return e.Err }
