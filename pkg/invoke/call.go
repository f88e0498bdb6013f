package invoke

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Call is the in-flight handle for one executing invocation. The
// engine owns the call for its lifetime; callers hold a reference only
// to cancel it or wait for completion.
type Call struct {
	id      string
	op      string
	timeout time.Duration

	ctx       context.Context
	cancelCtx context.CancelFunc

	cancelled    atomic.Bool
	deliverOnce  sync.Once
	completeOnce sync.Once
	done         chan struct{}
}

func newCall(ctx context.Context, op string, timeout time.Duration) *Call {
	var callCtx context.Context
	var cancel context.CancelFunc
	if timeout > 0 {
		callCtx, cancel = context.WithTimeout(ctx, timeout)
	} else {
		callCtx, cancel = context.WithCancel(ctx)
	}
	return &Call{
		id:        uuid.NewString(),
		op:        op,
		timeout:   timeout,
		ctx:       callCtx,
		cancelCtx: cancel,
		done:      make(chan struct{}),
	}
}

// ID returns the unique identifier of this call.
func (c *Call) ID() string { return c.id }

// Operation returns the operation name this call is executing.
func (c *Call) Operation() string { return c.op }

// Cancel aborts the underlying HTTP exchange. Any blocked read on a
// stream result terminates with an error shortly after. Cancelling a
// completed or already-cancelled call is a no-op.
func (c *Call) Cancel() {
	if c.cancelled.CompareAndSwap(false, true) {
		c.cancelCtx()
	}
}

// Cancelled reports whether Cancel has been requested.
func (c *Call) Cancelled() bool { return c.cancelled.Load() }

// Done is closed once the outcome has been delivered. For stream
// results this is the moment the stream handle is handed over, not
// when the stream is drained.
func (c *Call) Done() <-chan struct{} { return c.done }

// complete marks the outcome as delivered.
func (c *Call) complete() {
	c.completeOnce.Do(func() { close(c.done) })
}

// finish releases the call's context resources and marks it complete.
func (c *Call) finish() {
	c.cancelCtx()
	c.complete()
}

// deliver invokes the callback exactly once, regardless of how many
// terminal paths race to report an outcome.
func (c *Call) deliver(fn func(any, error), value any, err error) {
	c.deliverOnce.Do(func() { fn(value, err) })
}

// classify maps a terminal error to the caller-facing taxonomy. The
// cancellation flag wins over the context state so an explicit Cancel
// racing a deadline still reads as a cancellation.
func (c *Call) classify(err error) error {
	switch {
	case c.Cancelled():
		return fmt.Errorf("operation %s: %w", c.op, ErrCancelled)
	case errors.Is(c.ctx.Err(), context.DeadlineExceeded):
		return &TimeoutError{Operation: c.op, After: c.timeout}
	case errors.Is(c.ctx.Err(), context.Canceled):
		return fmt.Errorf("operation %s: %w", c.op, ErrCancelled)
	default:
		return err
	}
}

// Stream is a live response byte stream bound to its in-flight call.
// The caller owns the stream and must Close it (or cancel the call) or
// the underlying connection leaks.
type Stream struct {
	body      io.ReadCloser
	call      *Call
	closeOnce sync.Once
}

// Read delivers response bytes in server order. After the owning call
// is cancelled or times out, a blocked or subsequent Read returns an
// error, never a silent EOF.
func (s *Stream) Read(p []byte) (int, error) {
	n, err := s.body.Read(p)
	if err != nil && !errors.Is(err, io.EOF) {
		return n, s.call.classify(err)
	}
	if err != nil && (s.call.Cancelled() || s.call.ctx.Err() != nil) {
		// The transport can surface severance as EOF if it tears the
		// connection down cleanly; cancellation and deadline expiry
		// must still read as errors.
		return n, s.call.classify(err)
	}
	return n, err
}

// Close releases the stream and the connection resource behind it.
func (s *Stream) Close() error {
	var err error
	s.closeOnce.Do(func() {
		err = s.body.Close()
		s.call.finish()
	})
	return err
}

// Call returns the in-flight call that owns this stream.
func (s *Stream) Call() *Call { return s.call }
