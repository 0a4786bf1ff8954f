package runner

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrWaitTimeout is returned by WaitWithTimeout when the task is still running.
var ErrWaitTimeout = errors.New("timed out waiting for task")

// Handle represents one supervised task in flight.
//
// Wait resolves to nil once the task succeeds, to a *PanicError if it
// panicked under SpawnTask, or to the context error if supervision was
// cancelled. Failed attempts that were retried never surface here.
type Handle struct {
	id     uuid.UUID
	label  string
	cancel context.CancelFunc
	done   chan struct{}

	// written before done is closed
	err        error
	panicked   bool
	panicValue any
}

func newHandle(label string, cancel context.CancelFunc) *Handle {
	return &Handle{
		id:     uuid.New(),
		label:  label,
		cancel: cancel,
		done:   make(chan struct{}),
	}
}

// run executes the supervision loop on the calling goroutine and records how
// it ended. A panic escaping fn is kept so that Wait can raise it again in
// the goroutine that inspects the handle. If fn never returns because the
// goroutine was stopped with runtime.Goexit, the handle resolves to a
// *PanicError wrapping ErrTaskExited.
func (h *Handle) run(fn func() error) {
	returned := false

	defer close(h.done)
	defer h.cancel()
	defer func() {
		if r := recover(); r != nil {
			h.panicked = true
			h.panicValue = r
			return
		}
		if !returned {
			// runtime.Goexit stopped the goroutine before fn returned.
			h.err = newPanicError(h.label, h.id, ErrTaskExited)
		}
	}()

	h.err = fn()
	returned = true
}

// ID returns the random identifier of this run.
func (h *Handle) ID() uuid.UUID {
	return h.id
}

// Label returns the label the task was spawned with.
func (h *Handle) Label() string {
	return h.label
}

// Done returns a channel closed when supervision ends.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// IsDone reports whether supervision has ended, without blocking.
func (h *Handle) IsDone() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

// Cancel requests supervision to stop. The request is honoured at the next
// suspension point: before an attempt, while rate limited, or during a
// backoff delay. A running attempt observes it through its context.
func (h *Handle) Cancel() {
	h.cancel()
}

// Wait blocks until supervision ends and returns its result.
//
// For tasks spawned with SpawnTaskNoRecover, a panic in the task is raised
// again from Wait with the original panic value.
func (h *Handle) Wait() error {
	<-h.done
	return h.result()
}

// WaitContext is like Wait but gives up when ctx is done, returning ctx.Err().
// Giving up does not cancel the task.
func (h *Handle) WaitContext(ctx context.Context) error {
	select {
	case <-h.done:
		return h.result()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// WaitWithTimeout is like Wait but returns ErrWaitTimeout if supervision has
// not ended within timeout.
func (h *Handle) WaitWithTimeout(timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-h.done:
		return h.result()
	case <-timer.C:
		return ErrWaitTimeout
	}
}

func (h *Handle) result() error {
	if h.panicked {
		panic(h.panicValue)
	}
	return h.err
}
