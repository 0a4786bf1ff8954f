package runner

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/google/uuid"
)

// UnknownPanicReason is reported for panic values that carry no text.
const UnknownPanicReason = "unknown panic reason"

// ErrTaskExited is the panic value recorded for a task whose goroutine was
// stopped with runtime.Goexit before the task function returned.
var ErrTaskExited = errors.New("task goroutine exited")

// PanicError is the result of a task that panicked while running in
// crash-isolating mode. A panicked task is never retried.
type PanicError struct {
	// Label of the task that panicked.
	Label string

	// ID of the supervised run.
	ID uuid.UUID

	// Value is the value passed to panic.
	Value any

	// Stack is the stack trace of the panicking goroutine.
	Stack []byte
}

func newPanicError(label string, id uuid.UUID, value any) *PanicError {
	buf := make([]byte, 4096)
	n := runtime.Stack(buf, false)

	return &PanicError{
		Label: label,
		ID:    id,
		Value: value,
		Stack: buf[:n],
	}
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("task %q panicked: %s", e.Label, e.Reason())
}

// Reason returns the text carried by the panic value.
func (e *PanicError) Reason() string {
	return PanicReason(e.Value)
}

// Unwrap returns the panic value if it is an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// PanicReason extracts a human readable reason from a recovered panic value.
// Strings are returned verbatim and errors by their message; anything else
// yields UnknownPanicReason.
func PanicReason(v any) string {
	switch r := v.(type) {
	case string:
		return r
	case error:
		return r.Error()
	default:
		return UnknownPanicReason
	}
}
