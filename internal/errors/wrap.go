package errors

import (
	"errors"
	"fmt"
)

// Wrapper tags errors raised by one module operation with the text a user
// should see instead of the error itself.
type Wrapper struct {
	module string
	op     string
}

// NewWrapper creates a wrapper for module.op.
func NewWrapper(module, op string) *Wrapper {
	return &Wrapper{module: module, op: op}
}

// Wrap attaches userMessage to err. Returns nil if err is nil.
func (w *Wrapper) Wrap(err error, userMessage string) error {
	if err == nil {
		return nil
	}
	return &WrappedError{
		Module:      w.module,
		Op:          w.op,
		Cause:       err,
		UserMessage: userMessage,
	}
}

// WrappedError pairs an internal cause with its user-facing text.
// Error() never includes UserMessage so logs carry only the cause.
type WrappedError struct {
	Module      string
	Op          string
	Cause       error
	UserMessage string
}

func (e *WrappedError) Error() string {
	return fmt.Sprintf("%s.%s: %v", e.Module, e.Op, e.Cause)
}

func (e *WrappedError) Unwrap() error {
	return e.Cause
}

// UserMessage returns the user text of the outermost WrappedError in err, or
// fallback when there is none. Raw error strings are never returned.
func UserMessage(err error, fallback string) string {
	var wrapped *WrappedError
	if errors.As(err, &wrapped) && wrapped.UserMessage != "" {
		return wrapped.UserMessage
	}
	return fallback
}
