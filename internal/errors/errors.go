// Package errors provides domain-specific error types and sentinel errors
// shared by the bot's policy layer and front ends.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for common scenarios.
// Use errors.Is() to check these errors in your code.
var (
	// ErrUnknownUser indicates an append was attempted for a user without history.
	ErrUnknownUser = errors.New("unknown user")

	// ErrInvalidRole indicates a turn role other than user or assistant was appended.
	ErrInvalidRole = errors.New("invalid turn role")

	// ErrOutOfOrder indicates a turn that would break user/assistant alternation.
	ErrOutOfOrder = errors.New("turn out of order")

	// ErrEmptyReply indicates the provider answered without any reply text.
	ErrEmptyReply = errors.New("empty reply")

	// ErrNoProvider indicates no completion provider is configured.
	ErrNoProvider = errors.New("no completion provider configured")

	// ErrInvalidInput indicates user provided invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrTimeout indicates an operation timed out.
	ErrTimeout = errors.New("operation timed out")
)

// IsUnknownUser reports whether err is or wraps ErrUnknownUser.
func IsUnknownUser(err error) bool {
	return errors.Is(err, ErrUnknownUser)
}

// IsInvalidInput reports whether err is or wraps ErrInvalidInput.
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// ConfigError is returned when required settings are missing or invalid at
// startup. It is the only error allowed to terminate the process.
type ConfigError struct {
	Problems []string
}

func (e *ConfigError) Error() string {
	if len(e.Problems) == 0 {
		return "invalid configuration"
	}
	return "invalid configuration: " + strings.Join(e.Problems, "; ")
}

// Add records a problem.
func (e *ConfigError) Add(format string, args ...any) {
	e.Problems = append(e.Problems, fmt.Sprintf(format, args...))
}

// ErrOrNil returns e when it holds problems, nil otherwise.
func (e *ConfigError) ErrOrNil() error {
	if e == nil || len(e.Problems) == 0 {
		return nil
	}
	return e
}

// IsConfigError reports whether err wraps a *ConfigError.
func IsConfigError(err error) bool {
	var cfgErr *ConfigError
	return errors.As(err, &cfgErr)
}

// DetectionError describes a language identification failure. It never
// leaves the detector; it exists so the fallback can be logged with a cause.
type DetectionError struct {
	Reason string
	Err    error
}

func (e *DetectionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("language detection failed (%s): %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("language detection failed (%s)", e.Reason)
}

func (e *DetectionError) Unwrap() error {
	return e.Err
}

// NewDetectionError creates a new detection error.
func NewDetectionError(reason string, err error) *DetectionError {
	return &DetectionError{
		Reason: reason,
		Err:    err,
	}
}

// ValidationError represents input validation failures.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

// NewValidationError creates a new validation error.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}
