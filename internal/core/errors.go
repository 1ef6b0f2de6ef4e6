package core

import (
	"errors"
	"fmt"
)

// ErrCancelled marks a run that was stopped by an external request.
// It is a terminal state, not a failure.
var ErrCancelled = errors.New("run cancelled")

// ConfigurationError is a fatal pre-flight error: unmapped placeholder,
// invalid fixed-value pattern, invalid run config. It is always raised
// before any I/O occurs.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "configuration error: " + e.Reason
}

// ConfigErrorf builds a ConfigurationError from a format string.
func ConfigErrorf(format string, args ...any) error {
	return &ConfigurationError{Reason: fmt.Sprintf(format, args...)}
}

// IsConfigurationError reports whether err is (or wraps) a ConfigurationError.
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}

// SourceError is a fatal mid-run document source failure. Op
// distinguishes cursor open from page reads.
type SourceError struct {
	Op  string // "open" or "read"
	Err error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("source %s: %v", e.Op, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }

// SourceUnavailable wraps a cursor open failure.
func SourceUnavailable(err error) error {
	return &SourceError{Op: "open", Err: err}
}

// SourceReadError wraps a page fetch failure.
func SourceReadError(err error) error {
	return &SourceError{Op: "read", Err: err}
}
