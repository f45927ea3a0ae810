// Package errors defines the error taxonomy shared by the harness and
// the rotation path. Timeouts get their own type so alert routing can
// tell "ran out of time" apart from "logic rejected the input".
package errors

import (
	"errors"
	"fmt"
	"time"
)

// TimeoutError is the synthetic failure produced when the deadline
// watcher wins the invocation race. The user work is abandoned, not
// aborted; any store call it already started may still complete.
type TimeoutError struct {
	Deadline time.Time
}

func (e *TimeoutError) Error() string {
	if e.Deadline.IsZero() {
		return "invocation ran into a timeout"
	}
	return fmt.Sprintf("invocation ran into a timeout (deadline %s)", e.Deadline.UTC().Format(time.RFC3339Nano))
}

// IsTimeout reports whether err is (or wraps) a deadline-race timeout.
func IsTimeout(err error) bool {
	var te *TimeoutError
	return errors.As(err, &te)
}

// ConfigError represents a configuration error with helpful context.
// Configuration errors are fatal and reported before any invocation runs.
type ConfigError struct {
	Field      string
	Message    string
	Suggestion string
}

func (e *ConfigError) Error() string {
	msg := "Configuration error"
	if e.Field != "" {
		msg += fmt.Sprintf(" in field '%s'", e.Field)
	}
	msg += ": " + e.Message

	if e.Suggestion != "" {
		msg += "\n  💡 " + e.Suggestion
	}

	return msg
}

// StoreError wraps a secret store failure with enough context
// (operation, secret id) to diagnose without retrying.
type StoreError struct {
	Op       string
	SecretID string
	Err      error
}

func (e *StoreError) Error() string {
	if e.SecretID != "" {
		return fmt.Sprintf("unable to %s for secret id %s: %v", e.Op, e.SecretID, e.Err)
	}
	return fmt.Sprintf("unable to %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}
