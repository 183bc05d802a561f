package models

import (
	"fmt"
	"time"
)

// ConfigError reports a structurally invalid assembler or parser
// configuration
type ConfigError struct {
	Reason string
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration: %s", e.Reason)
}

// LaunchError reports that the evaluator process could not be started;
// no I/O was attempted
type LaunchError struct {
	Interpreter string
	Err         error
}

// Error implements the error interface
func (e *LaunchError) Error() string {
	return fmt.Sprintf("failed to launch evaluator %q: %v", e.Interpreter, e.Err)
}

// Unwrap returns the wrapped error
func (e *LaunchError) Unwrap() error {
	return e.Err
}

// AbortedError reports that the evaluator exited before the batch was
// exhausted. The whole batch fails.
type AbortedError struct {
	ExitCode    int
	Diagnostics string
	Err         error
}

// Error implements the error interface
func (e *AbortedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("evaluator aborted (exit %d): %v", e.ExitCode, e.Err)
	}
	return fmt.Sprintf("evaluator aborted with exit code %d", e.ExitCode)
}

// Unwrap returns the wrapped error
func (e *AbortedError) Unwrap() error {
	return e.Err
}

// ProtocolError reports a desynchronized output stream, e.g. a section
// marker observed out of order. Fatal for the batch: no later record in the
// stream can be trusted.
type ProtocolError struct {
	Line   string
	Reason string
}

// Error implements the error interface
func (e *ProtocolError) Error() string {
	if e.Line == "" {
		return fmt.Sprintf("protocol error: %s", e.Reason)
	}
	return fmt.Sprintf("protocol error at line %q: %s", e.Line, e.Reason)
}

// ParseError reports a per-recipe validation failure surfaced by the
// evaluator itself, e.g. an ambiguous "any" architecture or a missing
// split-package function. Scoped to its position in the result sequence.
type ParseError struct {
	Path    string
	Message string
}

// Error implements the error interface
func (e *ParseError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("recipe rejected: %s", e.Message)
	}
	return fmt.Sprintf("recipe %s rejected: %s", e.Path, e.Message)
}

// TimeoutError reports that a batch exceeded its deadline and the evaluator
// was terminated. Records fully decoded before the cut are still returned.
type TimeoutError struct {
	Limit time.Duration
}

// Error implements the error interface
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("evaluator timed out after %s", e.Limit)
}
