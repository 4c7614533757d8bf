package execute

import (
	"fmt"
	"strings"
)

// StrategyFailure is why one connection strategy did not produce a handle.
type StrategyFailure struct {
	Strategy string
	Err      error
}

// ConnectionError means every strategy failed. It is terminal for the
// process: the client never tries again.
type ConnectionError struct {
	Dialect  Dialect
	Failures []StrategyFailure
}

func (e *ConnectionError) Error() string {
	parts := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		parts = append(parts, fmt.Sprintf("%s: %v", f.Strategy, f.Err))
	}
	return fmt.Sprintf("failed to connect to %s database (%s)", e.Dialect, strings.Join(parts, "; "))
}

func (e *ConnectionError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failures))
	for _, f := range e.Failures {
		errs = append(errs, f.Err)
	}
	return errs
}

// ExecutionError is a database error raised by one command.
type ExecutionError struct {
	TaskID  string
	Command string
	Err     error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("task %s: %v", e.TaskID, e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// Transcript renders the error the way SQL*Plus prints it.
func (e *ExecutionError) Transcript() string {
	return "ERROR at line 1:\n" + e.Err.Error()
}
