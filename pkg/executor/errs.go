package executor

import (
	"errors"
	"fmt"
)

var (
	// ErrNoCommand indicates a ProcessWorkload without a command.
	ErrNoCommand = errors.New("executor: empty worker command")

	// ErrBadSeconds indicates a non-positive or non-numeric seconds argument
	// passed to the worker.
	ErrBadSeconds = errors.New("executor: seconds must be a positive integer")
)

// ExecutionError reports a workload that could not be launched or did not
// finish cleanly. It is recoverable: the run moves on to the next decision.
type ExecutionError struct {
	Task string
	Op   string // launch, wait, run
	Err  error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("executor: %s %q: %v", e.Op, e.Task, e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }
