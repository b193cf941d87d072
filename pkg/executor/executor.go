// Package executor runs a task's workload and measures it.
//
// A Workload is the polymorphic capability behind execution: the production
// variant launches the external worker process, BurnWorkload spins the CPU
// in-process and FuncWorkload adapts a plain function (tests, noop runs).
// Execution is synchronous: Execute blocks until the workload returns.
package executor

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/ja7ad/ecosched/pkg/catalog"
)

// Result describes one finished workload.
type Result struct {
	Elapsed time.Duration // wall time, measured by Executor
	CPUTime time.Duration // user+system, as reported by the workload
}

// Workload performs t.Seconds of work.
type Workload interface {
	Run(ctx context.Context, t catalog.Task) (Result, error)
}

// FuncWorkload adapts a function to Workload.
type FuncWorkload func(ctx context.Context, t catalog.Task) (Result, error)

func (f FuncWorkload) Run(ctx context.Context, t catalog.Task) (Result, error) {
	return f(ctx, t)
}

// Noop returns immediately without doing work.
func Noop() Workload {
	return FuncWorkload(func(context.Context, catalog.Task) (Result, error) {
		return Result{}, nil
	})
}

// Executor wraps a Workload with timing and logging.
type Executor struct {
	workload Workload
	logger   *slog.Logger
	now      func() time.Time
}

func New(w Workload, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{
		workload: w,
		logger:   logger.With("component", "executor"),
		now:      time.Now,
	}
}

// Execute runs t and returns the elapsed wall time. Any failure is returned
// as *ExecutionError.
func (e *Executor) Execute(ctx context.Context, t catalog.Task) (Result, error) {
	e.logger.Debug("execute", "task", t.Name, "seconds", t.Seconds)

	start := e.now()
	res, err := e.workload.Run(ctx, t)
	res.Elapsed = e.now().Sub(start)

	if err != nil {
		var ee *ExecutionError
		if !errors.As(err, &ee) {
			err = &ExecutionError{Task: t.Name, Op: "run", Err: err}
		}
		return res, err
	}

	e.logger.Debug("finished", "task", t.Name, "elapsed", res.Elapsed, "cpu", res.CPUTime)
	return res, nil
}
