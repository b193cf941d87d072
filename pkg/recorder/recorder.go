// Package recorder writes the audit trail: one human-readable line and one
// structured CSV row per decision. Both sinks render the decision's own
// timestamp, so the two logs never disagree about when a decision was made.
//
// Any sink failure is fatal to the run.
package recorder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ja7ad/ecosched/pkg/scheduler"
)

// TimeLayout is used for timestamps in every sink.
const TimeLayout = time.RFC3339

// Entry is a decision together with what happened when it was acted on.
type Entry struct {
	RunID     string
	Decision  scheduler.Decision
	Elapsed   time.Duration // zero for deferred tasks
	MeasuredJ float64       // zero for deferred tasks
	Err       error         // execution failure, if any
}

// Failed reports whether execution was attempted and failed.
func (e Entry) Failed() bool { return e.Err != nil }

// Recorder appends entries in decision order.
type Recorder interface {
	Record(ctx context.Context, e Entry) error
	Close() error
}

// SinkError reports an audit sink that could not be opened or written.
type SinkError struct {
	Sink string
	Op   string // open, write, close
	Err  error
}

func (e *SinkError) Error() string {
	return fmt.Sprintf("recorder: %s %s: %v", e.Op, e.Sink, e.Err)
}

func (e *SinkError) Unwrap() error { return e.Err }

type multi []Recorder

// Multi fans out to every recorder in order and stops at the first error.
func Multi(recs ...Recorder) Recorder {
	return multi(recs)
}

func (m multi) Record(ctx context.Context, e Entry) error {
	for _, r := range m {
		if err := r.Record(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

func (m multi) Close() error {
	var errs []error
	for _, r := range m {
		if err := r.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
