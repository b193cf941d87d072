package executor

import (
	"context"
	"math"
	"strconv"
	"time"

	"github.com/ja7ad/ecosched/pkg/catalog"
)

// sink keeps the busy loop from being optimized away.
var sink float64

// Burn keeps one CPU busy for d, returning early with ctx.Err() if ctx is
// done.
func Burn(ctx context.Context, d time.Duration) error {
	deadline := time.Now().Add(d)
	var acc float64
	for time.Now().Before(deadline) {
		if err := ctx.Err(); err != nil {
			sink = acc
			return err
		}
		for i := 0; i < 10000; i++ {
			acc += math.Sqrt((float64(i) + 1) * math.Pi)
		}
	}
	sink = acc
	return nil
}

// ParseSeconds validates the worker's seconds argument.
func ParseSeconds(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, ErrBadSeconds
	}
	return n, nil
}

// BurnWorkload burns the CPU in-process for t.Seconds × Unit.
type BurnWorkload struct {
	Unit time.Duration // zero means time.Second
}

func (b BurnWorkload) Run(ctx context.Context, t catalog.Task) (Result, error) {
	unit := b.Unit
	if unit <= 0 {
		unit = time.Second
	}
	start := time.Now()
	err := Burn(ctx, time.Duration(t.Seconds)*unit)
	// single-threaded spin: CPU time tracks wall time
	res := Result{CPUTime: time.Since(start)}
	if err != nil {
		return res, &ExecutionError{Task: t.Name, Op: "run", Err: err}
	}
	return res, nil
}
