// Package pipeline consumes scheduled decisions one at a time: deferred
// decisions are recorded directly, executed ones run on the executor first.
// At most one workload runs at a time.
package pipeline

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"github.com/google/uuid"

	"github.com/ja7ad/ecosched/pkg/consumption"
	"github.com/ja7ad/ecosched/pkg/executor"
	"github.com/ja7ad/ecosched/pkg/recorder"
	"github.com/ja7ad/ecosched/pkg/scheduler"
)

// Summary aggregates one run.
type Summary struct {
	RunID     string
	Total     int
	Executed  int // attempted, including failures
	Deferred  int
	Failed    int
	Energy    float64 // heuristic estimate of executed tasks
	Saved     float64 // heuristic estimate of deferred tasks
	MeasuredJ float64
	Elapsed   time.Duration
}

// Option configures a Pipeline.
type Option func(*Pipeline)

func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// WithMeter sets the accumulator fed by successful executions.
func WithMeter(m *consumption.Accumulator) Option {
	return func(p *Pipeline) { p.meter = m }
}

// WithRunID overrides the generated run id.
func WithRunID(id string) Option {
	return func(p *Pipeline) { p.runID = id }
}

// WithNumCPU overrides runtime.NumCPU for utilization.
func WithNumCPU(n int) Option {
	return func(p *Pipeline) { p.numCPU = n }
}

type Pipeline struct {
	exec   *executor.Executor
	rec    recorder.Recorder
	meter  *consumption.Accumulator
	logger *slog.Logger
	runID  string
	numCPU int
}

func New(exec *executor.Executor, rec recorder.Recorder, opts ...Option) *Pipeline {
	p := &Pipeline{
		exec:   exec,
		rec:    rec,
		logger: slog.Default(),
		runID:  uuid.NewString(),
		numCPU: runtime.NumCPU(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.meter == nil {
		p.meter = consumption.New(nil)
	}
	p.logger = p.logger.With("component", "pipeline", "run_id", p.runID)
	return p
}

// RunID identifies this pipeline's run in every record.
func (p *Pipeline) RunID() string { return p.runID }

// Run processes decisions in order. Execution failures are logged and
// recorded, and the run continues. A recorder failure stops the run and is
// returned. Cancelling ctx stops the run after the current decision is
// recorded.
func (p *Pipeline) Run(ctx context.Context, decisions []scheduler.Decision) (sum Summary, err error) {
	sum = Summary{RunID: p.runID, Total: len(decisions)}
	start := time.Now()
	defer func() { sum.Elapsed = time.Since(start) }()

	for _, d := range decisions {
		e := recorder.Entry{RunID: p.runID, Decision: d}

		if d.Deferred() {
			sum.Deferred++
			sum.Saved += d.Energy
			p.logger.Info("deferred", "task", d.Task.Name, "label", d.Label, "energy", d.Energy, "power", d.Power)
		} else {
			sum.Executed++
			sum.Energy += d.Energy

			res, err := p.exec.Execute(ctx, d.Task)
			e.Elapsed = res.Elapsed
			if err != nil {
				sum.Failed++
				e.Err = err
				p.logger.Warn("execution failed", "task", d.Task.Name, "err", err)
			} else {
				m := p.meter.Apply(consumption.Sample{
					WallSec: res.Elapsed.Seconds(),
					CPUSec:  res.CPUTime.Seconds(),
					NumCPU:  p.numCPU,
				})
				e.MeasuredJ = m.EnergyJ
				sum.MeasuredJ += m.EnergyJ
				p.logger.Info("executed", "task", d.Task.Name, "label", d.Label, "energy", d.Energy,
					"elapsed", res.Elapsed.Round(time.Millisecond), "measured_j", m.EnergyJ)
			}
		}

		if err := p.rec.Record(ctx, e); err != nil {
			return sum, err
		}
		if err := ctx.Err(); err != nil {
			p.logger.Warn("run interrupted", "err", err)
			return sum, err
		}
	}
	return sum, nil
}
