// Package consumption turns measured workload CPU time into an energy
// figure. It complements the label-based estimate with a utilization model:
//
//	u      = CPUSec / (WallSec × NumCPU)
//	P_cpu  = (PMax − PIdle) × u^Gamma
//	P_idle = Alpha × PIdle   (only while u > 0)
//	E      = (P_cpu + P_idle) × WallSec
package consumption

import (
	"math"

	"github.com/ja7ad/ecosched/pkg/system/util"
)

// Accumulator keeps running energy and averages across a run.
type Accumulator struct {
	cfg        *Config
	energyCumJ float64
	count      int
	sumPCPU    float64
	sumPTotal  float64
}

// New creates an accumulator with the given config.
// Fields > 0 (or valid ranges) in cfg override defaults.
// Notes:
//   - Alpha in [0..1] is accepted verbatim (0 is a valid choice).
//   - Negative values are treated as "unset" and defaulted.
//   - PIdle/PMax/Gamma must be > 0 to override defaults.
func New(cfg *Config) *Accumulator {
	base := _defaultConfig()

	if cfg == nil {
		return &Accumulator{cfg: base}
	}

	merged := *base

	if cfg.PIdle > 0 {
		merged.PIdle = cfg.PIdle
	}
	if cfg.PMax > 0 {
		merged.PMax = cfg.PMax
	}
	if cfg.Gamma > 0 {
		merged.Gamma = cfg.Gamma
	}
	if cfg.Alpha >= 0 && cfg.Alpha <= 1 {
		merged.Alpha = cfg.Alpha
	}

	if merged.PMax < merged.PIdle {
		merged.PMax = merged.PIdle
	}

	return &Accumulator{cfg: &merged}
}

// Config returns the merged coefficients.
func (a *Accumulator) Config() Config { return *a.cfg }

// Apply runs the model on one sample and updates cumulative energy and
// averages.
func (a *Accumulator) Apply(s Sample) Result {
	ncpu := math.Max(float64(s.NumCPU), 1)
	wall := math.Max(s.WallSec, 0)
	u := util.Clamp01(util.SafeDiv(s.CPUSec, wall*ncpu))

	pcpu := (a.cfg.PMax - a.cfg.PIdle) * util.Pow(u, a.cfg.Gamma)

	var pidleShare float64
	if u > 1e-12 && a.cfg.Alpha > 0 {
		pidleShare = a.cfg.Alpha * a.cfg.PIdle
	}

	ptot := pcpu + pidleShare
	e := ptot * wall

	a.energyCumJ += e
	a.count++
	a.sumPCPU += pcpu
	a.sumPTotal += ptot

	return Result{U: u, PCPU: pcpu, PIdleShare: pidleShare, PTotal: ptot, EnergyJ: e}
}

// EnergyCumJ returns cumulative energy in Joules.
func (a *Accumulator) EnergyCumJ() float64 { return a.energyCumJ }

// Count returns the number of applied samples.
func (a *Accumulator) Count() int { return a.count }

// Averages returns average powers over all applied samples.
func (a *Accumulator) Averages() Result {
	if a.count == 0 {
		return Result{}
	}
	n := float64(a.count)
	return Result{
		PCPU:   a.sumPCPU / n,
		PTotal: a.sumPTotal / n,
	}
}
