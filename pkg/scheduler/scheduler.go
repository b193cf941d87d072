// Package scheduler is the decision engine: it labels tasks, orders them by
// priority and decides whether each one is executed or deferred under a
// single power snapshot.
package scheduler

import (
	"slices"
	"time"

	"github.com/ja7ad/ecosched/pkg/catalog"
	"github.com/ja7ad/ecosched/pkg/power"
	"github.com/ja7ad/ecosched/pkg/profile"
	"github.com/ja7ad/ecosched/pkg/types"
)

// DefaultBatteryThreshold is the percent below which High tasks are
// deferred while on battery.
const DefaultBatteryThreshold = 30.0

// Policy is the defer rule.
type Policy struct {
	BatteryThreshold float64
}

func DefaultPolicy() Policy {
	return Policy{BatteryThreshold: DefaultBatteryThreshold}
}

// Defer reports whether a task labeled l must be skipped under st:
// on battery, below the threshold, and High.
func (p Policy) Defer(l types.Label, st power.State) bool {
	return !st.OnExternalPower && st.BatteryPercent < p.BatteryThreshold && l == types.High
}

// Decision is the immutable outcome for one task in one run.
type Decision struct {
	Seq    int // 1-based position in the ordered run
	Task   catalog.Task
	Label  types.Label
	Energy float64
	Action types.Action
	At     time.Time
	Power  power.State
}

// Priority is derived from the label and never stored.
func (d Decision) Priority() int { return d.Label.Priority() }

// Deferred is shorthand for d.Action == types.Deferred.
func (d Decision) Deferred() bool { return d.Action == types.Deferred }

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithPolicy replaces DefaultPolicy.
func WithPolicy(p Policy) Option {
	return func(s *Scheduler) { s.policy = p }
}

// WithClock sets the timestamp source; tests use a fixed clock.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

// Scheduler is safe for concurrent use once built; it holds no run state.
type Scheduler struct {
	profile profile.Profile
	policy  Policy
	now     func() time.Time
}

// New returns a Scheduler labeling tasks with p. A nil p labels every task
// Medium.
func New(p profile.Profile, opts ...Option) *Scheduler {
	if p == nil {
		p = profile.Exact{}
	}
	s := &Scheduler{
		profile: p,
		policy:  DefaultPolicy(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type labeled struct {
	task  catalog.Task
	label types.Label
}

// Schedule emits one Decision per task, ordered by descending priority.
// Equal-priority tasks keep catalog order. st is used as-is for every
// decision; power is never re-read during a run.
func (s *Scheduler) Schedule(tasks []catalog.Task, st power.State) []Decision {
	items := make([]labeled, len(tasks))
	for i, t := range tasks {
		items[i] = labeled{task: t, label: s.profile.Lookup(t.Name)}
	}

	slices.SortStableFunc(items, func(a, b labeled) int {
		return b.label.Priority() - a.label.Priority()
	})

	out := make([]Decision, 0, len(items))
	for i, it := range items {
		action := types.Executed
		if s.policy.Defer(it.label, st) {
			action = types.Deferred
		}
		out = append(out, Decision{
			Seq:    i + 1,
			Task:   it.task,
			Label:  it.label,
			Energy: it.label.Energy(it.task.Seconds),
			Action: action,
			At:     s.now(),
			Power:  st,
		})
	}
	return out
}

// Schedule runs the default policy with the wall clock.
func Schedule(tasks []catalog.Task, p profile.Profile, st power.State) []Decision {
	return New(p).Schedule(tasks, st)
}
