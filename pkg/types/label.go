package types

import (
	"fmt"
	"strings"
)

// Label is the energy classification of a task.
type Label int

const (
	Medium Label = iota // default when no profile entry matches
	Low
	High
)

// Labels lists every label in ascending energy order.
var Labels = []Label{Low, Medium, High}

// String returns the lower-case token used in profiles and logs.
func (l Label) String() string {
	switch l {
	case Low:
		return "low"
	case High:
		return "high"
	default:
		return "medium"
	}
}

// Factor is the energy multiplier applied to a task's estimated seconds.
func (l Label) Factor() float64 {
	switch l {
	case Low:
		return 0.5
	case High:
		return 2.0
	default:
		return 1.0
	}
}

// Priority is the ordering rank: High=3, Medium=2, Low=1.
func (l Label) Priority() int {
	switch l {
	case Low:
		return 1
	case High:
		return 3
	default:
		return 2
	}
}

// Energy returns Factor() × seconds.
func (l Label) Energy(seconds int) float64 {
	if seconds < 0 {
		return 0
	}
	return l.Factor() * float64(seconds)
}

// ParseLabel matches the exact tokens "low", "medium" and "high".
// Matching is case-sensitive.
func ParseLabel(s string) (Label, error) {
	switch s {
	case "low":
		return Low, nil
	case "medium":
		return Medium, nil
	case "high":
		return High, nil
	default:
		return Medium, fmt.Errorf("unknown label %q", s)
	}
}

// Action is the outcome chosen for a task.
type Action int

const (
	Executed Action = iota
	Deferred
)

func (a Action) String() string {
	if a == Deferred {
		return "deferred"
	}
	return "executed"
}

// ParseAction is case-insensitive, unlike ParseLabel, since it reads back
// audit logs rather than user input.
func ParseAction(s string) (Action, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "executed":
		return Executed, nil
	case "deferred":
		return Deferred, nil
	default:
		return Executed, fmt.Errorf("unknown action %q", s)
	}
}
