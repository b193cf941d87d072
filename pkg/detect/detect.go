// Package detect turns a sample of running processes into a task catalog
// and an energy profile. Each process is scored on CPU share, resident
// memory, thread count and a name pattern; the score maps to a label and
// the label plus memory give an estimated duration.
package detect

import (
	"strings"

	"github.com/ja7ad/ecosched/pkg/catalog"
	"github.com/ja7ad/ecosched/pkg/profile"
	"github.com/ja7ad/ecosched/pkg/system/proc"
	"github.com/ja7ad/ecosched/pkg/types"
)

// Activity filter: a process is active at or above either threshold.
const (
	MinCPUPercent = 0.1
	MinMemoryMB   = 10
)

// Score to label cut-offs.
const (
	HighScore   = 8
	MediumScore = 5
)

// MaxSeconds caps every estimated duration.
const MaxSeconds = 300

var (
	highPatterns = []string{
		"chrome", "firefox", "edge", "code", "devenv", "gcc", "clang",
		"python", "node", "java", "dotnet", "docker", "vmware", "virtualbox",
		"photoshop", "premiere", "blender", "maya", "unity", "unreal",
	}
	mediumPatterns = []string{
		"explorer", "winlogon", "svchost", "dwm", "csrss", "lsass",
		"steam", "discord", "slack", "teams", "zoom", "skype",
	}
)

// Score rates p from 1 to 13.
func Score(p proc.Process) int {
	var s int

	switch cpu := p.CPUPercent; {
	case cpu > 10:
		s += 4
	case cpu > 5:
		s += 3
	case cpu > 1:
		s += 2
	default:
		s++
	}

	switch mb := p.MemoryMB(); {
	case mb > 1000:
		s += 3
	case mb > 500:
		s += 2
	case mb > 100:
		s++
	}

	switch n := p.Threads; {
	case n > 20:
		s += 3
	case n > 10:
		s += 2
	case n > 5:
		s++
	}

	name := strings.ToLower(p.Name)
	switch {
	case containsAny(name, highPatterns):
		s += 3
	case containsAny(name, mediumPatterns):
		s += 2
	}
	return s
}

// Classify maps Score(p) to a label.
func Classify(p proc.Process) types.Label {
	switch s := Score(p); {
	case s >= HighScore:
		return types.High
	case s >= MediumScore:
		return types.Medium
	default:
		return types.Low
	}
}

// Active keeps processes at or above either activity threshold.
func Active(ps []proc.Process) []proc.Process {
	var out []proc.Process
	for _, p := range ps {
		if p.CPUPercent >= MinCPUPercent || p.MemoryMB() >= MinMemoryMB {
			out = append(out, p)
		}
	}
	return out
}

// Group is every active process sharing one task name.
type Group struct {
	Name        string
	Count       int
	AvgCPU      float64
	AvgMemoryMB float64
	Label       types.Label // of the first process seen
}

// Seconds estimates the task duration from the label and average memory.
func (g Group) Seconds() int {
	var secs int
	switch g.Label {
	case types.High:
		secs = max(30, int(g.AvgMemoryMB/10))
	case types.Medium:
		secs = max(10, int(g.AvgMemoryMB/20))
	default:
		secs = max(5, int(g.AvgMemoryMB/50))
	}
	return min(secs, MaxSeconds)
}

// GroupByName groups active processes by task name in first-seen order.
// Processes whose name cannot be a catalog entry are dropped.
func GroupByName(ps []proc.Process) []Group {
	var (
		groups []Group
		index  = map[string]int{}
	)
	for _, p := range ps {
		name := TaskName(p.Name)
		if name == "" {
			continue
		}
		i, ok := index[name]
		if !ok {
			i = len(groups)
			index[name] = i
			groups = append(groups, Group{Name: name, Label: Classify(p)})
		}
		g := &groups[i]
		g.Count++
		g.AvgCPU += p.CPUPercent
		g.AvgMemoryMB += p.MemoryMB()
	}
	for i := range groups {
		n := float64(groups[i].Count)
		groups[i].AvgCPU /= n
		groups[i].AvgMemoryMB /= n
	}
	return groups
}

// TaskName makes a process name safe for the catalog format: commas
// become underscores and leading '#' and blanks are stripped.
func TaskName(comm string) string {
	name := strings.ReplaceAll(comm, ",", "_")
	return strings.TrimLeft(strings.TrimSpace(name), "# \t")
}

// Build filters ps to active processes and returns the catalog and the
// matching profile.
func Build(ps []proc.Process) ([]Group, []catalog.Task, profile.Exact) {
	groups := GroupByName(Active(ps))
	tasks := make([]catalog.Task, 0, len(groups))
	prof := make(profile.Exact, len(groups))
	for _, g := range groups {
		tasks = append(tasks, catalog.Task{Name: g.Name, Seconds: g.Seconds()})
		prof[g.Name] = g.Label
	}
	return groups, tasks, prof
}

func containsAny(s string, patterns []string) bool {
	for _, p := range patterns {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}
