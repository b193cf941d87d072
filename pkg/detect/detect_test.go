package detect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ja7ad/ecosched/pkg/catalog"
	"github.com/ja7ad/ecosched/pkg/profile"
	"github.com/ja7ad/ecosched/pkg/system/proc"
	"github.com/ja7ad/ecosched/pkg/types"
)

const mib = 1024 * 1024

func process(name string, cpu, memMB float64, threads int) proc.Process {
	return proc.Process{Name: name, CPUPercent: cpu, RSSBytes: uint64(memMB * mib), Threads: threads}
}

func TestScore(t *testing.T) {
	cases := []struct {
		name string
		p    proc.Process
		want int
	}{
		{"idle", process("sleep", 0, 1, 1), 1},
		{"cpu_gt1", process("sh", 1.5, 0, 1), 2},
		{"cpu_gt5", process("sh", 6, 0, 1), 3},
		{"cpu_gt10", process("sh", 50, 0, 1), 4},
		{"cpu_boundary", process("sh", 10, 0, 1), 3},
		{"mem_gt100", process("sh", 0, 150, 1), 2},
		{"mem_gt500", process("sh", 0, 600, 1), 3},
		{"mem_gt1000", process("sh", 0, 2000, 1), 4},
		{"threads_gt5", process("sh", 0, 0, 6), 2},
		{"threads_gt10", process("sh", 0, 0, 11), 3},
		{"threads_gt20", process("sh", 0, 0, 21), 4},
		{"high_pattern", process("Firefox-bin", 0, 0, 1), 4},
		{"medium_pattern", process("slack", 0, 0, 1), 3},
		{"high_wins_over_medium", process("code-teams", 0, 0, 1), 4},
		{"max", process("chrome", 80, 4000, 64), 13},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Score(tc.p))
		})
	}
}

func TestClassify(t *testing.T) {
	assert.Equal(t, types.Low, Classify(process("sh", 0, 0, 1)))
	// 2 (cpu) + 1 (mem) + 2 (threads) = 5
	assert.Equal(t, types.Medium, Classify(process("worker", 2, 200, 12)))
	// 4 + 2 + 3 + 3 = 12
	assert.Equal(t, types.High, Classify(process("java", 30, 700, 40)))
	// 1 + 3 + 1 + 3 = 8
	assert.Equal(t, types.High, Classify(process("node", 0, 1200, 8)))
}

func TestActive(t *testing.T) {
	ps := []proc.Process{
		process("kworker", 0, 0, 1),
		process("tiny-busy", 0.1, 0, 1),
		process("big-idle", 0, 10, 1),
		process("almost", 0.05, 9.9, 1),
	}
	got := Active(ps)
	require.Len(t, got, 2)
	assert.Equal(t, "tiny-busy", got[0].Name)
	assert.Equal(t, "big-idle", got[1].Name)
}

func TestGroup_Seconds(t *testing.T) {
	cases := []struct {
		label types.Label
		memMB float64
		want  int
	}{
		{types.High, 100, 30},
		{types.High, 900, 90},
		{types.High, 8000, MaxSeconds},
		{types.Medium, 100, 10},
		{types.Medium, 500, 25},
		{types.Low, 100, 5},
		{types.Low, 400, 8},
	}
	for _, tc := range cases {
		g := Group{Label: tc.label, AvgMemoryMB: tc.memMB}
		assert.Equal(t, tc.want, g.Seconds(), "%s %.0fMB", tc.label, tc.memMB)
	}
}

func TestTaskName(t *testing.T) {
	assert.Equal(t, "Web Content", TaskName("Web Content"))
	assert.Equal(t, "a_b", TaskName("a,b"))
	assert.Equal(t, "hidden", TaskName(" #hidden"))
	assert.Empty(t, TaskName("  "))
}

func TestBuild(t *testing.T) {
	ps := []proc.Process{
		process("firefox", 12, 800, 30),  // 4+2+3+3 = 12 high
		process("sh", 0, 12, 1),          // 1 low
		process("firefox", 20, 1200, 30), // grouped with the first
		process("idle", 0, 1, 1),         // filtered out
		process("bad,name", 0.5, 20, 1),  // 1 low
	}

	groups, tasks, prof := Build(ps)
	require.Len(t, groups, 3)
	assert.Equal(t, 2, groups[0].Count)
	assert.InDelta(t, 16.0, groups[0].AvgCPU, 1e-9)
	assert.InDelta(t, 1000.0, groups[0].AvgMemoryMB, 1e-6)

	assert.Equal(t, []catalog.Task{
		{Name: "firefox", Seconds: 100},
		{Name: "sh", Seconds: 5},
		{Name: "bad_name", Seconds: 5},
	}, tasks)
	assert.Equal(t, profile.Exact{
		"firefox":  types.High,
		"sh":       types.Low,
		"bad_name": types.Low,
	}, prof)
}
