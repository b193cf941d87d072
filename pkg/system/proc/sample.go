package proc

import (
	"context"
	"slices"
	"time"

	"github.com/ja7ad/ecosched/pkg/system/util"
)

// Process is one sampled process.
type Process struct {
	PID        int
	Name       string
	CPUPercent float64 // share of one CPU over the interval, may exceed 100
	RSSBytes   uint64
	Threads    int
}

// MemoryMB returns RSS in MiB.
func (p Process) MemoryMB() float64 { return float64(p.RSSBytes) / 1024 / 1024 }

// Snapshot reads the stat of every process. Processes that vanish or
// cannot be read are skipped.
func (fs FS) Snapshot() (map[int]Stat, error) {
	pids, err := fs.PIDs()
	if err != nil {
		return nil, err
	}
	out := make(map[int]Stat, len(pids))
	for _, pid := range pids {
		st, err := fs.ReadStat(pid)
		if err != nil {
			continue
		}
		out[pid] = st
	}
	return out, nil
}

// Processes turns two snapshots taken elapsed apart into samples, in PID
// order. Only processes present in both are reported.
func (fs FS) Processes(before, after map[int]Stat, elapsed time.Duration) []Process {
	pids := make([]int, 0, len(after))
	for pid := range after {
		if _, ok := before[pid]; ok {
			pids = append(pids, pid)
		}
	}
	slices.Sort(pids)

	ticks := float64(ClockTicks())
	secs := elapsed.Seconds()

	out := make([]Process, 0, len(pids))
	for _, pid := range pids {
		b, a := before[pid], after[pid]
		d := float64(deltaU64(a.CPUTicks(), b.CPUTicks()))
		rss, _ := fs.ReadRSS(pid) // kernel threads have none
		out = append(out, Process{
			PID:        pid,
			Name:       a.Comm,
			CPUPercent: util.SafeDiv(d/ticks, secs) * 100,
			RSSBytes:   rss,
			Threads:    a.Threads,
		})
	}
	return out
}

// Sample snapshots every process, waits interval, and snapshots again.
func (fs FS) Sample(ctx context.Context, interval time.Duration) ([]Process, error) {
	before, err := fs.Snapshot()
	if err != nil {
		return nil, err
	}
	start := time.Now()
	if err := sleep(ctx, interval); err != nil {
		return nil, err
	}
	after, err := fs.Snapshot()
	if err != nil {
		return nil, err
	}
	return fs.Processes(before, after, time.Since(start)), nil
}

// CPUPercent is system-wide utilization between two readings, in [0,100].
func CPUPercent(before, after CPUTimes) float64 {
	active := float64(deltaU64(after.Active, before.Active))
	total := float64(deltaU64(after.Total, before.Total))
	return util.Clamp01(util.SafeDiv(active, total)) * 100
}

// SystemCPUPercent measures system-wide utilization over interval.
func (fs FS) SystemCPUPercent(ctx context.Context, interval time.Duration) (float64, error) {
	before, err := fs.ReadSystemCPU()
	if err != nil {
		return 0, err
	}
	if err := sleep(ctx, interval); err != nil {
		return 0, err
	}
	after, err := fs.ReadSystemCPU()
	if err != nil {
		return 0, err
	}
	return CPUPercent(before, after), nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
