// Package proc reads per-process and system CPU counters from a procfs
// tree. Every reader works relative to FS.Root so tests can point it at a
// fake tree.
package proc

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
)

// Root is the live procfs mount point.
const Root = "/proc"

// ClockTicks returns the number of jiffies (clock ticks) per second.
// It first checks the env var CLK_TCK (useful for testing), otherwise
// falls back to 100 (common default).
//
// Note: On real systems, the authoritative way is `sysconf(_SC_CLK_TCK)`,
// but calling that requires cgo.
func ClockTicks() int {
	v, _ := strconv.Atoi(os.Getenv("CLK_TCK"))
	if v > 0 {
		return v
	}
	return 100
}

// PageSize returns the system memory page size in bytes.
// Like ClockTicks, it first checks an env override (PAGE_SIZE)
// to ease testing, then falls back to os.Getpagesize().
func PageSize() int {
	if ps := os.Getenv("PAGE_SIZE"); ps != "" {
		if v, _ := strconv.Atoi(ps); v > 0 {
			return v
		}
	}
	return os.Getpagesize()
}

// FS is a procfs tree.
type FS struct {
	Root string // empty means Root
}

func (fs FS) path(elem ...string) string {
	root := fs.Root
	if root == "" {
		root = Root
	}
	return filepath.Join(append([]string{root}, elem...)...)
}

// PIDs lists the numeric entries of the tree in ascending order.
func (fs FS) PIDs() ([]int, error) {
	entries, err := os.ReadDir(fs.path())
	if err != nil {
		return nil, fmt.Errorf("proc: list: %w", err)
	}
	var pids []int
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if pid, err := strconv.Atoi(e.Name()); err == nil && pid > 0 {
			pids = append(pids, pid)
		}
	}
	slices.Sort(pids)
	return pids, nil
}

// Exists reports whether /proc/<pid> is present.
func (fs FS) Exists(pid int) bool {
	_, err := os.Stat(fs.path(strconv.Itoa(pid)))
	return err == nil
}

// Stat holds the /proc/<pid>/stat fields used for detection.
type Stat struct {
	PID     int
	Comm    string
	State   string
	UTime   uint64 // user CPU jiffies
	STime   uint64 // system CPU jiffies
	Threads int
}

// CPUTicks is user plus system jiffies.
func (s Stat) CPUTicks() uint64 { return s.UTime + s.STime }

// ReadStat parses /proc/<pid>/stat.
func (fs FS) ReadStat(pid int) (Stat, error) {
	b, err := os.ReadFile(fs.path(strconv.Itoa(pid), "stat"))
	if err != nil {
		return Stat{}, err
	}
	st, err := ParseStat(strings.TrimSpace(string(b)))
	if err != nil {
		return Stat{}, err
	}
	st.PID = pid
	return st, nil
}

// ParseStat parses one stat line. comm sits in parens and may contain
// spaces or parens, so the numeric fields start after the last ") ".
func ParseStat(line string) (Stat, error) {
	open := strings.IndexByte(line, '(')
	i := strings.LastIndex(line, ") ")
	if open < 0 || i < open {
		return Stat{}, ErrNoStat
	}
	fields := strings.Fields(line[i+2:])

	// fields[0] is overall field 3 (state); utime is 14, stime 15,
	// num_threads 20.
	if len(fields) < 18 {
		return Stat{}, ErrShortStat
	}
	utime, err := strconv.ParseUint(fields[11], 10, 64)
	if err != nil {
		return Stat{}, fmt.Errorf("%w: utime: %v", ErrNoStat, err)
	}
	stime, err := strconv.ParseUint(fields[12], 10, 64)
	if err != nil {
		return Stat{}, fmt.Errorf("%w: stime: %v", ErrNoStat, err)
	}
	threads, _ := strconv.Atoi(fields[17])

	return Stat{
		Comm:    line[open+1 : i],
		State:   fields[0],
		UTime:   utime,
		STime:   stime,
		Threads: threads,
	}, nil
}

// ReadRSS returns the Resident Set Size (RSS) in bytes for a PID.
// It prefers smaps_rollup (aggregated, since kernel 4.14) and falls back
// to statm's resident page count.
func (fs FS) ReadRSS(pid int) (uint64, error) {
	dir := strconv.Itoa(pid)
	if f, err := os.Open(fs.path(dir, "smaps_rollup")); err == nil {
		defer f.Close()
		sc := bufio.NewScanner(f)
		for sc.Scan() {
			if strings.HasPrefix(sc.Text(), "Rss:") {
				cols := strings.Fields(sc.Text())
				if len(cols) >= 2 {
					kb, _ := strconv.ParseUint(cols[1], 10, 64)
					return kb * 1024, nil
				}
			}
		}
	}
	if b, err := os.ReadFile(fs.path(dir, "statm")); err == nil {
		cols := strings.Fields(string(b))
		if len(cols) >= 2 {
			pages, _ := strconv.ParseUint(cols[1], 10, 64)
			return pages * uint64(PageSize()), nil
		}
	}
	return 0, ErrNoRSS
}

// CPUTimes are the aggregate jiffy counters of /proc/stat.
type CPUTimes struct {
	Active uint64 // user + nice + system + irq + softirq + steal
	Total  uint64 // active + idle + iowait
}

// ReadSystemCPU parses the aggregate "cpu" line of /proc/stat. The
// counters are monotonic; take deltas between samples.
func (fs FS) ReadSystemCPU() (CPUTimes, error) {
	f, err := os.Open(fs.path("stat"))
	if err != nil {
		return CPUTimes{}, err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		cols := strings.Fields(sc.Text())
		if len(cols) == 0 || cols[0] != "cpu" {
			continue
		}
		if len(cols) < 9 {
			return CPUTimes{}, ErrNoCPU
		}
		var vals [8]uint64
		for i := range vals {
			vals[i], _ = strconv.ParseUint(cols[i+1], 10, 64)
		}
		active := vals[0] + vals[1] + vals[2] + vals[5] + vals[6] + vals[7]
		return CPUTimes{Active: active, Total: active + vals[3] + vals[4]}, nil
	}
	return CPUTimes{}, ErrNoCPU
}
