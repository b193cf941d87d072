// Package catalog loads the ordered list of tasks considered by a run.
//
// The source format is one task per line:
//
//	# comment
//	name,seconds
//
// Blank lines and lines beginning with '#' are skipped. Order is preserved
// and names are not deduplicated.
package catalog

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Task is a named unit of simulated work.
type Task struct {
	Name    string
	Seconds int
}

// ParseError reports a malformed task line. It aborts the load.
type ParseError struct {
	Line   int
	Text   string
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("catalog: line %d %q: %s", e.Line, e.Text, e.Reason)
}

func (e *ParseError) Unwrap() error { return e.Err }

// MaxLineBytes bounds a single catalog line.
const MaxLineBytes = 1 << 20

var (
	errFields   = errors.New("want name,seconds")
	errName     = errors.New("empty task name")
	errDuration = errors.New("duration must be a positive integer")
)

// Load reads tasks from r in source order.
func Load(r io.Reader) ([]Task, error) {
	var (
		tasks []Task
		sc    = bufio.NewScanner(r)
		n     int
	)
	sc.Buffer(make([]byte, 0, 64*1024), MaxLineBytes)
	for sc.Scan() {
		n++
		raw := sc.Text()
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		t, err := parseLine(line)
		if err != nil {
			return nil, &ParseError{Line: n, Text: raw, Reason: err.Error(), Err: err}
		}
		tasks = append(tasks, t)
	}
	if err := sc.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			return nil, &ParseError{Line: n + 1, Reason: "line too long", Err: err}
		}
		return nil, fmt.Errorf("catalog: scan: %w", err)
	}
	return tasks, nil
}

// LoadFile opens path and calls Load. A missing file is an error: without a
// catalog there is nothing to schedule.
func LoadFile(path string) ([]Task, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: open: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()
	return Load(f)
}

func parseLine(line string) (Task, error) {
	fields := strings.Split(line, ",")
	if len(fields) != 2 {
		return Task{}, errFields
	}

	name := strings.TrimSpace(fields[0])
	if name == "" {
		return Task{}, errName
	}

	secs, err := strconv.Atoi(strings.TrimSpace(fields[1]))
	if err != nil {
		return Task{}, fmt.Errorf("%w: %v", errDuration, err)
	}
	if secs <= 0 {
		return Task{}, errDuration
	}
	return Task{Name: name, Seconds: secs}, nil
}

// Write encodes tasks one per line in the format read by Load.
func Write(w io.Writer, tasks []Task) error {
	bw := bufio.NewWriter(w)
	for _, t := range tasks {
		if _, err := fmt.Fprintf(bw, "%s,%d\n", t.Name, t.Seconds); err != nil {
			return fmt.Errorf("catalog: write: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("catalog: write: %w", err)
	}
	return nil
}

// WriteFile replaces path with the encoded catalog.
func WriteFile(path string, tasks []Task) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("catalog: create: %w", err)
	}
	if err := Write(f, tasks); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
