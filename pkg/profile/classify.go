package profile

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ja7ad/ecosched/pkg/catalog"
	"github.com/ja7ad/ecosched/pkg/types"
)

// Duration thresholds used by Classify, in seconds.
const (
	LowMaxSeconds    = 2
	MediumMaxSeconds = 6
)

// ClassifySeconds labels a task by its estimated duration.
func ClassifySeconds(seconds int) types.Label {
	switch {
	case seconds <= LowMaxSeconds:
		return types.Low
	case seconds <= MediumMaxSeconds:
		return types.Medium
	default:
		return types.High
	}
}

// Classify labels every task by duration. For duplicate names the last
// occurrence wins.
func Classify(tasks []catalog.Task) Exact {
	p := make(Exact, len(tasks))
	for _, t := range tasks {
		p[t.Name] = ClassifySeconds(t.Seconds)
	}
	return p
}

// Write encodes p as an indented JSON object. The `"name": "label"` spacing
// is readable by both lookup strategies.
func Write(w io.Writer, p Exact) error {
	out := make(map[string]string, len(p))
	for name, l := range p {
		out[name] = l.String()
	}
	b, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("profile: encode: %w", err)
	}
	b = append(b, '\n')
	_, err = w.Write(b)
	return err
}

// WriteFile replaces path with the encoded profile.
func WriteFile(path string, p Exact) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("profile: mkdir: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("profile: create: %w", err)
	}
	if err := Write(f, p); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
