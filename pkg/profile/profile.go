// Package profile maps task names to energy labels.
//
// A profile source is a JSON-like text holding "name": "label" associations
// with label one of low, medium or high. Two lookup strategies exist:
//
//   - Exact (default): the source is decoded as a JSON object and looked up
//     by key.
//   - Contains (legacy): the raw text is scanned for the literal
//     `"name": "label"` association. A name that is a substring of another
//     entry passes the first containment check, so unusual spacing or
//     overlapping names can mislabel tasks. Kept for compatibility with older
//     profile files that are not valid JSON.
//
// Names without an association are labeled Medium.
package profile

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ja7ad/ecosched/pkg/types"
)

// ErrSourceUnavailable is returned alongside an empty profile when the
// source cannot be read or decoded. Callers are expected to continue.
var ErrSourceUnavailable = errors.New("profile: source unavailable")

// Profile assigns a label to a task name. Implementations must be pure:
// the same name always yields the same label.
type Profile interface {
	Lookup(name string) types.Label
}

// Mode selects the lookup strategy.
type Mode string

const (
	ModeExact    Mode = "exact"
	ModeContains Mode = "contains"
)

// ParseMode accepts "exact" and "contains"; empty means exact.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeExact, "":
		return ModeExact, nil
	case ModeContains:
		return ModeContains, nil
	default:
		return ModeExact, fmt.Errorf("profile: unknown mode %q", s)
	}
}

// Exact looks names up by key. The nil value labels everything Medium.
type Exact map[string]types.Label

func (p Exact) Lookup(name string) types.Label {
	if l, ok := p[name]; ok {
		return l
	}
	return types.Medium
}

// NewExact decodes a JSON object of name -> label. Entries with a label
// outside {low, medium, high} are dropped and fall back to Medium.
func NewExact(r io.Reader) (Exact, error) {
	var raw map[string]string
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	p := make(Exact, len(raw))
	for name, token := range raw {
		l, err := types.ParseLabel(token)
		if err != nil {
			continue
		}
		p[name] = l
	}
	return p, nil
}

// Contains scans the raw profile text.
type Contains string

func (p Contains) Lookup(name string) types.Label {
	raw := string(p)
	if name == "" || !strings.Contains(raw, name) {
		return types.Medium
	}
	switch {
	case strings.Contains(raw, association(name, types.Low)):
		return types.Low
	case strings.Contains(raw, association(name, types.High)):
		return types.High
	default:
		return types.Medium
	}
}

func association(name string, l types.Label) string {
	return `"` + name + `": "` + l.String() + `"`
}

// Load builds a profile from r with the given strategy.
func Load(r io.Reader, mode Mode) (Profile, error) {
	switch mode {
	case ModeContains:
		b, err := io.ReadAll(r)
		if err != nil {
			return Exact{}, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
		}
		return Contains(b), nil
	default:
		p, err := NewExact(r)
		if err != nil {
			return Exact{}, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
		}
		return p, nil
	}
}

// LoadFile never returns a nil Profile. On error the returned profile labels
// every task Medium and the error wraps ErrSourceUnavailable.
func LoadFile(path string, mode Mode) (Profile, error) {
	f, err := os.Open(path)
	if err != nil {
		return Exact{}, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	defer func() {
		_ = f.Close()
	}()
	return Load(f, mode)
}
