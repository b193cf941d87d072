// Package power captures the host's power condition once per run.
package power

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/ja7ad/ecosched/pkg/system/util"
	"github.com/ja7ad/ecosched/pkg/types"
)

var (
	// ErrSourceUnavailable means the monitor source could not be read or
	// had no battery field. The accompanying State is Default().
	ErrSourceUnavailable = errors.New("power: source unavailable")

	// ErrUnsupported is returned by ReadState on platforms without a sysfs
	// power_supply class.
	ErrUnsupported = errors.New("power: reading unsupported on this platform")
)

// State is an immutable snapshot of battery level and mains connection.
type State struct {
	BatteryPercent  float64 `json:"battery_percent"`
	OnExternalPower bool    `json:"on_ac"`
}

// Default is the fail-open state: full battery on mains.
func Default() State {
	return State{BatteryPercent: 100, OnExternalPower: true}
}

func (s State) String() string {
	src := "battery"
	if s.OnExternalPower {
		src = "ac"
	}
	return fmt.Sprintf("%s%% (%s)", util.FmtFloat(s.BatteryPercent), src)
}

// key, optional quote, separator, number
var batteryField = regexp.MustCompile(`battery_percent"?\s*[:=]\s*"?(-?[0-9]+(?:\.[0-9]+)?)`)

// Parse extracts a State from raw monitor text.
//
// OnExternalPower is false when the text contains "false" in any case,
// anywhere. BatteryPercent comes from the battery_percent field and is
// clamped to [0,100]. A missing field yields Default() and
// ErrSourceUnavailable.
func Parse(raw string) (State, error) {
	m := batteryField.FindStringSubmatch(raw)
	if m == nil {
		return Default(), fmt.Errorf("%w: no battery_percent field", ErrSourceUnavailable)
	}
	pct, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return Default(), fmt.Errorf("%w: battery_percent: %v", ErrSourceUnavailable, err)
	}
	return State{
		BatteryPercent:  util.Clamp(pct, 0, 100),
		OnExternalPower: !strings.Contains(strings.ToLower(raw), "false"),
	}, nil
}

// Read reads all of r and parses it.
func Read(r io.Reader) (State, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return Default(), fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	return Parse(string(b))
}

// ReadFile reads the monitor file at path. Errors are never fatal: the
// returned State is always usable.
func ReadFile(path string) (State, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Default(), fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	return Parse(string(b))
}

// CPULoad is system-wide CPU utilization recorded next to the power state.
// It is informational: scheduling reads only the power fields.
type CPULoad struct {
	Percent float64
}

// Category buckets the load: above 80% high, above 50% medium.
func (l CPULoad) Category() types.Label {
	switch {
	case l.Percent > 80:
		return types.High
	case l.Percent > 50:
		return types.Medium
	default:
		return types.Low
	}
}

// WriteMonitor writes s in the key:value monitor format read by Parse,
// followed by the load lines when load is non-nil.
func WriteMonitor(w io.Writer, s State, load *CPULoad) error {
	onAC := "True"
	if !s.OnExternalPower {
		onAC = "False"
	}
	if _, err := fmt.Fprintf(w, "battery_percent:%s\non_ac:%s\n", util.FmtFloat(s.BatteryPercent), onAC); err != nil {
		return err
	}
	if load == nil {
		return nil
	}
	pct := math.Round(util.Clamp(load.Percent, 0, 100)*10) / 10
	_, err := fmt.Fprintf(w, "cpu_percent:%s\nload_category:%s\n", util.FmtFloat(pct), load.Category())
	return err
}

// WriteMonitorFile replaces path with the monitor encoding of s.
func WriteMonitorFile(path string, s State, load *CPULoad) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("power: create monitor: %w", err)
	}
	if err := WriteMonitor(f, s, load); err != nil {
		_ = f.Close()
		return fmt.Errorf("power: write monitor: %w", err)
	}
	return f.Close()
}
