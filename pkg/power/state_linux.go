//go:build linux

package power

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ja7ad/ecosched/pkg/system/util"
)

// SysfsRoot is the power_supply class directory on Linux.
const SysfsRoot = "/sys/class/power_supply"

// ReadState reads the live power condition from a sysfs power_supply tree
// rooted at root (SysfsRoot on a real host).
//
// Each supply directory exposes a `type` file:
//   - Battery: `capacity` is the percent; `status` of Charging or Full
//     implies external power.
//   - Mains, USB: `online` of 1 means external power.
//
// Hosts without any battery (desktops, servers, VMs) report Default().
// Only the first battery is used.
func ReadState(root string) (State, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return Default(), err
	}

	var (
		st         = Default()
		hasBattery bool
		hasMains   bool
		mainsOn    bool
		charging   bool
	)
	for _, e := range entries {
		dir := filepath.Join(root, e.Name())
		switch readTrim(filepath.Join(dir, "type")) {
		case "Battery":
			if hasBattery {
				continue
			}
			pct, err := strconv.ParseFloat(readTrim(filepath.Join(dir, "capacity")), 64)
			if err != nil {
				continue
			}
			hasBattery = true
			st.BatteryPercent = util.Clamp(pct, 0, 100)
			switch readTrim(filepath.Join(dir, "status")) {
			case "Charging", "Full":
				charging = true
			}
		case "Mains", "USB":
			hasMains = true
			if readTrim(filepath.Join(dir, "online")) == "1" {
				mainsOn = true
			}
		}
	}

	if !hasBattery {
		return Default(), nil
	}
	switch {
	case hasMains:
		st.OnExternalPower = mainsOn || charging
	default:
		st.OnExternalPower = charging
	}
	return st, nil
}

func readTrim(path string) string {
	b, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(b))
}
