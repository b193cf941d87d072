// Package config holds run configuration: input and output paths plus the
// knobs of the policy, workload and energy meter.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ja7ad/ecosched/pkg/profile"
)

// Workload modes.
const (
	WorkloadProcess = "process"
	WorkloadBurn    = "burn"
	WorkloadNoop    = "noop"
)

// Config is the full run configuration. YAML keys mirror the CLI flags.
type Config struct {
	TaskFile    string `yaml:"task_file"`
	ProfileFile string `yaml:"profile_file"`
	MonitorFile string `yaml:"monitor_file"`
	LogFile     string `yaml:"log_file"`
	CSVFile     string `yaml:"csv_file"`
	DBFile      string `yaml:"db_file"` // empty disables the SQLite sink

	ProfileMode      string  `yaml:"profile_mode"`
	BatteryThreshold float64 `yaml:"battery_threshold"`

	Workload       string   `yaml:"workload"`
	WorkerCommand  []string `yaml:"worker_command"` // empty means this binary's worker subcommand
	WorkerCategory string   `yaml:"worker_category"`

	IdleWatts float64 `yaml:"idle_watts"`
	MaxWatts  float64 `yaml:"max_watts"`
	Gamma     float64 `yaml:"gamma"`

	LogLevel   string `yaml:"log_level"`
	LogFormat  string `yaml:"log_format"`
	ListenAddr string `yaml:"listen_addr"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		TaskFile:         "tasks.txt",
		ProfileFile:      "profiles.json",
		MonitorFile:      "monitor.txt",
		LogFile:          "log.txt",
		CSVFile:          "logs.csv",
		ProfileMode:      string(profile.ModeExact),
		BatteryThreshold: 30,
		Workload:         WorkloadProcess,
		WorkerCategory:   "CPU",
		IdleWatts:        5,
		MaxWatts:         20,
		Gamma:            1.3,
		LogLevel:         "info",
		LogFormat:        "text",
		ListenAddr:       ":8080",
	}
}

// Load reads a YAML file over Default(). Unknown keys are rejected.
func Load(path string) (Config, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: read: %w", err)
	}
	if err := Decode(b, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Decode overlays YAML document b onto cfg.
func Decode(b []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("config: decode: %w", err)
	}
	return nil
}

// Validate reports every problem at once.
func (c Config) Validate() error {
	var errs []error
	for name, v := range map[string]string{
		"task_file": c.TaskFile, "profile_file": c.ProfileFile, "monitor_file": c.MonitorFile,
		"log_file": c.LogFile, "csv_file": c.CSVFile,
	} {
		if v == "" {
			errs = append(errs, fmt.Errorf("%s must not be empty", name))
		}
	}
	if _, err := profile.ParseMode(c.ProfileMode); err != nil {
		errs = append(errs, err)
	}
	switch c.Workload {
	case WorkloadProcess, WorkloadBurn, WorkloadNoop:
	default:
		errs = append(errs, fmt.Errorf("unknown workload %q", c.Workload))
	}
	if c.BatteryThreshold < 0 || c.BatteryThreshold > 100 {
		errs = append(errs, fmt.Errorf("battery_threshold %v outside [0,100]", c.BatteryThreshold))
	}
	if c.IdleWatts < 0 || c.MaxWatts < c.IdleWatts {
		errs = append(errs, fmt.Errorf("want 0 <= idle_watts <= max_watts, got %v and %v", c.IdleWatts, c.MaxWatts))
	}
	if c.Gamma <= 0 {
		errs = append(errs, fmt.Errorf("gamma must be > 0, got %v", c.Gamma))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}
