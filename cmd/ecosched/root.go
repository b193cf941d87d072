package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/ja7ad/ecosched/pkg/config"
	"github.com/ja7ad/ecosched/pkg/logging"
)

// app carries the resolved configuration and logger to every subcommand.
type app struct {
	cfgPath string
	flags   config.Config // flag-bound values, applied over the file only when set
	cfg     config.Config
	logger  *slog.Logger
}

// overrides maps a flag name to the config field it sets.
var overrides = map[string]func(dst *config.Config, src config.Config){
	"tasks":        func(d *config.Config, s config.Config) { d.TaskFile = s.TaskFile },
	"profiles":     func(d *config.Config, s config.Config) { d.ProfileFile = s.ProfileFile },
	"monitor-file": func(d *config.Config, s config.Config) { d.MonitorFile = s.MonitorFile },
	"log":          func(d *config.Config, s config.Config) { d.LogFile = s.LogFile },
	"csv":          func(d *config.Config, s config.Config) { d.CSVFile = s.CSVFile },
	"db":           func(d *config.Config, s config.Config) { d.DBFile = s.DBFile },
	"profile-mode": func(d *config.Config, s config.Config) { d.ProfileMode = s.ProfileMode },
	"threshold":    func(d *config.Config, s config.Config) { d.BatteryThreshold = s.BatteryThreshold },
	"workload":     func(d *config.Config, s config.Config) { d.Workload = s.Workload },
	"worker-cmd":   func(d *config.Config, s config.Config) { d.WorkerCommand = s.WorkerCommand },
	"category":     func(d *config.Config, s config.Config) { d.WorkerCategory = s.WorkerCategory },
	"idle-watts":   func(d *config.Config, s config.Config) { d.IdleWatts = s.IdleWatts },
	"max-watts":    func(d *config.Config, s config.Config) { d.MaxWatts = s.MaxWatts },
	"gamma":        func(d *config.Config, s config.Config) { d.Gamma = s.Gamma },
	"log-level":    func(d *config.Config, s config.Config) { d.LogLevel = s.LogLevel },
	"log-format":   func(d *config.Config, s config.Config) { d.LogFormat = s.LogFormat },
	"listen":       func(d *config.Config, s config.Config) { d.ListenAddr = s.ListenAddr },
}

func newRootCmd() *cobra.Command {
	a := &app{flags: config.Default()}

	root := &cobra.Command{
		Use:   "ecosched",
		Short: "Energy-aware batch task scheduler",
		Long: `ecosched runs a batch of named tasks in priority order. Each task is
labelled low, medium or high from an energy profile; high-energy tasks are
deferred while the host is on battery below the threshold. Every decision is
written to a plain log, a CSV audit file and, optionally, a SQLite store.

Examples:
  ecosched classify                   # write profiles.json from tasks.txt
  ecosched detect                     # write tasks.txt and profiles.json from running processes
  ecosched monitor                    # snapshot power state into monitor.txt
  ecosched plan                       # show what a run would do
  ecosched run --db audit.db
  ecosched serve --db audit.db --listen :8080`,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		SilenceUsage: true,
	}

	d := config.Default()
	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgPath, "config", "", "YAML config file (flags override it)")
	pf.StringVar(&a.flags.LogLevel, "log-level", d.LogLevel, "log level (debug, info, warn, error)")
	pf.StringVar(&a.flags.LogFormat, "log-format", d.LogFormat, "log format (text, json)")
	pf.StringVar(&a.flags.TaskFile, "tasks", d.TaskFile, "task catalog file")
	pf.StringVar(&a.flags.ProfileFile, "profiles", d.ProfileFile, "energy profile file")
	pf.StringVar(&a.flags.MonitorFile, "monitor-file", d.MonitorFile, "power monitor file")
	pf.StringVar(&a.flags.LogFile, "log", d.LogFile, "plain-text decision log")
	pf.StringVar(&a.flags.CSVFile, "csv", d.CSVFile, "CSV decision log")
	pf.StringVar(&a.flags.DBFile, "db", d.DBFile, "SQLite audit store (empty disables it)")
	pf.StringVar(&a.flags.ProfileMode, "profile-mode", d.ProfileMode, "profile lookup: exact or contains")
	pf.Float64Var(&a.flags.BatteryThreshold, "threshold", d.BatteryThreshold, "defer high tasks on battery below this percent")

	root.AddCommand(
		newRunCmd(a),
		newPlanCmd(a),
		newWorkerCmd(),
		newMonitorCmd(a),
		newClassifyCmd(a),
		newDetectCmd(a),
		newImportCmd(a),
		newServeCmd(a),
	)
	return root
}

// setup resolves defaults, then the config file, then explicitly set flags.
func (a *app) setup(cmd *cobra.Command) error {
	cfg := config.Default()
	if a.cfgPath != "" {
		var err error
		if cfg, err = config.Load(a.cfgPath); err != nil {
			return err
		}
	}
	for name, apply := range overrides {
		if cmd.Flags().Changed(name) {
			apply(&cfg, a.flags)
		}
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = logging.NewLoggerWithWriter(logging.ParseLevel(cfg.LogLevel), cfg.LogFormat, cmd.ErrOrStderr())
	slog.SetDefault(a.logger)
	return nil
}
