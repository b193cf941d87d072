package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/ja7ad/ecosched/pkg/catalog"
	"github.com/ja7ad/ecosched/pkg/config"
	"github.com/ja7ad/ecosched/pkg/consumption"
	"github.com/ja7ad/ecosched/pkg/executor"
	"github.com/ja7ad/ecosched/pkg/pipeline"
	"github.com/ja7ad/ecosched/pkg/power"
	"github.com/ja7ad/ecosched/pkg/profile"
	"github.com/ja7ad/ecosched/pkg/recorder"
	"github.com/ja7ad/ecosched/pkg/scheduler"
	"github.com/ja7ad/ecosched/pkg/store"
)

func newRunCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Schedule and execute the task catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.run(cmd.Context(), cmd.OutOrStdout())
		},
	}

	d := config.Default()
	f := cmd.Flags()
	f.StringVar(&a.flags.Workload, "workload", d.Workload, "workload: process, burn or noop")
	f.StringSliceVar(&a.flags.WorkerCommand, "worker-cmd", nil, "worker command (default: this binary's worker subcommand)")
	f.StringVar(&a.flags.WorkerCategory, "category", d.WorkerCategory, "category argument passed to the worker")
	f.Float64Var(&a.flags.IdleWatts, "idle-watts", d.IdleWatts, "idle power in Watts for measured energy")
	f.Float64Var(&a.flags.MaxWatts, "max-watts", d.MaxWatts, "power in Watts at full utilization")
	f.Float64Var(&a.flags.Gamma, "gamma", d.Gamma, "CPU nonlinearity exponent")
	return cmd
}

// schedule loads the catalog, profile and power snapshot and returns the
// ordered decisions. Only the catalog is required; the other two fall back
// to defaults with a warning.
func (a *app) schedule() ([]scheduler.Decision, power.State, error) {
	tasks, err := catalog.LoadFile(a.cfg.TaskFile)
	if err != nil {
		return nil, power.State{}, err
	}

	mode, err := profile.ParseMode(a.cfg.ProfileMode)
	if err != nil {
		return nil, power.State{}, err
	}
	prof, err := profile.LoadFile(a.cfg.ProfileFile, mode)
	if err != nil {
		a.logger.Warn("profile unavailable, every task is medium", "path", a.cfg.ProfileFile, "err", err)
	}

	st, err := power.ReadFile(a.cfg.MonitorFile)
	if err != nil {
		a.logger.Warn("power state unavailable, assuming external power", "path", a.cfg.MonitorFile, "err", err)
	}

	s := scheduler.New(prof, scheduler.WithPolicy(scheduler.Policy{BatteryThreshold: a.cfg.BatteryThreshold}))
	return s.Schedule(tasks, st), st, nil
}

func (a *app) run(ctx context.Context, out io.Writer) (err error) {
	decisions, st, err := a.schedule()
	if err != nil {
		return err
	}

	rec, err := a.openSinks(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := rec.Close(); cerr != nil {
			err = errors.Join(err, cerr)
		}
	}()

	w, err := a.workload()
	if err != nil {
		return err
	}
	meter := consumption.New(&consumption.Config{
		PIdle: a.cfg.IdleWatts,
		PMax:  a.cfg.MaxWatts,
		Gamma: a.cfg.Gamma,
	})
	p := pipeline.New(executor.New(w, a.logger), rec,
		pipeline.WithLogger(a.logger),
		pipeline.WithMeter(meter),
	)

	fmt.Fprintf(out, "ecosched run %s: %d tasks, power %s\n", p.RunID(), len(decisions), st)
	sum, err := p.Run(ctx, decisions)
	printSummary(out, sum)
	return err
}

// openSinks opens the text and CSV logs and, when configured, the store.
func (a *app) openSinks(ctx context.Context) (recorder.Recorder, error) {
	text, err := recorder.OpenText(a.cfg.LogFile)
	if err != nil {
		return nil, err
	}
	csv, err := recorder.OpenCSV(a.cfg.CSVFile)
	if err != nil {
		_ = text.Close()
		return nil, err
	}
	sinks := []recorder.Recorder{text, csv}

	if a.cfg.DBFile != "" {
		db, err := store.Open(ctx, a.cfg.DBFile, a.logger)
		if err != nil {
			_ = text.Close()
			_ = csv.Close()
			return nil, &recorder.SinkError{Sink: a.cfg.DBFile, Op: "open", Err: err}
		}
		sinks = append(sinks, db)
	}
	return recorder.Multi(sinks...), nil
}

func (a *app) workload() (executor.Workload, error) {
	switch a.cfg.Workload {
	case config.WorkloadBurn:
		return executor.BurnWorkload{}, nil
	case config.WorkloadNoop:
		return executor.Noop(), nil
	default:
		command := a.cfg.WorkerCommand
		if len(command) == 0 {
			var err error
			if command, err = executor.SelfCommand(); err != nil {
				return nil, err
			}
		}
		return &executor.ProcessWorkload{
			Command:  command,
			Category: a.cfg.WorkerCategory,
			Stdout:   os.Stdout,
			Stderr:   os.Stderr,
		}, nil
	}
}

func printSummary(out io.Writer, s pipeline.Summary) {
	fmt.Fprintf(out, "executed %d, deferred %d, failed %d of %d tasks\n", s.Executed, s.Deferred, s.Failed, s.Total)
	fmt.Fprintf(out, "estimated energy %.2f (deferred %.2f), measured %s, wall %s\n",
		s.Energy, s.Saved, humanize.SIWithDigits(s.MeasuredJ, 2, "J"), s.Elapsed.Round(time.Millisecond))
}
