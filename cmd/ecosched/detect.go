package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ja7ad/ecosched/pkg/catalog"
	"github.com/ja7ad/ecosched/pkg/detect"
	"github.com/ja7ad/ecosched/pkg/profile"
	"github.com/ja7ad/ecosched/pkg/system/proc"
)

func newDetectCmd(a *app) *cobra.Command {
	var (
		procRoot string
		interval time.Duration
		dryRun   bool
	)

	cmd := &cobra.Command{
		Use:   "detect",
		Short: "Build the task catalog and profile from running processes",
		Long: fmt.Sprintf(`detect samples every process for --interval, keeps those using at least
%.1f%% CPU or %d MiB of memory, scores them on CPU, memory, threads and name,
and writes one task per process name to the task file and its label to the
profile file. Durations are estimated from label and memory, capped at %ds.`,
			detect.MinCPUPercent, detect.MinMemoryMB, detect.MaxSeconds),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ps, err := proc.FS{Root: procRoot}.Sample(cmd.Context(), interval)
			if err != nil {
				return err
			}
			groups, tasks, prof := detect.Build(ps)
			a.logger.Info("processes sampled", "total", len(ps), "tasks", len(tasks), "interval", interval)

			out := cmd.OutOrStdout()
			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "TASK\tPROCS\tCPU%\tMEM_MB\tLABEL\tSECONDS")
			for _, g := range groups {
				fmt.Fprintf(tw, "%s\t%d\t%.1f\t%.1f\t%s\t%d\n", g.Name, g.Count, g.AvgCPU, g.AvgMemoryMB, g.Label, g.Seconds())
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			if dryRun {
				return nil
			}

			if err := catalog.WriteFile(a.cfg.TaskFile, tasks); err != nil {
				return err
			}
			if err := profile.WriteFile(a.cfg.ProfileFile, prof); err != nil {
				return err
			}
			fmt.Fprintf(out, "detected %d tasks -> %s, %s\n", len(tasks), a.cfg.TaskFile, a.cfg.ProfileFile)
			return nil
		},
	}
	cmd.Flags().StringVar(&procRoot, "proc", proc.Root, "procfs mount point")
	cmd.Flags().DurationVar(&interval, "interval", 500*time.Millisecond, "CPU sampling window")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the table without writing files")
	return cmd
}
