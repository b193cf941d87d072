package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ja7ad/ecosched/pkg/power"
	"github.com/ja7ad/ecosched/pkg/system/proc"
)

func newMonitorCmd(a *app) *cobra.Command {
	var (
		root     string
		procRoot string
		interval time.Duration
	)

	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Read the power supply and CPU load and write the monitor file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := power.ReadState(root)
			if err != nil {
				return err
			}

			var load *power.CPULoad
			if interval > 0 {
				pct, err := proc.FS{Root: procRoot}.SystemCPUPercent(cmd.Context(), interval)
				if err != nil {
					a.logger.Warn("cpu load unavailable", "root", procRoot, "err", err)
				} else {
					load = &power.CPULoad{Percent: pct}
				}
			}

			if err := power.WriteMonitorFile(a.cfg.MonitorFile, st, load); err != nil {
				return err
			}
			a.logger.Info("power snapshot written", "path", a.cfg.MonitorFile, "battery", st.BatteryPercent, "on_ac", st.OnExternalPower)

			out := cmd.OutOrStdout()
			if load != nil {
				fmt.Fprintf(out, "%s, cpu %.1f%% (%s) -> %s\n", st, load.Percent, load.Category(), a.cfg.MonitorFile)
			} else {
				fmt.Fprintf(out, "%s -> %s\n", st, a.cfg.MonitorFile)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&root, "sysfs", power.SysfsRoot, "power_supply class directory")
	cmd.Flags().StringVar(&procRoot, "proc", proc.Root, "procfs mount point")
	cmd.Flags().DurationVar(&interval, "cpu-interval", 500*time.Millisecond, "CPU load sampling window (0 disables)")
	return cmd
}
