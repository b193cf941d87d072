package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newPlanCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "plan",
		Short: "Print the scheduled order without executing or recording",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			decisions, st, err := a.schedule()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "power %s, threshold %g%%\n", st, a.cfg.BatteryThreshold)

			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ORDER\tTASK\tLABEL\tPRIORITY\tSECONDS\tENERGY\tACTION")
			for i, d := range decisions {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%d\t%.2f\t%s\n",
					i+1, d.Task.Name, d.Label, d.Priority(), d.Task.Seconds, d.Energy, d.Action)
			}
			return tw.Flush()
		},
	}
}
