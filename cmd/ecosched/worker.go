package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ja7ad/ecosched/pkg/executor"
)

func newWorkerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "worker <category> <seconds>",
		Short: "Keep one CPU busy for the given number of seconds",
		Long: `worker is the workload launched by "ecosched run" in process mode. It
burns one CPU for roughly <seconds> and exits 0; bad arguments exit 1.`,
		Args:   cobra.ExactArgs(2),
		Hidden: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			secs, err := executor.ParseSeconds(args[1])
			if err != nil {
				return fmt.Errorf("worker %s: %q: %w", name, args[1], err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "[task %s] started, busy for %ds\n", name, secs)
			if err := executor.Burn(cmd.Context(), time.Duration(secs)*time.Second); err != nil {
				return fmt.Errorf("worker %s: %w", name, err)
			}
			fmt.Fprintf(out, "[task %s] finished\n", name)
			return nil
		},
	}
}
