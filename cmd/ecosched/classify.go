package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ja7ad/ecosched/pkg/catalog"
	"github.com/ja7ad/ecosched/pkg/profile"
)

func newClassifyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "classify",
		Short: "Label catalog tasks by duration and write the profile file",
		Long: fmt.Sprintf(`classify labels each task by its duration: up to %ds low, up to %ds
medium, longer high. The result replaces the profile file.`, profile.LowMaxSeconds, profile.MediumMaxSeconds),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tasks, err := catalog.LoadFile(a.cfg.TaskFile)
			if err != nil {
				return err
			}
			p := profile.Classify(tasks)
			if err := profile.WriteFile(a.cfg.ProfileFile, p); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "classified %d tasks -> %s\n", len(p), a.cfg.ProfileFile)
			return nil
		},
	}
}
