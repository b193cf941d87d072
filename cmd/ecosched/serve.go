package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ja7ad/ecosched/pkg/api"
	"github.com/ja7ad/ecosched/pkg/config"
	"github.com/ja7ad/ecosched/pkg/store"
)

var errNoDB = errors.New("no database configured (use --db or db_file)")

func newImportCmd(a *app) *cobra.Command {
	var runID string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Load the CSV decision log into the SQLite store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.cfg.DBFile == "" {
				return errNoDB
			}
			f, err := os.Open(a.cfg.CSVFile)
			if err != nil {
				return fmt.Errorf("import: %w", err)
			}
			defer f.Close()

			st, err := store.Open(cmd.Context(), a.cfg.DBFile, a.logger)
			if err != nil {
				return err
			}
			defer st.Close()

			n, err := st.ImportCSV(cmd.Context(), f, runID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d rows from %s into %s\n", n, a.cfg.CSVFile, a.cfg.DBFile)
			return nil
		},
	}
	cmd.Flags().StringVar(&runID, "run-id", "import", "run id stored with imported rows")
	return cmd
}

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the audit store over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.cfg.DBFile == "" {
				return errNoDB
			}
			st, err := store.Open(cmd.Context(), a.cfg.DBFile, a.logger)
			if err != nil {
				return err
			}
			defer st.Close()

			return api.New(st, a.logger).ListenAndServe(cmd.Context(), a.cfg.ListenAddr)
		},
	}
	cmd.Flags().StringVar(&a.flags.ListenAddr, "listen", config.Default().ListenAddr, "listen address")
	return cmd
}
