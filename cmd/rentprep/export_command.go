package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"rentprep/internal/config"
	"rentprep/internal/export"
	"rentprep/internal/store"
)

func newExportCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Write the modeling-ready table to export_dir",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				logger, err := ctx.newLogger(cfg)
				if err != nil {
					return err
				}
				exporter := export.NewExporter(cfg, st, logger)
				result, err := exporter.Run(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Exported %d row(s) to %s\n", result.Rows, result.Path)
				return nil
			})
		},
	}
}
