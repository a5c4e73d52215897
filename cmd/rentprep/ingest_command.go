package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"rentprep/internal/config"
	"rentprep/internal/ingest"
	"rentprep/internal/store"
)

func newIngestCommand(ctx *commandContext) *cobra.Command {
	var pattern string

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Import scraped CSV exports from raw_dir",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				logger, err := ctx.newLogger(cfg)
				if err != nil {
					return err
				}
				importer := ingest.NewImporter(cfg, st, logger)
				result, err := importer.Run(cmd.Context(), pattern)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Ingested %d file(s): %d row(s), %d inserted, %d skipped, %d duplicate(s)\n",
					result.Files, result.Rows, result.Inserted, result.Skipped, result.Duplicates)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&pattern, "pattern", "", "Regular expression filtering raw CSV filenames")
	return cmd
}
