package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"rentprep/internal/config"
	"rentprep/internal/dedupe"
	"rentprep/internal/store"
)

func newDedupeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "dedupe",
		Short: "Remove stale and duplicated listings",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				logger, err := ctx.newLogger(cfg)
				if err != nil {
					return err
				}
				deduper := dedupe.NewDeduper(cfg, st, logger)
				result, err := deduper.Run(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Examined %d listing(s): %d date(s) patched, %d stale removed, %d duplicate(s) removed\n",
					result.Examined, result.DatesPatched, result.RemovedOld, result.RemovedDupes)
				return nil
			})
		},
	}
}
