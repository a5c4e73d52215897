package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"rentprep/internal/config"
	"rentprep/internal/review"
	"rentprep/internal/store"
)

func newReviewCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "review",
		Short: "Flag listings whose text points at a different district",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				logger, err := ctx.newLogger(cfg)
				if err != nil {
					return err
				}
				checker := review.NewChecker(cfg, st, logger)
				result, err := checker.Run(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Scanned %d listing(s), flagged %d; review file: %s\n",
					result.Scanned, result.Flagged, result.Path)
				return nil
			})
		},
	}
}
