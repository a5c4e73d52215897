package main

import (
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"rentprep/internal/config"
	"rentprep/internal/pipeline"
	"rentprep/internal/store"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Process pending listings through the preparation pipeline",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				logger, err := ctx.newLogger(cfg)
				if err != nil {
					return err
				}

				runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
				defer stop()

				manager := pipeline.New(cfg, st, logger)
				summary, err := manager.Run(runCtx)
				if errors.Is(err, pipeline.ErrAlreadyRunning) {
					return fmt.Errorf("another rentprep run holds the lock in %s", cfg.Paths.DataDir)
				}
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Pipeline finished: %d processed, %d failed, %d sent to review\n",
					summary.Processed, summary.Failed, summary.Review)
				return nil
			})
		},
	}
}
