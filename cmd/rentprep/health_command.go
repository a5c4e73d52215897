package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"rentprep/internal/config"
	"rentprep/internal/pipeline"
	"rentprep/internal/store"
)

func newHealthCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check database and pipeline stage health",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)

				dbHealth, dbErr := st.CheckHealth(cmd.Context())
				for _, line := range renderSectionHeader("Database", colorize) {
					fmt.Fprintln(out, line)
				}
				fmt.Fprintln(out, renderStatusLine("path", statusInfo, dbHealth.DBPath, colorize))
				fmt.Fprintln(out, renderStatusLine("readable", boolKind(dbHealth.DatabaseReadable), "", colorize))
				fmt.Fprintln(out, renderStatusLine("schema", boolKind(dbHealth.TableExists), "", colorize))
				fmt.Fprintln(out, renderStatusLine("integrity", boolKind(dbHealth.IntegrityCheck), "", colorize))
				fmt.Fprintln(out, renderStatusLine("listings", statusInfo, fmt.Sprintf("%d", dbHealth.TotalListings), colorize))
				if dbErr != nil {
					fmt.Fprintln(out, renderStatusLine("error", statusError, dbErr.Error(), colorize))
				}

				logger, err := ctx.newLogger(cfg)
				if err != nil {
					return err
				}
				manager := pipeline.New(cfg, st, logger)

				for _, line := range renderSectionHeader("Stages", colorize) {
					fmt.Fprintln(out, line)
				}
				healthy := dbErr == nil
				for _, health := range manager.HealthCheck(cmd.Context()) {
					kind := statusOK
					if !health.Ready {
						kind = statusError
						healthy = false
					}
					fmt.Fprintln(out, renderStatusLine(health.Name, kind, health.Detail, colorize))
				}

				if !healthy {
					return fmt.Errorf("health check reported problems")
				}
				return nil
			})
		},
	}
}

func boolKind(ok bool) statusKind {
	if ok {
		return statusOK
	}
	return statusError
}
