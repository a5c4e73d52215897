package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"rentprep/internal/config"
	"rentprep/internal/report"
	"rentprep/internal/store"
)

func newReportCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "Summarize the listing dataset",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				summary, err := report.Gather(cmd.Context(), st)
				if err != nil {
					return err
				}
				printReport(cmd, summary)
				return nil
			})
		},
	}
}

func printReport(cmd *cobra.Command, summary *report.Report) {
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "Total listings: %d\n", summary.TotalListings)

	if len(summary.Statuses) > 0 {
		rows := make([][]string, 0, len(summary.Statuses))
		for _, sc := range summary.Statuses {
			rows = append(rows, []string{sc.Status, strconv.Itoa(sc.Count)})
		}
		fmt.Fprintln(out, renderTable([]string{"Status", "Count"}, rows, 1))
	}

	if len(summary.Districts) > 0 {
		rows := make([][]string, 0, len(summary.Districts))
		for _, dc := range summary.Districts {
			rows = append(rows, []string{dc.District, strconv.Itoa(dc.Count)})
		}
		fmt.Fprintln(out, renderTable([]string{"District", "Count"}, rows, 1))
	}

	if len(summary.Missing) > 0 {
		rows := make([][]string, 0, len(summary.Missing))
		for _, mc := range summary.Missing {
			rows = append(rows, []string{mc.Column, strconv.Itoa(mc.Missing)})
		}
		fmt.Fprintln(out, renderTable([]string{"Column", "Missing"}, rows, 1))
	}

	if len(summary.Numeric) > 0 {
		rows := make([][]string, 0, len(summary.Numeric))
		for _, cs := range summary.Numeric {
			rows = append(rows, []string{
				cs.Column,
				strconv.Itoa(cs.Count),
				formatStat(cs.Min),
				formatStat(cs.Median),
				formatStat(cs.Mean),
				formatStat(cs.Max),
				formatStat(cs.StdDev),
			})
		}
		fmt.Fprintln(out, renderTable(
			[]string{"Column", "Count", "Min", "Median", "Mean", "Max", "StdDev"},
			rows,
			1, 2, 3, 4, 5, 6,
		))
	}

	for _, msg := range summary.Errors {
		fmt.Fprintf(out, "warning: %s\n", msg)
	}
}

func formatStat(value float64) string {
	return strconv.FormatFloat(value, 'f', 2, 64)
}
