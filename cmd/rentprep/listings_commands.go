package main

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"rentprep/internal/config"
	"rentprep/internal/store"
)

func newListingsCommand(ctx *commandContext) *cobra.Command {
	listingsCmd := &cobra.Command{
		Use:   "listings",
		Short: "Inspect and manage stored listings",
	}

	listingsCmd.AddCommand(newListingsListCommand(ctx))
	listingsCmd.AddCommand(newListingsShowCommand(ctx))
	listingsCmd.AddCommand(newListingsStatsCommand(ctx))
	listingsCmd.AddCommand(newListingsRetryCommand(ctx))
	listingsCmd.AddCommand(newListingsClearCommand(ctx))
	listingsCmd.AddCommand(newListingsRemoveCommand(ctx))
	listingsCmd.AddCommand(newListingsExpireCommand(ctx))

	return listingsCmd
}

func newListingsListCommand(ctx *commandContext) *cobra.Command {
	var listStatuses []string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored listings",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				var statuses []store.Status
				for _, statusStr := range listStatuses {
					status := store.Status(statusStr)
					if !store.ValidStatus(status) {
						return fmt.Errorf("unknown status %q", statusStr)
					}
					statuses = append(statuses, status)
				}

				listings, err := st.List(cmd.Context(), statuses...)
				if err != nil {
					return err
				}
				if len(listings) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No listings found")
					return nil
				}

				rows := make([][]string, 0, len(listings))
				for _, listing := range listings {
					rows = append(rows, []string{
						strconv.FormatInt(listing.ID, 10),
						listing.District,
						truncate(listing.Title, 48),
						string(listing.Status),
						formatListDate(listing.AddedAt),
					})
				}
				table := renderTable(
					[]string{"ID", "District", "Title", "Status", "Added"},
					rows,
					0,
				)
				fmt.Fprintln(cmd.OutOrStdout(), table)
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVar(&listStatuses, "status", nil, "Filter by lifecycle status (repeatable)")
	return cmd
}

func newListingsShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one listing in detail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid listing id %q", args[0])
			}
			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				listing, err := st.GetByID(cmd.Context(), id)
				if err != nil {
					return err
				}
				if listing == nil {
					return fmt.Errorf("listing %d not found", id)
				}
				printListing(cmd, listing)
				return nil
			})
		},
	}
}

func printListing(cmd *cobra.Command, listing *store.Listing) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "ID:            %d\n", listing.ID)
	fmt.Fprintf(out, "Link:          %s\n", listing.Link)
	fmt.Fprintf(out, "Title:         %s\n", listing.Title)
	fmt.Fprintf(out, "District:      %s\n", listing.District)
	fmt.Fprintf(out, "Status:        %s\n", listing.Status)
	fmt.Fprintf(out, "Added:         %s\n", formatListDate(listing.AddedAt))
	fmt.Fprintf(out, "Last update:   %s\n", formatListDate(listing.LastUpdate))
	fmt.Fprintf(out, "Expired:       %s\n", yesNo(listing.Expired))
	if listing.HasCoordinates() {
		fmt.Fprintf(out, "Coordinates:   %.6f, %.6f\n", *listing.Latitude, *listing.Longitude)
	}
	if listing.ErrorMessage != "" {
		fmt.Fprintf(out, "Error:         %s\n", listing.ErrorMessage)
	}
	if listing.NeedsReview {
		fmt.Fprintf(out, "Needs review:  %s\n", listing.ReviewReason)
	}
	if listing.ProgressStage != "" {
		fmt.Fprintf(out, "Progress:      %s (%.0f%%)\n", listing.ProgressStage, listing.ProgressPercent)
	}

	feats, err := listing.DecodeFeatures()
	if err != nil {
		fmt.Fprintf(out, "Features:      (unreadable: %v)\n", err)
		return
	}
	if feats.Rent > 0 {
		fmt.Fprintf(out, "Rent:          %.0f (+%.0f fees)\n", feats.Rent, feats.AdditionalFees)
	}
	if feats.Area != nil {
		fmt.Fprintf(out, "Area:          %.1f m2\n", *feats.Area)
	}
	if feats.PricePerSquare != nil {
		fmt.Fprintf(out, "Price/m2:      %.2f\n", *feats.PricePerSquare)
	}
	if feats.CenterDistance != nil {
		fmt.Fprintf(out, "Centre dist:   %.3f km\n", *feats.CenterDistance)
	}
	if feats.StopDistance != nil {
		fmt.Fprintf(out, "Stop dist:     %.3f km\n", *feats.StopDistance)
	}
}

func newListingsStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show listing counts per status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				stats, err := st.Stats(cmd.Context())
				if err != nil {
					return err
				}

				var rows [][]string
				for _, status := range store.AllStatuses() {
					if count := stats[status]; count > 0 {
						rows = append(rows, []string{string(status), strconv.Itoa(count)})
					}
				}
				if len(rows) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No listings stored")
					return nil
				}
				table := renderTable([]string{"Status", "Count"}, rows, 1)
				fmt.Fprintln(cmd.OutOrStdout(), table)
				return nil
			})
		},
	}
}

func newListingsRetryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "retry [id...]",
		Short: "Return failed listings to the pending state",
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]int64, 0, len(args))
			for _, arg := range args {
				id, err := strconv.ParseInt(arg, 10, 64)
				if err != nil {
					return fmt.Errorf("invalid listing id %q", arg)
				}
				ids = append(ids, id)
			}
			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				count, err := st.RetryFailed(cmd.Context(), ids...)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Requeued %d listing(s)\n", count)
				return nil
			})
		},
	}
}

func newListingsClearCommand(ctx *commandContext) *cobra.Command {
	var clearFailed bool
	var clearCompleted bool
	var clearAll bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove listings in bulk",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				var count int64
				var err error
				switch {
				case clearAll:
					count, err = st.Clear(cmd.Context())
				case clearFailed:
					count, err = st.ClearFailed(cmd.Context())
				case clearCompleted:
					count, err = st.ClearCompleted(cmd.Context())
				default:
					return errors.New("specify --failed, --completed, or --all")
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d listing(s)\n", count)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&clearFailed, "failed", false, "Remove failed listings")
	cmd.Flags().BoolVar(&clearCompleted, "completed", false, "Remove completed listings")
	cmd.Flags().BoolVar(&clearAll, "all", false, "Remove every listing")
	return cmd
}

func newListingsRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove one listing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid listing id %q", args[0])
			}
			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				removed, err := st.Remove(cmd.Context(), id)
				if err != nil {
					return err
				}
				if !removed {
					return fmt.Errorf("listing %d not found", id)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed listing %d\n", id)
				return nil
			})
		},
	}
}

func newListingsExpireCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "expire <link> <date>",
		Short: "Mark a listing as withdrawn from the market",
		Long:  "Flags the listing as expired on the given YYYY-MM-DD date so the export window and days-listed feature can use it.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			when, err := time.Parse("2006-01-02", args[1])
			if err != nil {
				return fmt.Errorf("invalid expiry date %q, want YYYY-MM-DD", args[1])
			}
			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				if err := st.MarkExpired(cmd.Context(), args[0], when); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Marked %s expired on %s\n", args[0], args[1])
				return nil
			})
		},
	}
}

func truncate(value string, limit int) string {
	if limit <= 0 || len(value) <= limit {
		return value
	}
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return string(runes[:limit-1]) + "…"
}

func formatListDate(value time.Time) string {
	if value.IsZero() {
		return "-"
	}
	return value.Format("2006-01-02")
}
