// Package dedupe collapses re-posted advertisements. Landlords delete and
// repost listings to appear fresh; the chain shares a title, so each title
// group keeps only the most recently added row, stamped with the group's
// oldest added date as the true market entry.
package dedupe

import (
	"context"
	"fmt"
	"sort"
	"time"

	"log/slog"

	"rentprep/internal/config"
	"rentprep/internal/logging"
	"rentprep/internal/store"
)

// Result counts what a dedupe pass did.
type Result struct {
	Examined     int
	DatesPatched int
	RemovedOld   int
	RemovedDupes int
}

// Deduper prunes the listing store.
type Deduper struct {
	cfg    *config.Config
	store  *store.Store
	logger *slog.Logger
}

// NewDeduper constructs the dedupe operation.
func NewDeduper(cfg *config.Config, st *store.Store, logger *slog.Logger) *Deduper {
	opLogger := logger
	if opLogger != nil {
		opLogger = opLogger.With(logging.String(logging.FieldComponent, "dedupe"))
	} else {
		opLogger = logging.NewNop()
	}
	return &Deduper{cfg: cfg, store: st, logger: opLogger}
}

// Run applies the cutoff filter and collapses title groups.
func (d *Deduper) Run(ctx context.Context) (Result, error) {
	var result Result

	cutoff, err := time.Parse("2006-01-02", d.cfg.Pipeline.DedupCutoff)
	if err != nil {
		return result, fmt.Errorf("parse dedup_cutoff: %w", err)
	}

	listings, err := d.store.List(ctx)
	if err != nil {
		return result, err
	}
	result.Examined = len(listings)

	// Added dates before the cutoff are scrape artifacts from relisted ads.
	// The last-update date stands in when present; rows still before the
	// cutoff leave the study window.
	for _, listing := range listings {
		if listing.AddedAt.Before(cutoff) {
			if !listing.LastUpdate.IsZero() {
				listing.AddedAt = listing.LastUpdate
				if err := d.store.Update(ctx, listing); err != nil {
					return result, err
				}
				result.DatesPatched++
			}
		}
		if listing.AddedAt.Before(cutoff) {
			if _, err := d.store.Remove(ctx, listing.ID); err != nil {
				return result, err
			}
			result.RemovedOld++
		}
	}

	groups, err := d.store.DuplicateGroups(ctx)
	if err != nil {
		return result, err
	}

	for _, group := range groups {
		// Ties on the added date keep the largest link so reruns pick the
		// same keeper regardless of row order.
		sort.Slice(group, func(i, j int) bool {
			if group[i].AddedAt.Equal(group[j].AddedAt) {
				return group[i].Link < group[j].Link
			}
			return group[i].AddedAt.Before(group[j].AddedAt)
		})

		oldest := group[0].AddedAt
		keeper := group[len(group)-1]
		for _, listing := range group[:len(group)-1] {
			if _, err := d.store.Remove(ctx, listing.ID); err != nil {
				return result, err
			}
			result.RemovedDupes++
		}
		if !keeper.AddedAt.Equal(oldest) {
			keeper.AddedAt = oldest
			if err := d.store.Update(ctx, keeper); err != nil {
				return result, err
			}
		}
	}

	d.logger.Info(
		"dedupe complete",
		logging.Int("examined", result.Examined),
		logging.Int("dates_patched", result.DatesPatched),
		logging.Int("removed_old", result.RemovedOld),
		logging.Int("removed_duplicates", result.RemovedDupes),
	)
	return result, nil
}
