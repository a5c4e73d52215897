package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"rentprep/internal/config"
)

// dateLayout is the storage format for advertisement dates.
const dateLayout = "2006-01-02"

// Store manages listing persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the listing database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := filepath.Join(cfg.Paths.DataDir, "listings.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// ErrDuplicateLink marks an insert that collided with an existing listing.
var ErrDuplicateLink = errors.New("listing link already present")

// NewListing inserts a freshly ingested listing as pending and returns the
// stored row. Inserting a link that already exists fails with
// ErrDuplicateLink.
func (s *Store) NewListing(ctx context.Context, listing *Listing) (*Listing, error) {
	if listing == nil {
		return nil, errors.New("listing is nil")
	}
	if strings.TrimSpace(listing.Link) == "" {
		return nil, errors.New("listing link is required")
	}
	now := time.Now().UTC()
	timestamp := now.Format(time.RFC3339Nano)

	status := listing.Status
	if status == "" {
		status = StatusPending
	}

	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO listings (
            link, title, location, district, added_at, last_update,
            expired, expired_at, latitude, longitude, raw_json, features_json,
            status, created_at, updated_at, progress_percent
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		listing.Link,
		nullableString(listing.Title),
		nullableString(listing.Location),
		nullableString(listing.District),
		nullableDate(listing.AddedAt),
		nullableDate(listing.LastUpdate),
		boolToInt(listing.Expired),
		nullableDate(listing.ExpiredAt),
		nullableFloat(listing.Latitude),
		nullableFloat(listing.Longitude),
		nullableString(listing.RawJSON),
		nullableString(listing.FeaturesJSON),
		status,
		timestamp,
		timestamp,
		0.0,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateLink, listing.Link)
		}
		return nil, fmt.Errorf("insert listing: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

// GetByID fetches a listing by identifier. A missing row returns (nil, nil).
func (s *Store) GetByID(ctx context.Context, id int64) (*Listing, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+listingColumns+` FROM listings WHERE id = ?`, id)
	listing, err := scanListing(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get listing: %w", err)
	}
	return listing, nil
}

// GetByLink fetches a listing by its advertisement link.
func (s *Store) GetByLink(ctx context.Context, link string) (*Listing, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+listingColumns+` FROM listings WHERE link = ?`, link)
	listing, err := scanListing(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get listing by link: %w", err)
	}
	return listing, nil
}

// Update persists changes to an existing listing.
func (s *Store) Update(ctx context.Context, listing *Listing) error {
	if listing == nil {
		return errors.New("listing is nil")
	}
	listing.UpdatedAt = time.Now().UTC()
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE listings
         SET link = ?, title = ?, location = ?, district = ?, added_at = ?,
             last_update = ?, expired = ?, expired_at = ?, latitude = ?,
             longitude = ?, raw_json = ?, features_json = ?, status = ?,
             error_message = ?, progress_stage = ?, progress_percent = ?,
             progress_message = ?, needs_review = ?, review_reason = ?,
             updated_at = ?, last_heartbeat = ?
         WHERE id = ?`,
		listing.Link,
		nullableString(listing.Title),
		nullableString(listing.Location),
		nullableString(listing.District),
		nullableDate(listing.AddedAt),
		nullableDate(listing.LastUpdate),
		boolToInt(listing.Expired),
		nullableDate(listing.ExpiredAt),
		nullableFloat(listing.Latitude),
		nullableFloat(listing.Longitude),
		nullableString(listing.RawJSON),
		nullableString(listing.FeaturesJSON),
		listing.Status,
		nullableString(listing.ErrorMessage),
		nullableString(listing.ProgressStage),
		listing.ProgressPercent,
		nullableString(listing.ProgressMessage),
		boolToInt(listing.NeedsReview),
		nullableString(listing.ReviewReason),
		listing.UpdatedAt.Format(time.RFC3339Nano),
		nullableTime(listing.LastHeartbeat),
		listing.ID,
	)
	if err != nil {
		return fmt.Errorf("update listing: %w", err)
	}
	return nil
}

// ItemsByStatus returns listings matching a status ordered by creation time.
func (s *Store) ItemsByStatus(ctx context.Context, status Status) ([]*Listing, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+listingColumns+` FROM listings WHERE status = ? ORDER BY created_at`, status)
	if err != nil {
		return nil, fmt.Errorf("query by status: %w", err)
	}
	defer rows.Close()
	return collectListings(rows)
}

// List returns listings filtered by status set (or all listings when no
// status is provided), ordered by creation time.
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Listing, error) {
	var (
		rows *sql.Rows
		err  error
	)

	baseQuery := `SELECT ` + listingColumns + ` FROM listings`
	orderClause := ` ORDER BY created_at`

	if len(statuses) == 0 {
		rows, err = s.db.QueryContext(ctx, baseQuery+orderClause)
	} else {
		placeholders := makePlaceholders(len(statuses))
		args := make([]any, len(statuses))
		for i, status := range statuses {
			args[i] = status
		}
		rows, err = s.db.QueryContext(ctx, baseQuery+` WHERE status IN (`+placeholders+`)`+orderClause, args...)
	}
	if err != nil {
		return nil, fmt.Errorf("list listings: %w", err)
	}
	defer rows.Close()
	return collectListings(rows)
}

// CompletedListings returns every listing that finished the pipeline,
// ordered by creation time.
func (s *Store) CompletedListings(ctx context.Context) ([]*Listing, error) {
	return s.ItemsByStatus(ctx, StatusCompleted)
}

// DuplicateGroups returns the listings whose title appears more than once,
// keyed by title. Singleton titles are omitted.
func (s *Store) DuplicateGroups(ctx context.Context) (map[string][]*Listing, error) {
	listings, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	groups := make(map[string][]*Listing)
	for _, listing := range listings {
		groups[listing.Title] = append(groups[listing.Title], listing)
	}
	for title, group := range groups {
		if len(group) < 2 {
			delete(groups, title)
		}
	}
	return groups, nil
}

// NextForStatuses returns the oldest listing matching any of the provided statuses.
func (s *Store) NextForStatuses(ctx context.Context, statuses ...Status) (*Listing, error) {
	if len(statuses) == 0 {
		return nil, nil
	}
	placeholders := makePlaceholders(len(statuses))
	args := make([]any, len(statuses))
	for i, status := range statuses {
		args[i] = status
	}

	query := `SELECT ` + listingColumns + ` FROM listings WHERE status IN (` + placeholders + `) ORDER BY created_at LIMIT 1`
	row := s.db.QueryRowContext(ctx, query, args...)
	listing, err := scanListing(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return listing, nil
}

// ResetStuckProcessing returns listings stranded in a processing status to
// the start status of their stage so a rerun can pick them up.
func (s *Store) ResetStuckProcessing(ctx context.Context) (int64, error) {
	var total int64
	now := time.Now().UTC().Format(time.RFC3339Nano)
	for _, transition := range stageRollbackTransitions {
		res, err := s.db.ExecContext(
			ctx,
			`UPDATE listings
             SET status = ?, progress_stage = 'Reset from interrupted run',
                 progress_percent = 0, progress_message = NULL,
                 last_heartbeat = NULL, updated_at = ?
             WHERE status = ?`,
			transition.to,
			now,
			transition.from,
		)
		if err != nil {
			return total, fmt.Errorf("reset stuck listings: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return total, fmt.Errorf("rows affected: %w", err)
		}
		total += affected
	}
	return total, nil
}

// RetryFailed moves failed listings back to pending for reprocessing.
func (s *Store) RetryFailed(ctx context.Context, ids ...int64) (int64, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	if len(ids) == 0 {
		res, err := s.db.ExecContext(
			ctx,
			`UPDATE listings
            SET status = ?, progress_stage = 'Retry requested', progress_percent = 0,
                progress_message = NULL, error_message = NULL, updated_at = ?
            WHERE status = ?`,
			StatusPending,
			now,
			StatusFailed,
		)
		if err != nil {
			return 0, fmt.Errorf("retry failed listings: %w", err)
		}
		return res.RowsAffected()
	}

	placeholders := makePlaceholders(len(ids))
	args := make([]any, 0, len(ids)+2)
	args = append(args, StatusPending, now)
	for _, id := range ids {
		args = append(args, id)
	}
	query := `UPDATE listings
        SET status = ?, progress_stage = 'Retry requested', progress_percent = 0,
            progress_message = NULL, error_message = NULL, updated_at = ?
        WHERE id IN (` + placeholders + `) AND status = '` + string(StatusFailed) + `'`
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("retry selected listings: %w", err)
	}
	return res.RowsAffected()
}

// MarkExpired flags a listing as withdrawn from the market on the given date.
func (s *Store) MarkExpired(ctx context.Context, link string, when time.Time) error {
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE listings SET expired = 1, expired_at = ?, updated_at = ? WHERE link = ?`,
		when.Format(dateLayout),
		time.Now().UTC().Format(time.RFC3339Nano),
		link,
	)
	if err != nil {
		return fmt.Errorf("mark expired: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("listing %q not found", link)
	}
	return nil
}

// Stats returns a count of listings grouped by status.
func (s *Store) Stats(ctx context.Context) (map[Status]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM listings GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("listing stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[Status]int)
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

// Health aggregates listing state for diagnostic output.
func (s *Store) Health(ctx context.Context) (HealthSummary, error) {
	stats, err := s.Stats(ctx)
	if err != nil {
		return HealthSummary{}, err
	}
	health := HealthSummary{}
	for status, count := range stats {
		health.Total += count
		switch status {
		case StatusPending:
			health.Pending += count
		case StatusCompleted:
			health.Completed += count
		case StatusFailed:
			health.Failed += count
		case StatusReview:
			health.Review += count
		default:
			if _, ok := processingStatuses[status]; ok {
				health.Processing += count
			}
		}
	}
	return health, nil
}

// CheckHealth returns diagnostic information about the listing database.
func (s *Store) CheckHealth(ctx context.Context) (DatabaseHealth, error) {
	health := DatabaseHealth{DBPath: s.path}

	if s.path == "" {
		return health, errors.New("listing database path is unknown")
	}

	info, err := os.Stat(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			health.DatabaseExists = false
			return health, nil
		}
		return health, fmt.Errorf("stat listing database: %w", err)
	}
	if info.IsDir() {
		return health, fmt.Errorf("listing database path %q is a directory", s.path)
	}
	health.DatabaseExists = true

	if s.db == nil {
		return health, errors.New("listing database connection unavailable")
	}

	connCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := s.db.PingContext(connCtx); err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("ping listing database: %w", err)
	}
	health.DatabaseReadable = true

	var tableName string
	row := s.db.QueryRowContext(connCtx, "SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'listings'")
	if err := row.Scan(&tableName); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			health.TableExists = false
		} else {
			health.Error = err.Error()
			return health, fmt.Errorf("query table info: %w", err)
		}
	} else {
		health.TableExists = true
	}

	if health.TableExists {
		row = s.db.QueryRowContext(connCtx, "SELECT COUNT(*) FROM listings")
		if err := row.Scan(&health.TotalListings); err != nil {
			health.Error = err.Error()
			return health, fmt.Errorf("count listings: %w", err)
		}
	}

	row = s.db.QueryRowContext(connCtx, "PRAGMA integrity_check")
	var integrityResult string
	if err := row.Scan(&integrityResult); err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("integrity check: %w", err)
	}
	health.IntegrityCheck = strings.EqualFold(integrityResult, "ok")

	return health, nil
}

// Remove deletes a listing by identifier.
func (s *Store) Remove(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM listings WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete listing: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// Clear removes all listings.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM listings`)
	if err != nil {
		return 0, fmt.Errorf("clear listings: %w", err)
	}
	return res.RowsAffected()
}

// ClearFailed removes only failed listings.
func (s *Store) ClearFailed(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM listings WHERE status = ?`, StatusFailed)
	if err != nil {
		return 0, fmt.Errorf("clear failed: %w", err)
	}
	return res.RowsAffected()
}

// ClearCompleted removes only completed listings.
func (s *Store) ClearCompleted(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM listings WHERE status = ?`, StatusCompleted)
	if err != nil {
		return 0, fmt.Errorf("clear completed: %w", err)
	}
	return res.RowsAffected()
}

const listingColumns = "id, link, title, location, district, added_at, last_update, expired, expired_at, latitude, longitude, raw_json, features_json, status, error_message, progress_stage, progress_percent, progress_message, needs_review, review_reason, created_at, updated_at, last_heartbeat"

func collectListings(rows *sql.Rows) ([]*Listing, error) {
	var listings []*Listing
	for rows.Next() {
		listing, err := scanListing(rows)
		if err != nil {
			return nil, err
		}
		listings = append(listings, listing)
	}
	return listings, rows.Err()
}

func scanListing(scanner interface{ Scan(dest ...any) error }) (*Listing, error) {
	var (
		id               int64
		link             string
		title            sql.NullString
		location         sql.NullString
		district         sql.NullString
		addedRaw         sql.NullString
		lastUpdateRaw    sql.NullString
		expired          sql.NullInt64
		expiredRaw       sql.NullString
		latitude         sql.NullFloat64
		longitude        sql.NullFloat64
		rawJSON          sql.NullString
		featuresJSON     sql.NullString
		statusStr        string
		errorMessage     sql.NullString
		progressStage    sql.NullString
		progressPercent  sql.NullFloat64
		progressMessage  sql.NullString
		needsReview      sql.NullInt64
		reviewReason     sql.NullString
		createdRaw       sql.NullString
		updatedRaw       sql.NullString
		lastHeartbeatRaw sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&link,
		&title,
		&location,
		&district,
		&addedRaw,
		&lastUpdateRaw,
		&expired,
		&expiredRaw,
		&latitude,
		&longitude,
		&rawJSON,
		&featuresJSON,
		&statusStr,
		&errorMessage,
		&progressStage,
		&progressPercent,
		&progressMessage,
		&needsReview,
		&reviewReason,
		&createdRaw,
		&updatedRaw,
		&lastHeartbeatRaw,
	); err != nil {
		return nil, err
	}

	listing := &Listing{
		ID:              id,
		Link:            link,
		Title:           title.String,
		Location:        location.String,
		District:        district.String,
		RawJSON:         rawJSON.String,
		FeaturesJSON:    featuresJSON.String,
		Status:          Status(statusStr),
		ErrorMessage:    errorMessage.String,
		ProgressStage:   progressStage.String,
		ProgressPercent: progressPercent.Float64,
		ProgressMessage: progressMessage.String,
		ReviewReason:    reviewReason.String,
	}
	if expired.Valid {
		listing.Expired = expired.Int64 != 0
	}
	if needsReview.Valid {
		listing.NeedsReview = needsReview.Int64 != 0
	}
	if latitude.Valid {
		v := latitude.Float64
		listing.Latitude = &v
	}
	if longitude.Valid {
		v := longitude.Float64
		listing.Longitude = &v
	}

	if added, err := parseDateString(addedRaw.String); err == nil {
		listing.AddedAt = added
	}
	if updated, err := parseDateString(lastUpdateRaw.String); err == nil {
		listing.LastUpdate = updated
	}
	if expiredAt, err := parseDateString(expiredRaw.String); err == nil {
		listing.ExpiredAt = expiredAt
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		listing.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		listing.UpdatedAt = updated
	}
	if lastHeartbeatRaw.Valid {
		if heartbeat, err := parseTimeString(lastHeartbeatRaw.String); err == nil {
			listing.LastHeartbeat = &heartbeat
		}
	}
	return listing, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableFloat(value *float64) any {
	if value == nil {
		return nil
	}
	return *value
}

func nullableDate(value time.Time) any {
	if value.IsZero() {
		return nil
	}
	return value.Format(dateLayout)
}

func nullableTime(value *time.Time) any {
	if value == nil {
		return nil
	}
	return value.UTC().Format(time.RFC3339Nano)
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func parseDateString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	return time.Parse(dateLayout, value)
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
