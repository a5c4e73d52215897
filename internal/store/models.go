package store

import "time"

// Status represents the lifecycle of a listing in the preparation pipeline.
type Status string

const (
	StatusPending       Status = "pending"
	StatusScrubbing     Status = "scrubbing"
	StatusScrubbed      Status = "scrubbed"
	StatusGeocoding     Status = "geocoding"
	StatusGeocoded      Status = "geocoded"
	StatusEnriching     Status = "enriching"
	StatusEnriched      Status = "enriched"
	StatusFeeExtracting Status = "fee_extracting"
	StatusCompleted     Status = "completed"
	StatusFailed        Status = "failed"
	StatusReview        Status = "review"
)

var allStatuses = []Status{
	StatusPending,
	StatusScrubbing,
	StatusScrubbed,
	StatusGeocoding,
	StatusGeocoded,
	StatusEnriching,
	StatusEnriched,
	StatusFeeExtracting,
	StatusCompleted,
	StatusFailed,
	StatusReview,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// ValidStatus reports whether value names a known lifecycle status.
func ValidStatus(value Status) bool {
	_, ok := statusSet[value]
	return ok
}

// AllStatuses returns the lifecycle statuses in pipeline order.
func AllStatuses() []Status {
	out := make([]Status, len(allStatuses))
	copy(out, allStatuses)
	return out
}

var processingStatuses = map[Status]struct{}{
	StatusScrubbing:     {},
	StatusGeocoding:     {},
	StatusEnriching:     {},
	StatusFeeExtracting: {},
}

type statusTransition struct {
	from Status
	to   Status
}

// stageRollbackTransitions return an interrupted listing to the start status
// of the stage it was in, so a rerun picks it up again.
var stageRollbackTransitions = []statusTransition{
	{from: StatusScrubbing, to: StatusPending},
	{from: StatusGeocoding, to: StatusScrubbed},
	{from: StatusEnriching, to: StatusGeocoded},
	{from: StatusFeeExtracting, to: StatusEnriched},
}

// Listing represents one scraped advertisement persisted in SQLite.
type Listing struct {
	ID       int64
	Link     string
	Title    string
	Location string
	District string

	// AddedAt and LastUpdate come from the advertisement's date lines;
	// a zero value means the source did not carry the date.
	AddedAt    time.Time
	LastUpdate time.Time
	Expired    bool
	ExpiredAt  time.Time

	Latitude  *float64
	Longitude *float64

	// RawJSON holds the scraped columns exactly as ingested; FeaturesJSON
	// holds the typed features accumulated by the pipeline stages.
	RawJSON      string
	FeaturesJSON string

	Status       Status
	ErrorMessage string

	ProgressStage   string
	ProgressPercent float64
	ProgressMessage string

	NeedsReview  bool
	ReviewReason string

	CreatedAt     time.Time
	UpdatedAt     time.Time
	LastHeartbeat *time.Time
}

// HasCoordinates reports whether both latitude and longitude are present.
func (l *Listing) HasCoordinates() bool {
	return l != nil && l.Latitude != nil && l.Longitude != nil
}

// HealthSummary describes aggregated listing counts per key lifecycle states.
type HealthSummary struct {
	Total      int
	Pending    int
	Processing int
	Completed  int
	Failed     int
	Review     int
}

// DatabaseHealth captures diagnostic information about the listing database.
type DatabaseHealth struct {
	DBPath           string
	DatabaseExists   bool
	DatabaseReadable bool
	TableExists      bool
	IntegrityCheck   bool
	TotalListings    int
	Error            string
}
