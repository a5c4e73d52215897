// Package report summarizes the state of the listing dataset: counts per
// lifecycle status and district, missing values per feature column, and
// numeric summaries for the key modeling variables.
package report

// Report is the structured output of the report command. It contains
// everything the CLI needs to render the run summary without touching the
// database again.
type Report struct {
	TotalListings int             `json:"total_listings"`
	Statuses      []StatusCount   `json:"statuses,omitempty"`
	Districts     []DistrictCount `json:"districts,omitempty"`
	Missing       []MissingCount  `json:"missing,omitempty"`
	Numeric       []ColumnSummary `json:"numeric,omitempty"`
	Errors        []string        `json:"errors,omitempty"`
}

// StatusCount is the number of listings in one lifecycle status.
type StatusCount struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

// DistrictCount is the number of listings declared in one district.
type DistrictCount struct {
	District string `json:"district"`
	Count    int    `json:"count"`
}

// MissingCount counts the completed listings lacking a value for one
// feature column.
type MissingCount struct {
	Column  string `json:"column"`
	Missing int    `json:"missing"`
}

// ColumnSummary carries the numeric profile of one feature column over
// completed listings.
type ColumnSummary struct {
	Column string  `json:"column"`
	Count  int     `json:"count"`
	Min    float64 `json:"min"`
	Median float64 `json:"median"`
	Mean   float64 `json:"mean"`
	Max    float64 `json:"max"`
	StdDev float64 `json:"std_dev"`
}
