// Package store persists scraped rental listings in SQLite and tracks
// their progress through the preparation pipeline.
package store
