// Package logging configures slog output for the CLI: a human-readable
// console handler, a JSON handler for machine consumption, typed attribute
// constructors, and helpers that derive standard fields (listing id, stage,
// correlation id) from a context.
package logging
