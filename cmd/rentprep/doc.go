// Package main hosts the rentprep CLI entrypoint and command graph.
//
// The Cobra-based command tree translates terminal invocations into dataset
// operations: CSV ingestion, deduplication, the enrichment pipeline, export,
// reporting, and location review. It centralizes configuration resolution and
// structured logging setup so subcommands can focus on user experience
// instead of wiring.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
