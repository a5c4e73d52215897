// Package services holds shared service-layer plumbing: the sentinel error
// taxonomy used to classify stage failures, the wrap helper that attaches
// stage context to errors, and context annotation for listing id, stage name,
// and request correlation.
package services
