// Package pipeline drains the listing queue through the ordered preparation
// stages: scrub, geocode, enrich, fee extraction. One listing is processed
// at a time in the foreground; a lock file on the data directory prevents
// concurrent runs. Stage failures are classified through the services error
// taxonomy: validation problems park the listing for review, everything
// else is marked failed and can be retried.
package pipeline
