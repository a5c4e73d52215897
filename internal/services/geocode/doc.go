// Package geocode resolves listing location strings to coordinates through
// a Nominatim-style search endpoint. Requests carry a contact email in the
// User-Agent and are spaced by a configurable minimum interval to respect
// the provider's usage policy.
package geocode
