// Package scrub parses raw scraped advertisement columns into typed listing
// features: rent and fees, area and rooms, floor, amenity flags, heating and
// building attributes. Listings priced in a foreign currency are routed to
// review instead of entering the model table.
package scrub
