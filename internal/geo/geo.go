// Package geo provides the geospatial primitives used during enrichment:
// great-circle distances, nearest-point lookup against a stop inventory,
// and radius averaging over historical priced listings.
package geo

import "math"

// earthRadiusKm is the mean Earth radius used by the great-circle formula.
const earthRadiusKm = 6371.0

// Point is a WGS84 coordinate pair in degrees.
type Point struct {
	Lat float64
	Lon float64
}

// Sample is a historical priced listing anchored to a coordinate.
type Sample struct {
	Point
	PricePerSquare float64
}

// Distance returns the haversine distance between two points in kilometres.
func Distance(a, b Point) float64 {
	latA := degToRad(a.Lat)
	latB := degToRad(b.Lat)
	dLat := degToRad(b.Lat - a.Lat)
	dLon := degToRad(b.Lon - a.Lon)

	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)
	h := sinLat*sinLat + math.Cos(latA)*math.Cos(latB)*sinLon*sinLon
	return 2 * earthRadiusKm * math.Asin(math.Min(1, math.Sqrt(h)))
}

// Round3 rounds a distance to three decimal places, metre precision.
func Round3(value float64) float64 {
	return math.Round(value*1000) / 1000
}

// Index answers nearest-point queries against a fixed point set. Points are
// reduced to radians once at construction.
type Index struct {
	points []radPoint
}

type radPoint struct {
	lat float64
	lon float64
}

// NewIndex builds an index over the given points.
func NewIndex(points []Point) *Index {
	idx := &Index{points: make([]radPoint, len(points))}
	for i, p := range points {
		idx.points[i] = radPoint{lat: degToRad(p.Lat), lon: degToRad(p.Lon)}
	}
	return idx
}

// Len reports the number of indexed points.
func (idx *Index) Len() int {
	return len(idx.points)
}

// Nearest returns the distance in kilometres to the closest indexed point.
// An empty index reports ok = false.
func (idx *Index) Nearest(p Point) (float64, bool) {
	if len(idx.points) == 0 {
		return 0, false
	}
	query := radPoint{lat: degToRad(p.Lat), lon: degToRad(p.Lon)}
	best := math.Inf(1)
	for _, candidate := range idx.points {
		if d := haversineRad(query, candidate); d < best {
			best = d
		}
	}
	return best * earthRadiusKm, true
}

// History answers radius-average queries over historical priced listings.
type History struct {
	points []radPoint
	prices []float64
}

// NewHistory builds a history set from samples.
func NewHistory(samples []Sample) *History {
	h := &History{
		points: make([]radPoint, len(samples)),
		prices: make([]float64, len(samples)),
	}
	for i, s := range samples {
		h.points[i] = radPoint{lat: degToRad(s.Lat), lon: degToRad(s.Lon)}
		h.prices[i] = s.PricePerSquare
	}
	return h
}

// Len reports the number of historical samples.
func (h *History) Len() int {
	return len(h.prices)
}

// AverageWithinRadius returns the mean price per square metre of samples
// within radiusKm of the point. An empty neighborhood averages to 0.
func (h *History) AverageWithinRadius(p Point, radiusKm float64) float64 {
	if len(h.prices) == 0 {
		return 0
	}
	query := radPoint{lat: degToRad(p.Lat), lon: degToRad(p.Lon)}
	radiusRad := radiusKm / earthRadiusKm

	var sum float64
	var count int
	for i, candidate := range h.points {
		if haversineRad(query, candidate) <= radiusRad {
			sum += h.prices[i]
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

// haversineRad returns the central angle between two radian points.
func haversineRad(a, b radPoint) float64 {
	sinLat := math.Sin((b.lat - a.lat) / 2)
	sinLon := math.Sin((b.lon - a.lon) / 2)
	h := sinLat*sinLat + math.Cos(a.lat)*math.Cos(b.lat)*sinLon*sinLon
	return 2 * math.Asin(math.Min(1, math.Sqrt(h)))
}

func degToRad(deg float64) float64 {
	return deg * math.Pi / 180
}
