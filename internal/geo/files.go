package geo

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// LoadStops reads a GTFS-style stops CSV. The file must carry stop_lat and
// stop_lon columns; rows with unparsable coordinates are skipped.
func LoadStops(path string) ([]Point, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open stops file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read stops header: %w", err)
	}
	latIdx := columnIndex(header, "stop_lat")
	lonIdx := columnIndex(header, "stop_lon")
	if latIdx < 0 || lonIdx < 0 {
		return nil, fmt.Errorf("stops file %s missing stop_lat/stop_lon columns", path)
	}

	var stops []Point
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read stops row: %w", err)
		}
		lat, ok := parseCoordinate(record, latIdx)
		if !ok {
			continue
		}
		lon, ok := parseCoordinate(record, lonIdx)
		if !ok {
			continue
		}
		stops = append(stops, Point{Lat: lat, Lon: lon})
	}
	return stops, nil
}

// LoadHistory reads the legacy priced-listings CSV. The file must carry
// latitude, longitude and price_per_square columns; incomplete rows are
// skipped.
func LoadHistory(path string) ([]Sample, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open history file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read history header: %w", err)
	}
	latIdx := columnIndex(header, "latitude")
	lonIdx := columnIndex(header, "longitude")
	priceIdx := columnIndex(header, "price_per_square")
	if latIdx < 0 || lonIdx < 0 || priceIdx < 0 {
		return nil, fmt.Errorf("history file %s missing latitude/longitude/price_per_square columns", path)
	}

	var samples []Sample
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read history row: %w", err)
		}
		lat, ok := parseCoordinate(record, latIdx)
		if !ok {
			continue
		}
		lon, ok := parseCoordinate(record, lonIdx)
		if !ok {
			continue
		}
		price, ok := parseCoordinate(record, priceIdx)
		if !ok {
			continue
		}
		samples = append(samples, Sample{Point: Point{Lat: lat, Lon: lon}, PricePerSquare: price})
	}
	return samples, nil
}

func columnIndex(header []string, name string) int {
	for i, column := range header {
		if strings.EqualFold(strings.TrimSpace(column), name) {
			return i
		}
	}
	return -1
}

func parseCoordinate(record []string, index int) (float64, bool) {
	if index >= len(record) {
		return 0, false
	}
	value, err := strconv.ParseFloat(strings.TrimSpace(record[index]), 64)
	if err != nil {
		return 0, false
	}
	return value, true
}
