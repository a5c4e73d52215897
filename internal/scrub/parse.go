package scrub

import (
	"regexp"
	"strconv"
	"strings"
)

// currencyPLN is the only currency admitted into the model table.
const currencyPLN = "zł"

var (
	rentPattern  = regexp.MustCompile(`(\d[\d\s]*)\s*([A-Za-zł]+)`)
	feesPattern  = regexp.MustCompile(`\+ Czynsz (\d[\d\s]*)\s*([A-Za-zł]+)`)
	freqPattern  = regexp.MustCompile(`/(\w+)`)
	areaPattern  = regexp.MustCompile(`(\d+(?:\.\d+)?)m²`)
	roomsPattern = regexp.MustCompile(`(\d+)\s*pok`)
)

// RentInfo is the decomposed rent_price column: the asking rent, the
// administrative fee quoted after "+ Czynsz", and the payment frequency.
type RentInfo struct {
	Rent             float64
	Currency         string
	AdditionalFees   float64
	FeesCurrency     string
	PaymentFrequency string
}

// ParseRent decomposes a raw rent_price value. ok is false when no amount
// could be recognized at all.
func ParseRent(text string) (RentInfo, bool) {
	var info RentInfo

	match := rentPattern.FindStringSubmatch(text)
	if match == nil {
		return info, false
	}
	info.Rent = parseAmount(match[1])
	info.Currency = match[2]

	if fees := feesPattern.FindStringSubmatch(text); fees != nil {
		info.AdditionalFees = parseAmount(fees[1])
		info.FeesCurrency = fees[2]
	}
	if freq := freqPattern.FindStringSubmatch(text); freq != nil {
		info.PaymentFrequency = freq[1]
	}
	return info, true
}

// PricedInPLN reports whether both the rent and the quoted fee (when
// present) are in złoty.
func (r RentInfo) PricedInPLN() bool {
	if r.Currency != currencyPLN {
		return false
	}
	return r.FeesCurrency == "" || r.FeesCurrency == currencyPLN
}

func parseAmount(digits string) float64 {
	cleaned := strings.ReplaceAll(digits, " ", "")
	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0
	}
	return value
}

// ParseArea extracts the flat area in square metres from the combined
// area_room_num column.
func ParseArea(text string) *float64 {
	match := areaPattern.FindStringSubmatch(normalizeDecimal(text))
	if match == nil {
		return nil
	}
	value, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return nil
	}
	return &value
}

// ParseRooms extracts the room count from the combined area_room_num column.
func ParseRooms(text string) *int {
	match := roomsPattern.FindStringSubmatch(text)
	if match == nil {
		return nil
	}
	value, err := strconv.Atoi(match[1])
	if err != nil {
		return nil
	}
	return &value
}

// normalizeDecimal turns the Polish comma decimal separator into a dot so
// areas like "45,5m²" parse.
func normalizeDecimal(text string) string {
	return strings.ReplaceAll(text, ",", ".")
}

// ParseFloor decomposes a floor value. "X/Y" carries both the floor and the
// building height; "parter" is the ground floor counted as 1; ">10" style
// values keep the bound. A bare number has no building height.
func ParseFloor(text string) (floor *int, buildingHeight *int) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}

	if strings.Contains(text, "/") {
		parts := strings.SplitN(text, "/", 2)
		floor = parseFloorPart(strings.TrimSpace(parts[0]))
		if height, err := strconv.Atoi(strings.TrimSpace(parts[1])); err == nil {
			buildingHeight = &height
		}
		return floor, buildingHeight
	}
	// keep buildingHeight nil when only the floor is present
	if value, err := strconv.Atoi(text); err == nil {
		floor = &value
	}
	return floor, buildingHeight
}

func parseFloorPart(part string) *int {
	switch {
	case part == "parter":
		one := 1
		return &one
	case strings.HasPrefix(part, ">"):
		if value, err := strconv.Atoi(strings.TrimSpace(part[1:])); err == nil {
			return &value
		}
	default:
		if value, err := strconv.Atoi(part); err == nil {
			return &value
		}
	}
	return nil
}

var heatingTranslations = map[string]string{
	"elektryczne": "electric",
	"gazowe":      "gas",
	"inne":        "other",
	"kotłownia":   "boiler room",
	"miejskie":    "district",
}

// TranslateHeating maps the Polish heating label to its English model value.
// Unknown labels pass through unchanged.
func TranslateHeating(value string) string {
	value = strings.TrimSpace(value)
	if translated, ok := heatingTranslations[value]; ok {
		return translated
	}
	return value
}

var buildingTypeTranslations = map[string]string{
	"apartamentowiec": "apartment",
	"kamienica":       "tenement",
	"blok":            "block_of_flats",
}

// TranslateBuildingType maps the Polish building type to its model value.
// Anything outside the three known types collapses to "other".
func TranslateBuildingType(value string) string {
	if translated, ok := buildingTypeTranslations[strings.TrimSpace(value)]; ok {
		return translated
	}
	return "other"
}

// BuildingAge converts a construction year into an age relative to the
// reference year. Years outside [1600, referenceYear] are treated as data
// entry errors and dropped.
func BuildingAge(yearText string, referenceYear int) *int {
	year, err := strconv.Atoi(strings.TrimSpace(yearText))
	if err != nil {
		return nil
	}
	if year < 1600 || year > referenceYear {
		return nil
	}
	age := referenceYear - year
	return &age
}
