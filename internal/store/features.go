package store

import (
	"encoding/json"
	"fmt"
	"strings"
)

// RawListing holds the scraped advertisement columns before any parsing.
// Field names mirror the scraper's CSV headers.
type RawListing struct {
	RentPrice             string `json:"rent_price,omitempty"`
	AreaRooms             string `json:"area_room_num,omitempty"`
	Floor                 string `json:"floor,omitempty"`
	FlatCondition         string `json:"flat_condition,omitempty"`
	Heating               string `json:"heating,omitempty"`
	AdditionalInformation string `json:"additional_information,omitempty"`
	Elevator              string `json:"elevator,omitempty"`
	BuildingType          string `json:"building_type,omitempty"`
	Security              string `json:"security,omitempty"`
	Safeguards            string `json:"safeguards,omitempty"`
	YearOfConstruction    string `json:"year_of_construction,omitempty"`
	Utilities             string `json:"utilities,omitempty"`
	Equipment             string `json:"equipment,omitempty"`
	Description           string `json:"adv_description,omitempty"`
	AdvertiserType        string `json:"advertiser_type,omitempty"`
}

// FeeReport is the typed result of hidden-fee extraction from a listing
// description.
type FeeReport struct {
	AdministrativeRent *float64 `json:"administrative_rent"`
	UtilitiesEstimate  *float64 `json:"utilities_estimate"`
	ParkingFee         *float64 `json:"parking_fee"`
	Deposit            *float64 `json:"deposit"`
	OneTimeFees        *float64 `json:"one_time_fees"`
	Confidence         float64  `json:"confidence"`
	Notes              string   `json:"notes,omitempty"`
}

// Features holds the typed feature values a listing accumulates as it moves
// through the pipeline. Pointer fields distinguish missing from zero so the
// export step knows what to impute.
type Features struct {
	Rent             float64 `json:"rent,omitempty"`
	AdditionalFees   float64 `json:"additional_fees,omitempty"`
	PaymentFrequency string  `json:"payment_frequency,omitempty"`

	Area           *float64 `json:"area,omitempty"`
	Rooms          *int     `json:"room_number,omitempty"`
	Floor          *int     `json:"floor,omitempty"`
	BuildingHeight *int     `json:"building_height,omitempty"`

	ForRenovation   bool   `json:"for_renovation,omitempty"`
	Heating         string `json:"heating,omitempty"`
	BuildingType    string `json:"building_type,omitempty"`
	BuildingAge     *int   `json:"building_age,omitempty"`
	Elevator        bool   `json:"elevator,omitempty"`
	Balcony         bool   `json:"balcony,omitempty"`
	Terrace         bool   `json:"terrace,omitempty"`
	Garden          bool   `json:"garden,omitempty"`
	ParkingSpace    bool   `json:"parking_space,omitempty"`
	SeparateKitchen bool   `json:"separate_kitchen,omitempty"`
	UtilityRoom     bool   `json:"utility_room,omitempty"`
	Basement        bool   `json:"basement,omitempty"`
	GatedCommunity  bool   `json:"gated_community,omitempty"`
	Monitoring      bool   `json:"security_monitoring,omitempty"`
	Safeguards      bool   `json:"safeguards,omitempty"`
	CableTV         bool   `json:"cable_tv,omitempty"`
	Internet        bool   `json:"internet,omitempty"`
	Dishwasher      bool   `json:"dishwasher,omitempty"`
	AirConditioning bool   `json:"air_conditioning,omitempty"`

	CenterDistance *float64 `json:"center_distance,omitempty"`
	StopDistance   *float64 `json:"stop_distance,omitempty"`
	AvgAreaPrice   *float64 `json:"avg_area_price,omitempty"`
	PricePerSquare *float64 `json:"price_per_square,omitempty"`
	DaysListed     *int     `json:"days_listed,omitempty"`

	Fees *FeeReport `json:"fees,omitempty"`
}

// DecodeRaw parses the stored raw column payload.
func (l *Listing) DecodeRaw() (RawListing, error) {
	var raw RawListing
	trimmed := strings.TrimSpace(l.RawJSON)
	if trimmed == "" {
		return raw, nil
	}
	if err := json.Unmarshal([]byte(trimmed), &raw); err != nil {
		return raw, fmt.Errorf("decode raw listing: %w", err)
	}
	return raw, nil
}

// SetRaw stores the raw column payload on the listing.
func (l *Listing) SetRaw(raw RawListing) error {
	encoded, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("encode raw listing: %w", err)
	}
	l.RawJSON = string(encoded)
	return nil
}

// DecodeFeatures parses the stored feature payload.
func (l *Listing) DecodeFeatures() (Features, error) {
	var feats Features
	trimmed := strings.TrimSpace(l.FeaturesJSON)
	if trimmed == "" {
		return feats, nil
	}
	if err := json.Unmarshal([]byte(trimmed), &feats); err != nil {
		return feats, fmt.Errorf("decode features: %w", err)
	}
	return feats, nil
}

// SetFeatures stores the feature payload on the listing.
func (l *Listing) SetFeatures(feats Features) error {
	encoded, err := json.Marshal(feats)
	if err != nil {
		return fmt.Errorf("encode features: %w", err)
	}
	l.FeaturesJSON = string(encoded)
	return nil
}
