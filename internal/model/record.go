package model

import "time"

// ValueSourceMaxLen caps the value_source column; longer provenance labels are
// truncated at the record-building layer.
const ValueSourceMaxLen = 30

// Record is the flattened persistence row for one listing plus its estimate.
// Keyed by ListingHash; the store flips IsLatest on re-scrape so only the most
// recent snapshot of the inventory carries is_latest = true.
type Record struct {
	ID                     string     `json:"id"`
	ListingHash            string     `json:"listing_hash"`
	Section                string     `json:"section"`
	Manufacturer           string     `json:"manufacturer"`
	Model                  string     `json:"model"`
	Caliber                string     `json:"caliber"`
	Price                  float64    `json:"price"`
	Description            string     `json:"description"`
	Condition              Condition  `json:"condition"`
	EstimatedValue         *float64   `json:"estimated_value"`
	ValueSource            string     `json:"value_source"`
	ValueConfidence        Confidence `json:"value_confidence"`
	PriceDifference        *float64   `json:"price_difference"`
	PriceDifferencePercent *float64   `json:"price_difference_percent"`
	ValueRangeLow          *float64   `json:"value_range_low"`
	ValueRangeHigh         *float64   `json:"value_range_high"`
	MarketListingsJSON     string     `json:"market_listings_json,omitempty"`
	MarketListingsCount    int        `json:"market_listings_count"`
	IsLatest               bool       `json:"is_latest"`
	DateScraped            time.Time  `json:"date_scraped"`
}
