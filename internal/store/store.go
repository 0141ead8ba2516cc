package store

import (
	"context"

	"github.com/elkriver/inventory-cli/internal/model"
)

// RecordFilter specifies criteria for listing stored records.
type RecordFilter struct {
	Section      string `json:"section,omitempty"`
	Manufacturer string `json:"manufacturer,omitempty"`
	LatestOnly   bool   `json:"latest_only,omitempty"`
	Limit        int    `json:"limit,omitempty"`
	Offset       int    `json:"offset,omitempty"`
}

// Summary aggregates the latest inventory snapshot. A negative price
// difference means the listing asks less than its estimated value, so
// UnderPriced counts the good deals and OverPriced the premium ones.
type Summary struct {
	TotalListings        int     `json:"total_listings"`
	WithEstimates        int     `json:"with_estimates"`
	HighConfidence       int     `json:"high_confidence"`
	OverPriced           int     `json:"over_priced"`
	UnderPriced          int     `json:"under_priced"`
	AvgPrice             float64 `json:"avg_price"`
	AvgEstimatedValue    float64 `json:"avg_estimated_value"`
	AvgDifferencePercent float64 `json:"avg_price_difference_percent"`
	TotalDifference      float64 `json:"total_price_difference"`
}

// Store defines the persistence interface for estimated inventory records.
// SaveRecords retires the previous snapshot (is_latest = false) and upserts
// the new one keyed by listing hash, in a single transaction where the
// backend supports it.
type Store interface {
	SaveRecords(ctx context.Context, records []model.Record) (int64, error)
	ListRecords(ctx context.Context, filter RecordFilter) ([]model.Record, error)
	GetRecord(ctx context.Context, listingHash string) (*model.Record, error)
	Summarize(ctx context.Context) (*Summary, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// recordColumns is the column order shared by both backends for scans
// and bulk writes.
var recordColumns = []string{
	"id",
	"listing_hash",
	"section",
	"manufacturer",
	"model",
	"caliber",
	"price",
	"description",
	"condition",
	"estimated_value",
	"value_source",
	"value_confidence",
	"price_difference",
	"price_difference_percent",
	"value_range_low",
	"value_range_high",
	"market_listings_json",
	"market_listings_count",
	"is_latest",
	"date_scraped",
}

func recordValues(r model.Record) []any {
	return []any{
		r.ID,
		r.ListingHash,
		r.Section,
		r.Manufacturer,
		r.Model,
		r.Caliber,
		r.Price,
		r.Description,
		string(r.Condition),
		r.EstimatedValue,
		r.ValueSource,
		string(r.ValueConfidence),
		r.PriceDifference,
		r.PriceDifferencePercent,
		r.ValueRangeLow,
		r.ValueRangeHigh,
		r.MarketListingsJSON,
		r.MarketListingsCount,
		r.IsLatest,
		r.DateScraped,
	}
}
