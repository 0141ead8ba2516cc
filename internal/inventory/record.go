package inventory

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/elkriver/inventory-cli/internal/model"
)

// BuildRecord flattens a listing and its estimation outcome into one
// persistence row. A failed or absent estimate still produces a record;
// the value columns stay nil and confidence stays none.
func BuildRecord(listing model.Listing, result *model.EstimationResult, now time.Time) model.Record {
	rec := model.Record{
		ID:              uuid.NewString(),
		ListingHash:     listing.Hash(),
		Section:         listing.Section,
		Manufacturer:    listing.Manufacturer,
		Model:           listing.Model,
		Caliber:         listing.Caliber,
		Price:           listing.Price,
		Description:     listing.Description,
		Condition:       listing.Condition,
		ValueConfidence: model.ConfidenceNone,
		IsLatest:        true,
		DateScraped:     now.UTC(),
	}

	if result == nil {
		return rec
	}
	if !result.Success || result.ValueInfo == nil {
		rec.ValueSource = "Estimation failed"
		return rec
	}

	info := result.ValueInfo
	rec.ValueSource = truncate(info.Source, model.ValueSourceMaxLen)
	rec.ValueConfidence = info.Confidence

	if info.EstimatedValue != nil {
		est := *info.EstimatedValue
		rec.EstimatedValue = &est

		// Negative difference means the listing is priced below its
		// estimated value.
		if est > 0 {
			diff := listing.Price - est
			pct := diff / est * 100
			rec.PriceDifference = &diff
			rec.PriceDifferencePercent = &pct
		}
	}

	if info.ValueRange != nil {
		low, high := info.ValueRange.Low, info.ValueRange.High
		rec.ValueRangeLow = &low
		rec.ValueRangeHigh = &high
	}

	if len(info.MarketListings) > 0 {
		rec.MarketListingsCount = len(info.MarketListings)
		raw, err := json.Marshal(info.MarketListings)
		if err != nil {
			zap.L().Warn("failed to marshal market listings",
				zap.String("listing_hash", rec.ListingHash),
				zap.Error(err))
		} else {
			rec.MarketListingsJSON = string(raw)
		}
	}

	return rec
}

// BuildRecords pairs listings with results by task index.
func BuildRecords(listings []model.Listing, results []model.EstimationResult, now time.Time) []model.Record {
	byIndex := make(map[int]*model.EstimationResult, len(results))
	for i := range results {
		byIndex[results[i].Index] = &results[i]
	}

	records := make([]model.Record, 0, len(listings))
	for i, listing := range listings {
		records = append(records, BuildRecord(listing, byIndex[i], now))
	}
	return records
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
