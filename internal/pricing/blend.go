package pricing

import (
	"fmt"

	"github.com/elkriver/inventory-cli/internal/model"
)

// Blend weight for live marketplace prices over the heuristic estimate, and
// the cap on how far the range widens when the two sources disagree. Product
// policy constants, preserved exactly.
const (
	onlineWeight       = 0.7
	heuristicWeight    = 0.3
	rangeAdjustmentCap = 0.3
)

// FilterPlausible drops market listings whose price is below the global value
// floor. Listings without a price are kept; their price stays nil.
func FilterPlausible(listings []model.MarketListing) []model.MarketListing {
	if len(listings) == 0 {
		return nil
	}
	filtered := make([]model.MarketListing, 0, len(listings))
	for _, l := range listings {
		if l.Price == nil || *l.Price >= MinValue {
			filtered = append(filtered, l)
		}
	}
	return filtered
}

// Blend combines the heuristic estimate with live marketplace prices into one
// ValueEstimate. Pure and total: absence of data degrades confidence, never
// errors. Confidence is high iff live data contributed to the estimate,
// medium when exactly one signal contributed, none when no estimate could be
// produced.
func Blend(heur *Heuristic, market []model.MarketListing, useOnline bool) model.ValueEstimate {
	if !useOnline {
		market = nil
	}
	validPrices := model.ValidPrices(market)

	switch {
	case heur != nil && len(validPrices) > 0:
		return blendBoth(heur, market, validPrices)
	case heur != nil:
		return heuristicOnly(heur, market)
	case len(validPrices) > 0:
		return onlineOnly(market, validPrices)
	default:
		return model.ValueEstimate{
			EstimatedValue: nil,
			ValueRange:     nil,
			SampleSize:     0,
			Source:         "No data available",
			Confidence:     model.ConfidenceNone,
			MarketListings: []model.MarketListing{},
		}
	}
}

// blendBoth mixes the online average with the heuristic price 70/30, widening
// the range by up to rangeAdjustmentCap when the sources disagree.
func blendBoth(heur *Heuristic, market []model.MarketListing, validPrices []float64) model.ValueEstimate {
	heurPrice := max(heur.Price, MinValue)
	onlineAvg := max(mean(validPrices), MinValue)

	blended := max(onlineAvg*onlineWeight+heurPrice*heuristicWeight, MinValue)

	adjustment := min(abs(blended-heurPrice)/heurPrice, rangeAdjustmentCap)
	low := max(blended*(0.85-adjustment/2), MinValue)
	high := max(blended*(1.15+adjustment/2), low*1.1)

	return model.ValueEstimate{
		EstimatedValue: &blended,
		ValueRange:     &model.ValueRange{Low: low, High: high},
		SampleSize:     model.SampleSize(len(validPrices)),
		Source:         fmt.Sprintf("Market Estimator + %d Online Listings", len(validPrices)),
		Confidence:     model.ConfidenceHigh,
		MarketListings: market,
	}
}

// heuristicOnly reports the factor-table estimate alone. Listings without
// usable prices may still ride along for diagnostics.
func heuristicOnly(heur *Heuristic, market []model.MarketListing) model.ValueEstimate {
	price := max(heur.Price, MinValue)
	low := max(heur.Range.Low, MinValue)
	high := max(heur.Range.High, low*1.1)

	if market == nil {
		market = []model.MarketListing{}
	}

	return model.ValueEstimate{
		EstimatedValue: &price,
		ValueRange:     &model.ValueRange{Low: low, High: high},
		SampleSize:     model.SampleSizeNA,
		Source:         "Market Estimator",
		Confidence:     model.ConfidenceMedium,
		MarketListings: market,
	}
}

// onlineOnly averages live prices when the heuristic produced nothing; the
// range spans the observed min/max.
func onlineOnly(market []model.MarketListing, validPrices []float64) model.ValueEstimate {
	avg := max(mean(validPrices), MinValue)

	low, high := validPrices[0], validPrices[0]
	for _, p := range validPrices[1:] {
		low = min(low, p)
		high = max(high, p)
	}
	low = max(low, MinValue)
	high = max(high, low*1.1)

	return model.ValueEstimate{
		EstimatedValue: &avg,
		ValueRange:     &model.ValueRange{Low: low, High: high},
		SampleSize:     model.SampleSize(len(validPrices)),
		Source:         fmt.Sprintf("Online Listings (%d samples)", len(validPrices)),
		Confidence:     model.ConfidenceMedium,
		MarketListings: market,
	}
}

func mean(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
