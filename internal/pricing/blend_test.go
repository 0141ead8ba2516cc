package pricing

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elkriver/inventory-cli/internal/model"
)

func ptr(v float64) *float64 { return &v }

func marketWithPrices(prices ...float64) []model.MarketListing {
	listings := make([]model.MarketListing, len(prices))
	for i, p := range prices {
		listings[i] = model.MarketListing{
			Title:  fmt.Sprintf("Listing %d", i),
			Price:  ptr(p),
			Source: "Armslist",
		}
	}
	return listings
}

func TestBlend_HeuristicAndOnline(t *testing.T) {
	heur := &Heuristic{Price: 450, Range: model.ValueRange{Low: 382.5, High: 517.5}}
	market := marketWithPrices(500, 520, 480)

	est := Blend(heur, market, true)

	require.NotNil(t, est.EstimatedValue)
	// online avg 500 * 0.7 + heuristic 450 * 0.3
	assert.InDelta(t, 485.0, *est.EstimatedValue, 0.001)
	assert.Equal(t, model.ConfidenceHigh, est.Confidence)
	assert.Equal(t, model.SampleSize(3), est.SampleSize)
	assert.Equal(t, "Market Estimator + 3 Online Listings", est.Source)

	require.NotNil(t, est.ValueRange)
	adjustment := (485.0 - 450.0) / 450.0
	assert.InDelta(t, 485*(0.85-adjustment/2), est.ValueRange.Low, 0.001)
	assert.InDelta(t, 485*(1.15+adjustment/2), est.ValueRange.High, 0.001)
}

func TestBlend_HeuristicOnly(t *testing.T) {
	heur := &Heuristic{Price: 550, Range: model.ValueRange{Low: 467.5, High: 632.5}}

	est := Blend(heur, nil, true)

	require.NotNil(t, est.EstimatedValue)
	assert.InDelta(t, 550.0, *est.EstimatedValue, 0.001)
	assert.Equal(t, model.ConfidenceMedium, est.Confidence)
	assert.Equal(t, model.SampleSizeNA, est.SampleSize)
	assert.Equal(t, "Market Estimator", est.Source)
}

func TestBlend_OnlineDisabledIgnoresMarket(t *testing.T) {
	heur := &Heuristic{Price: 550, Range: model.ValueRange{Low: 467.5, High: 632.5}}
	market := marketWithPrices(900, 950)

	est := Blend(heur, market, false)

	require.NotNil(t, est.EstimatedValue)
	assert.InDelta(t, 550.0, *est.EstimatedValue, 0.001)
	assert.Equal(t, model.ConfidenceMedium, est.Confidence)
}

func TestBlend_OnlineOnly(t *testing.T) {
	market := marketWithPrices(400, 600, 500)

	est := Blend(nil, market, true)

	require.NotNil(t, est.EstimatedValue)
	assert.InDelta(t, 500.0, *est.EstimatedValue, 0.001)
	assert.Equal(t, model.ConfidenceMedium, est.Confidence)
	assert.Equal(t, model.SampleSize(3), est.SampleSize)
	assert.Equal(t, "Online Listings (3 samples)", est.Source)
	require.NotNil(t, est.ValueRange)
	assert.InDelta(t, 400.0, est.ValueRange.Low, 0.001)
	assert.InDelta(t, 600.0, est.ValueRange.High, 0.001)
}

func TestBlend_NoData(t *testing.T) {
	est := Blend(nil, nil, true)

	assert.Nil(t, est.EstimatedValue)
	assert.Nil(t, est.ValueRange)
	assert.Equal(t, model.SampleSize(0), est.SampleSize)
	assert.Equal(t, model.ConfidenceNone, est.Confidence)
	assert.Equal(t, "No data available", est.Source)
	assert.NotNil(t, est.MarketListings)
}

func TestBlend_AdjustmentCapped(t *testing.T) {
	// Online prices wildly above the heuristic push the adjustment past the cap.
	heur := &Heuristic{Price: 100, Range: model.ValueRange{Low: 85, High: 115}}
	market := marketWithPrices(1000, 1000)

	est := Blend(heur, market, true)

	require.NotNil(t, est.EstimatedValue)
	blended := *est.EstimatedValue
	require.NotNil(t, est.ValueRange)
	assert.InDelta(t, blended*(0.85-0.15), est.ValueRange.Low, 0.001)
	assert.InDelta(t, blended*(1.15+0.15), est.ValueRange.High, 0.001)
}

func TestBlend_RangeInvariants(t *testing.T) {
	cases := []struct {
		name   string
		heur   *Heuristic
		prices []float64
	}{
		{"both", &Heuristic{Price: 450, Range: model.ValueRange{Low: 382.5, High: 517.5}}, []float64{500, 480}},
		{"heuristic only", &Heuristic{Price: 50, Range: model.ValueRange{Low: 50, High: 57.5}}, nil},
		{"online only", nil, []float64{55, 60}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			est := Blend(tc.heur, marketWithPrices(tc.prices...), true)
			require.NotNil(t, est.EstimatedValue)
			require.NotNil(t, est.ValueRange)
			assert.GreaterOrEqual(t, *est.EstimatedValue, MinValue)
			assert.GreaterOrEqual(t, est.ValueRange.Low, MinValue)
			assert.GreaterOrEqual(t, est.ValueRange.High, est.ValueRange.Low*1.1-0.001)
		})
	}
}

func TestFilterPlausible(t *testing.T) {
	listings := []model.MarketListing{
		{Title: "ok", Price: ptr(300)},
		{Title: "too cheap", Price: ptr(25)},
		{Title: "no price", Price: nil},
	}

	filtered := FilterPlausible(listings)

	require.Len(t, filtered, 2)
	assert.Equal(t, "ok", filtered[0].Title)
	assert.Equal(t, "no price", filtered[1].Title)
}

func TestFilterPlausible_Empty(t *testing.T) {
	assert.Nil(t, FilterPlausible(nil))
}
