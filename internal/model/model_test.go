package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListingHash_Stable(t *testing.T) {
	l := Listing{
		Manufacturer: "GLOCK",
		Model:        "19",
		Caliber:      "9MM",
		Price:        549.99,
		Description:  "Gen 5",
		Condition:    ConditionUsed,
	}

	assert.Equal(t, l.Hash(), l.Hash())
	assert.Len(t, l.Hash(), 32)
}

func TestListingHash_DistinguishesCondition(t *testing.T) {
	used := Listing{Manufacturer: "GLOCK", Model: "19", Price: 500, Condition: ConditionUsed}
	unfired := used
	unfired.Condition = ConditionNew

	assert.NotEqual(t, used.Hash(), unfired.Hash())
}

func TestListingHash_IgnoresSection(t *testing.T) {
	a := Listing{Section: "handguns", Manufacturer: "GLOCK", Model: "19", Price: 500}
	b := a
	b.Section = "trade-ins"

	assert.Equal(t, a.Hash(), b.Hash())
}

func TestSampleSize_MarshalJSON(t *testing.T) {
	raw, err := json.Marshal(SampleSize(5))
	require.NoError(t, err)
	assert.Equal(t, "5", string(raw))

	raw, err = json.Marshal(SampleSizeNA)
	require.NoError(t, err)
	assert.Equal(t, `"N/A"`, string(raw))
}

func TestSampleSize_UnmarshalJSON(t *testing.T) {
	var s SampleSize
	require.NoError(t, json.Unmarshal([]byte(`"N/A"`), &s))
	assert.Equal(t, SampleSizeNA, s)

	require.NoError(t, json.Unmarshal([]byte(`7`), &s))
	assert.Equal(t, SampleSize(7), s)
}

func TestSampleSize_RoundTripInEstimate(t *testing.T) {
	est := ValueEstimate{
		SampleSize: SampleSizeNA,
		Source:     "Market Estimator",
		Confidence: ConfidenceMedium,
	}

	raw, err := json.Marshal(est)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"sample_size":"N/A"`)

	var back ValueEstimate
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, SampleSizeNA, back.SampleSize)
}

func TestValidPrices(t *testing.T) {
	p1, p2 := 500.0, 480.0
	listings := []MarketListing{
		{Price: &p1},
		{Price: nil},
		{Price: &p2},
	}

	assert.Equal(t, []float64{500, 480}, ValidPrices(listings))
	assert.Empty(t, ValidPrices(nil))
}
