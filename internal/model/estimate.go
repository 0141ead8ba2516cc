package model

import (
	"encoding/json"
	"strconv"
	"time"
)

// Confidence labels how many independent signals contributed to an estimate.
type Confidence string

const (
	ConfidenceNone   Confidence = "none"   // no estimate produced
	ConfidenceMedium Confidence = "medium" // heuristic only, or live data only
	ConfidenceHigh   Confidence = "high"   // heuristic blended with live data
)

// SampleSize counts the market listings that contributed to an estimate.
// SampleSizeNA marks heuristic-only estimates, which are not sample-based.
type SampleSize int

// SampleSizeNA is the "not applicable" marker for non-sample-based estimates.
const SampleSizeNA SampleSize = -1

func (s SampleSize) String() string {
	if s < 0 {
		return "N/A"
	}
	return strconv.Itoa(int(s))
}

// MarshalJSON emits "N/A" for the not-applicable marker, a number otherwise.
func (s SampleSize) MarshalJSON() ([]byte, error) {
	if s < 0 {
		return []byte(`"N/A"`), nil
	}
	return []byte(strconv.Itoa(int(s))), nil
}

// UnmarshalJSON accepts either a number or the "N/A" string form.
func (s *SampleSize) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		*s = SampleSizeNA
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*s = SampleSize(n)
	return nil
}

// ValueRange bounds an estimate. Invariant: High >= Low*1.1 and Low is never
// below the global value floor.
type ValueRange struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

// ValueEstimate is the blended output for one listing. EstimatedValue is nil
// when neither the heuristic model nor live data produced a signal, in which
// case Confidence is ConfidenceNone.
type ValueEstimate struct {
	EstimatedValue *float64        `json:"estimated_value"`
	ValueRange     *ValueRange     `json:"value_range"`
	SampleSize     SampleSize      `json:"sample_size"`
	Source         string          `json:"source"`
	Confidence     Confidence      `json:"confidence"`
	MarketListings []MarketListing `json:"market_listings"`
}

// EstimationTask is one unit of work for the concurrent estimator, created 1:1
// from a Listing. Index is the position in the originating batch and is the
// stable sort key for output ordering.
type EstimationTask struct {
	Index            int    `json:"index"`
	Manufacturer     string `json:"manufacturer"`
	Model            string `json:"model"`
	Caliber          string `json:"caliber"`
	UseOnlineSources bool   `json:"use_online_sources"`
}

// EstimationResult is the per-task outcome. Immutable once returned; callers
// always receive results ordered by Index, never by completion order.
type EstimationResult struct {
	Index          int            `json:"index"`
	Manufacturer   string         `json:"manufacturer"`
	Model          string         `json:"model"`
	Caliber        string         `json:"caliber"`
	Success        bool           `json:"success"`
	ValueInfo      *ValueEstimate `json:"value_info,omitempty"`
	Error          string         `json:"error,omitempty"`
	ProcessingTime time.Duration  `json:"processing_time"`
}
