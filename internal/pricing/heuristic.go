// Package pricing implements the deterministic heuristic value model and the
// blending of heuristic estimates with live marketplace prices.
package pricing

import (
	"strings"

	"go.uber.org/zap"

	"github.com/elkriver/inventory-cli/internal/model"
)

// MinValue is the global floor for any estimated firearm value.
const MinValue = 50.0

// Heuristic is the output of the static factor-table model. SampleMarker is
// always 0: the estimate is derived, not sample-based.
type Heuristic struct {
	Price        float64
	Range        model.ValueRange
	SampleMarker int
}

// manufacturerValues maps manufacturer to a base price in dollars.
var manufacturerValues = map[string]float64{
	"GLOCK":          500,
	"SMITH & WESSON": 450,
	"S&W":            450,
	"RUGER":          400,
	"SIG SAUER":      600,
	"COLT":           800,
	"REMINGTON":      450,
	"WINCHESTER":     600,
	"MOSSBERG":       350,
	"BERETTA":        550,
	"SAVAGE":         400,
	"SPRINGFIELD":    550,
	"TAURUS":         300,
	"HENRY":          450,
	"BROWNING":       700,
	"FN":             750,
	"CZ":             600,
	"KIMBER":         850,
	"KEL-TEC":        300,
	"HK":             900,
	"TIKKA":          700,
	"MARLIN":         500,
	"STOEGER":        400,
}

// defaultBasePrice applies to manufacturers missing from the table.
const defaultBasePrice = 450

// caliberFactors maps caliber/gauge to a value multiplier. 9mm is the baseline.
var caliberFactors = map[string]float64{
	"9MM":               1.0,
	"45 ACP":            1.1,
	"380 ACP":           0.9,
	"40 S&W":            0.95,
	"10MM":              1.2,
	"357 MAG":           1.15,
	"44 MAG":            1.2,
	"22 LONG RIFLE":     0.8,
	"22 LR":             0.8,
	"223 REM":           1.05,
	"5.56":              1.05,
	"5.56X45 NATO":      1.05,
	"5.56 NATO":         1.05,
	"308 WIN":           1.1,
	"7.62X39":           1.0,
	"12 GAUGE":          1.0,
	"20 GAUGE":          0.95,
	"6.5 CREEDMOOR":     1.15,
	"300 WIN MAG":       1.2,
	"30-06":             1.1,
	"30-06 SPRINGFIELD": 1.1,
	"30-30 WIN":         1.0,
	"45-70 GOVT":        1.15,
	"38 SPECIAL":        0.9,
}

func containsAny(s string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

// modelFactor derives a multiplier from value-affecting words in the model
// name plus manufacturer-specific model rules.
func modelFactor(manufacturer, modelName string) float64 {
	factor := 1.0

	if containsAny(modelName, "CUSTOM", "TACTICAL", "PREMIUM", "ELITE", "TARGET") {
		factor *= 1.2
	}
	if containsAny(modelName, "COMPACT", "CARRY") {
		factor *= 1.05
	}
	if strings.Contains(modelName, "COMPETITION") {
		factor *= 1.25
	}
	if strings.Contains(modelName, "HUNTER") {
		factor *= 1.1
	}

	switch manufacturer {
	case "GLOCK":
		switch modelName {
		case "17", "19", "43", "43X", "48":
			factor *= 1.1 // popular models command a premium
		}
	case "SMITH & WESSON", "S&W":
		if strings.Contains(modelName, "SHIELD") {
			factor *= 1.05
		} else if strings.Contains(modelName, "629") || strings.Contains(modelName, "686") {
			factor *= 1.2 // premium revolvers
		}
	case "RUGER":
		switch {
		case strings.Contains(modelName, "10/22"):
			factor *= 0.9 // common, highly available
		case strings.Contains(modelName, "MINI-14"):
			factor *= 1.15
		case strings.Contains(modelName, "GP100"):
			factor *= 1.1
		}
	case "COLT":
		if strings.Contains(modelName, "PYTHON") {
			factor *= 1.5 // highly desirable
		} else if strings.Contains(modelName, "1911") {
			factor *= 1.2
		}
	case "TAURUS":
		if strings.Contains(modelName, "PT22") || strings.Contains(modelName, "PT-22") {
			factor *= 0.85
		}
	}

	return factor
}

// EstimateMarketValue computes the heuristic value for a firearm from the
// static factor tables. Deterministic, no I/O; inputs are matched
// case-insensitively. The price is floored at MinValue and the range bounds
// satisfy Low >= MinValue and High >= Low*1.1.
func EstimateMarketValue(manufacturer, modelName, caliber string) Heuristic {
	mfg := strings.ToUpper(strings.TrimSpace(manufacturer))
	mdl := strings.ToUpper(strings.TrimSpace(modelName))
	cal := strings.ToUpper(strings.TrimSpace(caliber))

	basePrice, ok := manufacturerValues[mfg]
	if !ok {
		basePrice = defaultBasePrice
	}

	caliberFactor, ok := caliberFactors[cal]
	if !ok {
		caliberFactor = 1.0
	}

	price := basePrice * caliberFactor * modelFactor(mfg, mdl)
	price = max(price, MinValue)

	low := max(price*0.85, MinValue)
	high := max(price*1.15, low*1.1)

	zap.L().Debug("pricing: heuristic estimate",
		zap.String("manufacturer", mfg),
		zap.String("model", mdl),
		zap.String("caliber", cal),
		zap.Float64("price", price),
		zap.Float64("range_low", low),
		zap.Float64("range_high", high),
	)

	return Heuristic{
		Price:        price,
		Range:        model.ValueRange{Low: low, High: high},
		SampleMarker: 0,
	}
}
