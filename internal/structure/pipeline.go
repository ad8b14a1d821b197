package structure

import (
	"math"

	"StructScan/internal/domain/models"
)

// DefaultTrendLookback is the minimum swing-label count before the
// label-sequence trend summary activates.
const DefaultTrendLookback = 2

// Params controls one pipeline run. Zero values fall back to the
// package defaults, so Params{} is a valid configuration.
type Params struct {
	SwingWindow         int
	PriceTolerancePct   float64
	ClimaxATRMultiplier float64
	ConsecutiveRun      int
	TrendLookback       int
}

// DefaultParams returns the canonical parameter set.
func DefaultParams() Params {
	return Params{
		SwingWindow:         DefaultSwingWindow,
		PriceTolerancePct:   DefaultPriceTolerancePct,
		ClimaxATRMultiplier: DefaultClimaxATRMultiplier,
		ConsecutiveRun:      DefaultConsecutiveRun,
		TrendLookback:       DefaultTrendLookback,
	}
}

func (p Params) normalized() Params {
	d := DefaultParams()
	if p.SwingWindow <= 0 {
		p.SwingWindow = d.SwingWindow
	}
	if p.PriceTolerancePct <= 0 {
		p.PriceTolerancePct = d.PriceTolerancePct
	}
	if p.ClimaxATRMultiplier <= 0 {
		p.ClimaxATRMultiplier = d.ClimaxATRMultiplier
	}
	if p.ConsecutiveRun <= 0 {
		p.ConsecutiveRun = d.ConsecutiveRun
	}
	if p.TrendLookback <= 0 {
		p.TrendLookback = d.TrendLookback
	}
	return p
}

// Result is the full output of one pipeline run: the per-bar fused
// records plus the raw event logs that produced them.
type Result struct {
	Records   []models.StructureRecord
	Swings    []models.SwingEvent
	Reversals []models.ReversalEvent
}

// Annotate runs the complete structure pipeline over an ordered bar
// series: swing detection, breakout-confirmed trend state, both reversal
// detectors, and the fusion merge. It is a pure function of (bars,
// params); re-running on identical input yields identical output.
//
// It fails with *ValidationError on malformed input and with
// *InsufficientDataError when the series is shorter than
// 2*SwingWindow+1; no partial output is ever produced.
func Annotate(bars []models.Bar, p Params) (*Result, error) {
	p = p.normalized()
	if err := ValidateBars(bars); err != nil {
		return nil, err
	}

	swings, err := DetectSwings(bars, p.SwingWindow)
	if err != nil {
		return nil, err
	}
	trend := ComputeTrend(bars, swings, p.SwingWindow, p.PriceTolerancePct)

	reversals := DetectClimaxReversals(bars, p.ClimaxATRMultiplier)
	reversals = append(reversals, DetectConsecutiveReversals(bars, p.ConsecutiveRun)...)
	fused := MergeReversals(bars, trend, reversals)
	labelTrend := SummarizeTrend(trend.Labels, p.TrendLookback)

	records := make([]models.StructureRecord, len(bars))
	for i := range bars {
		records[i] = models.StructureRecord{
			Index:             bars[i].Index,
			Timestamp:         bars[i].Timestamp,
			SwingHighPrice:    math.NaN(),
			SwingLowPrice:     math.NaN(),
			SwingLabel:        trend.Labels[i],
			MajorHigh:         trend.MajorHigh[i],
			MajorLow:          trend.MajorLow[i],
			Bias:              trend.Bias[i],
			AdjustedMajorHigh: fused.AdjustedMajorHigh[i],
			AdjustedMajorLow:  fused.AdjustedMajorLow[i],
			LabelTrend:        labelTrend[i],
		}
	}
	for _, e := range swings {
		r := &records[e.ConfirmIndex]
		if e.Kind == models.SwingHigh {
			r.SwingHighConfirmed = true
			r.SwingHighPrice = e.Price
		} else {
			r.SwingLowConfirmed = true
			r.SwingLowPrice = e.Price
		}
	}
	for _, e := range reversals {
		r := &records[e.Index]
		switch e.Kind {
		case models.ClimaxTop:
			r.IsClimaxTop = true
		case models.ClimaxBottom:
			r.IsClimaxBottom = true
		case models.ConsecutiveTop:
			r.IsConsecutiveTop = true
		case models.ConsecutiveBottom:
			r.IsConsecutiveBottom = true
		}
	}

	return &Result{Records: records, Swings: swings, Reversals: reversals}, nil
}

// ValidateBars fails fast on input the window scan cannot handle:
// empty series, non-monotonic timestamps, or NaN OHLC values.
func ValidateBars(bars []models.Bar) error {
	if len(bars) == 0 {
		return &ValidationError{Index: -1, Field: "series", Reason: "empty"}
	}
	for i, b := range bars {
		if math.IsNaN(b.Open) || math.IsNaN(b.Close) {
			return &ValidationError{Index: i, Field: "open/close", Reason: "NaN"}
		}
		if math.IsNaN(b.High) || math.IsNaN(b.Low) {
			return &ValidationError{Index: i, Field: "high/low", Reason: "NaN"}
		}
		if b.High < b.Low {
			return &ValidationError{Index: i, Field: "high/low", Reason: "high below low"}
		}
		if i > 0 && !bars[i].Timestamp.After(bars[i-1].Timestamp) {
			return &ValidationError{Index: i, Field: "timestamp", Reason: "not strictly increasing"}
		}
	}
	return nil
}
