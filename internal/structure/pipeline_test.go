package structure

import (
	"math"
	"reflect"
	"testing"

	"StructScan/internal/domain/models"
)

func floatEq(a, b float64) bool {
	if math.IsNaN(a) && math.IsNaN(b) {
		return true
	}
	return a == b
}

func recordsEqual(a, b models.StructureRecord) bool {
	return a.Index == b.Index &&
		a.Timestamp.Equal(b.Timestamp) &&
		a.SwingHighConfirmed == b.SwingHighConfirmed &&
		a.SwingLowConfirmed == b.SwingLowConfirmed &&
		floatEq(a.SwingHighPrice, b.SwingHighPrice) &&
		floatEq(a.SwingLowPrice, b.SwingLowPrice) &&
		a.SwingLabel == b.SwingLabel &&
		floatEq(a.MajorHigh, b.MajorHigh) &&
		floatEq(a.MajorLow, b.MajorLow) &&
		a.Bias == b.Bias &&
		floatEq(a.AdjustedMajorHigh, b.AdjustedMajorHigh) &&
		floatEq(a.AdjustedMajorLow, b.AdjustedMajorLow) &&
		a.IsClimaxTop == b.IsClimaxTop &&
		a.IsClimaxBottom == b.IsClimaxBottom &&
		a.IsConsecutiveTop == b.IsConsecutiveTop &&
		a.IsConsecutiveBottom == b.IsConsecutiveBottom &&
		a.LabelTrend == b.LabelTrend
}

func TestAnnotateIdempotent(t *testing.T) {
	closes := []float64{10, 11, 12, 11, 10, 9, 8, 9, 10, 11, 12, 13, 12, 11, 12, 13}
	bars := barsFromCloses(closes)
	for i := range bars {
		bars[i].ATR = 1
		if i > 0 {
			bars[i].Open = closes[i-1]
		}
	}
	p := Params{SwingWindow: 2, ConsecutiveRun: 3}

	a, err := Annotate(bars, p)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	b, err := Annotate(bars, p)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}

	if !reflect.DeepEqual(a.Swings, b.Swings) {
		t.Fatalf("swing events differ between identical runs")
	}
	if !reflect.DeepEqual(a.Reversals, b.Reversals) {
		t.Fatalf("reversal events differ between identical runs")
	}
	if len(a.Records) != len(b.Records) {
		t.Fatalf("record counts differ: %d vs %d", len(a.Records), len(b.Records))
	}
	for i := range a.Records {
		if !recordsEqual(a.Records[i], b.Records[i]) {
			t.Fatalf("record %d differs:\n%+v\n%+v", i, a.Records[i], b.Records[i])
		}
	}
}

func TestAnnotateSwingFlagsAtConfirmBar(t *testing.T) {
	highs := []float64{10, 11, 15, 12, 11, 9, 8}
	lows := []float64{9, 10, 14, 11, 10, 8, 7}
	bars := barsFromHL(highs, lows)

	res, err := Annotate(bars, Params{SwingWindow: 2})
	if err != nil {
		t.Fatalf("annotate: %v", err)
	}
	if len(res.Records) != len(bars) {
		t.Fatalf("records = %d, want one per bar", len(res.Records))
	}
	// The swing at origin 2 confirms at bar 4; the flag sits on the
	// confirm bar, never on the origin.
	if res.Records[2].SwingHighConfirmed {
		t.Fatalf("flag set on origin bar")
	}
	if !math.IsNaN(res.Records[2].SwingHighPrice) {
		t.Fatalf("price on origin bar = %v, want NaN", res.Records[2].SwingHighPrice)
	}
	if !res.Records[4].SwingHighConfirmed {
		t.Fatalf("flag missing on confirm bar")
	}
	if res.Records[4].SwingHighPrice != 15 {
		t.Fatalf("confirmed price = %v, want 15", res.Records[4].SwingHighPrice)
	}
}

func TestAnnotateReversalFlagsAtFireBar(t *testing.T) {
	bars := []models.Bar{
		mkBar(0, 10, 11.5, 10, 11, 1),
		mkBar(1, 11, 12.5, 11, 12, 1),
		mkBar(2, 12, 13.5, 12, 13, 1),
		mkBar(3, 13, 13.25, 12, 12.5, 1),
		mkBar(4, 12.5, 12.5, 11, 11.5, 1),
		mkBar(5, 11.5, 11.5, 10, 10.5, 1),
		mkBar(6, 10.5, 10.5, 9, 9.5, 1),
	}
	res, err := Annotate(bars, Params{SwingWindow: 2, ConsecutiveRun: 3})
	if err != nil {
		t.Fatalf("annotate: %v", err)
	}
	if !res.Records[2].IsConsecutiveBottom {
		t.Fatalf("consecutive bottom flag missing at run completion bar 2")
	}
	if !res.Records[5].IsConsecutiveTop {
		t.Fatalf("consecutive top flag missing at run completion bar 5")
	}
	if res.Records[3].IsConsecutiveTop {
		t.Fatalf("flag set before the run completes")
	}
}

func TestAnnotateRejectsMalformedInput(t *testing.T) {
	valid := func() []models.Bar {
		return barsFromCloses([]float64{10, 11, 12, 11, 10, 9, 10})
	}

	cases := []struct {
		name   string
		mutate func([]models.Bar) []models.Bar
	}{
		{"empty", func(b []models.Bar) []models.Bar { return nil }},
		{"nan close", func(b []models.Bar) []models.Bar { b[3].Close = math.NaN(); return b }},
		{"nan high", func(b []models.Bar) []models.Bar { b[2].High = math.NaN(); return b }},
		{"high below low", func(b []models.Bar) []models.Bar { b[4].High = b[4].Low - 1; return b }},
		{"duplicate timestamp", func(b []models.Bar) []models.Bar { b[2].Timestamp = b[1].Timestamp; return b }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Annotate(tc.mutate(valid()), Params{SwingWindow: 2})
			if err == nil {
				t.Fatalf("expected error")
			}
			if _, ok := err.(*ValidationError); !ok {
				t.Fatalf("want *ValidationError, got %T: %v", err, err)
			}
		})
	}
}

func TestAnnotateShortSeries(t *testing.T) {
	bars := barsFromCloses([]float64{10, 11, 12})
	_, err := Annotate(bars, Params{SwingWindow: 2})
	if err == nil {
		t.Fatalf("expected error for short series")
	}
	if _, ok := err.(*InsufficientDataError); !ok {
		t.Fatalf("want *InsufficientDataError, got %T", err)
	}
}

func TestAnnotateZeroParamsUseDefaults(t *testing.T) {
	closes := make([]float64, 2*DefaultSwingWindow+5)
	for i := range closes {
		closes[i] = 10 + float64(i%4)
	}
	bars := barsFromCloses(closes)
	res, err := Annotate(bars, Params{})
	if err != nil {
		t.Fatalf("annotate with zero params: %v", err)
	}
	if len(res.Records) != len(bars) {
		t.Fatalf("records = %d, want %d", len(res.Records), len(bars))
	}
}
