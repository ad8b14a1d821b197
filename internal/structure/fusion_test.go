package structure

import (
	"math"
	"testing"

	"StructScan/internal/domain/models"
)

func flatTrend(n int, high, low float64) TrendColumns {
	tc := TrendColumns{
		MajorHigh: make([]float64, n),
		MajorLow:  make([]float64, n),
		Bias:      make([]models.Bias, n),
		Labels:    make([]models.SwingLabel, n),
	}
	for i := 0; i < n; i++ {
		tc.MajorHigh[i] = high
		tc.MajorLow[i] = low
	}
	return tc
}

func TestMergeReversalsOverridePersists(t *testing.T) {
	highs := []float64{10, 10, 10, 10, 10, 10}
	lows := []float64{5, 5, 5, 5, 5, 5}
	bars := barsFromHL(highs, lows)
	trend := flatTrend(len(bars), 20, 2)

	revs := []models.ReversalEvent{
		{Index: 2, Kind: models.ClimaxTop, AnchorPrice: 12},
	}
	fused := MergeReversals(bars, trend, revs)

	if fused.AdjustedMajorHigh[1] != 20 {
		t.Fatalf("pre-event adjusted high = %v, want structural 20", fused.AdjustedMajorHigh[1])
	}
	for i := 2; i < len(bars); i++ {
		if fused.AdjustedMajorHigh[i] != 12 {
			t.Fatalf("adjusted high at %d = %v, want 12 (override persists)", i, fused.AdjustedMajorHigh[i])
		}
	}
	// Low side untouched.
	if fused.AdjustedMajorLow[3] != 2 {
		t.Fatalf("adjusted low = %v, want structural 2", fused.AdjustedMajorLow[3])
	}
}

func TestMergeReversalsClearedOnTradeThrough(t *testing.T) {
	highs := []float64{10, 10, 10, 10, 13, 10}
	lows := []float64{5, 5, 5, 5, 5, 5}
	bars := barsFromHL(highs, lows)
	trend := flatTrend(len(bars), 20, 2)

	revs := []models.ReversalEvent{
		{Index: 1, Kind: models.ClimaxTop, AnchorPrice: 12},
	}
	fused := MergeReversals(bars, trend, revs)

	if fused.AdjustedMajorHigh[3] != 12 {
		t.Fatalf("adjusted high before trade-through = %v, want 12", fused.AdjustedMajorHigh[3])
	}
	// Bar 4 trades through 12 (high 13): override invalidated, the
	// structural level does not re-assert itself until it changes.
	if fused.AdjustedMajorHigh[4] == 12 {
		t.Fatalf("override must clear when price trades through the anchor")
	}
	if !math.IsNaN(fused.AdjustedMajorHigh[5]) {
		t.Fatalf("adjusted high after clear = %v, want NaN until structure changes", fused.AdjustedMajorHigh[5])
	}
}

func TestMergeReversalsStructuralChangeSupersedes(t *testing.T) {
	highs := []float64{10, 10, 10, 10, 10, 10}
	lows := []float64{5, 5, 5, 5, 5, 5}
	bars := barsFromHL(highs, lows)
	trend := flatTrend(len(bars), 20, 2)
	// Structure re-anchors at bar 4.
	trend.MajorHigh[4] = 15
	trend.MajorHigh[5] = 15

	revs := []models.ReversalEvent{
		{Index: 1, Kind: models.ClimaxTop, AnchorPrice: 12},
	}
	fused := MergeReversals(bars, trend, revs)

	if fused.AdjustedMajorHigh[3] != 12 {
		t.Fatalf("adjusted high = %v, want 12 before structural change", fused.AdjustedMajorHigh[3])
	}
	if fused.AdjustedMajorHigh[4] != 15 {
		t.Fatalf("adjusted high = %v, want 15 (structural change supersedes)", fused.AdjustedMajorHigh[4])
	}
}

func TestMergeReversalsTighterAnchorWinsOnSameBar(t *testing.T) {
	highs := []float64{10, 10, 10, 10}
	lows := []float64{5, 5, 5, 5}
	bars := barsFromHL(highs, lows)
	trend := flatTrend(len(bars), 20, 2)

	revs := []models.ReversalEvent{
		{Index: 2, Kind: models.ClimaxTop, AnchorPrice: 14},
		{Index: 2, Kind: models.ConsecutiveTop, AnchorPrice: 12, RunStartIndex: 0},
	}
	fused := MergeReversals(bars, trend, revs)
	if fused.AdjustedMajorHigh[2] != 12 {
		t.Fatalf("adjusted high = %v, want the tighter anchor 12", fused.AdjustedMajorHigh[2])
	}
}

func TestMergeReversalsBottomSide(t *testing.T) {
	highs := []float64{10, 10, 10, 10, 10, 10}
	lows := []float64{5, 5, 5, 5, 2.5, 5}
	bars := barsFromHL(highs, lows)
	trend := flatTrend(len(bars), 20, 2)

	revs := []models.ReversalEvent{
		{Index: 1, Kind: models.ClimaxBottom, AnchorPrice: 3},
	}
	fused := MergeReversals(bars, trend, revs)

	if fused.AdjustedMajorLow[1] != 3 {
		t.Fatalf("adjusted low = %v, want 3 (anchor above structural 2)", fused.AdjustedMajorLow[1])
	}
	// Bar 4 trades through 3 (low 2.5): override invalidated.
	if fused.AdjustedMajorLow[4] == 3 {
		t.Fatalf("bottom override must clear on trade-through")
	}
}
