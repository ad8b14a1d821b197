package structure

import (
	"math"
	"testing"

	"StructScan/internal/domain/models"
)

func TestComputeTrendPromotionRequiresBreakout(t *testing.T) {
	// Rising swing lows above the opening-window low, with no breakout
	// above the active high: the major low must not be raised, the newest
	// low stays a candidate.
	highs := []float64{20, 20, 20, 20, 20, 20, 20, 20, 20, 20, 20, 20, 20, 20}
	lows := []float64{8, 8, 12, 12, 9, 12, 13, 10.5, 12, 13, 14, 13, 13, 13}
	bars := barsFromHL(highs, lows)
	for i := range bars {
		bars[i].Close = 15
		bars[i].Open = 15
	}

	events, err := DetectSwings(bars, 2)
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	var lowEvents []models.SwingEvent
	for _, e := range events {
		if e.Kind == models.SwingLow {
			lowEvents = append(lowEvents, e)
		}
	}
	if len(lowEvents) < 2 {
		t.Fatalf("scenario needs >= 2 swing lows, got %d", len(lowEvents))
	}

	trend := ComputeTrend(bars, events, 2, DefaultPriceTolerancePct)
	last := len(bars) - 1
	// Opening-window low is 8; no close ever exceeded the active high 20,
	// so the major low must still be the initial reference.
	if trend.MajorLow[last] != 8 {
		t.Fatalf("major low promoted without breakout: %v", trend.MajorLow[last])
	}
	if trend.Bias[last] != models.BiasNeutral {
		t.Fatalf("bias = %v, want neutral without breakout", trend.Bias[last])
	}
}

func TestComputeTrendBreakoutPromotesCandidate(t *testing.T) {
	// A pullback low forms, then a close breaks the active high: the
	// candidate low must be promoted and bias must flip bull.
	closes := []float64{10, 10, 10, 10, 10, 9, 8, 7, 8, 9, 10, 11, 12, 20, 20, 20}
	bars := barsFromCloses(closes)

	events, err := DetectSwings(bars, 2)
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	hasLow := false
	for _, e := range events {
		if e.Kind == models.SwingLow {
			hasLow = true
		}
	}
	if !hasLow {
		t.Fatalf("scenario needs a swing low")
	}

	trend := ComputeTrend(bars, events, 2, DefaultPriceTolerancePct)
	last := len(bars) - 1
	if trend.Bias[last] != models.BiasBull {
		t.Fatalf("bias = %v, want bull after breakout", trend.Bias[last])
	}
	// The promoted low is the pullback swing low at 6.5 (close 7 - 0.5).
	if trend.MajorLow[last] != 6.5 {
		t.Fatalf("major low = %v, want promoted candidate 6.5", trend.MajorLow[last])
	}
	// Major high re-anchors at the last breaking price (the swing high
	// confirmed on the final bar).
	if trend.MajorHigh[last] != 20.5 {
		t.Fatalf("major high = %v, want 20.5", trend.MajorHigh[last])
	}
}

func TestComputeTrendCloseCrossFlipsBias(t *testing.T) {
	// A close below the active low flips bias bear even with no swing
	// event confirming on that bar.
	closes := []float64{10, 10, 10, 10, 10, 10, 10, 10, 10, 10, 2}
	bars := barsFromCloses(closes)
	events, err := DetectSwings(bars, 2)
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	trend := ComputeTrend(bars, events, 2, DefaultPriceTolerancePct)
	last := len(bars) - 1
	if trend.Bias[last] != models.BiasBear {
		t.Fatalf("bias = %v, want bear after close-cross", trend.Bias[last])
	}
	if trend.MajorLow[last] != 2 {
		t.Fatalf("major low = %v, want re-anchored 2", trend.MajorLow[last])
	}
}

func TestComputeTrendLevelsAlwaysFinite(t *testing.T) {
	closes := []float64{10, 11, 12, 11, 10, 9, 10, 11, 12, 13, 12, 11}
	bars := barsFromCloses(closes)
	events, err := DetectSwings(bars, 2)
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	trend := ComputeTrend(bars, events, 2, DefaultPriceTolerancePct)
	for i := range bars {
		if math.IsNaN(trend.MajorHigh[i]) || math.IsInf(trend.MajorHigh[i], 0) {
			t.Fatalf("major high not finite at %d: %v", i, trend.MajorHigh[i])
		}
		if math.IsNaN(trend.MajorLow[i]) || math.IsInf(trend.MajorLow[i], 0) {
			t.Fatalf("major low not finite at %d: %v", i, trend.MajorLow[i])
		}
	}
}

func TestSummarizeTrendBullSequence(t *testing.T) {
	labels := make([]models.SwingLabel, 10)
	labels[2] = models.LabelHigherHigh
	labels[5] = models.LabelHigherLow
	out := SummarizeTrend(labels, 2)
	if out[4] != models.BiasNeutral {
		t.Fatalf("bias before both kinds seen = %v, want neutral", out[4])
	}
	if out[9] != models.BiasBull {
		t.Fatalf("bias = %v, want bull after HH+HL", out[9])
	}
}

func TestSummarizeTrendBearSequence(t *testing.T) {
	labels := make([]models.SwingLabel, 8)
	labels[1] = models.LabelLowerLow
	labels[4] = models.LabelLowerHigh
	out := SummarizeTrend(labels, 2)
	if out[7] != models.BiasBear {
		t.Fatalf("bias = %v, want bear after LL+LH", out[7])
	}
}

func TestSummarizeTrendMixedIsNeutral(t *testing.T) {
	labels := make([]models.SwingLabel, 6)
	labels[1] = models.LabelHigherHigh
	labels[3] = models.LabelLowerLow
	out := SummarizeTrend(labels, 2)
	if out[5] != models.BiasNeutral {
		t.Fatalf("bias = %v, want neutral for HH+LL", out[5])
	}
}

func TestClassifyDoubleTopWithinTolerance(t *testing.T) {
	if got := classifySwingHigh(100.05, 100.0, 0.001); got != models.LabelDoubleTop {
		t.Fatalf("label = %v, want DT", got)
	}
	if got := classifySwingHigh(101.0, 100.0, 0.001); got != models.LabelHigherHigh {
		t.Fatalf("label = %v, want HH", got)
	}
	if got := classifySwingHigh(99.0, 100.0, 0.001); got != models.LabelLowerHigh {
		t.Fatalf("label = %v, want LH", got)
	}
}

func TestClassifyFirstSwingDefaults(t *testing.T) {
	if got := classifySwingHigh(50, math.Inf(-1), 0.001); got != models.LabelHigherHigh {
		t.Fatalf("first high label = %v, want HH", got)
	}
	if got := classifySwingLow(50, math.Inf(1), 0.001); got != models.LabelLowerLow {
		t.Fatalf("first low label = %v, want LL", got)
	}
}

func TestClassifyDoubleBottom(t *testing.T) {
	if got := classifySwingLow(99.95, 100.0, 0.001); got != models.LabelDoubleBottom {
		t.Fatalf("label = %v, want DB", got)
	}
	if got := classifySwingLow(101.0, 100.0, 0.001); got != models.LabelHigherLow {
		t.Fatalf("label = %v, want HL", got)
	}
}
