package features

import (
	"math"
	"testing"
	"time"

	"StructScan/internal/domain/models"
)

func fbar(i int, h, l, c float64) models.Bar {
	return models.Bar{
		Index:     i,
		Timestamp: time.Date(2024, 10, 10, 0, 0, 0, 0, time.UTC).Add(time.Duration(i) * time.Minute),
		Symbol:    "TEST",
		Open:      c,
		High:      h,
		Low:       l,
		Close:     c,
	}
}

func almostEq(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestWithATRGrowingHead(t *testing.T) {
	bars := []models.Bar{
		fbar(0, 12, 10, 11), // tr 2
		fbar(1, 13, 11, 12), // tr 2
		fbar(2, 16, 12, 15), // tr 4 (range dominates)
		fbar(3, 15, 14, 14), // tr 1 (gap vs prev close 15)
		fbar(4, 14, 13, 13), // tr 1
	}
	out := WithATR(bars, 3)

	want := []float64{2, 2, 8.0 / 3, 7.0 / 3, 2}
	for i := range want {
		if !almostEq(out[i].ATR, want[i]) {
			t.Fatalf("ATR[%d] = %v, want %v", i, out[i].ATR, want[i])
		}
	}
}

func TestWithATRDoesNotMutateInput(t *testing.T) {
	bars := []models.Bar{fbar(0, 12, 10, 11), fbar(1, 13, 11, 12)}
	_ = WithATR(bars, 2)
	if bars[0].ATR != 0 || bars[1].ATR != 0 {
		t.Fatalf("input slice mutated: %v %v", bars[0].ATR, bars[1].ATR)
	}
}

func TestWithATRGapTrueRange(t *testing.T) {
	// A gap up makes |high - prevClose| the dominant true range term.
	bars := []models.Bar{
		fbar(0, 11, 10, 10),
		fbar(1, 20, 19, 19),
	}
	out := WithATR(bars, 1)
	if !almostEq(out[1].ATR, 10) {
		t.Fatalf("ATR[1] = %v, want gap range 10", out[1].ATR)
	}
}

func TestEMASeededWithFirstClose(t *testing.T) {
	bars := []models.Bar{fbar(0, 11, 9, 10), fbar(1, 13, 11, 12), fbar(2, 15, 13, 14)}
	out := EMA(bars, 3) // alpha = 0.5
	want := []float64{10, 11, 12.5}
	for i := range want {
		if !almostEq(out[i], want[i]) {
			t.Fatalf("EMA[%d] = %v, want %v", i, out[i], want[i])
		}
	}
}

func TestLogReturns(t *testing.T) {
	bars := []models.Bar{fbar(0, 11, 9, 10), fbar(1, 21, 19, 20), fbar(2, 11, 9, 10)}
	out := LogReturns(bars)
	if len(out) != 2 {
		t.Fatalf("len = %d, want 2", len(out))
	}
	if !almostEq(out[0], math.Log(2)) || !almostEq(out[1], -math.Log(2)) {
		t.Fatalf("returns = %v", out)
	}
	if LogReturns(bars[:1]) != nil {
		t.Fatalf("single bar must yield nil")
	}
}
