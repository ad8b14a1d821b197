package structure

import (
	"testing"
	"time"

	"StructScan/internal/domain/models"
)

func barsFromHL(highs, lows []float64) []models.Bar {
	if len(highs) != len(lows) {
		panic("highs/lows length mismatch")
	}
	base := time.Date(2024, 10, 10, 0, 0, 0, 0, time.UTC)
	out := make([]models.Bar, len(highs))
	for i := range highs {
		mid := (highs[i] + lows[i]) / 2
		out[i] = models.Bar{
			Index:     i,
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			Symbol:    "TEST",
			Open:      mid,
			High:      highs[i],
			Low:       lows[i],
			Close:     mid,
		}
	}
	return out
}

func barsFromCloses(closes []float64) []models.Bar {
	highs := make([]float64, len(closes))
	lows := make([]float64, len(closes))
	for i, c := range closes {
		highs[i] = c + 0.5
		lows[i] = c - 0.5
	}
	bars := barsFromHL(highs, lows)
	for i, c := range closes {
		bars[i].Close = c
		bars[i].Open = c
	}
	return bars
}

func TestDetectSwingsBasicHigh(t *testing.T) {
	highs := []float64{10, 11, 15, 12, 11, 9, 8}
	lows := []float64{9, 10, 14, 11, 10, 8, 7}
	events, err := DetectSwings(barsFromHL(highs, lows), 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var found *models.SwingEvent
	for i := range events {
		if events[i].Kind == models.SwingHigh {
			found = &events[i]
			break
		}
	}
	if found == nil {
		t.Fatalf("expected a swing high, got %v", events)
	}
	if found.OriginIndex != 2 {
		t.Fatalf("origin = %d, want 2", found.OriginIndex)
	}
	if found.ConfirmIndex != 4 {
		t.Fatalf("confirm = %d, want 4", found.ConfirmIndex)
	}
	if found.Price != 15 {
		t.Fatalf("price = %v, want 15", found.Price)
	}
}

func TestDetectSwingsNoLookahead(t *testing.T) {
	// Same prefix, different futures: events confirmed within the shared
	// prefix must be identical.
	prefix := []float64{10, 12, 15, 13, 11, 10, 9, 8}
	upTail := []float64{20, 25, 30}
	downTail := []float64{7, 6, 5}

	a := barsFromHL(append(append([]float64{}, prefix...), upTail...),
		lowered(append(append([]float64{}, prefix...), upTail...)))
	b := barsFromHL(append(append([]float64{}, prefix...), downTail...),
		lowered(append(append([]float64{}, prefix...), downTail...)))

	evA, err := DetectSwings(a, 2)
	if err != nil {
		t.Fatalf("a: %v", err)
	}
	evB, err := DetectSwings(b, 2)
	if err != nil {
		t.Fatalf("b: %v", err)
	}

	cut := len(prefix) - 1
	fa := filterConfirmedBy(evA, cut)
	fb := filterConfirmedBy(evB, cut)
	if len(fa) != len(fb) {
		t.Fatalf("prefix events diverge: %d vs %d", len(fa), len(fb))
	}
	for i := range fa {
		if fa[i] != fb[i] {
			t.Fatalf("event %d diverges: %+v vs %+v", i, fa[i], fb[i])
		}
	}
}

func lowered(highs []float64) []float64 {
	out := make([]float64, len(highs))
	for i, h := range highs {
		out[i] = h - 1
	}
	return out
}

func filterConfirmedBy(events []models.SwingEvent, idx int) []models.SwingEvent {
	var out []models.SwingEvent
	for _, e := range events {
		if e.ConfirmIndex <= idx {
			out = append(out, e)
		}
	}
	return out
}

func TestDetectSwingsFlatTopOnce(t *testing.T) {
	// Two equal highs inside one window: only the earlier is tagged.
	highs := []float64{10, 11, 15, 15, 11, 10, 9}
	lows := lowered(highs)
	events, err := DetectSwings(barsFromHL(highs, lows), 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	count := 0
	origin := -1
	for _, e := range events {
		if e.Kind == models.SwingHigh && e.Price == 15 {
			count++
			origin = e.OriginIndex
		}
	}
	if count != 1 {
		t.Fatalf("flat top tagged %d times, want 1", count)
	}
	if origin != 2 {
		t.Fatalf("flat top origin = %d, want 2 (earliest)", origin)
	}
}

func TestDetectSwingsInsufficientData(t *testing.T) {
	bars := barsFromHL([]float64{1, 2, 3}, []float64{0, 1, 2})
	_, err := DetectSwings(bars, 2)
	if err == nil {
		t.Fatalf("expected error for short series")
	}
	if _, ok := err.(*InsufficientDataError); !ok {
		t.Fatalf("want *InsufficientDataError, got %T", err)
	}
}

func TestDetectSwingsSortedByConfirm(t *testing.T) {
	highs := []float64{10, 14, 9, 13, 8, 12, 7, 11, 6, 10, 5}
	events, err := DetectSwings(barsFromHL(highs, lowered(highs)), 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 1; i < len(events); i++ {
		if events[i].ConfirmIndex < events[i-1].ConfirmIndex {
			t.Fatalf("events not sorted by confirm index: %v", events)
		}
		if events[i].ConfirmIndex == events[i-1].ConfirmIndex &&
			events[i-1].Kind == models.SwingLow && events[i].Kind == models.SwingHigh {
			t.Fatalf("high must sort before low on tie: %v", events)
		}
	}
}
