package structure

import (
	"math"
	"testing"
	"time"

	"StructScan/internal/domain/models"
)

func mkBar(i int, o, h, l, c, atr float64) models.Bar {
	return models.Bar{
		Index:     i,
		Timestamp: time.Date(2024, 10, 10, 0, 0, 0, 0, time.UTC).Add(time.Duration(i) * time.Minute),
		Symbol:    "TEST",
		Open:      o,
		High:      h,
		Low:       l,
		Close:     c,
		ATR:       atr,
	}
}

func TestDetectClimaxTop(t *testing.T) {
	// Bar 1: bull exhaustion with body 6 vs ATR 1 (6x). Bar 2: bear bar
	// with body > half the climax body, closing below the climax open.
	bars := []models.Bar{
		mkBar(0, 10, 10.5, 9.5, 10, 1),
		mkBar(1, 10, 16.5, 10, 16, 1),
		mkBar(2, 16, 16, 9, 9.5, 1),
	}
	events := DetectClimaxReversals(bars, 2.0)
	if len(events) != 1 {
		t.Fatalf("events = %d, want 1", len(events))
	}
	e := events[0]
	if e.Kind != models.ClimaxTop {
		t.Fatalf("kind = %v, want climax top", e.Kind)
	}
	if e.Index != 2 {
		t.Fatalf("index = %d, want 2 (the confirming bar)", e.Index)
	}
	if e.AnchorPrice != 16.5 {
		t.Fatalf("anchor = %v, want climax bar high 16.5", e.AnchorPrice)
	}
}

func TestDetectClimaxBottom(t *testing.T) {
	bars := []models.Bar{
		mkBar(0, 10, 10.5, 9.5, 10, 1),
		mkBar(1, 10, 10, 3.5, 4, 1),
		mkBar(2, 4, 11, 4, 10.5, 1),
	}
	events := DetectClimaxReversals(bars, 2.0)
	if len(events) != 1 {
		t.Fatalf("events = %d, want 1", len(events))
	}
	e := events[0]
	if e.Kind != models.ClimaxBottom {
		t.Fatalf("kind = %v, want climax bottom", e.Kind)
	}
	if e.AnchorPrice != 3.5 {
		t.Fatalf("anchor = %v, want climax bar low 3.5", e.AnchorPrice)
	}
}

func TestDetectClimaxWeakFollowThroughIgnored(t *testing.T) {
	// Opposite bar closes below the climax open but its body is under
	// half the climax body: no event.
	bars := []models.Bar{
		mkBar(0, 10, 16.5, 10, 16, 1),
		mkBar(1, 10.1, 10.2, 9.5, 9.9, 1),
	}
	events := DetectClimaxReversals(bars, 2.0)
	if len(events) != 0 {
		t.Fatalf("events = %v, want none for weak follow-through", events)
	}
}

func TestDetectClimaxNaNATRIgnored(t *testing.T) {
	bars := []models.Bar{
		mkBar(0, 10, 16.5, 10, 16, math.NaN()),
		mkBar(1, 16, 16, 9, 9.5, math.NaN()),
	}
	if events := DetectClimaxReversals(bars, 2.0); len(events) != 0 {
		t.Fatalf("NaN ATR must never qualify, got %v", events)
	}
}

func TestDetectClimaxZeroRangeBarIgnored(t *testing.T) {
	bars := []models.Bar{
		mkBar(0, 10, 10, 10, 10, 1),
		mkBar(1, 10, 10, 5, 5, 1),
	}
	if events := DetectClimaxReversals(bars, 2.0); len(events) != 0 {
		t.Fatalf("zero-body bar must never qualify as climax, got %v", events)
	}
}

func TestDetectConsecutiveTopAnchorsRunStart(t *testing.T) {
	// Three bull bars then four bear bars: one consecutive bottom never
	// fires (run of 3 bulls completes at index 2), and the bear run of 3
	// completes at index 5, anchored at the first bear bar's high.
	bars := []models.Bar{
		mkBar(0, 10, 11.5, 10, 11, 1),
		mkBar(1, 11, 12.5, 11, 12, 1),
		mkBar(2, 12, 13.5, 12, 13, 1),
		mkBar(3, 13, 13.25, 12, 12.5, 1), // first bear bar
		mkBar(4, 12.5, 12.5, 11, 11.5, 1),
		mkBar(5, 11.5, 11.5, 10, 10.5, 1),
		mkBar(6, 10.5, 10.5, 9, 9.5, 1),
	}
	events := DetectConsecutiveReversals(bars, 3)

	var tops, bottoms []models.ReversalEvent
	for _, e := range events {
		switch e.Kind {
		case models.ConsecutiveTop:
			tops = append(tops, e)
		case models.ConsecutiveBottom:
			bottoms = append(bottoms, e)
		}
	}
	if len(bottoms) != 1 {
		t.Fatalf("bottoms = %d, want 1 (bull run 0..2)", len(bottoms))
	}
	if bottoms[0].Index != 2 || bottoms[0].RunStartIndex != 0 {
		t.Fatalf("bottom fired at %d anchored %d, want 2/0", bottoms[0].Index, bottoms[0].RunStartIndex)
	}
	if bottoms[0].AnchorPrice != 10 {
		t.Fatalf("bottom anchor = %v, want first run bar low 10", bottoms[0].AnchorPrice)
	}

	if len(tops) != 1 {
		t.Fatalf("tops = %d, want exactly 1 (run fires once)", len(tops))
	}
	e := tops[0]
	if e.Index != 5 {
		t.Fatalf("top index = %d, want 5 (run completion)", e.Index)
	}
	if e.RunStartIndex != 3 {
		t.Fatalf("run start = %d, want 3", e.RunStartIndex)
	}
	if e.AnchorPrice != 13.25 {
		t.Fatalf("anchor = %v, want first run bar high 13.25", e.AnchorPrice)
	}
}

func TestDetectConsecutiveFlatBarResetsStreak(t *testing.T) {
	bars := []models.Bar{
		mkBar(0, 10, 10, 9, 9.5, 1),
		mkBar(1, 9.5, 9.5, 9, 9.2, 1),
		mkBar(2, 9.2, 9.3, 9.1, 9.2, 1), // flat bar resets
		mkBar(3, 9.2, 9.2, 9, 9.1, 1),
		mkBar(4, 9.1, 9.1, 8.9, 9, 1),
	}
	events := DetectConsecutiveReversals(bars, 3)
	if len(events) != 0 {
		t.Fatalf("flat bar must reset the streak, got %v", events)
	}
}
