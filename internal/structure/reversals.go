package structure

import (
	"StructScan/internal/domain/models"
)

const (
	// DefaultClimaxATRMultiplier is the body/ATR ratio above which a bar
	// counts as an exhaustion (climax) bar.
	DefaultClimaxATRMultiplier = 2.0
	// DefaultConsecutiveRun is the run length of same-direction bars that
	// confirms a gradual reversal.
	DefaultConsecutiveRun = 3
)

// DetectClimaxReversals finds abrupt one/two-bar reversals: an exhaustion
// bar whose body exceeds atrMultiplier times the rolling ATR, immediately
// followed by an opposite-direction bar that closes through the climax
// bar's open. The event is anchored at the climax bar's extreme and looks
// exactly one bar ahead of it.
//
// Bars without an ATR value (NaN) can never qualify as climax bars; a
// degenerate zero-range bar has zero body and is likewise ignored.
func DetectClimaxReversals(bars []models.Bar, atrMultiplier float64) []models.ReversalEvent {
	var events []models.ReversalEvent
	for i := 1; i < len(bars); i++ {
		prev, cur := bars[i-1], bars[i]

		// body > NaN comparisons are false, which is the safe default.
		isClimax := prev.Body() > prev.ATR*atrMultiplier
		if !isClimax {
			continue
		}
		strongEnough := cur.Body() > prev.Body()*0.5

		if prev.Color() == 1 && cur.Color() == -1 && strongEnough && cur.Close < prev.Open {
			events = append(events, models.ReversalEvent{
				Index:       i,
				Kind:        models.ClimaxTop,
				AnchorPrice: prev.High,
			})
		}
		if prev.Color() == -1 && cur.Color() == 1 && strongEnough && cur.Close > prev.Open {
			events = append(events, models.ReversalEvent{
				Index:       i,
				Kind:        models.ClimaxBottom,
				AnchorPrice: prev.Low,
			})
		}
	}
	return events
}

// DetectConsecutiveReversals finds gradual reversals: a run of runLength
// consecutive same-direction bars. The event fires once, on the bar that
// completes the run, and RunStartIndex anchors it retroactively at the
// first bar of the run (the structurally meaningful pivot). Downstream
// consumers expecting streaming causality must treat the anchor as a
// deferred write.
func DetectConsecutiveReversals(bars []models.Bar, runLength int) []models.ReversalEvent {
	if runLength < 1 {
		return nil
	}
	var events []models.ReversalEvent
	bullStreak, bearStreak := 0, 0
	for i, b := range bars {
		switch b.Color() {
		case 1:
			bullStreak++
			bearStreak = 0
		case -1:
			bearStreak++
			bullStreak = 0
		default:
			bullStreak, bearStreak = 0, 0
		}

		// A bear run confirms a top, a bull run confirms a bottom.
		if bearStreak == runLength {
			start := i - runLength + 1
			events = append(events, models.ReversalEvent{
				Index:         i,
				Kind:          models.ConsecutiveTop,
				AnchorPrice:   bars[start].High,
				RunStartIndex: start,
			})
		}
		if bullStreak == runLength {
			start := i - runLength + 1
			events = append(events, models.ReversalEvent{
				Index:         i,
				Kind:          models.ConsecutiveBottom,
				AnchorPrice:   bars[start].Low,
				RunStartIndex: start,
			})
		}
	}
	return events
}
