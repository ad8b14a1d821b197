package structure

import (
	"sort"

	"StructScan/internal/domain/models"
)

// DefaultSwingWindow is the symmetric confirmation window used when the
// caller does not override it.
const DefaultSwingWindow = 5

// DetectSwings scans the bar series for local extrema under a symmetric
// window of `window` bars on each side and returns lag-confirmed swing
// events, sorted by confirm index (highs before lows on ties, then by
// origin index).
//
// A bar at origin index i is a swing-high candidate iff its high is the
// maximum over [i-window, i+window]. Ties resolve to the earliest index:
// an earlier bar in the left half of the window with an equal high
// disqualifies i, so a flat top is tagged exactly once. The candidate is
// observable only from index i+window on; nothing about it leaks out
// earlier. Swing lows are symmetric on the minimum.
//
// The first and last `window` origins can never form a full window and
// are never candidates.
func DetectSwings(bars []models.Bar, window int) ([]models.SwingEvent, error) {
	if window < 1 {
		return nil, &ValidationError{Index: -1, Field: "window", Reason: "must be >= 1"}
	}
	need := 2*window + 1
	if len(bars) < need {
		return nil, &InsufficientDataError{Length: len(bars), Required: need}
	}

	events := make([]models.SwingEvent, 0, len(bars)/window+1)
	for i := window; i < len(bars)-window; i++ {
		if isSwingHigh(bars, i, window) {
			events = append(events, models.SwingEvent{
				OriginIndex:  i,
				ConfirmIndex: i + window,
				Kind:         models.SwingHigh,
				Price:        bars[i].High,
			})
		}
		if isSwingLow(bars, i, window) {
			events = append(events, models.SwingEvent{
				OriginIndex:  i,
				ConfirmIndex: i + window,
				Kind:         models.SwingLow,
				Price:        bars[i].Low,
			})
		}
	}

	sort.SliceStable(events, func(a, b int) bool {
		ea, eb := events[a], events[b]
		if ea.ConfirmIndex != eb.ConfirmIndex {
			return ea.ConfirmIndex < eb.ConfirmIndex
		}
		if ea.Kind != eb.Kind {
			return ea.Kind == models.SwingHigh
		}
		return ea.OriginIndex < eb.OriginIndex
	})
	return events, nil
}

func isSwingHigh(bars []models.Bar, i, window int) bool {
	h := bars[i].High
	for j := i - window; j < i; j++ {
		if bars[j].High >= h { // earlier equal high wins the tie
			return false
		}
	}
	for j := i + 1; j <= i+window; j++ {
		if bars[j].High > h {
			return false
		}
	}
	return true
}

func isSwingLow(bars []models.Bar, i, window int) bool {
	l := bars[i].Low
	for j := i - window; j < i; j++ {
		if bars[j].Low <= l {
			return false
		}
	}
	for j := i + 1; j <= i+window; j++ {
		if bars[j].Low < l {
			return false
		}
	}
	return true
}
