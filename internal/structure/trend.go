package structure

import (
	"math"

	"StructScan/internal/domain/models"
)

// TrendColumns is the per-bar output of the trend state machine: an
// append-only snapshot log of the active major levels and bias after
// every bar.
type TrendColumns struct {
	MajorHigh []float64
	MajorLow  []float64
	Bias      []models.Bias
	// Labels holds the swing classification at each confirm index
	// (empty elsewhere). When a high and a low confirm on the same bar
	// the low's label wins, matching event application order.
	Labels []models.SwingLabel
}

// trendState is the explicit fold state threaded through the event/bar
// stream. Active levels are always finite after initialization from the
// opening window; candidates are NaN until the first swing of their kind.
type trendState struct {
	lastHighPrice float64
	lastLowPrice  float64
	candidateHigh float64
	candidateLow  float64
	activeHigh    float64
	activeLow     float64
	bias          models.Bias
}

// ComputeTrend runs the breakout-confirmation state machine over the bar
// series and its confirmed swing events.
//
// Promotion requires breakout: a swing low never raises the active major
// low by itself, it only becomes the candidate. Only when a later swing
// high (or a bar close) exceeds the active major high is the candidate
// promoted and the major high re-anchored at the breaking price. Bear
// side is symmetric.
//
// Events confirming at bar t are applied before the close-cross check at
// t, so a same-bar breakout uses the just-confirmed swing as its
// pullback candidate. Events must be sorted as DetectSwings returns them.
func ComputeTrend(bars []models.Bar, events []models.SwingEvent, window int, tolerancePct float64) TrendColumns {
	n := len(bars)
	out := TrendColumns{
		MajorHigh: make([]float64, n),
		MajorLow:  make([]float64, n),
		Bias:      make([]models.Bias, n),
		Labels:    make([]models.SwingLabel, n),
	}

	st := trendState{
		lastHighPrice: math.Inf(-1),
		lastLowPrice:  math.Inf(1),
		candidateHigh: math.NaN(),
		candidateLow:  math.NaN(),
		activeHigh:    math.Inf(-1),
		activeLow:     math.Inf(1),
		bias:          models.BiasNeutral,
	}
	// Initial reference levels: the extremes of the opening window.
	for i := 0; i < window && i < n; i++ {
		if bars[i].High > st.activeHigh {
			st.activeHigh = bars[i].High
		}
		if bars[i].Low < st.activeLow {
			st.activeLow = bars[i].Low
		}
	}

	ev := 0
	for i := 0; i < n; i++ {
		for ev < len(events) && events[ev].ConfirmIndex == i {
			st.applySwing(events[ev], tolerancePct, &out)
			ev++
		}
		st.applyClose(bars[i].Close)

		out.MajorHigh[i] = st.activeHigh
		out.MajorLow[i] = st.activeLow
		out.Bias[i] = st.bias
	}
	return out
}

func (st *trendState) applySwing(e models.SwingEvent, tolerancePct float64, out *TrendColumns) {
	if e.Kind == models.SwingHigh {
		label := classifySwingHigh(e.Price, st.lastHighPrice, tolerancePct)
		st.lastHighPrice = e.Price
		st.candidateHigh = e.Price
		out.Labels[e.ConfirmIndex] = label
		if e.Price > st.activeHigh {
			st.breakoutUp(e.Price)
		}
		return
	}
	label := classifySwingLow(e.Price, st.lastLowPrice, tolerancePct)
	st.lastLowPrice = e.Price
	st.candidateLow = e.Price
	out.Labels[e.ConfirmIndex] = label
	if e.Price < st.activeLow {
		st.breakoutDown(e.Price)
	}
}

// applyClose is the bar-by-bar variant: a close crossing the active level
// triggers the same promotion/flip logic immediately instead of waiting
// for the next confirmed swing.
func (st *trendState) applyClose(close float64) {
	if close > st.activeHigh {
		st.breakoutUp(close)
	} else if close < st.activeLow {
		st.breakoutDown(close)
	}
}

// breakoutUp promotes the pullback-low candidate and re-anchors the
// major high at the breaking price.
func (st *trendState) breakoutUp(price float64) {
	if !math.IsNaN(st.candidateLow) {
		if st.bias != models.BiasBull || st.candidateLow > st.activeLow {
			st.activeLow = st.candidateLow
		}
	}
	st.activeHigh = price
	st.bias = models.BiasBull
}

func (st *trendState) breakoutDown(price float64) {
	if !math.IsNaN(st.candidateHigh) {
		if st.bias != models.BiasBear || st.candidateHigh < st.activeHigh {
			st.activeHigh = st.candidateHigh
		}
	}
	st.activeLow = price
	st.bias = models.BiasBear
}

// SummarizeTrend derives a label-sequence trend column: bull when the
// most recent high label is HH and the most recent low label is HL, bear
// when they are LH and LL, neutral otherwise. lookback is the minimum
// number of swing labels required before the summary activates.
func SummarizeTrend(labels []models.SwingLabel, lookback int) []models.Bias {
	if lookback < 1 {
		lookback = 1
	}
	out := make([]models.Bias, len(labels))
	recent := make([]models.SwingLabel, 0, 2*lookback)
	cur := models.BiasNeutral

	for i, l := range labels {
		if l != models.LabelNone {
			recent = append(recent, l)
			if len(recent) > 2*lookback {
				recent = recent[1:]
			}
		}
		if len(recent) >= lookback {
			lastHigh, lastLow := lastByKind(recent)
			if lastHigh != models.LabelNone && lastLow != models.LabelNone {
				switch {
				case lastHigh == models.LabelHigherHigh && lastLow == models.LabelHigherLow:
					cur = models.BiasBull
				case lastHigh == models.LabelLowerHigh && lastLow == models.LabelLowerLow:
					cur = models.BiasBear
				default:
					cur = models.BiasNeutral
				}
			}
		}
		out[i] = cur
	}
	return out
}

func lastByKind(labels []models.SwingLabel) (high, low models.SwingLabel) {
	for _, l := range labels {
		switch l {
		case models.LabelHigherHigh, models.LabelLowerHigh, models.LabelDoubleTop:
			high = l
		case models.LabelHigherLow, models.LabelLowerLow, models.LabelDoubleBottom:
			low = l
		}
	}
	return high, low
}
