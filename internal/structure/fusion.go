package structure

import (
	"math"

	"StructScan/internal/domain/models"
)

// FusedColumns carries the reaction-adjusted levels produced by merging
// reversal events into the structural level series. The unadjusted
// columns stay available on TrendColumns.
type FusedColumns struct {
	AdjustedMajorHigh []float64
	AdjustedMajorLow  []float64
}

// MergeReversals overrides the structural levels with reversal anchors:
// at a climax/consecutive top whose anchor sits below the active major
// high, the adjusted resistance snaps down to the anchor and persists
// until either price trades through it or a structural level change
// supersedes it. Bottoms are symmetric. When both detectors fire on the
// same bar the tighter anchor wins (lower for tops, higher for bottoms).
func MergeReversals(bars []models.Bar, trend TrendColumns, reversals []models.ReversalEvent) FusedColumns {
	n := len(bars)
	overrideHigh := fillNaN(n)
	overrideLow := fillNaN(n)
	for _, e := range reversals {
		switch e.Kind {
		case models.ClimaxTop, models.ConsecutiveTop:
			if cur := overrideHigh[e.Index]; math.IsNaN(cur) || e.AnchorPrice < cur {
				overrideHigh[e.Index] = e.AnchorPrice
			}
		case models.ClimaxBottom, models.ConsecutiveBottom:
			if cur := overrideLow[e.Index]; math.IsNaN(cur) || e.AnchorPrice > cur {
				overrideLow[e.Index] = e.AnchorPrice
			}
		}
	}

	out := FusedColumns{
		AdjustedMajorHigh: fillNaN(n),
		AdjustedMajorLow:  fillNaN(n),
	}

	curHigh := math.Inf(1) // +Inf means no adjusted resistance in force
	curLow := math.Inf(-1)
	lastStructHigh := math.NaN()
	lastStructLow := math.NaN()

	for i := 0; i < n; i++ {
		// Price trading through the adjusted level invalidates it.
		if bars[i].High > curHigh {
			curHigh = math.Inf(1)
		}
		if structChanged(trend.MajorHigh[i], lastStructHigh) {
			if !math.IsNaN(trend.MajorHigh[i]) {
				curHigh = trend.MajorHigh[i]
			}
			lastStructHigh = trend.MajorHigh[i]
		}
		if ov := overrideHigh[i]; !math.IsNaN(ov) {
			if math.IsInf(curHigh, 1) || ov < curHigh {
				curHigh = ov
			}
		}
		if !math.IsInf(curHigh, 0) {
			out.AdjustedMajorHigh[i] = curHigh
		}

		if bars[i].Low < curLow {
			curLow = math.Inf(-1)
		}
		if structChanged(trend.MajorLow[i], lastStructLow) {
			if !math.IsNaN(trend.MajorLow[i]) {
				curLow = trend.MajorLow[i]
			}
			lastStructLow = trend.MajorLow[i]
		}
		if ov := overrideLow[i]; !math.IsNaN(ov) {
			if math.IsInf(curLow, -1) || ov > curLow {
				curLow = ov
			}
		}
		if !math.IsInf(curLow, 0) {
			out.AdjustedMajorLow[i] = curLow
		}
	}
	return out
}

// structChanged is NaN-aware equality: NaN→NaN is no change, NaN→value
// and value→NaN are changes.
func structChanged(cur, last float64) bool {
	cn, ln := math.IsNaN(cur), math.IsNaN(last)
	if cn && ln {
		return false
	}
	if cn != ln {
		return true
	}
	return cur != last
}

func fillNaN(n int) []float64 {
	s := make([]float64, n)
	for i := range s {
		s[i] = math.NaN()
	}
	return s
}
