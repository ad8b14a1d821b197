package features

import (
	"math"

	"StructScan/internal/domain/models"
)

// DefaultATRPeriod is the rolling window for the average true range.
const DefaultATRPeriod = 5

// WithATR returns a copy of bars with the ATR field filled in: the
// rolling mean of the true range over `period` bars, with a growing
// window at the head so every bar gets a value. The structure core only
// consumes ATR, it never computes it; this is the upstream collaborator.
func WithATR(bars []models.Bar, period int) []models.Bar {
	if period < 1 {
		period = DefaultATRPeriod
	}
	out := make([]models.Bar, len(bars))
	copy(out, bars)

	trs := make([]float64, len(bars))
	for i, b := range bars {
		tr := b.High - b.Low
		if i > 0 {
			prevClose := bars[i-1].Close
			if d := math.Abs(b.High - prevClose); d > tr {
				tr = d
			}
			if d := math.Abs(b.Low - prevClose); d > tr {
				tr = d
			}
		}
		trs[i] = tr
	}

	sum := 0.0
	for i := range trs {
		sum += trs[i]
		n := period
		if i+1 < period {
			n = i + 1
		} else if i >= period {
			sum -= trs[i-period]
		}
		out[i].ATR = sum / float64(n)
	}
	return out
}

// EMA computes the exponential moving average of closes with the usual
// 2/(period+1) smoothing, seeded with the first close.
func EMA(bars []models.Bar, period int) []float64 {
	out := make([]float64, len(bars))
	if len(bars) == 0 {
		return out
	}
	if period < 1 {
		period = 1
	}
	alpha := 2.0 / (float64(period) + 1.0)
	ema := bars[0].Close
	for i, b := range bars {
		if i > 0 {
			ema = alpha*b.Close + (1-alpha)*ema
		}
		out[i] = ema
	}
	return out
}

// LogReturns computes r_t = ln(C_t / C_{t-1}); length is len(bars)-1,
// nil when there is not enough data.
func LogReturns(bars []models.Bar) []float64 {
	if len(bars) < 2 {
		return nil
	}
	out := make([]float64, 0, len(bars)-1)
	for i := 1; i < len(bars); i++ {
		prev, cur := bars[i-1].Close, bars[i].Close
		if prev <= 0 || cur <= 0 {
			out = append(out, 0)
			continue
		}
		out = append(out, math.Log(cur/prev))
	}
	return out
}
