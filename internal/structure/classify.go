package structure

import (
	"math"

	"StructScan/internal/domain/models"
)

// DefaultPriceTolerancePct is the relative tolerance under which two
// swing prices count as a double top/bottom.
const DefaultPriceTolerancePct = 0.001

type priceRelation int

const (
	relationUnknown priceRelation = iota // no usable previous price
	relationDouble
	relationHigher
	relationLower
)

// comparePrices relates the current swing price to the previous same-kind
// price. A previous price that is non-positive or non-finite yields
// relationUnknown (first event of its kind).
func comparePrices(current, last, tolerancePct float64) priceRelation {
	if last <= 0 || math.IsNaN(last) || math.IsInf(last, 0) {
		return relationUnknown
	}
	diff := math.Abs(current-last) / last
	switch {
	case diff <= tolerancePct:
		return relationDouble
	case current > last:
		return relationHigher
	default:
		return relationLower
	}
}

// classifySwingHigh labels a swing high relative to the previous one.
// The first high of a series is an HH.
func classifySwingHigh(price, lastHigh, tolerancePct float64) models.SwingLabel {
	switch comparePrices(price, lastHigh, tolerancePct) {
	case relationDouble:
		return models.LabelDoubleTop
	case relationLower:
		return models.LabelLowerHigh
	default:
		return models.LabelHigherHigh
	}
}

// classifySwingLow labels a swing low relative to the previous one.
// The first low of a series is an LL.
func classifySwingLow(price, lastLow, tolerancePct float64) models.SwingLabel {
	switch comparePrices(price, lastLow, tolerancePct) {
	case relationDouble:
		return models.LabelDoubleBottom
	case relationHigher:
		return models.LabelHigherLow
	default:
		return models.LabelLowerLow
	}
}
