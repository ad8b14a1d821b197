package models

import "time"

// SwingKind distinguishes swing highs from swing lows.
type SwingKind int

const (
	SwingHigh SwingKind = iota
	SwingLow
)

func (k SwingKind) String() string {
	if k == SwingHigh {
		return "high"
	}
	return "low"
}

// SwingEvent is a lag-confirmed local extremum. The extremum physically
// occurred at OriginIndex; it becomes observable to downstream consumers
// only at ConfirmIndex = OriginIndex + window.
type SwingEvent struct {
	OriginIndex  int
	ConfirmIndex int
	Kind         SwingKind
	Price        float64
}

// SwingLabel classifies a confirmed swing relative to the previous
// same-kind swing.
type SwingLabel string

const (
	LabelNone         SwingLabel = ""
	LabelHigherHigh   SwingLabel = "HH"
	LabelLowerHigh    SwingLabel = "LH"
	LabelDoubleTop    SwingLabel = "DT"
	LabelHigherLow    SwingLabel = "HL"
	LabelLowerLow     SwingLabel = "LL"
	LabelDoubleBottom SwingLabel = "DB"
)

// Bias is the prevailing structural direction.
type Bias int

const (
	BiasNeutral Bias = 0
	BiasBull    Bias = 1
	BiasBear    Bias = -1
)

func (b Bias) String() string {
	switch b {
	case BiasBull:
		return "bull"
	case BiasBear:
		return "bear"
	default:
		return "neutral"
	}
}

// ReversalKind identifies which detector produced a reversal event.
type ReversalKind int

const (
	ClimaxTop ReversalKind = iota
	ClimaxBottom
	ConsecutiveTop
	ConsecutiveBottom
)

func (k ReversalKind) String() string {
	switch k {
	case ClimaxTop:
		return "climax_top"
	case ClimaxBottom:
		return "climax_bottom"
	case ConsecutiveTop:
		return "consecutive_top"
	default:
		return "consecutive_bottom"
	}
}

// ReversalEvent is produced by the climax or consecutive detector,
// independently of swing confirmation. RunStartIndex is set only for
// consecutive reversals and points at the first bar of the run the
// event was retroactively anchored to.
type ReversalEvent struct {
	Index         int
	Kind          ReversalKind
	AnchorPrice   float64
	RunStartIndex int
}

// StructureRecord is the fused per-bar annotation: the slow structural
// view (major levels, bias) plus the reversal flags and the
// reaction-adjusted levels. Price fields are NaN where undefined.
type StructureRecord struct {
	Index     int
	Timestamp time.Time

	SwingHighConfirmed bool
	SwingLowConfirmed  bool
	SwingHighPrice     float64
	SwingLowPrice      float64
	SwingLabel         SwingLabel

	MajorHigh float64
	MajorLow  float64
	Bias      Bias

	IsClimaxTop         bool
	IsClimaxBottom      bool
	IsConsecutiveTop    bool
	IsConsecutiveBottom bool

	AdjustedMajorHigh float64
	AdjustedMajorLow  float64

	// LabelTrend is the label-sequence trend summary (recent HH+HL vs
	// LL+LH), a convenience column alongside the breakout-confirmed Bias.
	LabelTrend Bias
}
