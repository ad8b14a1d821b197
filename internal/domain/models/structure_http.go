package models

import "math"

// Requests for structure HTTP endpoints. Defined in domain for consistency and reuse.

type StructureRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required"`
	N      int    `query:"n" json:"n" default:"600" validate:"gte=1,lte=5000"`
	TF     string `query:"tf" json:"tf" default:"1m" validate:"oneof=1s 1m 5m"`
}

type StructureStateRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required"`
	TF     string `query:"tf" json:"tf" default:"1m" validate:"oneof=1s 1m 5m"`
}

type RunsRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required"`
	Limit  int    `query:"limit" json:"limit" default:"20" validate:"gte=1,lte=500"`
}

type BarsRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required"`
	From   int64  `query:"from" json:"from" validate:"gte=0"`
	To     int64  `query:"to" json:"to" validate:"gte=0"`
	TF     string `query:"tf" json:"tf" default:"1m" validate:"oneof=1s 1m 5m"`
	Limit  int    `query:"limit" json:"limit" default:"10000" validate:"gte=1,lte=50000"`
}

// BarDTO is the transport form of a stored bar.
type BarDTO struct {
	Timestamp int64   `json:"t"`
	Open      float64 `json:"o"`
	High      float64 `json:"h"`
	Low       float64 `json:"l"`
	Close     float64 `json:"c"`
	Volume    float64 `json:"v"`
}

// ToDTO converts a Bar into its transport form.
func (b Bar) ToDTO() BarDTO {
	return BarDTO{
		Timestamp: b.Timestamp.Unix(),
		Open:      b.Open,
		High:      b.High,
		Low:       b.Low,
		Close:     b.Close,
		Volume:    b.Volume,
	}
}

// StructureRecordDTO is the transport form of StructureRecord: NaN price
// fields become null so the payload stays valid JSON.
type StructureRecordDTO struct {
	Index     int    `json:"index"`
	Timestamp int64  `json:"t"`
	Label     string `json:"swing_label,omitempty"`

	SwingHighConfirmed bool     `json:"swing_high_confirmed"`
	SwingLowConfirmed  bool     `json:"swing_low_confirmed"`
	SwingHighPrice     *float64 `json:"swing_high_price"`
	SwingLowPrice      *float64 `json:"swing_low_price"`

	MajorHigh *float64 `json:"major_high"`
	MajorLow  *float64 `json:"major_low"`
	Bias      string   `json:"bias"`

	IsClimaxTop         bool `json:"is_climax_top"`
	IsClimaxBottom      bool `json:"is_climax_bottom"`
	IsConsecutiveTop    bool `json:"is_consecutive_top"`
	IsConsecutiveBottom bool `json:"is_consecutive_bottom"`

	AdjustedMajorHigh *float64 `json:"adjusted_major_high"`
	AdjustedMajorLow  *float64 `json:"adjusted_major_low"`
}

// ToDTO converts a StructureRecord into its transport form.
func (r StructureRecord) ToDTO() StructureRecordDTO {
	return StructureRecordDTO{
		Index:               r.Index,
		Timestamp:           r.Timestamp.Unix(),
		Label:               string(r.SwingLabel),
		SwingHighConfirmed:  r.SwingHighConfirmed,
		SwingLowConfirmed:   r.SwingLowConfirmed,
		SwingHighPrice:      finiteOrNil(r.SwingHighPrice),
		SwingLowPrice:       finiteOrNil(r.SwingLowPrice),
		MajorHigh:           finiteOrNil(r.MajorHigh),
		MajorLow:            finiteOrNil(r.MajorLow),
		Bias:                r.Bias.String(),
		IsClimaxTop:         r.IsClimaxTop,
		IsClimaxBottom:      r.IsClimaxBottom,
		IsConsecutiveTop:    r.IsConsecutiveTop,
		IsConsecutiveBottom: r.IsConsecutiveBottom,
		AdjustedMajorHigh:   finiteOrNil(r.AdjustedMajorHigh),
		AdjustedMajorLow:    finiteOrNil(r.AdjustedMajorLow),
	}
}

func finiteOrNil(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
