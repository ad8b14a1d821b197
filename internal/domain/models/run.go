package models

import "time"

// AnnotationRun is one registry row per structure-pipeline execution.
type AnnotationRun struct {
	ID         string    `db:"id"`
	Symbol     string    `db:"symbol"`
	Timeframe  string    `db:"timeframe"`
	StartedAt  time.Time `db:"started_at"`
	FinishedAt time.Time `db:"finished_at"`
	DurationMs int64     `db:"duration_ms"`

	SwingWindow         int     `db:"swing_window"`
	PriceTolerancePct   float64 `db:"price_tolerance_pct"`
	ClimaxATRMultiplier float64 `db:"climax_atr_multiplier"`
	ConsecutiveRun      int     `db:"consecutive_run"`

	Bars       int    `db:"bars"`
	SwingCount int    `db:"swing_count"`
	Reversals  int    `db:"reversals"`
	FinalBias  string `db:"final_bias"`
}
