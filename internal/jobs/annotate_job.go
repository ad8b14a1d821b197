package jobs

import (
	"context"
	"fmt"

	domrepo "StructScan/internal/domain/repository"
	"StructScan/internal/structure"
	"StructScan/internal/usecase"
	applogger "StructScan/pkg/logger"
	"StructScan/pkg/queue"
)

const AnnotateJobType = "annotate_symbol"

// AnnotatePayload is the queue message for one annotation run.
// Zero-valued tuning fields fall back to pipeline defaults.
type AnnotatePayload struct {
	Symbol              string  `json:"symbol"`
	TF                  string  `json:"tf"`
	N                   int     `json:"n"`
	SwingWindow         int     `json:"swing_window"`
	PriceTolerancePct   float64 `json:"price_tolerance_pct"`
	ClimaxATRMultiplier float64 `json:"climax_atr_multiplier"`
	ConsecutiveRun      int     `json:"consecutive_run"`
}

// AnnotateJob runs the structure pipeline for one symbol off the queue.
type AnnotateJob struct {
	uc     *usecase.AnnotateUseCase
	logger *applogger.Logger
}

func NewAnnotateJob(uc *usecase.AnnotateUseCase, logger *applogger.Logger) *AnnotateJob {
	return &AnnotateJob{uc: uc, logger: logger}
}

func (j *AnnotateJob) Name() string { return "annotate-job" }

func (j *AnnotateJob) Type() string { return AnnotateJobType }

func (j *AnnotateJob) Handle(ctx context.Context, payload interface{}) error {
	p, err := queue.ParsePayload[AnnotatePayload](payload)
	if err != nil {
		return fmt.Errorf("parse annotate payload: %w", err)
	}
	if p.Symbol == "" {
		return fmt.Errorf("annotate payload: symbol required")
	}

	sp := structure.DefaultParams()
	if p.SwingWindow > 0 {
		sp.SwingWindow = p.SwingWindow
	}
	if p.PriceTolerancePct > 0 {
		sp.PriceTolerancePct = p.PriceTolerancePct
	}
	if p.ClimaxATRMultiplier > 0 {
		sp.ClimaxATRMultiplier = p.ClimaxATRMultiplier
	}
	if p.ConsecutiveRun > 0 {
		sp.ConsecutiveRun = p.ConsecutiveRun
	}

	res, err := j.uc.Annotate(ctx, usecase.AnnotateParams{
		Symbol:    p.Symbol,
		Timeframe: domrepo.NormalizeTimeframe(p.TF),
		N:         p.N,
		Structure: sp,
	})
	if err != nil {
		return fmt.Errorf("annotate %s: %w", p.Symbol, err)
	}
	j.logger.Info("annotate job done",
		applogger.String("symbol", p.Symbol),
		applogger.String("run_id", res.RunID),
		applogger.Int("bars", res.Bars),
	)
	return nil
}

var _ queue.Job = (*AnnotateJob)(nil)
