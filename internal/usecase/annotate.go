package usecase

import (
	"context"
	"fmt"
	"time"

	"StructScan/internal/domain/models"
	domrepo "StructScan/internal/domain/repository"
	"StructScan/internal/features"
	icache "StructScan/internal/service/cache"
	"StructScan/internal/structure"
	pkgcache "StructScan/pkg/cache"
	applogger "StructScan/pkg/logger"

	"github.com/google/uuid"
)

// runLockTTL bounds how long a crashed run can hold a symbol lock.
const runLockTTL = 5 * time.Minute

// AnnotateUseCase orchestrates one structure-pipeline run per symbol:
// load bars, attach ATR, run the core, persist annotations, register the
// run. Runs for different symbols may proceed in parallel; runs for the
// same symbol/timeframe pair are serialized with a cache lock, since
// the pipeline is strictly order-dependent within one event stream.
// With the Redis-backed cache the lock holds across instances.
type AnnotateUseCase struct {
	bars        domrepo.BarStore
	annotations domrepo.AnnotationStore
	runs        domrepo.RunRegistry
	metrics     domrepo.Metrics
	locks       pkgcache.Service
	readCache   icache.BytesCache
	logger      *applogger.Logger
}

func NewAnnotateUseCase(
	bars domrepo.BarStore,
	annotations domrepo.AnnotationStore,
	runs domrepo.RunRegistry,
	metrics domrepo.Metrics,
	locks pkgcache.Service,
	readCache icache.BytesCache,
	logger *applogger.Logger,
) *AnnotateUseCase {
	return &AnnotateUseCase{
		bars:        bars,
		annotations: annotations,
		runs:        runs,
		metrics:     metrics,
		locks:       locks,
		readCache:   readCache,
		logger:      logger,
	}
}

type AnnotateParams struct {
	Symbol    string
	Timeframe domrepo.Timeframe
	N         int // latest N bars; default 600
	ATRPeriod int
	Structure structure.Params
}

type AnnotateResult struct {
	RunID     string
	Symbol    string
	Bars      int
	Swings    int
	Reversals int
	FinalBias models.Bias
}

func (uc *AnnotateUseCase) Annotate(ctx context.Context, p AnnotateParams) (*AnnotateResult, error) {
	if p.Symbol == "" {
		return nil, fmt.Errorf("symbol required")
	}
	if p.N <= 0 {
		p.N = 600
	}
	if p.ATRPeriod <= 0 {
		p.ATRPeriod = features.DefaultATRPeriod
	}

	lockKey := pkgcache.GenerateKeyWithParams("lock:annotate", p.Symbol, string(p.Timeframe))
	ok, err := uc.locks.TryLock(ctx, lockKey, runLockTTL)
	if err != nil {
		uc.metrics.RecordError("annotate_lock")
		return nil, fmt.Errorf("acquire run lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("annotation run already in progress for %s/%s", p.Symbol, p.Timeframe)
	}
	defer func() { _ = uc.locks.Unlock(context.WithoutCancel(ctx), lockKey) }()

	started := time.Now()
	bars, err := uc.bars.GetLatestNBars(ctx, p.Symbol, p.N, p.Timeframe)
	if err != nil {
		uc.metrics.RecordError("annotate_load")
		return nil, fmt.Errorf("load bars: %w", err)
	}
	bars = features.WithATR(bars, p.ATRPeriod)

	res, err := structure.Annotate(bars, p.Structure)
	if err != nil {
		uc.metrics.RecordError("annotate_pipeline")
		return nil, fmt.Errorf("structure pipeline %s: %w", p.Symbol, err)
	}

	if err := uc.annotations.StoreAnnotations(ctx, p.Symbol, p.Timeframe, res.Records); err != nil {
		uc.metrics.RecordError("annotate_store")
		return nil, fmt.Errorf("store annotations: %w", err)
	}
	uc.invalidateReadCache(p.Symbol, p.Timeframe)

	finalBias := models.BiasNeutral
	if len(res.Records) > 0 {
		finalBias = res.Records[len(res.Records)-1].Bias
	}

	sp := p.Structure
	run := &models.AnnotationRun{
		ID:                  uuid.NewString(),
		Symbol:              p.Symbol,
		Timeframe:           string(p.Timeframe),
		StartedAt:           started,
		FinishedAt:          time.Now(),
		DurationMs:          time.Since(started).Milliseconds(),
		SwingWindow:         sp.SwingWindow,
		PriceTolerancePct:   sp.PriceTolerancePct,
		ClimaxATRMultiplier: sp.ClimaxATRMultiplier,
		ConsecutiveRun:      sp.ConsecutiveRun,
		Bars:                len(bars),
		SwingCount:          len(res.Swings),
		Reversals:           len(res.Reversals),
		FinalBias:           finalBias.String(),
	}
	if err := uc.runs.RecordRun(ctx, run); err != nil {
		// Registry failure must not fail the annotation itself.
		uc.metrics.RecordError("annotate_run_registry")
		uc.logger.Warn("run registry insert failed",
			applogger.String("symbol", p.Symbol), applogger.Error(err))
	}

	uc.metrics.RecordPipelineRun(p.Symbol, finalBias.String(), len(bars), len(res.Swings), len(res.Reversals))
	uc.metrics.RecordLatency("annotate", time.Since(started).Seconds())
	uc.logger.Info("annotation run complete",
		applogger.String("symbol", p.Symbol),
		applogger.String("run_id", run.ID),
		applogger.Int("bars", len(bars)),
		applogger.Int("swings", len(res.Swings)),
		applogger.Int("reversals", len(res.Reversals)),
		applogger.String("bias", finalBias.String()),
	)

	return &AnnotateResult{
		RunID:     run.ID,
		Symbol:    p.Symbol,
		Bars:      len(bars),
		Swings:    len(res.Swings),
		Reversals: len(res.Reversals),
		FinalBias: finalBias,
	}, nil
}

// invalidateReadCache drops the cached API responses for the symbol so
// readers see the new annotations before the TTL would have expired.
func (uc *AnnotateUseCase) invalidateReadCache(symbol string, tf domrepo.Timeframe) {
	if uc.readCache == nil {
		return
	}
	for _, prefix := range []string{
		fmt.Sprintf("struct:%s:%s", symbol, tf),
		fmt.Sprintf("h:structure:%s:%s", symbol, tf),
	} {
		if err := uc.readCache.DeletePrefix(prefix); err != nil {
			uc.logger.Warn("read cache invalidation failed",
				applogger.String("prefix", prefix), applogger.Error(err))
		}
	}
}
