package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"StructScan/internal/domain/models"
	domrepo "StructScan/internal/domain/repository"
	icache "StructScan/internal/service/cache"
)

// StructureReader serves annotated series to the API layer, with a
// short-TTL byte cache in front of the annotation store.
type StructureReader struct {
	store domrepo.AnnotationStore
	runs  domrepo.RunRegistry
	cache icache.BytesCache
	ttl   time.Duration
}

func NewStructureReader(store domrepo.AnnotationStore, runs domrepo.RunRegistry, cache icache.BytesCache) *StructureReader {
	return &StructureReader{store: store, runs: runs, cache: cache, ttl: 15 * time.Second}
}

// Latest returns the latest n annotated bars for a symbol, in transport
// form (NaN levels already mapped to null).
func (r *StructureReader) Latest(ctx context.Context, symbol string, n int, tf domrepo.Timeframe) ([]models.StructureRecordDTO, error) {
	if symbol == "" {
		return nil, fmt.Errorf("symbol required")
	}
	if n <= 0 {
		n = 600
	}

	key := fmt.Sprintf("struct:%s:%s:%d", symbol, tf, n)
	if r.cache != nil {
		if b, ok, err := r.cache.GetBytes(key); err == nil && ok {
			var cached []models.StructureRecordDTO
			if err := json.Unmarshal(b, &cached); err == nil {
				return cached, nil
			}
		}
	}

	recs, err := r.store.GetLatestAnnotations(ctx, symbol, n, tf)
	if err != nil {
		return nil, fmt.Errorf("get annotations: %w", err)
	}
	out := make([]models.StructureRecordDTO, len(recs))
	for i, rec := range recs {
		out[i] = rec.ToDTO()
	}

	if r.cache != nil {
		if b, err := json.Marshal(out); err == nil {
			_ = r.cache.SetBytes(key, b, r.ttl)
		}
	}
	return out, nil
}

// State returns the newest structure record for a symbol.
func (r *StructureReader) State(ctx context.Context, symbol string, tf domrepo.Timeframe) (*models.StructureRecordDTO, error) {
	recs, err := r.Latest(ctx, symbol, 1, tf)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, fmt.Errorf("no annotations for %s", symbol)
	}
	dto := recs[len(recs)-1]
	return &dto, nil
}

// Runs lists registry rows for a symbol, newest first.
func (r *StructureReader) Runs(ctx context.Context, symbol string, limit int) ([]models.AnnotationRun, error) {
	if symbol == "" {
		return nil, fmt.Errorf("symbol required")
	}
	if limit <= 0 {
		limit = 20
	}
	runs, err := r.runs.ListRuns(ctx, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}
