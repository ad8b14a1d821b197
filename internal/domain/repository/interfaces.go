package repository

import (
	"context"
	"time"

	"StructScan/internal/domain/models"
)

// MarketStream is a live bar feed (WebSocket or similar).
type MarketStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan *models.Bar, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// HistorySource serves recent historical bars for the configured
// symbols, used to warm the pipeline before the live stream starts.
type HistorySource interface {
	Backfill(ctx context.Context) ([]*models.Bar, error)
}

// Publisher forwards bars to a message broker.
type Publisher interface {
	Publish(ctx context.Context, b *models.Bar) error
	PublishBatch(ctx context.Context, bars []*models.Bar) error
	Close() error
}

// Storage persists raw incoming bars.
type Storage interface {
	Init(ctx context.Context) error
	Store(ctx context.Context, b *models.Bar) error
	StoreBatch(ctx context.Context, bars []*models.Bar) error
	Health(ctx context.Context) error
	Close() error
}

// BarStore provides read access to stored bar series, always ordered
// ascending by time with Index assigned 0..n-1.
type BarStore interface {
	GetBars(ctx context.Context, symbol string, from, to time.Time, tf Timeframe) ([]models.Bar, error)
	GetLatestNBars(ctx context.Context, symbol string, n int, tf Timeframe) ([]models.Bar, error)
}

// AnnotationStore persists and serves per-bar structure records.
type AnnotationStore interface {
	StoreAnnotations(ctx context.Context, symbol string, tf Timeframe, recs []models.StructureRecord) error
	GetLatestAnnotations(ctx context.Context, symbol string, n int, tf Timeframe) ([]models.StructureRecord, error)
}

// RunRegistry keeps one row per pipeline execution.
type RunRegistry interface {
	RecordRun(ctx context.Context, run *models.AnnotationRun) error
	ListRuns(ctx context.Context, symbol string, limit int) ([]models.AnnotationRun, error)
}

// Metrics abstracts the Prometheus recorder.
type Metrics interface {
	RecordBarStored(backend, symbol string)
	RecordError(kind string)
	RecordLastClose(symbol string, price float64)
	RecordLatency(op string, seconds float64)
	RecordPipelineRun(symbol, bias string, bars, swings, reversals int)
}
