package usecase

import (
	"context"

	"StructScan/internal/domain/models"
	drepo "StructScan/internal/domain/repository"
	mid "StructScan/internal/middleware"
)

// BarCollector collects bars from the market stream and processes them.
type BarCollector struct {
	stream  drepo.MarketStream
	proc    *BarProcessor
	metrics drepo.Metrics
	pipe    *mid.RealtimePipeline
}

// NewBarCollector creates a new BarCollector instance.
func NewBarCollector(stream drepo.MarketStream, proc *BarProcessor, metrics drepo.Metrics, pipe *mid.RealtimePipeline) *BarCollector {
	return &BarCollector{stream: stream, proc: proc, metrics: metrics, pipe: pipe}
}

// IsConnected returns true if the market stream is connected.
func (c *BarCollector) IsConnected() bool {
	return c.stream.IsConnected()
}

func (c *BarCollector) Start(ctx context.Context) error {
	if err := c.stream.Connect(ctx); err != nil {
		return err
	}
	c.backfill(ctx)
	if err := c.stream.Subscribe(ctx); err != nil {
		return err
	}
	if c.pipe != nil {
		c.pipe.Start(ctx)
	}
	barCh, errCh := c.stream.Read(ctx)
	go c.consume(ctx, barCh, errCh)
	return nil
}

// backfill warms the store with recent history before live bars
// arrive. Historical bars bypass the realtime pipeline: they are
// already ordered and must not be rate limited.
func (c *BarCollector) backfill(ctx context.Context) {
	hs, ok := c.stream.(drepo.HistorySource)
	if !ok {
		return
	}
	bars, err := hs.Backfill(ctx)
	if err != nil {
		c.metrics.RecordError("backfill")
		return
	}
	for _, b := range bars {
		if err := c.proc.Process(ctx, b); err != nil {
			c.metrics.RecordError("backfill_process")
		}
	}
}

func (c *BarCollector) consume(ctx context.Context, barCh <-chan *models.Bar, errCh <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-errCh:
			if !ok || err != nil {
				c.metrics.RecordError("stream")
				if rerr := c.stream.Reconnect(ctx); rerr != nil {
					continue
				}
				// The failed read loop closed both channels; a fresh
				// Read is required or the select spins on them forever.
				barCh, errCh = c.stream.Read(ctx)
			}
		case b, ok := <-barCh:
			if !ok || b == nil {
				continue
			}
			if c.pipe != nil {
				_ = c.pipe.Process(ctx, b)
			} else {
				_ = c.proc.Process(ctx, b)
			}
			c.metrics.RecordLastClose(b.Symbol, b.Close)
		}
	}
}

func (c *BarCollector) Stop() error { return c.stream.Close() }

// Processor returns the underlying BarProcessor for lifecycle management.
func (c *BarCollector) Processor() *BarProcessor { return c.proc }

// Shutdown stops pipeline and closes stream.
func (c *BarCollector) Shutdown(ctx context.Context) error {
	if c.pipe != nil {
		c.pipe.Stop()
	}
	return c.stream.Close()
}
