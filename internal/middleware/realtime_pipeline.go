package middleware

import (
	"context"
	"fmt"
	"sync"
	"time"

	"StructScan/internal/domain/models"
	domrepo "StructScan/internal/domain/repository"
)

// Proc is the minimal processor interface the pipeline needs.
type Proc interface {
	Process(ctx context.Context, b *models.Bar) error
}

// RealtimePipeline sits between the live feed and storage. It validates
// bars, enforces per-symbol time ordering (the structure pipeline
// depends on a strictly ordered series), throttles, and buffers when the
// downstream is unavailable.
type RealtimePipeline struct {
	proc    Proc
	metrics domrepo.Metrics
	maxRPS  int
	bufSize int
	bufCh   chan *models.Bar
	stopCh  chan struct{}
	started bool
	mu      sync.Mutex
	// per-symbol last accepted event time; out-of-order bars are dropped
	lastBarTime map[string]time.Time
	lastSeen    map[string]time.Time
	transform   func(*models.Bar) *models.Bar
}

type PipelineOption func(*RealtimePipeline)

// WithMaxRPS sets the max bars per second per symbol.
func WithMaxRPS(n int) PipelineOption {
	return func(p *RealtimePipeline) {
		if n > 0 {
			p.maxRPS = n
		}
	}
}

// WithBufferSize sets the temporary buffer size when downstream is unavailable.
func WithBufferSize(n int) PipelineOption {
	return func(p *RealtimePipeline) {
		if n > 0 {
			p.bufSize = n
		}
	}
}

// WithTransform sets a transformation hook to modify bar format.
func WithTransform(fn func(*models.Bar) *models.Bar) PipelineOption {
	return func(p *RealtimePipeline) { p.transform = fn }
}

// NewRealtimePipeline creates a new pipeline.
func NewRealtimePipeline(proc Proc, metrics domrepo.Metrics, opts ...PipelineOption) *RealtimePipeline {
	p := &RealtimePipeline{
		proc:        proc,
		metrics:     metrics,
		maxRPS:      20,
		bufSize:     1000,
		bufCh:       make(chan *models.Bar, 1000),
		stopCh:      make(chan struct{}),
		lastBarTime: make(map[string]time.Time),
		lastSeen:    make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.bufSize != cap(p.bufCh) {
		p.bufCh = make(chan *models.Bar, p.bufSize)
	}
	return p
}

// Start launches background flushing of buffered bars.
func (p *RealtimePipeline) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()

	go func() {
		backoff := 50 * time.Millisecond
		for {
			select {
			case <-p.stopCh:
				return
			case b := <-p.bufCh:
				if b == nil {
					continue
				}
				if err := p.proc.Process(ctx, b); err != nil {
					if backoff < 2*time.Second {
						backoff *= 2
					}
					p.metrics.RecordError("pipeline_flush")
					time.Sleep(backoff)
					// requeue if space; drop otherwise
					select {
					case p.bufCh <- b:
					default:
						p.metrics.RecordError("pipeline_buffer_drop")
					}
				} else {
					backoff = 50 * time.Millisecond
				}
			}
		}
	}()
}

// Stop stops the background flushing.
func (p *RealtimePipeline) Stop() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.started = false
	p.mu.Unlock()
	close(p.stopCh)
}

// Process validates, orders, throttles, and forwards a bar downstream,
// buffering on errors.
func (p *RealtimePipeline) Process(ctx context.Context, b *models.Bar) error {
	start := time.Now()
	if err := validateBar(b); err != nil {
		p.metrics.RecordError("pipeline_validate")
		return err
	}
	if p.transform != nil {
		b = p.transform(b)
		if err := validateBar(b); err != nil {
			p.metrics.RecordError("pipeline_transform_invalid")
			return err
		}
	}
	if !p.inOrder(b) {
		p.metrics.RecordError("pipeline_out_of_order")
		return nil
	}
	if !p.allow(b.Symbol, start) {
		// throttled; record and drop silently
		p.metrics.RecordError("pipeline_throttle")
		return nil
	}

	if err := p.proc.Process(ctx, b); err != nil {
		p.metrics.RecordError("pipeline_process")
		// buffer non-blocking
		select {
		case p.bufCh <- b:
		default:
			p.metrics.RecordError("pipeline_buffer_full")
		}
		return fmt.Errorf("pipeline downstream: %w", err)
	}
	p.metrics.RecordLatency("pipeline_process", time.Since(start).Seconds())
	return nil
}

func validateBar(b *models.Bar) error {
	if b == nil {
		return fmt.Errorf("bar nil")
	}
	if b.Symbol == "" {
		return fmt.Errorf("symbol empty")
	}
	if b.Timestamp.IsZero() {
		return fmt.Errorf("timestamp invalid")
	}
	if b.High < b.Low {
		return fmt.Errorf("high below low")
	}
	if b.Open < 0 || b.Close < 0 || b.Volume < 0 {
		return fmt.Errorf("negative price/volume")
	}
	return nil
}

// inOrder drops bars whose event time is not strictly after the last
// accepted bar for the same symbol.
func (p *RealtimePipeline) inOrder(b *models.Bar) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	last, ok := p.lastBarTime[b.Symbol]
	if ok && !b.Timestamp.After(last) {
		return false
	}
	p.lastBarTime[b.Symbol] = b.Timestamp
	return true
}

func (p *RealtimePipeline) allow(symbol string, now time.Time) bool {
	if p.maxRPS <= 0 {
		return true
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	last := p.lastSeen[symbol]
	if last.IsZero() {
		p.lastSeen[symbol] = now
		return true
	}
	if now.Sub(last) < time.Second/time.Duration(p.maxRPS) {
		return false
	}
	p.lastSeen[symbol] = now
	return true
}
