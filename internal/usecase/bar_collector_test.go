package usecase

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"StructScan/internal/domain/models"
	mid "StructScan/internal/middleware"
)

type nopMetrics struct{}

func (nopMetrics) RecordBarStored(string, string)                 {}
func (nopMetrics) RecordError(string)                             {}
func (nopMetrics) RecordLastClose(string, float64)                {}
func (nopMetrics) RecordLatency(string, float64)                  {}
func (nopMetrics) RecordPipelineRun(string, string, int, int, int) {}

// flakyStream fails its first read loop, then serves one bar after a
// successful reconnect.
type flakyStream struct {
	mu         sync.Mutex
	reads      int
	reconnects int
}

func (s *flakyStream) Connect(context.Context) error   { return nil }
func (s *flakyStream) Subscribe(context.Context) error { return nil }
func (s *flakyStream) Close() error                    { return nil }
func (s *flakyStream) IsConnected() bool               { return true }

func (s *flakyStream) Reconnect(context.Context) error {
	s.mu.Lock()
	s.reconnects++
	s.mu.Unlock()
	return nil
}

func (s *flakyStream) Read(context.Context) (<-chan *models.Bar, <-chan error) {
	s.mu.Lock()
	s.reads++
	first := s.reads == 1
	s.mu.Unlock()

	bars := make(chan *models.Bar, 1)
	errs := make(chan error, 1)
	if first {
		// Simulate the read loop dying: error delivered, both closed.
		errs <- fmt.Errorf("connection reset")
		close(bars)
		close(errs)
		return bars, errs
	}
	bars <- &models.Bar{
		Symbol:    "TEST",
		Timestamp: time.Now(),
		Open:      10, High: 11, Low: 9, Close: 10.5,
	}
	return bars, errs
}

type recordingProc struct {
	mu   sync.Mutex
	bars []*models.Bar
}

func (p *recordingProc) Process(_ context.Context, b *models.Bar) error {
	p.mu.Lock()
	p.bars = append(p.bars, b)
	p.mu.Unlock()
	return nil
}

func (p *recordingProc) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.bars)
}

func TestBarCollectorReacquiresChannelsAfterReconnect(t *testing.T) {
	stream := &flakyStream{}
	rec := &recordingProc{}
	pipe := mid.NewRealtimePipeline(rec, nopMetrics{})

	c := NewBarCollector(stream, nil, nopMetrics{}, pipe)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := c.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for rec.count() == 0 {
		if time.Now().After(deadline) {
			stream.mu.Lock()
			t.Fatalf("no bar consumed after reconnect (reads=%d reconnects=%d)",
				stream.reads, stream.reconnects)
		}
		time.Sleep(10 * time.Millisecond)
	}

	stream.mu.Lock()
	defer stream.mu.Unlock()
	if stream.reconnects == 0 {
		t.Fatalf("stream was never reconnected")
	}
	if stream.reads < 2 {
		t.Fatalf("reads = %d, want a fresh Read after reconnect", stream.reads)
	}
}
