package usecase

import (
	"context"
	"testing"
	"time"

	"StructScan/internal/domain/models"
	domrepo "StructScan/internal/domain/repository"
	icache "StructScan/internal/service/cache"
	"StructScan/internal/structure"
	pkgcache "StructScan/pkg/cache"
	applogger "StructScan/pkg/logger"
)

type fakeBarStore struct {
	bars []models.Bar
}

func (s *fakeBarStore) GetBars(_ context.Context, _ string, _, _ time.Time, _ domrepo.Timeframe) ([]models.Bar, error) {
	return s.bars, nil
}

func (s *fakeBarStore) GetLatestNBars(_ context.Context, _ string, _ int, _ domrepo.Timeframe) ([]models.Bar, error) {
	return s.bars, nil
}

type fakeAnnStore struct {
	stored int
}

func (s *fakeAnnStore) StoreAnnotations(_ context.Context, _ string, _ domrepo.Timeframe, recs []models.StructureRecord) error {
	s.stored += len(recs)
	return nil
}

func (s *fakeAnnStore) GetLatestAnnotations(context.Context, string, int, domrepo.Timeframe) ([]models.StructureRecord, error) {
	return nil, nil
}

type fakeRunRegistry struct {
	runs []*models.AnnotationRun
}

func (r *fakeRunRegistry) RecordRun(_ context.Context, run *models.AnnotationRun) error {
	r.runs = append(r.runs, run)
	return nil
}

func (r *fakeRunRegistry) ListRuns(context.Context, string, int) ([]models.AnnotationRun, error) {
	return nil, nil
}

func testBars(n int) []models.Bar {
	base := time.Date(2024, 10, 10, 0, 0, 0, 0, time.UTC)
	bars := make([]models.Bar, n)
	for i := range bars {
		c := 10 + float64(i%5)
		bars[i] = models.Bar{
			Index:     i,
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			Symbol:    "TEST",
			Open:      c,
			High:      c + 0.5,
			Low:       c - 0.5,
			Close:     c,
			Volume:    1,
		}
	}
	return bars
}

func testLogger(t *testing.T) *applogger.Logger {
	l, err := applogger.New(&applogger.Config{Level: "error", Format: "console", Output: "stdout"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return l
}

func TestAnnotateInvalidatesReadCache(t *testing.T) {
	readCache := icache.NewTTLCache()
	_ = readCache.SetBytes("struct:TEST:1m:600", []byte("stale"), time.Minute)
	_ = readCache.SetBytes("h:structure:TEST:1m:600", []byte("stale"), time.Minute)
	_ = readCache.SetBytes("struct:OTHER:1m:600", []byte("fresh"), time.Minute)

	ann := &fakeAnnStore{}
	uc := NewAnnotateUseCase(
		&fakeBarStore{bars: testBars(12)},
		ann,
		&fakeRunRegistry{},
		nopMetrics{},
		pkgcache.NewMemoryCache(),
		readCache,
		testLogger(t),
	)

	_, err := uc.Annotate(context.Background(), AnnotateParams{
		Symbol:    "TEST",
		Timeframe: domrepo.TF1m,
		Structure: structure.Params{SwingWindow: 2},
	})
	if err != nil {
		t.Fatalf("annotate: %v", err)
	}
	if ann.stored == 0 {
		t.Fatalf("no annotations stored")
	}

	if _, ok, _ := readCache.GetBytes("struct:TEST:1m:600"); ok {
		t.Fatalf("stale series response survived the run")
	}
	if _, ok, _ := readCache.GetBytes("h:structure:TEST:1m:600"); ok {
		t.Fatalf("stale legacy response survived the run")
	}
	if _, ok, _ := readCache.GetBytes("struct:OTHER:1m:600"); !ok {
		t.Fatalf("unrelated symbol was evicted")
	}
}

func TestAnnotateSingleFlightPerSymbol(t *testing.T) {
	locks := pkgcache.NewMemoryCache()
	uc := NewAnnotateUseCase(
		&fakeBarStore{bars: testBars(12)},
		&fakeAnnStore{},
		&fakeRunRegistry{},
		nopMetrics{},
		locks,
		icache.NewTTLCache(),
		testLogger(t),
	)
	p := AnnotateParams{
		Symbol:    "TEST",
		Timeframe: domrepo.TF1m,
		Structure: structure.Params{SwingWindow: 2},
	}
	ctx := context.Background()

	// A held lock rejects the run.
	key := pkgcache.GenerateKeyWithParams("lock:annotate", "TEST", "1m")
	if ok, _ := locks.TryLock(ctx, key, time.Minute); !ok {
		t.Fatalf("could not pre-acquire lock")
	}
	if _, err := uc.Annotate(ctx, p); err == nil {
		t.Fatalf("expected rejection while lock is held")
	}
	_ = locks.Unlock(ctx, key)

	// Sequential runs reacquire and release cleanly.
	if _, err := uc.Annotate(ctx, p); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if _, err := uc.Annotate(ctx, p); err != nil {
		t.Fatalf("second run: %v", err)
	}
}
