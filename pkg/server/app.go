package server

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"StructScan/internal/jobs"
	"StructScan/internal/usecase"
	pkgch "StructScan/pkg/clickhouse"
	"StructScan/pkg/config"
	xhttp "StructScan/pkg/http"
	pkgkafka "StructScan/pkg/kafka"
	applogger "StructScan/pkg/logger"
	pkgqueue "StructScan/pkg/queue"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg         *config.Config
	collector   *usecase.BarCollector
	consumer    *pkgkafka.Consumer
	kh          pkgkafka.MessageHandler
	chClient    *pkgch.Client
	httpServer  *xhttp.Server
	httpHandler xhttp.Handler
	queue       *pkgqueue.RedisQueue
	BarProc     *usecase.BarProcessor

	closers []func() error
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	collector *usecase.BarCollector,
	consumer *pkgkafka.Consumer,
	kh pkgkafka.MessageHandler,
	chClient *pkgch.Client,
) *App {
	return &App{
		cfg:       cfg,
		collector: collector,
		consumer:  consumer,
		kh:        kh,
		chClient:  chClient,
	}
}

// SetHTTPHandler allows DI to inject an HTTP handler.
func (a *App) SetHTTPHandler(h xhttp.Handler) { a.httpHandler = h }

// SetQueue allows DI to inject the annotation job queue.
func (a *App) SetQueue(q *pkgqueue.RedisQueue) { a.queue = q }

// AddCloser registers extra resources to close on shutdown.
func (a *App) AddCloser(fn func() error) { a.closers = append(a.closers, fn) }

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// init app logger (console info by default)
	l, _ := applogger.New(&applogger.Config{Level: "info", Format: "console", Output: "stdout"})

	a.httpServer = xhttp.NewServer(a.httpHandler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)

	// Start collector
	go func() {
		if err := a.collector.Start(ctx); err != nil {
			l.Error("collector error", applogger.Error(err))
		}
	}()
	l.Info("collector started", applogger.Strings("symbols", a.cfg.Feed.Symbols))

	// Start consumer if configured
	if a.consumer != nil && a.kh != nil {
		a.consumer.RegisterHandler(a.kh)
		go func() {
			if err := a.consumer.Start(); err != nil {
				l.Error("kafka consumer error", applogger.Error(err))
			}
		}()
		l.Info("kafka consumer started", applogger.String("topic", a.kh.Topic()))
	}

	// Start annotation queue workers and the per-symbol scheduler
	if a.queue != nil {
		if err := a.queue.Start(); err != nil {
			l.Error("queue start error", applogger.Error(err))
		} else {
			go a.scheduleAnnotations(ctx, l)
		}
	}

	// Start HTTP server
	if err := a.httpServer.Start(); err != nil {
		l.Error("http server start error", applogger.Error(err))
		return err
	}

	// Wait for interrupt
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	l.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// scheduleAnnotations enqueues one annotation job per configured symbol
// at the configured interval.
func (a *App) scheduleAnnotations(ctx context.Context, l *applogger.Logger) {
	interval := a.cfg.Structure.RunInterval
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	enqueue := func() {
		for _, sym := range a.cfg.Feed.Symbols {
			payload := jobs.AnnotatePayload{
				Symbol:              sym,
				N:                   a.cfg.Structure.BarsPerRun,
				SwingWindow:         a.cfg.Structure.SwingWindow,
				PriceTolerancePct:   a.cfg.Structure.PriceTolerancePct,
				ClimaxATRMultiplier: a.cfg.Structure.ClimaxATRMultiplier,
				ConsecutiveRun:      a.cfg.Structure.ConsecutiveRun,
			}
			if err := a.queue.Enqueue(ctx, jobs.AnnotateJobType, payload); err != nil {
				l.Warn("enqueue annotation", applogger.String("symbol", sym), applogger.Error(err))
			}
		}
	}

	enqueue()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			enqueue()
		}
	}
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	// best-effort logging via stdout
	l, err := applogger.New(&applogger.Config{Level: "info", Format: "console", Output: "stdout"})
	if err != nil {
		log.Printf("failed to create logger: %v", err)
		return err
	}
	l.Info("shutting down...")

	// Stop collector (pipeline + stream)
	if err := a.collector.Shutdown(ctx); err != nil {
		l.Warn("collector stop error", applogger.Error(err))
	}

	// Shutdown HTTP server
	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		l.Error("http shutdown error", applogger.Error(err))
	}

	// Stop queue workers
	if a.queue != nil {
		if err := a.queue.Stop(shutdownCtx); err != nil {
			l.Warn("queue stop error", applogger.Error(err))
		}
	}

	// Stop consumer
	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			l.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	// Close bar processor resources (publisher/storage)
	if a.BarProc != nil {
		a.BarProc.Close()
	}

	// Close infrastructure clients
	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			l.Warn("clickhouse close error", applogger.Error(err))
		}
	}
	for _, fn := range a.closers {
		if err := fn(); err != nil {
			l.Warn("closer error", applogger.Error(err))
		}
	}

	l.Info("shutdown complete")
	return nil
}
