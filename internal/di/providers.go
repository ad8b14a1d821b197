package di

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"

	"StructScan/internal/domain/repository"
	"StructScan/internal/handler/api"
	"StructScan/internal/jobs"
	mid "StructScan/internal/middleware"
	internalrepo "StructScan/internal/repository"
	icache "StructScan/internal/service/cache"
	"StructScan/internal/service/feed"
	"StructScan/internal/usecase"
	pkgcache "StructScan/pkg/cache"
	pkgch "StructScan/pkg/clickhouse"
	"StructScan/pkg/config"
	pkgkafka "StructScan/pkg/kafka"
	applogger "StructScan/pkg/logger"
	"StructScan/pkg/metrics"
	pkgqueue "StructScan/pkg/queue"
	"StructScan/pkg/server"

	goredis "github.com/redis/go-redis/v9"
)

// ProvideClickHouseClient creates a ClickHouse client.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	// Initialize schema
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := client.InitSchema(ctx, barSchema(cfg.ClickHouse.Database)); err != nil {
		_ = client.Close() // cannot log here (DI layer no logger); propagate error
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

// barSchema returns the DDL for the bar tables plus the materialized
// views that fold raw inserts into the per-second and per-minute series
// the annotation read path queries. The bucketed tables use
// ReplacingMergeTree keyed (symbol, bucket), so re-delivered raw bars
// collapse to the newest version on merge.
func barSchema(db string) []string {
	return []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", db),
		fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s.rt_bars_raw (ts DateTime64(3), symbol LowCardinality(String), open Float64, high Float64, low Float64, close Float64, vol Float64, event_id String, seq UInt64) ENGINE=MergeTree ORDER BY (symbol, ts)", db),
		fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s.rt_bars_1s (bucket DateTime, symbol LowCardinality(String), open Float64, high Float64, low Float64, close Float64, vol Float64) ENGINE=ReplacingMergeTree ORDER BY (symbol, bucket)", db),
		fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s.rt_bars_1m (bucket DateTime, symbol LowCardinality(String), open Float64, high Float64, low Float64, close Float64, vol Float64) ENGINE=ReplacingMergeTree ORDER BY (symbol, bucket)", db),
		fmt.Sprintf("CREATE MATERIALIZED VIEW IF NOT EXISTS %s.rt_bars_1s_mv TO %s.rt_bars_1s AS SELECT toStartOfSecond(ts) AS bucket, symbol, argMin(open, ts) AS open, max(high) AS high, min(low) AS low, argMax(close, ts) AS close, sum(vol) AS vol FROM %s.rt_bars_raw GROUP BY bucket, symbol", db, db, db),
		fmt.Sprintf("CREATE MATERIALIZED VIEW IF NOT EXISTS %s.rt_bars_1m_mv TO %s.rt_bars_1m AS SELECT toStartOfMinute(ts) AS bucket, symbol, argMin(open, ts) AS open, max(high) AS high, min(low) AS low, argMax(close, ts) AS close, sum(vol) AS vol FROM %s.rt_bars_raw GROUP BY bucket, symbol", db, db, db),
	}
}

// ProvideKafkaProducer creates a Kafka producer.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}

	return producer, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) *applogger.Logger {
	format := "json"
	if cfg.Environment == "development" {
		format = "console"
	}
	l, err := applogger.New(&applogger.Config{Level: "info", Format: format, Output: "stdout"})
	if err != nil {
		l, _ = applogger.New(&applogger.Config{Level: "info", Format: "console", Output: "stdout"})
	}
	return l
}

// ProvideBarStorage creates ClickHouse storage repository.
func ProvideBarStorage(chClient *pkgch.Client, cfg *config.Config) repository.Storage {
	return internalrepo.NewClickHouseStorage(chClient.DB(), cfg.ClickHouse.Database+".rt_bars_raw")
}

// ProvideBarPublisher creates Kafka publisher repository.
func ProvideBarPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.Publisher {
	return internalrepo.NewKafkaPublisher(producer, cfg.Kafka.Topic)
}

// ProvideKafkaConsumer creates a Kafka consumer configured from YAML.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideKafkaBarsHandler registers handler for the bars topic.
func ProvideKafkaBarsHandler(store repository.Storage, metrics repository.Metrics, cfg *config.Config) *usecase.KafkaBarsHandler {
	return usecase.NewKafkaBarsHandler(cfg.Kafka.Topic, store, metrics)
}

// ProvideMarketStream creates the WebSocket bar stream.
func ProvideMarketStream(cfg *config.Config) repository.MarketStream {
	return feed.New(
		cfg.Feed.APIKey,
		cfg.Feed.WebSocketURL,
		cfg.Feed.RESTURL,
		cfg.Feed.Symbols,
		cfg.Feed.ReconnectDelay,
		cfg.Feed.PingInterval,
		cfg.Feed.BackfillBars,
	)
}

// ProvideBarProcessor creates bar processor use case.
func ProvideBarProcessor(
	pub repository.Publisher,
	store repository.Storage,
	metrics repository.Metrics,
	cfg *config.Config,
) *usecase.BarProcessor {
	return usecase.NewBarProcessor(
		pub,
		store,
		metrics,
		cfg.Backend.Type,
		cfg.Backend.BatchSize,
		cfg.Backend.BatchTimeout,
	)
}

// ProvideBarCollector creates bar collector use case.
func ProvideBarCollector(
	stream repository.MarketStream,
	processor *usecase.BarProcessor,
	metrics repository.Metrics,
) *usecase.BarCollector {
	// Build middleware pipeline between WebSocket and storage
	pipe := mid.NewRealtimePipeline(processor, metrics,
		mid.WithMaxRPS(50),
		mid.WithBufferSize(2000),
	)
	return usecase.NewBarCollector(stream, processor, metrics, pipe)
}

// ProvidePostgres opens the run-registry Postgres connection.
func ProvidePostgres(cfg *config.Config) (*sqlx.DB, error) {
	if cfg.Postgres.DSN == "" {
		return nil, fmt.Errorf("postgres.dsn is required")
	}
	db, err := sqlx.Connect("postgres", cfg.Postgres.DSN)
	if err != nil {
		return nil, fmt.Errorf("postgres connect: %w", err)
	}
	return db, nil
}

// ProvideRunRegistry creates the Postgres-backed run registry.
func ProvideRunRegistry(db *sqlx.DB) (*internalrepo.PostgresRunRegistry, error) {
	reg := internalrepo.NewPostgresRunRegistry(db)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := reg.EnsureSchema(ctx); err != nil {
		return nil, err
	}
	return reg, nil
}

// ProvideBarStore creates the ClickHouse bar reader.
func ProvideBarStore(chClient *pkgch.Client, l *applogger.Logger) repository.BarStore {
	store := internalrepo.NewCHBarStore(chClient)
	store.SetLogger(l)
	return store
}

// ProvideAnnotationStore creates the ClickHouse annotation store.
func ProvideAnnotationStore(chClient *pkgch.Client) (repository.AnnotationStore, error) {
	store := internalrepo.NewCHAnnotationStore(chClient)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.EnsureSchema(ctx); err != nil {
		return nil, err
	}
	return store, nil
}

// ProvideBytesCache creates the read-path cache: Redis when configured,
// in-process TTL cache otherwise.
func ProvideBytesCache(cfg *config.Config) icache.BytesCache {
	if cfg.Structure.Redis.Enabled {
		return icache.NewRedisCache(icache.RedisConfig{
			Addr:     cfg.Structure.Redis.Addr,
			Password: cfg.Structure.Redis.Password,
			DB:       cfg.Structure.Redis.DB,
		})
	}
	return icache.NewTTLCache()
}

// ProvideRunLockCache creates the lock store that serializes pipeline
// runs per symbol: Redis-backed when configured so locks hold across
// instances, in-memory otherwise.
func ProvideRunLockCache(cfg *config.Config) (pkgcache.Service, error) {
	if !cfg.Structure.Redis.Enabled {
		return pkgcache.NewMemoryCache(), nil
	}
	host, port := splitHostPort(cfg.Structure.Redis.Addr)
	rc, err := pkgcache.NewRedisCache(
		pkgcache.WithRedisHost(host),
		pkgcache.WithRedisPort(port),
		pkgcache.WithRedisPassword(cfg.Structure.Redis.Password),
		pkgcache.WithRedisDB(cfg.Structure.Redis.DB),
	)
	if err != nil {
		return nil, fmt.Errorf("run lock cache: %w", err)
	}
	return pkgcache.NewLayeredCache(rc), nil
}

func splitHostPort(addr string) (string, int) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return addr, 6379
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return host, 6379
	}
	return host, port
}

// ProvideAnnotateUseCase creates the annotation pipeline orchestrator.
func ProvideAnnotateUseCase(
	bars repository.BarStore,
	annotations repository.AnnotationStore,
	runs *internalrepo.PostgresRunRegistry,
	metrics repository.Metrics,
	locks pkgcache.Service,
	readCache icache.BytesCache,
	l *applogger.Logger,
) *usecase.AnnotateUseCase {
	return usecase.NewAnnotateUseCase(bars, annotations, runs, metrics, locks, readCache, l)
}

// ProvideBarsUseCase creates the bar series read path.
func ProvideBarsUseCase(store repository.BarStore) *usecase.BarsUseCase {
	return usecase.NewBarsUseCase(store)
}

// ProvideStructureReader creates the API read path.
func ProvideStructureReader(
	annotations repository.AnnotationStore,
	runs *internalrepo.PostgresRunRegistry,
	cache icache.BytesCache,
) *usecase.StructureReader {
	return usecase.NewStructureReader(annotations, runs, cache)
}

// ProvideAnnotationQueue creates the Redis-backed annotation job queue.
func ProvideAnnotationQueue(
	cfg *config.Config,
	uc *usecase.AnnotateUseCase,
	l *applogger.Logger,
) *pkgqueue.RedisQueue {
	if !cfg.Structure.Redis.Enabled {
		return nil
	}
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Structure.Redis.Addr,
		Password: cfg.Structure.Redis.Password,
		DB:       cfg.Structure.Redis.DB,
	})
	qc := &pkgqueue.QueueConfig{
		Workers:    cfg.Structure.Queue.Workers,
		QueueSize:  cfg.Structure.Queue.QueueSize,
		RetryLimit: cfg.Structure.Queue.RetryLimit,
		RetryDelay: cfg.Structure.Queue.RetryDelay,
	}
	q := pkgqueue.NewRedisQueue(l, qc, client, pkgqueue.ModeProducerConsumer)
	q.RegisterJob(jobs.NewAnnotateJob(uc, l))
	return q
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	collector *usecase.BarCollector,
	consumer *pkgkafka.Consumer,
	kh *usecase.KafkaBarsHandler,
	chClient *pkgch.Client,
	reader *usecase.StructureReader,
	barsUC *usecase.BarsUseCase,
	q *pkgqueue.RedisQueue,
	pg *sqlx.DB,
	l *applogger.Logger,
) *server.App {
	// Attach hook to consumer: example NoopHook for now; can be replaced via config
	if consumer != nil {
		consumer.WithConsumerHook(pkgkafka.NoopHook{})
	}
	app := server.New(cfg, collector, consumer, kh, chClient)
	app.SetHTTPHandler(api.NewStructureEchoHandler(l, reader, barsUC))
	if q != nil {
		app.SetQueue(q)
	}
	if pg != nil {
		app.AddCloser(pg.Close)
	}
	// attach bar processor to app for closing resources via collector
	if collector != nil {
		app.BarProc = collector.Processor()
	}
	return app
}
