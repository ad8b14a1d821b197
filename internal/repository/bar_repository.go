package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"StructScan/internal/domain/models"
	"StructScan/internal/domain/repository"
	pkgkafka "StructScan/pkg/kafka"
)

// ClickHouseStorage implements Storage for ClickHouse.
type ClickHouseStorage struct {
	db    *sql.DB
	table string
}

// NewClickHouseStorage creates ClickHouse storage.
func NewClickHouseStorage(db *sql.DB, table string) repository.Storage {
	return &ClickHouseStorage{db: db, table: table}
}

func (s *ClickHouseStorage) Init(ctx context.Context) error {
	return nil // Schema init in pkg
}

func (s *ClickHouseStorage) Store(ctx context.Context, b *models.Bar) error {
	q := fmt.Sprintf("INSERT INTO %s (ts, symbol, open, high, low, close, vol, event_id, seq) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)", s.table)
	// Idempotency placeholders: event_id and seq derived from symbol+timestamp
	eventID := fmt.Sprintf("%s-%d", b.Symbol, b.Timestamp.Unix())
	seq := uint64(b.Timestamp.Unix())
	_, err := s.db.ExecContext(ctx, q,
		b.Timestamp,
		b.Symbol,
		b.Open,
		b.High,
		b.Low,
		b.Close,
		b.Volume,
		eventID,
		seq,
	)
	return err
}

func (s *ClickHouseStorage) StoreBatch(ctx context.Context, bars []*models.Bar) error {
	if len(bars) == 0 {
		return nil
	}
	// Batch insert using VALUES multi-row to reduce round-trips.
	// Chunk size tuned to 2000 rows per batch.
	const chunkSize = 2000
	for start := 0; start < len(bars); start += chunkSize {
		end := start + chunkSize
		if end > len(bars) {
			end = len(bars)
		}

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*9)
		for _, b := range bars[start:end] {
			if b == nil || b.Symbol == "" || b.Timestamp.IsZero() {
				continue
			}
			eventID := fmt.Sprintf("%s-%d", b.Symbol, b.Timestamp.Unix())
			seq := uint64(b.Timestamp.Unix())
			values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?, ?)")
			args = append(args,
				b.Timestamp,
				b.Symbol,
				b.Open,
				b.High,
				b.Low,
				b.Close,
				b.Volume,
				eventID,
				seq,
			)
		}
		if len(values) == 0 {
			continue
		}
		q := fmt.Sprintf("INSERT INTO %s (ts, symbol, open, high, low, close, vol, event_id, seq) VALUES %s", s.table, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			return err
		}
	}
	return nil
}

func (s *ClickHouseStorage) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *ClickHouseStorage) Close() error {
	return nil // Managed by pkg
}

// KafkaPublisher implements Publisher for Kafka.
type KafkaPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaPublisher creates Kafka publisher.
func NewKafkaPublisher(producer *pkgkafka.Producer, topic string) repository.Publisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

func (p *KafkaPublisher) Publish(ctx context.Context, b *models.Bar) error {
	return p.producer.Publish(ctx, p.topic, []byte(b.Symbol), barMessage(b))
}

func (p *KafkaPublisher) PublishBatch(ctx context.Context, bars []*models.Bar) error {
	if len(bars) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(bars))
	for i, b := range bars {
		msgs[i] = pkgkafka.Message{
			Key:   []byte(b.Symbol),
			Value: barMessage(b),
		}
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

func barMessage(b *models.Bar) map[string]interface{} {
	return map[string]interface{}{
		"symbol": b.Symbol,
		"t":      b.Timestamp.Unix(),
		"o":      b.Open,
		"h":      b.High,
		"l":      b.Low,
		"c":      b.Close,
		"v":      b.Volume,
	}
}
