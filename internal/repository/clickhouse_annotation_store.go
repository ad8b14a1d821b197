package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"StructScan/internal/domain/models"
	domrepo "StructScan/internal/domain/repository"
	pkgch "StructScan/pkg/clickhouse"
)

const annotationsTable = "structscan.structure_annotations"

// CHAnnotationStore persists fused structure records in ClickHouse.
// Re-runs over the same series overwrite rows by (symbol, tf, idx) via
// ReplacingMergeTree, so the pipeline stays idempotent on the read side.
type CHAnnotationStore struct {
	db *sql.DB
}

func NewCHAnnotationStore(ch *pkgch.Client) *CHAnnotationStore {
	return &CHAnnotationStore{db: ch.DB()}
}

// EnsureSchema creates the annotations table if missing.
func (s *CHAnnotationStore) EnsureSchema(ctx context.Context) error {
	const ddl = `
        CREATE TABLE IF NOT EXISTS ` + annotationsTable + ` (
            symbol               LowCardinality(String),
            tf                   LowCardinality(String),
            idx                  UInt32,
            ts                   DateTime64(3),
            swing_high_confirmed Bool,
            swing_low_confirmed  Bool,
            swing_high_price     Float64,
            swing_low_price      Float64,
            swing_label          LowCardinality(String),
            major_high           Float64,
            major_low            Float64,
            bias                 Int8,
            is_climax_top        Bool,
            is_climax_bottom     Bool,
            is_consec_top        Bool,
            is_consec_bottom     Bool,
            adj_major_high       Float64,
            adj_major_low        Float64,
            label_trend          Int8,
            inserted_at          DateTime DEFAULT now()
        ) ENGINE = ReplacingMergeTree(inserted_at)
        ORDER BY (symbol, tf, idx)
    `
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create annotations table: %w", err)
	}
	return nil
}

func (s *CHAnnotationStore) StoreAnnotations(ctx context.Context, symbol string, tf domrepo.Timeframe, recs []models.StructureRecord) error {
	if len(recs) == 0 {
		return nil
	}
	// Chunked multi-row VALUES to reduce round-trips.
	const chunkSize = 2000
	const cols = "(symbol, tf, idx, ts, swing_high_confirmed, swing_low_confirmed, swing_high_price, swing_low_price, swing_label, major_high, major_low, bias, is_climax_top, is_climax_bottom, is_consec_top, is_consec_bottom, adj_major_high, adj_major_low, label_trend)"
	for start := 0; start < len(recs); start += chunkSize {
		end := start + chunkSize
		if end > len(recs) {
			end = len(recs)
		}
		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*19)
		for _, r := range recs[start:end] {
			values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
			args = append(args,
				symbol,
				string(tf),
				uint32(r.Index),
				r.Timestamp,
				r.SwingHighConfirmed,
				r.SwingLowConfirmed,
				r.SwingHighPrice,
				r.SwingLowPrice,
				string(r.SwingLabel),
				r.MajorHigh,
				r.MajorLow,
				int8(r.Bias),
				r.IsClimaxTop,
				r.IsClimaxBottom,
				r.IsConsecutiveTop,
				r.IsConsecutiveBottom,
				r.AdjustedMajorHigh,
				r.AdjustedMajorLow,
				int8(r.LabelTrend),
			)
		}
		q := fmt.Sprintf("INSERT INTO %s %s VALUES %s", annotationsTable, cols, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("store annotations: %w", err)
		}
	}
	return nil
}

func (s *CHAnnotationStore) GetLatestAnnotations(ctx context.Context, symbol string, n int, tf domrepo.Timeframe) ([]models.StructureRecord, error) {
	const qtpl = `
        SELECT idx, ts, swing_high_confirmed, swing_low_confirmed, swing_high_price, swing_low_price, swing_label,
               major_high, major_low, bias, is_climax_top, is_climax_bottom, is_consec_top, is_consec_bottom,
               adj_major_high, adj_major_low, label_trend
        FROM %s FINAL
        WHERE symbol = ? AND tf = ?
        ORDER BY idx DESC
        LIMIT ?
    `
	q := fmt.Sprintf(qtpl, annotationsTable)
	rows, err := s.db.QueryContext(ctx, q, symbol, string(tf), n)
	if err != nil {
		return nil, fmt.Errorf("get annotations: %w", err)
	}
	defer rows.Close()

	tmp := make([]models.StructureRecord, 0, n)
	for rows.Next() {
		var (
			r     models.StructureRecord
			idx   uint32
			ts    time.Time
			label string
			bias  int8
			lt    int8
		)
		if err := rows.Scan(&idx, &ts,
			&r.SwingHighConfirmed, &r.SwingLowConfirmed, &r.SwingHighPrice, &r.SwingLowPrice, &label,
			&r.MajorHigh, &r.MajorLow, &bias,
			&r.IsClimaxTop, &r.IsClimaxBottom, &r.IsConsecutiveTop, &r.IsConsecutiveBottom,
			&r.AdjustedMajorHigh, &r.AdjustedMajorLow, &lt,
		); err != nil {
			return nil, fmt.Errorf("scan annotation: %w", err)
		}
		r.Index = int(idx)
		r.Timestamp = ts
		r.SwingLabel = models.SwingLabel(label)
		r.Bias = models.Bias(bias)
		r.LabelTrend = models.Bias(lt)
		tmp = append(tmp, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	// reverse to ASC
	for i, j := 0, len(tmp)-1; i < j; i, j = i+1, j-1 {
		tmp[i], tmp[j] = tmp[j], tmp[i]
	}
	return tmp, nil
}

var _ domrepo.AnnotationStore = (*CHAnnotationStore)(nil)
