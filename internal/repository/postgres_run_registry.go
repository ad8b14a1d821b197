package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"StructScan/internal/domain/models"
	domrepo "StructScan/internal/domain/repository"
)

// PostgresRunRegistry keeps one Postgres row per annotation run, so runs
// are auditable across restarts.
type PostgresRunRegistry struct {
	db *sqlx.DB
}

func NewPostgresRunRegistry(db *sqlx.DB) *PostgresRunRegistry {
	return &PostgresRunRegistry{db: db}
}

// EnsureSchema creates the runs table if missing.
func (r *PostgresRunRegistry) EnsureSchema(ctx context.Context) error {
	const ddl = `
        CREATE TABLE IF NOT EXISTS annotation_runs (
            id                    TEXT PRIMARY KEY,
            symbol                TEXT NOT NULL,
            timeframe             TEXT NOT NULL,
            started_at            TIMESTAMPTZ NOT NULL,
            finished_at           TIMESTAMPTZ NOT NULL,
            duration_ms           BIGINT NOT NULL,
            swing_window          INT NOT NULL,
            price_tolerance_pct   DOUBLE PRECISION NOT NULL,
            climax_atr_multiplier DOUBLE PRECISION NOT NULL,
            consecutive_run       INT NOT NULL,
            bars                  INT NOT NULL,
            swing_count           INT NOT NULL,
            reversals             INT NOT NULL,
            final_bias            TEXT NOT NULL
        );
        CREATE INDEX IF NOT EXISTS annotation_runs_symbol_started
            ON annotation_runs (symbol, started_at DESC);
    `
	if _, err := r.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create runs table: %w", err)
	}
	return nil
}

func (r *PostgresRunRegistry) RecordRun(ctx context.Context, run *models.AnnotationRun) error {
	const q = `
        INSERT INTO annotation_runs (
            id, symbol, timeframe, started_at, finished_at, duration_ms,
            swing_window, price_tolerance_pct, climax_atr_multiplier, consecutive_run,
            bars, swing_count, reversals, final_bias
        ) VALUES (
            :id, :symbol, :timeframe, :started_at, :finished_at, :duration_ms,
            :swing_window, :price_tolerance_pct, :climax_atr_multiplier, :consecutive_run,
            :bars, :swing_count, :reversals, :final_bias
        )
    `
	if _, err := r.db.NamedExecContext(ctx, q, run); err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	return nil
}

func (r *PostgresRunRegistry) ListRuns(ctx context.Context, symbol string, limit int) ([]models.AnnotationRun, error) {
	const q = `
        SELECT id, symbol, timeframe, started_at, finished_at, duration_ms,
               swing_window, price_tolerance_pct, climax_atr_multiplier, consecutive_run,
               bars, swing_count, reversals, final_bias
        FROM annotation_runs
        WHERE symbol = $1
        ORDER BY started_at DESC
        LIMIT $2
    `
	runs := make([]models.AnnotationRun, 0, limit)
	if err := r.db.SelectContext(ctx, &runs, q, symbol, limit); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}

func (r *PostgresRunRegistry) Close() error { return r.db.Close() }

var _ domrepo.RunRegistry = (*PostgresRunRegistry)(nil)
