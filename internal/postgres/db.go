package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	cfg.MaxConns = 8
	cfg.MinConns = 1
	cfg.HealthCheckPeriod = 30 * time.Second
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

// EnsureSchema creates the checkout journal table on startup.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	const stmt = `
	CREATE TABLE IF NOT EXISTS checkout_journal (
		id            UUID PRIMARY KEY,
		user_id       TEXT NOT NULL,
		restaurant_id TEXT NOT NULL,
		order_id      TEXT NOT NULL UNIQUE,
		total         NUMERIC(12,2) NOT NULL,
		service_fee   NUMERIC(12,2) NOT NULL,
		payment_ref   TEXT NOT NULL DEFAULT '',
		status        TEXT NOT NULL,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	CREATE INDEX IF NOT EXISTS checkout_journal_user_idx ON checkout_journal (user_id, created_at DESC);
	CREATE INDEX IF NOT EXISTS checkout_journal_payment_ref_idx ON checkout_journal (payment_ref);`

	if _, err := pool.Exec(ctx, stmt); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
