package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// opTimeout bounds every single store operation so a wedged database surfaces
// as an error instead of hanging a webhook delivery.
const opTimeout = 5 * time.Second

func withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, opTimeout)
}

// NewDB creates a new PostgreSQL connection pool.
func NewDB(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 2

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return pool, nil
}

// RunMigrations executes the initial schema migration.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	query := `
		CREATE TABLE IF NOT EXISTS payments (
			id               TEXT PRIMARY KEY,
			order_id         TEXT NOT NULL UNIQUE,
			payment_id       TEXT UNIQUE,
			supporter_name   TEXT NOT NULL DEFAULT '',
			supporter_email  TEXT NOT NULL DEFAULT '',
			creator_username TEXT NOT NULL,
			campaign_id      TEXT,
			subscription_id  TEXT,
			amount           BIGINT NOT NULL,
			currency         TEXT NOT NULL DEFAULT 'INR',
			kind             TEXT NOT NULL DEFAULT 'one-time',
			status           TEXT NOT NULL DEFAULT 'pending',
			settled          BOOLEAN NOT NULL DEFAULT FALSE,
			message          TEXT NOT NULL DEFAULT '',
			created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_payments_creator ON payments(creator_username);
		CREATE INDEX IF NOT EXISTS idx_payments_campaign ON payments(campaign_id);

		CREATE TABLE IF NOT EXISTS subscriptions (
			id                       TEXT PRIMARY KEY,
			gateway_subscription_id  TEXT NOT NULL UNIQUE,
			creator_username         TEXT NOT NULL,
			campaign_id              TEXT,
			amount                   BIGINT NOT NULL,
			frequency                TEXT NOT NULL DEFAULT 'monthly',
			status                   TEXT NOT NULL DEFAULT 'pending',
			start_date               TIMESTAMPTZ,
			end_date                 TIMESTAMPTZ,
			next_billing_date        TIMESTAMPTZ,
			created_at               TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at               TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_subscriptions_creator ON subscriptions(creator_username);

		CREATE TABLE IF NOT EXISTS campaigns (
			id               TEXT PRIMARY KEY,
			creator_username TEXT NOT NULL,
			title            TEXT NOT NULL DEFAULT '',
			goal_amount      BIGINT NOT NULL DEFAULT 0,
			current_amount   BIGINT NOT NULL DEFAULT 0,
			supporters_count BIGINT NOT NULL DEFAULT 0,
			created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_campaigns_creator ON campaigns(creator_username);

		CREATE TABLE IF NOT EXISTS creators (
			username         TEXT PRIMARY KEY,
			total_raised     BIGINT NOT NULL DEFAULT 0,
			total_supporters BIGINT NOT NULL DEFAULT 0,
			created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS webhook_events (
			event_id     TEXT PRIMARY KEY,
			event_type   TEXT NOT NULL,
			processed_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS notifications (
			id         TEXT PRIMARY KEY,
			user_id    TEXT NOT NULL,
			type       TEXT NOT NULL,
			title      TEXT NOT NULL,
			message    TEXT NOT NULL DEFAULT '',
			link       TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_notifications_user ON notifications(user_id);
	`
	_, err := pool.Exec(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}
