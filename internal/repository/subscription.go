package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/getmeachai/backend/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const subscriptionColumns = `id, gateway_subscription_id, creator_username, campaign_id,
	amount, frequency, status, start_date, end_date, next_billing_date, created_at, updated_at`

type SubscriptionRepository struct {
	db *pgxpool.Pool
}

func NewSubscriptionRepository(db *pgxpool.Pool) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

func (r *SubscriptionRepository) Create(ctx context.Context, sub *domain.Subscription) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := `
		INSERT INTO subscriptions (id, gateway_subscription_id, creator_username, campaign_id,
			amount, frequency, status, start_date, end_date, next_billing_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := r.db.Exec(ctx, query,
		sub.ID, sub.GatewaySubscriptionID, sub.CreatorUsername, sub.CampaignID,
		sub.Amount, sub.Frequency, sub.Status, sub.StartDate, sub.EndDate,
		sub.NextBillingDate, sub.CreatedAt, sub.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create subscription: %w", err)
	}
	return nil
}

// FindByGatewayID returns a subscription by its gateway id, or nil when absent.
func (r *SubscriptionRepository) FindByGatewayID(ctx context.Context, gatewayID string) (*domain.Subscription, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	row := r.db.QueryRow(ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions WHERE gateway_subscription_id = $1`,
		gatewayID,
	)
	var sub domain.Subscription
	err := row.Scan(
		&sub.ID, &sub.GatewaySubscriptionID, &sub.CreatorUsername, &sub.CampaignID,
		&sub.Amount, &sub.Frequency, &sub.Status, &sub.StartDate, &sub.EndDate,
		&sub.NextBillingDate, &sub.CreatedAt, &sub.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find subscription: %w", err)
	}
	return &sub, nil
}

// Activate transitions a subscription to active and records its start date.
func (r *SubscriptionRepository) Activate(ctx context.Context, gatewayID string, startedAt time.Time) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	_, err := r.db.Exec(ctx, `
		UPDATE subscriptions SET status = $2, start_date = $3, updated_at = NOW()
		WHERE gateway_subscription_id = $1`,
		gatewayID, domain.SubscriptionStatusActive, startedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to activate subscription: %w", err)
	}
	return nil
}

// SetStatus updates the lifecycle status (pause/resume paths).
func (r *SubscriptionRepository) SetStatus(ctx context.Context, gatewayID, status string) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	_, err := r.db.Exec(ctx, `
		UPDATE subscriptions SET status = $2, updated_at = NOW()
		WHERE gateway_subscription_id = $1`,
		gatewayID, status,
	)
	if err != nil {
		return fmt.Errorf("failed to update subscription status: %w", err)
	}
	return nil
}

// Close ends a subscription (cancelled or expired) and records the end date.
func (r *SubscriptionRepository) Close(ctx context.Context, gatewayID, status string, endedAt time.Time) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	_, err := r.db.Exec(ctx, `
		UPDATE subscriptions SET status = $2, end_date = $3, updated_at = NOW()
		WHERE gateway_subscription_id = $1`,
		gatewayID, status, endedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to close subscription: %w", err)
	}
	return nil
}
