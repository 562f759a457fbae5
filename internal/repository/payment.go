package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/getmeachai/backend/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const paymentColumns = `id, order_id, COALESCE(payment_id, ''), supporter_name, supporter_email,
	creator_username, campaign_id, subscription_id, amount, currency, kind, status, settled,
	message, created_at, updated_at`

// PaymentRepository handles database operations for payments, including the
// transactional settlement path that guards the funding aggregates.
type PaymentRepository struct {
	db *pgxpool.Pool
}

// NewPaymentRepository creates a new PaymentRepository.
func NewPaymentRepository(db *pgxpool.Pool) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// Create inserts a new payment record.
func (r *PaymentRepository) Create(ctx context.Context, p *domain.Payment) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := `
		INSERT INTO payments (id, order_id, payment_id, supporter_name, supporter_email,
			creator_username, campaign_id, subscription_id, amount, currency, kind, status,
			settled, message, created_at, updated_at)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`
	_, err := r.db.Exec(ctx, query,
		p.ID, p.OrderID, p.PaymentID, p.SupporterName, p.SupporterEmail,
		p.CreatorUsername, p.CampaignID, p.SubscriptionID, p.Amount, p.Currency,
		p.Kind, p.Status, p.Settled, p.Message, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create payment: %w", err)
	}
	return nil
}

// FindByOrderID returns a payment by its gateway order id, or nil when absent.
func (r *PaymentRepository) FindByOrderID(ctx context.Context, orderID string) (*domain.Payment, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	row := r.db.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE order_id = $1`, orderID)
	p, err := scanPayment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find payment: %w", err)
	}
	return p, nil
}

// Settle applies the one-time settlement transition for an order. The guard
// and the aggregate increments run in a single transaction: a conditional
// UPDATE flips settled only when it is still FALSE, and only a flipped row
// increments the campaign and creator totals. Under duplicate delivery the
// UPDATE matches zero rows and nothing is applied.
//
// Returns the settled payment and true when this call applied the
// settlement; the current record (nil when unknown) and false otherwise.
func (r *PaymentRepository) Settle(ctx context.Context, orderID, paymentID string) (*domain.Payment, bool, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("failed to begin settlement: %w", err)
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `
		UPDATE payments
		SET payment_id = $2, status = 'success', settled = TRUE, updated_at = NOW()
		WHERE order_id = $1 AND settled = FALSE
		RETURNING `+paymentColumns,
		orderID, paymentID,
	)
	p, err := scanPayment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Already settled or unknown order; report which without mutating.
			existing, ferr := r.FindByOrderID(ctx, orderID)
			if ferr != nil {
				return nil, false, ferr
			}
			return existing, false, nil
		}
		return nil, false, fmt.Errorf("failed to settle payment: %w", err)
	}

	if err := applyFundingIncrements(ctx, tx, p); err != nil {
		return nil, false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, false, fmt.Errorf("failed to commit settlement: %w", err)
	}
	return p, true, nil
}

// CreateSubscriptionCharge records one successful recurring charge: a new
// settled payment keyed by the gateway payment id, the aggregate increments,
// and the subscription's billing anchor advance, all in one transaction.
// A duplicate charge (same gateway payment id) is a no-op via ON CONFLICT.
func (r *PaymentRepository) CreateSubscriptionCharge(ctx context.Context, sub *domain.Subscription, paymentID, orderID string, chargedAt time.Time) (bool, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to begin charge: %w", err)
	}
	defer tx.Rollback(ctx)

	if orderID == "" {
		// Recurring charges are not always backed by a checkout order.
		orderID = "sub_" + paymentID
	}

	tag, err := tx.Exec(ctx, `
		INSERT INTO payments (id, order_id, payment_id, creator_username, campaign_id,
			subscription_id, amount, currency, kind, status, settled, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 'INR', 'subscription', 'success', TRUE, $8, $8)
		ON CONFLICT (payment_id) DO NOTHING`,
		uuid.New().String(), orderID, paymentID, sub.CreatorUsername, sub.CampaignID,
		sub.ID, sub.Amount, chargedAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to record subscription charge: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return false, nil // duplicate delivery
	}

	charge := &domain.Payment{
		CreatorUsername: sub.CreatorUsername,
		CampaignID:      sub.CampaignID,
		Amount:          sub.Amount,
	}
	if err := applyFundingIncrements(ctx, tx, charge); err != nil {
		return false, err
	}

	next := sub.NextBillingFrom(chargedAt)
	_, err = tx.Exec(ctx,
		`UPDATE subscriptions SET next_billing_date = $2, updated_at = NOW() WHERE id = $1`,
		sub.ID, next,
	)
	if err != nil {
		return false, fmt.Errorf("failed to advance billing date: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("failed to commit charge: %w", err)
	}
	return true, nil
}

// MarkFailed transitions a payment to failed. Returns false when no payment
// exists for the order id.
func (r *PaymentRepository) MarkFailed(ctx context.Context, orderID string) (bool, error) {
	return r.setStatus(ctx, orderID, domain.PaymentStatusFailed)
}

// MarkRefunded transitions a payment to refunded. Funding aggregates are not
// decremented; refund accounting lives with the gateway ledger.
func (r *PaymentRepository) MarkRefunded(ctx context.Context, orderID string) (bool, error) {
	return r.setStatus(ctx, orderID, domain.PaymentStatusRefunded)
}

func (r *PaymentRepository) setStatus(ctx context.Context, orderID, status string) (bool, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tag, err := r.db.Exec(ctx,
		`UPDATE payments SET status = $2, updated_at = NOW() WHERE order_id = $1`,
		orderID, status,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update payment status: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// ListByCreator returns a creator's most recent settled payments.
func (r *PaymentRepository) ListByCreator(ctx context.Context, username string, limit int) ([]*domain.Payment, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	if limit <= 0 || limit > 100 {
		limit = 25
	}
	rows, err := r.db.Query(ctx, `
		SELECT `+paymentColumns+` FROM payments
		WHERE creator_username = $1 AND settled = TRUE
		ORDER BY updated_at DESC LIMIT $2`,
		username, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	defer rows.Close()

	var payments []*domain.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

// applyFundingIncrements runs the atomic aggregate increments for one newly
// settled payment inside the caller's transaction.
func applyFundingIncrements(ctx context.Context, tx pgx.Tx, p *domain.Payment) error {
	if p.CampaignID != nil && *p.CampaignID != "" {
		_, err := tx.Exec(ctx, `
			UPDATE campaigns
			SET current_amount = current_amount + $2, supporters_count = supporters_count + 1,
				updated_at = NOW()
			WHERE id = $1`,
			*p.CampaignID, p.Amount,
		)
		if err != nil {
			return fmt.Errorf("failed to increment campaign funding: %w", err)
		}
	}

	_, err := tx.Exec(ctx, `
		UPDATE creators
		SET total_raised = total_raised + $2, total_supporters = total_supporters + 1,
			updated_at = NOW()
		WHERE username = $1`,
		p.CreatorUsername, p.Amount,
	)
	if err != nil {
		return fmt.Errorf("failed to increment creator stats: %w", err)
	}
	return nil
}

func scanPayment(row pgx.Row) (*domain.Payment, error) {
	var p domain.Payment
	err := row.Scan(
		&p.ID, &p.OrderID, &p.PaymentID, &p.SupporterName, &p.SupporterEmail,
		&p.CreatorUsername, &p.CampaignID, &p.SubscriptionID, &p.Amount, &p.Currency,
		&p.Kind, &p.Status, &p.Settled, &p.Message, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
