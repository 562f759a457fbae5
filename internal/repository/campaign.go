package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/getmeachai/backend/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CampaignRepository reads campaign funding totals. Increments happen inside
// the settlement transaction in PaymentRepository, never as a separate
// read-modify-write here.
type CampaignRepository struct {
	db *pgxpool.Pool
}

func NewCampaignRepository(db *pgxpool.Pool) *CampaignRepository {
	return &CampaignRepository{db: db}
}

// FindByID returns a campaign by id, or nil when absent.
func (r *CampaignRepository) FindByID(ctx context.Context, id string) (*domain.Campaign, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	row := r.db.QueryRow(ctx, `
		SELECT id, creator_username, title, goal_amount, current_amount, supporters_count,
			created_at, updated_at
		FROM campaigns WHERE id = $1`, id)

	var c domain.Campaign
	err := row.Scan(
		&c.ID, &c.CreatorUsername, &c.Title, &c.GoalAmount, &c.CurrentAmount,
		&c.SupportersCount, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find campaign: %w", err)
	}
	return &c, nil
}

// CreatorRepository reads denormalized creator statistics.
type CreatorRepository struct {
	db *pgxpool.Pool
}

func NewCreatorRepository(db *pgxpool.Pool) *CreatorRepository {
	return &CreatorRepository{db: db}
}

// FindByUsername returns a creator's stats, or nil when absent.
func (r *CreatorRepository) FindByUsername(ctx context.Context, username string) (*domain.Creator, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	row := r.db.QueryRow(ctx, `
		SELECT username, total_raised, total_supporters, created_at, updated_at
		FROM creators WHERE username = $1`, username)

	var c domain.Creator
	err := row.Scan(&c.Username, &c.TotalRaised, &c.TotalSupporters, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find creator: %w", err)
	}
	return &c, nil
}
