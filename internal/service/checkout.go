package service

import (
	"context"
	"strings"
	"time"

	"github.com/getmeachai/backend/internal/domain"
	"github.com/getmeachai/backend/pkg/payment"
	"github.com/google/uuid"
)

// OrderStore is the slice of payment persistence checkout needs.
type OrderStore interface {
	Create(ctx context.Context, p *domain.Payment) error
}

// CheckoutService creates gateway orders and their pending payment records.
// The reconciler settles them later when the capture webhook arrives.
type CheckoutService struct {
	store   OrderStore
	gateway payment.Gateway
	keyID   string
}

func NewCheckoutService(store OrderStore, gateway payment.Gateway, keyID string) *CheckoutService {
	return &CheckoutService{store: store, gateway: gateway, keyID: keyID}
}

// CreateOrder creates a gateway order and persists the pending payment.
func (s *CheckoutService) CreateOrder(ctx context.Context, req *domain.CreateCheckoutRequest) (*domain.CheckoutResponse, error) {
	currency := strings.ToUpper(req.Currency)
	if currency == "" {
		currency = "INR"
	}

	receipt := uuid.New().String()
	order, err := s.gateway.CreateOrder(ctx, req.Amount, currency, receipt, map[string]string{
		"creator": req.Creator,
	})
	if err != nil {
		return nil, domain.ErrInternal("failed to create gateway order", err)
	}

	now := time.Now()
	p := &domain.Payment{
		ID:              uuid.New().String(),
		OrderID:         order.ID,
		SupporterName:   req.SupporterName,
		SupporterEmail:  req.SupporterEmail,
		CreatorUsername: req.Creator,
		CampaignID:      req.CampaignID,
		Amount:          req.Amount,
		Currency:        currency,
		Kind:            domain.KindOneTime,
		Status:          domain.PaymentStatusPending,
		Message:         req.Message,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.store.Create(ctx, p); err != nil {
		return nil, domain.ErrInternal("failed to record pending payment", err)
	}

	return &domain.CheckoutResponse{
		OrderID:  order.ID,
		Amount:   order.Amount,
		Currency: order.Currency,
		KeyID:    s.keyID,
	}, nil
}
