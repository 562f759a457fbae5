package service

import (
	"context"
	"log"
	"time"

	"github.com/getmeachai/backend/internal/domain"
	"github.com/getmeachai/backend/internal/repository"
	"github.com/google/uuid"
)

// Notifier delivers creator notifications. Implementations must be safe to
// treat as fire-and-forget.
type Notifier interface {
	Notify(ctx context.Context, n domain.Notification) error
}

// StoreNotifier writes notifications to the database for the dashboard to
// pick up.
type StoreNotifier struct {
	repo *repository.NotificationRepository
}

func NewStoreNotifier(repo *repository.NotificationRepository) *StoreNotifier {
	return &StoreNotifier{repo: repo}
}

func (n *StoreNotifier) Notify(ctx context.Context, notif domain.Notification) error {
	notif.ID = uuid.New().String()
	notif.CreatedAt = time.Now()
	return n.repo.Create(ctx, &notif)
}

// notify is the best-effort wrapper the reconciler uses: failures are logged
// and never fail the reconciliation that produced them.
func notify(ctx context.Context, n Notifier, notif domain.Notification) {
	if n == nil {
		return
	}
	if err := n.Notify(ctx, notif); err != nil {
		log.Printf("[Notify] failed to deliver %s notification for %s: %v", notif.Type, notif.UserID, err)
	}
}
