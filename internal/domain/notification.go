package domain

import "time"

// Notification types emitted by the reconciler.
const (
	NotifyNewSupporter          = "new_supporter"
	NotifySubscriptionStarted   = "subscription_started"
	NotifySubscriptionCancelled = "subscription_cancelled"
)

// Notification is a creator-facing message. Delivery is best-effort: a failed
// notification is logged and never fails the reconciliation that produced it.
type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Link      string    `json:"link,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
