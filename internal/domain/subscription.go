package domain

import "time"

// Subscription statuses. The lifecycle is
// pending → active → {paused ↔ active} → {cancelled, expired}.
const (
	SubscriptionStatusPending   = "pending"
	SubscriptionStatusActive    = "active"
	SubscriptionStatusPaused    = "paused"
	SubscriptionStatusCancelled = "cancelled"
	SubscriptionStatusExpired   = "expired"
)

// Billing frequencies.
const (
	FrequencyMonthly   = "monthly"
	FrequencyQuarterly = "quarterly"
	FrequencyYearly    = "yearly"
)

// Subscription represents a recurring funding agreement with a creator.
// Each successful charge creates a new Payment linked via SubscriptionID.
type Subscription struct {
	ID                    string     `json:"id"`
	GatewaySubscriptionID string     `json:"gatewaySubscriptionId"`
	CreatorUsername       string     `json:"creatorUsername"`
	CampaignID            *string    `json:"campaignId,omitempty"`
	Amount                int64      `json:"amount"`
	Frequency             string     `json:"frequency"`
	Status                string     `json:"status"`
	StartDate             *time.Time `json:"startDate,omitempty"`
	EndDate               *time.Time `json:"endDate,omitempty"`
	NextBillingDate       *time.Time `json:"nextBillingDate,omitempty"`
	CreatedAt             time.Time  `json:"createdAt"`
	UpdatedAt             time.Time  `json:"updatedAt"`
}

// NextBillingFrom returns the billing anchor advanced one frequency period
// from the given charge time. The anchor advances from the charge time, not
// the previous anchor, so a late charge shifts the whole cycle forward.
func (s *Subscription) NextBillingFrom(chargedAt time.Time) time.Time {
	switch s.Frequency {
	case FrequencyQuarterly:
		return chargedAt.AddDate(0, 3, 0)
	case FrequencyYearly:
		return chargedAt.AddDate(1, 0, 0)
	default:
		return chargedAt.AddDate(0, 1, 0)
	}
}
