package domain

import "time"

// Payment statuses.
const (
	PaymentStatusPending  = "pending"
	PaymentStatusSuccess  = "success"
	PaymentStatusFailed   = "failed"
	PaymentStatusRefunded = "refunded"
)

// Payment kinds.
const (
	KindOneTime      = "one-time"
	KindSubscription = "subscription"
)

// Payment represents one funding transaction: a one-time contribution or a
// single subscription charge. Amounts are integer minor units (paise).
type Payment struct {
	ID              string    `json:"id"`
	OrderID         string    `json:"orderId"`
	PaymentID       string    `json:"paymentId"`
	SupporterName   string    `json:"supporterName"`
	SupporterEmail  string    `json:"supporterEmail"`
	CreatorUsername string    `json:"creatorUsername"`
	CampaignID      *string   `json:"campaignId,omitempty"`
	SubscriptionID  *string   `json:"subscriptionId,omitempty"`
	Amount          int64     `json:"amount"`
	Currency        string    `json:"currency"`
	Kind            string    `json:"kind"`
	Status          string    `json:"status"`
	Settled         bool      `json:"settled"`
	Message         string    `json:"message,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// CreateCheckoutRequest is the input for initiating a checkout order.
type CreateCheckoutRequest struct {
	SupporterName  string  `json:"supporterName" validate:"required,max=100"`
	SupporterEmail string  `json:"supporterEmail" validate:"required,email"`
	Creator        string  `json:"creator" validate:"required,max=64"`
	CampaignID     *string `json:"campaignId,omitempty"`
	Amount         int64   `json:"amount" validate:"required,gt=0"`
	Currency       string  `json:"currency" validate:"omitempty,len=3"`
	Message        string  `json:"message" validate:"max=500"`
}

// CheckoutResponse carries what the client needs to open the gateway checkout.
type CheckoutResponse struct {
	OrderID  string `json:"orderId"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	KeyID    string `json:"keyId"`
}
