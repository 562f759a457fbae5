package domain

import "time"

// EventKind identifies one of the fixed set of logical events the reconciler
// knows how to apply.
type EventKind string

const (
	EventPaymentCaptured       EventKind = "payment.captured"
	EventPaymentFailed         EventKind = "payment.failed"
	EventPaymentRefunded       EventKind = "refund.processed"
	EventCheckoutVerified      EventKind = "checkout.verified"
	EventSubscriptionActivated EventKind = "subscription.activated"
	EventSubscriptionCharged   EventKind = "subscription.charged"
	EventSubscriptionCancelled EventKind = "subscription.cancelled"
	EventSubscriptionPaused    EventKind = "subscription.paused"
	EventSubscriptionResumed   EventKind = "subscription.resumed"
	EventSubscriptionCompleted EventKind = "subscription.completed"
	EventUnhandled             EventKind = "unhandled"
)

// Event is a fully parsed, trusted-shape logical event. Each concrete type
// carries only the fields its kind guarantees; the classifier fails fast on
// missing required fields instead of letting zero values flow downstream.
type Event interface {
	Kind() EventKind
}

// PaymentCaptured reports a one-time payment captured by the gateway.
type PaymentCaptured struct {
	OrderID   string
	PaymentID string
}

func (PaymentCaptured) Kind() EventKind { return EventPaymentCaptured }

// PaymentFailed reports a failed checkout attempt.
type PaymentFailed struct {
	OrderID string
}

func (PaymentFailed) Kind() EventKind { return EventPaymentFailed }

// PaymentRefunded reports a completed refund for a captured payment.
type PaymentRefunded struct {
	OrderID string
}

func (PaymentRefunded) Kind() EventKind { return EventPaymentRefunded }

// CheckoutVerified is the client-side callback asserting a payment completed.
// Signature carries the client-submitted HMAC over "orderID|paymentID"; the
// handler must verify it before the event is applied.
type CheckoutVerified struct {
	OrderID   string
	PaymentID string
	Signature string
}

func (CheckoutVerified) Kind() EventKind { return EventCheckoutVerified }

// SubscriptionActivated reports a subscription's first successful auth.
type SubscriptionActivated struct {
	SubscriptionID string
	ActivatedAt    time.Time // zero when the gateway omitted the timestamp
}

func (SubscriptionActivated) Kind() EventKind { return EventSubscriptionActivated }

// SubscriptionCharged reports one successful recurring charge.
type SubscriptionCharged struct {
	SubscriptionID string
	PaymentID      string
	OrderID        string // optional; synthesized when absent
}

func (SubscriptionCharged) Kind() EventKind { return EventSubscriptionCharged }

// SubscriptionCancelled reports cancellation by supporter or creator.
type SubscriptionCancelled struct {
	SubscriptionID string
}

func (SubscriptionCancelled) Kind() EventKind { return EventSubscriptionCancelled }

// SubscriptionPaused reports a paused mandate.
type SubscriptionPaused struct {
	SubscriptionID string
}

func (SubscriptionPaused) Kind() EventKind { return EventSubscriptionPaused }

// SubscriptionResumed reports a previously paused mandate resuming.
type SubscriptionResumed struct {
	SubscriptionID string
}

func (SubscriptionResumed) Kind() EventKind { return EventSubscriptionResumed }

// SubscriptionCompleted reports a subscription that ran its full term.
type SubscriptionCompleted struct {
	SubscriptionID string
}

func (SubscriptionCompleted) Kind() EventKind { return EventSubscriptionCompleted }

// Unhandled is any webhook event name outside the fixed set. It is
// acknowledged and logged, never applied.
type Unhandled struct {
	Name string
}

func (Unhandled) Kind() EventKind { return EventUnhandled }
