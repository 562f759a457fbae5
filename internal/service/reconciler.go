package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/getmeachai/backend/internal/domain"
)

// PaymentStore is the slice of payment persistence the reconciler needs.
// Settle and CreateSubscriptionCharge must execute their guard and their
// aggregate increments as one atomic unit.
type PaymentStore interface {
	FindByOrderID(ctx context.Context, orderID string) (*domain.Payment, error)
	Settle(ctx context.Context, orderID, paymentID string) (*domain.Payment, bool, error)
	CreateSubscriptionCharge(ctx context.Context, sub *domain.Subscription, paymentID, orderID string, chargedAt time.Time) (bool, error)
	MarkFailed(ctx context.Context, orderID string) (bool, error)
	MarkRefunded(ctx context.Context, orderID string) (bool, error)
}

// SubscriptionStore is the slice of subscription persistence the reconciler
// needs.
type SubscriptionStore interface {
	FindByGatewayID(ctx context.Context, gatewayID string) (*domain.Subscription, error)
	Activate(ctx context.Context, gatewayID string, startedAt time.Time) error
	SetStatus(ctx context.Context, gatewayID, status string) error
	Close(ctx context.Context, gatewayID, status string, endedAt time.Time) error
}

// Outcome reports what a single event application did. A no-op (duplicate
// delivery, unknown record, unhandled event) is a valid outcome, not an
// error: the webhook must still be acknowledged so the gateway stops
// retrying.
type Outcome struct {
	Event   domain.EventKind
	Applied bool
	Reason  string
}

// Reconciler applies logical payment events to the payment, subscription and
// aggregate records. Every transition is idempotent: re-delivery of the same
// logical event never double-applies its effect.
type Reconciler struct {
	payments PaymentStore
	subs     SubscriptionStore
	notifier Notifier
	now      func() time.Time
}

func NewReconciler(payments PaymentStore, subs SubscriptionStore, notifier Notifier) *Reconciler {
	return &Reconciler{
		payments: payments,
		subs:     subs,
		notifier: notifier,
		now:      time.Now,
	}
}

// Apply runs exactly one state transition for the event. Store failures
// return an error (the caller answers 500 and the gateway retries, which is
// safe); everything else resolves to an Outcome.
func (s *Reconciler) Apply(ctx context.Context, ev domain.Event) (Outcome, error) {
	switch e := ev.(type) {
	case domain.PaymentCaptured:
		return s.settle(ctx, e.OrderID, e.PaymentID, ev.Kind())
	case domain.CheckoutVerified:
		return s.settle(ctx, e.OrderID, e.PaymentID, ev.Kind())
	case domain.PaymentFailed:
		return s.markPayment(ctx, ev.Kind(), e.OrderID, s.payments.MarkFailed)
	case domain.PaymentRefunded:
		return s.markPayment(ctx, ev.Kind(), e.OrderID, s.payments.MarkRefunded)
	case domain.SubscriptionActivated:
		return s.activateSubscription(ctx, e)
	case domain.SubscriptionCharged:
		return s.chargeSubscription(ctx, e)
	case domain.SubscriptionCancelled:
		return s.closeSubscription(ctx, ev.Kind(), e.SubscriptionID, domain.SubscriptionStatusCancelled)
	case domain.SubscriptionCompleted:
		return s.closeSubscription(ctx, ev.Kind(), e.SubscriptionID, domain.SubscriptionStatusExpired)
	case domain.SubscriptionPaused:
		return s.setSubscriptionStatus(ctx, ev.Kind(), e.SubscriptionID, domain.SubscriptionStatusPaused)
	case domain.SubscriptionResumed:
		return s.setSubscriptionStatus(ctx, ev.Kind(), e.SubscriptionID, domain.SubscriptionStatusActive)
	case domain.Unhandled:
		log.Printf("[Reconciler] unhandled event %q acknowledged without mutation", e.Name)
		return Outcome{Event: domain.EventUnhandled, Reason: "unhandled event"}, nil
	default:
		return Outcome{}, fmt.Errorf("unknown event type %T", ev)
	}
}

// settle applies the one-time funding settlement for an order. The store's
// compare-and-set flips settled FALSE→TRUE and increments the campaign and
// creator aggregates atomically; a duplicate or unknown order is a logged
// no-op acknowledged as processed.
func (s *Reconciler) settle(ctx context.Context, orderID, paymentID string, kind domain.EventKind) (Outcome, error) {
	p, applied, err := s.payments.Settle(ctx, orderID, paymentID)
	if err != nil {
		return Outcome{}, fmt.Errorf("settle %s: %w", orderID, err)
	}
	if !applied {
		if p == nil {
			log.Printf("[Reconciler] %s: payment not found for order %s", kind, orderID)
			return Outcome{Event: kind, Reason: "payment not found"}, nil
		}
		log.Printf("[Reconciler] %s: order %s already processed", kind, orderID)
		return Outcome{Event: kind, Reason: "already processed"}, nil
	}

	log.Printf("[Reconciler] settled order %s (%d %s) for %s", orderID, p.Amount, p.Currency, p.CreatorUsername)
	notify(ctx, s.notifier, domain.Notification{
		UserID:  p.CreatorUsername,
		Type:    domain.NotifyNewSupporter,
		Title:   "New supporter!",
		Message: fmt.Sprintf("%s bought you a chai", supporterName(p)),
		Link:    "/dashboard/payments",
	})
	return Outcome{Event: kind, Applied: true}, nil
}

func (s *Reconciler) markPayment(ctx context.Context, kind domain.EventKind, orderID string, mark func(context.Context, string) (bool, error)) (Outcome, error) {
	found, err := mark(ctx, orderID)
	if err != nil {
		return Outcome{}, fmt.Errorf("%s %s: %w", kind, orderID, err)
	}
	if !found {
		log.Printf("[Reconciler] %s: payment not found for order %s", kind, orderID)
		return Outcome{Event: kind, Reason: "payment not found"}, nil
	}
	return Outcome{Event: kind, Applied: true}, nil
}

func (s *Reconciler) activateSubscription(ctx context.Context, e domain.SubscriptionActivated) (Outcome, error) {
	sub, err := s.subs.FindByGatewayID(ctx, e.SubscriptionID)
	if err != nil {
		return Outcome{}, err
	}
	if sub == nil {
		log.Printf("[Reconciler] subscription.activated: unknown subscription %s", e.SubscriptionID)
		return Outcome{Event: e.Kind(), Reason: "subscription not found"}, nil
	}

	startedAt := e.ActivatedAt
	if startedAt.IsZero() {
		startedAt = s.now()
	}
	if err := s.subs.Activate(ctx, e.SubscriptionID, startedAt); err != nil {
		return Outcome{}, err
	}

	notify(ctx, s.notifier, domain.Notification{
		UserID:  sub.CreatorUsername,
		Type:    domain.NotifySubscriptionStarted,
		Title:   "New monthly supporter!",
		Message: fmt.Sprintf("A supporter started a %s subscription of %d", sub.Frequency, sub.Amount),
		Link:    "/dashboard/subscriptions",
	})
	return Outcome{Event: e.Kind(), Applied: true}, nil
}

func (s *Reconciler) chargeSubscription(ctx context.Context, e domain.SubscriptionCharged) (Outcome, error) {
	sub, err := s.subs.FindByGatewayID(ctx, e.SubscriptionID)
	if err != nil {
		return Outcome{}, err
	}
	if sub == nil {
		log.Printf("[Reconciler] subscription.charged: unknown subscription %s", e.SubscriptionID)
		return Outcome{Event: e.Kind(), Reason: "subscription not found"}, nil
	}

	applied, err := s.payments.CreateSubscriptionCharge(ctx, sub, e.PaymentID, e.OrderID, s.now())
	if err != nil {
		return Outcome{}, fmt.Errorf("charge subscription %s: %w", e.SubscriptionID, err)
	}
	if !applied {
		log.Printf("[Reconciler] subscription.charged: charge %s already processed", e.PaymentID)
		return Outcome{Event: e.Kind(), Reason: "already processed"}, nil
	}
	return Outcome{Event: e.Kind(), Applied: true}, nil
}

func (s *Reconciler) closeSubscription(ctx context.Context, kind domain.EventKind, subscriptionID, status string) (Outcome, error) {
	sub, err := s.subs.FindByGatewayID(ctx, subscriptionID)
	if err != nil {
		return Outcome{}, err
	}
	if sub == nil {
		log.Printf("[Reconciler] %s: unknown subscription %s", kind, subscriptionID)
		return Outcome{Event: kind, Reason: "subscription not found"}, nil
	}

	if err := s.subs.Close(ctx, subscriptionID, status, s.now()); err != nil {
		return Outcome{}, err
	}

	if status == domain.SubscriptionStatusCancelled {
		notify(ctx, s.notifier, domain.Notification{
			UserID:  sub.CreatorUsername,
			Type:    domain.NotifySubscriptionCancelled,
			Title:   "Subscription cancelled",
			Message: fmt.Sprintf("A %s subscription of %d was cancelled", sub.Frequency, sub.Amount),
			Link:    "/dashboard/subscriptions",
		})
	}
	return Outcome{Event: kind, Applied: true}, nil
}

func (s *Reconciler) setSubscriptionStatus(ctx context.Context, kind domain.EventKind, subscriptionID, status string) (Outcome, error) {
	sub, err := s.subs.FindByGatewayID(ctx, subscriptionID)
	if err != nil {
		return Outcome{}, err
	}
	if sub == nil {
		log.Printf("[Reconciler] %s: unknown subscription %s", kind, subscriptionID)
		return Outcome{Event: kind, Reason: "subscription not found"}, nil
	}

	if err := s.subs.SetStatus(ctx, subscriptionID, status); err != nil {
		return Outcome{}, err
	}
	return Outcome{Event: kind, Applied: true}, nil
}

func supporterName(p *domain.Payment) string {
	if p.SupporterName != "" {
		return p.SupporterName
	}
	return "Someone"
}
