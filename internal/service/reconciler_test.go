package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/getmeachai/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore is an in-memory PaymentStore + SubscriptionStore that mirrors the
// repository's compare-and-set semantics.
type fakeStore struct {
	payments  map[string]*domain.Payment      // by order id
	chargeIDs map[string]bool                 // gateway payment ids already recorded
	subs      map[string]*domain.Subscription // by gateway subscription id

	campaignAmount     map[string]int64
	campaignSupporters map[string]int64
	creatorRaised      map[string]int64
	creatorSupporters  map[string]int64

	failWith error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		payments:           map[string]*domain.Payment{},
		chargeIDs:          map[string]bool{},
		subs:               map[string]*domain.Subscription{},
		campaignAmount:     map[string]int64{},
		campaignSupporters: map[string]int64{},
		creatorRaised:      map[string]int64{},
		creatorSupporters:  map[string]int64{},
	}
}

func (f *fakeStore) increment(p *domain.Payment) {
	if p.CampaignID != nil {
		f.campaignAmount[*p.CampaignID] += p.Amount
		f.campaignSupporters[*p.CampaignID]++
	}
	f.creatorRaised[p.CreatorUsername] += p.Amount
	f.creatorSupporters[p.CreatorUsername]++
}

func (f *fakeStore) FindByOrderID(ctx context.Context, orderID string) (*domain.Payment, error) {
	return f.payments[orderID], f.failWith
}

func (f *fakeStore) Settle(ctx context.Context, orderID, paymentID string) (*domain.Payment, bool, error) {
	if f.failWith != nil {
		return nil, false, f.failWith
	}
	p := f.payments[orderID]
	if p == nil {
		return nil, false, nil
	}
	if p.Settled {
		return p, false, nil
	}
	p.PaymentID = paymentID
	p.Status = domain.PaymentStatusSuccess
	p.Settled = true
	f.increment(p)
	return p, true, nil
}

func (f *fakeStore) CreateSubscriptionCharge(ctx context.Context, sub *domain.Subscription, paymentID, orderID string, chargedAt time.Time) (bool, error) {
	if f.failWith != nil {
		return false, f.failWith
	}
	if f.chargeIDs[paymentID] {
		return false, nil
	}
	f.chargeIDs[paymentID] = true
	if orderID == "" {
		orderID = "sub_" + paymentID
	}
	charge := &domain.Payment{
		OrderID:         orderID,
		PaymentID:       paymentID,
		CreatorUsername: sub.CreatorUsername,
		CampaignID:      sub.CampaignID,
		Amount:          sub.Amount,
		Kind:            domain.KindSubscription,
		Status:          domain.PaymentStatusSuccess,
		Settled:         true,
	}
	f.payments[orderID] = charge
	f.increment(charge)
	next := sub.NextBillingFrom(chargedAt)
	sub.NextBillingDate = &next
	return true, nil
}

func (f *fakeStore) MarkFailed(ctx context.Context, orderID string) (bool, error) {
	return f.setStatus(orderID, domain.PaymentStatusFailed)
}

func (f *fakeStore) MarkRefunded(ctx context.Context, orderID string) (bool, error) {
	return f.setStatus(orderID, domain.PaymentStatusRefunded)
}

func (f *fakeStore) setStatus(orderID, status string) (bool, error) {
	if f.failWith != nil {
		return false, f.failWith
	}
	p := f.payments[orderID]
	if p == nil {
		return false, nil
	}
	p.Status = status
	return true, nil
}

func (f *fakeStore) FindByGatewayID(ctx context.Context, gatewayID string) (*domain.Subscription, error) {
	return f.subs[gatewayID], f.failWith
}

func (f *fakeStore) Activate(ctx context.Context, gatewayID string, startedAt time.Time) error {
	sub := f.subs[gatewayID]
	sub.Status = domain.SubscriptionStatusActive
	sub.StartDate = &startedAt
	return nil
}

func (f *fakeStore) SetStatus(ctx context.Context, gatewayID, status string) error {
	f.subs[gatewayID].Status = status
	return nil
}

func (f *fakeStore) Close(ctx context.Context, gatewayID, status string, endedAt time.Time) error {
	sub := f.subs[gatewayID]
	sub.Status = status
	sub.EndDate = &endedAt
	return nil
}

type fakeNotifier struct {
	sent []domain.Notification
	err  error
}

func (n *fakeNotifier) Notify(ctx context.Context, notif domain.Notification) error {
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, notif)
	return nil
}

func campaignRef(id string) *string { return &id }

func newTestReconciler(store *fakeStore, notifier *fakeNotifier, now time.Time) *Reconciler {
	r := NewReconciler(store, store, notifier)
	r.now = func() time.Time { return now }
	return r
}

func TestSettleAppliesOnce(t *testing.T) {
	store := newFakeStore()
	store.payments["order_1"] = &domain.Payment{
		OrderID:         "order_1",
		SupporterName:   "Asha",
		CreatorUsername: "democreator",
		CampaignID:      campaignRef("camp_1"),
		Amount:          50000,
		Currency:        "INR",
		Status:          domain.PaymentStatusPending,
	}
	notifier := &fakeNotifier{}
	r := newTestReconciler(store, notifier, time.Now())

	outcome, err := r.Apply(context.Background(), domain.PaymentCaptured{OrderID: "order_1", PaymentID: "pay_1"})
	require.NoError(t, err)
	assert.True(t, outcome.Applied)

	p := store.payments["order_1"]
	assert.Equal(t, domain.PaymentStatusSuccess, p.Status)
	assert.True(t, p.Settled)
	assert.Equal(t, "pay_1", p.PaymentID)
	assert.Equal(t, int64(50000), store.campaignAmount["camp_1"])
	assert.Equal(t, int64(1), store.campaignSupporters["camp_1"])
	assert.Equal(t, int64(50000), store.creatorRaised["democreator"])
	assert.Equal(t, int64(1), store.creatorSupporters["democreator"])

	require.Len(t, notifier.sent, 1)
	assert.Equal(t, domain.NotifyNewSupporter, notifier.sent[0].Type)
	assert.Equal(t, "democreator", notifier.sent[0].UserID)
}

func TestSettleDuplicateDeliveryIsNoOp(t *testing.T) {
	store := newFakeStore()
	store.payments["order_1"] = &domain.Payment{
		OrderID:         "order_1",
		CreatorUsername: "democreator",
		CampaignID:      campaignRef("camp_1"),
		Amount:          50000,
	}
	r := newTestReconciler(store, &fakeNotifier{}, time.Now())
	ev := domain.PaymentCaptured{OrderID: "order_1", PaymentID: "pay_1"}

	first, err := r.Apply(context.Background(), ev)
	require.NoError(t, err)
	assert.True(t, first.Applied)

	second, err := r.Apply(context.Background(), ev)
	require.NoError(t, err)
	assert.False(t, second.Applied)
	assert.Equal(t, "already processed", second.Reason)

	// Exactly one increment, settled stays true.
	assert.Equal(t, int64(50000), store.campaignAmount["camp_1"])
	assert.Equal(t, int64(1), store.campaignSupporters["camp_1"])
	assert.True(t, store.payments["order_1"].Settled)
}

func TestSettleUnknownOrderAcknowledged(t *testing.T) {
	r := newTestReconciler(newFakeStore(), &fakeNotifier{}, time.Now())

	outcome, err := r.Apply(context.Background(), domain.PaymentCaptured{OrderID: "order_missing", PaymentID: "pay_1"})
	require.NoError(t, err)
	assert.False(t, outcome.Applied)
	assert.Equal(t, "payment not found", outcome.Reason)
}

func TestCheckoutVerifiedSettlesLikeCapture(t *testing.T) {
	store := newFakeStore()
	store.payments["order_1"] = &domain.Payment{OrderID: "order_1", CreatorUsername: "c", Amount: 100}
	r := newTestReconciler(store, &fakeNotifier{}, time.Now())

	outcome, err := r.Apply(context.Background(), domain.CheckoutVerified{OrderID: "order_1", PaymentID: "pay_1"})
	require.NoError(t, err)
	assert.True(t, outcome.Applied)
	assert.True(t, store.payments["order_1"].Settled)
}

func TestPaymentFailed(t *testing.T) {
	store := newFakeStore()
	store.payments["order_1"] = &domain.Payment{OrderID: "order_1", CreatorUsername: "c", Amount: 100}
	r := newTestReconciler(store, &fakeNotifier{}, time.Now())

	outcome, err := r.Apply(context.Background(), domain.PaymentFailed{OrderID: "order_1"})
	require.NoError(t, err)
	assert.True(t, outcome.Applied)
	assert.Equal(t, domain.PaymentStatusFailed, store.payments["order_1"].Status)

	// Unknown order is a no-op, not an error.
	outcome, err = r.Apply(context.Background(), domain.PaymentFailed{OrderID: "nope"})
	require.NoError(t, err)
	assert.False(t, outcome.Applied)
}

func TestRefundDoesNotTouchAggregates(t *testing.T) {
	store := newFakeStore()
	store.payments["order_1"] = &domain.Payment{
		OrderID: "order_1", CreatorUsername: "c", CampaignID: campaignRef("camp_1"), Amount: 100,
	}
	r := newTestReconciler(store, &fakeNotifier{}, time.Now())

	_, err := r.Apply(context.Background(), domain.PaymentCaptured{OrderID: "order_1", PaymentID: "pay_1"})
	require.NoError(t, err)

	outcome, err := r.Apply(context.Background(), domain.PaymentRefunded{OrderID: "order_1"})
	require.NoError(t, err)
	assert.True(t, outcome.Applied)
	assert.Equal(t, domain.PaymentStatusRefunded, store.payments["order_1"].Status)

	// Funding totals stay as settled them; refund accounting is external.
	assert.Equal(t, int64(100), store.campaignAmount["camp_1"])
	assert.Equal(t, int64(1), store.campaignSupporters["camp_1"])
}

func TestSubscriptionActivated(t *testing.T) {
	store := newFakeStore()
	store.subs["sub_1"] = &domain.Subscription{
		ID: "id1", GatewaySubscriptionID: "sub_1", CreatorUsername: "democreator",
		Amount: 9900, Frequency: domain.FrequencyMonthly, Status: domain.SubscriptionStatusPending,
	}
	notifier := &fakeNotifier{}
	startedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	r := newTestReconciler(store, notifier, time.Now())

	outcome, err := r.Apply(context.Background(), domain.SubscriptionActivated{SubscriptionID: "sub_1", ActivatedAt: startedAt})
	require.NoError(t, err)
	assert.True(t, outcome.Applied)
	assert.Equal(t, domain.SubscriptionStatusActive, store.subs["sub_1"].Status)
	assert.Equal(t, startedAt, *store.subs["sub_1"].StartDate)
	require.Len(t, notifier.sent, 1)
	assert.Equal(t, domain.NotifySubscriptionStarted, notifier.sent[0].Type)
}

func TestSubscriptionChargedAdvancesBilling(t *testing.T) {
	store := newFakeStore()
	store.subs["sub_1"] = &domain.Subscription{
		ID: "id1", GatewaySubscriptionID: "sub_1", CreatorUsername: "democreator",
		CampaignID: campaignRef("camp_1"), Amount: 9900,
		Frequency: domain.FrequencyMonthly, Status: domain.SubscriptionStatusActive,
	}
	now := time.Date(2026, 8, 15, 10, 0, 0, 0, time.UTC)
	r := newTestReconciler(store, &fakeNotifier{}, now)

	outcome, err := r.Apply(context.Background(), domain.SubscriptionCharged{SubscriptionID: "sub_1", PaymentID: "pay_7"})
	require.NoError(t, err)
	assert.True(t, outcome.Applied)

	// One new settled payment, aggregates incremented, anchor = now + 1 month.
	charge := store.payments["sub_pay_7"]
	require.NotNil(t, charge)
	assert.True(t, charge.Settled)
	assert.Equal(t, domain.KindSubscription, charge.Kind)
	assert.Equal(t, int64(9900), store.campaignAmount["camp_1"])
	assert.Equal(t, now.AddDate(0, 1, 0), *store.subs["sub_1"].NextBillingDate)
}

func TestSubscriptionChargedDuplicateIsNoOp(t *testing.T) {
	store := newFakeStore()
	store.subs["sub_1"] = &domain.Subscription{
		ID: "id1", GatewaySubscriptionID: "sub_1", CreatorUsername: "c",
		CampaignID: campaignRef("camp_1"), Amount: 9900, Frequency: domain.FrequencyMonthly,
	}
	r := newTestReconciler(store, &fakeNotifier{}, time.Now())
	ev := domain.SubscriptionCharged{SubscriptionID: "sub_1", PaymentID: "pay_7"}

	_, err := r.Apply(context.Background(), ev)
	require.NoError(t, err)
	second, err := r.Apply(context.Background(), ev)
	require.NoError(t, err)
	assert.False(t, second.Applied)
	assert.Equal(t, int64(9900), store.campaignAmount["camp_1"])
	assert.Equal(t, int64(1), store.campaignSupporters["camp_1"])
}

func TestSubscriptionChargedUnknownSubscription(t *testing.T) {
	r := newTestReconciler(newFakeStore(), &fakeNotifier{}, time.Now())

	outcome, err := r.Apply(context.Background(), domain.SubscriptionCharged{SubscriptionID: "sub_missing", PaymentID: "pay_1"})
	require.NoError(t, err)
	assert.False(t, outcome.Applied)
	assert.Equal(t, "subscription not found", outcome.Reason)
}

func TestSubscriptionQuarterlyBilling(t *testing.T) {
	store := newFakeStore()
	store.subs["sub_q"] = &domain.Subscription{
		ID: "idq", GatewaySubscriptionID: "sub_q", CreatorUsername: "c",
		Amount: 100, Frequency: domain.FrequencyQuarterly,
	}
	now := time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC)
	r := newTestReconciler(store, &fakeNotifier{}, now)

	_, err := r.Apply(context.Background(), domain.SubscriptionCharged{SubscriptionID: "sub_q", PaymentID: "pay_q"})
	require.NoError(t, err)
	assert.Equal(t, now.AddDate(0, 3, 0), *store.subs["sub_q"].NextBillingDate)
}

func TestSubscriptionLifecycleTransitions(t *testing.T) {
	store := newFakeStore()
	store.subs["sub_1"] = &domain.Subscription{
		ID: "id1", GatewaySubscriptionID: "sub_1", CreatorUsername: "democreator",
		Amount: 100, Frequency: domain.FrequencyMonthly, Status: domain.SubscriptionStatusActive,
	}
	notifier := &fakeNotifier{}
	now := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)
	r := newTestReconciler(store, notifier, now)

	_, err := r.Apply(context.Background(), domain.SubscriptionPaused{SubscriptionID: "sub_1"})
	require.NoError(t, err)
	assert.Equal(t, domain.SubscriptionStatusPaused, store.subs["sub_1"].Status)

	_, err = r.Apply(context.Background(), domain.SubscriptionResumed{SubscriptionID: "sub_1"})
	require.NoError(t, err)
	assert.Equal(t, domain.SubscriptionStatusActive, store.subs["sub_1"].Status)

	outcome, err := r.Apply(context.Background(), domain.SubscriptionCancelled{SubscriptionID: "sub_1"})
	require.NoError(t, err)
	assert.True(t, outcome.Applied)
	assert.Equal(t, domain.SubscriptionStatusCancelled, store.subs["sub_1"].Status)
	assert.Equal(t, now, *store.subs["sub_1"].EndDate)
	require.Len(t, notifier.sent, 1)
	assert.Equal(t, domain.NotifySubscriptionCancelled, notifier.sent[0].Type)
}

func TestSubscriptionCompletedExpires(t *testing.T) {
	store := newFakeStore()
	store.subs["sub_1"] = &domain.Subscription{
		ID: "id1", GatewaySubscriptionID: "sub_1", CreatorUsername: "c",
		Amount: 100, Frequency: domain.FrequencyYearly, Status: domain.SubscriptionStatusActive,
	}
	r := newTestReconciler(store, &fakeNotifier{}, time.Now())

	outcome, err := r.Apply(context.Background(), domain.SubscriptionCompleted{SubscriptionID: "sub_1"})
	require.NoError(t, err)
	assert.True(t, outcome.Applied)
	assert.Equal(t, domain.SubscriptionStatusExpired, store.subs["sub_1"].Status)
	assert.NotNil(t, store.subs["sub_1"].EndDate)
}

func TestUnhandledEventAcknowledged(t *testing.T) {
	r := newTestReconciler(newFakeStore(), &fakeNotifier{}, time.Now())

	outcome, err := r.Apply(context.Background(), domain.Unhandled{Name: "order.paid"})
	require.NoError(t, err)
	assert.False(t, outcome.Applied)
}

func TestStoreErrorPropagates(t *testing.T) {
	store := newFakeStore()
	store.failWith = errors.New("connection reset")
	r := newTestReconciler(store, &fakeNotifier{}, time.Now())

	_, err := r.Apply(context.Background(), domain.PaymentCaptured{OrderID: "order_1", PaymentID: "pay_1"})
	assert.Error(t, err)
}

func TestNotifierFailureDoesNotFailSettlement(t *testing.T) {
	store := newFakeStore()
	store.payments["order_1"] = &domain.Payment{OrderID: "order_1", CreatorUsername: "c", Amount: 100}
	r := newTestReconciler(store, &fakeNotifier{err: errors.New("smtp down")}, time.Now())

	outcome, err := r.Apply(context.Background(), domain.PaymentCaptured{OrderID: "order_1", PaymentID: "pay_1"})
	require.NoError(t, err)
	assert.True(t, outcome.Applied)
	assert.True(t, store.payments["order_1"].Settled)
}
