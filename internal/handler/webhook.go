package handler

import (
	"context"
	"io"
	"log"
	"net/http"

	"github.com/getmeachai/backend/internal/domain"
	"github.com/getmeachai/backend/internal/event"
	"github.com/getmeachai/backend/internal/service"
	"github.com/getmeachai/backend/pkg/signature"
)

// maxWebhookBody bounds webhook payloads at 1 MiB.
const maxWebhookBody = 1 << 20

// EventLog tracks processed gateway event ids. It is an optimization against
// retry storms; at-most-once settlement is guaranteed by the store's
// compare-and-set regardless.
type EventLog interface {
	Seen(ctx context.Context, eventID string) (bool, error)
	Record(ctx context.Context, eventID, eventType string) (bool, error)
}

// WebhookHandler receives gateway webhook events and client verification
// callbacks on a single endpoint, dispatching on Content-Type.
type WebhookHandler struct {
	webhookVerifier  *signature.Verifier
	checkoutVerifier *signature.Verifier
	reconciler       *service.Reconciler
	events           EventLog
}

func NewWebhookHandler(webhookVerifier, checkoutVerifier *signature.Verifier, reconciler *service.Reconciler, events EventLog) *WebhookHandler {
	return &WebhookHandler{
		webhookVerifier:  webhookVerifier,
		checkoutVerifier: checkoutVerifier,
		reconciler:       reconciler,
		events:           events,
	}
}

// Handle handles POST /webhook.
//
// Flow: read raw body → classify → verify signature → duplicate pre-filter →
// apply transition → acknowledge. Not-found and duplicate outcomes still
// acknowledge with 200 so the gateway stops retrying; classification and
// signature failures answer 400 and store failures 500 (both retryable).
func (h *WebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		nack(w, domain.ErrBadRequest("failed to read body"))
		return
	}

	ev, err := event.Classify(r.Header.Get("Content-Type"), body)
	if err != nil {
		nack(w, err)
		return
	}

	// Signature check before any mutation. Webhook events sign the raw body;
	// the checkout callback signs the order|payment pair.
	if cv, ok := ev.(domain.CheckoutVerified); ok {
		if err := h.checkoutVerifier.VerifyCheckout(cv.OrderID, cv.PaymentID, cv.Signature); err != nil {
			nack(w, err)
			return
		}
	} else {
		if err := h.webhookVerifier.VerifyBody(body, r.Header.Get("X-Razorpay-Signature")); err != nil {
			nack(w, err)
			return
		}
	}

	eventID := r.Header.Get("X-Razorpay-Event-Id")
	if eventID != "" {
		seen, err := h.events.Seen(r.Context(), eventID)
		if err != nil {
			nack(w, domain.ErrInternal("event lookup failed", err))
			return
		}
		if seen {
			log.Printf("[Webhook] duplicate delivery of event %s ignored", eventID)
			ack(w)
			return
		}
	}

	outcome, err := h.reconciler.Apply(r.Context(), ev)
	if err != nil {
		nack(w, domain.ErrInternal("reconciliation failed", err))
		return
	}

	// Record after a successful apply so a failed apply can still be retried.
	if eventID != "" {
		if _, err := h.events.Record(r.Context(), eventID, string(outcome.Event)); err != nil {
			log.Printf("[Webhook] failed to record event %s: %v", eventID, err)
		}
	}

	ack(w)
}

func ack(w http.ResponseWriter) {
	JSON(w, http.StatusOK, map[string]bool{"success": true, "received": true})
}

// nack answers a terminal or retryable failure with the taxonomy's status
// code and a minimal body carrying no internal detail.
func nack(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if appErr, ok := domain.AsAppError(err); ok {
		status = appErr.Code
	}
	log.Printf("[Webhook] rejected (%d): %v", status, err)
	JSON(w, status, map[string]bool{"success": false, "received": true})
}
