// Package event maps untrusted inbound request bodies to typed logical
// events. Classification is pure: no I/O, no mutation.
package event

import (
	"bytes"
	"encoding/json"
	"io"
	"mime"
	"mime/multipart"
	"net/url"
	"strings"
	"time"

	"github.com/getmeachai/backend/internal/domain"
)

// Form field names used by the Razorpay checkout callback.
const (
	fieldOrderID   = "razorpay_order_id"
	fieldPaymentID = "razorpay_payment_id"
	fieldSignature = "razorpay_signature"
)

// envelope is the webhook JSON shape. Nested entities are optional at the
// JSON level; each event kind checks for the fields it requires.
type envelope struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity struct {
				ID      string `json:"id"`
				OrderID string `json:"order_id"`
			} `json:"entity"`
		} `json:"payment"`
		Subscription struct {
			Entity struct {
				ID           string `json:"id"`
				CurrentStart int64  `json:"current_start"`
			} `json:"entity"`
		} `json:"subscription"`
	} `json:"payload"`
}

// Classify parses a raw request body according to its Content-Type and maps
// it to a logical event. JSON bodies are webhook envelopes; form-encoded and
// multipart bodies are client verification callbacks. Anything else is a
// classification error.
func Classify(contentType string, body []byte) (domain.Event, error) {
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return nil, domain.ErrClassification("missing or invalid content type")
	}

	switch {
	case mediaType == "application/json":
		return classifyWebhook(body)
	case mediaType == "application/x-www-form-urlencoded":
		values, err := url.ParseQuery(string(body))
		if err != nil {
			return nil, domain.ErrClassification("malformed form body")
		}
		return classifyCallback(values)
	case strings.HasPrefix(mediaType, "multipart/"):
		values, err := parseMultipart(body, params["boundary"])
		if err != nil {
			return nil, err
		}
		return classifyCallback(values)
	default:
		return nil, domain.ErrClassification("unsupported content type: " + mediaType)
	}
}

func classifyWebhook(body []byte) (domain.Event, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, domain.ErrClassification("invalid JSON body")
	}
	if env.Event == "" {
		return nil, domain.ErrClassification("webhook envelope missing event name")
	}

	payment := env.Payload.Payment.Entity
	sub := env.Payload.Subscription.Entity

	switch domain.EventKind(env.Event) {
	case domain.EventPaymentCaptured:
		if payment.ID == "" || payment.OrderID == "" {
			return nil, domain.ErrClassification("payment.captured missing payment entity")
		}
		return domain.PaymentCaptured{OrderID: payment.OrderID, PaymentID: payment.ID}, nil

	case domain.EventPaymentFailed:
		if payment.OrderID == "" {
			return nil, domain.ErrClassification("payment.failed missing order id")
		}
		return domain.PaymentFailed{OrderID: payment.OrderID}, nil

	case domain.EventPaymentRefunded:
		if payment.OrderID == "" {
			return nil, domain.ErrClassification("refund.processed missing order id")
		}
		return domain.PaymentRefunded{OrderID: payment.OrderID}, nil

	case domain.EventSubscriptionActivated:
		if sub.ID == "" {
			return nil, domain.ErrClassification("subscription.activated missing subscription entity")
		}
		var activatedAt time.Time
		if sub.CurrentStart > 0 {
			activatedAt = time.Unix(sub.CurrentStart, 0).UTC()
		}
		return domain.SubscriptionActivated{SubscriptionID: sub.ID, ActivatedAt: activatedAt}, nil

	case domain.EventSubscriptionCharged:
		if sub.ID == "" || payment.ID == "" {
			return nil, domain.ErrClassification("subscription.charged missing subscription or payment entity")
		}
		return domain.SubscriptionCharged{
			SubscriptionID: sub.ID,
			PaymentID:      payment.ID,
			OrderID:        payment.OrderID,
		}, nil

	case domain.EventSubscriptionCancelled:
		if sub.ID == "" {
			return nil, domain.ErrClassification("subscription.cancelled missing subscription entity")
		}
		return domain.SubscriptionCancelled{SubscriptionID: sub.ID}, nil

	case domain.EventSubscriptionPaused:
		if sub.ID == "" {
			return nil, domain.ErrClassification("subscription.paused missing subscription entity")
		}
		return domain.SubscriptionPaused{SubscriptionID: sub.ID}, nil

	case domain.EventSubscriptionResumed:
		if sub.ID == "" {
			return nil, domain.ErrClassification("subscription.resumed missing subscription entity")
		}
		return domain.SubscriptionResumed{SubscriptionID: sub.ID}, nil

	case domain.EventSubscriptionCompleted:
		if sub.ID == "" {
			return nil, domain.ErrClassification("subscription.completed missing subscription entity")
		}
		return domain.SubscriptionCompleted{SubscriptionID: sub.ID}, nil

	default:
		return domain.Unhandled{Name: env.Event}, nil
	}
}

func classifyCallback(values url.Values) (domain.Event, error) {
	orderID := values.Get(fieldOrderID)
	paymentID := values.Get(fieldPaymentID)
	sig := values.Get(fieldSignature)
	if orderID == "" || paymentID == "" || sig == "" {
		return nil, domain.ErrClassification("verification callback requires razorpay_order_id, razorpay_payment_id and razorpay_signature")
	}
	return domain.CheckoutVerified{OrderID: orderID, PaymentID: paymentID, Signature: sig}, nil
}

func parseMultipart(body []byte, boundary string) (url.Values, error) {
	if boundary == "" {
		return nil, domain.ErrClassification("multipart body missing boundary")
	}
	values := url.Values{}
	reader := multipart.NewReader(bytes.NewReader(body), boundary)
	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, domain.ErrClassification("malformed multipart body")
		}
		data, err := io.ReadAll(part)
		part.Close()
		if err != nil {
			return nil, domain.ErrClassification("malformed multipart body")
		}
		values.Set(part.FormName(), string(data))
	}
	return values, nil
}
