// Package signature verifies Razorpay HMAC-SHA256 signatures for webhook
// bodies and client-submitted checkout triples.
package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"log"

	"github.com/getmeachai/backend/internal/domain"
)

// Verifier checks hex-encoded HMAC-SHA256 signatures against a shared secret.
//
// An empty secret fails closed when production is set and skips verification
// with a logged warning otherwise. The same gate applies to both modes; the
// checkout path is never allowed to silently skip in production.
type Verifier struct {
	secret     string
	production bool
	name       string // which secret, for log lines
}

// NewWebhookVerifier builds a verifier for raw webhook bodies.
func NewWebhookVerifier(secret string, production bool) *Verifier {
	return &Verifier{secret: secret, production: production, name: "webhook"}
}

// NewCheckoutVerifier builds a verifier for order|payment checkout triples.
func NewCheckoutVerifier(secret string, production bool) *Verifier {
	return &Verifier{secret: secret, production: production, name: "checkout"}
}

// VerifyBody checks the signature of a raw webhook payload.
func (v *Verifier) VerifyBody(body []byte, signature string) error {
	return v.verify(body, signature)
}

// VerifyCheckout checks the signature of a client verification callback. The
// canonical signed string is "orderID|paymentID".
func (v *Verifier) VerifyCheckout(orderID, paymentID, signature string) error {
	return v.verify([]byte(orderID+"|"+paymentID), signature)
}

func (v *Verifier) verify(payload []byte, signature string) error {
	if v.secret == "" {
		if v.production {
			return domain.ErrConfiguration(v.name + " signing secret not configured")
		}
		log.Printf("⚠️  [Signature] no %s secret configured, skipping verification (non-production only)", v.name)
		return nil
	}

	mac := hmac.New(sha256.New, []byte(v.secret))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(signature), []byte(expected)) {
		log.Printf("[Signature] %s verification failed (got %s)", v.name, truncate(signature))
		return domain.ErrSignatureMismatch()
	}
	return nil
}

// truncate shortens a signature for logging so full values never land in logs.
func truncate(s string) string {
	if len(s) <= 8 {
		return s
	}
	return s[:8] + "…"
}
