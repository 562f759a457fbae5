package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"testing"

	"github.com/getmeachai/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sign(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifyBody(t *testing.T) {
	v := NewWebhookVerifier("whsec", true)
	body := []byte(`{"event":"payment.captured"}`)

	assert.NoError(t, v.VerifyBody(body, sign("whsec", body)))

	err := v.VerifyBody(body, sign("wrong-secret", body))
	require.Error(t, err)
	appErr, ok := domain.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, appErr.Code)
}

func TestVerifyBodyTamperedPayload(t *testing.T) {
	v := NewWebhookVerifier("whsec", true)
	sig := sign("whsec", []byte(`{"amount":100}`))

	assert.Error(t, v.VerifyBody([]byte(`{"amount":100000}`), sig))
}

func TestVerifyCheckout(t *testing.T) {
	v := NewCheckoutVerifier("keysec", true)

	sig := sign("keysec", []byte("order_1|pay_1"))
	assert.NoError(t, v.VerifyCheckout("order_1", "pay_1", sig))

	// Signature over a different order must not verify.
	assert.Error(t, v.VerifyCheckout("order_2", "pay_1", sig))
	assert.Error(t, v.VerifyCheckout("order_1", "pay_1", "deadbeef"))
}

func TestMissingSecretFailsClosedInProduction(t *testing.T) {
	for _, v := range []*Verifier{
		NewWebhookVerifier("", true),
		NewCheckoutVerifier("", true),
	} {
		err := v.VerifyBody([]byte("payload"), "whatever")
		require.Error(t, err)
		appErr, ok := domain.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, http.StatusInternalServerError, appErr.Code)
	}
}

func TestMissingSecretSkipsOutsideProduction(t *testing.T) {
	v := NewWebhookVerifier("", false)
	assert.NoError(t, v.VerifyBody([]byte("payload"), "anything"))

	cv := NewCheckoutVerifier("", false)
	assert.NoError(t, cv.VerifyCheckout("order_1", "pay_1", "anything"))
}

func TestTruncateNeverLogsFullSignature(t *testing.T) {
	assert.Equal(t, "short", truncate("short"))
	assert.Equal(t, "12345678…", truncate("123456789abcdef"))
}
