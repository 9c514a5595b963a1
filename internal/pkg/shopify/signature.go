package shopify

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"strings"
)

// VerifyWebhookSignature checks the X-Shopify-Hmac-Sha256 header against the
// raw request body. The signature is HMAC-SHA256 over the raw bytes, base64
// encoded. Comparison goes through hmac.Equal so timing does not depend on
// where the first mismatch occurs.
func VerifyWebhookSignature(body []byte, signatureHeader, sharedSecret string) bool {
	sig := strings.TrimSpace(signatureHeader)
	secret := strings.TrimSpace(sharedSecret)
	if sig == "" || secret == "" {
		return false
	}

	provided, err := base64.StdEncoding.DecodeString(sig)
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := mac.Sum(nil)

	if len(provided) != len(expected) {
		return false
	}
	return hmac.Equal(provided, expected)
}

// ComputeWebhookSignature returns the base64 HMAC-SHA256 of body. Exported for
// tests and for registering outbound webhook calls in tooling.
func ComputeWebhookSignature(body []byte, sharedSecret string) string {
	mac := hmac.New(sha256.New, []byte(sharedSecret))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
