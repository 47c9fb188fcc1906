package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
)

// Verify checks the authenticity of a webhook payload against a shared secret.
// The digest is HMAC-SHA256 over the exact raw request body, base64 encoded,
// and compared to the signature header in constant time. The body must be the
// bytes as received on the wire; re-serializing the parsed payload breaks
// verification.
func Verify(rawBody []byte, signatureHeader string, sharedSecret string) bool {
	if signatureHeader == "" || sharedSecret == "" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(sharedSecret))
	mac.Write(rawBody)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(signatureHeader))
}

// Compute returns the base64-encoded HMAC-SHA256 signature for a body.
// Used by tests and by outbound calls that sign their own payloads.
func Compute(body []byte, sharedSecret string) string {
	mac := hmac.New(sha256.New, []byte(sharedSecret))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
