package signature

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestVerify_RoundTrip verifies that a signature computed over a body always verifies.
func TestVerify_RoundTrip(t *testing.T) {
	bodies := [][]byte{
		[]byte(`{}`),
		[]byte(`{"id":123,"email":"a@b.co"}`),
		[]byte(``),
		[]byte("binary\x00payload\xff"),
	}
	secrets := []string{"s1", "a-much-longer-shared-secret-value", "日本語"}

	for _, body := range bodies {
		for _, secret := range secrets {
			sig := Compute(body, secret)
			assert.True(t, Verify(body, sig, secret), "body %q secret %q", body, secret)
		}
	}
}

// TestVerify_TamperedBody verifies that flipping any bit of the body fails verification.
func TestVerify_TamperedBody(t *testing.T) {
	secret := "shared-secret"
	body := []byte(`{"id":123,"total":"10.00"}`)
	sig := Compute(body, secret)

	for i := range body {
		tampered := append([]byte(nil), body...)
		tampered[i] ^= 0x01
		assert.False(t, Verify(tampered, sig, secret), "bit flip at byte %d not detected", i)
	}
}

// TestVerify_WrongSecret verifies that a different secret fails verification.
func TestVerify_WrongSecret(t *testing.T) {
	body := []byte(`{"id":1}`)
	sig := Compute(body, "secret-a")

	assert.False(t, Verify(body, sig, "secret-b"))
}

// TestVerify_MissingInputs verifies that empty header or secret never verifies.
func TestVerify_MissingInputs(t *testing.T) {
	body := []byte(`{"id":1}`)

	assert.False(t, Verify(body, "", "secret"))
	assert.False(t, Verify(body, Compute(body, "secret"), ""))
	assert.False(t, Verify(body, "not-base64-at-all", "secret"))
}
