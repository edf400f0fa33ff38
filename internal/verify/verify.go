// Package verify implements webhook signature verification for inbound
// provider callbacks.
package verify

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
)

// Header carries the signature on inbound webhook requests.
const Header = "X-Hub-Signature-256"

var (
	ErrMissingSignature = errors.New("missing webhook signature")
	ErrInvalidSignature = errors.New("invalid webhook signature")
)

// Verifier checks the integrity of a raw webhook body against the
// provider-supplied signature header.
type Verifier interface {
	Verify(body []byte, signature string) error
}

// HMACVerifier validates sha256= prefixed HMAC hex digests.
type HMACVerifier struct {
	secret []byte
}

// NewHMAC creates a verifier for the given shared secret.
func NewHMAC(secret string) *HMACVerifier {
	return &HMACVerifier{secret: []byte(secret)}
}

// Verify checks the signature in constant time.
func (v *HMACVerifier) Verify(body []byte, signature string) error {
	if signature == "" {
		return ErrMissingSignature
	}
	provided := strings.TrimPrefix(signature, "sha256=")

	mac := hmac.New(sha256.New, v.secret)
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(provided), []byte(expected)) {
		return ErrInvalidSignature
	}
	return nil
}

// NoopVerifier accepts every body. Used when signature enforcement is
// disabled or no secret is configured.
type NoopVerifier struct{}

func (NoopVerifier) Verify([]byte, string) error { return nil }

// ForSecret picks the verifier for a secret + enforcement combination.
func ForSecret(secret string, enforced bool) Verifier {
	if !enforced || secret == "" {
		return NoopVerifier{}
	}
	return NewHMAC(secret)
}
