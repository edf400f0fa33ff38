package verify

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"testing"
)

func sign(secret, body string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(body))
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func TestHMACVerifier(t *testing.T) {
	v := NewHMAC("topsecret")
	body := []byte(`{"event":"invitee.created"}`)

	if err := v.Verify(body, sign("topsecret", string(body))); err != nil {
		t.Errorf("valid signature rejected: %v", err)
	}

	if err := v.Verify(body, sign("wrongsecret", string(body))); !errors.Is(err, ErrInvalidSignature) {
		t.Errorf("expected ErrInvalidSignature, got %v", err)
	}

	if err := v.Verify(body, ""); !errors.Is(err, ErrMissingSignature) {
		t.Errorf("expected ErrMissingSignature, got %v", err)
	}

	tampered := []byte(`{"event":"invitee.canceled"}`)
	if err := v.Verify(tampered, sign("topsecret", string(body))); !errors.Is(err, ErrInvalidSignature) {
		t.Errorf("tampered body must fail, got %v", err)
	}
}

func TestHMACVerifierAcceptsBarePrefix(t *testing.T) {
	v := NewHMAC("topsecret")
	body := []byte("payload")

	mac := hmac.New(sha256.New, []byte("topsecret"))
	mac.Write(body)
	bare := hex.EncodeToString(mac.Sum(nil))

	if err := v.Verify(body, bare); err != nil {
		t.Errorf("signature without sha256= prefix rejected: %v", err)
	}
}

func TestForSecret(t *testing.T) {
	if _, ok := ForSecret("", true).(NoopVerifier); !ok {
		t.Error("missing secret must disable verification")
	}
	if _, ok := ForSecret("s", false).(NoopVerifier); !ok {
		t.Error("enforcement off must disable verification")
	}
	if _, ok := ForSecret("s", true).(*HMACVerifier); !ok {
		t.Error("secret with enforcement must verify")
	}

	if err := (NoopVerifier{}).Verify([]byte("x"), "junk"); err != nil {
		t.Error("noop verifier must accept everything")
	}
}
