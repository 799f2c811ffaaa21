package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"testing"
)

func TestSignMatchesReferenceHMAC(t *testing.T) {
	payload := []byte(`{"event":"prompt.created","data":{"id":"abc"}}`)
	secret := "whsec_deadbeef"

	got := sign(payload, secret)

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	want := "sha256=" + hex.EncodeToString(mac.Sum(nil))
	if got != want {
		t.Fatalf("signature mismatch: got %s, want %s", got, want)
	}
}

func TestSignVariesWithSecret(t *testing.T) {
	payload := []byte(`{}`)
	if sign(payload, "a") == sign(payload, "b") {
		t.Fatal("different secrets must produce different signatures")
	}
	if !strings.HasPrefix(sign(payload, "a"), "sha256=") {
		t.Fatal("signature must carry the sha256= prefix")
	}
}

func TestGenerateSecretFormat(t *testing.T) {
	s1, err := generateSecret()
	if err != nil {
		t.Fatalf("generate secret: %v", err)
	}
	s2, _ := generateSecret()

	if !strings.HasPrefix(s1, "whsec_") {
		t.Errorf("secret missing prefix: %s", s1)
	}
	if len(s1) <= len("whsec_") {
		t.Errorf("secret too short: %s", s1)
	}
	if s1 == s2 {
		t.Error("secrets must be unique")
	}
}
