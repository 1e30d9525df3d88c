package signing

import (
	"encoding/base64"
	"testing"
)

func TestSignDeterministic(t *testing.T) {
	params := map[string]string{"subject_id": "s1", "trackingId": "t1"}
	a := Sign("secret", "https://backend.example/path", params)
	b := Sign("secret", "https://backend.example/path", params)
	if a != b {
		t.Fatalf("expected identical signatures, got %q and %q", a, b)
	}
	if a == "" {
		t.Fatalf("expected non-empty signature")
	}
}

func TestSignOrderIndependent(t *testing.T) {
	// Maps iterate in random order; build the same key set twice via
	// different insertion orders to make the intent explicit.
	first := map[string]string{}
	first["a"] = "1"
	first["b"] = "2"
	first["c"] = "3"

	second := map[string]string{}
	second["c"] = "3"
	second["a"] = "1"
	second["b"] = "2"

	if Sign("k", "https://x", first) != Sign("k", "https://x", second) {
		t.Fatalf("signature must not depend on param insertion order")
	}
}

func TestSignSensitivity(t *testing.T) {
	base := Sign("k", "https://x", map[string]string{"a": "1"})
	if Sign("k2", "https://x", map[string]string{"a": "1"}) == base {
		t.Fatalf("different secret must change signature")
	}
	if Sign("k", "https://y", map[string]string{"a": "1"}) == base {
		t.Fatalf("different url must change signature")
	}
	if Sign("k", "https://x", map[string]string{"a": "2"}) == base {
		t.Fatalf("different param value must change signature")
	}
}

func TestValidate(t *testing.T) {
	params := map[string]string{"CallSid": "CA1"}
	sig := Sign("tok", "https://gw/twilio/status", params)
	if !Validate("tok", "https://gw/twilio/status", params, sig) {
		t.Fatalf("expected valid signature")
	}
	if Validate("tok", "https://gw/twilio/status", params, sig+"x") {
		t.Fatalf("expected tampered signature to fail")
	}
}

func TestStorePasswordRoundTrip(t *testing.T) {
	key := []byte("server-key")
	stored, err := StorePassword("4821", key)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if stored.HashedPassword == "" || stored.Salt == "" {
		t.Fatalf("expected hash and salt")
	}

	salt, err := base64.StdEncoding.DecodeString(stored.Salt)
	if err != nil {
		t.Fatalf("salt must be base64: %v", err)
	}
	if len(salt) != 64 {
		t.Fatalf("expected 64-byte salt, got %d", len(salt))
	}

	ok, err := VerifyPassword("4821", key, stored)
	if err != nil || !ok {
		t.Fatalf("expected stored password to verify, ok=%v err=%v", ok, err)
	}
	ok, err = VerifyPassword("4822", key, stored)
	if err != nil || ok {
		t.Fatalf("expected wrong password to fail, ok=%v err=%v", ok, err)
	}
}

func TestStorePasswordDoubleEncoding(t *testing.T) {
	// The stored hash is base64 over the hex digest string, not over raw
	// digest bytes. Decoding it must yield 64 hex characters.
	stored, err := StorePassword("pw", []byte("k"))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	raw, err := base64.StdEncoding.DecodeString(stored.HashedPassword)
	if err != nil {
		t.Fatalf("hash must be base64: %v", err)
	}
	if len(raw) != 64 {
		t.Fatalf("expected 64 hex chars under base64, got %d", len(raw))
	}
	for _, c := range raw {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')) {
			t.Fatalf("expected lowercase hex payload, got %q", raw)
		}
	}
}

func TestHashValueWithSaltStable(t *testing.T) {
	salt := []byte("0123456789abcdef")
	a := HashValueWithSalt("pw", []byte("k"), salt)
	b := HashValueWithSalt("pw", []byte("k"), salt)
	if a != b {
		t.Fatalf("expected stable digest for fixed salt")
	}
	if HashValueWithSalt("pw", []byte("k"), []byte("other-salt------")) == a {
		t.Fatalf("different salt must change digest")
	}
}
