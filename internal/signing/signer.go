package signing

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"sort"
)

// Sign computes the request signature the backend verifies on every
// forwarded report.
//
// The signed content is the full URL followed by every key+value pair in
// byte-lexicographic key order, with no separators. The digest is
// HMAC-SHA1, base64 encoded. Param ordering and concatenation are a wire
// contract shared with the verifier; do not change them.
func Sign(secret, url string, params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	mac := hmac.New(sha1.New, []byte(secret))
	mac.Write([]byte(url))
	for _, k := range keys {
		mac.Write([]byte(k))
		mac.Write([]byte(params[k]))
	}
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// Validate reports whether signature matches Sign(secret, url, params).
// Comparison is constant-time.
func Validate(secret, url string, params map[string]string, signature string) bool {
	want := Sign(secret, url, params)
	return hmac.Equal([]byte(want), []byte(signature))
}

const saltLength = 64

// StoredPassword is a password at rest: the double-encoded digest plus the
// base64 salt it was derived with.
type StoredPassword struct {
	HashedPassword string `json:"hashed_password"`
	Salt           string `json:"salt"`
}

// HashValueWithSalt derives the hex digest for a value:
// hex(HMAC-SHA256(key, value || salt)).
func HashValueWithSalt(value string, key, salt []byte) string {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(value))
	mac.Write(salt)
	return hex.EncodeToString(mac.Sum(nil))
}

// StorePassword hashes a password with a fresh 64-byte salt.
//
// The stored form is base64 of the hex digest string. The double encoding
// is required for compatibility with previously stored values and must not
// be collapsed to a single encoding.
func StorePassword(password string, key []byte) (StoredPassword, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return StoredPassword{}, fmt.Errorf("signing: generate salt: %w", err)
	}
	digest := HashValueWithSalt(password, key, salt)
	return StoredPassword{
		HashedPassword: base64.StdEncoding.EncodeToString([]byte(digest)),
		Salt:           base64.StdEncoding.EncodeToString(salt),
	}, nil
}

// VerifyPassword re-derives the digest for candidate using the stored salt
// and compares it to the stored hash in constant time.
func VerifyPassword(candidate string, key []byte, stored StoredPassword) (bool, error) {
	salt, err := base64.StdEncoding.DecodeString(stored.Salt)
	if err != nil {
		return false, fmt.Errorf("signing: decode salt: %w", err)
	}
	digest := HashValueWithSalt(candidate, key, salt)
	encoded := base64.StdEncoding.EncodeToString([]byte(digest))
	return hmac.Equal([]byte(encoded), []byte(stored.HashedPassword)), nil
}
