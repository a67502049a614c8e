package session

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strings"
)

// GenerateID generates a cryptographically secure session ID.
// 32 bytes = 256 bits of entropy.
func GenerateID() (string, error) {
	const size = 32

	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("session: failed to generate id: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(b), nil
}

func signature(id string, secret []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(id))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// SignID binds a session ID to the session secret. The cookie carries
// "<id>.<hmac>" so a forged or truncated value is rejected before any
// store lookup.
func SignID(id string, secret []byte) string {
	return id + "." + signature(id, secret)
}

// VerifySignedID returns the embedded session ID when the signature
// checks out.
func VerifySignedID(value string, secret []byte) (string, bool) {
	id, sig, found := strings.Cut(value, ".")
	if !found || id == "" {
		return "", false
	}
	if !hmac.Equal([]byte(sig), []byte(signature(id, secret))) {
		return "", false
	}
	return id, true
}
