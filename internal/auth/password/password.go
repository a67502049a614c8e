package password

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const MinLength = 7

// Hash derives a salted bcrypt digest from a plaintext password.
// Hashing failures are internal errors, never authentication failures.
func Hash(plaintext string) (string, error) {
	if len(plaintext) < MinLength {
		return "", fmt.Errorf("password must be at least %d characters", MinLength)
	}

	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(digest), nil
}

// Verify reports whether plaintext matches the stored digest. bcrypt's
// comparison is constant-time with respect to the digest contents.
func Verify(digest, plaintext string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
}

// RandomPlaceholder returns an unguessable placeholder stored for
// OAuth-created users. It is hashed like any password but the plaintext
// is discarded immediately, so it can never succeed at login.
func RandomPlaceholder() string {
	b := make([]byte, 24)
	rand.Read(b)
	return "oauth:" + base64.RawURLEncoding.EncodeToString(b)
}
