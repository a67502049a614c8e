package token

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrTokenInvalid covers malformed, unsigned, wrong-kind and revoked
	// tokens. Clients holding one must re-authenticate.
	ErrTokenInvalid = errors.New("invalid token")
	// ErrTokenExpired is a well-formed token past its expiry. Clients
	// holding an expired access token should refresh instead.
	ErrTokenExpired = errors.New("token expired")
)

// kindRefresh discriminates refresh tokens from access tokens so one
// kind can never be replayed as the other.
const kindRefresh = "refresh"

type claims struct {
	TokenType string `json:"type,omitempty"`
	jwt.RegisteredClaims
}

// Authority issues and verifies the two self-contained token kinds.
// Access and refresh tokens are signed with independent secrets, so a
// leaked refresh secret does not forge access tokens or vice versa.
// All methods are pure and safe for concurrent use.
type Authority struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

type Config struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

// NewAuthority validates the signing configuration. Missing secrets are
// a deployment error and must abort startup, never degrade silently.
func NewAuthority(cfg Config) (*Authority, error) {
	if cfg.AccessSecret == "" {
		return nil, errors.New("access token secret is not configured")
	}
	if cfg.RefreshSecret == "" {
		return nil, errors.New("refresh token secret is not configured")
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errors.New("token TTLs must be positive")
	}

	return &Authority{
		accessSecret:  []byte(cfg.AccessSecret),
		refreshSecret: []byte(cfg.RefreshSecret),
		accessTTL:     cfg.AccessTTL,
		refreshTTL:    cfg.RefreshTTL,
	}, nil
}

func (a *Authority) sign(userID, kind string, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	c := claims{
		TokenType: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			// Unique per token so two logins in the same second still
			// produce distinct, independently revocable credentials.
			ID: uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// IssueAccess returns a short-lived access token for the user.
func (a *Authority) IssueAccess(userID string) (string, error) {
	return a.sign(userID, "", a.accessSecret, a.accessTTL)
}

// IssueRefresh returns a long-lived refresh token. Possession alone is
// not sufficient to refresh: the registry must also contain it.
func (a *Authority) IssueRefresh(userID string) (string, time.Time, error) {
	expiresAt := time.Now().Add(a.refreshTTL)
	signed, err := a.sign(userID, kindRefresh, a.refreshSecret, a.refreshTTL)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

func (a *Authority) parse(tokenStr string, secret []byte) (*claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &claims{}, func(t *jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	c, ok := parsed.Claims.(*claims)
	if !ok || !parsed.Valid || c.Subject == "" {
		return nil, ErrTokenInvalid
	}
	return c, nil
}

// VerifyAccess returns the user ID carried by a valid access token.
// A refresh token presented here fails: it is signed with the other
// secret and carries the refresh discriminator.
func (a *Authority) VerifyAccess(tokenStr string) (string, error) {
	c, err := a.parse(tokenStr, a.accessSecret)
	if err != nil {
		return "", err
	}
	if c.TokenType != "" {
		return "", ErrTokenInvalid
	}
	return c.Subject, nil
}

// VerifyRefresh returns the user ID carried by a valid refresh token.
// Signature validity and non-expiry are necessary but not sufficient;
// callers must additionally check registry membership for revocation.
func (a *Authority) VerifyRefresh(tokenStr string) (string, error) {
	c, err := a.parse(tokenStr, a.refreshSecret)
	if err != nil {
		return "", err
	}
	if c.TokenType != kindRefresh {
		return "", ErrTokenInvalid
	}
	return c.Subject, nil
}

// Fingerprint is the SHA-256 hex digest under which a refresh token is
// tracked server-side. Raw token values are never persisted.
func Fingerprint(tokenStr string) string {
	sum := sha256.Sum256([]byte(tokenStr))
	return hex.EncodeToString(sum[:])
}
