package session

import (
	"context"
	"time"
)

// Authority owns the browser session lifecycle: opaque ID generation,
// cookie signing and the store mapping IDs to users.
type Authority struct {
	store  Store
	secret []byte
	ttl    time.Duration
}

func NewAuthority(store Store, secret string, ttl time.Duration) *Authority {
	return &Authority{
		store:  store,
		secret: []byte(secret),
		ttl:    ttl,
	}
}

// Establish creates a session for the user and returns the signed
// cookie value plus the session record (for cookie expiry).
func (a *Authority) Establish(ctx context.Context, userID string) (string, Session, error) {
	id, err := GenerateID()
	if err != nil {
		return "", Session{}, err
	}

	now := time.Now()
	sess := Session{
		SessionID: id,
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(a.ttl),
	}

	if err := a.store.Create(ctx, sess); err != nil {
		return "", Session{}, err
	}

	return SignID(id, a.secret), sess, nil
}

// Resolve maps a signed cookie value to a user ID. Any failure along
// the way (bad signature, unknown session, expiry) resolves to "no
// session"; the caller decides whether that is fatal.
func (a *Authority) Resolve(ctx context.Context, cookieValue string) (string, bool) {
	id, ok := VerifySignedID(cookieValue, a.secret)
	if !ok {
		return "", false
	}

	sess, err := a.store.Get(ctx, id)
	if err != nil || sess == nil {
		return "", false
	}

	if time.Now().After(sess.ExpiresAt) {
		_ = a.store.Delete(ctx, id)
		return "", false
	}

	return sess.UserID, true
}

// Destroy removes the session behind a signed cookie value. Unknown or
// tampered values are ignored so logout stays idempotent.
func (a *Authority) Destroy(ctx context.Context, cookieValue string) {
	if id, ok := VerifySignedID(cookieValue, a.secret); ok {
		_ = a.store.Delete(ctx, id)
	}
}
