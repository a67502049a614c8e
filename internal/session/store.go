package session

import (
	"context"
	"time"
)

// Session maps an opaque identifier to a user. It stores identity
// pointers only, never auth state.
type Session struct {
	SessionID string    `json:"session_id"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Store persists sessions. Implementations must treat session IDs as
// opaque and keep each operation atomic at the granularity of one
// session record.
type Store interface {
	Create(ctx context.Context, s Session) error
	Get(ctx context.Context, sessionID string) (*Session, error)
	Delete(ctx context.Context, sessionID string) error
}
