package user

import (
	"context"
	"fmt"
)

// Refresh token registry. Each mutation is one statement against the
// refresh_tokens table, never a read-modify-write of the collection.

// AddRefreshToken appends an outstanding refresh credential.
func (s *Store) AddRefreshToken(ctx context.Context, userID string, rt RefreshToken) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO refresh_tokens (user_id, token_hash, expires_at)
		VALUES ($1, $2, $3)
	`, userID, rt.TokenHash, rt.ExpiresAt)
	if isUniqueViolation(err) {
		// Same token appended twice is a no-op, not an error.
		return nil
	}
	if err != nil {
		return fmt.Errorf("add refresh token: %w", err)
	}
	return nil
}

// RemoveRefreshToken revokes one credential. Removing an unknown token
// is not an error: logout must be idempotent.
func (s *Store) RemoveRefreshToken(ctx context.Context, userID, tokenHash string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM refresh_tokens
		WHERE user_id = $1 AND token_hash = $2
	`, userID, tokenHash)
	if err != nil {
		return fmt.Errorf("remove refresh token: %w", err)
	}
	return nil
}

// RemoveAllRefreshTokens revokes every credential for one user.
func (s *Store) RemoveAllRefreshTokens(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM refresh_tokens WHERE user_id = $1
	`, userID)
	if err != nil {
		return fmt.Errorf("remove all refresh tokens: %w", err)
	}
	return nil
}

// HasRefreshToken reports whether the credential is outstanding and
// unexpired. Expiry is checked here as well as in token verification:
// stale rows may linger until reaped and must never count as valid.
func (s *Store) HasRefreshToken(ctx context.Context, userID, tokenHash string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM refresh_tokens
			WHERE user_id = $1
			  AND token_hash = $2
			  AND expires_at > NOW()
		)
	`, userID, tokenHash).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("has refresh token: %w", err)
	}
	return exists, nil
}
