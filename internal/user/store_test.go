package user

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"messaging-service/internal/db"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return NewStore(&db.DB{DB: conn}), mock
}

func userRows() *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "username", "email", "password_hash",
		"first_name", "last_name", "profile_picture", "bio",
		"auth_provider", "email_verified", "last_active", "created_at", "updated_at",
	}).AddRow(
		"u-1", "alice", "alice@example.com", "$2a$10$hash",
		"Alice", "Smith", "", "",
		ProviderLocal, false, now, now, now,
	)
}

func TestStoreCreate(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs("alice", "alice@example.com", "$2a$10$hash",
			"Alice", "Smith", "", "", ProviderLocal, false).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("u-1"))

	id, err := store.Create(context.Background(), &User{
		Username:     "alice",
		Email:        "alice@example.com",
		PasswordHash: "$2a$10$hash",
		FirstName:    "Alice",
		LastName:     "Smith",
		AuthProvider: ProviderLocal,
	})
	require.NoError(t, err)
	assert.Equal(t, "u-1", id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreCreateDuplicate(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`INSERT INTO users`).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "users_email_lower_idx"})

	_, err := store.Create(context.Background(), &User{
		Username: "alice",
		Email:    "alice@example.com",
	})
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreCreateNullsEmptyPasswordHash(t *testing.T) {
	store, mock := newMockStore(t)

	// OAuth-created users carry no hash; the column must be NULL, not "".
	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs("bob", "bob@example.com", nil,
			"", "", "", "", ProviderGithub, true).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("u-2"))

	_, err := store.Create(context.Background(), &User{
		Username:      "bob",
		Email:         "bob@example.com",
		AuthProvider:  ProviderGithub,
		EmailVerified: true,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreGetByEmail(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`FROM users\s+WHERE LOWER\(email\) = LOWER\(\$1\)`).
		WithArgs("Alice@Example.com").
		WillReturnRows(userRows())

	u, err := store.GetByEmail(context.Background(), "Alice@Example.com")
	require.NoError(t, err)
	assert.Equal(t, "u-1", u.ID)
	assert.Equal(t, "alice", u.Username)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreGetByIDNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`FROM users\s+WHERE id = \$1`).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := store.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreGetByProviderID(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`JOIN identities i ON i\.user_id = u\.id`).
		WithArgs(ProviderGithub, "gh-42").
		WillReturnRows(userRows())

	u, err := store.GetByProviderID(context.Background(), ProviderGithub, "gh-42")
	require.NoError(t, err)
	assert.Equal(t, "u-1", u.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreLinkIdentityDuplicate(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(`INSERT INTO identities`).
		WithArgs("u-1", ProviderGithub, "gh-42").
		WillReturnError(&pq.Error{Code: "23505"})

	err := store.LinkIdentity(context.Background(), "u-1", ProviderGithub, "gh-42")
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreDeleteNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(`DELETE FROM users WHERE id = \$1`).
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.Delete(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddRefreshTokenDuplicateIsNoop(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(`INSERT INTO refresh_tokens`).
		WithArgs("u-1", "abc123", sqlmock.AnyArg()).
		WillReturnError(&pq.Error{Code: "23505"})

	err := store.AddRefreshToken(context.Background(), "u-1", RefreshToken{
		TokenHash: "abc123",
		ExpiresAt: time.Now().Add(time.Hour),
	})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRemoveRefreshTokenUnknownIsNoop(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(`DELETE FROM refresh_tokens\s+WHERE user_id = \$1 AND token_hash = \$2`).
		WithArgs("u-1", "unknown").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.RemoveRefreshToken(context.Background(), "u-1", "unknown")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRemoveAllRefreshTokens(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(`DELETE FROM refresh_tokens WHERE user_id = \$1`).
		WithArgs("u-1").
		WillReturnResult(sqlmock.NewResult(0, 3))

	err := store.RemoveAllRefreshTokens(context.Background(), "u-1")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHasRefreshToken(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("u-1", "abc123").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	ok, err := store.HasRefreshToken(context.Background(), "u-1", "abc123")
	require.NoError(t, err)
	assert.True(t, ok)

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("u-1", "revoked").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	ok, err = store.HasRefreshToken(context.Background(), "u-1", "revoked")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}
