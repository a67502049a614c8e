package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"messaging-service/internal/db"
)

var (
	ErrNotFound  = errors.New("user not found")
	ErrDuplicate = errors.New("user already exists")
)

const uniqueViolation = "23505"

// Store is the Postgres-backed identity record. All refresh token
// mutations are single statements so concurrent logins, refreshes and
// logouts against one account interleave without lost updates.
type Store struct {
	db *db.DB
}

func NewStore(db *db.DB) *Store {
	return &Store{db: db}
}

const userColumns = `
	id, username, email, COALESCE(password_hash, ''),
	first_name, last_name, profile_picture, bio,
	auth_provider, email_verified, last_active, created_at, updated_at
`

func scanUser(row *sql.Row) (*User, error) {
	var u User
	err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.PasswordHash,
		&u.FirstName, &u.LastName, &u.ProfilePicture, &u.Bio,
		&u.AuthProvider, &u.EmailVerified, &u.LastActive, &u.CreatedAt, &u.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation
}

// Create persists a new user and returns its generated ID.
// Unique collisions on username or email surface as ErrDuplicate.
func (s *Store) Create(ctx context.Context, u *User) (string, error) {
	var passwordHash any
	if u.PasswordHash != "" {
		passwordHash = u.PasswordHash
	}

	var id string
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO users (
			username, email, password_hash,
			first_name, last_name, profile_picture, bio,
			auth_provider, email_verified
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`,
		u.Username, u.Email, passwordHash,
		u.FirstName, u.LastName, u.ProfilePicture, u.Bio,
		u.AuthProvider, u.EmailVerified,
	).Scan(&id)

	if isUniqueViolation(err) {
		return "", ErrDuplicate
	}
	if err != nil {
		return "", fmt.Errorf("create user: %w", err)
	}
	return id, nil
}

func (s *Store) GetByID(ctx context.Context, id string) (*User, error) {
	return scanUser(s.db.QueryRowContext(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE id = $1
	`, id))
}

func (s *Store) GetByEmail(ctx context.Context, email string) (*User, error) {
	return scanUser(s.db.QueryRowContext(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE LOWER(email) = LOWER($1)
	`, email))
}

// GetByProviderID looks up the user owning an external identity.
func (s *Store) GetByProviderID(ctx context.Context, provider, providerUserID string) (*User, error) {
	return scanUser(s.db.QueryRowContext(ctx, `
		SELECT `+userColumns+`
		FROM users u
		JOIN identities i ON i.user_id = u.id
		WHERE i.provider = $1
		  AND i.provider_user_id = $2
	`, provider, providerUserID))
}

func (s *Store) UsernameExists(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM users WHERE username = $1)
	`, username).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("username exists: %w", err)
	}
	return exists, nil
}

// LinkIdentity attaches an external identity to an existing user.
func (s *Store) LinkIdentity(ctx context.Context, userID, provider, providerUserID string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO identities (user_id, provider, provider_user_id)
		VALUES ($1, $2, $3)
	`, userID, provider, providerUserID)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("link identity: %w", err)
	}
	return nil
}

// FillProfilePicture sets the avatar only when the current value is
// empty, so linking never overwrites a user-chosen picture.
func (s *Store) FillProfilePicture(ctx context.Context, userID, url string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET profile_picture = $2, updated_at = NOW()
		WHERE id = $1 AND profile_picture = ''
	`, userID, url)
	if err != nil {
		return fmt.Errorf("fill profile picture: %w", err)
	}
	return nil
}

func (s *Store) UpdateProfile(ctx context.Context, id string, upd ProfileUpdate) (*User, error) {
	return scanUser(s.db.QueryRowContext(ctx, `
		UPDATE users
		SET first_name      = COALESCE($2, first_name),
		    last_name       = COALESCE($3, last_name),
		    bio             = COALESCE($4, bio),
		    profile_picture = COALESCE($5, profile_picture),
		    updated_at      = NOW()
		WHERE id = $1
		RETURNING `+userColumns+`
	`, id, upd.FirstName, upd.LastName, upd.Bio, upd.ProfilePicture))
}

func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) List(ctx context.Context) ([]User, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+userColumns+`
		FROM users
		ORDER BY created_at
	`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		if err := rows.Scan(
			&u.ID, &u.Username, &u.Email, &u.PasswordHash,
			&u.FirstName, &u.LastName, &u.ProfilePicture, &u.Bio,
			&u.AuthProvider, &u.EmailVerified, &u.LastActive, &u.CreatedAt, &u.UpdatedAt,
		); err != nil {
			return nil, err
		}
		u.PasswordHash = ""
		users = append(users, u)
	}
	return users, rows.Err()
}

// TouchActivity bumps last_active. Callers treat failures as
// best-effort; a stale timestamp must never fail a request.
func (s *Store) TouchActivity(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE users SET last_active = NOW() WHERE id = $1
	`, id)
	return err
}
