package user

import "time"

// Auth provider tags. A "local" user has no linked external identity;
// an OAuth-created user keeps the tag of the provider that created it
// even after a password is set.
const (
	ProviderLocal  = "local"
	ProviderGithub = "github"
	ProviderGoogle = "google"
)

// User is the durable identity record. PasswordHash never leaves the
// process: it is excluded from JSON and the store never returns it in
// list queries.
type User struct {
	ID             string    `json:"id"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	PasswordHash   string    `json:"-"`
	FirstName      string    `json:"firstName"`
	LastName       string    `json:"lastName"`
	ProfilePicture string    `json:"profilePicture"`
	Bio            string    `json:"bio"`
	AuthProvider   string    `json:"authProvider"`
	EmailVerified  bool      `json:"isEmailVerified"`
	LastActive     time.Time `json:"lastActive"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// RefreshToken is one outstanding refresh credential. Only the SHA-256
// hash of the token is stored; the raw value exists client-side only.
type RefreshToken struct {
	TokenHash string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// ProfileUpdate carries the mutable profile fields. Nil means "leave
// unchanged".
type ProfileUpdate struct {
	FirstName      *string
	LastName       *string
	Bio            *string
	ProfilePicture *string
}
