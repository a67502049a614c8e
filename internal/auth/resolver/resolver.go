package resolver

import (
	"context"

	"messaging-service/internal/auth"
	"messaging-service/internal/user"
)

// Resolver determines which local user an external identity belongs to.
// It is the ONLY place where identity-to-user mapping logic lives.
type Resolver interface {
	Resolve(
		ctx context.Context,
		identity *auth.Identity,
	) (*user.User, error)
}

// CredentialStore is the slice of the user store the resolver needs.
type CredentialStore interface {
	GetByProviderID(ctx context.Context, provider, providerUserID string) (*user.User, error)
	GetByEmail(ctx context.Context, email string) (*user.User, error)
	LinkIdentity(ctx context.Context, userID, provider, providerUserID string) error
	FillProfilePicture(ctx context.Context, userID, url string) error
	Create(ctx context.Context, u *user.User) (string, error)
	GetByID(ctx context.Context, id string) (*user.User, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
}
