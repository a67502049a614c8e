package resolver

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"messaging-service/internal/auth"
	"messaging-service/internal/auth/password"
	"messaging-service/internal/user"
	"messaging-service/internal/utils"
)

const (
	usernameMaxLen     = 30
	usernameMinLen     = 3
	usernameMaxRetries = 5
)

// DBResolver resolves external identities against the credential store.
type DBResolver struct {
	store CredentialStore
}

func NewDBResolver(store CredentialStore) *DBResolver {
	return &DBResolver{store: store}
}

// Resolve maps an identity to a user in three steps: an existing link
// is returned untouched; a user sharing the identity's email gets the
// provider linked; otherwise a new user is created. The fast path must
// not mutate anything, so repeated logins are idempotent.
func (r *DBResolver) Resolve(
	ctx context.Context,
	identity *auth.Identity,
) (*user.User, error) {

	if identity == nil {
		return nil, errors.New("identity is nil")
	}

	// 1. Existing link (provider + provider_user_id).
	u, err := r.store.GetByProviderID(ctx, identity.Provider, identity.ProviderUserID)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, user.ErrNotFound) {
		return nil, err
	}

	// 2. Email-based linking (existing user, new provider).
	if identity.Email != "" {
		u, err = r.store.GetByEmail(ctx, identity.Email)
		if err == nil {
			return r.link(ctx, u, identity)
		}
		if !errors.Is(err, user.ErrNotFound) {
			return nil, err
		}
	}

	// 3. New user.
	return r.create(ctx, identity)
}

func (r *DBResolver) link(
	ctx context.Context,
	u *user.User,
	identity *auth.Identity,
) (*user.User, error) {

	err := r.store.LinkIdentity(ctx, u.ID, identity.Provider, identity.ProviderUserID)
	if err != nil && !errors.Is(err, user.ErrDuplicate) {
		// A duplicate here means a concurrent login already linked;
		// anything else is a real failure.
		return nil, err
	}

	if identity.AvatarURL != "" && u.ProfilePicture == "" {
		if err := r.store.FillProfilePicture(ctx, u.ID, identity.AvatarURL); err != nil {
			return nil, err
		}
		u.ProfilePicture = identity.AvatarURL
	}

	return u, nil
}

func (r *DBResolver) create(
	ctx context.Context,
	identity *auth.Identity,
) (*user.User, error) {

	username, err := r.pickUsername(ctx, identity)
	if err != nil {
		return nil, err
	}

	// OAuth users get a hashed random placeholder no client knows, so
	// password login can never succeed against it.
	placeholder, err := password.Hash(password.RandomPlaceholder())
	if err != nil {
		return nil, fmt.Errorf("hash placeholder: %w", err)
	}

	newUser := &user.User{
		Username:       username,
		Email:          identity.Email,
		PasswordHash:   placeholder,
		FirstName:      identity.DisplayName,
		ProfilePicture: identity.AvatarURL,
		AuthProvider:   identity.Provider,
		EmailVerified:  identity.Email != "",
	}

	id, err := r.store.Create(ctx, newUser)
	if err != nil {
		return nil, err
	}

	if err := r.store.LinkIdentity(ctx, id, identity.Provider, identity.ProviderUserID); err != nil {
		return nil, err
	}

	return r.store.GetByID(ctx, id)
}

// pickUsername derives a handle from the email local-part, or a
// provider-prefixed fallback when the provider returned no email, and
// disambiguates with random suffixes. Exhausting the retries surfaces
// as a duplicate-account error rather than an infinite loop.
func (r *DBResolver) pickUsername(
	ctx context.Context,
	identity *auth.Identity,
) (string, error) {

	base := baseUsername(identity)

	candidate := base
	for attempt := 0; attempt < usernameMaxRetries; attempt++ {
		taken, err := r.store.UsernameExists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = suffixed(base)
	}

	return "", fmt.Errorf("allocate username for %s identity: %w",
		identity.Provider, user.ErrDuplicate)
}

func baseUsername(identity *auth.Identity) string {
	base := ""
	if identity.Email != "" {
		base, _, _ = strings.Cut(identity.Email, "@")
	}
	if base == "" {
		base = identity.Provider + "_" + identity.ProviderUserID
	}
	if len(base) > usernameMaxLen {
		base = base[:usernameMaxLen]
	}
	for len(base) < usernameMinLen {
		base += "_"
	}
	return base
}

func suffixed(base string) string {
	suffix := "_" + utils.RandomString(3)
	if len(base)+len(suffix) > usernameMaxLen {
		base = base[:usernameMaxLen-len(suffix)]
	}
	return base + suffix
}
