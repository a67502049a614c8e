package auth

// Identity represents a normalized external authentication identity
// returned by an OAuth provider. It contains facts only, no decisions.
type Identity struct {
	Provider       string // e.g. "github", "google"
	ProviderUserID string // provider-scoped unique user identifier (sub)
	Email          string // email returned by provider; may be empty
	EmailVerified  bool   // whether provider asserts email ownership
	DisplayName    string // human-readable name, if the provider has one
	AvatarURL      string // profile picture URL, if the provider has one
}
