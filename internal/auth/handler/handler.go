package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"messaging-service/internal/auth/provider"
	"messaging-service/internal/auth/resolver"
	"messaging-service/internal/auth/token"
	"messaging-service/internal/middleware"
	"messaging-service/internal/session"
	"messaging-service/internal/user"
)

// providerNames is the closed set of OAuth providers this service
// knows. Routes exist for every name; unconfigured ones answer 501.
var providerNames = []string{user.ProviderGithub, user.ProviderGoogle}

// UserStore is the slice of the user store the auth flows need.
type UserStore interface {
	Create(ctx context.Context, u *user.User) (string, error)
	GetByID(ctx context.Context, id string) (*user.User, error)
	GetByEmail(ctx context.Context, email string) (*user.User, error)
	UpdateProfile(ctx context.Context, id string, upd user.ProfileUpdate) (*user.User, error)
	TouchActivity(ctx context.Context, id string) error
	AddRefreshToken(ctx context.Context, userID string, rt user.RefreshToken) error
	RemoveRefreshToken(ctx context.Context, userID, tokenHash string) error
	RemoveAllRefreshTokens(ctx context.Context, userID string) error
	HasRefreshToken(ctx context.Context, userID, tokenHash string) (bool, error)
}

type Handler struct {
	providers     *provider.Registry
	sessions      *session.Authority
	resolver      resolver.Resolver
	tokens        *token.Authority
	users         UserStore
	secureCookies bool
}

func NewHandler(
	registry *provider.Registry,
	sessions *session.Authority,
	identityResolver resolver.Resolver,
	tokens *token.Authority,
	users UserStore,
	secureCookies bool,
) *Handler {
	return &Handler{
		providers:     registry,
		sessions:      sessions,
		resolver:      identityResolver,
		tokens:        tokens,
		users:         users,
		secureCookies: secureCookies,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine, auth *middleware.AuthMiddleware) {
	g := r.Group("/api/auth")

	g.POST("/register", h.Register)
	g.POST("/login", h.Login)
	g.POST("/refresh", h.Refresh)
	g.POST("/logout", auth.OptionalAuth(), h.Logout)
	g.POST("/logout-all", auth.RequireAuth(), h.LogoutAll)
	g.GET("/profile", auth.RequireAuth(), h.GetProfile)
	g.PUT("/profile", auth.RequireAuth(), h.UpdateProfile)
	g.GET("/status", auth.OptionalAuth(), h.Status)

	for _, name := range providerNames {
		g.GET("/"+name, h.oauthLogin(name))
		g.GET("/"+name+"/callback", h.oauthCallback(name))
	}
}

func (h *Handler) cookieOptions() session.CookieOptions {
	return session.CookieOptions{
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	}
}

// issueTokenPair creates an access/refresh pair and records the refresh
// credential. The registry append happens only after both tokens are
// fully generated, so a failure partway surfaces an error instead of
// persisting an orphaned credential.
func (h *Handler) issueTokenPair(ctx context.Context, userID string) (string, string, error) {
	access, err := h.tokens.IssueAccess(userID)
	if err != nil {
		return "", "", err
	}

	refresh, expiresAt, err := h.tokens.IssueRefresh(userID)
	if err != nil {
		return "", "", err
	}

	err = h.users.AddRefreshToken(ctx, userID, user.RefreshToken{
		TokenHash: token.Fingerprint(refresh),
		ExpiresAt: expiresAt,
	})
	if err != nil {
		return "", "", err
	}

	return access, refresh, nil
}
