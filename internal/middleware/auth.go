package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"messaging-service/internal/auth/token"
	"messaging-service/internal/logger"
	"messaging-service/internal/session"
	"messaging-service/internal/user"
)

// AuthMethod records which credential authenticated the request.
type AuthMethod string

const (
	MethodSession AuthMethod = "session"
	MethodToken   AuthMethod = "token"
	MethodNone    AuthMethod = "none"
)

const (
	userContextKey   = "auth.user"
	methodContextKey = "auth.method"
)

var errNoCredentials = errors.New("no credentials presented")

// UserLoader is the slice of the user store the middleware needs.
type UserLoader interface {
	GetByID(ctx context.Context, id string) (*user.User, error)
	TouchActivity(ctx context.Context, id string) error
}

// AuthMiddleware resolves the request identity under a fixed precedence
// rule: a valid session cookie wins outright and the bearer header is
// never evaluated; only when no session resolves is the bearer token
// verified. Browser clients cannot attach bearer headers across
// redirects, which is why sessions come first.
type AuthMiddleware struct {
	sessions *session.Authority
	tokens   *token.Authority
	users    UserLoader
}

func NewAuthMiddleware(
	sessions *session.Authority,
	tokens *token.Authority,
	users UserLoader,
) *AuthMiddleware {
	return &AuthMiddleware{
		sessions: sessions,
		tokens:   tokens,
		users:    users,
	}
}

// CurrentUser extracts the authenticated user from the gin context.
func CurrentUser(c *gin.Context) (*user.User, bool) {
	v, ok := c.Get(userContextKey)
	if !ok {
		return nil, false
	}
	u, ok := v.(*user.User)
	return u, ok
}

// CurrentMethod reports how the request authenticated.
func CurrentMethod(c *gin.Context) AuthMethod {
	v, ok := c.Get(methodContextKey)
	if !ok {
		return MethodNone
	}
	m, ok := v.(AuthMethod)
	if !ok {
		return MethodNone
	}
	return m
}

// RequireAuth rejects requests that carry no resolvable identity.
func (a *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		u, method, err := a.resolve(c)
		if err != nil {
			abortAuth(c, err)
			return
		}
		a.attach(c, u, method)
		c.Next()
	}
}

// OptionalAuth resolves an identity when one is present but lets
// unauthenticated (or badly authenticated) requests continue.
func (a *AuthMiddleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		u, method, err := a.resolve(c)
		if err == nil {
			a.attach(c, u, method)
		}
		c.Next()
	}
}

func (a *AuthMiddleware) attach(c *gin.Context, u *user.User, method AuthMethod) {
	c.Set(userContextKey, u)
	c.Set(methodContextKey, method)

	// Activity tracking is best-effort; a failed write never fails the
	// request.
	if err := a.users.TouchActivity(c.Request.Context(), u.ID); err != nil {
		logger.Warn("failed to update last_active", map[string]any{
			"user_id": u.ID,
			"error":   err.Error(),
		})
	}
}

func (a *AuthMiddleware) resolve(c *gin.Context) (*user.User, AuthMethod, error) {
	ctx := c.Request.Context()

	// 1. Session cookie.
	if cookie, err := c.Request.Cookie(session.CookieName); err == nil && cookie.Value != "" {
		if userID, ok := a.sessions.Resolve(ctx, cookie.Value); ok {
			u, err := a.users.GetByID(ctx, userID)
			if err == nil {
				return u, MethodSession, nil
			}
			if !errors.Is(err, user.ErrNotFound) {
				return nil, MethodNone, err
			}
			// Session points at a deleted user; fall through to bearer.
		}
	}

	// 2. Bearer access token.
	if raw := bearerToken(c); raw != "" {
		userID, err := a.tokens.VerifyAccess(raw)
		if err != nil {
			return nil, MethodNone, err
		}
		u, err := a.users.GetByID(ctx, userID)
		if errors.Is(err, user.ErrNotFound) {
			return nil, MethodNone, token.ErrTokenInvalid
		}
		if err != nil {
			return nil, MethodNone, err
		}
		return u, MethodToken, nil
	}

	return nil, MethodNone, errNoCredentials
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

func abortAuth(c *gin.Context, err error) {
	switch {
	case errors.Is(err, errNoCredentials):
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"message": "Access token required",
		})
	case errors.Is(err, token.ErrTokenExpired):
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"message": "Token expired",
		})
	case errors.Is(err, token.ErrTokenInvalid):
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"message": "Invalid token",
		})
	default:
		logger.Error("auth resolution failed", map[string]any{
			"error": err.Error(),
		})
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"message": "Authentication error",
		})
	}
}
