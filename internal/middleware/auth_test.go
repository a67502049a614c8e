package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"messaging-service/internal/auth/token"
	"messaging-service/internal/session"
	"messaging-service/internal/user"
)

type fakeUserLoader struct {
	users      map[string]*user.User
	touchErr   error
	touchCount int
}

func (f *fakeUserLoader) GetByID(_ context.Context, id string) (*user.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	return u, nil
}

func (f *fakeUserLoader) TouchActivity(context.Context, string) error {
	f.touchCount++
	return f.touchErr
}

type authFixture struct {
	middleware *AuthMiddleware
	sessions   *session.Authority
	tokens     *token.Authority
	users      *fakeUserLoader
	router     *gin.Engine
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	sessions := session.NewAuthority(session.NewRedisStore(client), "session-secret", time.Hour)

	tokens, err := token.NewAuthority(token.Config{
		AccessSecret:  "access-secret",
		RefreshSecret: "refresh-secret",
		AccessTTL:     time.Hour,
		RefreshTTL:    7 * 24 * time.Hour,
	})
	require.NoError(t, err)

	users := &fakeUserLoader{users: map[string]*user.User{
		"u-1": {ID: "u-1", Username: "alice"},
	}}

	mw := NewAuthMiddleware(sessions, tokens, users)

	router := gin.New()
	router.GET("/private", mw.RequireAuth(), func(c *gin.Context) {
		u, _ := CurrentUser(c)
		c.JSON(http.StatusOK, gin.H{
			"username": u.Username,
			"method":   CurrentMethod(c),
		})
	})
	router.GET("/open", mw.OptionalAuth(), func(c *gin.Context) {
		if u, ok := CurrentUser(c); ok {
			c.JSON(http.StatusOK, gin.H{"username": u.Username})
			return
		}
		c.JSON(http.StatusOK, gin.H{"username": nil})
	})

	return &authFixture{
		middleware: mw,
		sessions:   sessions,
		tokens:     tokens,
		users:      users,
		router:     router,
	}
}

func (f *authFixture) get(path string, configure func(*http.Request)) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if configure != nil {
		configure(req)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func TestRequireAuthNoCredentials(t *testing.T) {
	f := newAuthFixture(t)

	w := f.get("/private", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Access token required")
}

func TestRequireAuthBearerToken(t *testing.T) {
	f := newAuthFixture(t)

	access, err := f.tokens.IssueAccess("u-1")
	require.NoError(t, err)

	w := f.get("/private", func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer "+access)
	})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"method":"token"`)
}

func TestRequireAuthSessionCookie(t *testing.T) {
	f := newAuthFixture(t)

	cookieValue, _, err := f.sessions.Establish(context.Background(), "u-1")
	require.NoError(t, err)

	w := f.get("/private", func(req *http.Request) {
		req.AddCookie(&http.Cookie{Name: session.CookieName, Value: cookieValue})
	})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"method":"session"`)
}

func TestSessionWinsOverInvalidBearer(t *testing.T) {
	f := newAuthFixture(t)

	cookieValue, _, err := f.sessions.Establish(context.Background(), "u-1")
	require.NoError(t, err)

	// A garbage bearer header must never be evaluated when a valid
	// session resolves first.
	w := f.get("/private", func(req *http.Request) {
		req.AddCookie(&http.Cookie{Name: session.CookieName, Value: cookieValue})
		req.Header.Set("Authorization", "Bearer not-a-jwt")
	})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"method":"session"`)
}

func TestInvalidSessionFallsBackToBearer(t *testing.T) {
	f := newAuthFixture(t)

	access, err := f.tokens.IssueAccess("u-1")
	require.NoError(t, err)

	w := f.get("/private", func(req *http.Request) {
		req.AddCookie(&http.Cookie{Name: session.CookieName, Value: "forged.cookie"})
		req.Header.Set("Authorization", "Bearer "+access)
	})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"method":"token"`)
}

func TestSessionForDeletedUserFallsBackToBearer(t *testing.T) {
	f := newAuthFixture(t)

	cookieValue, _, err := f.sessions.Establish(context.Background(), "gone")
	require.NoError(t, err)

	access, err := f.tokens.IssueAccess("u-1")
	require.NoError(t, err)

	w := f.get("/private", func(req *http.Request) {
		req.AddCookie(&http.Cookie{Name: session.CookieName, Value: cookieValue})
		req.Header.Set("Authorization", "Bearer "+access)
	})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"method":"token"`)
}

func TestRequireAuthExpiredToken(t *testing.T) {
	f := newAuthFixture(t)

	expiring, err := token.NewAuthority(token.Config{
		AccessSecret:  "access-secret",
		RefreshSecret: "refresh-secret",
		AccessTTL:     time.Millisecond,
		RefreshTTL:    time.Hour,
	})
	require.NoError(t, err)

	access, err := expiring.IssueAccess("u-1")
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)

	w := f.get("/private", func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer "+access)
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "Token expired")
}

func TestRequireAuthMalformedToken(t *testing.T) {
	f := newAuthFixture(t)

	w := f.get("/private", func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer not-a-jwt")
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid token")
}

func TestRequireAuthTokenForDeletedUser(t *testing.T) {
	f := newAuthFixture(t)

	access, err := f.tokens.IssueAccess("u-gone")
	require.NoError(t, err)

	w := f.get("/private", func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer "+access)
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid token")
}

func TestOptionalAuthWithoutCredentials(t *testing.T) {
	f := newAuthFixture(t)

	w := f.get("/open", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"username":null`)
}

func TestOptionalAuthWithBadCredentials(t *testing.T) {
	f := newAuthFixture(t)

	w := f.get("/open", func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer garbage")
	})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"username":null`)
}

func TestActivityUpdateIsBestEffort(t *testing.T) {
	f := newAuthFixture(t)
	f.users.touchErr = errors.New("db down")

	access, err := f.tokens.IssueAccess("u-1")
	require.NoError(t, err)

	w := f.get("/private", func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer "+access)
	})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, f.users.touchCount)
}
