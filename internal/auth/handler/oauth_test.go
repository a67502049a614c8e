package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"messaging-service/internal/auth"
	"messaging-service/internal/auth/provider"
	"messaging-service/internal/auth/resolver"
	"messaging-service/internal/auth/token"
	"messaging-service/internal/middleware"
	"messaging-service/internal/session"
	"messaging-service/internal/user"
)

// stubProvider simulates an OAuth provider without network calls.
type stubProvider struct {
	name     string
	identity *auth.Identity
	err      error
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) AuthCodeURL(state, codeChallenge string) string {
	return "https://provider.example.com/authorize?state=" + url.QueryEscape(state) +
		"&code_challenge=" + url.QueryEscape(codeChallenge)
}

func (s *stubProvider) ExchangeCode(_ context.Context, code, codeVerifier string) (*auth.Identity, error) {
	if s.err != nil {
		return nil, s.err
	}
	if code != "good-code" || codeVerifier == "" {
		return nil, errors.New("exchange rejected")
	}
	return s.identity, nil
}

func newOAuthFixture(t *testing.T, p *stubProvider) *fixture {
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

	store := newFakeUserStore()
	mw := middleware.NewAuthMiddleware(sessions, tokens, store)

	h := NewHandler(
		provider.NewRegistry(p),
		sessions,
		resolver.NewDBResolver(resolverAdapter{store}),
		tokens,
		store,
		false,
	)

	router := gin.New()
	h.RegisterRoutes(router, mw)

	return &fixture{router: router, store: store, tokens: tokens}
}

// beginOAuth hits the login route and returns the state parameter the
// provider would echo back plus the browser cookies it set.
func beginOAuth(t *testing.T, f *fixture, path string) (string, []*http.Cookie) {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusFound, w.Code)

	location, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	state := location.Query().Get("state")
	require.NotEmpty(t, state)

	return state, w.Result().Cookies()
}

func githubStub() *stubProvider {
	return &stubProvider{
		name: user.ProviderGithub,
		identity: &auth.Identity{
			Provider:       user.ProviderGithub,
			ProviderUserID: "gh-42",
			Email:          "alice@example.com",
			EmailVerified:  true,
			DisplayName:    "Alice",
			AvatarURL:      "https://avatars.example.com/alice.png",
		},
	}
}

func TestOAuthCallbackFlow(t *testing.T) {
	f := newOAuthFixture(t, githubStub())

	state, cookies := beginOAuth(t, f, "/api/auth/github")

	w := f.do(http.MethodGet,
		"/api/auth/github/callback?state="+url.QueryEscape(state)+"&code=good-code",
		nil,
		func(req *http.Request) {
			for _, cookie := range cookies {
				req.AddCookie(cookie)
			}
		})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := parseBody(t, w)
	assert.NotEmpty(t, body["accessToken"])
	assert.NotEmpty(t, body["refreshToken"])
	u := body["user"].(map[string]any)
	assert.Equal(t, "alice", u["username"])
	assert.Equal(t, "github", u["authProvider"])

	// The callback also established a browser session.
	var sessionCookie *http.Cookie
	for _, cookie := range w.Result().Cookies() {
		if cookie.Name == session.CookieName {
			sessionCookie = cookie
		}
	}
	require.NotNil(t, sessionCookie)

	profile := f.do(http.MethodGet, "/api/auth/profile", nil, func(req *http.Request) {
		req.AddCookie(sessionCookie)
	})
	assert.Equal(t, http.StatusOK, profile.Code)

	status := f.do(http.MethodGet, "/api/auth/status", nil, func(req *http.Request) {
		req.AddCookie(sessionCookie)
	})
	assert.Contains(t, status.Body.String(), `"method":"session"`)
}

func TestOAuthCallbackStateMismatch(t *testing.T) {
	f := newOAuthFixture(t, githubStub())

	_, cookies := beginOAuth(t, f, "/api/auth/github")

	w := f.do(http.MethodGet,
		"/api/auth/github/callback?state=tampered&code=good-code",
		nil,
		func(req *http.Request) {
			for _, cookie := range cookies {
				req.AddCookie(cookie)
			}
		})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid state")
}

func TestOAuthCallbackMissingStateCookie(t *testing.T) {
	f := newOAuthFixture(t, githubStub())

	w := f.do(http.MethodGet,
		"/api/auth/github/callback?state=anything&code=good-code", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestOAuthCallbackMissingCode(t *testing.T) {
	f := newOAuthFixture(t, githubStub())

	state, cookies := beginOAuth(t, f, "/api/auth/github")

	w := f.do(http.MethodGet,
		"/api/auth/github/callback?state="+url.QueryEscape(state),
		nil,
		func(req *http.Request) {
			for _, cookie := range cookies {
				req.AddCookie(cookie)
			}
		})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Missing authorization code")
}

func TestOAuthCallbackProviderError(t *testing.T) {
	f := newOAuthFixture(t, githubStub())

	state, cookies := beginOAuth(t, f, "/api/auth/github")

	w := f.do(http.MethodGet,
		"/api/auth/github/callback?state="+url.QueryEscape(state)+"&error=access_denied",
		nil,
		func(req *http.Request) {
			for _, cookie := range cookies {
				req.AddCookie(cookie)
			}
		})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Authentication failed")
}

func TestOAuthCallbackExchangeFailure(t *testing.T) {
	stub := githubStub()
	stub.err = errors.New("provider down")
	f := newOAuthFixture(t, stub)

	state, cookies := beginOAuth(t, f, "/api/auth/github")

	w := f.do(http.MethodGet,
		"/api/auth/github/callback?state="+url.QueryEscape(state)+"&code=good-code",
		nil,
		func(req *http.Request) {
			for _, cookie := range cookies {
				req.AddCookie(cookie)
			}
		})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Authentication failed")
}

func TestOAuthRepeatLoginReusesAccount(t *testing.T) {
	f := newOAuthFixture(t, githubStub())

	for i := 0; i < 2; i++ {
		state, cookies := beginOAuth(t, f, "/api/auth/github")
		w := f.do(http.MethodGet,
			"/api/auth/github/callback?state="+url.QueryEscape(state)+"&code=good-code",
			nil,
			func(req *http.Request) {
				for _, cookie := range cookies {
					req.AddCookie(cookie)
				}
			})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}

	// Email matching keeps both logins on one account.
	assert.Len(t, f.store.users, 1)
}
