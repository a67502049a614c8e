package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"golang.org/x/oauth2"
	githuboauth "golang.org/x/oauth2/github"

	"messaging-service/internal/auth"
)

const (
	providerName = "github"

	userEndpoint   = "https://api.github.com/user"
	emailsEndpoint = "https://api.github.com/user/emails"
)

// Provider implements OAuth authentication against GitHub. GitHub does
// not speak OIDC, so the identity is built from its REST API instead of
// an ID token.
type Provider struct {
	oauthConfig *oauth2.Config
}

func New(
	clientID string,
	clientSecret string,
	callbackURL string,
) (*Provider, error) {

	if clientID == "" || clientSecret == "" || callbackURL == "" {
		return nil, errors.New("github oauth config missing required fields")
	}

	oauthCfg := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  callbackURL,
		Endpoint:     githuboauth.Endpoint,
		Scopes:       []string{"user:email"},
	}

	return &Provider{oauthConfig: oauthCfg}, nil
}

// Name returns the provider identifier used by the registry.
func (p *Provider) Name() string {
	return providerName
}

// AuthCodeURL builds the OAuth authorization URL with PKCE parameters.
func (p *Provider) AuthCodeURL(state string, codeChallenge string) string {
	return p.oauthConfig.AuthCodeURL(
		state,
		oauth2.SetAuthURLParam("code_challenge", codeChallenge),
		oauth2.SetAuthURLParam("code_challenge_method", "S256"),
	)
}

func (p *Provider) ExchangeCode(
	ctx context.Context,
	code string,
	codeVerifier string,
) (*auth.Identity, error) {

	token, err := p.oauthConfig.Exchange(
		ctx,
		code,
		oauth2.SetAuthURLParam("code_verifier", codeVerifier),
	)
	if err != nil {
		return nil, fmt.Errorf("github token exchange failed: %w", err)
	}

	client := p.oauthConfig.Client(ctx, token)

	profile, err := fetchProfile(ctx, client)
	if err != nil {
		return nil, err
	}

	email, verified := profile.Email, false
	if primary, ok, err := fetchPrimaryEmail(ctx, client); err == nil && ok {
		email, verified = primary.Email, primary.Verified
	}

	displayName := profile.Name
	if displayName == "" {
		displayName = profile.Login
	}

	return &auth.Identity{
		Provider:       providerName,
		ProviderUserID: strconv.FormatInt(profile.ID, 10),
		Email:          email,
		EmailVerified:  verified,
		DisplayName:    displayName,
		AvatarURL:      profile.AvatarURL,
	}, nil
}

type githubProfile struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url"`
}

type githubEmail struct {
	Email    string `json:"email"`
	Primary  bool   `json:"primary"`
	Verified bool   `json:"verified"`
}

func fetchProfile(ctx context.Context, client *http.Client) (*githubProfile, error) {
	var profile githubProfile
	if err := getJSON(ctx, client, userEndpoint, &profile); err != nil {
		return nil, fmt.Errorf("github profile fetch failed: %w", err)
	}
	if profile.ID == 0 {
		return nil, errors.New("github profile missing user id")
	}
	return &profile, nil
}

// fetchPrimaryEmail resolves the account's primary address. The /user
// payload omits the email when it is private, so the emails endpoint is
// authoritative.
func fetchPrimaryEmail(ctx context.Context, client *http.Client) (githubEmail, bool, error) {
	var emails []githubEmail
	if err := getJSON(ctx, client, emailsEndpoint, &emails); err != nil {
		return githubEmail{}, false, err
	}
	for _, e := range emails {
		if e.Primary {
			return e, true, nil
		}
	}
	if len(emails) > 0 {
		return emails[0], true, nil
	}
	return githubEmail{}, false, nil
}

func getJSON(ctx context.Context, client *http.Client, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
