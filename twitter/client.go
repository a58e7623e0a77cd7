// Package twitter wraps the provider operations the login flow and the
// status relay need: building the PKCE authorization URL, exchanging an
// authorization code for tokens, refreshing an access token, and a
// small slice of the v2 REST API (profile, status create/lookup).
package twitter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

const (
	defaultAuthURL  = "https://twitter.com/i/oauth2/authorize"
	defaultTokenURL = "https://api.twitter.com/2/oauth2/token"
	defaultAPIBase  = "https://api.twitter.com/2"
)

// DefaultScopes covers reading/writing status updates, reading the
// authenticated profile, and offline refresh.
var DefaultScopes = []string{"tweet.read", "tweet.write", "users.read", "offline.access"}

var (
	ErrExchangeFailed = errors.New("twitter: authorization code exchange failed")
	ErrRefreshFailed  = errors.New("twitter: access token refresh failed")
	ErrProfileFailed  = errors.New("twitter: fetching authenticated profile failed")
	// ErrInvalidProfile flags a profile payload missing its required
	// fields; the response is rejected rather than passed through.
	ErrInvalidProfile = errors.New("twitter: provider returned an unexpected profile shape")
	ErrStatusFailed   = errors.New("twitter: status request failed")
)

// API is the provider surface the rest of the service depends on.
type API interface {
	BuildAuthorizationURL() (*AuthLink, error)
	ExchangeCode(ctx context.Context, code, codeVerifier string) (*Token, error)
	RefreshAccessToken(ctx context.Context, refreshToken string) (*Token, error)
	FetchProfile(ctx context.Context, accessToken string) (*Profile, error)
	PostStatus(ctx context.Context, accessToken, text string) (*PostedStatus, error)
	LookupStatus(ctx context.Context, accessToken, statusID string) (*StatusDetail, error)
}

var _ API = (*Client)(nil)

// Client talks to the provider's OAuth2 and v2 REST endpoints.
type Client struct {
	conf    *oauth2.Config
	apiBase string
	http    *http.Client
	timeout time.Duration
}

// NewClient builds a Client for the given app credentials. All provider
// calls are bounded by timeout.
func NewClient(clientID, clientSecret, callbackURL string, timeout time.Duration) *Client {
	return &Client{
		conf: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  callbackURL,
			Scopes:       DefaultScopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   defaultAuthURL,
				TokenURL:  defaultTokenURL,
				AuthStyle: oauth2.AuthStyleInHeader,
			},
		},
		apiBase: defaultAPIBase,
		http:    &http.Client{Timeout: timeout},
		timeout: timeout,
	}
}

// SetEndpoints overrides the provider URLs. Used by tests.
func (c *Client) SetEndpoints(authURL, tokenURL, apiBase string) {
	c.conf.Endpoint.AuthURL = authURL
	c.conf.Endpoint.TokenURL = tokenURL
	c.apiBase = apiBase
}

// BuildAuthorizationURL generates a fresh state and PKCE verifier and
// the authorization URL embedding the S256 challenge.
func (c *Client) BuildAuthorizationURL() (*AuthLink, error) {
	verifier, err := GenerateCodeVerifier()
	if err != nil {
		return nil, err
	}
	state, err := GenerateState()
	if err != nil {
		return nil, err
	}
	authURL := c.conf.AuthCodeURL(state,
		oauth2.SetAuthURLParam("code_challenge", GenerateCodeChallenge(verifier)),
		oauth2.SetAuthURLParam("code_challenge_method", "S256"),
	)
	return &AuthLink{URL: authURL, State: state, CodeVerifier: verifier}, nil
}

// ExchangeCode swaps an authorization code for a token set.
func (c *Client) ExchangeCode(ctx context.Context, code, codeVerifier string) (*Token, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.http)

	tok, err := c.conf.Exchange(ctx, code,
		oauth2.SetAuthURLParam("code_verifier", codeVerifier),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExchangeFailed, err)
	}
	return &Token{AccessToken: tok.AccessToken, RefreshToken: tok.RefreshToken, Expiry: tok.Expiry}, nil
}

// RefreshAccessToken mints a new access token from a refresh token.
func (c *Client) RefreshAccessToken(ctx context.Context, refreshToken string) (*Token, error) {
	if refreshToken == "" {
		return nil, fmt.Errorf("%w: no refresh token", ErrRefreshFailed)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.http)

	ts := c.conf.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	tok, err := ts.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRefreshFailed, err)
	}
	return &Token{AccessToken: tok.AccessToken, RefreshToken: tok.RefreshToken, Expiry: tok.Expiry}, nil
}

// FetchProfile retrieves and validates the authenticated user's profile.
func (c *Client) FetchProfile(ctx context.Context, accessToken string) (*Profile, error) {
	var out struct {
		Data struct {
			ID              string `json:"id"`
			Username        string `json:"username"`
			Name            string `json:"name"`
			ProfileImageURL string `json:"profile_image_url"`
			Description     string `json:"description"`
			Location        string `json:"location"`
		} `json:"data"`
	}
	endpoint := c.apiBase + "/users/me?user.fields=profile_image_url,description,location"
	if err := c.do(ctx, http.MethodGet, accessToken, endpoint, nil, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProfileFailed, err)
	}
	if out.Data.ID == "" || out.Data.Username == "" {
		return nil, ErrInvalidProfile
	}
	return &Profile{
		ID:              out.Data.ID,
		Username:        out.Data.Username,
		Name:            out.Data.Name,
		ProfileImageURL: out.Data.ProfileImageURL,
		Description:     out.Data.Description,
		Location:        out.Data.Location,
	}, nil
}

// PostStatus creates a status update on behalf of the user.
func (c *Client) PostStatus(ctx context.Context, accessToken, text string) (*PostedStatus, error) {
	payload, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStatusFailed, err)
	}
	var out struct {
		Data struct {
			ID   string `json:"id"`
			Text string `json:"text"`
		} `json:"data"`
	}
	if err := c.do(ctx, http.MethodPost, accessToken, c.apiBase+"/tweets", bytes.NewReader(payload), &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStatusFailed, err)
	}
	if out.Data.ID == "" {
		return nil, fmt.Errorf("%w: empty status id in response", ErrStatusFailed)
	}
	return &PostedStatus{ID: out.Data.ID, Text: out.Data.Text}, nil
}

// LookupStatus fetches one status update with its author id, used to
// verify ownership.
func (c *Client) LookupStatus(ctx context.Context, accessToken, statusID string) (*StatusDetail, error) {
	var out struct {
		Data struct {
			ID        string `json:"id"`
			Text      string `json:"text"`
			AuthorID  string `json:"author_id"`
			CreatedAt string `json:"created_at"`
		} `json:"data"`
	}
	endpoint := fmt.Sprintf("%s/tweets/%s?expansions=author_id&tweet.fields=created_at,text",
		c.apiBase, url.PathEscape(statusID))
	if err := c.do(ctx, http.MethodGet, accessToken, endpoint, nil, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStatusFailed, err)
	}
	if out.Data.ID == "" {
		return nil, fmt.Errorf("%w: status not found", ErrStatusFailed)
	}
	return &StatusDetail{
		ID:        out.Data.ID,
		Text:      out.Data.Text,
		AuthorID:  out.Data.AuthorID,
		CreatedAt: out.Data.CreatedAt,
	}, nil
}

// do issues an authenticated JSON request against the v2 API.
func (c *Client) do(ctx context.Context, method, accessToken, endpoint string, body io.Reader, out interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<10))
		return fmt.Errorf("provider returned %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
