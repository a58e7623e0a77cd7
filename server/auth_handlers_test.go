package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/chirpgate/chirpgate/account"
	"github.com/chirpgate/chirpgate/twitter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stubLoginProvider(f *fixture, externalID, username string) {
	f.provider.BuildAuthorizationURLFunc = func() (*twitter.AuthLink, error) {
		return &twitter.AuthLink{
			URL:          "https://provider.test/authorize?state=state-1",
			State:        "state-1",
			CodeVerifier: "verifier-1",
		}, nil
	}
	f.provider.ExchangeCodeFunc = func(_ context.Context, code, codeVerifier string) (*twitter.Token, error) {
		if code != "code-1" || codeVerifier != "verifier-1" {
			return nil, twitter.ErrExchangeFailed
		}
		return &twitter.Token{
			AccessToken:  "at-1",
			RefreshToken: "rt-1",
			Expiry:       time.Now().Add(2 * time.Hour),
		}, nil
	}
	f.provider.FetchProfileFunc = func(_ context.Context, accessToken string) (*twitter.Profile, error) {
		return &twitter.Profile{ID: externalID, Username: username, Name: "Jane Doe"}, nil
	}
}

func TestLoginRedirectsToProvider(t *testing.T) {
	f := newFixture()
	stubLoginProvider(f, "ext-1", "jdoe")

	rec := f.do(httptest.NewRequest(http.MethodGet, "/auth/login", nil))

	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "https://provider.test/authorize?state=state-1", rec.Header().Get("Location"))

	// The attempt must be retrievable under its state token.
	verifier, err := f.pending.TakeAndRemove(context.Background(), "state-1")
	require.NoError(t, err)
	assert.Equal(t, "verifier-1", verifier)
}

func TestCallbackCompletesLogin(t *testing.T) {
	f := newFixture()
	stubLoginProvider(f, "ext-1", "jdoe")

	f.do(httptest.NewRequest(http.MethodGet, "/auth/login", nil))
	rec := f.do(httptest.NewRequest(http.MethodGet, "/auth/callback?code=code-1&state=state-1", nil))

	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "http://frontend.test/dashboard", rec.Header().Get("Location"))
	require.Equal(t, 1, f.accounts.count())

	c := sessionCookie(rec)
	require.NotNil(t, c, "expected a session cookie")
	assert.True(t, c.HttpOnly)

	accountID, err := f.codec.Validate(c.Value)
	require.NoError(t, err)
	acct, err := f.accounts.FindByID(context.Background(), accountID)
	require.NoError(t, err)
	assert.Equal(t, "ext-1", acct.ExternalID)
	assert.Equal(t, "jdoe", acct.Username)
	assert.Equal(t, "at-1", acct.AccessToken)
}

func TestCallbackMissingParams(t *testing.T) {
	f := newFixture()
	exchangeCalled := false
	f.provider.ExchangeCodeFunc = func(_ context.Context, _, _ string) (*twitter.Token, error) {
		exchangeCalled = true
		return nil, twitter.ErrExchangeFailed
	}

	rec := f.do(httptest.NewRequest(http.MethodGet, "/auth/callback?code=code-1", nil))

	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "http://frontend.test/login?error=missing_params", rec.Header().Get("Location"))
	assert.False(t, exchangeCalled, "exchange must not run without both params")
	assert.Equal(t, 0, f.accounts.count())
}

func TestCallbackUnknownState(t *testing.T) {
	f := newFixture()
	stubLoginProvider(f, "ext-1", "jdoe")

	rec := f.do(httptest.NewRequest(http.MethodGet, "/auth/callback?code=code-1&state=never-issued", nil))

	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "http://frontend.test/login?error=invalid_state", rec.Header().Get("Location"))
	assert.Equal(t, 0, f.accounts.count())
}

func TestCallbackStateIsSingleUse(t *testing.T) {
	f := newFixture()
	stubLoginProvider(f, "ext-1", "jdoe")

	f.do(httptest.NewRequest(http.MethodGet, "/auth/login", nil))
	first := f.do(httptest.NewRequest(http.MethodGet, "/auth/callback?code=code-1&state=state-1", nil))
	require.Equal(t, "http://frontend.test/dashboard", first.Header().Get("Location"))

	replay := f.do(httptest.NewRequest(http.MethodGet, "/auth/callback?code=code-1&state=state-1", nil))
	assert.Equal(t, "http://frontend.test/login?error=invalid_state", replay.Header().Get("Location"))
	assert.Equal(t, 1, f.accounts.count())
}

func TestRepeatLoginKeepsOneAccount(t *testing.T) {
	f := newFixture()
	stubLoginProvider(f, "ext-1", "jdoe")

	f.do(httptest.NewRequest(http.MethodGet, "/auth/login", nil))
	f.do(httptest.NewRequest(http.MethodGet, "/auth/callback?code=code-1&state=state-1", nil))

	// Second login for the same identity with a changed username.
	stubLoginProvider(f, "ext-1", "jdoe_renamed")
	f.do(httptest.NewRequest(http.MethodGet, "/auth/login", nil))
	f.do(httptest.NewRequest(http.MethodGet, "/auth/callback?code=code-1&state=state-1", nil))

	require.Equal(t, 1, f.accounts.count())
	acct, err := f.accounts.FindByExternalID(context.Background(), "ext-1")
	require.NoError(t, err)
	assert.Equal(t, "jdoe_renamed", acct.Username)
}

func TestSessionProbe(t *testing.T) {
	f := newFixture()

	t.Run("no cookie", func(t *testing.T) {
		rec := f.do(httptest.NewRequest(http.MethodGet, "/auth/session", nil))

		require.Equal(t, http.StatusUnauthorized, rec.Code)
		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, false, body["authenticated"])
	})

	t.Run("valid session", func(t *testing.T) {
		acct := f.accounts.seed(account.Account{ExternalID: "ext-1", Username: "jdoe", Name: "Jane Doe"})
		rec := f.do(f.authedRequest(http.MethodGet, "/auth/session", nil, acct.ID.Hex()))

		require.Equal(t, http.StatusOK, rec.Code)
		var body struct {
			Authenticated bool `json:"authenticated"`
			User          struct {
				ID       string `json:"id"`
				Username string `json:"username"`
			} `json:"user"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.True(t, body.Authenticated)
		assert.Equal(t, acct.ID.Hex(), body.User.ID)
		assert.Equal(t, "jdoe", body.User.Username)
	})
}

func TestCheckRequiresAuth(t *testing.T) {
	f := newFixture()

	t.Run("no cookie", func(t *testing.T) {
		rec := f.do(httptest.NewRequest(http.MethodGet, "/auth/check", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/auth/check", nil)
		req.AddCookie(&http.Cookie{Name: "auth_token", Value: "not-a-token"})
		rec := f.do(req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("token for deleted account", func(t *testing.T) {
		rec := f.do(f.authedRequest(http.MethodGet, "/auth/check", nil, "64b000000000000000000000"))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestCheckHidesProviderTokens(t *testing.T) {
	f := newFixture()
	acct := f.accounts.seed(account.Account{
		ExternalID:  "ext-1",
		Username:    "jdoe",
		AccessToken: "super-secret-access-token",
	})

	rec := f.do(f.authedRequest(http.MethodGet, "/auth/check", nil, acct.ID.Hex()))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "super-secret-access-token")
	assert.Contains(t, rec.Body.String(), "jdoe")
}

func TestCheckRefreshesStaleToken(t *testing.T) {
	f := newFixture()
	acct := f.accounts.seed(account.Account{
		ExternalID:   "ext-1",
		Username:     "jdoe",
		AccessToken:  "at-stale",
		RefreshToken: "rt-1",
		TokenExpiry:  time.Now().Add(-time.Minute),
	})
	f.provider.RefreshAccessTokenFunc = func(_ context.Context, refreshToken string) (*twitter.Token, error) {
		require.Equal(t, "rt-1", refreshToken)
		return &twitter.Token{AccessToken: "at-fresh", RefreshToken: "rt-2", Expiry: time.Now().Add(2 * time.Hour)}, nil
	}

	rec := f.do(f.authedRequest(http.MethodGet, "/auth/check", nil, acct.ID.Hex()))

	require.Equal(t, http.StatusOK, rec.Code)
	stored, err := f.accounts.FindByID(context.Background(), acct.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, "at-fresh", stored.AccessToken)
	assert.Equal(t, "rt-2", stored.RefreshToken)
}

func TestCheckContinuesWhenRefreshFails(t *testing.T) {
	f := newFixture()
	acct := f.accounts.seed(account.Account{
		ExternalID:   "ext-1",
		Username:     "jdoe",
		AccessToken:  "at-stale",
		RefreshToken: "rt-revoked",
		TokenExpiry:  time.Now().Add(-time.Minute),
	})
	f.provider.RefreshAccessTokenFunc = func(_ context.Context, _ string) (*twitter.Token, error) {
		return nil, twitter.ErrRefreshFailed
	}

	rec := f.do(f.authedRequest(http.MethodGet, "/auth/check", nil, acct.ID.Hex()))

	// A dead refresh token degrades the session, it does not end it.
	require.Equal(t, http.StatusOK, rec.Code)
	stored, err := f.accounts.FindByID(context.Background(), acct.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, "at-stale", stored.AccessToken)
}

func TestLogoutClearsCookie(t *testing.T) {
	f := newFixture()

	rec := f.do(httptest.NewRequest(http.MethodPost, "/auth/logout", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	c := sessionCookie(rec)
	require.NotNil(t, c)
	assert.Empty(t, c.Value)
	assert.True(t, c.Expires.Before(time.Now()))
}

func TestRefreshProfile(t *testing.T) {
	f := newFixture()
	acct := f.accounts.seed(account.Account{
		ExternalID:  "ext-1",
		Username:    "jdoe",
		AccessToken: "at-1",
	})
	f.provider.FetchProfileFunc = func(_ context.Context, accessToken string) (*twitter.Profile, error) {
		require.Equal(t, "at-1", accessToken)
		return &twitter.Profile{ID: "ext-1", Username: "jdoe", Name: "Jane D.", Location: "Berlin"}, nil
	}

	rec := f.do(f.authedRequest(http.MethodPost, "/auth/refresh-profile", nil, acct.ID.Hex()))

	require.Equal(t, http.StatusOK, rec.Code)
	stored, err := f.accounts.FindByID(context.Background(), acct.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, "Jane D.", stored.Name)
	assert.Equal(t, "Berlin", stored.Location)
}

func TestRefreshProfileProviderFailure(t *testing.T) {
	f := newFixture()
	acct := f.accounts.seed(account.Account{ExternalID: "ext-1", Username: "jdoe", AccessToken: "at-1"})
	f.provider.FetchProfileFunc = func(_ context.Context, _ string) (*twitter.Profile, error) {
		return nil, twitter.ErrProfileFailed
	}

	rec := f.do(f.authedRequest(http.MethodPost, "/auth/refresh-profile", nil, acct.ID.Hex()))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRootHealth(t *testing.T) {
	f := newFixture()

	rec := f.do(httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "OK", body["status"])
}

func TestCORS(t *testing.T) {
	f := newFixture()

	t.Run("allowed origin preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/statuses", nil)
		req.Header.Set("Origin", "http://frontend.test")
		rec := f.do(req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "http://frontend.test", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
	})

	t.Run("foreign origin gets no allowance", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "http://evil.test")
		rec := f.do(req)

		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})
}
