package server

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	"github.com/chirpgate/chirpgate/account"
	"github.com/chirpgate/chirpgate/authstate"
	"github.com/chirpgate/chirpgate/config"
	"github.com/chirpgate/chirpgate/session"
	"github.com/chirpgate/chirpgate/status"
	"github.com/chirpgate/chirpgate/twitter"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// accountFake is a stateful in-memory Store for handler tests.
type accountFake struct {
	mu   sync.Mutex
	byID map[string]account.Account
}

func newAccountFake() *accountFake {
	return &accountFake{byID: make(map[string]account.Account)}
}

func (f *accountFake) FindByExternalID(_ context.Context, externalID string) (*account.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.byID {
		if a.ExternalID == externalID {
			out := a
			return &out, nil
		}
	}
	return nil, account.ErrNotFound
}

func (f *accountFake) FindByID(_ context.Context, id string) (*account.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.byID[id]
	if !ok {
		return nil, account.ErrNotFound
	}
	out := a
	return &out, nil
}

func (f *accountFake) Upsert(_ context.Context, externalID string, profile account.Profile, tokens account.Tokens) (*account.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var a account.Account
	for _, existing := range f.byID {
		if existing.ExternalID == externalID {
			a = existing
			break
		}
	}
	if a.ID.IsZero() {
		a.ID = primitive.NewObjectID()
		a.ExternalID = externalID
		a.CreatedAt = time.Now().UTC()
	}
	a.Username = profile.Username
	a.Name = profile.Name
	a.ProfileImageURL = profile.ProfileImageURL
	a.Description = profile.Description
	a.Location = profile.Location
	a.AccessToken = tokens.AccessToken
	if tokens.RefreshToken != "" {
		a.RefreshToken = tokens.RefreshToken
	}
	a.TokenExpiry = tokens.Expiry
	a.UpdatedAt = time.Now().UTC()

	f.byID[a.ID.Hex()] = a
	out := a
	return &out, nil
}

func (f *accountFake) UpdateTokens(_ context.Context, id string, tokens account.Tokens) (*account.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.byID[id]
	if !ok {
		return nil, account.ErrNotFound
	}
	a.AccessToken = tokens.AccessToken
	if tokens.RefreshToken != "" {
		a.RefreshToken = tokens.RefreshToken
	}
	a.TokenExpiry = tokens.Expiry
	a.UpdatedAt = time.Now().UTC()
	f.byID[id] = a
	out := a
	return &out, nil
}

func (f *accountFake) UpdateProfile(_ context.Context, id string, profile account.Profile) (*account.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.byID[id]
	if !ok {
		return nil, account.ErrNotFound
	}
	a.Username = profile.Username
	a.Name = profile.Name
	a.ProfileImageURL = profile.ProfileImageURL
	a.Description = profile.Description
	a.Location = profile.Location
	a.UpdatedAt = time.Now().UTC()
	f.byID[id] = a
	out := a
	return &out, nil
}

func (f *accountFake) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.byID)
}

func (f *accountFake) seed(a account.Account) account.Account {
	if a.ID.IsZero() {
		a.ID = primitive.NewObjectID()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byID[a.ID.Hex()] = a
	return a
}

type fixture struct {
	srv      *Server
	handler  http.Handler
	cfg      *config.Config
	accounts *accountFake
	statuses *status.Mock
	pending  *authstate.Memory
	provider *twitter.Mock
	codec    *session.Codec
}

func newFixture() *fixture {
	cfg := &config.Config{
		Port:            "3000",
		Environment:     "development",
		FrontendURL:     "http://frontend.test",
		SessionTTL:      time.Hour,
		LoginAttemptTTL: 10 * time.Minute,
	}
	accounts := newAccountFake()
	statuses := &status.Mock{}
	pending := authstate.NewMemory(cfg.LoginAttemptTTL)
	provider := &twitter.Mock{}
	codec := session.NewCodec([]byte("test-secret"))
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	srv := New(cfg, logger, accounts, statuses, pending, provider, codec)
	return &fixture{
		srv:      srv,
		handler:  srv.Routes(),
		cfg:      cfg,
		accounts: accounts,
		statuses: statuses,
		pending:  pending,
		provider: provider,
		codec:    codec,
	}
}

func (f *fixture) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func (f *fixture) authedRequest(method, target string, body io.Reader, accountID string) *http.Request {
	req := httptest.NewRequest(method, target, body)
	token, err := f.codec.Issue(accountID, f.cfg.SessionTTL)
	if err != nil {
		panic(err)
	}
	req.AddCookie(&http.Cookie{Name: session.CookieName, Value: token})
	return req
}

func sessionCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == session.CookieName {
			return c
		}
	}
	return nil
}
