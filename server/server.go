// Package server wires the HTTP surface: the login flow against the
// external provider, session management, and the status relay.
package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/chirpgate/chirpgate/account"
	"github.com/chirpgate/chirpgate/authstate"
	"github.com/chirpgate/chirpgate/config"
	"github.com/chirpgate/chirpgate/session"
	"github.com/chirpgate/chirpgate/status"
	"github.com/chirpgate/chirpgate/twitter"
	"github.com/chirpgate/chirpgate/utils"
)

// Server holds the handler dependencies. All state lives in the
// injected stores; Server itself is safe for concurrent use.
type Server struct {
	cfg      *config.Config
	logger   *slog.Logger
	accounts account.Store
	statuses status.Store
	pending  authstate.Registry
	provider twitter.API
	codec    *session.Codec
	now      func() time.Time
}

func New(cfg *config.Config, logger *slog.Logger, accounts account.Store, statuses status.Store, pending authstate.Registry, provider twitter.API, codec *session.Codec) *Server {
	return &Server{
		cfg:      cfg,
		logger:   logger,
		accounts: accounts,
		statuses: statuses,
		pending:  pending,
		provider: provider,
		codec:    codec,
		now:      time.Now,
	}
}

// WithNow overrides the server clock. Used by tests.
func (s *Server) WithNow(now func() time.Time) *Server {
	s.now = now
	return s
}

func (s *Server) writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, statusCode int, message string) {
	s.writeJSON(w, statusCode, map[string]string{"message": message})
}

// cookieOptions derives the environment-dependent cookie policy. The
// production policy allows the frontend to send the cookie cross-site;
// development keeps the stricter Lax default for plain-HTTP testing.
func (s *Server) cookieOptions(r *http.Request) session.CookieOptions {
	opts := session.CookieOptions{
		SameSite: http.SameSiteLaxMode,
		MaxAge:   s.cfg.SessionTTL,
	}
	if s.cfg.Production() {
		opts.Secure = true
		opts.SameSite = http.SameSiteNoneMode
		opts.Domain = utils.GetDomain(r)
	}
	return opts
}

// sessionAccount authenticates the request from its session cookie and
// loads the backing account. On failure it writes the error response
// and returns nil.
func (s *Server) sessionAccount(w http.ResponseWriter, r *http.Request) *account.Account {
	raw, err := session.FromRequest(r)
	if err != nil {
		s.writeError(w, http.StatusUnauthorized, "Authentication required")
		return nil
	}
	accountID, err := s.codec.Validate(raw)
	if err != nil {
		s.logger.Debug("rejected session token", "reason", err)
		s.writeError(w, http.StatusUnauthorized, "Invalid or expired token")
		return nil
	}

	acct, err := s.accounts.FindByID(r.Context(), accountID)
	if errors.Is(err, account.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "User not found")
		return nil
	}
	if err != nil {
		s.logger.Error("failed to load account", "account_id", accountID, "error", err)
		s.writeError(w, http.StatusInternalServerError, "Internal server error")
		return nil
	}

	s.refreshTokensIfStale(r, acct)
	return acct
}

// refreshTokensIfStale renews the provider access token when it has
// expired. Failures are logged and swallowed: the caller proceeds with
// the stale token and the provider call itself decides whether that
// still works.
func (s *Server) refreshTokensIfStale(r *http.Request, acct *account.Account) {
	if acct.RefreshToken == "" || acct.TokenExpiry.IsZero() {
		return
	}
	if s.now().Before(acct.TokenExpiry) {
		return
	}

	tok, err := s.provider.RefreshAccessToken(r.Context(), acct.RefreshToken)
	if err != nil {
		s.logger.Warn("access token refresh failed, continuing with stale token",
			"account_id", acct.ID.Hex(), "error", err)
		return
	}

	updated, err := s.accounts.UpdateTokens(r.Context(), acct.ID.Hex(), account.Tokens{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		Expiry:       tok.Expiry,
	})
	if err != nil {
		s.logger.Warn("failed to persist refreshed tokens",
			"account_id", acct.ID.Hex(), "error", err)
		return
	}
	*acct = *updated
}
