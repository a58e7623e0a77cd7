package server

import (
	"errors"
	"net/http"

	"github.com/chirpgate/chirpgate/account"
	"github.com/chirpgate/chirpgate/session"
)

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status":  "OK",
		"message": "chirpgate API is running",
		"version": "1.0.0",
	})
}

// handleLogin starts a login attempt: it generates state and a PKCE
// verifier, parks the pair in the pending registry, and sends the
// browser to the provider's authorization page.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	link, err := s.provider.BuildAuthorizationURL()
	if err != nil {
		s.logger.Error("failed to build authorization url", "error", err)
		s.writeError(w, http.StatusInternalServerError, "Failed to initiate login")
		return
	}
	if err := s.pending.Put(r.Context(), link.State, link.CodeVerifier); err != nil {
		s.logger.Error("failed to register login attempt", "error", err)
		s.writeError(w, http.StatusInternalServerError, "Failed to initiate login")
		return
	}
	http.Redirect(w, r, link.URL, http.StatusFound)
}

// handleCallback completes the login attempt the provider redirected
// back from. Every failure lands the browser on the frontend login
// page with a machine-readable error code.
func (s *Server) handleCallback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	state := r.URL.Query().Get("state")
	if code == "" || state == "" {
		s.redirectLoginError(w, r, "missing_params")
		return
	}

	// Consuming the entry before the exchange makes replays with the
	// same state miss even if the exchange below fails.
	verifier, err := s.pending.TakeAndRemove(r.Context(), state)
	if err != nil {
		s.logger.Warn("callback with unknown or expired state")
		s.redirectLoginError(w, r, "invalid_state")
		return
	}

	tok, err := s.provider.ExchangeCode(r.Context(), code, verifier)
	if err != nil {
		s.logger.Error("code exchange failed", "error", err)
		s.redirectLoginError(w, r, "auth_failed")
		return
	}

	profile, err := s.provider.FetchProfile(r.Context(), tok.AccessToken)
	if err != nil {
		s.logger.Error("profile fetch failed", "error", err)
		s.redirectLoginError(w, r, "auth_failed")
		return
	}

	acct, err := s.accounts.Upsert(r.Context(), profile.ID,
		account.Profile{
			Username:        profile.Username,
			Name:            profile.Name,
			ProfileImageURL: profile.ProfileImageURL,
			Description:     profile.Description,
			Location:        profile.Location,
		},
		account.Tokens{
			AccessToken:  tok.AccessToken,
			RefreshToken: tok.RefreshToken,
			Expiry:       tok.Expiry,
		})
	if err != nil {
		s.logger.Error("failed to persist account", "error", err)
		s.redirectLoginError(w, r, "auth_failed")
		return
	}

	signed, err := s.codec.Issue(acct.ID.Hex(), s.cfg.SessionTTL)
	if err != nil {
		s.logger.Error("failed to issue session token", "error", err)
		s.redirectLoginError(w, r, "auth_failed")
		return
	}

	session.SetCookie(w, signed, s.cookieOptions(r))
	http.Redirect(w, r, s.cfg.FrontendURL+"/dashboard", http.StatusFound)
}

func (s *Server) redirectLoginError(w http.ResponseWriter, r *http.Request, code string) {
	http.Redirect(w, r, s.cfg.FrontendURL+"/login?error="+code, http.StatusFound)
}

// handleSession is the frontend's lightweight "am I logged in" probe.
// It never errors; an unauthenticated caller gets authenticated=false.
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	unauthenticated := map[string]interface{}{"authenticated": false}

	raw, err := session.FromRequest(r)
	if err != nil {
		s.writeJSON(w, http.StatusUnauthorized, unauthenticated)
		return
	}
	accountID, err := s.codec.Validate(raw)
	if err != nil {
		s.writeJSON(w, http.StatusUnauthorized, unauthenticated)
		return
	}
	acct, err := s.accounts.FindByID(r.Context(), accountID)
	if err != nil {
		if !errors.Is(err, account.ErrNotFound) {
			s.logger.Error("failed to load account for session probe", "error", err)
		}
		s.writeJSON(w, http.StatusUnauthorized, unauthenticated)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"authenticated": true,
		"user": map[string]string{
			"id":              acct.ID.Hex(),
			"username":        acct.Username,
			"name":            acct.Name,
			"profileImageUrl": acct.ProfileImageURL,
		},
	})
}

// handleCheck returns the full account record for an authenticated
// caller, refreshing the provider tokens first when they are stale.
func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	acct := s.sessionAccount(w, r)
	if acct == nil {
		return
	}
	s.writeJSON(w, http.StatusOK, acct)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	session.ClearCookie(w, s.cookieOptions(r))
	s.writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out successfully"})
}

// handleRefreshProfile re-pulls the provider profile and overwrites the
// stored mirror.
func (s *Server) handleRefreshProfile(w http.ResponseWriter, r *http.Request) {
	acct := s.sessionAccount(w, r)
	if acct == nil {
		return
	}

	profile, err := s.provider.FetchProfile(r.Context(), acct.AccessToken)
	if err != nil {
		s.logger.Error("profile refresh failed", "account_id", acct.ID.Hex(), "error", err)
		s.writeError(w, http.StatusInternalServerError, "Failed to refresh profile")
		return
	}

	updated, err := s.accounts.UpdateProfile(r.Context(), acct.ID.Hex(), account.Profile{
		Username:        profile.Username,
		Name:            profile.Name,
		ProfileImageURL: profile.ProfileImageURL,
		Description:     profile.Description,
		Location:        profile.Location,
	})
	if err != nil {
		s.logger.Error("failed to persist refreshed profile", "account_id", acct.ID.Hex(), "error", err)
		s.writeError(w, http.StatusInternalServerError, "Failed to refresh profile")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Profile refreshed successfully",
		"user": map[string]string{
			"username":        updated.Username,
			"name":            updated.Name,
			"profileImageUrl": updated.ProfileImageURL,
			"description":     updated.Description,
			"location":        updated.Location,
		},
	})
}
