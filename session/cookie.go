package session

import (
	"net/http"
	"time"
)

// CookieName is the session cookie carried by every authenticated request.
const CookieName = "auth_token"

// CookieOptions carries the environment-dependent cookie policy.
type CookieOptions struct {
	Secure   bool
	SameSite http.SameSite
	Domain   string // optional; scopes the cookie to a registrable domain
	MaxAge   time.Duration
}

// SetCookie writes the signed session token as an HTTP-only cookie.
func SetCookie(w http.ResponseWriter, token string, opts CookieOptions) {
	c := &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(opts.MaxAge.Seconds()),
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: opts.SameSite,
	}
	if opts.Domain != "" {
		c.Domain = opts.Domain
	}
	http.SetCookie(w, c)
}

// ClearCookie expires the session cookie immediately.
func ClearCookie(w http.ResponseWriter, opts CookieOptions) {
	c := &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: opts.SameSite,
	}
	if opts.Domain != "" {
		c.Domain = opts.Domain
	}
	http.SetCookie(w, c)
}

// FromRequest extracts the raw session token from the request cookie.
func FromRequest(r *http.Request) (string, error) {
	c, err := r.Cookie(CookieName)
	if err != nil {
		return "", err
	}
	return c.Value, nil
}
