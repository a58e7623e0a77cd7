// Package authstate tracks in-flight login attempts. Each entry
// correlates the opaque state token round-tripped through the
// provider's authorization redirect with the PKCE code verifier
// generated alongside it.
package authstate

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a state token is unknown, already
// consumed, or expired.
var ErrNotFound = errors.New("authstate: state not found")

// Registry stores one entry per in-flight login attempt. Entries are
// single-use: TakeAndRemove consumes the entry, so a replayed callback
// carrying the same state always misses.
type Registry interface {
	Put(ctx context.Context, state, codeVerifier string) error
	TakeAndRemove(ctx context.Context, state string) (string, error)
}
