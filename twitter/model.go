package twitter

import "time"

// AuthLink is everything generated for one authorization redirect.
type AuthLink struct {
	URL          string
	State        string
	CodeVerifier string
}

// Token holds the provider credentials returned by an exchange or refresh.
type Token struct {
	AccessToken  string
	RefreshToken string // may be empty depending on the granted scopes
	Expiry       time.Time
}

// Profile is the validated shape of the provider's /users/me payload.
type Profile struct {
	ID              string
	Username        string
	Name            string
	ProfileImageURL string
	Description     string
	Location        string
}

// PostedStatus is the provider's acknowledgement of a created status update.
type PostedStatus struct {
	ID   string
	Text string
}

// StatusDetail is a looked-up status update with its author attached.
type StatusDetail struct {
	ID        string
	Text      string
	AuthorID  string
	CreatedAt string
}
