package account

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Account mirrors one external identity. Exactly one document exists
// per distinct ExternalID; the profile and token fields are
// overwritten wholesale on every successful login.
type Account struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ExternalID      string             `bson:"external_id" json:"externalId"`
	Username        string             `bson:"username" json:"username"`
	Name            string             `bson:"name" json:"name"`
	Email           string             `bson:"email,omitempty" json:"email,omitempty"`
	ProfileImageURL string             `bson:"profile_image_url,omitempty" json:"profileImageUrl,omitempty"`
	Description     string             `bson:"description,omitempty" json:"description,omitempty"`
	Location        string             `bson:"location,omitempty" json:"location,omitempty"`
	AccessToken     string             `bson:"access_token" json:"-"`
	RefreshToken    string             `bson:"refresh_token,omitempty" json:"-"`
	TokenExpiry     time.Time          `bson:"token_expiry,omitempty" json:"-"`
	CreatedAt       time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt       time.Time          `bson:"updated_at" json:"updatedAt"`
}

// Profile is the mutable profile mirror pulled from the provider.
type Profile struct {
	Username        string
	Name            string
	ProfileImageURL string
	Description     string
	Location        string
}

// Tokens is the provider credential set stored alongside the profile.
// RefreshToken is optional; when the provider omits a new one the
// stored value is retained.
type Tokens struct {
	AccessToken  string
	RefreshToken string
	Expiry       time.Time
}
