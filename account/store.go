// Package account persists the mapping from external provider
// identities to local accounts, including the provider token pair.
package account

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrNotFound = errors.New("account: not found")
	// ErrConflict surfaces the loser of a concurrent upsert race on the
	// same external id; the unique index keeps the loser loud instead
	// of silently duplicating.
	ErrConflict = errors.New("account: duplicate external id")
)

// Store defines the credential store contract. This allows for
// different database backends behind the same handlers.
type Store interface {
	FindByExternalID(ctx context.Context, externalID string) (*Account, error)
	FindByID(ctx context.Context, id string) (*Account, error)
	// Upsert overwrites the profile and token fields of the account for
	// externalID, creating it on first login. One logical operation; no
	// partial update is visible to a concurrent reader.
	Upsert(ctx context.Context, externalID string, profile Profile, tokens Tokens) (*Account, error)
	// UpdateTokens is the refresh path: it never touches profile fields.
	UpdateTokens(ctx context.Context, id string, tokens Tokens) (*Account, error)
	// UpdateProfile is the explicit profile-refresh path: it never
	// touches token fields.
	UpdateProfile(ctx context.Context, id string, profile Profile) (*Account, error)
}

var _ Store = (*MongoStore)(nil)

// MongoStore implements Store on a MongoDB collection.
type MongoStore struct {
	coll *mongo.Collection
	now  func() time.Time
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{coll: db.Collection("accounts"), now: time.Now}
}

// EnsureIndexes creates the unique index backing the one-account-per-
// external-identity invariant.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "external_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("account: creating external_id index: %w", err)
	}
	return nil
}

func (s *MongoStore) FindByExternalID(ctx context.Context, externalID string) (*Account, error) {
	var a Account
	err := s.coll.FindOne(ctx, bson.M{"external_id": externalID}).Decode(&a)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("account: find by external id: %w", err)
	}
	return &a, nil
}

func (s *MongoStore) FindByID(ctx context.Context, id string) (*Account, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	var a Account
	err = s.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&a)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("account: find by id: %w", err)
	}
	return &a, nil
}

func (s *MongoStore) Upsert(ctx context.Context, externalID string, profile Profile, tokens Tokens) (*Account, error) {
	now := s.now().UTC()
	set := bson.M{
		"username":          profile.Username,
		"name":              profile.Name,
		"profile_image_url": profile.ProfileImageURL,
		"description":       profile.Description,
		"location":          profile.Location,
		"access_token":      tokens.AccessToken,
		"token_expiry":      tokens.Expiry,
		"updated_at":        now,
	}
	if tokens.RefreshToken != "" {
		set["refresh_token"] = tokens.RefreshToken
	}
	update := bson.M{
		"$set":         set,
		"$setOnInsert": bson.M{"created_at": now},
	}

	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	var a Account
	err := s.coll.FindOneAndUpdate(ctx, bson.M{"external_id": externalID}, update, opts).Decode(&a)
	if mongo.IsDuplicateKeyError(err) {
		return nil, ErrConflict
	}
	if err != nil {
		return nil, fmt.Errorf("account: upsert: %w", err)
	}
	return &a, nil
}

func (s *MongoStore) UpdateTokens(ctx context.Context, id string, tokens Tokens) (*Account, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	set := bson.M{
		"access_token": tokens.AccessToken,
		"token_expiry": tokens.Expiry,
		"updated_at":   s.now().UTC(),
	}
	if tokens.RefreshToken != "" {
		set["refresh_token"] = tokens.RefreshToken
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var a Account
	err = s.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": set}, opts).Decode(&a)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("account: update tokens: %w", err)
	}
	return &a, nil
}

func (s *MongoStore) UpdateProfile(ctx context.Context, id string, profile Profile) (*Account, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	set := bson.M{
		"username":          profile.Username,
		"name":              profile.Name,
		"profile_image_url": profile.ProfileImageURL,
		"description":       profile.Description,
		"location":          profile.Location,
		"updated_at":        s.now().UTC(),
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var a Account
	err = s.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": set}, opts).Decode(&a)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("account: update profile: %w", err)
	}
	return &a, nil
}
