// Package status persists the record of status updates relayed
// through the service.
package status

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store defines the status-update persistence contract.
type Store interface {
	Insert(ctx context.Context, su *StatusUpdate) error
	// ListByAccount returns the account's relayed statuses, newest first.
	ListByAccount(ctx context.Context, accountID primitive.ObjectID) ([]StatusUpdate, error)
}

var _ Store = (*MongoStore)(nil)

// MongoStore implements Store on a MongoDB collection.
type MongoStore struct {
	coll *mongo.Collection
	now  func() time.Time
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{coll: db.Collection("status_updates"), now: time.Now}
}

func (s *MongoStore) Insert(ctx context.Context, su *StatusUpdate) error {
	if su.CreatedAt.IsZero() {
		su.CreatedAt = s.now().UTC()
	}
	res, err := s.coll.InsertOne(ctx, su)
	if err != nil {
		return fmt.Errorf("status: insert: %w", err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		su.ID = oid
	}
	return nil
}

func (s *MongoStore) ListByAccount(ctx context.Context, accountID primitive.ObjectID) ([]StatusUpdate, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := s.coll.Find(ctx, bson.M{"account_id": accountID}, opts)
	if err != nil {
		return nil, fmt.Errorf("status: list: %w", err)
	}
	defer func() {
		_ = cursor.Close(ctx)
	}()

	var out []StatusUpdate
	for cursor.Next(ctx) {
		var su StatusUpdate
		if err := cursor.Decode(&su); err != nil {
			return nil, fmt.Errorf("status: decoding record: %w", err)
		}
		out = append(out, su)
	}
	return out, cursor.Err()
}
