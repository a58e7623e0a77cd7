package status

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Mock provides customizable hooks for testing Store consumers.
type Mock struct {
	InsertFunc        func(ctx context.Context, su *StatusUpdate) error
	ListByAccountFunc func(ctx context.Context, accountID primitive.ObjectID) ([]StatusUpdate, error)
}

// Ensure Mock implements Store
var _ Store = (*Mock)(nil)

func (m *Mock) Insert(ctx context.Context, su *StatusUpdate) error {
	if m.InsertFunc != nil {
		return m.InsertFunc(ctx, su)
	}
	return nil
}

func (m *Mock) ListByAccount(ctx context.Context, accountID primitive.ObjectID) ([]StatusUpdate, error) {
	if m.ListByAccountFunc != nil {
		return m.ListByAccountFunc(ctx, accountID)
	}
	return nil, nil
}
