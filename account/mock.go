package account

import "context"

// Mock provides customizable hooks for testing Store consumers.
type Mock struct {
	FindByExternalIDFunc func(ctx context.Context, externalID string) (*Account, error)
	FindByIDFunc         func(ctx context.Context, id string) (*Account, error)
	UpsertFunc           func(ctx context.Context, externalID string, profile Profile, tokens Tokens) (*Account, error)
	UpdateTokensFunc     func(ctx context.Context, id string, tokens Tokens) (*Account, error)
	UpdateProfileFunc    func(ctx context.Context, id string, profile Profile) (*Account, error)
}

// Ensure Mock implements Store
var _ Store = (*Mock)(nil)

func (m *Mock) FindByExternalID(ctx context.Context, externalID string) (*Account, error) {
	if m.FindByExternalIDFunc != nil {
		return m.FindByExternalIDFunc(ctx, externalID)
	}
	return nil, ErrNotFound
}

func (m *Mock) FindByID(ctx context.Context, id string) (*Account, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, id)
	}
	return nil, ErrNotFound
}

func (m *Mock) Upsert(ctx context.Context, externalID string, profile Profile, tokens Tokens) (*Account, error) {
	if m.UpsertFunc != nil {
		return m.UpsertFunc(ctx, externalID, profile, tokens)
	}
	return nil, nil
}

func (m *Mock) UpdateTokens(ctx context.Context, id string, tokens Tokens) (*Account, error) {
	if m.UpdateTokensFunc != nil {
		return m.UpdateTokensFunc(ctx, id, tokens)
	}
	return nil, ErrNotFound
}

func (m *Mock) UpdateProfile(ctx context.Context, id string, profile Profile) (*Account, error) {
	if m.UpdateProfileFunc != nil {
		return m.UpdateProfileFunc(ctx, id, profile)
	}
	return nil, ErrNotFound
}
