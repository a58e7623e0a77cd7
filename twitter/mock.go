package twitter

import "context"

// Mock provides customizable hooks for testing API consumers.
type Mock struct {
	BuildAuthorizationURLFunc func() (*AuthLink, error)
	ExchangeCodeFunc          func(ctx context.Context, code, codeVerifier string) (*Token, error)
	RefreshAccessTokenFunc    func(ctx context.Context, refreshToken string) (*Token, error)
	FetchProfileFunc          func(ctx context.Context, accessToken string) (*Profile, error)
	PostStatusFunc            func(ctx context.Context, accessToken, text string) (*PostedStatus, error)
	LookupStatusFunc          func(ctx context.Context, accessToken, statusID string) (*StatusDetail, error)
}

// Ensure Mock implements API
var _ API = (*Mock)(nil)

func (m *Mock) BuildAuthorizationURL() (*AuthLink, error) {
	if m.BuildAuthorizationURLFunc != nil {
		return m.BuildAuthorizationURLFunc()
	}
	return nil, nil
}

func (m *Mock) ExchangeCode(ctx context.Context, code, codeVerifier string) (*Token, error) {
	if m.ExchangeCodeFunc != nil {
		return m.ExchangeCodeFunc(ctx, code, codeVerifier)
	}
	return nil, nil
}

func (m *Mock) RefreshAccessToken(ctx context.Context, refreshToken string) (*Token, error) {
	if m.RefreshAccessTokenFunc != nil {
		return m.RefreshAccessTokenFunc(ctx, refreshToken)
	}
	return nil, nil
}

func (m *Mock) FetchProfile(ctx context.Context, accessToken string) (*Profile, error) {
	if m.FetchProfileFunc != nil {
		return m.FetchProfileFunc(ctx, accessToken)
	}
	return nil, nil
}

func (m *Mock) PostStatus(ctx context.Context, accessToken, text string) (*PostedStatus, error) {
	if m.PostStatusFunc != nil {
		return m.PostStatusFunc(ctx, accessToken, text)
	}
	return nil, nil
}

func (m *Mock) LookupStatus(ctx context.Context, accessToken, statusID string) (*StatusDetail, error) {
	if m.LookupStatusFunc != nil {
		return m.LookupStatusFunc(ctx, accessToken, statusID)
	}
	return nil, nil
}
