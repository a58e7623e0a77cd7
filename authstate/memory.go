package authstate

import (
	"context"
	"errors"
	"sync"
	"time"
)

type memoryEntry struct {
	codeVerifier string
	createdAt    time.Time
}

// Memory is a mutex-guarded in-process Registry for single-instance
// deployments. Entries left behind by abandoned logins are swept
// lazily on every Put and rejected on take once past the TTL.
type Memory struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

var _ Registry = (*Memory)(nil)

// NewMemory creates an in-process registry whose entries expire after ttl.
func NewMemory(ttl time.Duration) *Memory {
	return &Memory{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// WithNow overrides the registry clock. Used by tests.
func (m *Memory) WithNow(now func() time.Time) *Memory {
	m.now = now
	return m
}

func (m *Memory) Put(_ context.Context, state, codeVerifier string) error {
	if state == "" {
		return errors.New("authstate: state cannot be empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for k, e := range m.entries {
		if now.Sub(e.createdAt) > m.ttl {
			delete(m.entries, k)
		}
	}

	m.entries[state] = memoryEntry{codeVerifier: codeVerifier, createdAt: now}
	return nil
}

func (m *Memory) TakeAndRemove(_ context.Context, state string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[state]
	if !ok {
		return "", ErrNotFound
	}
	delete(m.entries, state)

	if m.now().Sub(e.createdAt) > m.ttl {
		return "", ErrNotFound
	}
	return e.codeVerifier, nil
}
