package memory

import (
	"context"
	"sync"
	"time"

	"edustop-service/internal/domain"
	"github.com/google/uuid"
)

// TokenStore is an in-memory implementation of app.TokenStore.
type TokenStore struct {
	ttl   time.Duration
	clock func() time.Time

	mu        sync.Mutex
	entries   map[string]tokenEntry
	nextSweep time.Time
}

type tokenEntry struct {
	issued    domain.IssuedTask
	expiresAt time.Time
}

func NewTokenStore(ttl time.Duration) *TokenStore {
	return NewTokenStoreWithClock(ttl, time.Now)
}

// NewTokenStoreWithClock is test-only for deterministic expiry.
func NewTokenStoreWithClock(ttl time.Duration, clock func() time.Time) *TokenStore {
	return &TokenStore{
		ttl:       ttl,
		clock:     clock,
		entries:   make(map[string]tokenEntry),
		nextSweep: clock().Add(ttl),
	}
}

func (s *TokenStore) Issue(_ context.Context, issued domain.IssuedTask) (string, error) {
	token := uuid.NewString()

	now := s.clock()
	s.mu.Lock()
	defer s.mu.Unlock()
	if !now.Before(s.nextSweep) {
		s.sweepLocked(now)
		s.nextSweep = now.Add(s.ttl)
	}
	s.entries[token] = tokenEntry{
		issued:    issued,
		expiresAt: now.Add(s.ttl),
	}
	return token, nil
}

func (s *TokenStore) Consume(_ context.Context, token string) (domain.IssuedTask, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[token]
	delete(s.entries, token)
	if !ok || !entry.expiresAt.After(s.clock()) {
		return domain.IssuedTask{}, domain.ErrInvalidOrExpiredToken
	}
	return entry.issued, nil
}

// Len reports the number of stored tokens, expired ones included.
func (s *TokenStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// sweepLocked runs at most once per ttl, so Issue stays O(1) amortized.
func (s *TokenStore) sweepLocked(now time.Time) {
	for token, entry := range s.entries {
		if !entry.expiresAt.After(now) {
			delete(s.entries, token)
		}
	}
}
