package memory

import (
	"context"
	"sync"
	"time"

	"github.com/parley/parley-go/internal/model"
	"github.com/parley/parley-go/internal/repository"
)

// TokenStore keeps session tokens in a slice guarded by one mutex.
type TokenStore struct {
	mu     sync.Mutex
	nextID int64
	tokens []model.SessionToken
}

func NewTokenStore() *TokenStore {
	return &TokenStore{}
}

// Replace drops the user's non-revoked tokens and stores t.
func (s *TokenStore) Replace(_ context.Context, t *model.SessionToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.deleteActive(t.UserID)

	s.nextID++
	t.ID = s.nextID
	stored := *t
	if t.ExpiresAt != nil {
		e := *t.ExpiresAt
		stored.ExpiresAt = &e
	}
	s.tokens = append(s.tokens, stored)
	return nil
}

func (s *TokenStore) FindActive(_ context.Context, userID int64, token string, now time.Time) (*model.SessionToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range s.tokens {
		if t.UserID == userID && t.Token == token && t.ValidAt(now) {
			out := t
			return &out, nil
		}
	}
	return nil, repository.ErrTokenNotFound
}

func (s *TokenStore) DeleteActive(_ context.Context, userID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleteActive(userID), nil
}

func (s *TokenStore) RevokeExpired(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for i := range s.tokens {
		t := &s.tokens[i]
		if !t.Revoked && t.ExpiresAt != nil && t.ExpiresAt.Before(now) {
			t.Revoked = true
			n++
		}
	}
	return n, nil
}

// Len reports how many rows are stored, revoked ones included.
func (s *TokenStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tokens)
}

// deleteActive must be called with s.mu held.
func (s *TokenStore) deleteActive(userID int64) int64 {
	var n int64
	kept := s.tokens[:0]
	for _, t := range s.tokens {
		if t.UserID == userID && !t.Revoked {
			n++
			continue
		}
		kept = append(kept, t)
	}
	s.tokens = kept
	return n
}
