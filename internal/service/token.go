package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/parley/parley-go/internal/crypto"
	"github.com/parley/parley-go/internal/model"
	"github.com/parley/parley-go/internal/repository"
)

// TokenService issues and checks bearer tokens. A token is accepted only when
// its signed claims verify and the store still holds it as active.
type TokenService struct {
	store  TokenStore
	secret string
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenService creates a new TokenService.
func NewTokenService(store TokenStore, secret string, ttl time.Duration) *TokenService {
	return &TokenService{
		store:  store,
		secret: secret,
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issue signs a new token for the user and makes it the user's only active one.
func (s *TokenService) Issue(ctx context.Context, userID int64, username string) (string, error) {
	s.sweep(ctx)

	now := s.now().UTC()
	token, err := crypto.GenerateToken(userID, username, s.secret, now, s.ttl)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}

	expires := now.Add(s.ttl)
	record := &model.SessionToken{
		UserID:    userID,
		Token:     token,
		IssuedAt:  now,
		ExpiresAt: &expires,
	}
	if err := s.store.Replace(ctx, record); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return "", ErrUserNotFound
		}
		return "", fmt.Errorf("storing token: %w", err)
	}

	return token, nil
}

// Validate resolves a bearer token to the identity it was issued for.
func (s *TokenService) Validate(ctx context.Context, token string) (model.Identity, error) {
	now := s.now().UTC()

	claims, err := crypto.ValidateToken(token, s.secret, now)
	if err != nil {
		if errors.Is(err, crypto.ErrTokenExpired) {
			return model.Identity{}, ErrTokenExpired
		}
		return model.Identity{}, ErrTokenMalformed
	}

	s.sweep(ctx)

	if _, err := s.store.FindActive(ctx, claims.UserID, token, now); err != nil {
		if errors.Is(err, repository.ErrTokenNotFound) {
			return model.Identity{}, ErrTokenNotFound
		}
		return model.Identity{}, fmt.Errorf("looking up token: %w", err)
	}

	return model.Identity{UserID: claims.UserID, Username: claims.Subject}, nil
}

// Revoke invalidates every active token of the user. It is idempotent.
func (s *TokenService) Revoke(ctx context.Context, userID int64) error {
	s.sweep(ctx)

	if _, err := s.store.DeleteActive(ctx, userID); err != nil {
		return fmt.Errorf("revoking tokens: %w", err)
	}
	return nil
}

// SweepExpired marks expired tokens revoked and reports how many changed.
func (s *TokenService) SweepExpired(ctx context.Context) (int64, error) {
	return s.store.RevokeExpired(ctx, s.now().UTC())
}

// RunSweeper calls SweepExpired every interval until ctx is done.
// A non-positive interval disables the sweeper.
func (s *TokenService) RunSweeper(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return nil
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			n, err := s.SweepExpired(ctx)
			if err != nil {
				slog.Warn("token sweep failed", "error", err)
				continue
			}
			if n > 0 {
				slog.Debug("revoked expired tokens", "count", n)
			}
		}
	}
}

func (s *TokenService) sweep(ctx context.Context) {
	if _, err := s.SweepExpired(ctx); err != nil {
		slog.Warn("token sweep failed", "error", err)
	}
}
