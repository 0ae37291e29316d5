package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/parley/parley-go/internal/model"
)

var ErrTokenNotFound = errors.New("token not found")

// TokenRepository persists issued session tokens.
type TokenRepository struct {
	db *sql.DB
}

// NewTokenRepository creates a new TokenRepository.
func NewTokenRepository(db *sql.DB) *TokenRepository {
	return &TokenRepository{db: db}
}

// Replace stores t as the only active token of t.UserID. The user row is
// locked first so concurrent logins for one user serialise.
func (r *TokenRepository) Replace(ctx context.Context, t *model.SessionToken) error {
	return WithTx(ctx, r.db, func(ctx context.Context, tx DBTX) error {
		var id int64
		err := tx.QueryRowContext(ctx, `SELECT id FROM users WHERE id = ? FOR UPDATE`, t.UserID).Scan(&id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrUserNotFound
			}
			return fmt.Errorf("locking user: %w", err)
		}

		if _, err := tx.ExecContext(ctx,
			`DELETE FROM user_tokens WHERE user_id = ? AND revoked = FALSE`, t.UserID,
		); err != nil {
			return fmt.Errorf("deleting active tokens: %w", err)
		}

		result, err := tx.ExecContext(ctx,
			`INSERT INTO user_tokens (user_id, token, created_at, expires_at, revoked) VALUES (?, ?, ?, ?, FALSE)`,
			t.UserID, t.Token, t.IssuedAt, nullTime(t.ExpiresAt),
		)
		if err != nil {
			return fmt.Errorf("inserting token: %w", err)
		}

		newID, err := result.LastInsertId()
		if err != nil {
			return err
		}
		t.ID = newID
		return nil
	})
}

// FindActive returns the stored token matching userID and token that is
// neither revoked nor expired at now.
func (r *TokenRepository) FindActive(ctx context.Context, userID int64, token string, now time.Time) (*model.SessionToken, error) {
	query := `SELECT id, user_id, token, created_at, expires_at, revoked FROM user_tokens
		WHERE user_id = ? AND token = ? AND revoked = FALSE AND (expires_at IS NULL OR expires_at > ?)
		LIMIT 1`

	t := &model.SessionToken{}
	var expires sql.NullTime
	err := r.db.QueryRowContext(ctx, query, userID, token, now).Scan(
		&t.ID, &t.UserID, &t.Token, &t.IssuedAt, &expires, &t.Revoked,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTokenNotFound
		}
		return nil, fmt.Errorf("querying token: %w", err)
	}
	if expires.Valid {
		e := expires.Time
		t.ExpiresAt = &e
	}

	return t, nil
}

// DeleteActive removes every non-revoked token of the user.
func (r *TokenRepository) DeleteActive(ctx context.Context, userID int64) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM user_tokens WHERE user_id = ? AND revoked = FALSE`, userID)
	if err != nil {
		return 0, fmt.Errorf("deleting active tokens: %w", err)
	}
	return result.RowsAffected()
}

// RevokeExpired marks every token whose expiry has passed as revoked.
func (r *TokenRepository) RevokeExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE user_tokens SET revoked = TRUE WHERE expires_at IS NOT NULL AND expires_at < ? AND revoked = FALSE`, now,
	)
	if err != nil {
		return 0, fmt.Errorf("revoking expired tokens: %w", err)
	}
	return result.RowsAffected()
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
