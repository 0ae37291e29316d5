package service

import (
	"context"
	"time"

	"github.com/parley/parley-go/internal/model"
)

// UserStore is satisfied by repository.UserRepository and memory.UserStore.
type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	UpdatePasswordAndEmail(ctx context.Context, id int64, passwordHash, email string) error
}

// TokenStore persists issued session tokens.
type TokenStore interface {
	Replace(ctx context.Context, t *model.SessionToken) error
	FindActive(ctx context.Context, userID int64, token string, now time.Time) (*model.SessionToken, error)
	DeleteActive(ctx context.Context, userID int64) (int64, error)
	RevokeExpired(ctx context.Context, now time.Time) (int64, error)
}

// ConversationStore persists transcripts. Every lookup is scoped to the owner.
type ConversationStore interface {
	Create(ctx context.Context, conv *model.Conversation) error
	Get(ctx context.Context, id, userID int64) (*model.Conversation, error)
	List(ctx context.Context, userID int64) ([]model.ConversationSummary, error)
	Append(ctx context.Context, id, userID int64, msgs ...model.Message) (*model.Conversation, error)
	Delete(ctx context.Context, id, userID int64) (bool, error)
}

// ConversationCache is an optional read-through cache for Get. Writers never
// store documents; they invalidate with the message count they produced, and
// Fill refuses anything older than the highest count seen or a deleted
// conversation. Implemented by cache.ConversationCache.
type ConversationCache interface {
	Get(ctx context.Context, userID, id int64) (*model.Conversation, bool, error)
	Fill(ctx context.Context, conv *model.Conversation) (bool, error)
	Invalidate(ctx context.Context, userID, id int64, version int) error
	Delete(ctx context.Context, userID, id int64) error
}
