package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/parley/parley-go/internal/model"
)

var ErrConversationNotFound = errors.New("conversation not found")

// ConversationRepository stores transcripts as a single JSON document per row.
type ConversationRepository struct {
	db *sql.DB
}

// NewConversationRepository creates a new ConversationRepository.
func NewConversationRepository(db *sql.DB) *ConversationRepository {
	return &ConversationRepository{db: db}
}

// Create inserts the conversation with its initial messages and sets its ID.
func (r *ConversationRepository) Create(ctx context.Context, conv *model.Conversation) error {
	blob, err := encodeMessages(conv.Messages)
	if err != nil {
		return err
	}

	result, err := r.db.ExecContext(ctx,
		`INSERT INTO conversations (user_id, created_at, messages) VALUES (?, ?, ?)`,
		conv.UserID, conv.CreatedAt, blob,
	)
	if err != nil {
		return fmt.Errorf("inserting conversation: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	conv.ID = id
	return nil
}

// Get returns the conversation only when it is owned by userID.
func (r *ConversationRepository) Get(ctx context.Context, id, userID int64) (*model.Conversation, error) {
	return scanConversation(r.db.QueryRowContext(ctx,
		`SELECT id, user_id, created_at, messages FROM conversations WHERE id = ? AND user_id = ?`,
		id, userID,
	))
}

// List returns summaries of the user's conversations, newest first.
func (r *ConversationRepository) List(ctx context.Context, userID int64) ([]model.ConversationSummary, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, created_at, messages FROM conversations
		WHERE user_id = ? ORDER BY created_at DESC, id DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing conversations: %w", err)
	}
	defer rows.Close()

	summaries := []model.ConversationSummary{}
	for rows.Next() {
		conv, err := scanConversation(rows)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, model.ConversationSummary{
			ID:           conv.ID,
			UserID:       conv.UserID,
			CreatedAt:    conv.CreatedAt,
			FirstMessage: conv.FirstUserMessage(),
		})
	}

	return summaries, rows.Err()
}

// Append adds msgs to the end of the transcript inside one transaction.
// The row is locked so concurrent appends to one conversation never lose messages.
func (r *ConversationRepository) Append(ctx context.Context, id, userID int64, msgs ...model.Message) (*model.Conversation, error) {
	var conv *model.Conversation
	err := WithTx(ctx, r.db, func(ctx context.Context, tx DBTX) error {
		var err error
		conv, err = scanConversation(tx.QueryRowContext(ctx,
			`SELECT id, user_id, created_at, messages FROM conversations WHERE id = ? AND user_id = ? FOR UPDATE`,
			id, userID,
		))
		if err != nil {
			return err
		}

		conv.Messages = append(conv.Messages, msgs...)
		blob, err := encodeMessages(conv.Messages)
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `UPDATE conversations SET messages = ? WHERE id = ?`, blob, id); err != nil {
			return fmt.Errorf("updating conversation: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return conv, nil
}

// Delete removes the conversation. It reports false when nothing owned by userID matched.
func (r *ConversationRepository) Delete(ctx context.Context, id, userID int64) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM conversations WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return false, fmt.Errorf("deleting conversation: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanConversation(row rowScanner) (*model.Conversation, error) {
	conv := &model.Conversation{}
	var blob string
	if err := row.Scan(&conv.ID, &conv.UserID, &conv.CreatedAt, &blob); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrConversationNotFound
		}
		return nil, fmt.Errorf("querying conversation: %w", err)
	}

	msgs, err := decodeMessages(blob)
	if err != nil {
		return nil, fmt.Errorf("conversation %d: %w", conv.ID, err)
	}
	conv.Messages = msgs
	return conv, nil
}

func encodeMessages(msgs []model.Message) (string, error) {
	if msgs == nil {
		msgs = []model.Message{}
	}
	b, err := json.Marshal(msgs)
	if err != nil {
		return "", fmt.Errorf("encoding messages: %w", err)
	}
	return string(b), nil
}

func decodeMessages(blob string) ([]model.Message, error) {
	msgs := []model.Message{}
	if blob == "" {
		return msgs, nil
	}
	if err := json.Unmarshal([]byte(blob), &msgs); err != nil {
		return nil, fmt.Errorf("decoding messages: %w", err)
	}
	return msgs, nil
}
