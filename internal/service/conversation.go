package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/parley/parley-go/internal/llm"
	"github.com/parley/parley-go/internal/model"
	"github.com/parley/parley-go/internal/repository"
)

var (
	ErrContentRequired      = validationError("message content must not be empty")
	ErrConversationNotFound = errors.New("conversation not found")
	ErrUpstream             = errors.New("completion provider failed")
)

// streamErrorMessage is what clients see in an error event.
const streamErrorMessage = "failed to generate response"

// ConversationConfig tunes provider calls and incremental delivery.
type ConversationConfig struct {
	LLMTimeout time.Duration
	ChunkWords int
	ChunkDelay time.Duration
}

// DefaultConversationConfig returns the production defaults.
func DefaultConversationConfig() ConversationConfig {
	return ConversationConfig{
		LLMTimeout: 60 * time.Second,
		ChunkWords: 3,
		ChunkDelay: 100 * time.Millisecond,
	}
}

// EventSink receives stream events in order. A Send error means the
// client is gone.
type EventSink interface {
	Send(event model.StreamEvent) error
}

// ConversationService runs conversation turns against a completion provider.
type ConversationService struct {
	store    ConversationStore
	provider llm.Provider
	cache    ConversationCache
	cfg      ConversationConfig
	now      func() time.Time
}

// NewConversationService creates a new ConversationService. cache may be nil.
func NewConversationService(store ConversationStore, provider llm.Provider, cache ConversationCache, cfg ConversationConfig) *ConversationService {
	if cfg.ChunkWords < 1 {
		cfg.ChunkWords = 3
	}
	return &ConversationService{
		store:    store,
		provider: provider,
		cache:    cache,
		cfg:      cfg,
		now:      time.Now,
	}
}

// Start opens a conversation seeded with firstMessage and asks the provider for
// the first reply. On provider failure the stored user-only conversation is
// returned together with an ErrUpstream error.
func (s *ConversationService) Start(ctx context.Context, userID int64, firstMessage string) (*model.Conversation, error) {
	if strings.TrimSpace(firstMessage) == "" {
		return nil, ErrContentRequired
	}

	now := s.timestamp()
	conv := &model.Conversation{
		UserID:    userID,
		CreatedAt: now,
		Messages:  []model.Message{{Role: model.RoleUser, Content: firstMessage, Timestamp: now}},
	}
	if err := s.store.Create(ctx, conv); err != nil {
		return nil, fmt.Errorf("creating conversation: %w", err)
	}

	reply, err := s.complete(ctx, firstMessage)
	if err != nil {
		return conv, err
	}

	return s.appendAssistant(ctx, conv, reply)
}

// Append adds a user turn and the provider's reply to the conversation.
// The user turn is stored before the provider is called.
func (s *ConversationService) Append(ctx context.Context, userID, convID int64, content string) (*model.Conversation, error) {
	conv, err := s.appendUser(ctx, userID, convID, content)
	if err != nil {
		return nil, err
	}

	reply, err := s.complete(ctx, buildPrompt(conv.Messages))
	if err != nil {
		return conv, err
	}

	return s.appendAssistant(ctx, conv, reply)
}

// Stream is Append with incremental delivery through sink. Errors found before
// the first event are returned without sending anything; later failures send
// one error event. A cancelled ctx abandons the turn without storing a reply.
func (s *ConversationService) Stream(ctx context.Context, userID, convID int64, content string, sink EventSink) error {
	conv, err := s.appendUser(ctx, userID, convID, content)
	if err != nil {
		return err
	}

	userMsg := conv.Messages[len(conv.Messages)-1]
	if err := sink.Send(model.StreamEvent{Type: model.EventUserMessage, Message: &userMsg}); err != nil {
		return err
	}

	placeholder := model.Message{Role: model.RoleAssistant, Content: "", Timestamp: s.timestamp()}
	if err := sink.Send(model.StreamEvent{Type: model.EventAssistantStart, Message: &placeholder}); err != nil {
		return err
	}

	reply, err := s.complete(ctx, buildPrompt(conv.Messages))
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.sendError(sink)
		return err
	}

	for i, chunk := range chunkWords(reply, s.cfg.ChunkWords) {
		if i > 0 {
			if err := sleepCtx(ctx, s.cfg.ChunkDelay); err != nil {
				return err
			}
		}
		if err := sink.Send(model.StreamEvent{Type: model.EventAssistantChunk, Content: chunk}); err != nil {
			return err
		}
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	conv, err = s.appendAssistant(ctx, conv, reply)
	if err != nil {
		s.sendError(sink)
		return err
	}

	assistant := conv.Messages[len(conv.Messages)-1]
	if err := sink.Send(model.StreamEvent{Type: model.EventAssistantComplete, Message: &assistant}); err != nil {
		return err
	}
	return sink.Send(model.StreamEvent{Type: model.EventDone})
}

// Get returns one conversation owned by userID.
func (s *ConversationService) Get(ctx context.Context, userID, convID int64) (*model.Conversation, error) {
	if s.cache != nil {
		conv, hit, err := s.cache.Get(ctx, userID, convID)
		if err != nil {
			slog.Warn("conversation cache read failed", "conversation_id", convID, "error", err)
		} else if hit {
			return conv, nil
		}
	}

	conv, err := s.store.Get(ctx, convID, userID)
	if err != nil {
		return nil, mapConversationErr(err)
	}
	if s.cache != nil {
		if _, err := s.cache.Fill(ctx, conv); err != nil {
			slog.Warn("conversation cache write failed", "conversation_id", convID, "error", err)
		}
	}
	return conv, nil
}

// List returns the user's conversation summaries, newest first.
func (s *ConversationService) List(ctx context.Context, userID int64) ([]model.ConversationSummary, error) {
	return s.store.List(ctx, userID)
}

// Delete removes a conversation. It reports false when nothing owned by userID matched.
func (s *ConversationService) Delete(ctx context.Context, userID, convID int64) (bool, error) {
	deleted, err := s.store.Delete(ctx, convID, userID)
	if err != nil {
		return false, err
	}
	if s.cache != nil {
		if err := s.cache.Delete(ctx, userID, convID); err != nil {
			slog.Warn("conversation cache evict failed", "conversation_id", convID, "error", err)
		}
	}
	return deleted, nil
}

func (s *ConversationService) appendUser(ctx context.Context, userID, convID int64, content string) (*model.Conversation, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrContentRequired
	}

	msg := model.Message{Role: model.RoleUser, Content: content, Timestamp: s.timestamp()}
	conv, err := s.store.Append(ctx, convID, userID, msg)
	if err != nil {
		return nil, mapConversationErr(err)
	}
	s.invalidate(ctx, conv)
	return conv, nil
}

func (s *ConversationService) appendAssistant(ctx context.Context, conv *model.Conversation, reply string) (*model.Conversation, error) {
	msg := model.Message{Role: model.RoleAssistant, Content: reply, Timestamp: s.timestamp()}
	updated, err := s.store.Append(ctx, conv.ID, conv.UserID, msg)
	if err != nil {
		return conv, mapConversationErr(err)
	}
	s.invalidate(ctx, updated)
	return updated, nil
}

func (s *ConversationService) complete(ctx context.Context, prompt string) (string, error) {
	if s.cfg.LLMTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.LLMTimeout)
		defer cancel()
	}

	reply, err := s.provider.Generate(ctx, prompt)
	if err != nil {
		slog.Error("completion failed", "error", err)
		return "", fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	return reply, nil
}

func (s *ConversationService) sendError(sink EventSink) {
	if err := sink.Send(model.StreamEvent{Type: model.EventError, Error: streamErrorMessage}); err != nil {
		slog.Debug("could not deliver error event", "error", err)
	}
}

func (s *ConversationService) invalidate(ctx context.Context, conv *model.Conversation) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, conv.UserID, conv.ID, len(conv.Messages)); err != nil {
		slog.Warn("conversation cache evict failed", "conversation_id", conv.ID, "error", err)
	}
}

func (s *ConversationService) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

func mapConversationErr(err error) error {
	if errors.Is(err, repository.ErrConversationNotFound) {
		return ErrConversationNotFound
	}
	return err
}
