package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/parley/parley-go/internal/model"
	"github.com/parley/parley-go/internal/repository"
)

// ConversationStore keeps transcripts by id.
type ConversationStore struct {
	mu     sync.RWMutex
	nextID int64
	convs  map[int64]*model.Conversation
}

func NewConversationStore() *ConversationStore {
	return &ConversationStore{convs: make(map[int64]*model.Conversation)}
}

func (s *ConversationStore) Create(_ context.Context, conv *model.Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	conv.ID = s.nextID
	s.convs[conv.ID] = cloneConversation(conv)
	return nil
}

func (s *ConversationStore) Get(_ context.Context, id, userID int64) (*model.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conv, ok := s.convs[id]
	if !ok || conv.UserID != userID {
		return nil, repository.ErrConversationNotFound
	}
	return cloneConversation(conv), nil
}

func (s *ConversationStore) List(_ context.Context, userID int64) ([]model.ConversationSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summaries := []model.ConversationSummary{}
	for _, conv := range s.convs {
		if conv.UserID != userID {
			continue
		}
		summaries = append(summaries, model.ConversationSummary{
			ID:           conv.ID,
			UserID:       conv.UserID,
			CreatedAt:    conv.CreatedAt,
			FirstMessage: conv.FirstUserMessage(),
		})
	}

	sort.Slice(summaries, func(i, j int) bool {
		if !summaries[i].CreatedAt.Equal(summaries[j].CreatedAt) {
			return summaries[i].CreatedAt.After(summaries[j].CreatedAt)
		}
		return summaries[i].ID > summaries[j].ID
	})
	return summaries, nil
}

func (s *ConversationStore) Append(_ context.Context, id, userID int64, msgs ...model.Message) (*model.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.convs[id]
	if !ok || conv.UserID != userID {
		return nil, repository.ErrConversationNotFound
	}
	conv.Messages = append(conv.Messages, msgs...)
	return cloneConversation(conv), nil
}

func (s *ConversationStore) Delete(_ context.Context, id, userID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.convs[id]
	if !ok || conv.UserID != userID {
		return false, nil
	}
	delete(s.convs, id)
	return true, nil
}

func cloneConversation(c *model.Conversation) *model.Conversation {
	out := *c
	out.Messages = append([]model.Message{}, c.Messages...)
	return &out
}
