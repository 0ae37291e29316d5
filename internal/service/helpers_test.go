package service

import (
	"context"
	"sync"
	"time"

	"github.com/parley/parley-go/internal/model"
	"github.com/parley/parley-go/internal/repository/memory"
)

const testSecret = "test-secret"

// scriptedProvider returns reply or err and records every prompt it saw.
type scriptedProvider struct {
	mu      sync.Mutex
	reply   string
	err     error
	prompts []string
}

func (p *scriptedProvider) Generate(_ context.Context, prompt string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.prompts = append(p.prompts, prompt)
	if p.err != nil {
		return "", p.err
	}
	return p.reply, nil
}

func (p *scriptedProvider) calls() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.prompts...)
}

// recordingSink collects events; onSend runs after each one is recorded.
type recordingSink struct {
	events []model.StreamEvent
	onSend func(model.StreamEvent) error
}

func (s *recordingSink) Send(e model.StreamEvent) error {
	s.events = append(s.events, e)
	if s.onSend != nil {
		return s.onSend(e)
	}
	return nil
}

func (s *recordingSink) types() []string {
	out := make([]string, len(s.events))
	for i, e := range s.events {
		out[i] = e.Type
	}
	return out
}

// mapCache is an in-process ConversationCache with the same floor rules as
// the Redis one: fills older than the last invalidated version, or of a
// deleted conversation, are refused.
type mapCache struct {
	mu      sync.Mutex
	entries map[[2]int64]model.Conversation
	floors  map[[2]int64]int
	deleted map[[2]int64]bool
	hits    int
}

func newMapCache() *mapCache {
	return &mapCache{
		entries: make(map[[2]int64]model.Conversation),
		floors:  make(map[[2]int64]int),
		deleted: make(map[[2]int64]bool),
	}
}

func (c *mapCache) Get(_ context.Context, userID, id int64) (*model.Conversation, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	conv, ok := c.entries[[2]int64{userID, id}]
	if !ok {
		return nil, false, nil
	}
	c.hits++
	return &conv, true, nil
}

func (c *mapCache) Fill(_ context.Context, conv *model.Conversation) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	k := [2]int64{conv.UserID, conv.ID}
	if c.deleted[k] || c.floors[k] > len(conv.Messages) {
		return false, nil
	}
	c.entries[k] = *conv
	return true, nil
}

func (c *mapCache) Invalidate(_ context.Context, userID, id int64, version int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	k := [2]int64{userID, id}
	if version > c.floors[k] {
		c.floors[k] = version
	}
	delete(c.entries, k)
	return nil
}

func (c *mapCache) Delete(_ context.Context, userID, id int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	k := [2]int64{userID, id}
	c.deleted[k] = true
	delete(c.entries, k)
	return nil
}

// gatedStore pauses the first Get after it has read from the store until
// release is closed, so writes can land in between.
type gatedStore struct {
	*memory.ConversationStore
	once    sync.Once
	read    chan struct{}
	release chan struct{}
}

func newGatedStore() *gatedStore {
	return &gatedStore{
		ConversationStore: memory.NewConversationStore(),
		read:              make(chan struct{}),
		release:           make(chan struct{}),
	}
}

func (g *gatedStore) Get(ctx context.Context, id, userID int64) (*model.Conversation, error) {
	conv, err := g.ConversationStore.Get(ctx, id, userID)
	g.once.Do(func() {
		close(g.read)
		<-g.release
	})
	return conv, err
}

// failingAppendStore fails the nth Append call with err.
type failingAppendStore struct {
	*memory.ConversationStore
	mu      sync.Mutex
	calls   int
	failOn  int
	failErr error
}

func (f *failingAppendStore) Append(ctx context.Context, id, userID int64, msgs ...model.Message) (*model.Conversation, error) {
	f.mu.Lock()
	f.calls++
	fail := f.calls == f.failOn
	f.mu.Unlock()
	if fail {
		return nil, f.failErr
	}
	return f.ConversationStore.Append(ctx, id, userID, msgs...)
}

func newTestTokenService() (*TokenService, *memory.TokenStore) {
	store := memory.NewTokenStore()
	return NewTokenService(store, testSecret, 24*time.Hour), store
}
