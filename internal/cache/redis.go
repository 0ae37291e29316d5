// Package cache keeps recently read transcripts in Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/parley/parley-go/internal/model"
)

const (
	keyPrefix   = "conversation:"
	floorSuffix = ":floor"
	DefaultTTL  = 5 * time.Minute
)

// deletedFloor marks a conversation that must never be filled again.
const deletedFloor = "deleted"

// The floor key holds the lowest message count a fill may store, or
// deletedFloor. Writers raise it before dropping the cached document, so a
// reader that loaded an older transcript cannot put it back.
var (
	fillScript = redis.NewScript(`
local floor = redis.call('GET', KEYS[2])
if floor == ARGV[4] then return 0 end
if floor and tonumber(floor) > tonumber(ARGV[1]) then return 0 end
redis.call('SET', KEYS[1], ARGV[2], 'PX', ARGV[3])
return 1
`)

	invalidateScript = redis.NewScript(`
local floor = redis.call('GET', KEYS[2])
if floor ~= ARGV[3] and (not floor or tonumber(floor) < tonumber(ARGV[1])) then
	redis.call('SET', KEYS[2], ARGV[1], 'PX', ARGV[2])
end
redis.call('DEL', KEYS[1])
return 1
`)

	deleteScript = redis.NewScript(`
redis.call('SET', KEYS[2], ARGV[1], 'PX', ARGV[2])
redis.call('DEL', KEYS[1])
return 1
`)
)

// NewRedisClient parses a redis:// URL and verifies the connection.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}

	opt.PoolSize = 10
	opt.MinIdleConns = 2
	opt.MaxRetries = 3
	opt.DialTimeout = 5 * time.Second
	opt.ReadTimeout = 3 * time.Second
	opt.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}

	return client, nil
}

// ConversationCache stores whole conversations as JSON under a per-owner key.
type ConversationCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewConversationCache(client *redis.Client, ttl time.Duration) *ConversationCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &ConversationCache{client: client, ttl: ttl}
}

// Get reports a miss as (nil, false, nil).
func (c *ConversationCache) Get(ctx context.Context, userID, id int64) (*model.Conversation, bool, error) {
	val, err := c.client.Get(ctx, key(userID, id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	conv := &model.Conversation{}
	if err := json.Unmarshal(val, conv); err != nil {
		return nil, false, fmt.Errorf("decoding cached conversation: %w", err)
	}
	return conv, true, nil
}

// Fill caches conv as read from the store. It reports false when a writer
// has already moved past this transcript or the conversation was deleted.
func (c *ConversationCache) Fill(ctx context.Context, conv *model.Conversation) (bool, error) {
	data, err := json.Marshal(conv)
	if err != nil {
		return false, err
	}
	stored, err := fillScript.Run(ctx, c.client,
		[]string{key(conv.UserID, conv.ID), floorKey(conv.UserID, conv.ID)},
		len(conv.Messages), data, c.ttl.Milliseconds(), deletedFloor,
	).Int()
	if err != nil {
		return false, err
	}
	return stored == 1, nil
}

// Invalidate drops the cached copy after a write that left version messages
// in the transcript.
func (c *ConversationCache) Invalidate(ctx context.Context, userID, id int64, version int) error {
	return invalidateScript.Run(ctx, c.client,
		[]string{key(userID, id), floorKey(userID, id)},
		version, c.ttl.Milliseconds(), deletedFloor,
	).Err()
}

// Delete drops the cached copy and blocks later fills for the conversation.
func (c *ConversationCache) Delete(ctx context.Context, userID, id int64) error {
	return deleteScript.Run(ctx, c.client,
		[]string{key(userID, id), floorKey(userID, id)},
		deletedFloor, c.ttl.Milliseconds(),
	).Err()
}

func key(userID, id int64) string {
	return fmt.Sprintf("%s%d:%d", keyPrefix, userID, id)
}

func floorKey(userID, id int64) string {
	return key(userID, id) + floorSuffix
}
