package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parley/parley-go/internal/model"
)

func unreachableClient(t *testing.T) *redis.Client {
	t.Helper()
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		MaxRetries:  -1,
		DialTimeout: 200 * time.Millisecond,
	})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestKey(t *testing.T) {
	if got := key(5, 42); got != "conversation:5:42" {
		t.Errorf("key() = %q, want %q", got, "conversation:5:42")
	}
}

func TestNewConversationCacheDefaultTTL(t *testing.T) {
	c := NewConversationCache(nil, 0)
	if c.ttl != DefaultTTL {
		t.Errorf("ttl = %v, want %v", c.ttl, DefaultTTL)
	}
}

func TestConversationCacheSurfacesConnectionErrors(t *testing.T) {
	c := NewConversationCache(unreachableClient(t), time.Minute)
	ctx := context.Background()

	if _, hit, err := c.Get(ctx, 1, 2); err == nil || hit {
		t.Errorf("Get() = hit %v, err %v; want miss with error", hit, err)
	}
	if _, err := c.Fill(ctx, &model.Conversation{ID: 2, UserID: 1}); err == nil {
		t.Error("Fill() expected error for unreachable redis")
	}
	if err := c.Invalidate(ctx, 1, 2, 3); err == nil {
		t.Error("Invalidate() expected error for unreachable redis")
	}
	if err := c.Delete(ctx, 1, 2); err == nil {
		t.Error("Delete() expected error for unreachable redis")
	}
}

func TestNewRedisClientInvalidURL(t *testing.T) {
	if _, err := NewRedisClient(context.Background(), "not-a-url"); err == nil {
		t.Error("NewRedisClient() expected error for invalid url")
	}
}

func newTestCache(t *testing.T) (*ConversationCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewConversationCache(client, time.Minute), mr
}

func transcript(userID, id int64, n int) *model.Conversation {
	conv := &model.Conversation{ID: id, UserID: userID}
	for i := 0; i < n; i++ {
		conv.Messages = append(conv.Messages, model.Message{Role: model.RoleUser, Content: "m"})
	}
	return conv
}

func TestFillThenGet(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	_, hit, err := c.Get(ctx, 1, 2)
	require.NoError(t, err)
	assert.False(t, hit)

	stored, err := c.Fill(ctx, transcript(1, 2, 2))
	require.NoError(t, err)
	assert.True(t, stored)

	got, hit, err := c.Get(ctx, 1, 2)
	require.NoError(t, err)
	require.True(t, hit)
	assert.Len(t, got.Messages, 2)
	assert.Equal(t, time.Minute, mr.TTL(key(1, 2)))

	_, hit, err = c.Get(ctx, 2, 2)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestFillRefusesTranscriptOlderThanInvalidation(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Invalidate(ctx, 1, 2, 4))

	stored, err := c.Fill(ctx, transcript(1, 2, 2))
	require.NoError(t, err)
	assert.False(t, stored)
	_, hit, err := c.Get(ctx, 1, 2)
	require.NoError(t, err)
	assert.False(t, hit)

	stored, err = c.Fill(ctx, transcript(1, 2, 4))
	require.NoError(t, err)
	assert.True(t, stored)
}

func TestInvalidateNeverLowersFloor(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Invalidate(ctx, 1, 2, 6))
	require.NoError(t, c.Invalidate(ctx, 1, 2, 4))

	floor, err := mr.Get(floorKey(1, 2))
	require.NoError(t, err)
	assert.Equal(t, "6", floor)

	stored, err := c.Fill(ctx, transcript(1, 2, 4))
	require.NoError(t, err)
	assert.False(t, stored)
}

func TestInvalidateDropsCachedCopy(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	_, err := c.Fill(ctx, transcript(1, 2, 2))
	require.NoError(t, err)
	require.NoError(t, c.Invalidate(ctx, 1, 2, 4))

	_, hit, err := c.Get(ctx, 1, 2)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestDeleteBlocksLaterFills(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	_, err := c.Fill(ctx, transcript(1, 2, 2))
	require.NoError(t, err)
	require.NoError(t, c.Delete(ctx, 1, 2))

	_, hit, err := c.Get(ctx, 1, 2)
	require.NoError(t, err)
	assert.False(t, hit)

	stored, err := c.Fill(ctx, transcript(1, 2, 10))
	require.NoError(t, err)
	assert.False(t, stored)

	require.NoError(t, c.Invalidate(ctx, 1, 2, 12))
	stored, err = c.Fill(ctx, transcript(1, 2, 12))
	require.NoError(t, err)
	assert.False(t, stored)
}
