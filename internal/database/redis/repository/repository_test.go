package repository

import (
	"context"
	"testing"
	"time"

	"supportdesk/internal/core"
	client "supportdesk/internal/database/client"
	"supportdesk/internal/telemetry"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *client.RedisClient) {
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = redisClient.Close() })
	return mr, client.NewRedisClientFrom(zap.NewNop(), redisClient)
}

func TestRateLimiter_ConsumeUntilExceeded(t *testing.T) {
	mr, redisClient := setupTestRedis(t)
	limiter := NewRateLimiterRepository(&telemetry.Trace{}, redisClient)
	ctx := context.Background()

	remaining, ttl, err := limiter.Consume(ctx, "u1", "message", 60, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, remaining)
	assert.Equal(t, int64(60), ttl)

	remaining, _, err = limiter.Consume(ctx, "u1", "message", 60, 2)
	require.NoError(t, err)
	assert.Equal(t, 0, remaining)

	_, _, err = limiter.Consume(ctx, "u1", "message", 60, 2)
	assert.ErrorIs(t, err, ErrRateLimitExceeded)

	assert.True(t, mr.Exists("supportdesk:message_ratelimit:message:u1"))

	// 其他使用者不受影響
	remaining, _, err = limiter.Consume(ctx, "u2", "message", 60, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, remaining)
}

func TestRateLimiter_WindowExpires(t *testing.T) {
	mr, redisClient := setupTestRedis(t)
	limiter := NewRateLimiterRepository(&telemetry.Trace{}, redisClient)
	ctx := context.Background()

	_, _, err := limiter.Consume(ctx, "u1", "message", 10, 1)
	require.NoError(t, err)
	_, _, err = limiter.Consume(ctx, "u1", "message", 10, 1)
	require.ErrorIs(t, err, ErrRateLimitExceeded)

	mr.FastForward(11 * time.Second)

	remaining, _, err := limiter.Consume(ctx, "u1", "message", 10, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, remaining)
}

func TestRateLimiter_GetCurrentAndDelete(t *testing.T) {
	_, redisClient := setupTestRedis(t)
	limiter := NewRateLimiterRepository(&telemetry.Trace{}, redisClient)
	ctx := context.Background()

	remaining, ttl, err := limiter.GetCurrent(ctx, "u1", "message", 5)
	require.NoError(t, err)
	assert.Equal(t, 5, remaining)
	assert.Zero(t, ttl)

	_, _, err = limiter.Consume(ctx, "u1", "message", 30, 5)
	require.NoError(t, err)

	remaining, ttl, err = limiter.GetCurrent(ctx, "u1", "message", 5)
	require.NoError(t, err)
	assert.Equal(t, 4, remaining)
	assert.Equal(t, int64(30), ttl)

	require.NoError(t, limiter.Delete(ctx, "u1", "message"))
	remaining, _, err = limiter.GetCurrent(ctx, "u1", "message", 5)
	require.NoError(t, err)
	assert.Equal(t, 5, remaining)
}

func TestMessageChannel_PublishSubscribe(t *testing.T) {
	_, redisClient := setupTestRedis(t)
	channel := NewMessageChannelRepository(redisClient)
	ctx := context.Background()

	conversationID := primitive.NewObjectID()
	pubsub, err := channel.Subscribe(ctx, conversationID)
	require.NoError(t, err)
	defer pubsub.Close()

	event := core.MessageEvent{
		ConversationID: conversationID,
		MessageID:      primitive.NewObjectID(),
		SenderID:       primitive.NewObjectID(),
		CreatedAt:      time.Now().UTC().Truncate(time.Millisecond),
	}
	receivers, err := channel.Publish(ctx, event)
	require.NoError(t, err)
	assert.Equal(t, int64(1), receivers)

	select {
	case msg := <-pubsub.Channel():
		assert.Equal(t, ChannelName(conversationID), msg.Channel)
		decoded, decodeErr := DecodeEvent(msg.Payload)
		require.NoError(t, decodeErr)
		assert.Equal(t, event.MessageID, decoded.MessageID)
		assert.True(t, event.CreatedAt.Equal(decoded.CreatedAt))
	case <-time.After(2 * time.Second):
		t.Fatal("no message received")
	}
}

func TestMessageChannel_OtherConversationIsolated(t *testing.T) {
	_, redisClient := setupTestRedis(t)
	channel := NewMessageChannelRepository(redisClient)
	ctx := context.Background()

	watched := primitive.NewObjectID()
	pubsub, err := channel.Subscribe(ctx, watched)
	require.NoError(t, err)
	defer pubsub.Close()

	receivers, err := channel.Publish(ctx, core.MessageEvent{ConversationID: primitive.NewObjectID(), MessageID: primitive.NewObjectID()})
	require.NoError(t, err)
	assert.Zero(t, receivers)
}

func TestDecodeEventInvalid(t *testing.T) {
	_, err := DecodeEvent("not-json")
	assert.Error(t, err)
}
