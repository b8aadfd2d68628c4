package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"supportdesk/internal/core"
	client "supportdesk/internal/database/client"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MessageChannelRepository 每個對話一個 pub/sub 頻道，多個實例之間共用
type MessageChannelRepository struct {
	client *redis.Client
}

func NewMessageChannelRepository(client *client.RedisClient) *MessageChannelRepository {
	return &MessageChannelRepository{client: client.Client()}
}

// Publish 回傳收到的訂閱者數量
func (repository *MessageChannelRepository) Publish(
	contextValue context.Context,
	event core.MessageEvent,
) (_ int64, returnedError error) {

	payload, marshalError := json.Marshal(event)
	if marshalError != nil {
		return 0, marshalError
	}
	return repository.client.Publish(contextValue, ChannelName(event.ConversationID), payload).Result()
}

// Subscribe 等到 redis 確認訂閱才回傳，之後發布的事件都收得到
func (repository *MessageChannelRepository) Subscribe(
	contextValue context.Context,
	conversationIdentifier primitive.ObjectID,
) (_ *redis.PubSub, returnedError error) {

	pubsub := repository.client.Subscribe(contextValue, ChannelName(conversationIdentifier))
	if _, returnedError = pubsub.Receive(contextValue); returnedError != nil {
		_ = pubsub.Close()
		return nil, returnedError
	}
	return pubsub, nil
}

// DecodeEvent 解析頻道上的訊息
func DecodeEvent(payload string) (core.MessageEvent, error) {
	var event core.MessageEvent
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		return core.MessageEvent{}, fmt.Errorf("decode message event: %w", err)
	}
	return event, nil
}

func ChannelName(conversationIdentifier primitive.ObjectID) string {
	return fmt.Sprintf("%s:%s:%s", core.RedisKeyServerName, core.RedisKeyConversationChannel, conversationIdentifier.Hex())
}
