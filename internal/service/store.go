package service

import (
	"context"
	"time"

	"supportdesk/internal/core"
	fluentdModel "supportdesk/internal/database/fluentd/model"
	fluentdRepo "supportdesk/internal/database/fluentd/repository"
	"supportdesk/internal/database/mongodb/model"
	"supportdesk/internal/database/mongodb/repository"
	redisRepo "supportdesk/internal/database/redis/repository"

	"github.com/google/wire"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserStore users collection 的存取介面
type UserStore interface {
	Create(ctx context.Context, user *model.User) (*model.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*model.User, error)
	FindByExternalID(ctx context.Context, externalID string) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	UpdateProfile(ctx context.Context, id primitive.ObjectID, profile model.UserProfile) (*model.User, error)
	LinkExternalID(ctx context.Context, id primitive.ObjectID, externalID string, profile model.UserProfile) (*model.User, error)
	UpdateRole(ctx context.Context, id primitive.ObjectID, role core.Role) (*model.User, error)
	UpdateStatus(ctx context.Context, id primitive.ObjectID, status core.Status) (*model.User, error)
	UpdateNotifications(ctx context.Context, id primitive.ObjectID, preferences model.NotificationPreferences) (*model.User, error)
	UpdateLastSeen(ctx context.Context, id primitive.ObjectID, at time.Time) (int64, error)
	List(ctx context.Context, query core.UserQuery) ([]*model.User, error)
	ListIDs(ctx context.Context, roles []core.Role, status core.Status) ([]primitive.ObjectID, error)
}

type ConversationStore interface {
	Create(ctx context.Context, conversation *model.Conversation) (*model.Conversation, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*model.Conversation, error)
	List(ctx context.Context, scope core.ConversationScope, status *core.ConversationStatus) ([]*model.Conversation, error)
	SetStatus(ctx context.Context, id primitive.ObjectID, status core.ConversationStatus) (*model.Conversation, error)
	Assign(ctx context.Context, id primitive.ObjectID, staffID primitive.ObjectID) (bool, error)
	Unassign(ctx context.Context, id primitive.ObjectID) (bool, error)
	UnassignStaff(ctx context.Context, staffID primitive.ObjectID) (int64, error)
	AssigneeIDs(ctx context.Context) ([]primitive.ObjectID, error)
	Touch(ctx context.Context, id primitive.ObjectID) error
	DeleteByID(ctx context.Context, id primitive.ObjectID) (int64, error)
}

type MessageStore interface {
	Create(ctx context.Context, message *model.Message) (*model.Message, error)
	GetWithSender(ctx context.Context, conversationID, messageID primitive.ObjectID) (*model.MessageView, error)
	ListWithSender(ctx context.Context, conversationID primitive.ObjectID) ([]*model.MessageView, error)
	MarkRead(ctx context.Context, conversationID, viewerID primitive.ObjectID) (int64, error)
	CountUnread(ctx context.Context, conversationIDs []primitive.ObjectID, viewerID primitive.ObjectID) (map[primitive.ObjectID]int64, error)
	DeleteByConversationID(ctx context.Context, conversationID primitive.ObjectID) (int64, error)
}

// MessageChannel 跨實例的即時頻道
type MessageChannel interface {
	Publish(ctx context.Context, event core.MessageEvent) (int64, error)
	Subscribe(ctx context.Context, conversationID primitive.ObjectID) (*redis.PubSub, error)
}

// MessagePublisher 訊息寫入後通知訂閱者
type MessagePublisher interface {
	Publish(ctx context.Context, event core.MessageEvent) error
}

// MessageAuditLogger 新訊息的稽核紀錄
type MessageAuditLogger interface {
	LogMessageEvent(ctx context.Context, event fluentdModel.MessageEventLog) error
}

var storeBindings = wire.NewSet(
	wire.Bind(new(UserStore), new(*repository.UserRepository)),
	wire.Bind(new(ConversationStore), new(*repository.ConversationRepository)),
	wire.Bind(new(MessageStore), new(*repository.MessageRepository)),
	wire.Bind(new(MessageChannel), new(*redisRepo.MessageChannelRepository)),
	wire.Bind(new(MessagePublisher), new(*RealtimeService)),
	wire.Bind(new(MessageAuditLogger), new(*fluentdRepo.LogRepository)),
)
