package core

// ─── Database Types ────────────────────────────────────────────────────────────

type MongoDatabaseName string
type MongoCollection string
type RedisKey string
type FluentdSubTag string

// ─── MongoDB ───────────────────────────────────────────────────────────────────
const (
	MongoDBSupportDesk MongoDatabaseName = "supportdesk"
)

// MongoDB collections
const (
	MongoCollectionUsers         MongoCollection = "users"
	MongoCollectionConversations MongoCollection = "conversations"
	MongoCollectionMessages      MongoCollection = "messages"
)

// ─── Redis Keys ────────────────────────────────────────────────────────────────

const (
	RedisKeyServerName          RedisKey = "supportdesk"          // 伺服器名稱
	RedisKeyConversationChannel RedisKey = "conversation_channel" // 對話即時頻道前綴
	RedisKeyMessageRateLimit    RedisKey = "message_ratelimit"    // 送訊息限流
)

const (
	FluentdRequest      FluentdSubTag = "request_log"
	FluentdResponse     FluentdSubTag = "response_log"
	FluentdMessageEvent FluentdSubTag = "message_event_log"
)
