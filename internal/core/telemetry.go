package core

const ContextTraceKey = "telemetry_trace_ctx"

// ==== 型別安全 span name ====
// 專案全域建議都寫這裡，方便集中管理
type TraceSpanName string

const (
	SpanHttpRequest          TraceSpanName = "http_request"
	SpanLoggerMiddleware     TraceSpanName = "logger_middleware"
	SpanRecoveryMiddleware   TraceSpanName = "recovery_middleware"
	SpanCorsMiddleware       TraceSpanName = "cors_middleware"
	SpanResponseMiddleware   TraceSpanName = "response_middleware"
	SpanIdentityMiddleware   TraceSpanName = "identity_middleware"
	SpanRateLimitMiddleware  TraceSpanName = "ratelimit_middleware"
	SpanUserMiddleware       TraceSpanName = "user_middleware"
	SpanWebhookMiddleware    TraceSpanName = "webhook_middleware"
	SpanRealtimeDelivery     TraceSpanName = "realtime_delivery"
	SpanReleaseAssignmentJob TraceSpanName = "release_assignments_job"
)

// 指標名稱常數
type MetricName string

const (
	MetricHttpRequestsTotal        MetricName = "requests_total"
	MetricHttpRequestDuration      MetricName = "request_duration_seconds"
	MetricResponseSuccessTotal     MetricName = "response_success_total"
	MetricResponseFailTotal        MetricName = "response_fail_total"
	MetricRateLimitTotal           MetricName = "rate_limited_total"
	MetricMessagesAppendedTotal    MetricName = "messages_appended_total"
	MetricAttachmentsRejectedTotal MetricName = "attachments_rejected_total"
	MetricRealtimeSubscriptions    MetricName = "realtime_subscriptions"
	MetricReconcileTotal           MetricName = "reconcile_total"
	MetricRealtimeResyncsTotal     MetricName = "realtime_resyncs_total"
	MetricTouchFailedTotal         MetricName = "conversation_touch_failed_total"
)

// label name 常數
type MetricLabelName string

const (
	MetricLabelEndpoint MetricLabelName = "endpoint"
	MetricLabelStatus   MetricLabelName = "status"
	MetricLabelReason   MetricLabelName = "reason"
	MetricLabelOutcome  MetricLabelName = "outcome"
)

type LoggerRequestMeta struct {
	Method     string            `trace:"request.method"`
	Path       string            `trace:"request.path"`
	FullPath   string            `trace:"request.full_path"`
	Query      string            `trace:"request.query"`
	Body       string            `trace:"request.body"`
	Scheme     string            `trace:"http.scheme"`
	Host       string            `trace:"http.host"`
	UserAgent  string            `trace:"http.user_agent"`
	ContentLen int64             `trace:"http.request_content_length"`
	Proto      string            `trace:"http.flavor"`
	ClientIP   string            `trace:"net.peer.ip"`
	Headers    map[string]string `trace:"http.request.header"`
	Params     map[string]string `trace:"http.request.param"`
}
type TraceAdminUserListMeta struct {
	Page        int64   `trace:"list.page"`
	Size        int64   `trace:"list.size"`
	Role        string  `trace:"list.role,omitempty"`
	Status      string  `trace:"list.status,omitempty"`
	ResultCount int     `trace:"result.count,omitempty"`
	Error       *string `trace:"error,omitempty"`
}

// 供 Redis 限流 Consume / GetCurrent 使用
type TraceRateLimitMeta struct {
	Subject   string `trace:"rl.subject"`
	Scope     string `trace:"rl.scope"`
	Limit     int    `trace:"rl.limit_count"`
	WindowSec int64  `trace:"rl.window_sec"`
	Remaining int    `trace:"rl.remaining,omitempty"`
	TTL       int64  `trace:"rl.ttl_sec,omitempty"`
	Op        string `trace:"rl.op"` // "consume" / "get" / "delete"
}
type TraceRateLimitMiddlewareMeta struct {
	UserID      string `trace:"ratelimit.user_id"`
	Scope       string `trace:"ratelimit.scope"`
	ConfigLimit int    `trace:"ratelimit.config.limit"`
	Remaining   int    `trace:"ratelimit.remaining"`
	TTLSeconds  int64  `trace:"ratelimit.ttl_sec"`
	Blocked     bool   `trace:"ratelimit.blocked"`
}
type TracePanicMeta struct {
	Path       string  `trace:"http.path"`
	Method     string  `trace:"http.method"`
	ClientIP   string  `trace:"net.peer.ip"`
	UserAgent  string  `trace:"http.user_agent"`
	DurationMs float64 `trace:"response.latency_ms"`
	Status     int     `trace:"http.status_code"`
	Message    string  `trace:"error.message"`
	Stack      string  `trace:"error.stack"`
}

type TraceErrorMeta struct {
	Code       int     `trace:"error.code"`
	Message    string  `trace:"error.message"`
	Detail     string  `trace:"error.detail"`
	Status     int     `trace:"http.status_code"`
	DurationMs float64 `trace:"response.latency_ms"`
}

type TraceResponseMeta struct {
	Path       string  `trace:"http.path"`
	Method     string  `trace:"http.method"`
	Status     int     `trace:"http.status_code"`
	Message    string  `trace:"response.message"`
	Code       int     `trace:"response.code"`
	DurationMs float64 `trace:"response.latency_ms"`
	Data       string  `trace:"response.data_preview"`
}
type TraceHttpServerMeta struct {
	// request side
	ClientAddr        string `trace:"client.address"`
	HttpRequestMethod string `trace:"http.request.method"`
	HttpRoute         string `trace:"http.route"`
	UrlPath           string `trace:"http.request.path"`
	UrlScheme         string `trace:"http.request.url.scheme"`
	UserAgent         string `trace:"user_agent.original"`
	ServerAddress     string `trace:"server.address"`
	NetworkPeerAddr   string `trace:"network.peer.address"`
	NetworkPeerPort   int    `trace:"network.peer.port"`
	NetworkProtoVer   string `trace:"network.protocol.version"`
	SpanKind          string `trace:"span.kind"`
	SpanTraceID       string `trace:"span.trace_id"`
	HttpStatusCode    int    `trace:"http.response.status_code"`
}
type TraceIdentityMiddlewareMeta struct {
	Where      string `trace:"auth.where"`
	ClientIP   string `trace:"net.peer.ip,omitempty"`
	ExternalID string `trace:"auth.external_id,omitempty"`
	Enriched   bool   `trace:"auth.userinfo_enriched"`
	Status     string `trace:"auth.status,omitempty"`
}
type TraceUserMiddlewareMeta struct {
	UserID          string `trace:"auth.user_id,omitempty"`
	UserRole        string `trace:"auth.user_role,omitempty"`
	UserStatus      string `trace:"auth.user_status,omitempty"`
	Reconciled      bool   `trace:"user.reconciled"`
	UpdatedLastSeen bool   `trace:"user.updated_last_seen"`
	Status          string `trace:"auth.status,omitempty"`
}
type TraceReconcileMeta struct {
	ExternalID string `trace:"identity.external_id"`
	HasEmail   bool   `trace:"identity.has_email"`
	UserID     string `trace:"user.id,omitempty"`
	Outcome    string `trace:"reconcile.outcome,omitempty"`
	Attempts   int    `trace:"reconcile.attempts,omitempty"`
}
type TraceConversationMeta struct {
	Op             string `trace:"op"`
	ConversationID string `trace:"conversation.id,omitempty"`
	ViewerID       string `trace:"viewer.id,omitempty"`
	ViewerRole     string `trace:"viewer.role,omitempty"`
	StaffID        string `trace:"conversation.staff_id,omitempty"`
	Status         string `trace:"conversation.status,omitempty"`
	Count          int    `trace:"result.count,omitempty"`
	Changed        bool   `trace:"result.changed"`
}
type TraceMessageMeta struct {
	Op             string `trace:"op"`
	ConversationID string `trace:"conversation.id"`
	MessageID      string `trace:"message.id,omitempty"`
	SenderID       string `trace:"message.sender_id,omitempty"`
	Attachments    int    `trace:"message.attachments,omitempty"`
	Rejected       int    `trace:"message.attachments_rejected,omitempty"`
	Count          int    `trace:"result.count,omitempty"`
	Modified       int64  `trace:"mongo.modified_count,omitempty"`
}
type TraceAttachmentMeta struct {
	ConversationID string `trace:"conversation.id"`
	Files          int    `trace:"attachment.files"`
	Uploaded       int    `trace:"attachment.uploaded"`
	Rejected       int    `trace:"attachment.rejected"`
	Failed         int    `trace:"attachment.failed"`
}
type TraceRealtimeMeta struct {
	ConversationID string `trace:"conversation.id"`
	MessageID      string `trace:"message.id,omitempty"`
	ViewerID       string `trace:"viewer.id,omitempty"`
	Op             string `trace:"op"`
}
