package service

import (
	"context"
	"sync"

	"supportdesk/internal/core"
	"supportdesk/internal/database/redis/repository"
	"supportdesk/internal/telemetry"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Subscription 單一對話的即時訂閱；Close 可重複呼叫
type Subscription struct {
	id             uint64
	ConversationID primitive.ObjectID
	Viewer         core.Viewer
	pubsub         *redis.PubSub
	done           chan struct{}
	resync         chan struct{}
	once           sync.Once
	service        *RealtimeService
}

func (sub *Subscription) Close() {
	sub.service.Unsubscribe(sub)
}

// Done 訂閱結束（Close 或服務關閉）後關閉
func (sub *Subscription) Done() <-chan struct{} {
	return sub.done
}

// Resync redis 斷線重連後送出一次訊號；斷線期間的訊息可能遺失，訂閱端要重抓整串
func (sub *Subscription) Resync() <-chan struct{} {
	return sub.resync
}

func (sub *Subscription) signalResync() {
	select {
	case sub.resync <- struct{}{}:
	default:
	}
}

// RealtimeService 新訊息只推 id，訂閱端自行回查完整內容
type RealtimeService struct {
	trace         *telemetry.Trace
	metric        *telemetry.Metric
	logger        *zap.Logger
	channel       MessageChannel
	conversations *ConversationService

	mu     sync.Mutex
	subs   map[uint64]*Subscription
	nextID uint64
}

func NewRealtimeService(
	trace *telemetry.Trace,
	metric *telemetry.Metric,
	logger *zap.Logger,
	channel MessageChannel,
	conversations *ConversationService,
) *RealtimeService {
	return &RealtimeService{
		trace:         trace,
		metric:        metric,
		logger:        logger,
		channel:       channel,
		conversations: conversations,
		subs:          make(map[uint64]*Subscription),
	}
}

// Subscribe 先檢查可見範圍；回傳時訂閱已生效，之後寫入的訊息都會送到 onInsert。
// onInsert 在單一 goroutine 依序呼叫，順序與寫入順序相同，不可阻塞太久
func (s *RealtimeService) Subscribe(
	ctx context.Context,
	viewer core.Viewer,
	conversationID primitive.ObjectID,
	onInsert func(core.MessageEvent),
) (_ *Subscription, returnedError error) {
	ctx, span, end := s.trace.WithSpan(ctx)
	defer func() { end(returnedError) }()

	if _, err := s.conversations.Visible(ctx, viewer, conversationID); err != nil {
		return nil, err
	}
	pubsub, err := s.channel.Subscribe(ctx, conversationID)
	if err != nil {
		return nil, storeError("subscribe conversation", conversationID, err)
	}

	s.mu.Lock()
	s.nextID++
	sub := &Subscription{
		id:             s.nextID,
		ConversationID: conversationID,
		Viewer:         viewer,
		pubsub:         pubsub,
		done:           make(chan struct{}),
		resync:         make(chan struct{}, 1),
		service:        s,
	}
	s.subs[sub.id] = sub
	s.mu.Unlock()
	s.metric.AddRealtimeSubscriptions(1)

	// 第一次的訂閱確認已在 channel.Subscribe 收掉，之後再收到確認代表重連後重新訂閱
	messages := pubsub.ChannelWithSubscriptions()
	go func() {
		for raw := range messages {
			var msg *redis.Message
			switch m := raw.(type) {
			case *redis.Subscription:
				if m.Kind == "subscribe" {
					s.logger.Warn("realtime channel resubscribed, requesting resync", zap.String("conversationId", conversationID.Hex()))
					s.metric.IncRealtimeResyncs()
					sub.signalResync()
				}
				continue
			case *redis.Message:
				msg = m
			default:
				continue
			}
			event, err := repository.DecodeEvent(msg.Payload)
			if err != nil {
				s.logger.Warn("drop malformed realtime event", zap.String("conversationId", conversationID.Hex()), zap.Error(err))
				continue
			}
			if event.ConversationID != conversationID {
				continue
			}
			onInsert(event)
		}
		// 頻道被 redis 端關閉時也要釋放
		s.Unsubscribe(sub)
	}()

	s.trace.ApplyTraceAttributes(span, core.TraceRealtimeMeta{
		ConversationID: conversationID.Hex(),
		ViewerID:       viewer.ID.Hex(),
		Op:             "subscribe",
	})
	return sub, nil
}

// Unsubscribe 冪等
func (s *RealtimeService) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}
	sub.once.Do(func() {
		s.mu.Lock()
		delete(s.subs, sub.id)
		s.mu.Unlock()
		if err := sub.pubsub.Close(); err != nil {
			s.logger.Debug("close pubsub", zap.String("conversationId", sub.ConversationID.Hex()), zap.Error(err))
		}
		close(sub.done)
		s.metric.AddRealtimeSubscriptions(-1)
	})
}

// Publish 推送失敗只記錄，訊息本身已經寫入
func (s *RealtimeService) Publish(ctx context.Context, event core.MessageEvent) (returnedError error) {
	ctx, span, end := s.trace.WithSpan(ctx)
	defer func() { end(returnedError) }()

	s.trace.ApplyTraceAttributes(span, core.TraceRealtimeMeta{
		ConversationID: event.ConversationID.Hex(),
		MessageID:      event.MessageID.Hex(),
		Op:             "publish",
	})
	_, returnedError = s.channel.Publish(ctx, event)
	return returnedError
}

// Active 目前本實例的訂閱數
func (s *RealtimeService) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

// Close 關機時關掉所有訂閱，SSE 連線會跟著結束
func (s *RealtimeService) Close() {
	s.mu.Lock()
	subs := make([]*Subscription, 0, len(s.subs))
	for _, sub := range s.subs {
		subs = append(subs, sub)
	}
	s.mu.Unlock()
	for _, sub := range subs {
		s.Unsubscribe(sub)
	}
}
