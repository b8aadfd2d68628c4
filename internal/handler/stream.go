package handler

import (
	"context"
	"errors"
	"time"

	"supportdesk/internal/core"
	"supportdesk/internal/dto"
	cErr "supportdesk/internal/pkg/error"
	"supportdesk/internal/pkg/response"
	"supportdesk/internal/service"
	"supportdesk/internal/telemetry"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// SSE 事件名稱
const (
	EventSnapshot = "snapshot"
	EventMessage  = "message"
	EventResync   = "resync"
	EventRevoked  = "revoked"
	EventPing     = "ping"
)

const (
	streamBufferSize   = 64
	streamPingInterval = 25 * time.Second
)

type StreamHandler struct {
	trace               *telemetry.Trace
	logger              *zap.Logger
	realtimeService     *service.RealtimeService
	messageService      *service.MessageService
	conversationService *service.ConversationService
	pingInterval        time.Duration
}

func NewStreamHandler(
	trace *telemetry.Trace,
	logger *zap.Logger,
	realtimeService *service.RealtimeService,
	messageService *service.MessageService,
	conversationService *service.ConversationService,
) *StreamHandler {
	return &StreamHandler{
		trace:               trace,
		logger:              logger,
		realtimeService:     realtimeService,
		messageService:      messageService,
		conversationService: conversationService,
		pingInterval:        streamPingInterval,
	}
}

// Stream 對話即時串流
// @Summary 訂閱對話的新訊息（SSE）
// @Description 連線後先送 snapshot，之後每則新訊息送 message；失去權限送 revoked 並關閉。EventSource 可用 access_token query 帶 token
// @Tags Message
// @Security BearerAuth
// @Produce text/event-stream
// @Param conversationID path string true "Conversation ID"
// @Param access_token query string false "EventSource 用的 bearer token"
// @Success 200 {string} string "text/event-stream"
// @Failure 404 {object} response.Response
// @Router /api/v1/conversations/{conversationID}/stream [get]
func (h *StreamHandler) Stream(c *gin.Context) {
	ctx, _, end := h.trace.WithSpan(c)
	viewer, conversationID, ok := conversationTarget(c)
	if !ok {
		end(nil)
		return
	}

	// 先訂閱再讀快照，中間寫入的訊息靠 ThreadView 去重
	inserted := make(chan primitive.ObjectID, streamBufferSize)
	overflow := make(chan struct{}, 1)
	sub, err := h.realtimeService.Subscribe(ctx, viewer, conversationID, func(event core.MessageEvent) {
		select {
		case inserted <- event.MessageID:
		default:
			select {
			case overflow <- struct{}{}:
			default:
			}
		}
	})
	if err != nil {
		end(err)
		response.AbortWithError(c, err)
		return
	}
	defer sub.Close()

	thread := service.NewThreadView()
	messages, err := h.messageService.Open(ctx, viewer, conversationID)
	if err != nil {
		end(err)
		response.AbortWithError(c, err)
		return
	}
	thread.Reset(messages)
	end(nil)

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(200)
	h.send(c, EventSnapshot, dto.NewMessageResponseDtos(thread.Messages()))

	ticker := time.NewTicker(h.pingInterval)
	defer ticker.Stop()
	streamCtx := c.Request.Context()
	for {
		select {
		case <-streamCtx.Done():
			return
		case <-sub.Done():
			return
		case <-ticker.C:
			if _, err := h.conversationService.Visible(streamCtx, viewer, conversationID); isRevoked(err) {
				h.send(c, EventRevoked, gin.H{"conversationId": conversationID.Hex()})
				return
			}
			h.send(c, EventPing, gin.H{"at": time.Now().UTC()})
		case <-overflow:
			if !h.resync(streamCtx, c, thread, inserted, viewer, conversationID) {
				return
			}
		case <-sub.Resync():
			if !h.resync(streamCtx, c, thread, inserted, viewer, conversationID) {
				return
			}
		case messageID := <-inserted:
			if !h.deliver(streamCtx, c, thread, viewer, conversationID, messageID) {
				return
			}
		}
	}
}

// resync 緩衝溢位或 redis 重連後可能漏訊息，整串重抓後送 snapshot；回傳 false 代表串流要結束
func (h *StreamHandler) resync(
	ctx context.Context,
	c *gin.Context,
	thread *service.ThreadView,
	inserted chan primitive.ObjectID,
	viewer core.Viewer,
	conversationID primitive.ObjectID,
) bool {
	drain(inserted)
	h.send(c, EventResync, gin.H{"conversationId": conversationID.Hex()})
	messages, err := h.messageService.Open(ctx, viewer, conversationID)
	if isRevoked(err) {
		h.send(c, EventRevoked, gin.H{"conversationId": conversationID.Hex()})
		return false
	}
	if err != nil {
		h.logger.Warn("[Stream] resync failed", zap.String("conversationId", conversationID.Hex()), zap.Error(err))
		return true
	}
	thread.Reset(messages)
	h.send(c, EventSnapshot, dto.NewMessageResponseDtos(thread.Messages()))
	return true
}

// deliver 回查完整訊息後推送；回傳 false 代表串流要結束
func (h *StreamHandler) deliver(
	ctx context.Context,
	c *gin.Context,
	thread *service.ThreadView,
	viewer core.Viewer,
	conversationID, messageID primitive.ObjectID,
) bool {
	ctx, span, end := h.trace.WithSpan(ctx, string(core.SpanRealtimeDelivery))
	h.trace.ApplyTraceAttributes(span, core.TraceRealtimeMeta{
		ConversationID: conversationID.Hex(),
		MessageID:      messageID.Hex(),
		ViewerID:       viewer.ID.Hex(),
		Op:             "deliver",
	})

	message, err := h.messageService.Get(ctx, viewer, conversationID, messageID)
	end(err)
	if isRevoked(err) {
		h.send(c, EventRevoked, gin.H{"conversationId": conversationID.Hex()})
		return false
	}
	if err != nil {
		h.logger.Warn("[Stream] fetch message failed",
			zap.String("conversationId", conversationID.Hex()),
			zap.String("messageId", messageID.Hex()),
			zap.Error(err))
		return true
	}
	if !thread.Add(message) {
		return true
	}
	if message.SenderID != viewer.ID {
		if _, err := h.messageService.MarkReadAllByOther(ctx, conversationID, viewer.ID); err != nil {
			h.logger.Debug("[Stream] mark read failed", zap.Error(err))
		}
	}
	h.send(c, EventMessage, dto.NewMessageResponseDto(message))
	return true
}

func (h *StreamHandler) send(c *gin.Context, event string, data any) {
	c.SSEvent(event, data)
	c.Writer.Flush()
}

func drain(ch chan primitive.ObjectID) {
	for {
		select {
		case <-ch:
		default:
			return
		}
	}
}

func isRevoked(err error) bool {
	var appErr *cErr.Error
	if !errors.As(err, &appErr) {
		return false
	}
	return appErr.ErrorCode() == cErr.CONVERSATION_NOT_FOUND || appErr.ErrorCode() == cErr.FORBIDDEN
}
