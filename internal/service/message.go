package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"supportdesk/internal/core"
	fluentdModel "supportdesk/internal/database/fluentd/model"
	"supportdesk/internal/database/mongodb/model"
	cErr "supportdesk/internal/pkg/error"
	"supportdesk/internal/telemetry"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const maxContentLength = 10000

// SendResult 訊息加上被退回的附件
type SendResult struct {
	Message    *model.MessageView    `json:"message"`
	Rejections []AttachmentRejection `json:"rejections"`
}

type MessageService struct {
	trace         *telemetry.Trace
	metric        *telemetry.Metric
	logger        *zap.Logger
	conversations *ConversationService
	convStore     ConversationStore
	messages      MessageStore
	attachments   *AttachmentService
	publisher     MessagePublisher
	audit         MessageAuditLogger
}

func NewMessageService(
	trace *telemetry.Trace,
	metric *telemetry.Metric,
	logger *zap.Logger,
	conversations *ConversationService,
	convStore ConversationStore,
	messages MessageStore,
	attachments *AttachmentService,
	publisher MessagePublisher,
	audit MessageAuditLogger,
) *MessageService {
	return &MessageService{
		trace:         trace,
		metric:        metric,
		logger:        logger,
		conversations: conversations,
		convStore:     convStore,
		messages:      messages,
		attachments:   attachments,
		publisher:     publisher,
		audit:         audit,
	}
}

// Append 寫入訊息並更新對話的 updatedAt；空白內容又沒附件時在寫入前擋下
func (s *MessageService) Append(
	ctx context.Context,
	conversationID primitive.ObjectID,
	sender core.Viewer,
	content string,
	attachments []model.Attachment,
) (_ *model.Message, returnedError error) {
	ctx, span, end := s.trace.WithSpan(ctx)
	defer func() { end(returnedError) }()

	content = strings.TrimSpace(content)
	if content == "" && len(attachments) == 0 {
		return nil, cErr.ValidationFailed("message must have content or attachments")
	}
	if utf8.RuneCountInString(content) > maxContentLength {
		return nil, cErr.ValidationFailed("message content is too long")
	}

	message, err := s.messages.Create(ctx, &model.Message{
		ConversationID: conversationID,
		SenderID:       sender.ID,
		Content:        content,
		Attachments:    attachments,
	})
	if err != nil {
		return nil, storeError("append message", conversationID, err)
	}
	s.touch(ctx, conversationID)
	s.metric.IncMessagesAppended()
	s.trace.ApplyTraceAttributes(span, core.TraceMessageMeta{
		Op:             "append",
		ConversationID: conversationID.Hex(),
		MessageID:      message.ID.Hex(),
		SenderID:       sender.ID.Hex(),
		Attachments:    len(attachments),
	})

	event := core.MessageEvent{
		ConversationID: conversationID,
		MessageID:      message.ID,
		SenderID:       sender.ID,
		CreatedAt:      message.CreatedAt,
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("publish message event failed",
			zap.String("conversationId", conversationID.Hex()),
			zap.String("messageId", message.ID.Hex()),
			zap.Error(err))
	}
	if err := s.audit.LogMessageEvent(ctx, fluentdModel.MessageEventLog{
		ConversationID: conversationID.Hex(),
		MessageID:      message.ID.Hex(),
		SenderID:       sender.ID.Hex(),
		SenderRole:     string(sender.Role),
		ContentLength:  utf8.RuneCountInString(content),
		Attachments:    len(attachments),
	}); err != nil {
		s.logger.Debug("message event log failed", zap.Error(err))
	}
	return message, nil
}

// touch 訊息已寫入，updatedAt 失敗不回滾；重試一次後記錄並計數
func (s *MessageService) touch(ctx context.Context, conversationID primitive.ObjectID) {
	err := s.convStore.Touch(ctx, conversationID)
	if err == nil {
		return
	}
	if err = s.convStore.Touch(ctx, conversationID); err == nil {
		return
	}
	s.metric.IncTouchFailed()
	s.logger.Error("touch conversation failed", zap.String("conversationId", conversationID.Hex()), zap.Error(err))
}

// Send 完整送出流程。用戶端斷線也會跑完，結果照常回報
func (s *MessageService) Send(
	ctx context.Context,
	viewer core.Viewer,
	conversationID primitive.ObjectID,
	content string,
	files []AttachmentFile,
) (_ *SendResult, returnedError error) {
	ctx = context.WithoutCancel(ctx)
	ctx, span, end := s.trace.WithSpan(ctx)
	defer func() { end(returnedError) }()

	blank := strings.TrimSpace(content) == ""
	if blank && len(files) == 0 {
		return nil, cErr.ValidationFailed("message must have content or attachments")
	}
	if _, err := s.conversations.Visible(ctx, viewer, conversationID); err != nil {
		return nil, err
	}

	var attachments []model.Attachment
	rejections := []AttachmentRejection{}
	if len(files) > 0 {
		var err error
		attachments, rejections, err = s.attachments.Attach(ctx, conversationID, files)
		if err != nil {
			return nil, err
		}
	}
	if blank && len(attachments) == 0 {
		return nil, cErr.AttachmentRejected("every attachment was rejected and the message has no content")
	}

	message, err := s.Append(ctx, conversationID, viewer, content, attachments)
	if err != nil {
		return nil, err
	}
	s.trace.ApplyTraceAttributes(span, core.TraceMessageMeta{
		Op:             "send",
		ConversationID: conversationID.Hex(),
		MessageID:      message.ID.Hex(),
		SenderID:       viewer.ID.Hex(),
		Attachments:    len(attachments),
		Rejected:       len(rejections),
	})

	view, err := s.messages.GetWithSender(ctx, conversationID, message.ID)
	if err != nil {
		s.logger.Warn("reload sent message failed", zap.String("messageId", message.ID.Hex()), zap.Error(err))
		view = &model.MessageView{Message: *message}
	}
	return &SendResult{Message: view, Rejections: rejections}, nil
}

// List 只讀不改已讀狀態
func (s *MessageService) List(ctx context.Context, viewer core.Viewer, conversationID primitive.ObjectID) (_ []*model.MessageView, returnedError error) {
	ctx, span, end := s.trace.WithSpan(ctx)
	defer func() { end(returnedError) }()

	if _, err := s.conversations.Visible(ctx, viewer, conversationID); err != nil {
		return nil, err
	}
	messages, err := s.messages.ListWithSender(ctx, conversationID)
	if err != nil {
		return nil, storeError("list messages", conversationID, err)
	}
	s.trace.ApplyTraceAttributes(span, core.TraceMessageMeta{Op: "list", ConversationID: conversationID.Hex(), Count: len(messages)})
	return messages, nil
}

// Open 打開對話：列出訊息後把別人寄的標成已讀，未讀數歸零
func (s *MessageService) Open(ctx context.Context, viewer core.Viewer, conversationID primitive.ObjectID) (_ []*model.MessageView, returnedError error) {
	ctx, _, end := s.trace.WithSpan(ctx)
	defer func() { end(returnedError) }()

	messages, err := s.List(ctx, viewer, conversationID)
	if err != nil {
		return nil, err
	}
	if _, err := s.MarkReadAllByOther(ctx, conversationID, viewer.ID); err != nil {
		return nil, err
	}
	for _, m := range messages {
		if m.SenderID != viewer.ID {
			m.IsRead = true
		}
	}
	return messages, nil
}

// Get 先檢查對話權限，再找訊息
func (s *MessageService) Get(ctx context.Context, viewer core.Viewer, conversationID, messageID primitive.ObjectID) (_ *model.MessageView, returnedError error) {
	ctx, _, end := s.trace.WithSpan(ctx)
	defer func() { end(returnedError) }()

	if _, err := s.conversations.Visible(ctx, viewer, conversationID); err != nil {
		return nil, err
	}
	view, err := s.messages.GetWithSender(ctx, conversationID, messageID)
	if err != nil {
		if isNotFound(err) {
			return nil, cErr.MessageNotFound("message not found")
		}
		return nil, storeError("get message", messageID, err)
	}
	return view, nil
}

// MarkRead 使用者按下已讀
func (s *MessageService) MarkRead(ctx context.Context, viewer core.Viewer, conversationID primitive.ObjectID) (_ int64, returnedError error) {
	ctx, _, end := s.trace.WithSpan(ctx)
	defer func() { end(returnedError) }()

	if _, err := s.conversations.Visible(ctx, viewer, conversationID); err != nil {
		return 0, err
	}
	return s.MarkReadAllByOther(ctx, conversationID, viewer.ID)
}

// MarkReadAllByOther 不檢查權限，呼叫端要先確認過；重複呼叫結果相同
func (s *MessageService) MarkReadAllByOther(ctx context.Context, conversationID, viewerID primitive.ObjectID) (_ int64, returnedError error) {
	ctx, span, end := s.trace.WithSpan(ctx)
	defer func() { end(returnedError) }()

	modified, err := s.messages.MarkRead(ctx, conversationID, viewerID)
	if err != nil {
		return 0, storeError("mark read", conversationID, err)
	}
	s.trace.ApplyTraceAttributes(span, core.TraceMessageMeta{Op: "mark_read", ConversationID: conversationID.Hex(), Modified: modified})
	return modified, nil
}
