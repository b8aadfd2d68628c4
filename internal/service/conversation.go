package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"supportdesk/internal/core"
	"supportdesk/internal/database/mongodb/model"
	cErr "supportdesk/internal/pkg/error"
	"supportdesk/internal/telemetry"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const maxSubjectLength = 200

// ConversationSummary 對話加上對目前使用者的未讀數
type ConversationSummary struct {
	*model.Conversation
	UnreadCount int64 `json:"unreadCount"`
}

type ConversationService struct {
	trace         *telemetry.Trace
	logger        *zap.Logger
	access        *AccessService
	users         UserStore
	conversations ConversationStore
	messages      MessageStore
}

func NewConversationService(
	trace *telemetry.Trace,
	logger *zap.Logger,
	access *AccessService,
	users UserStore,
	conversations ConversationStore,
	messages MessageStore,
) *ConversationService {
	return &ConversationService{
		trace:         trace,
		logger:        logger,
		access:        access,
		users:         users,
		conversations: conversations,
		messages:      messages,
	}
}

// Create 開單者即 owner，之後不可變
func (s *ConversationService) Create(ctx context.Context, viewer core.Viewer, subject string) (_ *model.Conversation, returnedError error) {
	ctx, span, end := s.trace.WithSpan(ctx)
	defer func() { end(returnedError) }()

	if _, err := s.access.Resolve(viewer); err != nil {
		return nil, err
	}
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return nil, cErr.ValidationFailed("subject is required")
	}
	if utf8.RuneCountInString(subject) > maxSubjectLength {
		return nil, cErr.ValidationFailed("subject is too long")
	}

	created, err := s.conversations.Create(ctx, &model.Conversation{
		Subject: subject,
		Status:  core.ConversationOpen,
		UserID:  viewer.ID,
	})
	if err != nil {
		return nil, storeError("create conversation", viewer.ID, err)
	}
	s.trace.ApplyTraceAttributes(span, core.TraceConversationMeta{
		Op:             "create",
		ConversationID: created.ID.Hex(),
		ViewerID:       viewer.ID.Hex(),
		ViewerRole:     string(viewer.Role),
		Changed:        true,
	})
	return created, nil
}

// List 依可見範圍過濾，updatedAt 新到舊
func (s *ConversationService) List(ctx context.Context, viewer core.Viewer, status *core.ConversationStatus) (_ []*ConversationSummary, returnedError error) {
	ctx, span, end := s.trace.WithSpan(ctx)
	defer func() { end(returnedError) }()

	scope, err := s.access.Resolve(viewer)
	if err != nil {
		return nil, err
	}
	if status != nil && !status.Valid() {
		return nil, cErr.ValidationFailed("invalid status " + string(*status))
	}
	conversations, err := s.conversations.List(ctx, scope, status)
	if err != nil {
		return nil, storeError("list conversations", viewer.ID, err)
	}

	identifiers := make([]primitive.ObjectID, len(conversations))
	for i, c := range conversations {
		identifiers[i] = c.ID
	}
	unread, err := s.messages.CountUnread(ctx, identifiers, viewer.ID)
	if err != nil {
		return nil, storeError("count unread", viewer.ID, err)
	}

	summaries := make([]*ConversationSummary, len(conversations))
	for i, c := range conversations {
		summaries[i] = &ConversationSummary{Conversation: c, UnreadCount: unread[c.ID]}
	}
	s.trace.ApplyTraceAttributes(span, core.TraceConversationMeta{
		Op:         "list",
		ViewerID:   viewer.ID.Hex(),
		ViewerRole: string(viewer.Role),
		Count:      len(summaries),
	})
	return summaries, nil
}

// Visible 取出對話並檢查權限；不存在與看不到回同一個錯誤
func (s *ConversationService) Visible(ctx context.Context, viewer core.Viewer, conversationID primitive.ObjectID) (*model.Conversation, error) {
	if _, err := s.access.Resolve(viewer); err != nil {
		return nil, err
	}
	conversation, err := s.conversations.GetByID(ctx, conversationID)
	if err != nil {
		if isNotFound(err) {
			return nil, cErr.ConversationNotFound("conversation not found")
		}
		return nil, storeError("get conversation", conversationID, err)
	}
	if err := s.access.CanView(viewer, conversation); err != nil {
		return nil, err
	}
	return conversation, nil
}

func (s *ConversationService) Get(ctx context.Context, viewer core.Viewer, conversationID primitive.ObjectID) (_ *ConversationSummary, returnedError error) {
	ctx, _, end := s.trace.WithSpan(ctx)
	defer func() { end(returnedError) }()

	conversation, err := s.Visible(ctx, viewer, conversationID)
	if err != nil {
		return nil, err
	}
	unread, err := s.messages.CountUnread(ctx, []primitive.ObjectID{conversation.ID}, viewer.ID)
	if err != nil {
		return nil, storeError("count unread", conversation.ID, err)
	}
	return &ConversationSummary{Conversation: conversation, UnreadCount: unread[conversation.ID]}, nil
}

// SetStatus 看得到對話的人都可以封存或重開
func (s *ConversationService) SetStatus(ctx context.Context, viewer core.Viewer, conversationID primitive.ObjectID, status core.ConversationStatus) (_ *model.Conversation, returnedError error) {
	ctx, span, end := s.trace.WithSpan(ctx)
	defer func() { end(returnedError) }()

	if !status.Valid() {
		return nil, cErr.ValidationFailed("invalid status " + string(status))
	}
	if _, err := s.Visible(ctx, viewer, conversationID); err != nil {
		return nil, err
	}
	updated, err := s.conversations.SetStatus(ctx, conversationID, status)
	if err != nil {
		if isNotFound(err) {
			return nil, cErr.ConversationNotFound("conversation not found")
		}
		return nil, storeError("set conversation status", conversationID, err)
	}
	s.trace.ApplyTraceAttributes(span, core.TraceConversationMeta{
		Op:             "set_status",
		ConversationID: conversationID.Hex(),
		ViewerID:       viewer.ID.Hex(),
		Status:         string(status),
		Changed:        true,
	})
	return updated, nil
}

// Assign 只有管理員可以指派；對象必須是啟用中的 staff 或 dev
func (s *ConversationService) Assign(ctx context.Context, viewer core.Viewer, conversationID, staffID primitive.ObjectID) (_ *model.Conversation, returnedError error) {
	ctx, span, end := s.trace.WithSpan(ctx)
	defer func() { end(returnedError) }()

	if err := s.access.RequireAdmin(viewer); err != nil {
		return nil, err
	}
	if _, err := s.Visible(ctx, viewer, conversationID); err != nil {
		return nil, err
	}
	staff, err := s.users.GetByID(ctx, staffID)
	if err != nil {
		if isNotFound(err) {
			return nil, cErr.UserNotFound("staff user not found")
		}
		return nil, storeError("get staff user", staffID, err)
	}
	if !staff.Role.IsStaff() {
		return nil, cErr.ValidationFailed("assignee must have staff or dev role")
	}
	if staff.Status != core.StatusActive {
		return nil, cErr.ValidationFailed("assignee is disabled")
	}

	changed, err := s.conversations.Assign(ctx, conversationID, staffID)
	if err != nil {
		return nil, storeError("assign conversation", conversationID, err)
	}
	s.trace.ApplyTraceAttributes(span, core.TraceConversationMeta{
		Op:             "assign",
		ConversationID: conversationID.Hex(),
		ViewerID:       viewer.ID.Hex(),
		StaffID:        staffID.Hex(),
		Changed:        changed,
	})
	if changed {
		s.logger.Info("conversation assigned",
			zap.String("conversationId", conversationID.Hex()),
			zap.String("staffId", staffID.Hex()),
			zap.String("by", viewer.ID.Hex()))
	}
	return s.reload(ctx, conversationID)
}

func (s *ConversationService) Unassign(ctx context.Context, viewer core.Viewer, conversationID primitive.ObjectID) (_ *model.Conversation, returnedError error) {
	ctx, span, end := s.trace.WithSpan(ctx)
	defer func() { end(returnedError) }()

	if err := s.access.RequireAdmin(viewer); err != nil {
		return nil, err
	}
	if _, err := s.Visible(ctx, viewer, conversationID); err != nil {
		return nil, err
	}
	changed, err := s.conversations.Unassign(ctx, conversationID)
	if err != nil {
		return nil, storeError("unassign conversation", conversationID, err)
	}
	s.trace.ApplyTraceAttributes(span, core.TraceConversationMeta{
		Op:             "unassign",
		ConversationID: conversationID.Hex(),
		ViewerID:       viewer.ID.Hex(),
		Changed:        changed,
	})
	return s.reload(ctx, conversationID)
}

// Delete 先刪訊息再刪對話，中途失敗可以重跑
func (s *ConversationService) Delete(ctx context.Context, viewer core.Viewer, conversationID primitive.ObjectID) (returnedError error) {
	ctx, span, end := s.trace.WithSpan(ctx)
	defer func() { end(returnedError) }()

	if err := s.access.RequireAdmin(viewer); err != nil {
		return err
	}
	if _, err := s.Visible(ctx, viewer, conversationID); err != nil {
		return err
	}
	removed, err := s.messages.DeleteByConversationID(ctx, conversationID)
	if err != nil {
		return storeError("delete messages", conversationID, err)
	}
	if _, err := s.conversations.DeleteByID(ctx, conversationID); err != nil {
		return storeError("delete conversation", conversationID, err)
	}
	s.trace.ApplyTraceAttributes(span, core.TraceConversationMeta{
		Op:             "delete",
		ConversationID: conversationID.Hex(),
		ViewerID:       viewer.ID.Hex(),
		Count:          int(removed),
		Changed:        true,
	})
	s.logger.Info("conversation deleted",
		zap.String("conversationId", conversationID.Hex()),
		zap.Int64("messages", removed),
		zap.String("by", viewer.ID.Hex()))
	return nil
}

// ReleaseAssignmentsOf 清掉某位客服身上所有指派
func (s *ConversationService) ReleaseAssignmentsOf(ctx context.Context, staffID primitive.ObjectID) (_ int64, returnedError error) {
	ctx, _, end := s.trace.WithSpan(ctx)
	defer func() { end(returnedError) }()

	released, err := s.conversations.UnassignStaff(ctx, staffID)
	if err != nil {
		return 0, storeError("release assignments", staffID, err)
	}
	if released > 0 {
		s.logger.Info("assignments released", zap.String("staffId", staffID.Hex()), zap.Int64("count", released))
	}
	return released, nil
}

// ReleaseInactiveStaffAssignments 排程與 CLI 用：指派對象不是在職的 staff/dev（停用、降級、已刪除）就釋放
func (s *ConversationService) ReleaseInactiveStaffAssignments(ctx context.Context) (_ int64, returnedError error) {
	ctx, _, end := s.trace.WithSpan(ctx)
	defer func() { end(returnedError) }()

	active, err := s.users.ListIDs(ctx, []core.Role{core.RoleStaff, core.RoleDev}, core.StatusActive)
	if err != nil {
		return 0, storeError("list active staff", zeroID, err)
	}
	activeSet := make(map[primitive.ObjectID]struct{}, len(active))
	for _, id := range active {
		activeSet[id] = struct{}{}
	}
	assignees, err := s.conversations.AssigneeIDs(ctx)
	if err != nil {
		return 0, storeError("list assignees", zeroID, err)
	}

	var total int64
	for _, id := range assignees {
		if _, ok := activeSet[id]; ok {
			continue
		}
		released, err := s.ReleaseAssignmentsOf(ctx, id)
		if err != nil {
			return total, err
		}
		total += released
	}
	return total, nil
}

func (s *ConversationService) reload(ctx context.Context, conversationID primitive.ObjectID) (*model.Conversation, error) {
	conversation, err := s.conversations.GetByID(ctx, conversationID)
	if err != nil {
		if isNotFound(err) {
			return nil, cErr.ConversationNotFound("conversation not found")
		}
		return nil, storeError("get conversation", conversationID, err)
	}
	return conversation, nil
}
