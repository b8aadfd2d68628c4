package service

import (
	"context"
	"fmt"
	"time"

	"supportdesk/internal/core"
	"supportdesk/internal/database/mongodb/model"
	cErr "supportdesk/internal/pkg/error"
	"supportdesk/internal/telemetry"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type UserService struct {
	trace         *telemetry.Trace
	logger        *zap.Logger
	userRepo      UserStore
	conversations *ConversationService
}

func NewUserService(trace *telemetry.Trace, logger *zap.Logger, userRepo UserStore, conversations *ConversationService) *UserService {
	return &UserService{trace: trace, logger: logger, userRepo: userRepo, conversations: conversations}
}

// 依 id 查詢
func (s *UserService) Get(ctx context.Context, id primitive.ObjectID) (_ *model.User, returnedError error) {
	ctx, _, end := s.trace.WithSpan(ctx)
	defer func() { end(returnedError) }()

	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, cErr.UserNotFound(fmt.Sprintf("user with id %s not found", id.Hex()))
		}
		return nil, storeError("get user", id, err)
	}
	return user, nil
}

// GetByExternalID middleware 每個請求都會呼叫；找不到回 mongo.ErrNoDocuments 讓呼叫端決定是否建立
func (s *UserService) GetByExternalID(ctx context.Context, externalID string) (_ *model.User, returnedError error) {
	ctx, _, end := s.trace.WithSpan(ctx)
	defer func() { end(returnedError) }()

	user, err := s.userRepo.FindByExternalID(ctx, externalID)
	if err != nil {
		if isNotFound(err) {
			return nil, err
		}
		return nil, storeError("find user by externalId", zeroID, err)
	}
	return user, nil
}

// 管理後台列舉用戶（支援分頁、篩選）
func (s *UserService) List(ctx context.Context, query core.UserQuery) (_ []*model.User, returnedError error) {
	ctx, span, end := s.trace.WithSpan(ctx)
	defer func() { end(returnedError) }()

	meta := core.TraceAdminUserListMeta{Page: query.Page, Size: query.Size}
	if query.Role != nil {
		meta.Role = string(*query.Role)
	}
	if query.Status != nil {
		meta.Status = string(*query.Status)
	}
	users, err := s.userRepo.List(ctx, query)
	if err != nil {
		msg := err.Error()
		meta.Error = &msg
		s.trace.ApplyTraceAttributes(span, meta)
		return nil, storeError("list users", zeroID, err)
	}
	meta.ResultCount = len(users)
	s.trace.ApplyTraceAttributes(span, meta)
	return users, nil
}

// 專屬：修改用戶角色；不再是客服時一併釋放指派
func (s *UserService) UpdateRole(ctx context.Context, id primitive.ObjectID, role core.Role) (_ *model.User, returnedError error) {
	ctx, _, end := s.trace.WithSpan(ctx)
	defer func() { end(returnedError) }()

	if !role.Valid() {
		return nil, cErr.ValidationFailed("invalid role " + string(role))
	}
	updated, err := s.userRepo.UpdateRole(ctx, id, role)
	if err != nil {
		if isNotFound(err) {
			return nil, cErr.UserNotFound(fmt.Sprintf("user with id %s not found", id.Hex()))
		}
		return nil, storeError("update user role", id, err)
	}
	if !role.IsStaff() {
		if _, err := s.conversations.ReleaseAssignmentsOf(ctx, id); err != nil {
			return nil, err
		}
	}
	return updated, nil
}

// 專屬：修改用戶狀態；停用客服時清掉他的指派
func (s *UserService) UpdateStatus(ctx context.Context, id primitive.ObjectID, status core.Status) (_ *model.User, returnedError error) {
	ctx, _, end := s.trace.WithSpan(ctx)
	defer func() { end(returnedError) }()

	if !status.Valid() {
		return nil, cErr.ValidationFailed("invalid status " + string(status))
	}
	updated, err := s.userRepo.UpdateStatus(ctx, id, status)
	if err != nil {
		if isNotFound(err) {
			return nil, cErr.UserNotFound(fmt.Sprintf("user with id %s not found", id.Hex()))
		}
		return nil, storeError("update user status", id, err)
	}
	if status == core.StatusDisabled {
		if _, err := s.conversations.ReleaseAssignmentsOf(ctx, id); err != nil {
			return nil, err
		}
		s.logger.Info("user disabled", zap.String("userId", id.Hex()), zap.String("role", string(updated.Role)))
	}
	return updated, nil
}

func (s *UserService) UpdateNotifications(ctx context.Context, id primitive.ObjectID, preferences model.NotificationPreferences) (_ *model.User, returnedError error) {
	ctx, _, end := s.trace.WithSpan(ctx)
	defer func() { end(returnedError) }()

	updated, err := s.userRepo.UpdateNotifications(ctx, id, preferences)
	if err != nil {
		if isNotFound(err) {
			return nil, cErr.UserNotFound(fmt.Sprintf("user with id %s not found", id.Hex()))
		}
		return nil, storeError("update notifications", id, err)
	}
	return updated, nil
}

// UpdateLastSeen 失敗不影響請求
func (s *UserService) UpdateLastSeen(ctx context.Context, id primitive.ObjectID, at time.Time) bool {
	ctx, _, end := s.trace.WithSpan(ctx)
	defer end(nil)

	if _, err := s.userRepo.UpdateLastSeen(ctx, id, at); err != nil {
		s.logger.Warn("update lastSeen failed", zap.String("userId", id.Hex()), zap.Error(err))
		return false
	}
	return true
}
