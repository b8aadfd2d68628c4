package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"supportdesk/internal/core"
	"supportdesk/internal/database/mongodb/model"
	"supportdesk/internal/database/mongodb/repository"
	cErr "supportdesk/internal/pkg/error"
	"supportdesk/internal/telemetry"

	"go.uber.org/zap"
)

const (
	ReconcileFound        = "found"
	ReconcileLinked       = "linked"
	ReconcileCreated      = "created"
	ReconcileRaceResolved = "race_resolved"
	ReconcilePending      = "pending"
)

// 佈建 webhook 的事件類型
const (
	IdentityEventCreated = "user.created"
	IdentityEventUpdated = "user.updated"
	IdentityEventDeleted = "user.deleted"
)

const defaultResolveBackoff = 150 * time.Millisecond

type IdentityEvent struct {
	Type     string
	Identity core.Identity
}

// IdentityService 把外部身分對應到本地使用者，同一個 externalId 永遠只有一筆
type IdentityService struct {
	trace          *telemetry.Trace
	metric         *telemetry.Metric
	logger         *zap.Logger
	users          UserStore
	conversations  ConversationStore
	resolveBackoff time.Duration
}

func NewIdentityService(
	trace *telemetry.Trace,
	metric *telemetry.Metric,
	logger *zap.Logger,
	users UserStore,
	conversations ConversationStore,
) *IdentityService {
	return &IdentityService{
		trace:          trace,
		metric:         metric,
		logger:         logger,
		users:          users,
		conversations:  conversations,
		resolveBackoff: defaultResolveBackoff,
	}
}

// Reconcile 依序以 externalId、email 查找，都沒有才新增；撞到唯一索引時改走 resolve
func (s *IdentityService) Reconcile(ctx context.Context, identity core.Identity) (_ *model.User, returnedError error) {
	ctx, span, end := s.trace.WithSpan(ctx)
	defer func() { end(returnedError) }()

	identity.ExternalID = strings.TrimSpace(identity.ExternalID)
	if identity.ExternalID == "" {
		return nil, cErr.ValidationFailed("externalId is required")
	}
	profile := model.ProfileFromIdentity(identity)
	meta := core.TraceReconcileMeta{ExternalID: identity.ExternalID, HasEmail: profile.Email != ""}

	user, outcome, err := s.reconcile(ctx, identity.ExternalID, profile)
	if err != nil && errors.Is(err, repository.ErrDuplicateKey) {
		user, outcome, err = s.resolve(ctx, identity.ExternalID, profile)
		meta.Attempts = 2
	}
	meta.Outcome = outcome
	if user != nil {
		meta.UserID = user.ID.Hex()
	}
	s.trace.ApplyTraceAttributes(span, meta)
	s.metric.IncReconcile(outcome)
	if err != nil {
		s.logger.Warn("reconcile identity failed",
			zap.String("externalId", identity.ExternalID),
			zap.String("outcome", outcome),
			zap.Error(err))
		return nil, err
	}
	return user, nil
}

func (s *IdentityService) reconcile(ctx context.Context, externalID string, profile model.UserProfile) (*model.User, string, error) {
	existing, err := s.users.FindByExternalID(ctx, externalID)
	switch {
	case err == nil:
		updated, updateErr := s.updateProfile(ctx, existing, profile)
		return updated, ReconcileFound, updateErr
	case !isNotFound(err):
		return nil, ReconcilePending, storeError("find user by externalId", zeroID, err)
	}

	// 同 email 的帳號直接接上新的 externalId（預先佈建或身分提供者換過 id）
	if profile.Email != "" {
		byEmail, emailErr := s.users.FindByEmail(ctx, profile.Email)
		switch {
		case emailErr == nil:
			if byEmail.ExternalID != "" && byEmail.ExternalID != externalID {
				s.logger.Info("relink user to new externalId",
					zap.String("userId", byEmail.ID.Hex()),
					zap.String("previousExternalId", byEmail.ExternalID),
					zap.String("externalId", externalID))
			}
			linked, linkErr := s.users.LinkExternalID(ctx, byEmail.ID, externalID, profile)
			if linkErr != nil {
				return nil, ReconcilePending, s.passDuplicate("link externalId", byEmail, linkErr)
			}
			return linked, ReconcileLinked, nil
		case !isNotFound(emailErr):
			return nil, ReconcilePending, storeError("find user by email", zeroID, emailErr)
		}
	}

	created, err := s.users.Create(ctx, newUser(externalID, profile))
	if err != nil {
		return nil, ReconcilePending, s.passDuplicate("create user", nil, err)
	}
	s.logger.Info("user created from identity", zap.String("externalId", externalID), zap.String("userId", created.ID.Hex()))
	return created, ReconcileCreated, nil
}

// resolve 另一個請求搶先寫入了，重查一次；還找不到就退避後再試一次
func (s *IdentityService) resolve(ctx context.Context, externalID string, profile model.UserProfile) (*model.User, string, error) {
	for attempt := 1; attempt <= 2; attempt++ {
		existing, err := s.users.FindByExternalID(ctx, externalID)
		if err == nil {
			updated, updateErr := s.updateProfile(ctx, existing, profile)
			return updated, ReconcileRaceResolved, updateErr
		}
		if !isNotFound(err) {
			return nil, ReconcilePending, storeError("resolve user by externalId", zeroID, err)
		}
		if profile.Email != "" {
			byEmail, emailErr := s.users.FindByEmail(ctx, profile.Email)
			if emailErr == nil {
				linked, linkErr := s.users.LinkExternalID(ctx, byEmail.ID, externalID, profile)
				if linkErr == nil {
					return linked, ReconcileRaceResolved, nil
				}
				if !errors.Is(linkErr, repository.ErrDuplicateKey) {
					return nil, ReconcilePending, storeError("resolve link externalId", byEmail.ID, linkErr)
				}
			} else if emailErr != nil && !isNotFound(emailErr) {
				return nil, ReconcilePending, storeError("resolve user by email", zeroID, emailErr)
			}
		}
		if attempt == 1 {
			select {
			case <-ctx.Done():
				return nil, ReconcilePending, storeError("resolve user", zeroID, ctx.Err())
			case <-time.After(s.resolveBackoff):
			}
		}
	}
	return nil, ReconcilePending, cErr.ReconcilePending("user " + externalID + " is being provisioned, retry later")
}

// updateProfile 新 email 已被別人佔用時保留舊 email，其他欄位照常覆寫
func (s *IdentityService) updateProfile(ctx context.Context, user *model.User, profile model.UserProfile) (*model.User, error) {
	updated, err := s.users.UpdateProfile(ctx, user.ID, profile)
	if errors.Is(err, repository.ErrDuplicateKey) {
		s.logger.Warn("email already taken, keeping previous email",
			zap.String("userId", user.ID.Hex()),
			zap.String("email", profile.Email))
		profile.Email = ""
		updated, err = s.users.UpdateProfile(ctx, user.ID, profile)
	}
	if err != nil {
		return nil, storeError("update user profile", user.ID, err)
	}
	return updated, nil
}

// passDuplicate ErrDuplicateKey 原樣往上給 resolve，其餘分類成應用錯誤
func (s *IdentityService) passDuplicate(op string, user *model.User, err error) error {
	if errors.Is(err, repository.ErrDuplicateKey) {
		return err
	}
	return storeError(op, idOf(user), err)
}

// Provision 佈建 webhook：created/updated 走 Reconcile，deleted 停用並釋放指派
func (s *IdentityService) Provision(ctx context.Context, event IdentityEvent) (_ *model.User, returnedError error) {
	ctx, _, end := s.trace.WithSpan(ctx)
	defer func() { end(returnedError) }()

	switch event.Type {
	case IdentityEventCreated, IdentityEventUpdated:
		return s.Reconcile(ctx, event.Identity)
	case IdentityEventDeleted:
		return s.disable(ctx, event.Identity.ExternalID)
	default:
		return nil, cErr.ValidationFailed("unsupported event type " + event.Type)
	}
}

// disable 找不到使用者視為已處理
func (s *IdentityService) disable(ctx context.Context, externalID string) (*model.User, error) {
	user, err := s.users.FindByExternalID(ctx, strings.TrimSpace(externalID))
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, storeError("find user by externalId", zeroID, err)
	}
	disabled, err := s.users.UpdateStatus(ctx, user.ID, core.StatusDisabled)
	if err != nil {
		return nil, storeError("disable user", user.ID, err)
	}
	released, err := s.conversations.UnassignStaff(ctx, user.ID)
	if err != nil {
		return nil, storeError("release assignments", user.ID, err)
	}
	s.logger.Info("user disabled by identity provider",
		zap.String("externalId", externalID),
		zap.String("userId", user.ID.Hex()),
		zap.Int64("released", released))
	return disabled, nil
}

// Exists 只查不建
func (s *IdentityService) Exists(ctx context.Context, externalID string) (_ *model.User, returnedError error) {
	ctx, _, end := s.trace.WithSpan(ctx)
	defer func() { end(returnedError) }()

	user, err := s.users.FindByExternalID(ctx, strings.TrimSpace(externalID))
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, storeError("find user by externalId", zeroID, err)
	}
	return user, nil
}

func newUser(externalID string, profile model.UserProfile) *model.User {
	return &model.User{
		ExternalID:    externalID,
		Email:         profile.Email,
		FirstName:     profile.FirstName,
		LastName:      profile.LastName,
		AvatarURL:     profile.AvatarURL,
		Role:          core.RoleUser,
		Status:        core.StatusActive,
		Notifications: model.DefaultNotifications(),
	}
}
