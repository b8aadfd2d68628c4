package service

import (
	"supportdesk/internal/core"
	"supportdesk/internal/database/mongodb/model"
	cErr "supportdesk/internal/pkg/error"
)

// AccessService 角色對應的對話可見範圍，每次查詢與即時推送都要過
type AccessService struct{}

func NewAccessService() *AccessService {
	return &AccessService{}
}

// Resolve 沒有預設分支，未知角色直接拒絕
func (s *AccessService) Resolve(viewer core.Viewer) (core.ConversationScope, error) {
	if viewer.ID.IsZero() {
		return core.ConversationScope{}, cErr.Unauthorized("no local user")
	}
	switch viewer.Role {
	case core.RoleAdmin:
		return core.ConversationScope{All: true}, nil
	case core.RoleStaff, core.RoleDev:
		id := viewer.ID
		return core.ConversationScope{AssignedStaffID: &id}, nil
	case core.RoleUser:
		id := viewer.ID
		return core.ConversationScope{OwnerID: &id}, nil
	default:
		return core.ConversationScope{}, cErr.Forbidden("role " + string(viewer.Role) + " has no conversation access")
	}
}

// CanView 看不到的對話一律當作不存在
func (s *AccessService) CanView(viewer core.Viewer, conversation *model.Conversation) error {
	scope, err := s.Resolve(viewer)
	if err != nil {
		return err
	}
	if conversation == nil || !scope.Matches(conversation.UserID, conversation.AssignedStaffID) {
		return cErr.ConversationNotFound("conversation not found")
	}
	return nil
}

func (s *AccessService) RequireAdmin(viewer core.Viewer) error {
	if viewer.Role != core.RoleAdmin {
		return cErr.Forbidden("admin role required")
	}
	return nil
}
