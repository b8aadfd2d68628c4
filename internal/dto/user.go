package dto

import (
	"time"

	"supportdesk/internal/core"
	"supportdesk/internal/database/mongodb/model"
	"supportdesk/internal/pkg/request"
)

type NotificationPreferencesDto struct {
	EmailOnReply      bool `json:"emailOnReply"`
	EmailOnAssignment bool `json:"emailOnAssignment"`
	InAppOnReply      bool `json:"inAppOnReply"`
}

type UserResponseDto struct {
	ID            string                     `json:"id"`
	ExternalID    string                     `json:"externalId,omitempty"`
	Email         string                     `json:"email,omitempty"`
	FirstName     *string                    `json:"firstName"`
	LastName      *string                    `json:"lastName"`
	AvatarURL     *string                    `json:"avatarUrl"`
	DisplayName   string                     `json:"displayName"`
	Role          core.Role                  `json:"role"`
	Status        core.Status                `json:"status"`
	Notifications NotificationPreferencesDto `json:"notifications"`
	LastSeen      *time.Time                 `json:"lastSeen,omitempty"`
	CreatedAt     time.Time                  `json:"createdAt"`
	UpdatedAt     time.Time                  `json:"updatedAt"`
}

func NewUserResponseDto(m *model.User) *UserResponseDto {
	if m == nil {
		return nil
	}
	resp := &UserResponseDto{
		ID:          m.ID.Hex(),
		ExternalID:  m.ExternalID,
		Email:       m.Email,
		FirstName:   m.FirstName,
		LastName:    m.LastName,
		AvatarURL:   m.AvatarURL,
		DisplayName: m.DisplayName(),
		Role:        m.Role,
		Status:      m.Status,
		Notifications: NotificationPreferencesDto{
			EmailOnReply:      m.Notifications.EmailOnReply,
			EmailOnAssignment: m.Notifications.EmailOnAssignment,
			InAppOnReply:      m.Notifications.InAppOnReply,
		},
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
	if m.LastSeen != nil && !m.LastSeen.IsZero() {
		resp.LastSeen = m.LastSeen
	}
	return resp
}

func NewUserResponseDtos(users []*model.User) []*UserResponseDto {
	resp := make([]*UserResponseDto, len(users))
	for i, u := range users {
		resp[i] = NewUserResponseDto(u)
	}
	return resp
}

// 管理端列表查詢
type ListUsersQuery struct {
	Role   string `form:"role" binding:"omitempty,oneof=admin staff dev user"`
	Status string `form:"status" binding:"omitempty,oneof=active disabled"`
	Page   int64  `form:"page" binding:"omitempty,min=0"`
	Size   int64  `form:"size" binding:"omitempty,min=1,max=100"`
}

func (q ListUsersQuery) ToUserQuery() core.UserQuery {
	query := core.UserQuery{Page: q.Page, Size: q.Size}
	if q.Role != "" {
		role := core.Role(q.Role)
		query.Role = &role
	}
	if q.Status != "" {
		status := core.Status(q.Status)
		query.Status = &status
	}
	return query
}

// 修改用戶狀態
type UpdateUserStatusDto struct {
	Status core.Status `json:"status" binding:"required,oneof=active disabled"`
}

func (UpdateUserStatusDto) GetMessages() request.ValidatorMessages {
	return request.ValidatorMessages{
		"Status.required": "status is required",
		"Status.oneof":    "status must be one of: active, disabled",
	}
}

// 修改用戶角色
type UpdateUserRoleDto struct {
	Role core.Role `json:"role" binding:"required,oneof=admin staff dev user"`
}

func (UpdateUserRoleDto) GetMessages() request.ValidatorMessages {
	return request.ValidatorMessages{
		"Role.required": "role is required",
		"Role.oneof":    "role must be one of: admin, staff, dev, user",
	}
}

// 部分更新通知偏好，沒給的欄位維持原值
type UpdateNotificationsDto struct {
	EmailOnReply      *bool `json:"emailOnReply,omitempty"`
	EmailOnAssignment *bool `json:"emailOnAssignment,omitempty"`
	InAppOnReply      *bool `json:"inAppOnReply,omitempty"`
}

func (d UpdateNotificationsDto) Apply(current model.NotificationPreferences) model.NotificationPreferences {
	if d.EmailOnReply != nil {
		current.EmailOnReply = *d.EmailOnReply
	}
	if d.EmailOnAssignment != nil {
		current.EmailOnAssignment = *d.EmailOnAssignment
	}
	if d.InAppOnReply != nil {
		current.InAppOnReply = *d.InAppOnReply
	}
	return current
}
