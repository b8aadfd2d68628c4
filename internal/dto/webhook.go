package dto

import (
	"supportdesk/internal/core"
	"supportdesk/internal/pkg/request"
)

// 身分提供者佈建事件
type IdentityWebhookDto struct {
	Type string                 `json:"type" binding:"required,oneof=user.created user.updated user.deleted"`
	Data IdentityWebhookUserDto `json:"data" binding:"required"`
}

type IdentityWebhookUserDto struct {
	ID        string `json:"id" binding:"required"`
	Email     string `json:"email" binding:"omitempty,email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	AvatarURL string `json:"avatarUrl"`
}

func (IdentityWebhookDto) GetMessages() request.ValidatorMessages {
	return request.ValidatorMessages{
		"Type.required": "type is required",
		"Type.oneof":    "type must be one of: user.created, user.updated, user.deleted",
		"ID.required":   "data.id is required",
		"Email.email":   "data.email must be a valid email",
	}
}

func (d IdentityWebhookDto) Identity() core.Identity {
	return core.Identity{
		ExternalID: d.Data.ID,
		Email:      d.Data.Email,
		FirstName:  d.Data.FirstName,
		LastName:   d.Data.LastName,
		AvatarURL:  d.Data.AvatarURL,
	}
}

type IdentityWebhookResponseDto struct {
	Type   string           `json:"type"`
	Status string           `json:"status"`
	User   *UserResponseDto `json:"user,omitempty"`
}
