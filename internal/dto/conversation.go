package dto

import (
	"time"

	"supportdesk/internal/core"
	"supportdesk/internal/database/mongodb/model"
	"supportdesk/internal/pkg/request"
	"supportdesk/internal/service"
)

type CreateConversationDto struct {
	Subject string `json:"subject" binding:"required,max=200"`
}

func (CreateConversationDto) GetMessages() request.ValidatorMessages {
	return request.ValidatorMessages{
		"Subject.required": "subject is required",
		"Subject.max":      "subject must be at most 200 characters",
	}
}

type UpdateConversationStatusDto struct {
	Status core.ConversationStatus `json:"status" binding:"required,oneof=open archived"`
}

func (UpdateConversationStatusDto) GetMessages() request.ValidatorMessages {
	return request.ValidatorMessages{
		"Status.required": "status is required",
		"Status.oneof":    "status must be one of: open, archived",
	}
}

type AssignConversationDto struct {
	StaffID string `json:"staffId" binding:"required,len=24,hexadecimal"`
}

type ListConversationsQuery struct {
	Status string `form:"status" binding:"omitempty,oneof=open archived"`
}

func (q ListConversationsQuery) StatusFilter() *core.ConversationStatus {
	if q.Status == "" {
		return nil
	}
	status := core.ConversationStatus(q.Status)
	return &status
}

type ConversationResponseDto struct {
	ID              string                  `json:"id"`
	Subject         string                  `json:"subject"`
	Status          core.ConversationStatus `json:"status"`
	UserID          string                  `json:"userId"`
	AssignedStaffID *string                 `json:"assignedStaffId"`
	UnreadCount     *int64                  `json:"unreadCount,omitempty"`
	CreatedAt       time.Time               `json:"createdAt"`
	UpdatedAt       time.Time               `json:"updatedAt"`
}

func NewConversationResponseDto(m *model.Conversation) *ConversationResponseDto {
	if m == nil {
		return nil
	}
	resp := &ConversationResponseDto{
		ID:        m.ID.Hex(),
		Subject:   m.Subject,
		Status:    m.Status,
		UserID:    m.UserID.Hex(),
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
	if m.AssignedStaffID != nil {
		staff := m.AssignedStaffID.Hex()
		resp.AssignedStaffID = &staff
	}
	return resp
}

func NewConversationSummaryDto(s *service.ConversationSummary) *ConversationResponseDto {
	resp := NewConversationResponseDto(s.Conversation)
	unread := s.UnreadCount
	resp.UnreadCount = &unread
	return resp
}

func NewConversationSummaryDtos(summaries []*service.ConversationSummary) []*ConversationResponseDto {
	resp := make([]*ConversationResponseDto, len(summaries))
	for i, s := range summaries {
		resp[i] = NewConversationSummaryDto(s)
	}
	return resp
}
