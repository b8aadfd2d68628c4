package dto

import (
	"time"

	"supportdesk/internal/core"
	"supportdesk/internal/database/mongodb/model"
	"supportdesk/internal/service"
)

// JSON 版送訊息；有附件時改用 multipart（content + files）
type SendMessageDto struct {
	Content string `json:"content" binding:"max=10000"`
}

type AttachmentDto struct {
	Name string `json:"name"`
	URL  string `json:"url"`
	Type string `json:"type"`
	Size int64  `json:"size"`
}

type SenderDto struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"displayName"`
	FirstName   *string   `json:"firstName"`
	LastName    *string   `json:"lastName"`
	AvatarURL   *string   `json:"avatarUrl"`
	Role        core.Role `json:"role"`
}

type MessageResponseDto struct {
	ID             string          `json:"id"`
	ConversationID string          `json:"conversationId"`
	SenderID       string          `json:"senderId"`
	Sender         *SenderDto      `json:"sender"`
	Content        string          `json:"content"`
	Attachments    []AttachmentDto `json:"attachments"`
	IsRead         bool            `json:"isRead"`
	CreatedAt      time.Time       `json:"createdAt"`
}

type SendMessageResponseDto struct {
	Message    *MessageResponseDto           `json:"message"`
	Rejections []service.AttachmentRejection `json:"rejections"`
}

type MarkReadResponseDto struct {
	Updated int64 `json:"updated"`
}

func NewMessageResponseDto(v *model.MessageView) *MessageResponseDto {
	if v == nil {
		return nil
	}
	resp := &MessageResponseDto{
		ID:             v.ID.Hex(),
		ConversationID: v.ConversationID.Hex(),
		SenderID:       v.SenderID.Hex(),
		Content:        v.Content,
		IsRead:         v.IsRead,
		CreatedAt:      v.CreatedAt,
	}
	if len(v.Attachments) > 0 {
		resp.Attachments = make([]AttachmentDto, len(v.Attachments))
		for i, a := range v.Attachments {
			resp.Attachments[i] = AttachmentDto{Name: a.Name, URL: a.URL, Type: a.Type, Size: a.Size}
		}
	}
	if v.Sender != nil {
		resp.Sender = &SenderDto{
			ID:          v.Sender.ID.Hex(),
			DisplayName: v.Sender.DisplayName(),
			FirstName:   v.Sender.FirstName,
			LastName:    v.Sender.LastName,
			AvatarURL:   v.Sender.AvatarURL,
			Role:        v.Sender.Role,
		}
	}
	return resp
}

func NewMessageResponseDtos(views []*model.MessageView) []*MessageResponseDto {
	resp := make([]*MessageResponseDto, len(views))
	for i, v := range views {
		resp[i] = NewMessageResponseDto(v)
	}
	return resp
}

func NewSendMessageResponseDto(result *service.SendResult) *SendMessageResponseDto {
	rejections := result.Rejections
	if rejections == nil {
		rejections = []service.AttachmentRejection{}
	}
	return &SendMessageResponseDto{Message: NewMessageResponseDto(result.Message), Rejections: rejections}
}
