package model

import (
	"time"

	"supportdesk/internal/core"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Message 只新增不修改，唯一可變的是 isRead
type Message struct {
	ID             primitive.ObjectID `json:"id" bson:"_id"`
	ConversationID primitive.ObjectID `json:"conversationId" bson:"conversationId"`
	SenderID       primitive.ObjectID `json:"senderId" bson:"senderId"`
	Content        string             `json:"content" bson:"content"`
	Attachments    []Attachment       `json:"attachments" bson:"attachments"` // 沒有附件時為 null
	IsRead         bool               `json:"isRead" bson:"isRead"`
	CreatedAt      time.Time          `json:"createdAt" bson:"createdAt"`
}

type Attachment struct {
	Name string `json:"name" bson:"name"`
	URL  string `json:"url" bson:"url"`
	Type string `json:"type" bson:"type"`
	Size int64  `json:"size" bson:"size"`
}

// SenderProfile 訊息列表 join 出來的寄件者顯示欄位
type SenderProfile struct {
	ID        primitive.ObjectID `json:"id" bson:"_id"`
	FirstName *string            `json:"firstName" bson:"firstName"`
	LastName  *string            `json:"lastName" bson:"lastName"`
	AvatarURL *string            `json:"avatarUrl" bson:"avatarUrl"`
	Role      core.Role          `json:"role" bson:"role"`
	Email     string             `json:"-" bson:"email,omitempty"`
}

func (p *SenderProfile) DisplayName() string {
	name := joinName(p.FirstName, p.LastName)
	if name == "" {
		return p.Email
	}
	return name
}

// MessageView 訊息加上寄件者；寄件者被刪除時 Sender 為 nil
type MessageView struct {
	Message `bson:",inline"`
	Sender  *SenderProfile `json:"sender" bson:"-"`
}

// SenderProfileOf 由 User 直接組出，不必再 join
func SenderProfileOf(u *User) *SenderProfile {
	if u == nil {
		return nil
	}
	return &SenderProfile{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		AvatarURL: u.AvatarURL,
		Role:      u.Role,
		Email:     u.Email,
	}
}
