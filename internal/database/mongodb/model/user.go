package model

import (
	"strings"
	"time"

	"supportdesk/internal/core"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type User struct {
	ID            primitive.ObjectID      `json:"id" bson:"_id"`                                  // 使用者唯一識別碼
	ExternalID    string                  `json:"externalId,omitempty" bson:"externalId,omitempty"` // 身分提供者的使用者 ID（有值時唯一）
	Email         string                  `json:"email,omitempty" bson:"email,omitempty"`         // 信箱（有值時唯一，小寫）
	FirstName     *string                 `json:"firstName" bson:"firstName"`                     // 名
	LastName      *string                 `json:"lastName" bson:"lastName"`                       // 姓
	AvatarURL     *string                 `json:"avatarUrl" bson:"avatarUrl"`                     // 頭像
	Role          core.Role               `json:"role" bson:"role"`                               // 使用者角色
	Status        core.Status             `json:"status" bson:"status"`                           // 帳號狀態
	Notifications NotificationPreferences `json:"notifications" bson:"notifications"`             // 通知偏好
	LastSeen      *time.Time              `json:"lastSeen,omitempty" bson:"lastSeen,omitempty"`   // 最後使用時間
	CreatedAt     time.Time               `json:"createdAt" bson:"createdAt"`                     // 建立時間
	UpdatedAt     time.Time               `json:"updatedAt" bson:"updatedAt"`                     // 更新時間
}

type NotificationPreferences struct {
	EmailOnReply      bool `json:"emailOnReply" bson:"emailOnReply"`
	EmailOnAssignment bool `json:"emailOnAssignment" bson:"emailOnAssignment"`
	InAppOnReply      bool `json:"inAppOnReply" bson:"inAppOnReply"`
}

// DefaultNotifications 新使用者預設全部開啟
func DefaultNotifications() NotificationPreferences {
	return NotificationPreferences{EmailOnReply: true, EmailOnAssignment: true, InAppOnReply: true}
}

// UserProfile 每次對應身分時覆寫的欄位
type UserProfile struct {
	Email     string
	FirstName *string
	LastName  *string
	AvatarURL *string
}

// ProfileFromIdentity 空字串視為沒有值
func ProfileFromIdentity(identity core.Identity) UserProfile {
	return UserProfile{
		Email:     NormalizeEmail(identity.Email),
		FirstName: nullable(identity.FirstName),
		LastName:  nullable(identity.LastName),
		AvatarURL: nullable(identity.AvatarURL),
	}
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func nullable(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}

// DisplayName 名字都沒有時退回 email
func (u *User) DisplayName() string {
	name := joinName(u.FirstName, u.LastName)
	if name == "" {
		return u.Email
	}
	return name
}

func joinName(first, last *string) string {
	parts := make([]string, 0, 2)
	if first != nil && *first != "" {
		parts = append(parts, *first)
	}
	if last != nil && *last != "" {
		parts = append(parts, *last)
	}
	return strings.Join(parts, " ")
}
