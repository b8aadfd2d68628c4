package core

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ConversationStatus string

const (
	ConversationOpen     ConversationStatus = "open"
	ConversationArchived ConversationStatus = "archived"
)

func (s ConversationStatus) Valid() bool {
	return s == ConversationOpen || s == ConversationArchived
}

// ConversationScope 對話可見範圍；All 以外兩個條件最多設一個
type ConversationScope struct {
	All             bool
	OwnerID         *primitive.ObjectID
	AssignedStaffID *primitive.ObjectID
}

// Matches 判斷一筆對話是否落在範圍內
func (s ConversationScope) Matches(ownerID primitive.ObjectID, assignedStaffID *primitive.ObjectID) bool {
	switch {
	case s.All:
		return true
	case s.OwnerID != nil:
		return *s.OwnerID == ownerID
	case s.AssignedStaffID != nil:
		return assignedStaffID != nil && *assignedStaffID == *s.AssignedStaffID
	default:
		return false
	}
}

// MessageEvent 新訊息寫入後推到即時頻道的通知，只帶 id，訂閱端自行回查
type MessageEvent struct {
	ConversationID primitive.ObjectID `json:"conversationId"`
	MessageID      primitive.ObjectID `json:"messageId"`
	SenderID       primitive.ObjectID `json:"senderId"`
	CreatedAt      time.Time          `json:"createdAt"`
}
