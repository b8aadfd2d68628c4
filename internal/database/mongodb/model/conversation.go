package model

import (
	"time"

	"supportdesk/internal/core"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Conversation struct {
	ID              primitive.ObjectID      `json:"id" bson:"_id"`
	Subject         string                  `json:"subject" bson:"subject"`
	Status          core.ConversationStatus `json:"status" bson:"status"`
	UserID          primitive.ObjectID      `json:"userId" bson:"userId"`                   // 開單的客戶，建立後不可變
	AssignedStaffID *primitive.ObjectID     `json:"assignedStaffId" bson:"assignedStaffId"` // 只有管理員可以改
	CreatedAt       time.Time               `json:"createdAt" bson:"createdAt"`
	UpdatedAt       time.Time               `json:"updatedAt" bson:"updatedAt"` // 每則新訊息都會更新
}
