package repository

import (
	"supportdesk/internal/core"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// scopeFilter 把可見範圍轉成 Mongo 條件；空範圍不匹配任何文件
func scopeFilter(scope core.ConversationScope) bson.M {
	switch {
	case scope.All:
		return bson.M{}
	case scope.OwnerID != nil:
		return bson.M{"userId": *scope.OwnerID}
	case scope.AssignedStaffID != nil:
		return bson.M{"assignedStaffId": *scope.AssignedStaffID}
	default:
		return bson.M{"_id": bson.M{"$exists": false}}
	}
}

// conversationFilter 範圍加上可選的狀態條件
func conversationFilter(scope core.ConversationScope, status *core.ConversationStatus) bson.M {
	filter := scopeFilter(scope)
	if status != nil {
		filter["status"] = *status
	}
	return filter
}

func idIn(identifiers []primitive.ObjectID) bson.M {
	if identifiers == nil {
		identifiers = []primitive.ObjectID{}
	}
	return bson.M{"$in": identifiers}
}
