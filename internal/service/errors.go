package service

import (
	"context"
	"errors"
	"fmt"

	"supportdesk/internal/database/mongodb/model"
	cErr "supportdesk/internal/pkg/error"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// storeError 連線類錯誤轉 503 讓呼叫端重試，其他轉 500；訊息帶上操作與實體 id
func storeError(op string, id primitive.ObjectID, err error) error {
	var appErr *cErr.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	desc := op
	if !id.IsZero() {
		desc = fmt.Sprintf("%s %s", op, id.Hex())
	}
	if isTransient(err) {
		return cErr.StoreUnavailable(fmt.Sprintf("%s: %v", desc, err))
	}
	return cErr.DatabaseError(fmt.Sprintf("%s: %v", desc, err))
}

func isTransient(err error) bool {
	return mongo.IsNetworkError(err) ||
		mongo.IsTimeout(err) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, mongo.ErrClientDisconnected)
}

func isNotFound(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

var zeroID primitive.ObjectID

func idOf(user *model.User) primitive.ObjectID {
	if user == nil {
		return zeroID
	}
	return user.ID
}
