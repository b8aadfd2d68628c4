package repository

import (
	"errors"

	"github.com/google/wire"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// ErrDuplicateKey 違反唯一索引（externalId 或 email）
var ErrDuplicateKey = errors.New("duplicate key")

// Wire 依賴提供
var ProviderSet = wire.NewSet(
	NewUserRepository,
	NewConversationRepository,
	NewMessageRepository,
)

func withUpdatedAt(update bson.M) bson.M {
	// 確保 $currentDate 存在
	currentDate, ok := update["$currentDate"].(bson.M)
	if !ok || currentDate == nil {
		currentDate = bson.M{}
	}
	currentDate["updatedAt"] = true
	update["$currentDate"] = currentDate
	return update
}

// duplicateKey 把 driver 的重複鍵錯誤換成 ErrDuplicateKey，其他原樣回傳
func duplicateKey(err error) error {
	if err != nil && mongo.IsDuplicateKeyError(err) {
		return ErrDuplicateKey
	}
	return err
}

func pageOf(page, size int64) (skip, limit int64) {
	if size <= 0 {
		size = 20
	}
	if size > 100 {
		size = 100
	}
	if page < 0 {
		page = 0
	}
	return page * size, size
}
