package repository

import (
	"context"
	"fmt"
	"time"

	"supportdesk/internal/core"
	client "supportdesk/internal/database/client"
	"supportdesk/internal/database/mongodb/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MessageRepository struct {
	collection *mongo.Collection
}

func NewMessageRepository(mongoClient *client.MongoClient) *MessageRepository {
	repository := &MessageRepository{
		collection: mongoClient.Collection(core.MongoCollectionMessages),
	}
	_ = repository.ensureIndexes(context.Background())
	return repository
}

func (repository *MessageRepository) ensureIndexes(contextValue context.Context) error {
	ctx := contextValue

	indexModels := []mongo.IndexModel{
		{ // 對話內依時間排序
			Keys:    bson.D{{Key: "conversationId", Value: 1}, {Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}},
			Options: options.Index().SetName("idx_conversation_createdAt"),
		},
		{ // 未讀計數
			Keys:    bson.D{{Key: "conversationId", Value: 1}, {Key: "isRead", Value: 1}, {Key: "senderId", Value: 1}},
			Options: options.Index().SetName("idx_conversation_unread"),
		},
	}
	_, _ = repository.collection.Indexes().CreateMany(ctx, indexModels)
	return nil
}

// Create：新訊息一律未讀
func (repository *MessageRepository) Create(
	contextValue context.Context,
	message *model.Message,
) (_ *model.Message, returnedError error) {

	if message.ID.IsZero() {
		message.ID = primitive.NewObjectID()
	}
	if message.CreatedAt.IsZero() {
		// Mongo 只存到毫秒，先截掉避免讀回來排序不一致
		message.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	}
	if len(message.Attachments) == 0 {
		message.Attachments = nil
	}
	message.IsRead = false

	insertResult, insertError := repository.collection.InsertOne(contextValue, message)
	if insertError != nil {
		return nil, insertError
	}
	objectID, ok := insertResult.InsertedID.(primitive.ObjectID)
	if !ok {
		return nil, fmt.Errorf("unexpected InsertedID type: %T", insertResult.InsertedID)
	}
	message.ID = objectID
	return message, nil
}

// GetWithSender 單則訊息加上寄件者資料
func (repository *MessageRepository) GetWithSender(
	contextValue context.Context,
	conversationIdentifier primitive.ObjectID,
	messageIdentifier primitive.ObjectID,
) (_ *model.MessageView, returnedError error) {

	views, returnedError := repository.aggregateWithSender(contextValue, bson.M{
		"_id":            messageIdentifier,
		"conversationId": conversationIdentifier,
	})
	if returnedError != nil {
		return nil, returnedError
	}
	if len(views) == 0 {
		return nil, mongo.ErrNoDocuments
	}
	return views[0], nil
}

// ListWithSender 整個對話的訊息，createdAt 升冪、同時間以 _id 排
func (repository *MessageRepository) ListWithSender(
	contextValue context.Context,
	conversationIdentifier primitive.ObjectID,
) (_ []*model.MessageView, returnedError error) {

	return repository.aggregateWithSender(contextValue, bson.M{"conversationId": conversationIdentifier})
}

// messageWithSenderRow $lookup 回來的 sender 是陣列
type messageWithSenderRow struct {
	model.Message `bson:",inline"`
	Sender        []model.SenderProfile `bson:"sender"`
}

func (repository *MessageRepository) aggregateWithSender(
	contextValue context.Context,
	match bson.M,
) (_ []*model.MessageView, returnedError error) {

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$sort", Value: bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         string(core.MongoCollectionUsers),
			"localField":   "senderId",
			"foreignField": "_id",
			"as":           "sender",
		}}},
		{{Key: "$project", Value: bson.M{
			"sender.externalId":    0,
			"sender.notifications": 0,
			"sender.status":        0,
			"sender.lastSeen":      0,
		}}},
	}
	cursor, aggregateError := repository.collection.Aggregate(contextValue, pipeline)
	if aggregateError != nil {
		return nil, aggregateError
	}
	defer cursor.Close(contextValue)

	views := []*model.MessageView{}
	for cursor.Next(contextValue) {
		var row messageWithSenderRow
		if decodeError := cursor.Decode(&row); decodeError != nil {
			return nil, decodeError
		}
		views = append(views, normalizeSender(row))
	}
	if cursorError := cursor.Err(); cursorError != nil {
		return nil, cursorError
	}
	return views, nil
}

func normalizeSender(row messageWithSenderRow) *model.MessageView {
	view := &model.MessageView{Message: row.Message}
	if len(row.Sender) > 0 {
		sender := row.Sender[0]
		view.Sender = &sender
	}
	return view
}

// MarkRead 把別人寄的訊息標成已讀，回傳實際改到的筆數
func (repository *MessageRepository) MarkRead(
	contextValue context.Context,
	conversationIdentifier primitive.ObjectID,
	viewerIdentifier primitive.ObjectID,
) (_ int64, returnedError error) {

	filter := bson.M{
		"conversationId": conversationIdentifier,
		"senderId":       bson.M{"$ne": viewerIdentifier},
		"isRead":         false,
	}
	result, updateError := repository.collection.UpdateMany(contextValue, filter, bson.M{"$set": bson.M{"isRead": true}})
	if updateError != nil {
		return 0, updateError
	}
	return result.ModifiedCount, nil
}

// CountUnread 多個對話一次算，沒有未讀的對話不會出現在結果裡
func (repository *MessageRepository) CountUnread(
	contextValue context.Context,
	conversationIdentifiers []primitive.ObjectID,
	viewerIdentifier primitive.ObjectID,
) (_ map[primitive.ObjectID]int64, returnedError error) {

	counts := make(map[primitive.ObjectID]int64, len(conversationIdentifiers))
	if len(conversationIdentifiers) == 0 {
		return counts, nil
	}
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"conversationId": idIn(conversationIdentifiers),
			"senderId":       bson.M{"$ne": viewerIdentifier},
			"isRead":         false,
		}}},
		{{Key: "$group", Value: bson.M{"_id": "$conversationId", "count": bson.M{"$sum": 1}}}},
	}
	cursor, aggregateError := repository.collection.Aggregate(contextValue, pipeline)
	if aggregateError != nil {
		return nil, aggregateError
	}
	defer cursor.Close(contextValue)

	for cursor.Next(contextValue) {
		var row struct {
			ConversationID primitive.ObjectID `bson:"_id"`
			Count          int64              `bson:"count"`
		}
		if decodeError := cursor.Decode(&row); decodeError != nil {
			return nil, decodeError
		}
		counts[row.ConversationID] = row.Count
	}
	if cursorError := cursor.Err(); cursorError != nil {
		return nil, cursorError
	}
	return counts, nil
}

// DeleteByConversationID 刪除對話前先清掉訊息
func (repository *MessageRepository) DeleteByConversationID(
	contextValue context.Context,
	conversationIdentifier primitive.ObjectID,
) (_ int64, returnedError error) {

	result, deleteError := repository.collection.DeleteMany(contextValue, bson.M{"conversationId": conversationIdentifier})
	if deleteError != nil {
		return 0, deleteError
	}
	return result.DeletedCount, nil
}
