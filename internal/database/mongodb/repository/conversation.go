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

type ConversationRepository struct {
	collection *mongo.Collection
}

func NewConversationRepository(mongoClient *client.MongoClient) *ConversationRepository {
	repository := &ConversationRepository{
		collection: mongoClient.Collection(core.MongoCollectionConversations),
	}
	_ = repository.ensureIndexes(context.Background())
	return repository
}

func (repository *ConversationRepository) ensureIndexes(contextValue context.Context) error {
	ctx := contextValue

	indexModels := []mongo.IndexModel{
		{ // 客戶看自己的對話
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "updatedAt", Value: -1}},
			Options: options.Index().SetName("idx_userId_updatedAt"),
		},
		{ // 客服看指派給自己的對話
			Keys:    bson.D{{Key: "assignedStaffId", Value: 1}, {Key: "updatedAt", Value: -1}},
			Options: options.Index().SetName("idx_assignedStaffId_updatedAt"),
		},
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "updatedAt", Value: -1}},
			Options: options.Index().SetName("idx_status_updatedAt"),
		},
	}
	_, _ = repository.collection.Indexes().CreateMany(ctx, indexModels)
	return nil
}

// Create：新對話一律 open、未指派
func (repository *ConversationRepository) Create(
	contextValue context.Context,
	conversation *model.Conversation,
) (_ *model.Conversation, returnedError error) {

	nowUTC := time.Now().UTC()
	if conversation.ID.IsZero() {
		conversation.ID = primitive.NewObjectID()
	}
	if conversation.Status == "" {
		conversation.Status = core.ConversationOpen
	}
	conversation.CreatedAt = nowUTC
	conversation.UpdatedAt = nowUTC

	insertResult, insertError := repository.collection.InsertOne(contextValue, conversation)
	if insertError != nil {
		return nil, insertError
	}
	objectID, ok := insertResult.InsertedID.(primitive.ObjectID)
	if !ok {
		return nil, fmt.Errorf("unexpected InsertedID type: %T", insertResult.InsertedID)
	}
	conversation.ID = objectID
	return conversation, nil
}

func (repository *ConversationRepository) GetByID(
	contextValue context.Context,
	conversationIdentifier primitive.ObjectID,
) (_ *model.Conversation, returnedError error) {

	var conversation model.Conversation
	if returnedError = repository.collection.FindOne(contextValue, bson.M{"_id": conversationIdentifier}).Decode(&conversation); returnedError != nil {
		return nil, returnedError
	}
	return &conversation, nil
}

// List 依 updatedAt 由新到舊
func (repository *ConversationRepository) List(
	contextValue context.Context,
	scope core.ConversationScope,
	status *core.ConversationStatus,
) (_ []*model.Conversation, returnedError error) {

	findOptions := options.Find().SetSort(bson.D{{Key: "updatedAt", Value: -1}, {Key: "_id", Value: -1}})
	cursor, findError := repository.collection.Find(contextValue, conversationFilter(scope, status), findOptions)
	if findError != nil {
		return nil, findError
	}
	defer cursor.Close(contextValue)

	conversations := []*model.Conversation{}
	if returnedError = cursor.All(contextValue, &conversations); returnedError != nil {
		return nil, returnedError
	}
	return conversations, nil
}

// SetStatus 只改狀態，不更新 updatedAt
func (repository *ConversationRepository) SetStatus(
	contextValue context.Context,
	conversationIdentifier primitive.ObjectID,
	status core.ConversationStatus,
) (_ *model.Conversation, returnedError error) {

	return repository.findOneAndUpdate(contextValue, bson.M{"_id": conversationIdentifier}, bson.M{"$set": bson.M{"status": status}})
}

// Assign 已經指派給同一人時不寫入，回傳 changed=false
func (repository *ConversationRepository) Assign(
	contextValue context.Context,
	conversationIdentifier primitive.ObjectID,
	staffIdentifier primitive.ObjectID,
) (changed bool, returnedError error) {

	filter := bson.M{"_id": conversationIdentifier, "assignedStaffId": bson.M{"$ne": staffIdentifier}}
	result, updateError := repository.collection.UpdateOne(contextValue, filter, bson.M{"$set": bson.M{"assignedStaffId": staffIdentifier}})
	if updateError != nil {
		return false, updateError
	}
	return result.ModifiedCount > 0, nil
}

// Unassign 清空單一對話的指派
func (repository *ConversationRepository) Unassign(
	contextValue context.Context,
	conversationIdentifier primitive.ObjectID,
) (changed bool, returnedError error) {

	filter := bson.M{"_id": conversationIdentifier, "assignedStaffId": bson.M{"$ne": nil}}
	result, updateError := repository.collection.UpdateOne(contextValue, filter, bson.M{"$set": bson.M{"assignedStaffId": nil}})
	if updateError != nil {
		return false, updateError
	}
	return result.ModifiedCount > 0, nil
}

// UnassignStaff 清空某位客服的所有指派，回傳影響筆數
func (repository *ConversationRepository) UnassignStaff(
	contextValue context.Context,
	staffIdentifier primitive.ObjectID,
) (_ int64, returnedError error) {

	result, updateError := repository.collection.UpdateMany(contextValue,
		bson.M{"assignedStaffId": staffIdentifier},
		bson.M{"$set": bson.M{"assignedStaffId": nil}})
	if updateError != nil {
		return 0, updateError
	}
	return result.ModifiedCount, nil
}

// AssigneeIDs 目前身上有指派的客服 id，去重
func (repository *ConversationRepository) AssigneeIDs(
	contextValue context.Context,
) (_ []primitive.ObjectID, returnedError error) {

	values, distinctError := repository.collection.Distinct(contextValue, "assignedStaffId",
		bson.M{"assignedStaffId": bson.M{"$type": "objectId"}})
	if distinctError != nil {
		return nil, distinctError
	}
	identifiers := make([]primitive.ObjectID, 0, len(values))
	for _, value := range values {
		if identifier, ok := value.(primitive.ObjectID); ok {
			identifiers = append(identifiers, identifier)
		}
	}
	return identifiers, nil
}

// Touch 有新訊息時把 updatedAt 推到現在
func (repository *ConversationRepository) Touch(
	contextValue context.Context,
	conversationIdentifier primitive.ObjectID,
) (returnedError error) {

	_, returnedError = repository.collection.UpdateOne(contextValue, bson.M{"_id": conversationIdentifier}, withUpdatedAt(bson.M{}))
	return returnedError
}

// DeleteByID：單文件刪除
func (repository *ConversationRepository) DeleteByID(
	contextValue context.Context,
	conversationIdentifier primitive.ObjectID,
) (_ int64, returnedError error) {

	result, deleteError := repository.collection.DeleteOne(contextValue, bson.M{"_id": conversationIdentifier})
	if deleteError != nil {
		return 0, deleteError
	}
	return result.DeletedCount, nil
}

func (repository *ConversationRepository) findOneAndUpdate(
	contextValue context.Context,
	filter bson.M,
	update bson.M,
) (_ *model.Conversation, returnedError error) {

	updateOptions := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var conversation model.Conversation
	if returnedError = repository.collection.FindOneAndUpdate(contextValue, filter, update, updateOptions).Decode(&conversation); returnedError != nil {
		return nil, returnedError
	}
	return &conversation, nil
}
