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

type UserRepository struct {
	collection *mongo.Collection
}

// NewUserRepository 唯一索引建不起來就不啟動，身分對應靠它擋重複
func NewUserRepository(mongoClient *client.MongoClient) (*UserRepository, error) {
	repository := &UserRepository{
		collection: mongoClient.Collection(core.MongoCollectionUsers),
	}
	if err := repository.ensureIndexes(context.Background()); err != nil {
		return nil, fmt.Errorf("ensure user indexes: %w", err)
	}
	return repository, nil
}

func (repository *UserRepository) ensureIndexes(contextValue context.Context) error {
	ctx, cancel := context.WithTimeout(contextValue, 10*time.Second)
	defer cancel()

	stringOnly := func(field string) bson.M {
		return bson.M{field: bson.M{"$type": "string"}}
	}
	indexModels := []mongo.IndexModel{
		{ // externalId 有值時唯一
			Keys: bson.D{{Key: "externalId", Value: 1}},
			Options: options.Index().SetName("uniq_externalId").SetUnique(true).
				SetPartialFilterExpression(stringOnly("externalId")),
		},
		{ // email 有值時唯一
			Keys: bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetName("uniq_email").SetUnique(true).
				SetPartialFilterExpression(stringOnly("email")),
		},
		{ // 依建立時間倒序查列表
			Keys:    bson.D{{Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("idx_createdAt_desc"),
		},
		{ // 管理端依角色、狀態篩選
			Keys:    bson.D{{Key: "role", Value: 1}, {Key: "status", Value: 1}},
			Options: options.Index().SetName("idx_role_status"),
		},
	}
	_, err := repository.collection.Indexes().CreateMany(ctx, indexModels)
	return err
}

// Create：單文件插入；撞到唯一索引回 ErrDuplicateKey
func (repository *UserRepository) Create(
	contextValue context.Context,
	user *model.User,
) (_ *model.User, returnedError error) {

	nowUTC := time.Now().UTC()
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	user.Email = model.NormalizeEmail(user.Email)
	user.CreatedAt = nowUTC
	user.UpdatedAt = nowUTC

	insertResult, insertError := repository.collection.InsertOne(contextValue, user)
	if insertError != nil {
		return nil, duplicateKey(insertError)
	}
	objectID, ok := insertResult.InsertedID.(primitive.ObjectID)
	if !ok {
		return nil, fmt.Errorf("unexpected InsertedID type: %T", insertResult.InsertedID)
	}
	user.ID = objectID
	return user, nil
}

// GetByID：單文件讀取
func (repository *UserRepository) GetByID(
	contextValue context.Context,
	userIdentifier primitive.ObjectID,
) (_ *model.User, returnedError error) {

	var user model.User
	if returnedError = repository.collection.FindOne(contextValue, bson.M{"_id": userIdentifier}).Decode(&user); returnedError != nil {
		return nil, returnedError
	}
	return &user, nil
}

// FindByExternalID 舊資料可能有重複，取最新建立的一筆
func (repository *UserRepository) FindByExternalID(
	contextValue context.Context,
	externalID string,
) (_ *model.User, returnedError error) {

	findOptions := options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	var user model.User
	if returnedError = repository.collection.FindOne(contextValue, bson.M{"externalId": externalID}, findOptions).Decode(&user); returnedError != nil {
		return nil, returnedError
	}
	return &user, nil
}

// FindByEmail 比對前先轉小寫
func (repository *UserRepository) FindByEmail(
	contextValue context.Context,
	email string,
) (_ *model.User, returnedError error) {

	var user model.User
	filter := bson.M{"email": model.NormalizeEmail(email)}
	if returnedError = repository.collection.FindOne(contextValue, filter).Decode(&user); returnedError != nil {
		return nil, returnedError
	}
	return &user, nil
}

// UpdateProfile 覆寫身分提供者給的欄位；email 空字串時不動
func (repository *UserRepository) UpdateProfile(
	contextValue context.Context,
	userIdentifier primitive.ObjectID,
	profile model.UserProfile,
) (_ *model.User, returnedError error) {

	set := bson.M{
		"firstName": profile.FirstName,
		"lastName":  profile.LastName,
		"avatarUrl": profile.AvatarURL,
	}
	if profile.Email != "" {
		set["email"] = profile.Email
	}
	return repository.findOneAndUpdate(contextValue, bson.M{"_id": userIdentifier}, bson.M{"$set": set})
}

// LinkExternalID 把外部 ID 掛到既有的 email 帳號上，同時覆寫 profile
func (repository *UserRepository) LinkExternalID(
	contextValue context.Context,
	userIdentifier primitive.ObjectID,
	externalID string,
	profile model.UserProfile,
) (_ *model.User, returnedError error) {

	set := bson.M{
		"externalId": externalID,
		"firstName":  profile.FirstName,
		"lastName":   profile.LastName,
		"avatarUrl":  profile.AvatarURL,
	}
	return repository.findOneAndUpdate(contextValue, bson.M{"_id": userIdentifier}, bson.M{"$set": set})
}

// UpdateStatus：單文件部分更新
func (repository *UserRepository) UpdateStatus(
	contextValue context.Context,
	userIdentifier primitive.ObjectID,
	status core.Status,
) (_ *model.User, returnedError error) {

	return repository.findOneAndUpdate(contextValue, bson.M{"_id": userIdentifier}, bson.M{"$set": bson.M{"status": status}})
}

// UpdateRole：單文件部分更新
func (repository *UserRepository) UpdateRole(
	contextValue context.Context,
	userIdentifier primitive.ObjectID,
	role core.Role,
) (_ *model.User, returnedError error) {

	return repository.findOneAndUpdate(contextValue, bson.M{"_id": userIdentifier}, bson.M{"$set": bson.M{"role": role}})
}

// UpdateNotifications 整組覆寫通知偏好
func (repository *UserRepository) UpdateNotifications(
	contextValue context.Context,
	userIdentifier primitive.ObjectID,
	preferences model.NotificationPreferences,
) (_ *model.User, returnedError error) {

	return repository.findOneAndUpdate(contextValue, bson.M{"_id": userIdentifier}, bson.M{"$set": bson.M{"notifications": preferences}})
}

// UpdateLastSeen：不動 updatedAt
func (repository *UserRepository) UpdateLastSeen(
	contextValue context.Context,
	userIdentifier primitive.ObjectID,
	lastSeenTime time.Time,
) (_ int64, returnedError error) {

	update := bson.M{"$set": bson.M{"lastSeen": lastSeenTime.UTC()}}
	result, updateError := repository.collection.UpdateOne(contextValue, bson.M{"_id": userIdentifier}, update)
	if updateError != nil {
		return 0, updateError
	}
	return result.MatchedCount, nil
}

// List：分頁查詢（page 從 0 起算）
func (repository *UserRepository) List(
	contextValue context.Context,
	query core.UserQuery,
) (_ []*model.User, returnedError error) {

	filter := bson.M{}
	if query.Role != nil {
		filter["role"] = *query.Role
	}
	if query.Status != nil {
		filter["status"] = *query.Status
	}
	skip, limit := pageOf(query.Page, query.Size)
	findOptions := options.Find().
		SetSkip(skip).
		SetLimit(limit).
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})

	cursor, findError := repository.collection.Find(contextValue, filter, findOptions)
	if findError != nil {
		return nil, findError
	}
	defer cursor.Close(contextValue)

	users := []*model.User{}
	if returnedError = cursor.All(contextValue, &users); returnedError != nil {
		return nil, returnedError
	}
	return users, nil
}

// ListIDs 只取 _id，排程釋放指派時使用
func (repository *UserRepository) ListIDs(
	contextValue context.Context,
	roles []core.Role,
	status core.Status,
) (_ []primitive.ObjectID, returnedError error) {

	filter := bson.M{"role": bson.M{"$in": roles}, "status": status}
	cursor, findError := repository.collection.Find(contextValue, filter, options.Find().SetProjection(bson.M{"_id": 1}))
	if findError != nil {
		return nil, findError
	}
	defer cursor.Close(contextValue)

	var identifiers []primitive.ObjectID
	for cursor.Next(contextValue) {
		var row struct {
			ID primitive.ObjectID `bson:"_id"`
		}
		if decodeError := cursor.Decode(&row); decodeError != nil {
			return nil, decodeError
		}
		identifiers = append(identifiers, row.ID)
	}
	if cursorError := cursor.Err(); cursorError != nil {
		return nil, cursorError
	}
	return identifiers, nil
}

func (repository *UserRepository) findOneAndUpdate(
	contextValue context.Context,
	filter bson.M,
	update bson.M,
) (_ *model.User, returnedError error) {

	updateOptions := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var user model.User
	result := repository.collection.FindOneAndUpdate(contextValue, filter, withUpdatedAt(update), updateOptions)
	if returnedError = result.Decode(&user); returnedError != nil {
		return nil, duplicateKey(returnedError)
	}
	return &user, nil
}
