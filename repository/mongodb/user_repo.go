package mongodb

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/jw164/MP3/domain"
	"github.com/jw164/MP3/repository"
)

type userRepository struct {
	coll *mongo.Collection
}

// NewUserRepository instantiates a Mongo-backed user repository.
func NewUserRepository(db *mongo.Database) repository.UserRepository {
	return &userRepository{coll: db.Collection("users")}
}

func (r *userRepository) Find(ctx context.Context, q repository.Query) ([]map[string]interface{}, error) {
	cursor, err := r.coll.Find(ctx, toBson(q.Filter), findOptions(q))
	if err != nil {
		return nil, storeErr("list users", err)
	}
	docs := []map[string]interface{}{}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, storeErr("decode users", err)
	}
	return docs, nil
}

func (r *userRepository) Count(ctx context.Context, filter map[string]interface{}) (int64, error) {
	n, err := r.coll.CountDocuments(ctx, toBson(filter))
	if err != nil {
		return 0, storeErr("count users", err)
	}
	return n, nil
}

func (r *userRepository) FindByID(ctx context.Context, id string, projection map[string]interface{}) (map[string]interface{}, error) {
	var doc map[string]interface{}
	err := r.coll.FindOne(ctx, bson.M{"_id": id}, findOneOptions(projection)).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, storeErr("get user", err)
	}
	return doc, nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	var user domain.User
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, storeErr("get user", err)
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user domain.User
	err := r.coll.FindOne(ctx, bson.M{"email": domain.NormalizeEmail(email)}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, storeErr("get user by email", err)
	}
	return &user, nil
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	if user == nil {
		return nil, domain.NewError(domain.ErrCodeValidation, "missing user payload")
	}
	if user.ID == "" {
		user.ID = primitive.NewObjectID().Hex()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	if user.PendingTasks == nil {
		user.PendingTasks = []string{}
	}
	if _, err := r.coll.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrEmailTaken
		}
		return nil, storeErr("insert user", err)
	}
	return user, nil
}

func (r *userRepository) Save(ctx context.Context, user *domain.User) error {
	if user == nil || user.ID == "" {
		return domain.NewError(domain.ErrCodeValidation, "missing user id")
	}
	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": user.ID}, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrEmailTaken
		}
		return storeErr("save user", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *userRepository) AddPendingTask(ctx context.Context, userID, taskID string) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$addToSet": bson.M{"pendingTasks": taskID}},
	)
	if err != nil {
		return storeErr("add pending task", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *userRepository) RemovePendingTask(ctx context.Context, userID, taskID string) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$pull": bson.M{"pendingTasks": taskID}},
	)
	if err != nil {
		return storeErr("remove pending task", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *userRepository) Delete(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return storeErr("delete user", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}
