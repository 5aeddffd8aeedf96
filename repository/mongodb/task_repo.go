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

type taskRepository struct {
	coll *mongo.Collection
}

// NewTaskRepository instantiates a Mongo-backed task repository.
func NewTaskRepository(db *mongo.Database) repository.TaskRepository {
	return &taskRepository{coll: db.Collection("tasks")}
}

func (r *taskRepository) Find(ctx context.Context, q repository.Query) ([]map[string]interface{}, error) {
	cursor, err := r.coll.Find(ctx, toBson(q.Filter), findOptions(q))
	if err != nil {
		return nil, storeErr("list tasks", err)
	}
	docs := []map[string]interface{}{}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, storeErr("decode tasks", err)
	}
	return docs, nil
}

func (r *taskRepository) Count(ctx context.Context, filter map[string]interface{}) (int64, error) {
	n, err := r.coll.CountDocuments(ctx, toBson(filter))
	if err != nil {
		return 0, storeErr("count tasks", err)
	}
	return n, nil
}

func (r *taskRepository) FindByID(ctx context.Context, id string, projection map[string]interface{}) (map[string]interface{}, error) {
	var doc map[string]interface{}
	err := r.coll.FindOne(ctx, bson.M{"_id": id}, findOneOptions(projection)).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrTaskNotFound
	}
	if err != nil {
		return nil, storeErr("get task", err)
	}
	return doc, nil
}

func (r *taskRepository) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	var task domain.Task
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&task)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrTaskNotFound
	}
	if err != nil {
		return nil, storeErr("get task", err)
	}
	return &task, nil
}

func (r *taskRepository) Create(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	if task == nil {
		return nil, domain.NewError(domain.ErrCodeValidation, "missing task payload")
	}
	if task.ID == "" {
		task.ID = primitive.NewObjectID().Hex()
	}
	if task.CreatedAt.IsZero() {
		task.CreatedAt = time.Now().UTC()
	}
	if task.AssignedUserName == "" {
		task.AssignedUserName = domain.UnassignedName
	}
	if _, err := r.coll.InsertOne(ctx, task); err != nil {
		return nil, storeErr("insert task", err)
	}
	return task, nil
}

func (r *taskRepository) Save(ctx context.Context, task *domain.Task) error {
	if task == nil || task.ID == "" {
		return domain.NewError(domain.ErrCodeValidation, "missing task id")
	}
	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": task.ID}, task)
	if err != nil {
		return storeErr("save task", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

func (r *taskRepository) Delete(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return storeErr("delete task", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

func (r *taskRepository) ClearAssignmentsByUser(ctx context.Context, userID string) error {
	_, err := r.coll.UpdateMany(ctx,
		bson.M{"assignedUser": userID},
		bson.M{"$set": bson.M{"assignedUser": nil, "assignedUserName": domain.UnassignedName}},
	)
	if err != nil {
		return storeErr("clear assignments", err)
	}
	return nil
}
