package repository

import (
	"context"

	"github.com/jw164/MP3/domain"
)

// UserRepository abstracts the users collection. Read paths return raw
// documents so projections stay faithful; mutation paths are typed.
type UserRepository interface {
	Find(ctx context.Context, q Query) ([]map[string]interface{}, error)
	Count(ctx context.Context, filter map[string]interface{}) (int64, error)
	FindByID(ctx context.Context, id string, projection map[string]interface{}) (map[string]interface{}, error)

	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	Save(ctx context.Context, user *domain.User) error
	AddPendingTask(ctx context.Context, userID, taskID string) error
	RemovePendingTask(ctx context.Context, userID, taskID string) error
	Delete(ctx context.Context, id string) error
}
