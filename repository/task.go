package repository

import (
	"context"

	"github.com/jw164/MP3/domain"
)

// TaskRepository abstracts the tasks collection.
type TaskRepository interface {
	Find(ctx context.Context, q Query) ([]map[string]interface{}, error)
	Count(ctx context.Context, filter map[string]interface{}) (int64, error)
	FindByID(ctx context.Context, id string, projection map[string]interface{}) (map[string]interface{}, error)

	GetByID(ctx context.Context, id string) (*domain.Task, error)
	Create(ctx context.Context, task *domain.Task) (*domain.Task, error)
	Save(ctx context.Context, task *domain.Task) error
	Delete(ctx context.Context, id string) error

	// ClearAssignmentsByUser resets every task pointing at the user back to
	// unassigned in a single bulk update.
	ClearAssignmentsByUser(ctx context.Context, userID string) error
}
