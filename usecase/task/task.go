package task

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/jw164/MP3/domain"
	"github.com/jw164/MP3/internal/infrastructure/journal"
	"github.com/jw164/MP3/repository"
	refsync "github.com/jw164/MP3/usecase/sync"
)

// CreateInput carries the fields accepted when creating a task.
// AssignedUser == "" means the task starts unassigned.
type CreateInput struct {
	Name         string
	Description  string
	Deadline     time.Time
	Completed    bool
	AssignedUser string
}

// UpdateInput carries a partial update; nil fields are left untouched.
// AssignedUser follows the clear-assignment convention: nil leaves the
// assignment alone, "" clears it, anything else must resolve to a user.
type UpdateInput struct {
	Name         *string
	Description  *string
	Deadline     *time.Time
	Completed    *bool
	AssignedUser *string
}

type UseCase struct {
	tasks  repository.TaskRepository
	sync   *refsync.Synchronizer
	logger *zap.Logger
}

func New(tasks repository.TaskRepository, sync *refsync.Synchronizer, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		tasks:  tasks,
		sync:   sync,
		logger: logger,
	}
}

func (uc *UseCase) ListTasks(ctx context.Context, q repository.Query) ([]map[string]interface{}, error) {
	return uc.tasks.Find(ctx, q)
}

func (uc *UseCase) CountTasks(ctx context.Context, filter map[string]interface{}) (int64, error) {
	return uc.tasks.Count(ctx, filter)
}

func (uc *UseCase) GetTask(ctx context.Context, id string, projection map[string]interface{}) (map[string]interface{}, error) {
	return uc.tasks.FindByID(ctx, id, projection)
}

// CreateTask persists the task unassigned first, then resolves the assignee.
// When the assignee does not exist the task stays persisted and unassigned and
// the caller is informed through the reference error.
func (uc *UseCase) CreateTask(ctx context.Context, in CreateInput) (*domain.Task, error) {
	if in.Name == "" || in.Deadline.IsZero() {
		return nil, domain.NewError(domain.ErrCodeValidation, "name and deadline are required")
	}

	task := &domain.Task{
		Name:        in.Name,
		Description: in.Description,
		Deadline:    in.Deadline,
		Completed:   in.Completed,
	}
	task.Unassign()

	if _, err := uc.tasks.Create(ctx, task); err != nil {
		return nil, err
	}

	if in.AssignedUser != "" {
		user, err := uc.sync.ResolveAssignee(ctx, in.AssignedUser)
		if err != nil {
			return nil, err
		}
		task.Assign(user.ID, user.Name)
		if err := uc.tasks.Save(ctx, task); err != nil {
			return nil, err
		}
		if err := uc.sync.SyncTaskAssignment(ctx, "", task); err != nil {
			return nil, err
		}
	}

	return task, nil
}

func (uc *UseCase) UpdateTask(ctx context.Context, id string, in UpdateInput) (*domain.Task, error) {
	task, err := uc.tasks.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil && *in.Name == "" {
		return nil, domain.NewError(domain.ErrCodeValidation, "name must not be empty")
	}
	if in.Deadline != nil && in.Deadline.IsZero() {
		return nil, domain.NewError(domain.ErrCodeValidation, "deadline must not be empty")
	}

	prevAssignee := task.Assignee()

	if in.Name != nil {
		task.Name = *in.Name
	}
	if in.Description != nil {
		task.Description = *in.Description
	}
	if in.Deadline != nil {
		task.Deadline = *in.Deadline
	}
	if in.Completed != nil {
		task.Completed = *in.Completed
	}

	if in.AssignedUser != nil {
		if *in.AssignedUser == "" {
			task.Unassign()
		} else {
			user, err := uc.sync.ResolveAssignee(ctx, *in.AssignedUser)
			if err != nil {
				return nil, err
			}
			task.Assign(user.ID, user.Name)
		}
	}

	if err := uc.tasks.Save(ctx, task); err != nil {
		return nil, err
	}

	if err := uc.sync.SyncTaskAssignment(ctx, prevAssignee, task); err != nil {
		return nil, err
	}

	return task, nil
}

func (uc *UseCase) DeleteTask(ctx context.Context, id string) error {
	task, err := uc.tasks.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := uc.sync.DetachTask(ctx, task); err != nil {
		return err
	}

	if err := uc.tasks.Delete(ctx, id); err != nil {
		// the pending set was already repaired; restore membership later
		if task.Assigned() && !task.Completed {
			uc.sync.Flag(ctx, journal.ActionAddPending, task.Assignee(), task.ID)
		}
		return err
	}
	return nil
}
