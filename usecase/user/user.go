package user

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/jw164/MP3/domain"
	"github.com/jw164/MP3/internal/infrastructure/journal"
	"github.com/jw164/MP3/repository"
	refsync "github.com/jw164/MP3/usecase/sync"
)

// CreateInput carries the fields accepted when creating a user. Listed
// pendingTasks are adopted: each task is assigned to the new user.
type CreateInput struct {
	Name         string
	Email        string
	PendingTasks []string
}

// UpdateInput carries a partial update; nil fields are left untouched.
// PendingTasks, when supplied, is the full desired set.
type UpdateInput struct {
	Name         *string
	Email        *string
	PendingTasks *[]string
}

type UseCase struct {
	users  repository.UserRepository
	sync   *refsync.Synchronizer
	logger *zap.Logger
}

func New(users repository.UserRepository, sync *refsync.Synchronizer, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		users:  users,
		sync:   sync,
		logger: logger,
	}
}

func (uc *UseCase) ListUsers(ctx context.Context, q repository.Query) ([]map[string]interface{}, error) {
	return uc.users.Find(ctx, q)
}

func (uc *UseCase) CountUsers(ctx context.Context, filter map[string]interface{}) (int64, error) {
	return uc.users.Count(ctx, filter)
}

func (uc *UseCase) GetUser(ctx context.Context, id string, projection map[string]interface{}) (map[string]interface{}, error) {
	return uc.users.FindByID(ctx, id, projection)
}

func (uc *UseCase) CreateUser(ctx context.Context, in CreateInput) (*domain.User, error) {
	if in.Name == "" || in.Email == "" {
		return nil, domain.NewError(domain.ErrCodeValidation, "name and email are required")
	}

	email := domain.NormalizeEmail(in.Email)
	if err := uc.checkEmailFree(ctx, email, ""); err != nil {
		return nil, err
	}

	user := &domain.User{
		Name:         in.Name,
		Email:        email,
		PendingTasks: []string{},
	}
	if _, err := uc.users.Create(ctx, user); err != nil {
		return nil, err
	}

	if ids := domain.DedupeIDs(in.PendingTasks); len(ids) > 0 {
		pending, err := uc.sync.AdoptTasks(ctx, user, ids)
		user.PendingTasks = pending
		if err != nil {
			return nil, err
		}
		if err := uc.users.Save(ctx, user); err != nil {
			uc.flagPending(ctx, user.ID, pending, journal.ActionAddPending)
			return nil, err
		}
	}

	return user, nil
}

func (uc *UseCase) UpdateUser(ctx context.Context, id string, in UpdateInput) (*domain.User, error) {
	user, err := uc.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil && *in.Name == "" {
		return nil, domain.NewError(domain.ErrCodeValidation, "name must not be empty")
	}
	if in.Email != nil {
		if *in.Email == "" {
			return nil, domain.NewError(domain.ErrCodeValidation, "email must not be empty")
		}
		email := domain.NormalizeEmail(*in.Email)
		if err := uc.checkEmailFree(ctx, email, user.ID); err != nil {
			return nil, err
		}
		user.Email = email
	}
	if in.Name != nil {
		user.Name = *in.Name
	}

	var adopted, released []string
	if in.PendingTasks != nil {
		desired := domain.DedupeIDs(*in.PendingTasks)
		oldSet := make(map[string]struct{}, len(user.PendingTasks))
		for _, tid := range user.PendingTasks {
			oldSet[tid] = struct{}{}
		}
		newSet := make(map[string]struct{}, len(desired))
		for _, tid := range desired {
			newSet[tid] = struct{}{}
		}

		var toAdd []string
		kept := make([]string, 0, len(desired))
		for _, tid := range desired {
			if _, ok := oldSet[tid]; ok {
				kept = append(kept, tid)
			} else {
				toAdd = append(toAdd, tid)
			}
		}
		for _, tid := range user.PendingTasks {
			if _, ok := newSet[tid]; !ok {
				released = append(released, tid)
			}
		}

		adopted, err = uc.sync.AdoptTasks(ctx, user, toAdd)
		if err != nil {
			return nil, err
		}
		if err := uc.sync.ReleaseTasks(ctx, user, released); err != nil {
			return nil, err
		}
		user.PendingTasks = append(kept, adopted...)
	}

	if err := uc.users.Save(ctx, user); err != nil {
		uc.flagPending(ctx, user.ID, adopted, journal.ActionAddPending)
		uc.flagPending(ctx, user.ID, released, journal.ActionRemovePending)
		return nil, err
	}
	return user, nil
}

func (uc *UseCase) DeleteUser(ctx context.Context, id string) error {
	user, err := uc.users.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := uc.sync.ClearUserAssignments(ctx, user.ID); err != nil {
		return err
	}

	if err := uc.users.Delete(ctx, id); err != nil {
		// tasks were already unassigned; the stale pending ids go with a repair
		uc.flagPending(ctx, user.ID, user.PendingTasks, journal.ActionRemovePending)
		return err
	}
	return nil
}

// checkEmailFree rejects emails already owned by a different user. Emails are
// stored lowercase, making the uniqueness check case-insensitive.
func (uc *UseCase) checkEmailFree(ctx context.Context, email, selfID string) error {
	other, err := uc.users.GetByEmail(ctx, email)
	if errors.Is(err, domain.ErrUserNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if other.ID != selfID {
		return domain.ErrEmailTaken
	}
	return nil
}

func (uc *UseCase) flagPending(ctx context.Context, userID string, taskIDs []string, action string) {
	for _, tid := range taskIDs {
		uc.sync.Flag(ctx, action, userID, tid)
	}
}
