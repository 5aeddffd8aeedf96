// Package sync maintains the dual reference between Task.assignedUser and
// User.pendingTasks. Every mutation path of either entity goes through this
// package so the invariants are enforced from exactly one place.
package sync

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/jw164/MP3/domain"
	"github.com/jw164/MP3/internal/infrastructure/journal"
	"github.com/jw164/MP3/repository"
	"github.com/jw164/MP3/usecase"
)

type Synchronizer struct {
	users   repository.UserRepository
	tasks   repository.TaskRepository
	repairs usecase.RepairQueue
	logger  *zap.Logger
}

func New(users repository.UserRepository, tasks repository.TaskRepository, repairs usecase.RepairQueue, logger *zap.Logger) *Synchronizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Synchronizer{
		users:   users,
		tasks:   tasks,
		repairs: repairs,
		logger:  logger,
	}
}

// ResolveAssignee loads the user a task is being assigned to, translating a
// missing user into the reference error the caller must surface.
func (s *Synchronizer) ResolveAssignee(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, domain.ErrUserNotFound) {
		return nil, domain.ErrAssigneeNotFound
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// SyncTaskAssignment repairs pending-set membership after the task document
// has been persisted. prevAssignee is the assigned user id captured before the
// mutation ("" when the task was unassigned).
func (s *Synchronizer) SyncTaskAssignment(ctx context.Context, prevAssignee string, task *domain.Task) error {
	current := task.Assignee()

	if prevAssignee != "" && prevAssignee != current {
		if err := s.removePending(ctx, prevAssignee, task.ID); err != nil {
			return err
		}
	}

	if current == "" {
		return nil
	}
	if task.Completed {
		return s.removePending(ctx, current, task.ID)
	}
	return s.addPending(ctx, current, task.ID)
}

// DetachTask removes the task from its assignee's pending set. Used before a
// task is deleted, so failures abort the delete and nothing needs flagging.
func (s *Synchronizer) DetachTask(ctx context.Context, task *domain.Task) error {
	if !task.Assigned() {
		return nil
	}
	err := s.users.RemovePendingTask(ctx, task.Assignee(), task.ID)
	if errors.Is(err, domain.ErrUserNotFound) {
		return nil
	}
	return err
}

// AdoptTasks assigns each listed task to the user and returns the ids that
// belong in the user's pending set (existing, incomplete tasks only). Unknown
// ids are skipped. A task taken over from another user is also removed from
// that user's pending set.
//
// On a mid-loop failure the ids already saved as assigned are flagged as
// add_pending repairs, since the caller aborts before persisting the user's
// pending set.
func (s *Synchronizer) AdoptTasks(ctx context.Context, user *domain.User, taskIDs []string) ([]string, error) {
	pending := make([]string, 0, len(taskIDs))
	flagAdopted := func() {
		for _, id := range pending {
			s.Flag(ctx, journal.ActionAddPending, user.ID, id)
		}
	}
	for _, id := range taskIDs {
		task, err := s.tasks.GetByID(ctx, id)
		if errors.Is(err, domain.ErrTaskNotFound) {
			continue
		}
		if err != nil {
			flagAdopted()
			return pending, err
		}
		prev := task.Assignee()
		task.Assign(user.ID, user.Name)
		if err := s.tasks.Save(ctx, task); err != nil {
			flagAdopted()
			return pending, err
		}
		if !task.Completed {
			pending = append(pending, id)
		}
		if prev != "" && prev != user.ID {
			if err := s.removePending(ctx, prev, id); err != nil {
				flagAdopted()
				return pending, err
			}
		}
	}
	return pending, nil
}

// ReleaseTasks clears the assignment of each listed task, but only when the
// task is still assigned to this user, so a reassignment made elsewhere is
// never clobbered.
//
// On a mid-loop failure the ids already unassigned are flagged as
// remove_pending repairs: the caller aborts before rewriting the user's
// pending set, which would otherwise keep pointing at released tasks. The
// id that failed to save gets both a clear_assignment flag (finishing the
// release) and a remove_pending flag (dropping the stale membership).
func (s *Synchronizer) ReleaseTasks(ctx context.Context, user *domain.User, taskIDs []string) error {
	released := make([]string, 0, len(taskIDs))
	flagReleased := func() {
		for _, id := range released {
			s.Flag(ctx, journal.ActionRemovePending, user.ID, id)
		}
	}
	for _, id := range taskIDs {
		task, err := s.tasks.GetByID(ctx, id)
		if errors.Is(err, domain.ErrTaskNotFound) {
			continue
		}
		if err != nil {
			flagReleased()
			return err
		}
		if task.Assignee() != user.ID {
			continue
		}
		task.Unassign()
		if err := s.tasks.Save(ctx, task); err != nil {
			s.Flag(ctx, journal.ActionClearAssignment, user.ID, id)
			s.Flag(ctx, journal.ActionRemovePending, user.ID, id)
			flagReleased()
			return err
		}
		released = append(released, id)
	}
	return nil
}

// ClearUserAssignments bulk-resets every task pointing at the user. Runs
// before the user document is removed, so failures abort the delete.
func (s *Synchronizer) ClearUserAssignments(ctx context.Context, userID string) error {
	return s.tasks.ClearAssignmentsByUser(ctx, userID)
}

// Flag records a repair that could not be applied inline. The entry is
// retried by the reconciler; the caller still reports the original failure.
func (s *Synchronizer) Flag(ctx context.Context, action, userID, taskID string) {
	s.logger.Warn("reference repair deferred",
		zap.String("action", action),
		zap.String("user_id", userID),
		zap.String("task_id", taskID))
	if s.repairs == nil {
		return
	}
	if err := s.repairs.Flag(ctx, action, userID, taskID); err != nil {
		s.logger.Error("failed to journal reference repair",
			zap.String("action", action),
			zap.Error(err))
	}
}

func (s *Synchronizer) addPending(ctx context.Context, userID, taskID string) error {
	err := s.users.AddPendingTask(ctx, userID, taskID)
	if err == nil || errors.Is(err, domain.ErrUserNotFound) {
		return nil
	}
	s.Flag(ctx, journal.ActionAddPending, userID, taskID)
	return err
}

func (s *Synchronizer) removePending(ctx context.Context, userID, taskID string) error {
	err := s.users.RemovePendingTask(ctx, userID, taskID)
	if err == nil || errors.Is(err, domain.ErrUserNotFound) {
		return nil
	}
	s.Flag(ctx, journal.ActionRemovePending, userID, taskID)
	return err
}
