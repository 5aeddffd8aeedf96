package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/jw164/MP3/domain"
	"github.com/jw164/MP3/internal/infrastructure/journal"
	"github.com/jw164/MP3/repository"
	"github.com/jw164/MP3/usecase"
)

// ConnectionHealth abstracts the connection monitor functionality.
type ConnectionHealth interface {
	IsOnline() bool
}

// ReconcilerConfig controls how frequently the journal is drained.
type ReconcilerConfig struct {
	Interval   time.Duration
	BatchSize  int
	MaxRetries int
}

// Reconciler re-applies journaled reference repairs so the user/task dual
// reference converges after a partial synchronization failure.
type Reconciler struct {
	store    *journal.Store
	monitor  ConnectionHealth
	userRepo repository.UserRepository
	taskRepo repository.TaskRepository
	logger   *zap.Logger
	cron     *cron.Cron
	cfg      ReconcilerConfig
}

func NewReconciler(
	store *journal.Store,
	monitor ConnectionHealth,
	userRepo repository.UserRepository,
	taskRepo repository.TaskRepository,
	logger *zap.Logger,
	cfg ReconcilerConfig,
) *Reconciler {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	r := &Reconciler{
		store:    store,
		monitor:  monitor,
		userRepo: userRepo,
		taskRepo: taskRepo,
		logger:   logger,
		cfg:      cfg,
		cron:     cron.New(cron.WithSeconds()),
	}

	schedule := fmt.Sprintf("@every %s", cfg.Interval)
	if _, err := r.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Interval)
		defer cancel()
		if err := r.Drain(ctx); err != nil {
			r.logger.Error("journal drain failed", zap.Error(err))
		}
	}); err != nil {
		// without the schedule the journal would never drain
		r.logger.Fatal("failed to schedule journal drain",
			zap.String("schedule", schedule), zap.Error(err))
	}

	return r
}

// Start launches the cron scheduler.
func (r *Reconciler) Start() {
	if r == nil || r.cron == nil {
		return
	}
	r.cron.Start()
	r.logger.Info("reconciler started")
}

// Stop gracefully stops the scheduler.
func (r *Reconciler) Stop(ctx context.Context) {
	if r == nil || r.cron == nil {
		return
	}
	stopCtx := r.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
	r.logger.Info("reconciler stopped")
}

// Flag journals a repair for later application.
func (r *Reconciler) Flag(ctx context.Context, action, userID, taskID string) error {
	if r == nil || r.store == nil {
		return fmt.Errorf("reconciler not configured")
	}
	return r.store.Enqueue(journal.Entry{
		Action: action,
		UserID: userID,
		TaskID: taskID,
	})
}

// Drain processes journaled repairs synchronously.
func (r *Reconciler) Drain(ctx context.Context) error {
	if r == nil || r.store == nil {
		return nil
	}
	if r.monitor != nil && !r.monitor.IsOnline() {
		r.logger.Debug("skipping journal drain (offline)")
		return nil
	}

	entries, err := r.store.GetBatch(r.cfg.BatchSize)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if err := r.processEntry(ctx, entry); err != nil {
			r.logger.Error("failed to apply reference repair",
				zap.String("entry_id", entry.ID),
				zap.String("action", entry.Action),
				zap.Error(err))

			entry.Retries++
			if entry.Retries >= r.cfg.MaxRetries {
				r.logger.Warn("dropping repair entry (max retries reached)", zap.String("entry_id", entry.ID))
				_ = r.store.Remove(entry)
				continue
			}

			if err := r.store.Remove(entry); err != nil {
				r.logger.Warn("failed to remove repair entry", zap.Error(err))
			}
			if err := r.store.Requeue(entry); err != nil {
				r.logger.Error("failed to requeue repair entry", zap.Error(err))
			}
			continue
		}

		if err := r.store.Remove(entry); err != nil {
			r.logger.Warn("failed to purge applied repair entry", zap.Error(err))
		}
	}
	return nil
}

// Size returns the number of journaled repairs.
func (r *Reconciler) Size() int {
	if r == nil || r.store == nil {
		return 0
	}
	size, err := r.store.Size()
	if err != nil {
		return 0
	}
	return size
}

// processEntry re-checks the live state before touching anything: a repair is
// applied only when the user/task pair still calls for it.
func (r *Reconciler) processEntry(ctx context.Context, entry journal.Entry) error {
	if ctx == nil {
		ctx = context.Background()
	}

	switch entry.Action {
	case journal.ActionAddPending:
		task, err := r.taskRepo.GetByID(ctx, entry.TaskID)
		if errors.Is(err, domain.ErrTaskNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if task.Assignee() != entry.UserID || task.Completed {
			return nil
		}
		err = r.userRepo.AddPendingTask(ctx, entry.UserID, entry.TaskID)
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil
		}
		return err

	case journal.ActionRemovePending:
		err := r.userRepo.RemovePendingTask(ctx, entry.UserID, entry.TaskID)
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil
		}
		return err

	case journal.ActionClearAssignment:
		if entry.TaskID == "" {
			return r.taskRepo.ClearAssignmentsByUser(ctx, entry.UserID)
		}
		task, err := r.taskRepo.GetByID(ctx, entry.TaskID)
		if errors.Is(err, domain.ErrTaskNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if task.Assignee() != entry.UserID {
			return nil
		}
		task.Unassign()
		return r.taskRepo.Save(ctx, task)

	default:
		return fmt.Errorf("unsupported repair action %s", entry.Action)
	}
}

var _ usecase.RepairQueue = (*Reconciler)(nil)
