// Package lifecycle sequences the teardown of the server's moving parts:
// the HTTP listener, the reconciler, the monitor, the journal, and the
// Mongo client all register here and are stopped in reverse start order.
package lifecycle

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// StopFunc tears one component down. It must respect ctx's deadline.
type StopFunc func(ctx context.Context) error

type stage struct {
	name string
	stop StopFunc
}

// Manager collects stop functions during bootstrap and runs them in reverse
// registration order once a termination signal arrives.
type Manager struct {
	timeout time.Duration
	logger  *zap.Logger

	mu     sync.Mutex
	stages []stage
}

func New(timeout time.Duration, logger *zap.Logger) *Manager {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		timeout: timeout,
		logger:  logger,
	}
}

// Register queues a stop function under a stage name. Later registrations
// stop first, so dependents go down before their dependencies.
func (m *Manager) Register(name string, stop StopFunc) {
	if stop == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stages = append(m.stages, stage{name: name, stop: stop})
}

// Shutdown runs every registered stop function, newest first, within the
// manager's timeout. Failures are collected rather than short-circuiting so
// every stage gets its chance to stop.
func (m *Manager) Shutdown(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var failures error
	for i := len(m.stages) - 1; i >= 0; i-- {
		st := m.stages[i]
		if err := st.stop(ctx); err != nil {
			m.logger.Error("stage did not stop cleanly",
				zap.String("stage", st.name), zap.Error(err))
			failures = errors.Join(failures, err)
			continue
		}
		m.logger.Info("stage stopped", zap.String("stage", st.name))
	}
	return failures
}

// Listen waits for SIGTERM or SIGINT in the background and fires cancel,
// which unblocks main and starts the shutdown sequence.
func (m *Manager) Listen(cancel context.CancelFunc) {
	if cancel == nil {
		return
	}
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	go func() {
		defer signal.Stop(sigCh)
		sig := <-sigCh
		m.logger.Info("termination signal received", zap.String("signal", sig.String()))
		cancel()
	}()
}
