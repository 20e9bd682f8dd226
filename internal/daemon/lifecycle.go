// Package daemon keeps a single helper instance alive: it takes the instance
// lock, publishes a PID file, runs the watcher, and tears everything down on
// SIGINT or SIGTERM.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

// Runner is the long-running component a Lifecycle drives.
type Runner interface {
	Run(ctx context.Context) error
	Name() string
}

// Lifecycle manages the helper lifecycle including signal handling and shutdown.
type Lifecycle struct {
	runner       Runner
	pidFile      string
	lockFile     string
	version      string
	logger       *slog.Logger
	lock         *FileLock
	shutdownCh   chan struct{}
	shutdownOnce sync.Once
	signals      []os.Signal
}

// NewLifecycle creates a new lifecycle manager. An empty lockFile disables
// the instance lock.
func NewLifecycle(runner Runner, pidFile, lockFile string, logger *slog.Logger) *Lifecycle {
	if logger == nil {
		logger = slog.Default()
	}
	return &Lifecycle{
		runner:     runner,
		pidFile:    pidFile,
		lockFile:   lockFile,
		logger:     logger,
		shutdownCh: make(chan struct{}),
		signals:    []os.Signal{syscall.SIGTERM, syscall.SIGINT},
	}
}

// SetVersion records the build version in the PID file.
func (l *Lifecycle) SetVersion(v string) {
	l.version = v
}

// Run acquires the instance lock and blocks in the runner until ctx is
// canceled, a shutdown signal arrives, or the runner returns. The runner is
// called on the calling goroutine.
func (l *Lifecycle) Run(ctx context.Context) error {
	if l.lockFile != "" {
		lock, err := AcquireLock(l.lockFile)
		if err != nil {
			return fmt.Errorf("failed to acquire daemon lock: %w", err)
		}
		l.lock = lock
		defer func() {
			if err := l.lock.Release(); err != nil {
				l.logger.Warn("daemon: failed to release lock", "error", err)
			}
		}()
	}

	existing, existingInfo, err := CheckPIDFileJSON(l.pidFile)
	if err != nil {
		l.logger.Warn("daemon: failed to read existing PID file", "error", err)
	} else if existing && existingInfo.PID != os.Getpid() && l.lockFile == "" {
		// Without a lock the PID file is the only guard.
		return fmt.Errorf("%w (PID %d)", ErrAlreadyRunning, existingInfo.PID)
	}

	pidInfo := PIDInfo{
		PID:       os.Getpid(),
		StartedAt: time.Now().UTC(),
		Watcher:   l.runner.Name(),
		Version:   l.version,
	}
	if err := WritePIDFileJSON(l.pidFile, pidInfo); err != nil {
		return fmt.Errorf("failed to write PID file: %w", err)
	}
	defer func() {
		if err := RemovePIDFile(l.pidFile); err != nil {
			l.logger.Warn("daemon: failed to remove PID file", "error", err)
		}
	}()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go l.handleSignals(runCtx, cancel)

	l.logger.Info("daemon: started", "pid", pidInfo.PID, "watcher", pidInfo.Watcher)
	err = l.runner.Run(runCtx)
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	l.logger.Info("daemon: stopped")
	return err
}

// handleSignals cancels the run on SIGTERM, SIGINT or Shutdown.
func (l *Lifecycle) handleSignals(ctx context.Context, cancel context.CancelFunc) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, l.signals...)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		l.logger.Info("daemon: received signal, shutting down", "signal", sig.String())
	case <-l.shutdownCh:
	case <-ctx.Done():
		return
	}
	cancel()
}

// Shutdown triggers a graceful shutdown (can be called programmatically).
func (l *Lifecycle) Shutdown() {
	l.shutdownOnce.Do(func() {
		close(l.shutdownCh)
	})
}
