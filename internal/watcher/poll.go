package watcher

import (
	"context"
	"log/slog"
	"time"
)

// DefaultPollInterval is how often the process list is sampled.
const DefaultPollInterval = 2 * time.Second

// ProcessLister enumerates the executable names of running processes.
type ProcessLister interface {
	ProcessNames() ([]string, error)
}

// PollOptions configures a PollingWatcher.
type PollOptions struct {
	Interval time.Duration
	Names    []string
	Lister   ProcessLister
	Logger   *slog.Logger
}

func (o *PollOptions) defaults() {
	if o.Interval <= 0 {
		o.Interval = DefaultPollInterval
	}
	if len(o.Names) == 0 {
		o.Names = ProcessNamesFor(goos)
	}
	if o.Lister == nil {
		o.Lister = PSLister{}
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
}

// PollingWatcher samples the process list on a fixed interval and fires the
// fix on every running -> not running transition.
type PollingWatcher struct {
	opts    PollOptions
	fix     FixFunc
	targets map[string]struct{}

	wasRunning bool
}

// NewPollingWatcher creates a PollingWatcher. Edge is assumed not running
// before the first sample.
func NewPollingWatcher(fix FixFunc, opts PollOptions) *PollingWatcher {
	opts.defaults()
	targets := make(map[string]struct{}, len(opts.Names))
	for _, n := range opts.Names {
		targets[n] = struct{}{}
	}
	return &PollingWatcher{opts: opts, fix: fix, targets: targets}
}

func (w *PollingWatcher) Name() string { return "poll" }

// Observe feeds one running sample into the edge detector and reports
// whether it completed a running -> not running transition.
func (w *PollingWatcher) Observe(running bool) bool {
	terminated := w.wasRunning && !running
	w.wasRunning = running
	return terminated
}

// Run samples until ctx is canceled. It always returns nil on cancellation.
func (w *PollingWatcher) Run(ctx context.Context) error {
	log := w.opts.Logger
	log.Info("watch: polling for Edge", "interval", w.opts.Interval.String())

	ticker := time.NewTicker(w.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("watch: stopping")
			return nil
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

func (w *PollingWatcher) tick(ctx context.Context) {
	running, err := w.isRunning()
	if err != nil {
		// A failed sample says nothing about Edge; keep the previous state.
		w.opts.Logger.Debug("watch: process list failed", "error", err)
		return
	}
	if !w.Observe(running) {
		return
	}
	w.opts.Logger.Info("watch: Edge exited, applying fix")
	if err := w.fix(ctx); err != nil {
		w.opts.Logger.Error("watch: fix failed", "error", err)
	}
}

func (w *PollingWatcher) isRunning() (bool, error) {
	names, err := w.opts.Lister.ProcessNames()
	if err != nil {
		return false, err
	}
	for _, n := range names {
		if _, ok := w.targets[n]; ok {
			return true, nil
		}
	}
	return false, nil
}
