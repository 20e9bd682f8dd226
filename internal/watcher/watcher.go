// Package watcher detects Microsoft Edge terminations and triggers a fix
// cycle for each one.
//
// Two variants exist. PollingWatcher samples the process list and reacts to
// running -> not running transitions. NotificationWatcher subscribes to the
// platform's application-terminated events where the OS offers them.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// ErrNotificationsUnsupported is returned when the platform has no
// termination notification source.
var ErrNotificationsUnsupported = errors.New("termination notifications not supported on this platform")

// FixFunc runs one fix cycle. Errors are logged by the watcher and never
// stop it.
type FixFunc func(ctx context.Context) error

// Watcher blocks until ctx is canceled or the event source ends.
type Watcher interface {
	Run(ctx context.Context) error
	Name() string
}

// Strategy selects the watcher variant.
type Strategy string

const (
	StrategyAuto   Strategy = "auto"
	StrategyNotify Strategy = "notify"
	StrategyPoll   Strategy = "poll"
)

// ParseStrategy validates a strategy name. The empty string means auto.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case "", StrategyAuto:
		return StrategyAuto, nil
	case StrategyNotify, StrategyPoll:
		return Strategy(s), nil
	}
	return "", fmt.Errorf("unknown watch strategy %q (want auto, notify or poll)", s)
}

// Config carries everything Select needs to build either variant.
type Config struct {
	Strategy Strategy
	Fix      FixFunc
	Logger   *slog.Logger

	// Poll settings.
	Poll PollOptions

	// Notify settings. A nil Source means the platform default.
	Source         TerminationSource
	BundlePrefixes []string
}

// Select composes the watcher for cfg.Strategy. Auto prefers notifications
// and falls back to polling when the platform has no source.
func Select(cfg Config) (Watcher, error) {
	if cfg.Fix == nil {
		return nil, errors.New("watcher: fix function is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	notify := func() (Watcher, error) {
		src := cfg.Source
		if src == nil {
			var err error
			src, err = PlatformSource()
			if err != nil {
				return nil, err
			}
		}
		return NewNotificationWatcher(src, cfg.Fix, NotifyOptions{
			BundlePrefixes: cfg.BundlePrefixes,
			Logger:         cfg.Logger,
		}), nil
	}
	poll := func() Watcher {
		opts := cfg.Poll
		if opts.Logger == nil {
			opts.Logger = cfg.Logger
		}
		return NewPollingWatcher(cfg.Fix, opts)
	}

	switch cfg.Strategy {
	case StrategyNotify:
		return notify()
	case StrategyPoll:
		return poll(), nil
	case StrategyAuto, "":
		w, err := notify()
		if errors.Is(err, ErrNotificationsUnsupported) {
			cfg.Logger.Debug("watcher: notifications unavailable, falling back to polling")
			return poll(), nil
		}
		return w, err
	}
	return nil, fmt.Errorf("unknown watch strategy %q", cfg.Strategy)
}
