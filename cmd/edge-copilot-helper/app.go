package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"runtime"

	"github.com/leonletto/edge-copilot-helper/internal/config"
	"github.com/leonletto/edge-copilot-helper/internal/discovery"
	"github.com/leonletto/edge-copilot-helper/internal/fixer"
	"github.com/leonletto/edge-copilot-helper/internal/history"
	"github.com/leonletto/edge-copilot-helper/internal/logging"
	"github.com/leonletto/edge-copilot-helper/internal/watcher"
)

// app bundles the resolved configuration and collaborators of one command.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	history *history.Store
	closers []io.Closer
}

type logMode int

const (
	logConsole logMode = iota
	logFile
)

func logLevel() slog.Level {
	if flagVerbose {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

// newApp loads configuration and opens the logger and fix history.
func newApp(ctx context.Context, mode logMode) (*app, error) {
	cfg, err := config.Load(flagConfig, config.Overrides{
		Strategy:     flagStrategy,
		PollInterval: flagInterval,
	})
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg}
	switch mode {
	case logFile:
		logger, closer, err := logging.OpenDaily(layout.LogDir, "edge-copilot-helper", cfg.LogRetentionDays, logLevel())
		if err != nil {
			return nil, err
		}
		a.logger = logger
		a.closers = append(a.closers, closer)
	default:
		a.logger = logging.NewConsole(os.Stderr, logLevel())
	}
	slog.SetDefault(a.logger)

	if cfg.History {
		store, err := history.Open(ctx, layout.HistoryDB)
		if err != nil {
			// The journal only feeds status output.
			a.logger.Warn("history: unavailable", "error", err)
		} else {
			a.history = store
			a.closers = append(a.closers, store)
		}
	}
	return a, nil
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		_ = a.closers[i].Close()
	}
}

func (a *app) applier() *fixer.Applier {
	opts := fixer.Options{
		Home:     layout.Home,
		Variants: discovery.VariantsFor(runtime.GOOS),
		Country:  a.cfg.Country,
		Logger:   a.logger,
	}
	if a.history != nil {
		opts.Recorder = a.history
	}
	return fixer.New(opts)
}

func (a *app) newWatcher() (watcher.Watcher, error) {
	applier := a.applier()
	return watcher.Select(watcher.Config{
		Strategy: a.cfg.Strategy,
		Fix: func(ctx context.Context) error {
			_, err := applier.Apply(ctx)
			return err
		},
		Logger: a.logger,
		Poll: watcher.PollOptions{
			Interval: a.cfg.PollInterval,
			Names:    a.cfg.ProcessNames,
		},
		BundlePrefixes: a.cfg.BundlePrefixes,
	})
}
