package watcher

import (
	"context"
	"log/slog"
	"strings"
)

// DefaultBundlePrefix matches every Edge channel's bundle identifier
// (com.microsoft.edgemac, com.microsoft.edgemac.Beta, ...).
const DefaultBundlePrefix = "com.microsoft.edgemac"

// TerminationHandler receives the bundle identifier of a terminated app.
type TerminationHandler func(bundleID string)

// TerminationSource delivers application-terminated events. Observe blocks,
// calling handler for each event, until ctx is canceled.
type TerminationSource interface {
	Observe(ctx context.Context, handler TerminationHandler) error
}

// NotifyOptions configures a NotificationWatcher.
type NotifyOptions struct {
	BundlePrefixes []string
	Logger         *slog.Logger
}

func (o *NotifyOptions) defaults() {
	if len(o.BundlePrefixes) == 0 {
		o.BundlePrefixes = []string{DefaultBundlePrefix}
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
}

// NotificationWatcher fixes synchronously inside the source's event
// dispatch, so the fix must stay short.
type NotificationWatcher struct {
	src  TerminationSource
	fix  FixFunc
	opts NotifyOptions
}

// NewNotificationWatcher creates a NotificationWatcher on src.
func NewNotificationWatcher(src TerminationSource, fix FixFunc, opts NotifyOptions) *NotificationWatcher {
	opts.defaults()
	return &NotificationWatcher{src: src, fix: fix, opts: opts}
}

func (w *NotificationWatcher) Name() string { return "notify" }

// Run blocks until the source returns.
func (w *NotificationWatcher) Run(ctx context.Context) error {
	w.opts.Logger.Info("watch: listening for Edge termination events")
	return w.src.Observe(ctx, func(bundleID string) {
		w.handle(ctx, bundleID)
	})
}

func (w *NotificationWatcher) handle(ctx context.Context, bundleID string) {
	if !w.matches(bundleID) {
		return
	}
	w.opts.Logger.Info("watch: Edge exited, applying fix", "bundle", bundleID)
	if err := w.fix(ctx); err != nil {
		w.opts.Logger.Error("watch: fix failed", "error", err)
	}
}

func (w *NotificationWatcher) matches(bundleID string) bool {
	for _, p := range w.opts.BundlePrefixes {
		if strings.HasPrefix(bundleID, p) {
			return true
		}
	}
	return false
}
