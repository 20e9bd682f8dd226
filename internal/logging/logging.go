// Package logging builds the helper's slog loggers: a console logger for
// foreground runs and a daily-rotated JSON file logger for the daemon.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/term"
)

const dateLayout = "20060102"

// NewConsole returns a text logger on w. Timestamps are dropped when w is an
// interactive terminal.
func NewConsole(w io.Writer, level slog.Leveler) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if isTerminal(w) {
		opts.ReplaceAttr = dropTime
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func dropTime(groups []string, a slog.Attr) slog.Attr {
	if len(groups) == 0 && a.Key == slog.TimeKey {
		return slog.Attr{}
	}
	return a
}

// DailyWriter appends to <dir>/<prefix>-YYYYMMDD.log, switching files when
// the local date changes and pruning files older than the retention window.
type DailyWriter struct {
	dir       string
	prefix    string
	retention int
	now       func() time.Time

	mu   sync.Mutex
	day  string
	file *os.File
}

// NewDailyWriter opens today's log file in dir. retentionDays <= 0 keeps
// every file.
func NewDailyWriter(dir, prefix string, retentionDays int, now func() time.Time) (*DailyWriter, error) {
	if now == nil {
		now = time.Now
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	w := &DailyWriter{dir: dir, prefix: prefix, retention: retentionDays, now: now}
	if err := w.rotate(now()); err != nil {
		return nil, err
	}
	return w, nil
}

// Path returns the file currently written to.
func (w *DailyWriter) Path() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.pathFor(w.day)
}

func (w *DailyWriter) pathFor(day string) string {
	return filepath.Join(w.dir, w.prefix+"-"+day+".log")
}

func (w *DailyWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return 0, os.ErrClosed
	}
	if now := w.now(); now.Format(dateLayout) != w.day {
		if err := w.rotate(now); err != nil {
			return 0, err
		}
	}
	return w.file.Write(p)
}

// Close closes the current file.
func (w *DailyWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	return err
}

// rotate must be called with mu held (or before the writer is shared).
func (w *DailyWriter) rotate(now time.Time) error {
	day := now.Format(dateLayout)
	f, err := os.OpenFile(w.pathFor(day), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600) //nolint:gosec // G304 - path inside the app log directory
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	if w.file != nil {
		_ = w.file.Close()
	}
	w.file = f
	w.day = day
	w.prune(now)
	return nil
}

// prune deletes log files of this prefix dated before the retention window.
// Files with unparseable names are left alone.
func (w *DailyWriter) prune(now time.Time) {
	if w.retention <= 0 {
		return
	}
	cutoff := now.AddDate(0, 0, -w.retention).Format(dateLayout)
	for _, name := range w.files() {
		day := strings.TrimSuffix(strings.TrimPrefix(name, w.prefix+"-"), ".log")
		if _, err := time.Parse(dateLayout, day); err != nil {
			continue
		}
		if day < cutoff {
			_ = os.Remove(filepath.Join(w.dir, name))
		}
	}
}

// files lists this writer's log files, oldest first.
func (w *DailyWriter) files() []string {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, w.prefix+"-") || !strings.HasSuffix(name, ".log") {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// OpenDaily returns a JSON logger writing to a DailyWriter in dir. Close the
// returned closer on shutdown.
func OpenDaily(dir, prefix string, retentionDays int, level slog.Leveler) (*slog.Logger, io.Closer, error) {
	w, err := NewDailyWriter(dir, prefix, retentionDays, nil)
	if err != nil {
		return nil, nil, err
	}
	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
	return logger, w, nil
}
