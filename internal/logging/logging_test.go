package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

func listLogs(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestNewConsoleNonTerminalKeepsTime(t *testing.T) {
	var buf bytes.Buffer
	NewConsole(&buf, slog.LevelInfo).Info("watch: started", "interval", "2s")

	out := buf.String()
	if !strings.Contains(out, "time=") {
		t.Fatalf("expected timestamp for non-terminal writer: %s", out)
	}
	if !strings.Contains(out, `msg="watch: started"`) || !strings.Contains(out, "interval=2s") {
		t.Fatalf("unexpected output: %s", out)
	}
}

func TestNewConsoleLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewConsole(&buf, slog.LevelWarn)
	l.Info("hidden")
	l.Warn("shown")
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
		t.Fatalf("level not applied: %s", buf.String())
	}
}

func TestDropTime(t *testing.T) {
	if got := dropTime(nil, slog.Time(slog.TimeKey, time.Now())); !got.Equal(slog.Attr{}) {
		t.Fatalf("top-level time not dropped: %v", got)
	}
	if got := dropTime([]string{"g"}, slog.String(slog.TimeKey, "x")); got.Key != slog.TimeKey {
		t.Fatal("grouped time attribute should be kept")
	}
}

func TestDailyWriterRotatesAndPrunes(t *testing.T) {
	dir := t.TempDir()
	clock := &fakeClock{t: time.Date(2026, 5, 1, 23, 59, 0, 0, time.Local)}

	// Leftovers from earlier runs.
	for _, name := range []string{"helper-20260420.log", "helper-20260426.log", "helper-notadate.log", "other-20200101.log"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0600); err != nil {
			t.Fatal(err)
		}
	}

	w, err := NewDailyWriter(dir, "helper", 7, clock.Now)
	if err != nil {
		t.Fatalf("NewDailyWriter: %v", err)
	}
	defer func() { _ = w.Close() }()

	if _, err := w.Write([]byte("first\n")); err != nil {
		t.Fatal(err)
	}
	clock.Set(time.Date(2026, 5, 2, 0, 1, 0, 0, time.Local))
	if _, err := w.Write([]byte("second\n")); err != nil {
		t.Fatal(err)
	}

	want := []string{
		"helper-20260426.log",
		"helper-20260501.log",
		"helper-20260502.log",
		"helper-notadate.log",
		"other-20200101.log",
	}
	if diff := cmp.Diff(want, listLogs(t, dir)); diff != "" {
		t.Fatalf("log files mismatch (-want +got):\n%s", diff)
	}

	day1, _ := os.ReadFile(filepath.Join(dir, "helper-20260501.log"))
	day2, _ := os.ReadFile(filepath.Join(dir, "helper-20260502.log"))
	if string(day1) != "first\n" || string(day2) != "second\n" {
		t.Fatalf("writes landed in the wrong files: %q %q", day1, day2)
	}
	if w.Path() != filepath.Join(dir, "helper-20260502.log") {
		t.Fatalf("Path() = %s", w.Path())
	}
}

func TestDailyWriterAppends(t *testing.T) {
	dir := t.TempDir()
	now := func() time.Time { return time.Date(2026, 1, 2, 8, 0, 0, 0, time.Local) }

	for _, line := range []string{"a\n", "b\n"} {
		w, err := NewDailyWriter(dir, "helper", 0, now)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte(line)); err != nil {
			t.Fatal(err)
		}
		if err := w.Close(); err != nil {
			t.Fatal(err)
		}
	}
	got, err := os.ReadFile(filepath.Join(dir, "helper-20260102.log"))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "a\nb\n" {
		t.Fatalf("log file = %q, want appended lines", got)
	}
}

func TestDailyWriterClosed(t *testing.T) {
	w, err := NewDailyWriter(t.TempDir(), "helper", 7, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if _, err := w.Write([]byte("late")); err == nil {
		t.Fatal("expected error writing to a closed writer")
	}
}

func TestOpenDailyWritesJSON(t *testing.T) {
	dir := t.TempDir()
	logger, closer, err := OpenDaily(dir, "edge-copilot-helper", 7, slog.LevelInfo)
	if err != nil {
		t.Fatalf("OpenDaily: %v", err)
	}
	logger.Info("fix: region fix applied", "path", "/tmp/Local State")
	if err := closer.Close(); err != nil {
		t.Fatal(err)
	}

	names := listLogs(t, dir)
	if len(names) != 1 {
		t.Fatalf("expected one log file, got %v", names)
	}
	data, err := os.ReadFile(filepath.Join(dir, names[0]))
	if err != nil {
		t.Fatal(err)
	}
	var rec map[string]any
	if err := json.Unmarshal(data, &rec); err != nil {
		t.Fatalf("log line is not JSON: %v\n%s", err, data)
	}
	if rec["msg"] != "fix: region fix applied" || rec["path"] != "/tmp/Local State" {
		t.Fatalf("unexpected record: %v", rec)
	}
}
