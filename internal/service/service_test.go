package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/leonletto/edge-copilot-helper/internal/paths"
)

// fakeRunner records every command and fails those listed in failOn.
type fakeRunner struct {
	calls  []string
	failOn map[string]error
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	call := strings.Join(append([]string{name}, args...), " ")
	f.calls = append(f.calls, call)
	if err, ok := f.failOn[call]; ok {
		return nil, err
	}
	return nil, nil
}

func testOptions(t *testing.T, goos string) (Options, *fakeRunner) {
	t.Helper()
	home := t.TempDir()
	exe := filepath.Join(t.TempDir(), "edge-copilot-helper-build")
	if err := os.WriteFile(exe, []byte("#!binary"), 0700); err != nil {
		t.Fatal(err)
	}
	runner := &fakeRunner{}
	return Options{
		Layout:     paths.For(goos, home, nil),
		Runner:     runner,
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		Executable: func() (string, error) { return exe, nil },
	}, runner
}

func TestRenderUnit(t *testing.T) {
	unit, err := RenderUnit("/home/u/.local/share/app/edge-copilot-helper")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		"ExecStart=/home/u/.local/share/app/edge-copilot-helper daemon\n",
		"Restart=always\n",
		"RestartSec=5\n",
		"WantedBy=default.target\n",
		"Type=simple\n",
	} {
		if !bytes.Contains(unit, []byte(want)) {
			t.Errorf("unit missing %q:\n%s", want, unit)
		}
	}
}

func TestRenderPlistEscapes(t *testing.T) {
	plist, err := RenderPlist(paths.AppLabel, "/Users/a&b/bin/helper", "/Users/a&b/Logs")
	if err != nil {
		t.Fatal(err)
	}
	s := string(plist)
	for _, want := range []string{
		"<string>/Users/a&amp;b/bin/helper</string>",
		"<string>daemon</string>",
		"<key>RunAtLoad</key>\n\t<true/>",
		"<key>KeepAlive</key>\n\t<true/>",
		"<string>/Users/a&amp;b/Logs/service.log</string>",
		"<string>/Users/a&amp;b/Logs/service.err</string>",
		"<string>" + paths.AppLabel + "</string>",
	} {
		if !strings.Contains(s, want) {
			t.Errorf("plist missing %q:\n%s", want, s)
		}
	}
}

func TestSystemdInstall(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix file modes")
	}
	opts, runner := testOptions(t, "linux")
	s := NewSystemd(opts)
	unit := filepath.Base(opts.Layout.ServiceFile)

	if err := s.Install(context.Background()); err != nil {
		t.Fatalf("Install: %v", err)
	}

	want := []string{
		"systemctl --user stop " + unit,
		"systemctl --user disable " + unit,
		"systemctl --user daemon-reload",
		"systemctl --user enable " + unit,
		"systemctl --user start " + unit,
	}
	if diff := cmp.Diff(want, runner.calls); diff != "" {
		t.Fatalf("commands mismatch (-want +got):\n%s", diff)
	}

	info, err := os.Stat(opts.Layout.BinaryPath)
	if err != nil {
		t.Fatalf("binary not installed: %v", err)
	}
	if info.Mode().Perm() != 0755 {
		t.Fatalf("binary mode = %v, want 0755", info.Mode().Perm())
	}
	content, err := os.ReadFile(opts.Layout.ServiceFile)
	if err != nil {
		t.Fatalf("unit not written: %v", err)
	}
	if !strings.Contains(string(content), "ExecStart="+opts.Layout.BinaryPath+" daemon") {
		t.Fatalf("unit does not start the installed binary:\n%s", content)
	}
	if ok, err := s.Installed(); err != nil || !ok {
		t.Fatalf("Installed() = %v, %v", ok, err)
	}
}

func TestSystemdInstallStartFailure(t *testing.T) {
	opts, runner := testOptions(t, "linux")
	unit := filepath.Base(opts.Layout.ServiceFile)
	boom := errors.New("Failed to connect to bus")
	runner.failOn = map[string]error{"systemctl --user enable " + unit: boom}

	err := NewSystemd(opts).Install(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("Install error = %v, want enable failure", err)
	}
}

func TestSystemdUninstallTolerant(t *testing.T) {
	opts, runner := testOptions(t, "linux")
	unit := filepath.Base(opts.Layout.ServiceFile)
	runner.failOn = map[string]error{
		"systemctl --user stop " + unit:    errors.New("not loaded"),
		"systemctl --user disable " + unit: errors.New("not loaded"),
	}
	s := NewSystemd(opts)

	// Nothing installed: still succeeds.
	if err := s.Uninstall(context.Background()); err != nil {
		t.Fatalf("Uninstall without install: %v", err)
	}

	runner.failOn = nil
	if err := s.Install(context.Background()); err != nil {
		t.Fatalf("Install: %v", err)
	}
	if err := s.Uninstall(context.Background()); err != nil {
		t.Fatalf("Uninstall: %v", err)
	}
	for _, p := range []string{opts.Layout.ServiceFile, opts.Layout.InstallDir} {
		if _, err := os.Stat(p); !os.IsNotExist(err) {
			t.Errorf("%s still exists after uninstall", p)
		}
	}
	if ok, _ := s.Installed(); ok {
		t.Fatal("Installed() true after uninstall")
	}
}

func TestLaunchdInstallUninstall(t *testing.T) {
	opts, runner := testOptions(t, "darwin")
	l := NewLaunchd(opts, 501)
	plist := opts.Layout.ServiceFile

	if err := l.Install(context.Background()); err != nil {
		t.Fatalf("Install: %v", err)
	}
	want := []string{
		"launchctl bootout gui/501 " + plist,
		"launchctl load -w " + plist,
	}
	if diff := cmp.Diff(want, runner.calls); diff != "" {
		t.Fatalf("commands mismatch (-want +got):\n%s", diff)
	}
	content, err := os.ReadFile(plist)
	if err != nil {
		t.Fatalf("plist not written: %v", err)
	}
	if !strings.Contains(string(content), opts.Layout.BinaryPath) {
		t.Fatalf("plist does not reference installed binary:\n%s", content)
	}
	if _, err := os.Stat(opts.Layout.LogDir); err != nil {
		t.Fatalf("log directory not created: %v", err)
	}

	runner.calls = nil
	if err := l.Uninstall(context.Background()); err != nil {
		t.Fatalf("Uninstall: %v", err)
	}
	if diff := cmp.Diff([]string{"launchctl bootout gui/501 " + plist}, runner.calls); diff != "" {
		t.Fatalf("uninstall commands mismatch (-want +got):\n%s", diff)
	}
	for _, p := range []string{plist, opts.Layout.InstallDir, opts.Layout.LogDir} {
		if _, err := os.Stat(p); !os.IsNotExist(err) {
			t.Errorf("%s still exists after uninstall", p)
		}
	}
}

func TestInstallBinarySkipsSelfCopy(t *testing.T) {
	opts, _ := testOptions(t, "linux")
	if err := os.MkdirAll(filepath.Dir(opts.Layout.BinaryPath), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(opts.Layout.BinaryPath, []byte("installed"), 0755); err != nil {
		t.Fatal(err)
	}
	opts.Executable = func() (string, error) { return opts.Layout.BinaryPath, nil }

	if err := installBinary(opts); err != nil {
		t.Fatalf("installBinary: %v", err)
	}
	got, err := os.ReadFile(opts.Layout.BinaryPath)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "installed" {
		t.Fatalf("binary rewritten: %q", got)
	}
}

func TestInstallBinaryExecutableError(t *testing.T) {
	opts, _ := testOptions(t, "linux")
	opts.Executable = func() (string, error) { return "", errors.New("no /proc") }
	if err := installBinary(opts); err == nil {
		t.Fatal("expected error when the executable cannot be located")
	}
}
