// Package service registers the helper to start automatically at login:
// a systemd user unit on Linux, a LaunchAgent on macOS and an HKCU Run value
// on Windows.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/leonletto/edge-copilot-helper/internal/daemon/safecmd"
	"github.com/leonletto/edge-copilot-helper/internal/fsx"
	"github.com/leonletto/edge-copilot-helper/internal/paths"
)

// ErrUnsupported is returned on platforms without a service backend.
var ErrUnsupported = errors.New("service installation not supported on this platform")

// Manager installs and removes the auto-start registration.
type Manager interface {
	Name() string
	Install(ctx context.Context) error
	Uninstall(ctx context.Context) error
	Installed() (bool, error)
}

// Options holds the collaborators shared by every backend.
type Options struct {
	Layout paths.Layout
	Runner safecmd.Runner
	Logger *slog.Logger

	// Executable returns the path of the binary to install.
	Executable func() (string, error)
}

func (o *Options) defaults() {
	if o.Runner == nil {
		o.Runner = safecmd.Exec{}
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.Executable == nil {
		o.Executable = os.Executable
	}
}

// New returns the backend for the running platform.
func New(opts Options) (Manager, error) {
	opts.defaults()
	return newPlatform(opts)
}

// installBinary copies the running executable into the install directory.
func installBinary(opts Options) error {
	src, err := opts.Executable()
	if err != nil {
		return fmt.Errorf("locate executable: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(src); err == nil {
		src = resolved
	}
	dst := opts.Layout.BinaryPath
	target := dst
	if resolved, err := filepath.EvalSymlinks(dst); err == nil {
		target = resolved
	}
	if filepath.Clean(src) == filepath.Clean(target) {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("create install directory: %w", err)
	}

	in, err := os.Open(src) //nolint:gosec // G304 - path of the running executable
	if err != nil {
		return fmt.Errorf("open executable: %w", err)
	}
	defer func() { _ = in.Close() }()

	data, err := io.ReadAll(in)
	if err != nil {
		return fmt.Errorf("read executable: %w", err)
	}
	if err := fsx.WriteFileAtomic(dst, data, 0755); err != nil {
		return fmt.Errorf("install binary: %w", err)
	}
	opts.Logger.Info("service: installed binary", "path", dst)
	return nil
}

// writeDefinition writes a service definition file, creating its directory.
func writeDefinition(path string, content []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create service directory: %w", err)
	}
	if err := fsx.WriteFileAtomic(path, content, 0644); err != nil {
		return fmt.Errorf("write service definition: %w", err)
	}
	return nil
}

func removeIfExists(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}
