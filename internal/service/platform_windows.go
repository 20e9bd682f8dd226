//go:build windows

package service

import (
	"context"
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/windows/registry"
)

const (
	runKeyPath   = `Software\Microsoft\Windows\CurrentVersion\Run`
	runValueName = "EdgeCopilotHelper"
)

func newPlatform(opts Options) (Manager, error) {
	return NewRunKey(opts), nil
}

// RunKey registers the helper under the current user's Run key.
type RunKey struct {
	opts Options
}

// NewRunKey creates the Windows backend.
func NewRunKey(opts Options) *RunKey {
	opts.defaults()
	return &RunKey{opts: opts}
}

func (r *RunKey) Name() string { return "registry" }

// RunCommand is the command line stored in the Run value.
func (r *RunKey) RunCommand() string {
	return `"` + r.opts.Layout.BinaryPath + `" run`
}

func (r *RunKey) Install(_ context.Context) error {
	if err := installBinary(r.opts); err != nil {
		return err
	}
	k, _, err := registry.CreateKey(registry.CURRENT_USER, runKeyPath, registry.SET_VALUE)
	if err != nil {
		return fmt.Errorf("open Run key: %w", err)
	}
	defer func() { _ = k.Close() }()

	if err := k.SetStringValue(runValueName, r.RunCommand()); err != nil {
		return fmt.Errorf("set Run value: %w", err)
	}
	r.opts.Logger.Info("service: Run key registered", "command", r.RunCommand())
	return nil
}

func (r *RunKey) Uninstall(_ context.Context) error {
	k, err := registry.OpenKey(registry.CURRENT_USER, runKeyPath, registry.SET_VALUE)
	if err == nil {
		if err := k.DeleteValue(runValueName); err != nil && !errors.Is(err, registry.ErrNotExist) {
			_ = k.Close()
			return fmt.Errorf("delete Run value: %w", err)
		}
		_ = k.Close()
	}
	if err := os.RemoveAll(r.opts.Layout.InstallDir); err != nil {
		return fmt.Errorf("remove install directory: %w", err)
	}
	r.opts.Logger.Info("service: Run key removed")
	return nil
}

func (r *RunKey) Installed() (bool, error) {
	k, err := registry.OpenKey(registry.CURRENT_USER, runKeyPath, registry.QUERY_VALUE)
	if err != nil {
		if errors.Is(err, registry.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	defer func() { _ = k.Close() }()

	_, _, err = k.GetStringValue(runValueName)
	if errors.Is(err, registry.ErrNotExist) {
		return false, nil
	}
	return err == nil, err
}
