package service

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"text/template"
)

var unitTemplate = template.Must(template.New("unit").Parse(`[Unit]
Description=Edge Copilot Helper - Bypass Microsoft Edge Copilot region restrictions
After=default.target

[Service]
Type=simple
ExecStart={{.Binary}} daemon
Restart=always
RestartSec=5

[Install]
WantedBy=default.target
`))

// RenderUnit returns the systemd user unit that runs binary in daemon mode.
func RenderUnit(binary string) ([]byte, error) {
	var buf bytes.Buffer
	if err := unitTemplate.Execute(&buf, struct{ Binary string }{binary}); err != nil {
		return nil, fmt.Errorf("render unit: %w", err)
	}
	return buf.Bytes(), nil
}

// Systemd manages a systemd user unit.
type Systemd struct {
	opts Options
}

// NewSystemd creates the Linux backend.
func NewSystemd(opts Options) *Systemd {
	opts.defaults()
	return &Systemd{opts: opts}
}

func (s *Systemd) Name() string { return "systemd" }

func (s *Systemd) unit() string {
	return filepath.Base(s.opts.Layout.ServiceFile)
}

func (s *Systemd) systemctl(ctx context.Context, args ...string) error {
	_, err := s.opts.Runner.Run(ctx, "systemctl", append([]string{"--user"}, args...)...)
	return err
}

// Install stops any running unit, installs the binary, writes the unit and
// enables and starts it.
func (s *Systemd) Install(ctx context.Context) error {
	// Not installed yet is fine.
	_ = s.systemctl(ctx, "stop", s.unit())
	_ = s.systemctl(ctx, "disable", s.unit())

	if err := installBinary(s.opts); err != nil {
		return err
	}
	unit, err := RenderUnit(s.opts.Layout.BinaryPath)
	if err != nil {
		return err
	}
	if err := writeDefinition(s.opts.Layout.ServiceFile, unit); err != nil {
		return err
	}

	for _, args := range [][]string{
		{"daemon-reload"},
		{"enable", s.unit()},
		{"start", s.unit()},
	} {
		if err := s.systemctl(ctx, args...); err != nil {
			return fmt.Errorf("systemd: %w", err)
		}
	}
	s.opts.Logger.Info("service: systemd unit installed", "unit", s.opts.Layout.ServiceFile)
	return nil
}

// Uninstall stops and removes the unit and the install directory. Missing
// pieces are skipped.
func (s *Systemd) Uninstall(ctx context.Context) error {
	_ = s.systemctl(ctx, "stop", s.unit())
	_ = s.systemctl(ctx, "disable", s.unit())

	if err := removeIfExists(s.opts.Layout.ServiceFile); err != nil {
		return fmt.Errorf("remove unit: %w", err)
	}
	if err := s.systemctl(ctx, "daemon-reload"); err != nil {
		s.opts.Logger.Warn("service: daemon-reload failed", "error", err)
	}
	if err := os.RemoveAll(s.opts.Layout.InstallDir); err != nil {
		return fmt.Errorf("remove install directory: %w", err)
	}
	s.opts.Logger.Info("service: systemd unit removed")
	return nil
}

func (s *Systemd) Installed() (bool, error) {
	return exists(s.opts.Layout.ServiceFile)
}
