package service

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"text/template"

	"github.com/leonletto/edge-copilot-helper/internal/paths"
)

var plistTemplate = template.Must(template.New("plist").Funcs(template.FuncMap{
	"xml": xmlEscape,
}).Parse(`<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
	<key>Label</key>
	<string>{{xml .Label}}</string>
	<key>ProgramArguments</key>
	<array>
		<string>{{xml .Binary}}</string>
		<string>daemon</string>
	</array>
	<key>RunAtLoad</key>
	<true/>
	<key>KeepAlive</key>
	<true/>
	<key>StandardOutPath</key>
	<string>{{xml .Stdout}}</string>
	<key>StandardErrorPath</key>
	<string>{{xml .Stderr}}</string>
</dict>
</plist>
`))

func xmlEscape(s string) (string, error) {
	var buf bytes.Buffer
	if err := xml.EscapeText(&buf, []byte(s)); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// RenderPlist returns the LaunchAgent definition for binary.
func RenderPlist(label, binary, logDir string) ([]byte, error) {
	var buf bytes.Buffer
	err := plistTemplate.Execute(&buf, struct {
		Label, Binary, Stdout, Stderr string
	}{
		Label:  label,
		Binary: binary,
		Stdout: filepath.Join(logDir, "service.log"),
		Stderr: filepath.Join(logDir, "service.err"),
	})
	if err != nil {
		return nil, fmt.Errorf("render plist: %w", err)
	}
	return buf.Bytes(), nil
}

// Launchd manages a per-user LaunchAgent.
type Launchd struct {
	opts Options
	uid  int
}

// NewLaunchd creates the macOS backend for the given user id.
func NewLaunchd(opts Options, uid int) *Launchd {
	opts.defaults()
	return &Launchd{opts: opts, uid: uid}
}

func (l *Launchd) Name() string { return "launchd" }

func (l *Launchd) domain() string {
	return "gui/" + strconv.Itoa(l.uid)
}

// Install boots out any loaded agent, installs the binary, writes the plist
// and loads it.
func (l *Launchd) Install(ctx context.Context) error {
	plist := l.opts.Layout.ServiceFile
	// Not loaded yet is fine.
	_, _ = l.opts.Runner.Run(ctx, "launchctl", "bootout", l.domain(), plist)

	if err := installBinary(l.opts); err != nil {
		return err
	}
	if err := os.MkdirAll(l.opts.Layout.LogDir, 0755); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}
	content, err := RenderPlist(paths.AppLabel, l.opts.Layout.BinaryPath, l.opts.Layout.LogDir)
	if err != nil {
		return err
	}
	if err := writeDefinition(plist, content); err != nil {
		return err
	}

	if _, err := l.opts.Runner.Run(ctx, "launchctl", "load", "-w", plist); err != nil {
		return fmt.Errorf("launchd: %w", err)
	}
	l.opts.Logger.Info("service: LaunchAgent installed", "plist", plist)
	return nil
}

// Uninstall unloads the agent and removes the plist, install directory and
// logs. Missing pieces are skipped.
func (l *Launchd) Uninstall(ctx context.Context) error {
	plist := l.opts.Layout.ServiceFile
	_, _ = l.opts.Runner.Run(ctx, "launchctl", "bootout", l.domain(), plist)

	if err := removeIfExists(plist); err != nil {
		return fmt.Errorf("remove plist: %w", err)
	}
	if err := os.RemoveAll(l.opts.Layout.InstallDir); err != nil {
		return fmt.Errorf("remove install directory: %w", err)
	}
	if err := os.RemoveAll(l.opts.Layout.LogDir); err != nil {
		return fmt.Errorf("remove log directory: %w", err)
	}
	l.opts.Logger.Info("service: LaunchAgent removed")
	return nil
}

func (l *Launchd) Installed() (bool, error) {
	return exists(l.opts.Layout.ServiceFile)
}
