package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/leonletto/edge-copilot-helper/internal/logging"
	"github.com/leonletto/edge-copilot-helper/internal/service"
)

func serviceManager() (service.Manager, error) {
	return service.New(service.Options{
		Layout: layout,
		Logger: logging.NewConsole(os.Stderr, logLevel()),
	})
}

func installCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "install",
		Short: "Install the helper and start it at login",
		Long: `Copy this binary into the per-user install directory and register it to
start automatically:

  Linux    systemd user unit (Restart=always)
  macOS    LaunchAgent (RunAtLoad, KeepAlive)
  Windows  HKCU\Software\Microsoft\Windows\CurrentVersion\Run

An existing installation is stopped and replaced.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := serviceManager()
			if err != nil {
				return err
			}
			if err := m.Install(cmd.Context()); err != nil {
				return fmt.Errorf("install %s service: %w", m.Name(), err)
			}
			fmt.Printf("✓ Installed %s (%s)\n", layout.BinaryPath, m.Name())
			fmt.Printf("  Logs: %s\n", layout.LogDir)
			fmt.Printf("  To remove, run: %s uninstall\n", layout.BinaryPath)
			return nil
		},
	}
}

func uninstallCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "uninstall",
		Short: "Stop the helper and remove the installation",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := serviceManager()
			if err != nil {
				return err
			}
			if err := m.Uninstall(cmd.Context()); err != nil {
				return fmt.Errorf("uninstall %s service: %w", m.Name(), err)
			}
			fmt.Println("✓ Uninstalled")
			return nil
		},
	}
}
