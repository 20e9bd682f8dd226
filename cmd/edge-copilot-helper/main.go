package main

import (
	"encoding/json"
	"fmt"
	"os"
	goruntime "runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/leonletto/edge-copilot-helper/internal/paths"
)

var (
	// Build info (set via ldflags).
	Version = "dev"
	Build   = "unknown"
)

var (
	// Global flags.
	flagConfig   string
	flagStrategy string
	flagInterval time.Duration
	flagJSON     bool
	flagVerbose  bool

	layout paths.Layout
)

func main() {
	rootCmd := &cobra.Command{
		Use:   paths.BinaryName,
		Short: "Keep Microsoft Edge Copilot available outside supported regions",
		Long: `edge-copilot-helper watches for Microsoft Edge to exit and then rewrites
Edge's Local State and profile Preferences so Copilot is offered:

  Local State             variations_country = "US"
  <Profile>/Preferences   browser.chat_ip_eligibility_status = true

The fix is idempotent; files that are already correct are never rewritten.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file (default <install dir>/config.json)")
	rootCmd.PersistentFlags().StringVar(&flagStrategy, "strategy", "", "Watch strategy: auto, notify or poll (or EDGE_HELPER_STRATEGY)")
	rootCmd.PersistentFlags().DurationVar(&flagInterval, "interval", 0, "Poll interval (or EDGE_HELPER_POLL_INTERVAL)")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "JSON output for scripting")
	rootCmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "Debug output")

	rootCmd.Version = Version
	rootCmd.SetVersionTemplate(versionLine() + "\n")

	// The home directory is required by every command; failing to resolve it
	// is fatal.
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		l, err := paths.Default()
		if err != nil {
			return err
		}
		layout = l
		if flagConfig == "" {
			flagConfig = layout.ConfigFile
		}
		return nil
	}

	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(daemonCmd())
	rootCmd.AddCommand(installCmd())
	rootCmd.AddCommand(uninstallCmd())
	rootCmd.AddCommand(fixCmd())
	rootCmd.AddCommand(statusCmd())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func versionLine() string {
	return fmt.Sprintf("%s v%s (build: %s, %s)", paths.BinaryName, Version, Build, goruntime.Version())
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		RunE: func(cmd *cobra.Command, args []string) error {
			if flagJSON {
				return printJSON(map[string]string{
					"version":    Version,
					"build":      Build,
					"go_version": goruntime.Version(),
					"platform":   goruntime.GOOS + "/" + goruntime.GOARCH,
				})
			}
			fmt.Println(versionLine())
			return nil
		},
	}
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
