package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/leonletto/edge-copilot-helper/internal/config"
	"github.com/leonletto/edge-copilot-helper/internal/daemon"
	"github.com/leonletto/edge-copilot-helper/internal/history"
	"github.com/leonletto/edge-copilot-helper/internal/service"
)

type statusReport struct {
	Running   bool          `json:"running"`
	PID       int           `json:"pid,omitempty"`
	StartedAt *time.Time    `json:"started_at,omitempty"`
	Watcher   string        `json:"watcher,omitempty"`
	Service   string        `json:"service,omitempty"`
	Installed bool          `json:"installed"`
	Strategy  string        `json:"strategy"`
	Country   string        `json:"country"`
	LogDir    string        `json:"log_dir"`
	History   []historyLine `json:"history,omitempty"`
}

type historyLine struct {
	CycleID   string    `json:"cycle_id"`
	StartedAt time.Time `json:"started_at"`
	Outcome   string    `json:"outcome"`
	Files     int       `json:"files"`
	Modified  int       `json:"modified"`
	Error     string    `json:"error,omitempty"`
}

func statusCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show whether the helper is running and recent fix cycles",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(flagConfig, config.Overrides{Strategy: flagStrategy, PollInterval: flagInterval})
			if err != nil {
				return err
			}
			st := statusReport{
				Strategy: string(cfg.Strategy),
				Country:  cfg.Country,
				LogDir:   layout.LogDir,
			}

			running, info, err := daemon.CheckPIDFileJSON(layout.PIDFile)
			if err != nil {
				return fmt.Errorf("read PID file: %w", err)
			}
			st.Running = running || daemon.IsLocked(layout.LockFile)
			if running {
				st.PID = info.PID
				st.Watcher = info.Watcher
				if !info.StartedAt.IsZero() {
					st.StartedAt = &info.StartedAt
				}
			}

			if m, err := service.New(service.Options{Layout: layout}); err == nil {
				st.Service = m.Name()
				st.Installed, _ = m.Installed()
			}

			if cfg.History {
				st.History, err = recentHistory(cmd.Context(), limit)
				if err != nil {
					return err
				}
			}

			if flagJSON {
				return printJSON(st)
			}
			printStatus(st)
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 5, "Number of recent fix cycles to show")
	return cmd
}

func recentHistory(ctx context.Context, limit int) ([]historyLine, error) {
	if limit <= 0 {
		return nil, nil
	}
	// Never create the journal just to report on it.
	if ok, _ := fileExists(layout.HistoryDB); !ok {
		return nil, nil
	}
	store, err := history.Open(ctx, layout.HistoryDB)
	if err != nil {
		return nil, err
	}
	defer func() { _ = store.Close() }()

	entries, err := store.Recent(ctx, limit)
	if err != nil {
		return nil, err
	}
	lines := make([]historyLine, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, historyLine{
			CycleID:   e.CycleID,
			StartedAt: e.StartedAt,
			Outcome:   string(e.Outcome),
			Files:     e.Files,
			Modified:  e.Modified,
			Error:     e.Error,
		})
	}
	return lines, nil
}

func printStatus(st statusReport) {
	if st.Running {
		fmt.Printf("Helper:   running")
		if st.PID != 0 {
			fmt.Printf(" (PID %d, %s watcher", st.PID, st.Watcher)
			if st.StartedAt != nil {
				fmt.Printf(", up %s", time.Since(*st.StartedAt).Round(time.Second))
			}
			fmt.Print(")")
		}
		fmt.Println()
	} else {
		fmt.Println("Helper:   not running")
	}

	switch {
	case st.Service == "":
		fmt.Println("Service:  unsupported on this platform")
	case st.Installed:
		fmt.Printf("Service:  installed (%s)\n", st.Service)
	default:
		fmt.Printf("Service:  not installed (%s)\n", st.Service)
	}
	fmt.Printf("Strategy: %s\n", st.Strategy)
	fmt.Printf("Country:  %s\n", st.Country)
	fmt.Printf("Logs:     %s\n", st.LogDir)

	if len(st.History) == 0 {
		return
	}
	fmt.Println()
	fmt.Println("Recent fix cycles:")
	for _, h := range st.History {
		fmt.Printf("  %s  %-15s files=%d modified=%d",
			h.StartedAt.Local().Format("2006-01-02 15:04:05"), h.Outcome, h.Files, h.Modified)
		if h.Error != "" {
			fmt.Printf("  error: %s", h.Error)
		}
		fmt.Println()
	}
}

func fileExists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}
