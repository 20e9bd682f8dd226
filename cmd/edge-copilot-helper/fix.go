package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leonletto/edge-copilot-helper/internal/fixer"
)

func fixCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fix",
		Short: "Apply the region fix once and exit",
		Long: `Apply the region fix to every Edge Local State and profile Preferences
file now. Edge overwrites these files on exit, so quit Edge first.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), logConsole)
			if err != nil {
				return err
			}
			defer a.Close()

			report, err := a.applier().Apply(cmd.Context())
			if flagJSON {
				if jsonErr := printJSON(report); jsonErr != nil {
					return jsonErr
				}
				return err
			}
			printReport(report)
			return err
		},
	}
}

func printReport(r *fixer.Report) {
	fmt.Println(r.String())
	for _, f := range r.Files {
		mark := " "
		if f.Modified {
			mark = "✓"
		}
		fmt.Printf("  %s %-11s %s\n", mark, f.Kind, f.Path)
	}
}
