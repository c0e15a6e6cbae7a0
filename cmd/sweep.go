/*
Copyright © 2025 Joseph Goksu josephgoksu@gmail.com
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/monmacllcapp/daily-progress-tracker-sub000/internal/ui"
)

// sweepCmd represents the sweep command
var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Purge expired signals, old analytics and stale weights",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		e, err := openEngine(cmd.Context())
		if err != nil {
			return err
		}
		defer func() { _ = e.Close() }()

		report := e.Sweep(cmd.Context())
		if isJSON() {
			return printJSON(report)
		}
		for _, r := range report.Results {
			if r.Error != "" {
				fmt.Printf("%-18s %s\n", r.Task, ui.StyleError.Render(r.Error))
				continue
			}
			fmt.Printf("%-18s %d purged\n", r.Task, r.Purged)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sweepCmd)
}
