/*
Copyright © 2025 Joseph Goksu josephgoksu@gmail.com
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/monmacllcapp/daily-progress-tracker-sub000/internal/brief"
	"github.com/monmacllcapp/daily-progress-tracker-sub000/internal/ui"
)

// briefCmd represents the brief command
var briefCmd = &cobra.Command{
	Use:   "brief",
	Short: "Print the morning brief",
	Long: `Print today's brief: urgent and attention signals, and digests of your
portfolio, yesterday's activity, today's calendar and the family calendar.`,
	Args: cobra.NoArgs,
	RunE: runBrief,
}

func init() {
	rootCmd.AddCommand(briefCmd)
}

func runBrief(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	e, err := openEngine(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = e.Close() }()

	b, err := e.Brief(ctx, currentSnapshot(e))
	if err != nil {
		return err
	}
	if isJSON() {
		return printJSON(b)
	}
	if isPlain() {
		fmt.Print(brief.Format(b))
		return nil
	}
	fmt.Println(ui.NewPanel("Morning brief "+b.Date, brief.Format(b)).Render())
	return nil
}
