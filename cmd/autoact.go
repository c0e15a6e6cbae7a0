/*
Copyright © 2025 Joseph Goksu josephgoksu@gmail.com
*/
package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/monmacllcapp/daily-progress-tracker-sub000/internal/ui"
)

// autoactCmd represents the autoact command
var autoactCmd = &cobra.Command{
	Use:   "autoact",
	Short: "Act on auto-actionable signals that policy allows",
	Long: `Evaluate every open auto-actionable signal against the Rego policies in
the policy directory and act on the allowed ones.

Policies use package anticipate.policy with deny and warn rules over
input.signal and input.context.`,
	Args: cobra.NoArgs,
	RunE: runAutoAct,
}

var autoactDryRun bool

func init() {
	rootCmd.AddCommand(autoactCmd)
	autoactCmd.Flags().BoolVar(&autoactDryRun, "dry-run", false, "evaluate without acting")
}

func runAutoAct(cmd *cobra.Command, _ []string) error {
	e, err := openEngine(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = e.Close() }()

	outcomes, err := e.AutoAct(cmd.Context(), autoactDryRun)
	if err != nil {
		return err
	}
	if isJSON() {
		return printJSON(outcomes)
	}
	if len(outcomes) == 0 {
		fmt.Println("No auto-actionable signals.")
		return nil
	}
	for _, o := range outcomes {
		status := ui.StyleSuccess.Render("allow")
		if !o.Decision.IsAllowed() {
			status = ui.StyleError.Render("deny ")
		}
		fmt.Printf("%s %s %s\n", status, ui.TruncateID(o.Signal.ID), o.Signal.Title)
		if len(o.Decision.Violations) > 0 {
			fmt.Printf("      %s\n", strings.Join(o.Decision.Violations, "; "))
		}
		for _, w := range o.Decision.Warnings {
			fmt.Printf("      %s\n", ui.StyleWarning.Render(w))
		}
	}
	return nil
}
