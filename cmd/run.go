/*
Copyright © 2025 Joseph Goksu josephgoksu@gmail.com
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/monmacllcapp/daily-progress-tracker-sub000/internal/app"
	"github.com/monmacllcapp/daily-progress-tracker-sub000/internal/ui"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one anticipation cycle over the snapshot",
	Long: `Run every enabled detector over the snapshot, prioritize the results,
and store the signals that are not already open.

Examples:
  anticipate run --snapshot today.yaml
  anticipate run --json`,
	Args: cobra.NoArgs,
	RunE: runCycle,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runCycle(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	e, err := openEngine(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = e.Close() }()

	progress("Running detectors...")
	res, err := e.RunSnapshot(ctx)
	if err != nil {
		return err
	}

	if isJSON() {
		return printJSON(res)
	}
	printCycle(res)
	return nil
}

func printCycle(res *app.CycleResult) {
	fmt.Printf("%d detectors, %d raw signals, %d after dedup, %d new (%dms)\n",
		len(res.ServicesRun), len(res.Signals), len(res.PrioritizedSignals), len(res.Committed), res.RunDuration)
	for _, run := range res.Diagnostics {
		if run.Failed() {
			fmt.Println(ui.StyleWarning.Render(fmt.Sprintf("  detector %s failed: %s", run.Name, run.Err)))
		}
	}
	if len(res.Committed) > 0 {
		fmt.Println()
		fmt.Print(ui.SignalTable(res.Committed, isPlain()))
	}
}
