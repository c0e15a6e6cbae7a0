/*
Copyright © 2025 Joseph Goksu josephgoksu@gmail.com
*/
package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/monmacllcapp/daily-progress-tracker-sub000/internal/logger"
	"github.com/monmacllcapp/daily-progress-tracker-sub000/internal/ui"
)

// crashesCmd represents the crashes command
var crashesCmd = &cobra.Command{
	Use:   "crashes",
	Short: "List recorded crash logs",
	Long: `List crash logs written by previous runs, newest first.

Each entry shows the command and cycle in progress when the panic happened.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		paths, err := logger.ListCrashLogs()
		if err != nil {
			return fmt.Errorf("list crash logs: %w", err)
		}

		logs := make([]logger.CrashLog, 0, len(paths))
		names := make([]string, 0, len(paths))
		for i := len(paths) - 1; i >= 0; i-- {
			log, err := logger.ReadCrashLog(paths[i])
			if err != nil {
				LogError("read crash log", err)
				continue
			}
			logs = append(logs, log)
			names = append(names, filepath.Base(paths[i]))
		}

		if isJSON() {
			return printJSON(logs)
		}
		if len(logs) == 0 {
			fmt.Println("No crash logs.")
			return nil
		}

		t := &ui.Table{Headers: []string{"FILE", "WHEN", "COMMAND", "PANIC"}, MaxWidth: 60, Plain: isPlain()}
		for i, log := range logs {
			t.Rows = append(t.Rows, []string{
				names[i],
				log.Timestamp.Local().Format("2006-01-02 15:04"),
				log.Command,
				ui.Truncate(log.PanicValue, 60),
			})
		}
		fmt.Print(t.Render())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(crashesCmd)
}
