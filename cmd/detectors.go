/*
Copyright © 2025 Joseph Goksu josephgoksu@gmail.com
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/monmacllcapp/daily-progress-tracker-sub000/internal/ui"
)

// detectorsCmd represents the detectors command
var detectorsCmd = &cobra.Command{
	Use:   "detectors",
	Short: "List registered detectors",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		e, err := openEngine(cmd.Context())
		if err != nil {
			return err
		}
		defer func() { _ = e.Close() }()

		infos := e.Registry().Infos()
		if isJSON() {
			return printJSON(infos)
		}
		t := &ui.Table{Headers: []string{"NAME", "ENABLED", "DESCRIPTION"}, MaxWidth: 70, Plain: isPlain()}
		for _, info := range infos {
			t.Rows = append(t.Rows, []string{info.Name, fmt.Sprint(info.Enabled), info.Description})
		}
		fmt.Print(t.Render())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(detectorsCmd)
}
