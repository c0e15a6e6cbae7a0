/*
Copyright © 2025 Joseph Goksu josephgoksu@gmail.com
*/
package cmd

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/monmacllcapp/daily-progress-tracker-sub000/internal/mcp"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve signals to AI assistants over MCP (stdio)",
	Long: `Start a Model Context Protocol server on stdin/stdout.

Tools: list-signals, signal-counts, dismiss-signal, act-on-signal,
run-cycle, morning-brief.

Logs go to stderr so they never corrupt the protocol stream.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		e, err := openEngine(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = e.Close() }()

		return mcp.Run(ctx, e, version)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
