/*
Copyright © 2025 Joseph Goksu josephgoksu@gmail.com
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/monmacllcapp/daily-progress-tracker-sub000/internal/app"
	"github.com/monmacllcapp/daily-progress-tracker-sub000/internal/signal"
	"github.com/monmacllcapp/daily-progress-tracker-sub000/internal/snapshot"
	"github.com/monmacllcapp/daily-progress-tracker-sub000/internal/ui"
)

// signalsCmd groups signal commands
var signalsCmd = &cobra.Command{
	Use:     "signals",
	Aliases: []string{"sig"},
	Short:   "List and respond to signals",
}

var signalsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List open signals in priority order",
	Long: `List open signals in priority order.

Examples:
  anticipate signals list
  anticipate signals list --domain business_re
  anticipate signals list --all --json`,
	Args: cobra.NoArgs,
	RunE: runSignalsList,
}

var signalsShowCmd = &cobra.Command{
	Use:   "show <ref>",
	Short: "Show one signal",
	Long:  "Show one signal. <ref> is an id, an id prefix, or part of the title.",
	Args:  cobra.ExactArgs(1),
	RunE:  runSignalsShow,
}

var signalsDismissCmd = &cobra.Command{
	Use:   "dismiss <ref>",
	Short: "Dismiss a signal",
	Long:  "Dismiss a signal. Frequent dismissals lower the rank of similar signals.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return respondToSignal(cmd, args[0], "Dismissed", func(e *app.Engine, id string) (signal.Signal, error) {
			return e.Dismiss(cmd.Context(), id)
		})
	},
}

var signalsActCmd = &cobra.Command{
	Use:   "act <ref>",
	Short: "Mark a signal as acted on",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return respondToSignal(cmd, args[0], "Acted on", func(e *app.Engine, id string) (signal.Signal, error) {
			return e.ActOn(cmd.Context(), id)
		})
	},
}

var signalsCountsCmd = &cobra.Command{
	Use:   "counts",
	Short: "Count active signals per severity",
	Args:  cobra.NoArgs,
	RunE:  runSignalsCounts,
}

var (
	listDomain string
	listType   string
	listAll    bool
)

func init() {
	rootCmd.AddCommand(signalsCmd)
	signalsCmd.AddCommand(signalsListCmd, signalsShowCmd, signalsDismissCmd, signalsActCmd, signalsCountsCmd)

	signalsListCmd.Flags().StringVar(&listDomain, "domain", "", "only this domain")
	signalsListCmd.Flags().StringVar(&listType, "type", "", "only this signal type")
	signalsListCmd.Flags().BoolVar(&listAll, "all", false, "include dismissed and acted-on signals")
}

// filterSignals applies the --domain and --type flags.
func filterSignals(sigs []signal.Signal, domain, typ string) ([]signal.Signal, error) {
	var d signal.Domain
	if domain != "" {
		parsed, err := signal.ParseDomain(domain)
		if err != nil {
			return nil, err
		}
		d = parsed
	}
	var t signal.Type
	if typ != "" {
		parsed, err := signal.ParseType(typ)
		if err != nil {
			return nil, err
		}
		t = parsed
	}

	out := make([]signal.Signal, 0, len(sigs))
	for _, s := range sigs {
		if d != "" && s.Domain != d {
			continue
		}
		if t != "" && s.Type != t {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

// currentSnapshot returns the configured snapshot, or nil without one.
func currentSnapshot(e *app.Engine) *snapshot.Context {
	snap, err := e.LoadSnapshot()
	if err != nil {
		LogError("snapshot unavailable, ranking without it", err)
		return nil
	}
	return snap
}

func runSignalsList(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	e, err := openEngine(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = e.Close() }()

	scored, err := e.Prioritized(ctx, currentSnapshot(e))
	if err != nil {
		return err
	}
	sigs := make([]signal.Signal, 0, len(scored))
	for _, s := range scored {
		sigs = append(sigs, s.Signal)
	}
	if listAll {
		for _, s := range e.Store().All() {
			if !s.IsActive() {
				sigs = append(sigs, s)
			}
		}
	}

	sigs, err = filterSignals(sigs, listDomain, listType)
	if err != nil {
		return err
	}
	if isJSON() {
		return printJSON(sigs)
	}
	fmt.Print(ui.SignalTable(sigs, isPlain()))
	return nil
}

func runSignalsShow(cmd *cobra.Command, args []string) error {
	e, err := openEngine(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = e.Close() }()

	s, err := e.ResolveSignal(args[0])
	if err != nil {
		return err
	}
	if isJSON() {
		return printJSON(s)
	}
	fmt.Print(ui.SignalDetail(s, isPlain()))
	return nil
}

func respondToSignal(cmd *cobra.Command, ref, verb string, fn func(*app.Engine, string) (signal.Signal, error)) error {
	e, err := openEngine(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = e.Close() }()

	target, err := e.ResolveSignal(ref)
	if err != nil {
		return err
	}
	s, err := fn(e, target.ID)
	if err != nil {
		return err
	}
	if isJSON() {
		return printJSON(s)
	}
	fmt.Printf("%s %s %s\n", ui.StyleSuccess.Render(verb), ui.TruncateID(s.ID), s.Title)
	return nil
}

func runSignalsCounts(cmd *cobra.Command, _ []string) error {
	e, err := openEngine(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = e.Close() }()

	counts := e.Store().Counts()
	if isJSON() {
		return printJSON(counts)
	}
	fmt.Println(ui.SeverityCounts(counts, isPlain()))
	return nil
}
