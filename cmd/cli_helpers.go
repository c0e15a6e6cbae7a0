package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/viper"

	"github.com/monmacllcapp/daily-progress-tracker-sub000/internal/app"
	"github.com/monmacllcapp/daily-progress-tracker-sub000/internal/ui"
)

func isJSON() bool {
	return viper.GetBool("json")
}

func isQuiet() bool {
	return viper.GetBool("quiet")
}

func isVerbose() bool {
	return viper.GetBool("verbose")
}

// isPlain reports whether output should carry no ANSI styling.
func isPlain() bool {
	return !ui.IsInteractive()
}

func printJSON(v any) error {
	output, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(output))
	return nil
}

// progress prints a status line to stderr unless quiet or JSON output is on.
func progress(format string, args ...any) {
	if isQuiet() || isJSON() {
		return
	}
	fmt.Fprintf(os.Stderr, format+"\n", args...)
}

func openEngine(ctx context.Context) (*app.Engine, error) {
	e, err := app.New(ctx, appConfig, app.Options{Version: version})
	if err != nil {
		return nil, fmt.Errorf("open engine: %w", err)
	}
	return e, nil
}
