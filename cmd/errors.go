package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/viper"

	"github.com/monmacllcapp/daily-progress-tracker-sub000/internal/app"
	"github.com/monmacllcapp/daily-progress-tracker-sub000/internal/store"
)

// PrintError prints an error message without exiting. With --verbose the
// technical error is printed instead of the user-facing message.
func PrintError(userMsg string, technicalErr error) {
	if viper.GetBool("verbose") && technicalErr != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", technicalErr)
	} else {
		fmt.Fprintln(os.Stderr, userMsg)
	}
}

// LogError prints debug detail in verbose mode only.
func LogError(msg string, err error) {
	if viper.GetBool("verbose") {
		if err != nil {
			fmt.Fprintf(os.Stderr, "[DEBUG] %s: %v\n", msg, err)
		} else {
			fmt.Fprintf(os.Stderr, "[DEBUG] %s\n", msg)
		}
	}
}

// userMessage maps known errors to short explanations.
func userMessage(err error) string {
	switch {
	case errors.Is(err, app.ErrNoSnapshot):
		return "No snapshot configured. Pass --snapshot <file> or set snapshot.path in .anticipate.yaml."
	case errors.Is(err, app.ErrCycleInProgress):
		return "Another anticipation cycle is running. Try again in a moment."
	case errors.Is(err, app.ErrAmbiguousRef):
		return fmt.Sprintf("%v. Use more of the signal id.", err)
	case errors.Is(err, store.ErrNotFound):
		return "Signal not found."
	default:
		return fmt.Sprintf("Error: %v", err)
	}
}
