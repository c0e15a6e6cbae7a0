package mcp

import (
	"fmt"
	"strings"

	"github.com/monmacllcapp/daily-progress-tracker-sub000/internal/app"
	"github.com/monmacllcapp/daily-progress-tracker-sub000/internal/priority"
	"github.com/monmacllcapp/daily-progress-tracker-sub000/internal/signal"
)

// FormatError returns a Markdown error block.
func FormatError(message string) string {
	return fmt.Sprintf("## Error\n\n**Details**: %s", message)
}

// FormatValidationError returns a Markdown error for invalid arguments.
func FormatValidationError(field, message string) string {
	return fmt.Sprintf("## Validation Error\n\n**Field**: `%s`\n**Details**: %s", field, message)
}

// FormatSignals renders scored signals as a Markdown list, highest first.
func FormatSignals(scored []priority.Scored, total int) string {
	if len(scored) == 0 {
		return "No open signals."
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "## Signals (%d of %d)\n\n", len(scored), total)
	for _, s := range scored {
		writeSignal(&sb, s.Signal)
		fmt.Fprintf(&sb, "  - score: %.1f\n", s.Score.Total)
	}
	return sb.String()
}

// FormatSignal renders one signal after a state change.
func FormatSignal(verb string, s signal.Signal) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s:\n\n", verb)
	writeSignal(&sb, s)
	return sb.String()
}

func writeSignal(sb *strings.Builder, s signal.Signal) {
	fmt.Fprintf(sb, "- **[%s]** %s (`%s`)\n", s.Severity, s.Title, s.ID)
	fmt.Fprintf(sb, "  - %s / %s\n", s.Domain.Label(), s.Type)
	if s.Context != "" {
		fmt.Fprintf(sb, "  - %s\n", s.Context)
	}
	if s.SuggestedAction != "" {
		fmt.Fprintf(sb, "  - suggested: %s\n", s.SuggestedAction)
	}
}

// FormatCounts renders active counts per severity.
func FormatCounts(counts map[signal.Severity]int) string {
	var sb strings.Builder
	sb.WriteString("## Active signals\n\n")
	for _, sev := range signal.AllSeverities() {
		fmt.Fprintf(&sb, "- %s: %d\n", sev, counts[sev])
	}
	return sb.String()
}

// FormatCycle summarizes a cycle result.
func FormatCycle(res *app.CycleResult) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "## Cycle %s\n\n", res.CycleID)
	fmt.Fprintf(&sb, "- detectors run: %d\n", len(res.ServicesRun))
	fmt.Fprintf(&sb, "- raw signals: %d\n", len(res.Signals))
	fmt.Fprintf(&sb, "- prioritized: %d\n", len(res.PrioritizedSignals))
	fmt.Fprintf(&sb, "- new: %d\n", len(res.Committed))
	fmt.Fprintf(&sb, "- duration: %dms\n", res.RunDuration)
	for _, run := range res.Diagnostics {
		if run.Failed() {
			fmt.Fprintf(&sb, "- failed: %s (%s)\n", run.Name, run.Err)
		}
	}
	if len(res.Committed) > 0 {
		sb.WriteString("\n### New signals\n\n")
		for _, s := range res.Committed {
			writeSignal(&sb, s)
		}
	}
	return sb.String()
}
