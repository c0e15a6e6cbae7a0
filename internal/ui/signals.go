package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/monmacllcapp/daily-progress-tracker-sub000/internal/signal"
)

// SignalTable renders signals one per row. Plain output carries no ANSI codes.
func SignalTable(sigs []signal.Signal, plain bool) string {
	if len(sigs) == 0 {
		return "No signals.\n"
	}
	t := &Table{
		Headers:  []string{"ID", "SEVERITY", "DOMAIN", "TYPE", "TITLE"},
		MaxWidth: 60,
		Plain:    plain,
	}
	for _, s := range sigs {
		t.Rows = append(t.Rows, []string{
			TruncateID(s.ID),
			SeverityIcon(s.Severity) + string(s.Severity),
			string(s.Domain),
			string(s.Type),
			s.Title,
		})
		st := SeverityStyle(s.Severity)
		t.Styles = append(t.Styles, &st)
	}
	return t.Render()
}

// SignalDetail renders one signal with its context and suggested action.
func SignalDetail(s signal.Signal, plain bool) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s\n", s.Title)
	fmt.Fprintf(&sb, "id:       %s\n", s.ID)
	fmt.Fprintf(&sb, "severity: %s\n", s.Severity)
	fmt.Fprintf(&sb, "domain:   %s (%s)\n", s.Domain.Label(), s.Type)
	fmt.Fprintf(&sb, "created:  %s\n", s.CreatedAt.Local().Format(time.RFC1123))
	if s.Context != "" {
		fmt.Fprintf(&sb, "\n%s\n", s.Context)
	}
	if s.SuggestedAction != "" {
		fmt.Fprintf(&sb, "\nsuggested: %s\n", s.SuggestedAction)
	}
	out := strings.TrimRight(sb.String(), "\n")
	if plain {
		return out + "\n"
	}
	return NewPanel("", out).WithBorderColor(borderFor(s.Severity)).Render() + "\n"
}

// SeverityCounts renders counts in severity order, e.g. "critical 1  urgent 0".
func SeverityCounts(counts map[signal.Severity]int, plain bool) string {
	parts := make([]string, 0, len(counts))
	for _, sev := range signal.AllSeverities() {
		p := fmt.Sprintf("%s %d", sev, counts[sev])
		if !plain {
			p = SeverityStyle(sev).Render(p)
		}
		parts = append(parts, p)
	}
	return strings.Join(parts, "  ")
}

func borderFor(s signal.Severity) lipgloss.Color {
	switch s {
	case signal.SeverityCritical:
		return ColorError
	case signal.SeverityUrgent:
		return ColorWarning
	default:
		return ColorSecondary
	}
}
