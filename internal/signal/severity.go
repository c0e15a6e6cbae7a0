package signal

import (
	"fmt"
	"strings"
)

// Severity ranks how much a signal demands attention.
type Severity string

const (
	SeverityInfo      Severity = "info"
	SeverityAttention Severity = "attention"
	SeverityUrgent    Severity = "urgent"
	SeverityCritical  Severity = "critical"
)

// AllSeverities lists severities from most to least severe.
func AllSeverities() []Severity {
	return []Severity{SeverityCritical, SeverityUrgent, SeverityAttention, SeverityInfo}
}

// Rank returns the position used when picking a group representative.
// Lower is more severe; unknown severities sort last.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 0
	case SeverityUrgent:
		return 1
	case SeverityAttention:
		return 2
	case SeverityInfo:
		return 3
	default:
		return 4
	}
}

// BaseScore is the starting priority score for a signal of this severity.
func (s Severity) BaseScore() float64 {
	switch s {
	case SeverityCritical:
		return 100
	case SeverityUrgent:
		return 75
	case SeverityAttention:
		return 50
	case SeverityInfo:
		return 25
	default:
		return 0
	}
}

// Valid reports whether s is a known severity.
func (s Severity) Valid() bool {
	return s.Rank() < 4
}

// AtLeast reports whether s is as severe as other or more.
func (s Severity) AtLeast(other Severity) bool {
	return s.Rank() <= other.Rank()
}

func (s Severity) String() string {
	return string(s)
}

// MoreSevere is the comparator used for dedup: true when a strictly outranks b.
func MoreSevere(a, b Severity) bool {
	return a.Rank() < b.Rank()
}

// ParseSeverity converts user input to a Severity.
func ParseSeverity(s string) (Severity, error) {
	sev := Severity(strings.ToLower(strings.TrimSpace(s)))
	if !sev.Valid() {
		return "", fmt.Errorf("invalid severity %q (valid: critical, urgent, attention, info)", s)
	}
	return sev, nil
}
