package ui

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/monmacllcapp/daily-progress-tracker-sub000/internal/signal"
)

func sampleSignal() signal.Signal {
	return signal.Signal{
		ID:              "0123456789abcdef",
		Type:            signal.TypeDeadlineApproaching,
		Severity:        signal.SeverityUrgent,
		Domain:          signal.DomainBusinessTech,
		Source:          "deadline",
		Title:           "Quarterly filing due tomorrow",
		Context:         "Task has been open 12 days.",
		SuggestedAction: "Block an hour this morning",
		CreatedAt:       time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
	}
}

func TestSignalTable_Plain(t *testing.T) {
	out := SignalTable([]signal.Signal{sampleSignal()}, true)

	assert.Contains(t, out, "01234567")
	assert.NotContains(t, out, "0123456789")
	assert.Contains(t, out, "urgent")
	assert.Contains(t, out, "deadline_approaching")
	assert.Contains(t, out, "Quarterly filing due tomorrow")
	assert.NotContains(t, out, "\x1b[")
}

func TestSignalTable_Empty(t *testing.T) {
	assert.Equal(t, "No signals.\n", SignalTable(nil, true))
}

func TestSignalDetail_Plain(t *testing.T) {
	out := SignalDetail(sampleSignal(), true)
	assert.Contains(t, out, "id:       0123456789abcdef")
	assert.Contains(t, out, "Task has been open 12 days.")
	assert.Contains(t, out, "suggested: Block an hour this morning")
}

func TestSeverityCounts_Plain(t *testing.T) {
	out := SeverityCounts(map[signal.Severity]int{signal.SeverityUrgent: 2}, true)
	assert.Equal(t, "critical 0  urgent 2  attention 0  info 0", out)
}
