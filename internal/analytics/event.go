// Package analytics records what happened to signals over time: cycles run,
// signals dismissed or acted on, auto-actions and retention sweeps.
package analytics

import (
	"time"

	"github.com/google/uuid"

	"github.com/monmacllcapp/daily-progress-tracker-sub000/internal/signal"
)

// Event names.
const (
	EventCycleCompleted  = "cycle_completed"
	EventSignalDismissed = "signal_dismissed"
	EventSignalActedOn   = "signal_acted_on"
	EventAutoAction      = "signal_auto_actioned"
	EventAutoActionDeny  = "signal_auto_action_denied"
	EventSweepCompleted  = "sweep_completed"
)

// Properties is a free-form property bag.
type Properties = map[string]any

// Event is one recorded analytics event.
type Event struct {
	ID         string        `json:"id"`
	Name       string        `json:"name"`
	SignalID   string        `json:"signal_id,omitempty"`
	SignalType signal.Type   `json:"signal_type,omitempty"`
	Domain     signal.Domain `json:"domain,omitempty"`
	Properties Properties    `json:"properties,omitempty"`
	CreatedAt  time.Time     `json:"created_at"`
}

// NewEvent creates an event stamped at now.
func NewEvent(name string, props Properties, now time.Time) Event {
	return Event{
		ID:         uuid.NewString(),
		Name:       name,
		Properties: props,
		CreatedAt:  now,
	}
}

// ForSignal creates an event about one signal.
func ForSignal(name string, s signal.Signal, props Properties, now time.Time) Event {
	e := NewEvent(name, props, now)
	e.SignalID = s.ID
	e.SignalType = s.Type
	e.Domain = s.Domain
	return e
}
