// Package policy gates automatic actions on signals through Rego policies
// evaluated locally with OPA.
package policy

import (
	"time"

	"github.com/monmacllcapp/daily-progress-tracker-sub000/internal/signal"
)

// Decision is the outcome of evaluating one signal.
type Decision struct {
	DecisionID  string    `json:"decisionId"`
	PolicyPath  string    `json:"policyPath"`
	SignalID    string    `json:"signalId"`
	Result      string    `json:"result"`
	Violations  []string  `json:"violations,omitempty"`
	Warnings    []string  `json:"warnings,omitempty"`
	EvaluatedAt time.Time `json:"evaluatedAt"`
}

// Result constants.
const (
	ResultAllow = "allow"
	ResultDeny  = "deny"
)

// IsAllowed reports whether the action may proceed.
func (d *Decision) IsAllowed() bool {
	return d.Result == ResultAllow
}

// Input is what policies see as `input`.
type Input struct {
	Signal  signal.Signal `json:"signal"`
	Context InputContext  `json:"context"`
}

// InputContext carries facts about the moment of evaluation.
type InputContext struct {
	Now          time.Time      `json:"now"`
	Hour         int            `json:"hour"`
	ActiveCounts map[string]int `json:"active_counts,omitempty"`
}
