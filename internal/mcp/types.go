// Package mcp exposes the engine as Model Context Protocol tools.
package mcp

// ListSignalsParams are the arguments of the list-signals tool.
type ListSignalsParams struct {
	// Domain limits results to one life domain, e.g. "business_tech".
	Domain string `json:"domain,omitempty"`
	// Type limits results to one signal type, e.g. "deadline_approaching".
	Type string `json:"type,omitempty"`
	// All includes dismissed and acted-on signals.
	All bool `json:"all,omitempty"`
	// Limit caps the number of signals returned. Zero means 20.
	Limit int `json:"limit,omitempty"`
}

// SignalRefParams identify one signal by id, id prefix, or title.
type SignalRefParams struct {
	Ref string `json:"ref"`
}

// RunCycleParams are the arguments of the run-cycle tool.
type RunCycleParams struct {
	// Snapshot is an inline snapshot. When absent the configured snapshot
	// file is used.
	Snapshot map[string]any `json:"snapshot,omitempty"`
}

// EmptyParams is used by tools without arguments.
type EmptyParams struct{}

// DefaultListLimit caps list-signals output.
const DefaultListLimit = 20
