package server

import (
	"github.com/monmacllcapp/daily-progress-tracker-sub000/internal/detectors/core"
	"github.com/monmacllcapp/daily-progress-tracker-sub000/internal/signal"
)

// SignalsResponse is the response for /api/signals
type SignalsResponse struct {
	Signals []signal.Signal `json:"signals"`
	Total   int             `json:"total"`
}

// CountsResponse is the response for /api/signals/counts
type CountsResponse struct {
	Active map[signal.Severity]int `json:"active"`
	Total  int                     `json:"total"`
}

// DetectorsResponse is the response for /api/detectors
type DetectorsResponse struct {
	Detectors []core.Info          `json:"detectors"`
	Metrics   core.MetricsSnapshot `json:"metrics"`
}

// ErrorResponse carries an API error message.
type ErrorResponse struct {
	Error string `json:"error"`
}
