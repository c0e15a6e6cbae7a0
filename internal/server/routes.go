package server

import "net/http"

// registerRoutes sets up all API endpoints
func (s *Server) registerRoutes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)

	// Signals
	mux.HandleFunc("GET /api/signals", s.handleListSignals)
	mux.HandleFunc("GET /api/signals/counts", s.handleCounts)
	mux.HandleFunc("GET /api/signals/{id}", s.handleGetSignal)
	mux.HandleFunc("POST /api/signals/{id}/dismiss", s.handleDismiss)
	mux.HandleFunc("POST /api/signals/{id}/act", s.handleActOn)

	// Engine operations
	mux.HandleFunc("POST /api/cycle", s.handleRunCycle)
	mux.HandleFunc("POST /api/autoact", s.handleAutoAct)
	mux.HandleFunc("GET /api/brief", s.handleBrief)
	mux.HandleFunc("POST /api/sweep", s.handleSweep)
	mux.HandleFunc("GET /api/detectors", s.handleDetectors)

	mux.HandleFunc("GET /ws", s.handleWS)

	return s.corsMiddleware(mux)
}
