package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"nhooyr.io/websocket"

	"github.com/monmacllcapp/daily-progress-tracker-sub000/internal/app"
	"github.com/monmacllcapp/daily-progress-tracker-sub000/internal/signal"
	"github.com/monmacllcapp/daily-progress-tracker-sub000/internal/snapshot"
	"github.com/monmacllcapp/daily-progress-tracker-sub000/internal/store"
)

// maxSnapshotBytes bounds POST /api/cycle bodies.
const maxSnapshotBytes = 8 << 20

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeAPIJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleListSignals returns open signals, or every signal with all=true,
// optionally filtered by domain and type.
func (s *Server) handleListSignals(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var domain signal.Domain
	if v := q.Get("domain"); v != "" {
		d, err := signal.ParseDomain(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		domain = d
	}
	var typ signal.Type
	if v := q.Get("type"); v != "" {
		t, err := signal.ParseType(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		typ = t
	}
	all, _ := strconv.ParseBool(q.Get("all"))

	st := s.engine.Store()
	source := st.Active()
	if all {
		source = st.All()
	}
	out := make([]signal.Signal, 0, len(source))
	for _, sig := range source {
		if domain != "" && sig.Domain != domain {
			continue
		}
		if typ != "" && sig.Type != typ {
			continue
		}
		out = append(out, sig)
	}
	writeAPIJSON(w, http.StatusOK, SignalsResponse{Signals: out, Total: len(out)})
}

func (s *Server) handleGetSignal(w http.ResponseWriter, r *http.Request) {
	sig, ok := s.engine.Store().Get(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, store.ErrNotFound)
		return
	}
	writeAPIJSON(w, http.StatusOK, sig)
}

func (s *Server) handleCounts(w http.ResponseWriter, r *http.Request) {
	st := s.engine.Store()
	writeAPIJSON(w, http.StatusOK, CountsResponse{Active: st.Counts(), Total: st.Len()})
}

func (s *Server) handleDismiss(w http.ResponseWriter, r *http.Request) {
	sig, err := s.engine.Dismiss(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeAPIJSON(w, http.StatusOK, sig)
}

func (s *Server) handleActOn(w http.ResponseWriter, r *http.Request) {
	sig, err := s.engine.ActOn(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeAPIJSON(w, http.StatusOK, sig)
}

// handleRunCycle runs a cycle over the posted snapshot, or over the
// configured snapshot file when the body is empty.
func (s *Server) handleRunCycle(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxSnapshotBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	var res *app.CycleResult
	if len(body) == 0 {
		res, err = s.engine.RunSnapshot(r.Context())
	} else {
		snap, derr := snapshot.Decode(body, snapshot.FormatJSON)
		if derr != nil {
			writeError(w, http.StatusBadRequest, derr)
			return
		}
		res, err = s.engine.RunCycle(r.Context(), snap)
	}
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeAPIJSON(w, http.StatusOK, res)
}

func (s *Server) handleAutoAct(w http.ResponseWriter, r *http.Request) {
	dryRun, _ := strconv.ParseBool(r.URL.Query().Get("dry_run"))
	outcomes, err := s.engine.AutoAct(r.Context(), dryRun)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeAPIJSON(w, http.StatusOK, outcomes)
}

// handleBrief builds the brief against the configured snapshot when there
// is one.
func (s *Server) handleBrief(w http.ResponseWriter, r *http.Request) {
	snap, err := s.engine.LoadSnapshot()
	if err != nil && !errors.Is(err, app.ErrNoSnapshot) {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	b, err := s.engine.Brief(r.Context(), snap)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeAPIJSON(w, http.StatusOK, b)
}

func (s *Server) handleSweep(w http.ResponseWriter, r *http.Request) {
	writeAPIJSON(w, http.StatusOK, s.engine.Sweep(r.Context()))
}

func (s *Server) handleDetectors(w http.ResponseWriter, r *http.Request) {
	writeAPIJSON(w, http.StatusOK, DetectorsResponse{
		Detectors: s.engine.Registry().Infos(),
		Metrics:   s.engine.Metrics(),
	})
}

// handleWS streams store changes, optionally limited with ?domain=.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	var domains []signal.Domain
	for _, v := range r.URL.Query()["domain"] {
		d, err := signal.ParseDomain(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		domains = append(domains, d)
	}

	// Same-host clients are always accepted; other hosts need a CORS origin.
	s.broker.ServeWS(w, r, domains, &websocket.AcceptOptions{OriginPatterns: s.origins.hostPatterns()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, app.ErrCycleInProgress):
		return http.StatusConflict
	case errors.Is(err, app.ErrNoSnapshot):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeAPIJSON(w, status, ErrorResponse{Error: err.Error()})
}

func writeAPIJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
