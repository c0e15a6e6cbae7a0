package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/monmacllcapp/daily-progress-tracker-sub000/internal/app"
	"github.com/monmacllcapp/daily-progress-tracker-sub000/internal/config"
	"github.com/monmacllcapp/daily-progress-tracker-sub000/internal/feedback"
	"github.com/monmacllcapp/daily-progress-tracker-sub000/internal/signal"
	"github.com/monmacllcapp/daily-progress-tracker-sub000/internal/store"
)

var testNow = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T) (*Server, *app.Engine) {
	t.Helper()
	cfg := config.AppConfig{
		Data:      config.DataConfig{Dir: t.TempDir(), Driver: "memory"},
		Detectors: config.DetectorsConfig{StaleTaskDays: 7},
		Feedback:  feedback.DefaultTuning(),
		Retention: config.RetentionConfig{AnalyticsDays: 90, WeightsDays: 30},
	}
	e, err := app.New(context.Background(), cfg, app.Options{
		Clock:  func() time.Time { return testNow },
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })

	srv := New(e, 0, []string{"http://localhost:5173"})
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv, e
}

func seed(t *testing.T, e *app.Engine) {
	t.Helper()
	require.NoError(t, e.Store().AddSignals(context.Background(), []signal.Signal{
		{ID: "s1", Type: signal.TypeAgingEmail, Severity: signal.SeverityUrgent, Domain: signal.DomainBusinessTech, Source: "aging", Title: "Reply to Dana", CreatedAt: testNow},
		{ID: "s2", Type: signal.TypeStreakAtRisk, Severity: signal.SeverityInfo, Domain: signal.DomainHealthFitness, Source: "streak", Title: "Run today", CreatedAt: testNow},
	}))
}

func do(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestListSignals_Filters(t *testing.T) {
	srv, e := newTestServer(t)
	seed(t, e)

	rec := do(t, srv, http.MethodGet, "/api/signals", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp SignalsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Total)

	rec = do(t, srv, http.MethodGet, "/api/signals?domain=health_fitness", "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Total)
	assert.Equal(t, "s2", resp.Signals[0].ID)

	rec = do(t, srv, http.MethodGet, "/api/signals?type=nope", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDismissAndCounts(t *testing.T) {
	srv, e := newTestServer(t)
	seed(t, e)

	rec := do(t, srv, http.MethodPost, "/api/signals/s1/dismiss", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var sig signal.Signal
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sig))
	assert.True(t, sig.IsDismissed)

	rec = do(t, srv, http.MethodGet, "/api/signals/counts", "")
	var counts CountsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &counts))
	assert.Equal(t, 0, counts.Active[signal.SeverityUrgent])
	assert.Equal(t, 1, counts.Active[signal.SeverityInfo])
	assert.Equal(t, 2, counts.Total)

	rec = do(t, srv, http.MethodPost, "/api/signals/missing/act", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRunCycle_PostedSnapshot(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := do(t, srv, http.MethodPost, "/api/cycle", `{"currentTime":"2026-03-02T09:00:00Z","tasks":[]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var res app.CycleResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.NotEmpty(t, res.ServicesRun)
	assert.Equal(t, "2026-03-02T09:00:00Z", res.Timestamp)

	rec = do(t, srv, http.MethodPost, "/api/cycle", `{bad json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, srv, http.MethodPost, "/api/cycle", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDetectorsAndHealth(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := do(t, srv, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, srv, http.MethodGet, "/api/detectors", "")
	var resp DetectorsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Detectors)
}

func TestCORS(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/signals", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/api/signals", nil)
	req.Header.Set("Origin", "http://evil.example")
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://localhost:5173/")
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "http://localhost:5173/", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestOriginPolicy(t *testing.T) {
	p := newOriginPolicy([]string{"http://localhost:5173/", "HTTPS://App.Example.com", "http://127.0.0.1:*", " "})

	tests := []struct {
		origin string
		want   bool
	}{
		{"http://localhost:5173", true},
		{"https://app.example.com", true},
		{"http://127.0.0.1:3000", true},
		{"https://127.0.0.1:3000", false},
		{"http://localhost:3000", false},
		{"http://evil.example", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.origin, func(t *testing.T) {
			assert.Equal(t, tt.want, p.allows(tt.origin))
		})
	}
	assert.ElementsMatch(t, []string{"localhost:5173", "app.example.com", "127.0.0.1:*"}, p.hostPatterns())

	anyOrigin := newOriginPolicy([]string{"*"})
	assert.True(t, anyOrigin.allows("http://evil.example"))
	assert.Equal(t, []string{"*"}, anyOrigin.hostPatterns())

	assert.False(t, newOriginPolicy(nil).allows("http://localhost:5173"))
}

func TestWebsocketStreamsChanges(t *testing.T) {
	srv, e := newTestServer(t)
	seed(t, e)

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(ts.URL, "http")+"/ws?domain=business_tech", nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "")

	require.Eventually(t, func() bool { return srv.Broker().Len() == 1 }, 2*time.Second, 10*time.Millisecond)

	_, err = e.Dismiss(ctx, "s2")
	require.NoError(t, err)
	_, err = e.ActOn(ctx, "s1")
	require.NoError(t, err)

	var change store.Change
	require.NoError(t, wsjson.Read(ctx, conn, &change))
	assert.Equal(t, store.ChangeActedOn, change.Kind)
	assert.Equal(t, "s1", change.Signal.ID)
}

func TestBroker_DropsForClosedSubscription(t *testing.T) {
	b := NewBroker()
	sub := b.Subscribe(nil)
	b.Publish(store.Change{Kind: store.ChangeAdded, Signal: signal.Signal{ID: "x"}})

	got := <-sub.Chan()
	assert.Equal(t, "x", got.Signal.ID)

	sub.Close()
	sub.Close()
	assert.Equal(t, 0, b.Len())
	b.Publish(store.Change{Kind: store.ChangeAdded})
}
