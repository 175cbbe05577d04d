package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/danieljelinko/alma-tv/internal/adapters/memorybus"
	"github.com/danieljelinko/alma-tv/internal/adapters/sqlite"
	"github.com/danieljelinko/alma-tv/internal/app"
	"github.com/rs/zerolog"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	db, err := sqlite.Open(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	bus := memorybus.New()
	t.Cleanup(bus.Close)

	episodes := sqlite.NewEpisodesRepository(db.SQL)
	history := sqlite.NewHistoryRepository(db.SQL)
	feedback := sqlite.NewFeedbackRepository(db.SQL)
	sessions := sqlite.NewSessionsRepository(db.SQL)
	requests := sqlite.NewRequestsRepository(db.SQL)

	scheduler := app.NewSchedulerService(
		zerolog.Nop(), episodes, history, feedback, sessions, requests,
		bus, app.DefaultParams(), "", "", false,
	)
	srv := NewServer(
		zerolog.Nop(),
		scheduler,
		app.NewLibraryService(episodes),
		app.NewRequestService(requests, episodes, bus, nil),
		app.NewFeedbackService(feedback, history, bus),
		app.NewPlaybackService(history, sessions),
		bus,
	)

	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts
}

func postJSON(t *testing.T, ts *httptest.Server, path string, body any) *http.Response {
	t.Helper()
	b, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	resp, err := http.Post(ts.URL+path, "application/json", bytes.NewReader(b))
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode: %v", err)
	}
}

func seedLibrary(t *testing.T, ts *httptest.Server, count int) {
	t.Helper()
	series := []string{"Bluey", "Puffin Rock", "Hilda", "Sarah & Duck"}
	for i := 0; i < count; i++ {
		resp := postJSON(t, ts, "/api/v1/episodes/", app.CreateEpisodeRequest{
			Series:          series[i%len(series)],
			Season:          1,
			EpisodeCode:     fmt.Sprintf("S01E%02d", i/len(series)+1),
			Path:            fmt.Sprintf("/media/%d/e%02d.mkv", i%len(series), i+1),
			DurationSeconds: 600,
		})
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("seed episode %d: status %d", i, resp.StatusCode)
		}
		resp.Body.Close()
	}
}

func TestGenerateEndpoint(t *testing.T) {
	ts := newTestServer(t)
	seedLibrary(t, ts, 20)

	resp := postJSON(t, ts, "/api/v1/sessions/generate", map[string]any{"date": "2026-09-01"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}
	var session app.SessionDTO
	decodeBody(t, resp, &session)
	if session.ShowDate != "2026-09-01" {
		t.Fatalf("showDate = %q", session.ShowDate)
	}
	if n := len(session.Entries); n < 3 || n > 5 {
		t.Fatalf("entries = %d, want 3..5", n)
	}

	// Same date again: the duplicate guard answers 409.
	resp = postJSON(t, ts, "/api/v1/sessions/generate", map[string]any{"date": "2026-09-01"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("duplicate status = %d, want 409", resp.StatusCode)
	}

	// Regenerate is the explicit way through.
	resp = postJSON(t, ts, "/api/v1/sessions/generate", map[string]any{"date": "2026-09-01", "regenerate": true, "seed": 7})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("regenerate status = %d, want 201", resp.StatusCode)
	}
	var regenerated app.SessionDTO
	decodeBody(t, resp, &regenerated)
	if regenerated.ID == session.ID {
		t.Fatal("regenerate reused the session ID")
	}

	// The active session for the date is the new one.
	getResp, err := http.Get(ts.URL + "/api/v1/sessions/2026-09-01")
	if err != nil {
		t.Fatalf("GET session: %v", err)
	}
	var active app.SessionDTO
	decodeBody(t, getResp, &active)
	if active.ID != regenerated.ID {
		t.Fatalf("active = %s, want %s", active.ID, regenerated.ID)
	}
}

func TestGenerateEndpointUnprocessablePool(t *testing.T) {
	ts := newTestServer(t)
	seedLibrary(t, ts, 2)

	resp := postJSON(t, ts, "/api/v1/sessions/generate", map[string]any{"date": "2026-09-01"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422 for a starved pool", resp.StatusCode)
	}
}

func TestPreviewEndpoint(t *testing.T) {
	ts := newTestServer(t)
	seedLibrary(t, ts, 20)

	resp, err := http.Get(ts.URL + "/api/v1/sessions/preview?date=2026-09-01&seed=5")
	if err != nil {
		t.Fatalf("GET preview: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var preview app.PreviewDTO
	decodeBody(t, resp, &preview)
	if preview.Seed != 5 {
		t.Fatalf("seed = %d, want explicit 5", preview.Seed)
	}
	if len(preview.Candidates) != 20 {
		t.Fatalf("candidates = %d, want 20", len(preview.Candidates))
	}
	if len(preview.Lineup) < 3 {
		t.Fatalf("lineup = %d, want >= 3", len(preview.Lineup))
	}

	// Preview persists nothing.
	getResp, err := http.Get(ts.URL + "/api/v1/sessions/2026-09-01")
	if err != nil {
		t.Fatalf("GET session: %v", err)
	}
	getResp.Body.Close()
	if getResp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404 after a dry run", getResp.StatusCode)
	}
}

func TestHealthReportsTodaySession(t *testing.T) {
	ts := newTestServer(t)
	seedLibrary(t, ts, 20)

	var health struct {
		Status       string `json:"status"`
		TodaySession string `json:"todaySession"`
	}

	resp, err := http.Get(ts.URL + "/api/v1/health")
	if err != nil {
		t.Fatalf("GET health: %v", err)
	}
	decodeBody(t, resp, &health)
	if health.Status != "ok" || health.TodaySession != "none" {
		t.Fatalf("health = %+v, want ok with no session yet", health)
	}

	today := time.Now().UTC().Format("2006-01-02")
	resp = postJSON(t, ts, "/api/v1/sessions/generate", map[string]any{"date": today})
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("generate status = %d", resp.StatusCode)
	}

	resp, err = http.Get(ts.URL + "/api/v1/health")
	if err != nil {
		t.Fatalf("GET health: %v", err)
	}
	decodeBody(t, resp, &health)
	if health.TodaySession != "planned" {
		t.Fatalf("todaySession = %q, want planned", health.TodaySession)
	}
}

func TestGenerateEndpointBadDate(t *testing.T) {
	ts := newTestServer(t)
	resp := postJSON(t, ts, "/api/v1/sessions/generate", map[string]any{"date": "01/09/2026"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}
