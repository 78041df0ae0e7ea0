package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/talgya/halfearth/internal/engine"
	"github.com/talgya/halfearth/internal/events"
	"github.com/talgya/halfearth/internal/kinds"
	"github.com/talgya/halfearth/internal/projects"
	"github.com/talgya/halfearth/internal/world"
)

const testKey = "secret"

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	st := engine.NewState(world.Generate(world.SmallTestConfig()))
	s := &Server{Runner: engine.NewRunner(st, 1), AdminKey: testKey}
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts
}

func post(t *testing.T, ts *httptest.Server, path, key, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, ts.URL+path, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	if key != "" {
		req.Header.Set("Authorization", "Bearer "+key)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return v
}

func TestStatus(t *testing.T) {
	_, ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/api/v1/status")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	status := decodeBody[map[string]any](t, resp)
	if status["year"] != float64(2022) || status["game_over"] != false {
		t.Fatalf("status = %v", status)
	}
}

func TestAuth(t *testing.T) {
	s, ts := newTestServer(t)
	if resp := post(t, ts, "/api/v1/step", "wrong", ""); resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("wrong key: status %d", resp.StatusCode)
	}
	s.AdminKey = ""
	if resp := post(t, ts, "/api/v1/step", testKey, ""); resp.StatusCode != http.StatusForbidden {
		t.Fatalf("no admin key: status %d", resp.StatusCode)
	}
}

func TestStep(t *testing.T) {
	s, ts := newTestServer(t)
	resp := post(t, ts, "/api/v1/step", testKey, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	if got := decodeBody[map[string]any](t, resp)["year"]; got != float64(2023) {
		t.Fatalf("year = %v, want 2023", got)
	}
	if s.Runner.Years() != 1 {
		t.Fatalf("runner stepped %d years", s.Runner.Years())
	}
}

func TestProjectActions(t *testing.T) {
	s, ts := newTestServer(t)

	resp := post(t, ts, "/api/v1/project/Carbon%20Tax/start", testKey, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("start: status %d", resp.StatusCode)
	}
	body := decodeBody[map[string]any](t, resp)
	if body["political_capital"] != float64(70) {
		t.Fatalf("capital = %v, want 70", body["political_capital"])
	}

	tests := []struct {
		name, path string
		want       int
	}{
		{"already active", "/api/v1/project/Carbon%20Tax/start", http.StatusConflict},
		{"unknown project", "/api/v1/project/Moon%20Base/start", http.StatusNotFound},
		{"unknown action", "/api/v1/project/Carbon%20Tax/demolish", http.StatusNotFound},
		{"locked", "/api/v1/project/Solar%20Radiation%20Management/start", http.StatusForbidden},
		{"malformed", "/api/v1/project/Carbon%20Tax", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if resp := post(t, ts, tt.path, testKey, ""); resp.StatusCode != tt.want {
				t.Fatalf("status %d, want %d", resp.StatusCode, tt.want)
			}
		})
	}

	status := s.Runner.View(func(st *engine.State) any {
		return st.Projects.Get(kinds.IdFor("Carbon Tax")).Status
	})
	if status != any(projects.StatusActive) {
		t.Fatalf("carbon tax status = %v", status)
	}
}

func TestMixChange(t *testing.T) {
	_, ts := newTestServer(t)
	if resp := post(t, ts, "/api/v1/process/Solar%20PV/mix", testKey, `{"change": 1}`); resp.StatusCode != http.StatusConflict {
		t.Fatalf("full mix: status %d", resp.StatusCode)
	}
	if resp := post(t, ts, "/api/v1/process/Coal%20Power/mix", testKey, `{"change": -2}`); resp.StatusCode != http.StatusOK {
		t.Fatalf("reduce coal: status %d", resp.StatusCode)
	}
	if resp := post(t, ts, "/api/v1/process/Coal%20Power/mix", testKey, `{`); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad json: status %d", resp.StatusCode)
	}
}

func TestEventChoice(t *testing.T) {
	s, ts := newTestServer(t)
	crisis := kinds.IdFor("Refugee Crisis")

	if resp := post(t, ts, "/api/v1/event/Refugee%20Crisis/choice", testKey, `{"choice": 0}`); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("not pending: status %d", resp.StatusCode)
	}

	var region kinds.Id
	s.Runner.Do(func(st *engine.State) error {
		region = st.Regions.All()[0].ID
		st.Pending = []events.Fired{{Event: crisis, Region: &region}}
		return nil
	})

	resp, err := http.Get(ts.URL + "/api/v1/pending")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	pending := decodeBody[[]map[string]any](t, resp)
	if len(pending) != 1 || pending[0]["name"] != "Refugee Crisis" {
		t.Fatalf("pending = %v", pending)
	}

	body := `{"choice": 0, "region": "` + region.String() + `"}`
	if resp := post(t, ts, "/api/v1/event/Refugee%20Crisis/choice", testKey, body); resp.StatusCode != http.StatusOK {
		t.Fatalf("choose: status %d", resp.StatusCode)
	}
	left := s.Runner.View(func(st *engine.State) any { return len(st.Pending) })
	if left != 0 {
		t.Fatalf("pending left = %v", left)
	}
}

func TestReportsNeedDatabase(t *testing.T) {
	_, ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/api/v1/reports")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("status %d", resp.StatusCode)
	}
}

func TestEventsFromLog(t *testing.T) {
	s, ts := newTestServer(t)
	s.Runner.Do(func(st *engine.State) error {
		st.Log = append(st.Log,
			engine.LogEntry{Year: st.Year, Description: "a", Category: "event"},
			engine.LogEntry{Year: st.Year, Description: "b", Category: "project"})
		return nil
	})
	resp, err := http.Get(ts.URL + "/api/v1/events?category=event&limit=5")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	got := decodeBody[[]engine.LogEntry](t, resp)
	if len(got) == 0 || got[0].Description != "a" {
		t.Fatalf("events = %+v", got)
	}
	for _, e := range got {
		if e.Category != "event" {
			t.Fatalf("category filter leaked %+v", e)
		}
	}
}

func TestSplitAction(t *testing.T) {
	tests := []struct {
		path, id, action string
		ok               bool
	}{
		{"/api/v1/project/x/start", "x", "start", true},
		{"/api/v1/project/x", "", "", false},
		{"/api/v1/project//start", "", "", false},
		{"/api/v1/project/x/start/now", "", "", false},
	}
	for _, tt := range tests {
		id, action, ok := splitAction(tt.path, "/api/v1/project/")
		if id != tt.id || action != tt.action || ok != tt.ok {
			t.Errorf("splitAction(%q) = %q, %q, %v", tt.path, id, action, ok)
		}
	}
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	if !rl.Allow("1.2.3.4") || !rl.Allow("1.2.3.4") {
		t.Fatal("burst should allow two requests")
	}
	if rl.Allow("1.2.3.4") {
		t.Fatal("third request should be limited")
	}
	if !rl.Allow("5.6.7.8") {
		t.Fatal("limits are per IP")
	}
	if got := rl.RetryAfter("1.2.3.4"); got < 1 {
		t.Fatalf("RetryAfter = %d", got)
	}
	rl.Cleanup(0)
	if !rl.Allow("1.2.3.4") {
		t.Fatal("cleanup should forget idle IPs")
	}
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.0.0.1:5555"
	if got := clientIP(r); got != "10.0.0.1" {
		t.Fatalf("clientIP = %q", got)
	}
	r.Header.Set("X-Forwarded-For", "9.9.9.9, 10.0.0.1")
	if got := clientIP(r); got != "9.9.9.9" {
		t.Fatalf("clientIP with proxy = %q", got)
	}
}
