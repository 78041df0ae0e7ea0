// Package api provides the HTTP API for observing and steering a run.
// GET endpoints are public (read-only observation).
// POST endpoints require a bearer token (the player's control plane).
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/talgya/halfearth/internal/engine"
	"github.com/talgya/halfearth/internal/kinds"
	"github.com/talgya/halfearth/internal/persistence"
)

var (
	errNotFound = errors.New("not found")
	errGameOver = errors.New("the run has ended")
)

// Server serves a running simulation over HTTP.
type Server struct {
	Runner   *engine.Runner
	DB       *persistence.DB // optional
	RunID    string
	Hub      *Hub // optional
	Port     int
	AdminKey string // Bearer token for POST endpoints. Empty = POST disabled.

	limiter *RateLimiter
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	if s.limiter == nil {
		s.limiter = NewRateLimiter(60, time.Minute)
	}
	admin := func(h http.HandlerFunc) http.HandlerFunc {
		return RateLimitMiddleware(s.limiter, s.adminOnly(h))
	}

	mux := http.NewServeMux()

	// Public endpoints.
	mux.HandleFunc("/api/v1/status", s.handleStatus)
	mux.HandleFunc("/api/v1/state", s.handleState)
	mux.HandleFunc("/api/v1/regions", s.handleRegions)
	mux.HandleFunc("/api/v1/processes", s.handleProcesses)
	mux.HandleFunc("/api/v1/projects", s.handleProjects)
	mux.HandleFunc("/api/v1/npcs", s.handleNPCs)
	mux.HandleFunc("/api/v1/requests", s.handleRequests)
	mux.HandleFunc("/api/v1/pending", s.handlePending)
	mux.HandleFunc("/api/v1/events", s.handleEvents)
	mux.HandleFunc("/api/v1/reports", s.handleReports)
	if s.Hub != nil {
		mux.HandleFunc("/api/v1/ws", s.Hub.ServeWS)
	}

	// Player endpoints (POST, require bearer token).
	mux.HandleFunc("/api/v1/speed", admin(s.handleSpeed))
	mux.HandleFunc("/api/v1/step", admin(s.handleStep))
	mux.HandleFunc("/api/v1/snapshot", admin(s.handleSnapshot))
	mux.HandleFunc("/api/v1/project/", admin(s.handleProjectAction))
	mux.HandleFunc("/api/v1/process/", admin(s.handleProcessAction))
	mux.HandleFunc("/api/v1/event/", admin(s.handleEventChoice))

	return corsMiddleware(mux)
}

// Start serves the API until ctx is cancelled.
func (s *Server) Start(ctx context.Context) {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	slog.Info("HTTP API starting", "addr", srv.Addr, "admin_auth", s.AdminKey != "")

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "error", err)
		}
	}()
	go func() {
		t := time.NewTicker(10 * time.Minute)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				srv.Shutdown(shutdownCtx)
				return
			case <-t.C:
				s.limiter.Cleanup(time.Hour)
			}
		}
	}()
}

// corsMiddleware adds CORS headers for allowed frontend origins.
// Set CORS_ORIGINS to a comma-separated list of extra allowed origins.
func corsMiddleware(next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:3000": true,
	}
	if env := os.Getenv("CORS_ORIGINS"); env != "" {
		for _, origin := range strings.Split(env, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				allowedOrigins[origin] = true
			}
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// checkBearerToken returns true if the request has a valid admin bearer token.
func (s *Server) checkBearerToken(r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	return strings.HasPrefix(auth, "Bearer ") && strings.TrimPrefix(auth, "Bearer ") == s.AdminKey
}

// adminOnly wraps a handler to require bearer token auth on POST requests.
// GET requests pass through (for endpoints that support both GET and POST).
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			if s.AdminKey == "" {
				http.Error(w, "player endpoints disabled (no ADMIN_KEY set)", http.StatusForbidden)
				return
			}
			if !s.checkBearerToken(r) {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
		}
		next(w, r)
	}
}

// viewJSON encodes the result of fn while the state is locked, so no
// step can interleave with the encoding.
func (s *Server) viewJSON(w http.ResponseWriter, fn func(st *engine.State) any) {
	out := s.Runner.View(func(st *engine.State) any {
		data, err := json.MarshalIndent(fn(st), "", "  ")
		if err != nil {
			return err
		}
		return data
	})
	if err, ok := out.(error); ok {
		slog.Error("encode response failed", "error", err)
		http.Error(w, "encode failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(out.([]byte))
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	speed := s.Runner.CurrentSpeed()
	s.viewJSON(w, func(st *engine.State) any {
		return map[string]any{
			"name":              "Half-Earth",
			"run_id":            s.RunID,
			"year":              st.Year,
			"death_year":        st.DeathYear,
			"game_over":         st.GameOver,
			"planning":          st.IsPlanningYear(),
			"speed":             speed,
			"population":        st.Population(),
			"outlook":           st.Outlook(),
			"temperature":       st.Temperature,
			"emissions":         st.Emissions.CO2eq(),
			"extinction_rate":   st.ExtinctionRate,
			"political_capital": st.PoliticalCapital,
			"research_points":   st.ResearchPoints,
			"flags":             st.Flags,
			"pending":           len(st.Pending),
		}
	})
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	s.viewJSON(w, func(st *engine.State) any { return st })
}

func (s *Server) handleRegions(w http.ResponseWriter, r *http.Request) {
	s.viewJSON(w, func(st *engine.State) any { return st.Regions.All() })
}

func (s *Server) handleProcesses(w http.ResponseWriter, r *http.Request) {
	s.viewJSON(w, func(st *engine.State) any { return st.Processes.All() })
}

// handleProjects lists projects, optionally filtered by ?status= or ?kind=.
func (s *Server) handleProjects(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	kind := r.URL.Query().Get("kind")
	s.viewJSON(w, func(st *engine.State) any {
		var out []any
		for _, p := range st.Projects.All() {
			if status != "" && string(p.Status) != status {
				continue
			}
			if kind != "" && string(p.Kind) != kind {
				continue
			}
			out = append(out, p)
		}
		return out
	})
}

func (s *Server) handleNPCs(w http.ResponseWriter, r *http.Request) {
	s.viewJSON(w, func(st *engine.State) any { return st.NPCs.All() })
}

func (s *Server) handleRequests(w http.ResponseWriter, r *http.Request) {
	s.viewJSON(w, func(st *engine.State) any { return st.Requests })
}

func (s *Server) handlePending(w http.ResponseWriter, r *http.Request) {
	type choice struct {
		Index     int    `json:"index"`
		Label     string `json:"label"`
		Available bool   `json:"available"`
	}
	type pending struct {
		Event   kinds.Id  `json:"event"`
		Name    string    `json:"name"`
		Region  *kinds.Id `json:"region,omitempty"`
		Choices []choice  `json:"choices"`
	}
	s.viewJSON(w, func(st *engine.State) any {
		out := make([]pending, 0, len(st.Pending))
		for _, f := range st.Pending {
			ev := st.Events.Events.Get(f.Event)
			p := pending{Event: f.Event, Name: ev.Name, Region: f.Region}
			for i, c := range ev.Choices {
				p.Choices = append(p.Choices, choice{Index: i, Label: c.Label, Available: st.Holds(c.Conditions, f.Region)})
			}
			out = append(out, p)
		}
		return out
	})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}
	category := r.URL.Query().Get("category")

	if s.DB != nil && s.RunID != "" && category == "" {
		entries, err := s.DB.RecentEvents(r.Context(), s.RunID, limit)
		if err != nil {
			slog.Error("load events failed", "error", err)
			http.Error(w, "load failed", http.StatusInternalServerError)
			return
		}
		writeJSON(w, entries)
		return
	}

	s.viewJSON(w, func(st *engine.State) any {
		var out []engine.LogEntry
		for i := len(st.Log) - 1; i >= 0 && len(out) < limit; i-- {
			if category == "" || st.Log[i].Category == category {
				out = append(out, st.Log[i])
			}
		}
		return out
	})
}

func (s *Server) handleReports(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil || s.RunID == "" {
		http.Error(w, "database not available", http.StatusServiceUnavailable)
		return
	}
	reports, err := s.DB.Reports(r.Context(), s.RunID)
	if err != nil {
		slog.Error("load reports failed", "error", err)
		http.Error(w, "load failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, reports)
}

func (s *Server) handleSpeed(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodPost {
		var req struct {
			Speed float64 `json:"speed"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if req.Speed < 0 || req.Speed > 100 {
			http.Error(w, "speed must be 0-100", http.StatusBadRequest)
			return
		}
		s.Runner.SetSpeed(req.Speed)
		slog.Info("speed changed", "speed", req.Speed)
	}
	writeJSON(w, map[string]float64{"speed": s.Runner.CurrentSpeed()})
}

// handleStep advances one year on demand, for paused or turn-based play.
func (s *Server) handleStep(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	over := s.Runner.View(func(st *engine.State) any { return st.GameOver }).(bool)
	if over {
		writeError(w, errGameOver)
		return
	}
	s.Runner.StepOnce()
	s.handleStatus(w, r)
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.DB == nil || s.RunID == "" {
		http.Error(w, "database not available", http.StatusServiceUnavailable)
		return
	}
	var year int
	err := s.Runner.Do(func(st *engine.State) error {
		year = st.Year
		return s.DB.SaveSnapshot(r.Context(), s.RunID, st)
	})
	if err != nil {
		slog.Error("snapshot save failed", "error", err)
		http.Error(w, "snapshot failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]any{"year": year, "message": "snapshot saved"})
}

// handleProjectAction serves POST /api/v1/project/{id}/{start|stop|upgrade|downgrade|points}.
// The id may be a UUID or a project name.
func (s *Server) handleProjectAction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	ref, action, ok := splitAction(r.URL.Path, "/api/v1/project/")
	if !ok {
		http.Error(w, "want /api/v1/project/{id}/{action}", http.StatusBadRequest)
		return
	}
	id := kinds.ParseId(ref)

	var req struct {
		Points int `json:"points"`
	}
	if action == "points" {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
	}

	var result any
	err := s.Runner.Do(func(st *engine.State) error {
		if st.GameOver {
			return errGameOver
		}
		p, ok := st.Projects.TryGet(id)
		if !ok {
			return fmt.Errorf("project %s: %w", ref, errNotFound)
		}
		var err error
		switch action {
		case "start":
			err = st.StartProject(id)
		case "stop":
			err = st.StopProject(id)
		case "upgrade":
			err = st.UpgradeProject(id)
		case "downgrade":
			err = st.DowngradeProject(id)
		case "points":
			err = st.SetProjectPoints(id, req.Points)
		default:
			return fmt.Errorf("action %q: %w", action, errNotFound)
		}
		if err != nil {
			return err
		}
		st.CheckRequests()
		data, err := json.Marshal(map[string]any{
			"project":           p,
			"political_capital": st.PoliticalCapital,
			"research_points":   st.ResearchPoints,
		})
		result = json.RawMessage(data)
		return err
	})
	if err != nil {
		writeError(w, err)
		return
	}
	s.Hub.Publish("action", map[string]string{"project": ref, "action": action})
	writeJSON(w, result)
}

// handleProcessAction serves POST /api/v1/process/{id}/mix with {"change": n}.
func (s *Server) handleProcessAction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	ref, action, ok := splitAction(r.URL.Path, "/api/v1/process/")
	if !ok || action != "mix" {
		http.Error(w, "want /api/v1/process/{id}/mix", http.StatusBadRequest)
		return
	}
	var req struct {
		Change int `json:"change"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	id := kinds.ParseId(ref)

	var result any
	err := s.Runner.Do(func(st *engine.State) error {
		if st.GameOver {
			return errGameOver
		}
		p, ok := st.Processes.TryGet(id)
		if !ok {
			return fmt.Errorf("process %s: %w", ref, errNotFound)
		}
		if err := st.ChangeMixShare(id, req.Change); err != nil {
			return err
		}
		st.CheckRequests()
		data, err := json.Marshal(p)
		result = json.RawMessage(data)
		return err
	})
	if err != nil {
		writeError(w, err)
		return
	}
	s.Hub.Publish("action", map[string]any{"process": ref, "change": req.Change})
	writeJSON(w, result)
}

// handleEventChoice serves POST /api/v1/event/{id}/choice with
// {"choice": n, "region": id}.
func (s *Server) handleEventChoice(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	ref, action, ok := splitAction(r.URL.Path, "/api/v1/event/")
	if !ok || action != "choice" {
		http.Error(w, "want /api/v1/event/{id}/choice", http.StatusBadRequest)
		return
	}
	var req struct {
		Choice int       `json:"choice"`
		Region *kinds.Id `json:"region,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	id := kinds.ParseId(ref)

	err := s.Runner.Do(func(st *engine.State) error {
		if !st.Events.Events.Has(id) {
			return fmt.Errorf("event %s: %w", ref, errNotFound)
		}
		return st.ApplyEventChoice(id, req.Region, req.Choice)
	})
	if err != nil {
		writeError(w, err)
		return
	}
	s.Hub.Publish("action", map[string]any{"event": ref, "choice": req.Choice})
	writeJSON(w, map[string]any{"success": true})
}

// splitAction parses "{prefix}{id}/{action}".
func splitAction(path, prefix string) (id, action string, ok bool) {
	rest := strings.TrimPrefix(path, prefix)
	id, action, ok = strings.Cut(rest, "/")
	if !ok || id == "" || action == "" || strings.Contains(action, "/") {
		return "", "", false
	}
	return id, action, true
}

// writeError maps engine errors to HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, errNotFound), errors.Is(err, engine.ErrNotPending):
		status = http.StatusNotFound
	case errors.Is(err, engine.ErrProjectLocked), errors.Is(err, engine.ErrProcessLocked):
		status = http.StatusForbidden
	case errors.Is(err, engine.ErrNoSuchChoice):
		status = http.StatusBadRequest
	case errors.Is(err, errGameOver),
		errors.Is(err, engine.ErrProjectState),
		errors.Is(err, engine.ErrNoUpgrade),
		errors.Is(err, engine.ErrInsufficientCapital),
		errors.Is(err, engine.ErrInsufficientPoints),
		errors.Is(err, engine.ErrNoMajority),
		errors.Is(err, engine.ErrMixFull),
		errors.Is(err, engine.ErrChoiceUnavailable):
		status = http.StatusConflict
	}
	if status == http.StatusInternalServerError {
		slog.Error("request failed", "error", err)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
