// Command worldsim runs a Half-Earth planetary simulation and serves it
// over HTTP.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/talgya/halfearth/internal/api"
	"github.com/talgya/halfearth/internal/config"
	"github.com/talgya/halfearth/internal/content"
	"github.com/talgya/halfearth/internal/engine"
	"github.com/talgya/halfearth/internal/entropy"
	"github.com/talgya/halfearth/internal/persistence"
	"github.com/talgya/halfearth/internal/world"
)

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	slog.Info("Half-Earth planetary simulation")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ── Database ──────────────────────────────────────────────────────
	db, err := persistence.Open(ctx, cfg.DB)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// ── Load or Start a Run ──────────────────────────────────────────
	var (
		st    *engine.State
		run   persistence.Run
		seed  int64
		fresh = true
	)
	if !cfg.Fresh {
		st, run, err = resume(ctx, db)
		switch {
		case errors.Is(err, persistence.ErrNoRuns):
			slog.Info("no saved run found, starting a new one")
		case err != nil:
			slog.Warn("cannot resume saved run, starting a new one", "error", err)
		default:
			fresh = false
			// The random stream is not saved; continue on a seed derived
			// from the run's so a resumed run is still reproducible.
			seed = run.Seed + int64(st.Year)
		}
	}
	if fresh {
		st, run, seed, err = start(ctx, cfg, db)
		if err != nil {
			slog.Error("failed to start run", "error", err)
			os.Exit(1)
		}
	}

	slog.Info("world ready",
		"run", run.ID,
		"year", st.Year,
		"death_year", st.DeathYear,
		"regions", st.Regions.Len(),
		"population_m", fmt.Sprintf("%.0f", st.Population()),
		"outlook", fmt.Sprintf("%.2f", st.Outlook()),
	)

	// ── Realtime Hub ─────────────────────────────────────────────────
	hub := api.NewHub()
	go hub.Run(ctx)

	// ── Runner ───────────────────────────────────────────────────────
	runner := engine.NewRunner(st, seed)
	runner.Interval = cfg.Interval
	runner.MaxYears = cfg.Years
	if !cfg.Autoplay {
		runner.SetSpeed(0)
	}

	runner.OnYear = func(s *engine.State, rep engine.Report) {
		if err := db.SaveYear(context.Background(), run.ID, s, rep); err != nil {
			slog.Error("yearly save failed", "year", rep.Year, "error", err)
		}
		hub.Publish("year", rep)
	}
	runner.OnPlanning = func(s *engine.State) {
		hub.Publish("planning", map[string]any{
			"year":              s.Year,
			"political_capital": s.PoliticalCapital,
			"requests":          s.Requests,
		})
	}
	runner.OnGameOver = func(s *engine.State) {
		hub.Publish("game_over", map[string]any{
			"year":    s.Year,
			"outlook": s.Outlook(),
		})
	}

	// ── HTTP API ──────────────────────────────────────────────────────
	if cfg.AdminKey == "" {
		slog.Warn("ADMIN_KEY not set, player POST endpoints will be disabled")
	}
	apiServer := &api.Server{
		Runner:   runner,
		DB:       db,
		RunID:    run.ID,
		Hub:      hub,
		Port:     cfg.Port,
		AdminKey: cfg.AdminKey,
	}
	apiServer.Start(ctx)

	// ── Start ─────────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("received signal, shutting down", "signal", sig)
		cancel()
	}()

	fmt.Printf("\nHalf-Earth run %s: year %d, %.0fM people in %d regions.\n",
		run.ID, st.Year, st.Population(), st.Regions.Len())
	fmt.Printf("API: http://localhost:%d/api/v1/status\n", cfg.Port)
	if !fresh {
		fmt.Printf("Resuming from year %d\n", st.Year)
	}
	if cfg.Autoplay {
		fmt.Println("Starting simulation... (Ctrl+C to stop)")
	} else {
		fmt.Println("Paused; POST /api/v1/step or /api/v1/speed to advance. (Ctrl+C to stop)")
	}

	runner.Run(ctx)
	if ctx.Err() == nil {
		slog.Info("simulation finished, API still serving", "years", runner.Years())
		<-ctx.Done()
	}

	// Final save on shutdown.
	slog.Info("final save...")
	err = runner.Do(func(s *engine.State) error {
		return db.SaveSnapshot(context.Background(), run.ID, s)
	})
	if err != nil {
		slog.Error("final save failed", "error", err)
	}
	fmt.Println("Simulation stopped. State saved.")
}

// resume loads the latest unfinished run.
func resume(ctx context.Context, db *persistence.DB) (*engine.State, persistence.Run, error) {
	run, err := db.LatestRun(ctx)
	if err != nil {
		return nil, persistence.Run{}, err
	}
	st, err := db.LoadState(ctx, run.ID)
	if err != nil {
		return nil, persistence.Run{}, err
	}
	if st.GameOver {
		return nil, persistence.Run{}, fmt.Errorf("run %s already ended in %d", run.ID, st.Year)
	}
	slog.Info("saved run restored", "run", run.ID, "year", st.Year, "seed", run.Seed)
	return st, run, nil
}

// start builds a new world, records the run and saves its first snapshot.
func start(ctx context.Context, cfg config.Config, db *persistence.DB) (*engine.State, persistence.Run, int64, error) {
	seed := cfg.Seed
	if seed == 0 {
		seed = entropy.NewClient(cfg.RandomOrgKey).Seed(ctx)
	}

	gen := world.DefaultGenConfig()
	gen.Seed = seed
	gen.Regions = cfg.Regions
	w := world.Generate(gen)
	if cfg.WorldPath != "" {
		var err error
		if w, err = content.LoadFile(cfg.WorldPath, w); err != nil {
			return nil, persistence.Run{}, 0, err
		}
	}

	played, err := db.RunsPlayed(ctx)
	if err != nil {
		return nil, persistence.Run{}, 0, fmt.Errorf("read runs played: %w", err)
	}
	st := engine.NewState(w)
	st.Runs = played

	run, err := db.CreateRun(ctx, seed, st.Year)
	if err != nil {
		return nil, persistence.Run{}, 0, err
	}
	if _, err := db.IncrementRuns(ctx); err != nil {
		return nil, persistence.Run{}, 0, err
	}
	if err := db.SaveSnapshot(ctx, run.ID, st); err != nil {
		return nil, persistence.Run{}, 0, fmt.Errorf("initial save: %w", err)
	}
	slog.Info("new run started", "run", run.ID, "seed", seed, "runs_played", played)
	return st, run, seed, nil
}
