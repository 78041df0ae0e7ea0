package persistence

import (
	"context"
	"errors"
	"math/rand"
	"path/filepath"
	"strings"
	"testing"

	"github.com/talgya/halfearth/internal/config"
	"github.com/talgya/halfearth/internal/engine"
	"github.com/talgya/halfearth/internal/world"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(context.Background(), config.DB{
		Dialect:    config.DialectSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "nested", "test.db"),
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestOpenRejectsUnknownDialect(t *testing.T) {
	_, err := Open(context.Background(), config.DB{Dialect: "oracle"})
	if err == nil || !strings.Contains(err.Error(), `unsupported dialect "oracle"`) {
		t.Fatalf("err = %v, want unsupported dialect", err)
	}
	_, err = Open(context.Background(), config.DB{Dialect: config.DialectPostgres})
	if err == nil || !strings.Contains(err.Error(), "requires a DSN") {
		t.Fatalf("err = %v, want missing DSN", err)
	}
}

func TestMeta(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	if err := db.SaveMeta(ctx, "k", "one"); err != nil {
		t.Fatal(err)
	}
	if err := db.SaveMeta(ctx, "k", "two"); err != nil {
		t.Fatal(err)
	}
	v, err := db.GetMeta(ctx, "k")
	if err != nil || v != "two" {
		t.Fatalf("GetMeta = %q, %v; want two", v, err)
	}

	if n, err := db.RunsPlayed(ctx); err != nil || n != 0 {
		t.Fatalf("RunsPlayed = %d, %v; want 0", n, err)
	}
	for want := 1; want <= 2; want++ {
		n, err := db.IncrementRuns(ctx)
		if err != nil || n != want {
			t.Fatalf("IncrementRuns = %d, %v; want %d", n, err, want)
		}
	}
}

func TestLatestRunEmpty(t *testing.T) {
	db := openTestDB(t)
	if _, err := db.LatestRun(context.Background()); !errors.Is(err, ErrNoRuns) {
		t.Fatalf("err = %v, want ErrNoRuns", err)
	}
}

func TestSaveYearAndResume(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	s := engine.NewState(world.Generate(world.SmallTestConfig()))
	run, err := db.CreateRun(ctx, 42, s.Year)
	if err != nil {
		t.Fatal(err)
	}
	if err := db.SaveSnapshot(ctx, run.ID, s); err != nil {
		t.Fatal(err)
	}

	rng := rand.New(rand.NewSource(42))
	var last engine.Report
	for rep := 0; rep < 3; rep++ {
		last = s.Step(rng)
		if err := db.SaveYear(ctx, run.ID, s, last); err != nil {
			t.Fatalf("SaveYear %d: %v", last.Year, err)
		}
	}

	latest, err := db.LatestRun(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if latest.ID != run.ID || latest.LastYear != s.Year || latest.Seed != 42 {
		t.Fatalf("latest run = %+v, want id %s last year %d", latest, run.ID, s.Year)
	}

	reports, err := db.Reports(ctx, run.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(reports) != 3 || reports[2].Year != last.Year {
		t.Fatalf("reports = %d, last year %d; want 3 ending at %d", len(reports), reports[len(reports)-1].Year, last.Year)
	}

	restored, err := db.LoadState(ctx, run.ID)
	if err != nil {
		t.Fatal(err)
	}
	if restored.Year != s.Year || restored.Population() != s.Population() {
		t.Fatalf("restored year %d pop %v, want %d %v", restored.Year, restored.Population(), s.Year, s.Population())
	}
	if restored.Processes.Len() != s.Processes.Len() {
		t.Fatalf("restored %d processes, want %d", restored.Processes.Len(), s.Processes.Len())
	}

	// Saving the same year twice replaces the row.
	if err := db.SaveYear(ctx, run.ID, s, last); err != nil {
		t.Fatal(err)
	}
	if reports, _ = db.Reports(ctx, run.ID); len(reports) != 3 {
		t.Fatalf("reports after resave = %d, want 3", len(reports))
	}
}

func TestRecentEvents(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	s := engine.NewState(world.Generate(world.SmallTestConfig()))
	run, err := db.CreateRun(ctx, 1, s.Year)
	if err != nil {
		t.Fatal(err)
	}
	s.Year++
	s.Log = []engine.LogEntry{
		{Year: s.Year - 1, Description: "old", Category: "event"},
		{Year: s.Year, Description: "first", Category: "event", Meta: map[string]any{"region": "x"}},
		{Year: s.Year, Description: "second", Category: "project"},
	}
	if err := db.SaveYear(ctx, run.ID, s, engine.Report{Year: s.Year}); err != nil {
		t.Fatal(err)
	}

	got, err := db.RecentEvents(ctx, run.ID, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d events, want only this year's 2", len(got))
	}
	if got[0].Description != "second" || got[1].Meta["region"] != "x" {
		t.Fatalf("events = %+v, want newest first with meta", got)
	}

	if got, _ = db.RecentEvents(ctx, run.ID, 1); len(got) != 1 {
		t.Fatalf("limit ignored: %d events", len(got))
	}
}
