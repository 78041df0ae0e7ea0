// Package persistence stores runs, their yearly reports and state
// snapshots in SQLite or PostgreSQL, so a session can be resumed and its
// history read back.
package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/halfearth/internal/config"
	"github.com/talgya/halfearth/internal/engine"
)

// ErrNoRuns is returned when the database holds no runs yet.
var ErrNoRuns = errors.New("no runs saved")

// DB wraps a database connection for simulation persistence.
type DB struct {
	conn    *sqlx.DB
	dialect config.Dialect
}

// Run is one simulation session.
type Run struct {
	ID        string `db:"id" json:"id"`
	Seed      int64  `db:"seed" json:"seed"`
	StartYear int    `db:"start_year" json:"start_year"`
	LastYear  int    `db:"last_year" json:"last_year"`
	CreatedAt string `db:"created_at" json:"created_at"`
}

// timeLayout sorts lexically in time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Open connects to the configured database and creates the schema.
func Open(ctx context.Context, cfg config.DB) (*DB, error) {
	var driver, dsn string
	switch cfg.Dialect {
	case config.DialectSQLite:
		driver = "sqlite"
		if dir := filepath.Dir(cfg.SQLitePath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create sqlite directory: %w", err)
			}
		}
		dsn = cfg.SQLitePath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	case config.DialectPostgres:
		driver = "pgx"
		dsn = cfg.PostgresDSN
		if dsn == "" {
			return nil, errors.New("postgres dialect requires a DSN")
		}
	default:
		return nil, fmt.Errorf("unsupported dialect %q", cfg.Dialect)
	}

	conn, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", cfg.Dialect, err)
	}
	if cfg.Dialect == config.DialectSQLite {
		conn.SetMaxOpenConns(1)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := conn.PingContext(pingCtx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping %s database: %w", cfg.Dialect, err)
	}

	db := &DB{conn: conn, dialect: cfg.Dialect}
	if err := db.migrate(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	slog.Info("database opened", "dialect", cfg.Dialect)
	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate(ctx context.Context) error {
	serial := "INTEGER PRIMARY KEY AUTOINCREMENT"
	if db.dialect == config.DialectPostgres {
		serial = "BIGSERIAL PRIMARY KEY"
	}
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			seed BIGINT NOT NULL,
			start_year INTEGER NOT NULL,
			last_year INTEGER NOT NULL,
			created_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS years (
			run_id TEXT NOT NULL,
			year INTEGER NOT NULL,
			emissions DOUBLE PRECISION NOT NULL,
			temperature DOUBLE PRECISION NOT NULL,
			outlook DOUBLE PRECISION NOT NULL,
			population DOUBLE PRECISION NOT NULL,
			report_json TEXT NOT NULL,
			PRIMARY KEY (run_id, year)
		)`,
		`CREATE TABLE IF NOT EXISTS snapshots (
			run_id TEXT PRIMARY KEY,
			year INTEGER NOT NULL,
			state_json TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS events (
			id ` + serial + `,
			run_id TEXT NOT NULL,
			year INTEGER NOT NULL,
			description TEXT NOT NULL,
			category TEXT NOT NULL,
			meta_json TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS world_meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_events_run_year ON events(run_id, year)`,
	}
	for _, s := range stmts {
		if _, err := db.conn.ExecContext(ctx, s); err != nil {
			return err
		}
	}
	return nil
}

// CreateRun records a new run and returns it.
func (db *DB) CreateRun(ctx context.Context, seed int64, startYear int) (Run, error) {
	r := Run{
		ID:        uuid.NewString(),
		Seed:      seed,
		StartYear: startYear,
		LastYear:  startYear,
		CreatedAt: time.Now().UTC().Format(timeLayout),
	}
	_, err := db.conn.NamedExecContext(ctx,
		`INSERT INTO runs (id, seed, start_year, last_year, created_at)
		 VALUES (:id, :seed, :start_year, :last_year, :created_at)`, r)
	if err != nil {
		return Run{}, fmt.Errorf("insert run: %w", err)
	}
	return r, nil
}

// LatestRun returns the most recently created run.
func (db *DB) LatestRun(ctx context.Context) (Run, error) {
	var r Run
	err := db.conn.GetContext(ctx, &r,
		"SELECT id, seed, start_year, last_year, created_at FROM runs ORDER BY created_at DESC, id DESC LIMIT 1")
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, ErrNoRuns
	}
	if err != nil {
		return Run{}, fmt.Errorf("latest run: %w", err)
	}
	return r, nil
}

// SaveYear stores a stepped year in one transaction: its report, the log
// entries made during it and a snapshot of the state after it.
func (db *DB) SaveYear(ctx context.Context, runID string, s *engine.State, rep engine.Report) error {
	reportJSON, err := json.Marshal(rep)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	stateJSON, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, db.conn.Rebind(
		`INSERT INTO years (run_id, year, emissions, temperature, outlook, population, report_json)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (run_id, year) DO UPDATE SET
		   emissions = excluded.emissions, temperature = excluded.temperature,
		   outlook = excluded.outlook, population = excluded.population,
		   report_json = excluded.report_json`),
		runID, rep.Year, rep.Emissions, rep.Temperature, rep.Outlook, rep.Population, string(reportJSON))
	if err != nil {
		return fmt.Errorf("insert year %d: %w", rep.Year, err)
	}

	for _, e := range s.Log {
		if e.Year != rep.Year {
			continue
		}
		meta, err := json.Marshal(e.Meta)
		if err != nil {
			return fmt.Errorf("marshal event meta: %w", err)
		}
		_, err = tx.ExecContext(ctx, db.conn.Rebind(
			"INSERT INTO events (run_id, year, description, category, meta_json) VALUES (?, ?, ?, ?, ?)"),
			runID, e.Year, e.Description, e.Category, string(meta))
		if err != nil {
			return fmt.Errorf("insert event: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx, db.conn.Rebind(
		`INSERT INTO snapshots (run_id, year, state_json) VALUES (?, ?, ?)
		 ON CONFLICT (run_id) DO UPDATE SET year = excluded.year, state_json = excluded.state_json`),
		runID, s.Year, string(stateJSON))
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	_, err = tx.ExecContext(ctx, db.conn.Rebind("UPDATE runs SET last_year = ? WHERE id = ?"), s.Year, runID)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	slog.Debug("year saved", "run", runID, "year", rep.Year)
	return nil
}

// SaveSnapshot stores the state without a report, for a fresh run or a
// change made between years.
func (db *DB) SaveSnapshot(ctx context.Context, runID string, s *engine.State) error {
	stateJSON, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	_, err = db.conn.ExecContext(ctx, db.conn.Rebind(
		`INSERT INTO snapshots (run_id, year, state_json) VALUES (?, ?, ?)
		 ON CONFLICT (run_id) DO UPDATE SET year = excluded.year, state_json = excluded.state_json`),
		runID, s.Year, string(stateJSON))
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// LoadState restores the latest snapshot of a run.
func (db *DB) LoadState(ctx context.Context, runID string) (*engine.State, error) {
	var raw string
	err := db.conn.GetContext(ctx, &raw, db.conn.Rebind("SELECT state_json FROM snapshots WHERE run_id = ?"), runID)
	if err != nil {
		return nil, fmt.Errorf("load snapshot for %s: %w", runID, err)
	}
	var s engine.State
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &s, nil
}

// Reports returns a run's yearly reports in order.
func (db *DB) Reports(ctx context.Context, runID string) ([]engine.Report, error) {
	var rows []string
	err := db.conn.SelectContext(ctx, &rows,
		db.conn.Rebind("SELECT report_json FROM years WHERE run_id = ? ORDER BY year"), runID)
	if err != nil {
		return nil, fmt.Errorf("select reports: %w", err)
	}
	out := make([]engine.Report, 0, len(rows))
	for _, raw := range rows {
		var r engine.Report
		if err := json.Unmarshal([]byte(raw), &r); err != nil {
			return nil, fmt.Errorf("decode report: %w", err)
		}
		out = append(out, r)
	}
	return out, nil
}

type eventRow struct {
	Year        int    `db:"year"`
	Description string `db:"description"`
	Category    string `db:"category"`
	Meta        string `db:"meta_json"`
}

// RecentEvents returns a run's most recent log entries, newest first.
func (db *DB) RecentEvents(ctx context.Context, runID string, limit int) ([]engine.LogEntry, error) {
	var rows []eventRow
	err := db.conn.SelectContext(ctx, &rows, db.conn.Rebind(
		"SELECT year, description, category, meta_json FROM events WHERE run_id = ? ORDER BY id DESC LIMIT ?"),
		runID, limit)
	if err != nil {
		return nil, fmt.Errorf("select events: %w", err)
	}
	out := make([]engine.LogEntry, 0, len(rows))
	for _, r := range rows {
		e := engine.LogEntry{Year: r.Year, Description: r.Description, Category: r.Category}
		if err := json.Unmarshal([]byte(r.Meta), &e.Meta); err != nil {
			return nil, fmt.Errorf("decode event meta: %w", err)
		}
		out = append(out, e)
	}
	return out, nil
}

// SaveMeta stores a key-value pair in the metadata table.
func (db *DB) SaveMeta(ctx context.Context, key, value string) error {
	_, err := db.conn.ExecContext(ctx, db.conn.Rebind(
		`INSERT INTO world_meta (key, value) VALUES (?, ?)
		 ON CONFLICT (key) DO UPDATE SET value = excluded.value`),
		key, value)
	return err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(ctx context.Context, key string) (string, error) {
	var value string
	err := db.conn.GetContext(ctx, &value, db.conn.Rebind("SELECT value FROM world_meta WHERE key = ?"), key)
	return value, err
}

// RunsPlayed is how many runs have been started, kept in the metadata
// table so conditions on past play survive restarts.
func (db *DB) RunsPlayed(ctx context.Context) (int, error) {
	v, err := db.GetMeta(ctx, "runs_played")
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(v)
}

// IncrementRuns bumps the played-run counter and returns the new count.
func (db *DB) IncrementRuns(ctx context.Context) (int, error) {
	n, err := db.RunsPlayed(ctx)
	if err != nil {
		return 0, err
	}
	n++
	if err := db.SaveMeta(ctx, "runs_played", strconv.Itoa(n)); err != nil {
		return 0, fmt.Errorf("save runs played: %w", err)
	}
	return n, nil
}
