// Package config reads the runtime settings of a simulation server from the
// environment, after loading a .env file if one is present.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// DB selects and locates the persistence backend.
type DB struct {
	Dialect     Dialect
	SQLitePath  string
	PostgresDSN string
}

// Config holds everything cmd/worldsim needs to start a session.
type Config struct {
	Seed      int64         // 0 draws a seed from the entropy source
	Years     int           // years to simulate; 0 runs until game over
	WorldPath string        // YAML or JSON world file; empty generates one
	Autoplay  bool          // step on a timer rather than on request
	Fresh     bool          // start a new run even when one is saved
	Interval  time.Duration // wall time per year when autoplaying
	Regions   int           // regions in a generated world

	Port     int
	AdminKey string

	RandomOrgKey string
	LogLevel     string

	DB DB
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		Interval: time.Second,
		Regions:  12,
		Port:     8080,
		LogLevel: "info",
		DB: DB{
			Dialect:    DialectSQLite,
			SQLitePath: filepath.Join("data", "halfearth.db"),
		},
	}
}

// Load reads envFile into the environment, if it exists, and then builds
// the configuration from the environment. Variables already set win over
// the file.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	}
	return FromEnv()
}

// FromEnv overlays the environment on Default.
func FromEnv() (Config, error) {
	c := Default()
	var err error

	if c.Seed, err = envInt64("SIM_SEED", c.Seed); err != nil {
		return Config{}, err
	}
	if c.Years, err = envInt("SIM_YEARS", c.Years); err != nil {
		return Config{}, err
	}
	if c.Regions, err = envInt("SIM_REGIONS", c.Regions); err != nil {
		return Config{}, err
	}
	if c.Autoplay, err = envBool("SIM_AUTOPLAY", c.Autoplay); err != nil {
		return Config{}, err
	}
	if c.Fresh, err = envBool("SIM_FRESH", c.Fresh); err != nil {
		return Config{}, err
	}
	if c.Interval, err = envDuration("SIM_INTERVAL", c.Interval); err != nil {
		return Config{}, err
	}
	if c.Port, err = envInt("API_PORT", c.Port); err != nil {
		return Config{}, err
	}
	c.WorldPath = env("SIM_WORLD", c.WorldPath)
	c.AdminKey = env("ADMIN_KEY", c.AdminKey)
	c.RandomOrgKey = env("RANDOM_ORG_KEY", c.RandomOrgKey)
	c.LogLevel = strings.ToLower(env("LOG_LEVEL", c.LogLevel))

	if c.DB, err = dbFromEnv(c.DB); err != nil {
		return Config{}, err
	}
	if c.Regions < 1 {
		return Config{}, fmt.Errorf("SIM_REGIONS must be positive, got %d", c.Regions)
	}
	return c, nil
}

func dbFromEnv(d DB) (DB, error) {
	raw := strings.ToLower(env("DB_DIALECT", string(d.Dialect)))
	switch Dialect(raw) {
	case DialectSQLite:
		d.Dialect = DialectSQLite
		d.SQLitePath = env("DB_SQLITE_PATH", d.SQLitePath)
	case DialectPostgres:
		d.Dialect = DialectPostgres
		d.PostgresDSN = env("DB_POSTGRES_DSN", env("DATABASE_URL", ""))
		if d.PostgresDSN == "" {
			return DB{}, errors.New("DB_DIALECT=postgres requires DB_POSTGRES_DSN or DATABASE_URL")
		}
	default:
		return DB{}, fmt.Errorf("unsupported DB_DIALECT %q", raw)
	}
	return d, nil
}

// env returns the trimmed variable, or def when it is unset or blank.
func env(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) (int, error) {
	v := env(key, "")
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func envInt64(key string, def int64) (int64, error) {
	v := env(key, "")
	if v == "" {
		return def, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func envBool(key string, def bool) (bool, error) {
	v := env(key, "")
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}

func envDuration(key string, def time.Duration) (time.Duration, error) {
	v := env(key, "")
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
