package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// clearEnv blanks every variable the package reads, so the host
// environment cannot leak into a test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"SIM_SEED", "SIM_YEARS", "SIM_REGIONS", "SIM_AUTOPLAY", "SIM_FRESH", "SIM_INTERVAL", "SIM_WORLD",
		"API_PORT", "ADMIN_KEY", "RANDOM_ORG_KEY", "LOG_LEVEL",
		"DB_DIALECT", "DB_SQLITE_PATH", "DB_POSTGRES_DSN", "DATABASE_URL",
	} {
		t.Setenv(k, "")
	}
}

func TestFromEnvDefaults(t *testing.T) {
	clearEnv(t)
	c, err := FromEnv()
	if err != nil {
		t.Fatal(err)
	}
	want := Default()
	if c.Port != want.Port || c.DB.Dialect != DialectSQLite || c.DB.SQLitePath != want.DB.SQLitePath {
		t.Fatalf("FromEnv() = %+v, want defaults %+v", c, want)
	}
}

func TestFromEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("SIM_SEED", "99")
	t.Setenv("SIM_YEARS", "30")
	t.Setenv("SIM_AUTOPLAY", "true")
	t.Setenv("SIM_INTERVAL", "250ms")
	t.Setenv("API_PORT", "9090")
	t.Setenv("LOG_LEVEL", "DEBUG")

	c, err := FromEnv()
	if err != nil {
		t.Fatal(err)
	}
	if c.Seed != 99 || c.Years != 30 || !c.Autoplay || c.Interval != 250*time.Millisecond || c.Port != 9090 {
		t.Fatalf("FromEnv() = %+v", c)
	}
	if c.LogLevel != "debug" {
		t.Fatalf("LogLevel = %q, want %q", c.LogLevel, "debug")
	}
}

func TestFromEnvErrors(t *testing.T) {
	tests := []struct {
		key, value, want string
	}{
		{"DB_DIALECT", "postgres", "requires DB_POSTGRES_DSN or DATABASE_URL"},
		{"DB_DIALECT", "bogus", "unsupported DB_DIALECT"},
		{"SIM_SEED", "abc", "SIM_SEED"},
		{"SIM_AUTOPLAY", "maybe", "SIM_AUTOPLAY"},
		{"SIM_FRESH", "perhaps", "SIM_FRESH"},
		{"SIM_REGIONS", "0", "SIM_REGIONS must be positive"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)
			_, err := FromEnv()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("FromEnv() err = %v, want it to mention %q", err, tt.want)
			}
		})
	}
}

func TestPostgresDSNFallback(t *testing.T) {
	clearEnv(t)
	t.Setenv("DB_DIALECT", "postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/halfearth")
	c, err := FromEnv()
	if err != nil {
		t.Fatal(err)
	}
	if c.DB.PostgresDSN != "postgres://localhost/halfearth" {
		t.Fatalf("PostgresDSN = %q", c.DB.PostgresDSN)
	}
}

func TestLoadEnvFile(t *testing.T) {
	clearEnv(t)
	// godotenv does not override variables that are set, even blank.
	os.Unsetenv("SIM_YEARS")
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("SIM_YEARS=12\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if c.Years != 12 {
		t.Fatalf("Years = %d, want 12", c.Years)
	}
}

func TestLoadMissingFile(t *testing.T) {
	clearEnv(t)
	if _, err := Load(filepath.Join(t.TempDir(), "absent.env")); err != nil {
		t.Fatalf("missing .env should be ignored: %v", err)
	}
}
