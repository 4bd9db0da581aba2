package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseValidConfig() Config {
	return Config{
		AppPort:     8080,
		DBDriver:    "sqlite3",
		DBConn:      ":memory:",
		LogLevel:    "info",
		LogFormat:   "json",
		RecentLimit: 6,
	}
}

// clearConfigEnvVars removes every variable the loader reads so each test
// starts clean.
func clearConfigEnvVars(t *testing.T) {
	t.Helper()

	for _, k := range []string{
		"APP_PORT",
		"DB_DRIVER",
		"DB_CONN",
		"LOG_LEVEL",
		"LOG_FORMAT",
		"RECENT_LIMIT",
	} {
		if err := os.Unsetenv(k); err != nil {
			t.Logf("warning: failed to unset %s: %v", k, err)
		}
	}
}

func TestConfigLoadDefaults(t *testing.T) {
	clearConfigEnvVars(t)
	ResetCache()
	t.Cleanup(ResetCache)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.AppPort)
	assert.Equal(t, "sqlite3", cfg.DBDriver)
	assert.Equal(t, "./writeit.db", cfg.DBConn)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 6, cfg.RecentLimit)
}

func TestConfigLoadFromEnv(t *testing.T) {
	clearConfigEnvVars(t)
	ResetCache()
	t.Cleanup(ResetCache)

	t.Setenv("APP_PORT", "9090")
	t.Setenv("DB_DRIVER", "pgx")
	t.Setenv("DB_CONN", "postgres://localhost/writeit")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("RECENT_LIMIT", "10")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.AppPort)
	assert.Equal(t, "pgx", cfg.DBDriver)
	assert.Equal(t, "postgres://localhost/writeit", cfg.DBConn)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 10, cfg.RecentLimit)
}

func TestConfigLoadIsCached(t *testing.T) {
	clearConfigEnvVars(t)
	ResetCache()
	t.Cleanup(ResetCache)

	first, err := Load()
	require.NoError(t, err)

	t.Setenv("APP_PORT", "9191")
	second, err := Load()
	require.NoError(t, err)
	assert.Equal(t, first, second)

	ResetCache()
	third, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9191, third.AppPort)
}

func TestConfigLoadRejectsInvalidEnv(t *testing.T) {
	clearConfigEnvVars(t)
	ResetCache()
	t.Cleanup(ResetCache)

	t.Setenv("DB_DRIVER", "mysql")

	_, err := Load()
	assert.Error(t, err)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"zero port", func(c *Config) { c.AppPort = 0 }, "APP_PORT"},
		{"port too large", func(c *Config) { c.AppPort = 70000 }, "APP_PORT"},
		{"unknown driver", func(c *Config) { c.DBDriver = "oracle" }, "DB_DRIVER"},
		{"postgres driver", func(c *Config) { c.DBDriver = "postgres" }, ""},
		{"empty conn", func(c *Config) { c.DBConn = "" }, "DB_CONN"},
		{"empty log level", func(c *Config) { c.LogLevel = "" }, "LOG_LEVEL"},
		{"empty log format", func(c *Config) { c.LogFormat = "" }, "LOG_FORMAT"},
		{"recent limit zero", func(c *Config) { c.RecentLimit = 0 }, "RECENT_LIMIT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := baseValidConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
