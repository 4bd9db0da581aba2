package config

import (
	"errors"
	"sync"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	AppPort     int    `mapstructure:"APP_PORT"`
	DBDriver    string `mapstructure:"DB_DRIVER"`
	DBConn      string `mapstructure:"DB_CONN"`
	LogLevel    string `mapstructure:"LOG_LEVEL"`
	LogFormat   string `mapstructure:"LOG_FORMAT"`
	RecentLimit int    `mapstructure:"RECENT_LIMIT"`
}

var (
	cachedConfig *Config
	configMutex  sync.RWMutex
)

// Load loads configuration from environment variables and .env file
// It caches the result for subsequent calls
func Load() (Config, error) {
	configMutex.RLock()
	if cachedConfig != nil {
		defer configMutex.RUnlock()
		return *cachedConfig, nil
	}
	configMutex.RUnlock()

	configMutex.Lock()
	defer configMutex.Unlock()

	if cachedConfig != nil {
		return *cachedConfig, nil
	}

	v := viper.New()

	v.SetDefault("APP_PORT", 8080)
	v.SetDefault("DB_DRIVER", "sqlite3")
	v.SetDefault("DB_CONN", "./writeit.db")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("RECENT_LIMIT", 6) // entries in the recent-notes menu

	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")

	// a missing .env is fine
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, err
		}
	}

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	cachedConfig = &cfg

	return cfg, nil
}

// ResetCache clears the cached configuration (for testing purposes)
func ResetCache() {
	configMutex.Lock()
	defer configMutex.Unlock()
	cachedConfig = nil
}

// Validate checks if required configuration fields are properly set
func (c Config) Validate() error {
	if c.AppPort <= 0 || c.AppPort > 65535 {
		return errors.New("APP_PORT must be between 1 and 65535")
	}
	switch c.DBDriver {
	case "sqlite3", "postgres", "pgx":
	default:
		return errors.New("DB_DRIVER must be one of sqlite3, postgres, pgx")
	}
	if c.DBConn == "" {
		return errors.New("DB_CONN cannot be empty")
	}
	if c.LogLevel == "" {
		return errors.New("LOG_LEVEL cannot be empty")
	}
	if c.LogFormat == "" {
		return errors.New("LOG_FORMAT cannot be empty")
	}
	if c.RecentLimit < 1 {
		return errors.New("RECENT_LIMIT must be greater than or equal to 1")
	}
	return nil
}
