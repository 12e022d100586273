package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
)

// Config holds all configuration for the application.
type Config struct {
	Logger   Logger   `mapstructure:"logger"`
	Database Database `mapstructure:"database"`
	Storage  Storage  `mapstructure:"storage"`
}

// Logger holds the configuration for the logger.
type Logger struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Database holds the configuration for the database.
type Database struct {
	DSN string `mapstructure:"dsn"`
}

// Storage holds the configuration for the trade store.
type Storage struct {
	Driver         string        `mapstructure:"driver"`
	BatchSize      int           `mapstructure:"batch_size"`
	WriteRateLimit float64       `mapstructure:"write_rate_limit"`
	WriteRateBurst int           `mapstructure:"write_rate_burst"`
	MaxRetries     int           `mapstructure:"max_retries"`
	CacheTTL       time.Duration `mapstructure:"cache_ttl"`
	CacheMaxCost   int64         `mapstructure:"cache_max_cost"`
}

// LoadConfig reads configuration from file or environment variables.
// A .env file next to the config file, if present, is loaded into the
// environment first. A missing config file is not an error.
func LoadConfig(path string) (config Config, err error) {
	if err = godotenv.Load(filepath.Join(path, ".env")); err != nil && !errors.Is(err, os.ErrNotExist) {
		return config, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config") // name of config file (without extension)
	v.SetConfigType("yml")

	// Allow environment variables to override config file
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err = v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return config, fmt.Errorf("failed to read config: %w", err)
		}
	}

	if err = v.Unmarshal(&config); err != nil {
		return config, fmt.Errorf("failed to decode config: %w", err)
	}
	err = config.Validate()
	return
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("database.dsn", "trades.db")
	v.SetDefault("storage.driver", DriverSQLite)
	v.SetDefault("storage.batch_size", 100)      // rows per transaction chunk
	v.SetDefault("storage.write_rate_limit", 50) // writes per second
	v.SetDefault("storage.write_rate_burst", 10)
	v.SetDefault("storage.max_retries", 3)
	v.SetDefault("storage.cache_ttl", time.Minute)
	v.SetDefault("storage.cache_max_cost", 10000)
}

// Validate rejects configurations the store cannot run with.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case DriverSQLite:
		if c.Database.DSN == "" {
			return fmt.Errorf("database.dsn is required for the %s driver", DriverSQLite)
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if c.Storage.BatchSize <= 0 {
		return fmt.Errorf("invalid storage.batch_size: %d", c.Storage.BatchSize)
	}
	if c.Storage.WriteRateLimit <= 0 || c.Storage.WriteRateBurst <= 0 {
		return fmt.Errorf("invalid write rate limit: %v/%d", c.Storage.WriteRateLimit, c.Storage.WriteRateBurst)
	}
	if c.Storage.MaxRetries <= 0 {
		return fmt.Errorf("invalid storage.max_retries: %d", c.Storage.MaxRetries)
	}
	if c.Storage.CacheMaxCost <= 0 {
		return fmt.Errorf("invalid storage.cache_max_cost: %d", c.Storage.CacheMaxCost)
	}
	if c.Storage.CacheTTL <= 0 {
		return fmt.Errorf("invalid storage.cache_ttl: %s", c.Storage.CacheTTL)
	}
	return nil
}
