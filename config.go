package fluent

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Environment variables read by LoadConfig.
const (
	EnvDBDriver  = "FLUENT_DB_DRIVER"
	EnvDBDSN     = "FLUENT_DB_DSN"
	EnvRedisAddr = "FLUENT_REDIS_ADDR"
	EnvLockTTL   = "FLUENT_LOCK_TTL"
)

// Config holds the settings needed to run migrations against a database.
type Config struct {
	DBDriver  string        // "sqlite", "mysql" or "postgres"
	DSN       string        // Driver-specific data source name
	RedisAddr string        // Empty disables the distributed migration lock
	LockTTL   time.Duration // Defaults to one minute
}

// LoadConfig loads files (default ".env") into the environment and builds a Config
// from it. Variables already set in the environment win over the files. Missing
// files are logged and skipped.
func LoadConfig(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				log.Printf("Config: %s not found, using environment only.", f)
				continue
			}
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}

	cfg := Config{
		DBDriver:  os.Getenv(EnvDBDriver),
		DSN:       os.Getenv(EnvDBDSN),
		RedisAddr: os.Getenv(EnvRedisAddr),
		LockTTL:   time.Minute,
	}
	if cfg.DBDriver == "" {
		cfg.DBDriver = "sqlite"
	}
	if v := os.Getenv(EnvLockTTL); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", EnvLockTTL, err)
		}
		cfg.LockTTL = ttl
	}
	if cfg.DSN == "" {
		return cfg, fmt.Errorf("%s must be set", EnvDBDSN)
	}
	return cfg, nil
}
