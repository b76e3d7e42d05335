package config

import (
	"fmt"
	"time"
)

// Conversation snapshot persistence backends
const (
	PersistenceNone     = "none"
	PersistencePostgres = "postgres"
	PersistenceSQLite   = "sqlite"
	PersistenceRedis    = "redis"
)

// PersistenceConfig selects the optional conversation snapshot store
type PersistenceConfig struct {
	Backend        string        `env:"PERSISTENCE_BACKEND" yaml:"backend" default:"none"`
	SQLitePath     string        `env:"PERSISTENCE_SQLITE_PATH" yaml:"sqlite_path" default:"./data/coach.db"`
	RedisKeyPrefix string        `env:"PERSISTENCE_REDIS_PREFIX" yaml:"redis_key_prefix" default:"coach:conversation:"`
	SnapshotTTL    time.Duration `env:"PERSISTENCE_SNAPSHOT_TTL" yaml:"snapshot_ttl" default:"24h"`
	RestoreOnStart bool          `env:"PERSISTENCE_RESTORE_ON_START" yaml:"restore_on_start" default:"true"`
}

// Validate checks the backend name
func (p PersistenceConfig) Validate() error {
	switch p.Backend {
	case PersistenceNone, PersistencePostgres, PersistenceRedis:
		return nil
	case PersistenceSQLite:
		if p.SQLitePath == "" {
			return fmt.Errorf("persistence sqlite_path is required for the sqlite backend")
		}
		return nil
	default:
		return fmt.Errorf("persistence backend must be one of [none, postgres, sqlite, redis], got %q", p.Backend)
	}
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	URL      string        `env:"REDIS_URL" yaml:"url"`
	Password string        `env:"REDIS_PASSWORD" yaml:"-"`
	Database int           `env:"REDIS_DATABASE" yaml:"database" default:"0"`
	Timeout  time.Duration `env:"REDIS_TIMEOUT" yaml:"timeout" default:"5s"`
}
