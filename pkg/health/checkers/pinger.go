package checkers

import (
	"context"
	"fmt"
)

// Pinger is satisfied by *sql.DB and *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingerFunc adapts a function to Pinger, e.g. (*sql.DB).PingContext.
type PingerFunc func(ctx context.Context) error

func (f PingerFunc) Ping(ctx context.Context) error {
	return f(ctx)
}

// DatabaseChecker pings a database connection pool.
type DatabaseChecker struct {
	db   Pinger
	name string
}

// NewDatabaseChecker creates a database health checker. An empty name defaults to "database".
func NewDatabaseChecker(db Pinger, name string) *DatabaseChecker {
	if name == "" {
		name = "database"
	}
	return &DatabaseChecker{db: db, name: name}
}

func (d *DatabaseChecker) Name() string {
	return d.name
}

func (d *DatabaseChecker) Check(ctx context.Context) error {
	if err := d.db.Ping(ctx); err != nil {
		return fmt.Errorf("%s ping failed: %w", d.name, err)
	}
	return nil
}
