package store

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/lewisedginton/dating_coach/pkg/logger"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrationFS embed.FS

// dialect names a migration directory and the migrate driver for it.
type dialect string

const (
	dialectPostgres dialect = "postgres"
	dialectSQLite   dialect = "sqlite"
)

// migrator applies the embedded migrations of one dialect to a database handle.
type migrator struct {
	db      *sql.DB
	dialect dialect
	logger  logger.Logger
}

func newMigrator(db *sql.DB, d dialect, log logger.Logger) *migrator {
	return &migrator{db: db, dialect: d, logger: log}
}

// Up executes pending migrations.
func (m *migrator) Up() error {
	mg, err := m.create()
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	// Closing mg would close the shared *sql.DB, which the store still owns.

	m.logger.Info("Starting database migrations", logger.StringField("dialect", string(m.dialect)))

	err = mg.Up()
	if err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			m.logger.Info("No new migrations to apply", logger.StringField("dialect", string(m.dialect)))
			return nil
		}
		m.logger.Error("Failed to run migrations", logger.ErrorField(err))
		return fmt.Errorf("run migrations: %w", err)
	}

	m.logger.Info("Successfully applied migrations", logger.StringField("dialect", string(m.dialect)))
	return nil
}

func (m *migrator) create() (*migrate.Migrate, error) {
	sourceDriver, err := iofs.New(migrationFS, "migrations/"+string(m.dialect))
	if err != nil {
		return nil, fmt.Errorf("create embedded migration source: %w", err)
	}

	var driver database.Driver
	switch m.dialect {
	case dialectPostgres:
		driver, err = postgres.WithInstance(m.db, &postgres.Config{})
	case dialectSQLite:
		driver, err = sqlite.WithInstance(m.db, &sqlite.Config{})
	default:
		return nil, fmt.Errorf("unsupported dialect %q", m.dialect)
	}
	if err != nil {
		return nil, fmt.Errorf("create %s driver: %w", m.dialect, err)
	}

	mg, err := migrate.NewWithInstance("iofs", sourceDriver, string(m.dialect), driver)
	if err != nil {
		return nil, fmt.Errorf("create migrator: %w", err)
	}
	return mg, nil
}
