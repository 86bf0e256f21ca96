package database

import (
	"database/sql"
	"errors"
	"fmt"
	"os"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog"
)

// migrationsTable records which article-store schema versions have been
// applied.
const migrationsTable = "schema_migrations"

// Migrator applies the versioned SQL files that define the article
// store schema. The service runs a single migration set (the articles
// table), so the surface is deliberately small: all the way up, all
// the way down, and the current version.
type Migrator struct {
	migrate *migrate.Migrate
	conn    *sql.DB
	logger  zerolog.Logger
}

// NewMigrator builds a migrator over the pool's connection, reading
// migration files from dir.
func NewMigrator(db *DB, dir string, logger zerolog.Logger) (*Migrator, error) {
	if db == nil || db.pool == nil {
		return nil, errors.New("migrator needs a connected database")
	}
	if dir == "" {
		return nil, errors.New("migrations directory is required")
	}
	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("migrations directory %q: %w", dir, err)
	}

	// golang-migrate drives a database/sql connection; borrow one from
	// the pgx pool rather than opening a second DSN.
	conn := stdlib.OpenDBFromPool(db.pool)

	driver, err := postgres.WithInstance(conn, &postgres.Config{
		MigrationsTable: migrationsTable,
	})
	if err != nil {
		closeErr := conn.Close()
		return nil, errors.Join(fmt.Errorf("postgres migration driver: %w", err), closeErr)
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+dir, "postgres", driver)
	if err != nil {
		closeErr := conn.Close()
		return nil, errors.Join(fmt.Errorf("open migration source %q: %w", dir, err), closeErr)
	}

	return &Migrator{
		migrate: m,
		conn:    conn,
		logger:  logger.With().Str("component", "migrator").Logger(),
	}, nil
}

// Up applies every pending migration. Already being at the latest
// version is not an error.
func (m *Migrator) Up() error {
	err := m.migrate.Up()
	switch {
	case errors.Is(err, migrate.ErrNoChange):
		m.logger.Info().Msg("article store schema is up to date")
		return nil
	case err != nil:
		return fmt.Errorf("apply migrations: %w", err)
	}

	m.logVersion("article store schema migrated")
	return nil
}

// Down rolls back every applied migration, dropping the article store
// schema.
func (m *Migrator) Down() error {
	err := m.migrate.Down()
	switch {
	case errors.Is(err, migrate.ErrNoChange):
		m.logger.Info().Msg("no migrations to roll back")
		return nil
	case err != nil:
		return fmt.Errorf("roll back migrations: %w", err)
	}

	m.logger.Info().Msg("article store schema rolled back")
	return nil
}

// Version reports the current schema version and whether a failed
// migration left it dirty.
func (m *Migrator) Version() (uint, bool, error) {
	v, dirty, err := m.migrate.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return v, dirty, err
}

// Close releases the migration source and returns the borrowed
// connection to the pool.
func (m *Migrator) Close() error {
	sourceErr, dbErr := m.migrate.Close()
	connErr := m.conn.Close()
	return errors.Join(sourceErr, dbErr, connErr)
}

func (m *Migrator) logVersion(msg string) {
	v, dirty, err := m.Version()
	if err != nil {
		m.logger.Warn().Err(err).Msg("could not read schema version")
		return
	}
	m.logger.Info().Uint("version", v).Bool("dirty", dirty).Msg(msg)
}
