package sqlitechain

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/cbm-experiment/cbmcore/internal/monitoring"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SchemaVersion is the migration version written by this package.
const SchemaVersion = 2

// migrateUp brings the chain file schema to SchemaVersion.
func migrateUp(db *sql.DB) error {
	m, err := newMigrate(db)
	if err != nil {
		return err
	}
	// Note: We don't close m here because it would close the underlying DB connection.

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}
	return nil
}

// schemaVersion returns the applied migration version and dirty state, or
// 0, false if the file has never been migrated. It only reads, so it is safe
// on files opened read-only.
func schemaVersion(db *sql.DB) (uint, bool, error) {
	ok, err := hasTable(db, sqlite.DefaultMigrationsTable)
	if err != nil {
		return 0, false, fmt.Errorf("failed to look up migrations table: %w", err)
	}
	if !ok {
		return 0, false, nil
	}

	var (
		version int64
		dirty   bool
	)
	err = db.QueryRow("SELECT version, dirty FROM " + sqlite.DefaultMigrationsTable + " LIMIT 1").
		Scan(&version, &dirty)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to read schema version: %w", err)
	}
	if version < 0 {
		return 0, dirty, nil
	}
	return uint(version), dirty, nil
}

func newMigrate(db *sql.DB) (*migrate.Migrate, error) {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded migrations: %w", err)
	}

	driver, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to create sqlite driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	m.Log = &migrateLogger{}
	return m, nil
}

// migrateLogger implements migrate.Logger interface
type migrateLogger struct{}

func (l *migrateLogger) Printf(format string, v ...interface{}) {
	monitoring.Logf("[migrate] "+strings.TrimSuffix(format, "\n"), v...)
}

func (l *migrateLogger) Verbose() bool {
	return false
}
