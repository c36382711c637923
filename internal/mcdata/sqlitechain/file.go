package sqlitechain

import (
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/cbm-experiment/cbmcore/internal/monitoring"
)

var pragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA busy_timeout=5000",
	"PRAGMA synchronous=NORMAL",
	"PRAGMA foreign_keys=ON",
}

// File is one chain file: a SQLite database holding the entries of any
// number of branches, identified by a UUID assigned at creation.
type File struct {
	db   *sql.DB
	path string
	id   uuid.UUID

	readOnly bool
}

// Create makes a new chain file at path. It fails if path already exists.
func Create(path string) (*File, error) {
	if _, err := os.Stat(path); err == nil {
		return nil, fmt.Errorf("chain file %s already exists", path)
	}

	db, err := openDB(path)
	if err != nil {
		return nil, err
	}

	id := uuid.New()
	_, err = db.Exec(`INSERT INTO chain_file (file_id, created_unix_nano) VALUES (?, ?)`,
		id.String(), time.Now().UnixNano())
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to register chain file: %w", err)
	}

	monitoring.Named("sqlitechain").Info().Str("path", path).Stringer("file_id", id).
		Msg("created chain file")
	return &File{db: db, path: path, id: id}, nil
}

// ErrReadOnly is returned when writing to a file opened with Open.
var ErrReadOnly = errors.New("chain file is open read-only")

// Open opens an existing chain file for reading. The file is never written:
// it must already carry the chain schema at SchemaVersion, and files with an
// older schema must first be upgraded with OpenAppend.
func Open(path string) (*File, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("failed to stat chain file: %w", err)
	}

	db, err := sql.Open("sqlite", readOnlyDSN(path))
	if err != nil {
		return nil, err
	}
	if err := checkChainFile(db, path); err != nil {
		db.Close()
		return nil, err
	}

	v, dirty, err := schemaVersion(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	if dirty || v != SchemaVersion {
		db.Close()
		return nil, fmt.Errorf("chain file %s has schema version %d (dirty=%v), want %d: upgrade it with OpenAppend",
			path, v, dirty, SchemaVersion)
	}

	return openFile(db, path, true)
}

// OpenAppend opens an existing chain file for writing, upgrading its schema
// if needed. Files that are not chain files are left untouched.
func OpenAppend(path string) (*File, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("failed to stat chain file: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if err := checkChainFile(db, path); err != nil {
		db.Close()
		return nil, err
	}
	if err := prepareDB(db); err != nil {
		db.Close()
		return nil, err
	}
	return openFile(db, path, false)
}

func openFile(db *sql.DB, path string, readOnly bool) (*File, error) {
	var raw string
	if err := db.QueryRow(`SELECT file_id FROM chain_file LIMIT 1`).Scan(&raw); err != nil {
		db.Close()
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s is not a chain file", path)
		}
		return nil, fmt.Errorf("failed to read chain file id: %w", err)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("invalid chain file id %q: %w", raw, err)
	}
	return &File{db: db, path: path, id: id, readOnly: readOnly}, nil
}

// readOnlyDSN opens path with mode=ro and query_only so no statement can
// modify the file.
func readOnlyDSN(path string) string {
	return "file:" + (&url.URL{Path: path}).EscapedPath() +
		"?mode=ro&_pragma=busy_timeout(5000)&_pragma=query_only(1)"
}

// checkChainFile reports whether the chain_file table exists, without
// writing to the database.
func checkChainFile(db *sql.DB, path string) error {
	ok, err := hasTable(db, "chain_file")
	if err != nil {
		return fmt.Errorf("failed to inspect %s: %w", path, err)
	}
	if !ok {
		return fmt.Errorf("%s is not a chain file", path)
	}
	return nil
}

func hasTable(db *sql.DB, name string) (bool, error) {
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, name).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func openDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if err := prepareDB(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func prepareDB(db *sql.DB) error {
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("failed to apply %q: %w", p, err)
		}
	}
	return migrateUp(db)
}

// ID returns the UUID assigned when the file was created.
func (f *File) ID() uuid.UUID { return f.id }

// Path returns the path the file was opened from.
func (f *File) Path() string { return f.path }

// Branches returns the registered branch names, sorted.
func (f *File) Branches() ([]string, error) {
	rows, err := f.db.Query(`SELECT branch FROM branches ORDER BY branch`)
	if err != nil {
		return nil, fmt.Errorf("failed to list branches: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var b string
		if err := rows.Scan(&b); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// HasBranch reports whether branch is registered in the file.
func (f *File) HasBranch(branch string) (bool, error) {
	var n int
	err := f.db.QueryRow(`SELECT COUNT(*) FROM branches WHERE branch = ?`, branch).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to look up branch %q: %w", branch, err)
	}
	return n > 0, nil
}

// Entries returns the number of entries written for branch.
func (f *File) Entries(branch string) (int, error) {
	var n int
	err := f.db.QueryRow(`SELECT COUNT(*) FROM entries WHERE branch = ?`, branch).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count entries of %q: %w", branch, err)
	}
	return n, nil
}

// SchemaVersion returns the applied schema version.
func (f *File) SchemaVersion() (uint, error) {
	v, dirty, err := schemaVersion(f.db)
	if err != nil {
		return 0, err
	}
	if dirty {
		return v, fmt.Errorf("chain file %s has a dirty schema at version %d", f.path, v)
	}
	return v, nil
}

// ReadOnly reports whether f was opened with Open.
func (f *File) ReadOnly() bool { return f.readOnly }

func (f *File) Close() error {
	return f.db.Close()
}
