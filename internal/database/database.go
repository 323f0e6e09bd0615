// Package database opens the relational store used by the table-backed
// writer and describes the SQL dialect differences between its drivers.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite" // pure go sqlite driver
)

// Supported driver names, as registered with database/sql.
const (
	DriverSQLite3 = "sqlite3" // mattn/go-sqlite3 (cgo)
	DriverSQLite  = "sqlite"  // modernc.org/sqlite (pure Go)
	DriverPgx     = "pgx"     // jackc/pgx stdlib (Postgres)
)

// Config describes how to reach the database.
type Config struct {
	// Driver is one of sqlite3, sqlite, pgx
	Driver string
	// Path is the SQLite database file (ignored when DSN is set)
	Path string
	// DSN overrides the connection string built from Path
	DSN string
	// MaxOpenConns caps the connection pool (0 = database/sql default)
	MaxOpenConns int
	// BusyTimeout is how long a SQLite writer waits for the lock
	BusyTimeout time.Duration
}

// DB is a connection pool plus the dialect of its driver.
type DB struct {
	*sql.DB
	Dialect Dialect
}

// Open opens and pings the database.
func Open(ctx context.Context, cfg Config) (*DB, error) {
	dialect, err := DialectFor(cfg.Driver)
	if err != nil {
		return nil, err
	}

	dsn := cfg.DSN
	if dsn == "" {
		if dialect.Name() == "postgres" {
			return nil, fmt.Errorf("database: driver %s requires a DSN", cfg.Driver)
		}
		if cfg.Path == "" {
			return nil, fmt.Errorf("database: driver %s requires a path or DSN", cfg.Driver)
		}
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0755); err != nil {
			return nil, fmt.Errorf("database: failed to create directory: %w", err)
		}
		dsn = SQLiteDSN(cfg.Driver, cfg.Path, cfg.BusyTimeout)
	}

	db, err := sql.Open(cfg.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("database: open %s: %w", cfg.Driver, err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
		db.SetMaxIdleConns(cfg.MaxOpenConns)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("database: ping %s: %w", cfg.Driver, err)
	}

	return &DB{DB: db, Dialect: dialect}, nil
}

// SQLiteDSN builds a file DSN with WAL journaling, a busy timeout and
// immediate transaction locking, so concurrent chunk writers queue on the
// write lock instead of failing with SQLITE_BUSY.
func SQLiteDSN(driver, path string, busyTimeout time.Duration) string {
	if busyTimeout <= 0 {
		busyTimeout = 5 * time.Second
	}
	ms := strconv.FormatInt(busyTimeout.Milliseconds(), 10)

	params := url.Values{}
	switch driver {
	case DriverSQLite:
		params.Add("_pragma", "busy_timeout("+ms+")")
		params.Add("_pragma", "journal_mode(WAL)")
		params.Add("_pragma", "synchronous(NORMAL)")
		params.Set("_txlock", "immediate")
	default:
		params.Set("_busy_timeout", ms)
		params.Set("_journal_mode", "WAL")
		params.Set("_synchronous", "NORMAL")
		params.Set("_txlock", "immediate")
	}
	return "file:" + path + "?" + params.Encode()
}

// Dialect captures the SQL differences between drivers.
type Dialect interface {
	// Name identifies the SQL dialect.
	Name() string
	// Placeholder returns the bind parameter for the 1-based position n.
	Placeholder(n int) string
}

// DialectFor returns the dialect for a driver name.
func DialectFor(driver string) (Dialect, error) {
	switch driver {
	case DriverSQLite3, DriverSQLite:
		return sqliteDialect{}, nil
	case DriverPgx:
		return postgresDialect{}, nil
	default:
		return nil, fmt.Errorf("database: unsupported driver %q (must be sqlite3, sqlite, or pgx)", driver)
	}
}

// Placeholders returns n comma-separated bind parameters.
func Placeholders(d Dialect, n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = d.Placeholder(i + 1)
	}
	return strings.Join(parts, ", ")
}

type sqliteDialect struct{}

func (sqliteDialect) Name() string           { return "sqlite" }
func (sqliteDialect) Placeholder(int) string { return "?" }

type postgresDialect struct{}

func (postgresDialect) Name() string             { return "postgres" }
func (postgresDialect) Placeholder(n int) string { return "$" + strconv.Itoa(n) }
