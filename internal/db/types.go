package db

import (
	"context"
	"database/sql"
)

// DriverType identifies the Go sql/driver implementation backing a Config.
type DriverType string

const (
	// DriverModernc is the pure-Go modernc.org/sqlite driver. It is the
	// only driver implemented; the type exists so a CGO-based driver could
	// be slotted in later without changing the Config shape.
	DriverModernc DriverType = "modernc"
)

// Config describes how to open a store.
type Config struct {
	// Type selects the dialect returned by Dialect (always DatabaseSQLite today).
	Type DatabaseType

	// Path is the SQLite database file path, or ":memory:" for an
	// in-process database.
	Path string

	// Driver selects the sql/driver implementation. Defaults to DriverModernc.
	Driver DriverType

	// EnableWAL turns on SQLite's write-ahead log, required for the
	// single-writer/multi-reader access pattern the store relies on.
	EnableWAL bool
}

// DefaultConfig returns a Config for a SQLite database at path with WAL
// mode enabled.
func DefaultConfig(path string) Config {
	return Config{
		Type:      DatabaseSQLite,
		Path:      path,
		Driver:    DriverModernc,
		EnableWAL: true,
	}
}

// Dialect returns the SQL dialect for this configuration.
func (c Config) Dialect() Dialect {
	return GetDialect(c.Type)
}

// DB is the storage adapter every store operation goes through. It mirrors
// database/sql's shape so a *sql.DB can be wrapped directly, while keeping
// callers independent of the concrete driver.
type DB interface {
	Query(query string, args ...any) (Rows, error)
	QueryContext(ctx context.Context, query string, args ...any) (Rows, error)
	QueryRow(query string, args ...any) Row
	QueryRowContext(ctx context.Context, query string, args ...any) Row
	Exec(query string, args ...any) (Result, error)
	ExecContext(ctx context.Context, query string, args ...any) (Result, error)
	Begin() (Tx, error)
	BeginTx(ctx context.Context, opts *sql.TxOptions) (Tx, error)
	Close() error
	Ping() error
	PingContext(ctx context.Context) error
}

// Rows is the adapter's cursor abstraction, matching *sql.Rows.
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Close() error
	Err() error
	Columns() ([]string, error)
}

// Row is the adapter's single-row abstraction, matching *sql.Row.
type Row interface {
	Scan(dest ...any) error
	Err() error
}

// Tx is a transaction obtained from DB.Begin/BeginTx.
type Tx interface {
	Query(query string, args ...any) (Rows, error)
	QueryRow(query string, args ...any) Row
	Exec(query string, args ...any) (Result, error)
	Prepare(query string) (Stmt, error)
	Commit() error
	Rollback() error
}

// Stmt is a prepared statement obtained from Tx.Prepare.
type Stmt interface {
	Exec(args ...any) (Result, error)
	Query(args ...any) (Rows, error)
	QueryRow(args ...any) Row
	Close() error
}

// Result is re-exported from database/sql; every driver satisfies it directly.
type Result = sql.Result
