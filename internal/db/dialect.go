package db

// Dialect carries the handful of SQL behaviors that differ across
// backends. The store's schema itself is a single static SQL string,
// so the dialect's job is limited to per-connection setup; a second
// backend could still be added behind this interface without touching
// the store.
type Dialect interface {
	// Name returns the dialect name (e.g., "sqlite").
	Name() string

	// InitStatements returns statements run once right after a connection opens.
	InitStatements() []string
}

// DatabaseType identifies the database engine.
type DatabaseType string

const (
	// DatabaseSQLite is the only supported database engine.
	DatabaseSQLite DatabaseType = "sqlite"
)

// GetDialect returns the dialect for the given database type. Only
// DatabaseSQLite is implemented; any other value still returns the SQLite
// dialect since it's the only engine OpenModernc supports.
func GetDialect(dbType DatabaseType) Dialect {
	return &SQLiteDialect{}
}
