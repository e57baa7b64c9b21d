package db

// SQLiteDialect implements the Dialect interface for SQLite.
type SQLiteDialect struct{}

// Verify interface compliance at compile time.
var _ Dialect = (*SQLiteDialect)(nil)

func (d *SQLiteDialect) Name() string {
	return "sqlite"
}

func (d *SQLiteDialect) InitStatements() []string {
	return []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
	}
}
