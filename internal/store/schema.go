package store

import "symdex/internal/db"

const schemaVersion = 1

const schema = `
CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS files (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    path TEXT NOT NULL UNIQUE,
    absolute_path TEXT NOT NULL,
    size INTEGER NOT NULL,
    mtime_real REAL NOT NULL,
    hash TEXT NOT NULL,
    language TEXT,
    lines INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS symbols (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    file_id INTEGER NOT NULL REFERENCES files(id) ON DELETE CASCADE,
    name TEXT NOT NULL,
    type TEXT NOT NULL,
    line INTEGER NOT NULL,
    end_line INTEGER,
    signature TEXT,
    exported INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS imports (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    file_id INTEGER NOT NULL REFERENCES files(id) ON DELETE CASCADE,
    module TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS exports (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    file_id INTEGER NOT NULL REFERENCES files(id) ON DELETE CASCADE,
    name TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS metadata (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_symbols_name ON symbols(name);
CREATE INDEX IF NOT EXISTS idx_symbols_file_id ON symbols(file_id);
CREATE INDEX IF NOT EXISTS idx_symbols_type ON symbols(type);
CREATE INDEX IF NOT EXISTS idx_symbols_exported ON symbols(exported);
CREATE INDEX IF NOT EXISTS idx_imports_module ON imports(module);
CREATE INDEX IF NOT EXISTS idx_files_path ON files(path);
CREATE INDEX IF NOT EXISTS idx_files_language ON files(language);
`

// initSchema brings conn up to schemaVersion, creating tables and indices
// on first use. The dialect's init statements (WAL mode, foreign keys) are
// run per-connection since SQLite does not persist them in the database
// file itself.
func initSchema(conn db.DB) error {
	for _, stmt := range db.GetDialect(db.DatabaseSQLite).InitStatements() {
		if _, err := conn.Exec(stmt); err != nil {
			return err
		}
	}

	var version int
	err := conn.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&version)
	if err == nil && version >= schemaVersion {
		return nil
	}

	if _, err := conn.Exec(schema); err != nil {
		return err
	}
	if _, err := conn.Exec("DELETE FROM schema_version"); err != nil {
		return err
	}
	if _, err := conn.Exec("INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return err
	}
	return nil
}
