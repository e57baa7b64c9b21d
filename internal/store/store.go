// Package store persists indexed file and symbol data in a SQLite
// database and answers the query surface's lookups against it.
package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/bmatcuk/doublestar/v4"

	"symdex/internal/db"
	"symdex/internal/extract"
	"symdex/internal/indexfile"
)

// Store wraps a single SQLite database holding one project's index.
type Store struct {
	conn db.DB
}

// Open opens (creating if necessary) the SQLite database at path and
// brings its schema up to date. The store is a single-writer resource:
// the pool is capped at one connection so PRAGMA foreign_keys applies
// to every statement the store issues.
func Open(path string) (*Store, error) {
	cfg := db.DefaultConfig(path)
	moderncDB, err := db.OpenModernc(cfg)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	moderncDB.Unwrap().SetMaxOpenConns(1)

	if err := initSchema(moderncDB); err != nil {
		moderncDB.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}

	return &Store{conn: moderncDB}, nil
}

// Close releases the underlying database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

// FileMeta is the subset of a file's stored record needed to decide
// whether it has changed since it was last indexed.
type FileMeta struct {
	Path         string
	AbsolutePath string
	MtimeMS      float64
	Hash         string
}

// SymbolResult is a symbol together with the file it lives in and, when
// returned from SearchSymbols, the rank it scored.
type SymbolResult struct {
	Name      string
	Kind      extract.Kind
	Path      string
	Line      int
	EndLine   *int
	Signature string
	Exported  bool
	Score     int
}

// Stats summarizes the current contents of the store.
type Stats struct {
	TotalFiles   int
	TotalSymbols int
	TotalSize    int64
	Languages    map[string]int
	IndexedAtMS  int64
}

// InsertBatch replaces the stored record for every file in batch: each
// file's prior row (and its symbols/imports/exports, via cascade) is
// deleted, then the new record is inserted. The whole batch commits or
// rolls back as one transaction.
func (s *Store) InsertBatch(records []indexfile.FileRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.conn.Begin()
	if err != nil {
		return fmt.Errorf("beginning batch transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			tx.Rollback()
		}
	}()

	for _, rec := range records {
		if _, err := tx.Exec("DELETE FROM files WHERE path = ?", rec.Path); err != nil {
			return fmt.Errorf("clearing prior row for %s: %w", rec.Path, err)
		}

		result, err := tx.Exec(
			`INSERT INTO files (path, absolute_path, size, mtime_real, hash, language, lines)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			rec.Path, rec.AbsolutePath, rec.SizeBytes, rec.MtimeMS, rec.ContentHash,
			string(rec.Language), rec.LineCount,
		)
		if err != nil {
			return fmt.Errorf("inserting file %s: %w", rec.Path, err)
		}
		fileID, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("reading file id for %s: %w", rec.Path, err)
		}

		for _, sym := range rec.Symbols {
			if _, err := tx.Exec(
				`INSERT INTO symbols (file_id, name, type, line, end_line, signature, exported)
				 VALUES (?, ?, ?, ?, ?, ?, ?)`,
				fileID, sym.Name, string(sym.Kind), sym.StartLine, sym.EndLine, sym.Signature, sym.Exported,
			); err != nil {
				return fmt.Errorf("inserting symbol %s in %s: %w", sym.Name, rec.Path, err)
			}
		}
		for _, imp := range rec.Imports {
			if _, err := tx.Exec(`INSERT INTO imports (file_id, module) VALUES (?, ?)`, fileID, imp); err != nil {
				return fmt.Errorf("inserting import %s in %s: %w", imp, rec.Path, err)
			}
		}
		for _, exp := range rec.Exports {
			if _, err := tx.Exec(`INSERT INTO exports (file_id, name) VALUES (?, ?)`, fileID, exp); err != nil {
				return fmt.Errorf("inserting export %s in %s: %w", exp, rec.Path, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing batch: %w", err)
	}
	committed = true
	return nil
}

// DeleteFile removes a file's row and, via cascade, its symbols,
// imports and exports.
func (s *Store) DeleteFile(path string) error {
	_, err := s.conn.Exec("DELETE FROM files WHERE path = ?", path)
	return err
}

// SetMetadata upserts a scalar metadata value.
func (s *Store) SetMetadata(key, value string) error {
	_, err := s.conn.Exec(
		`INSERT INTO metadata (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	return err
}

// GetMetadata reads a scalar metadata value. It returns "", nil if the
// key is unset.
func (s *Store) GetMetadata(key string) (string, error) {
	var value string
	err := s.conn.QueryRow("SELECT value FROM metadata WHERE key = ?", key).Scan(&value)
	if err != nil {
		if isNoRows(err) {
			return "", nil
		}
		return "", err
	}
	return value, nil
}

// GetAllFiles returns every stored file's change-detection metadata.
func (s *Store) GetAllFiles() ([]FileMeta, error) {
	rows, err := s.conn.Query("SELECT path, absolute_path, mtime_real, hash FROM files")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []FileMeta
	for rows.Next() {
		var m FileMeta
		if err := rows.Scan(&m.Path, &m.AbsolutePath, &m.MtimeMS, &m.Hash); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// GetAllPaths returns every stored file path, sorted.
func (s *Store) GetAllPaths() ([]string, error) {
	rows, err := s.conn.Query("SELECT path FROM files ORDER BY path ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// HasData reports whether the store holds at least one file.
func (s *Store) HasData() (bool, error) {
	var count int
	err := s.conn.QueryRow("SELECT COUNT(*) FROM files").Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// SearchSymbols finds symbols whose name contains query, case
// insensitively, and ranks them: an exact case-sensitive match scores
// 100, a case-insensitive exact match 90, a case-insensitive prefix
// match 70, and any other case-insensitive substring match 50. Results
// are ordered by score descending, then exported symbols first, then
// name ascending.
func (s *Store) SearchSymbols(query string, limit int) ([]SymbolResult, error) {
	if query == "" {
		return nil, nil
	}

	rows, err := s.conn.Query(
		`SELECT s.name, s.type, f.path, s.line, s.end_line, s.signature, s.exported,
		        CASE
		          WHEN s.name = ? THEN 100
		          WHEN s.name = ? COLLATE NOCASE THEN 90
		          WHEN s.name LIKE ? THEN 70
		          ELSE 50
		        END AS score
		 FROM symbols s
		 JOIN files f ON f.id = s.file_id
		 WHERE s.name LIKE ?
		 ORDER BY score DESC, s.exported DESC, s.name ASC
		 LIMIT ?`,
		query, query, query+"%", "%"+query+"%", limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SymbolResult
	for rows.Next() {
		var r SymbolResult
		var kind string
		var endLine *int
		if err := rows.Scan(&r.Name, &kind, &r.Path, &r.Line, &endLine, &r.Signature, &r.Exported, &r.Score); err != nil {
			return nil, err
		}
		r.Kind = extract.Kind(kind)
		r.EndLine = endLine
		out = append(out, r)
	}
	return out, rows.Err()
}

// FindFiles returns stored file paths containing substr, case
// insensitively, ordered by path.
func (s *Store) FindFiles(substr string, limit int) ([]string, error) {
	rows, err := s.conn.Query(
		"SELECT path FROM files WHERE path LIKE ? ORDER BY path ASC LIMIT ?",
		"%"+substr+"%", limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanStrings(rows)
}

// GlobFiles returns stored file paths matching a doublestar glob
// pattern, sorted.
func (s *Store) GlobFiles(pattern string, limit int) ([]string, error) {
	paths, err := s.GetAllPaths()
	if err != nil {
		return nil, err
	}

	var out []string
	for _, p := range paths {
		ok, err := doublestar.Match(pattern, p)
		if err != nil {
			return nil, fmt.Errorf("invalid glob pattern %q: %w", pattern, err)
		}
		if ok {
			out = append(out, p)
			if limit > 0 && len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

// FindFilesByName returns stored paths whose base name equals name,
// matching either the whole path (a root-level file) or a "/name"
// suffix.
func (s *Store) FindFilesByName(name string, limit int) ([]string, error) {
	suffix := "/" + name
	rows, err := s.conn.Query(
		"SELECT path FROM files WHERE path = ? OR substr(path, -length(?)) = ? ORDER BY path ASC LIMIT ?",
		name, suffix, suffix, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanStrings(rows)
}

// GetFileSymbols returns every symbol stored for path, ordered by
// starting line.
func (s *Store) GetFileSymbols(path string) ([]SymbolResult, error) {
	rows, err := s.conn.Query(
		`SELECT s.name, s.type, f.path, s.line, s.end_line, s.signature, s.exported
		 FROM symbols s
		 JOIN files f ON f.id = s.file_id
		 WHERE f.path = ?
		 ORDER BY s.line ASC`,
		path,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SymbolResult
	for rows.Next() {
		var r SymbolResult
		var kind string
		var endLine *int
		if err := rows.Scan(&r.Name, &kind, &r.Path, &r.Line, &endLine, &r.Signature, &r.Exported); err != nil {
			return nil, err
		}
		r.Kind = extract.Kind(kind)
		r.EndLine = endLine
		out = append(out, r)
	}
	return out, rows.Err()
}

// FindImporters returns the distinct paths of files that import a
// module whose name contains moduleSubstr.
func (s *Store) FindImporters(moduleSubstr string) ([]string, error) {
	rows, err := s.conn.Query(
		`SELECT DISTINCT f.path
		 FROM imports i
		 JOIN files f ON f.id = i.file_id
		 WHERE i.module LIKE ?
		 ORDER BY f.path ASC`,
		"%"+moduleSubstr+"%",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanStrings(rows)
}

// GetStats summarizes the store's current contents. total_files,
// total_symbols and indexed_at come from the metadata map: the index
// manager writes all three after a full build and only indexed_at after
// an update, so the two counts reflect the last full build. total_size
// and the language histogram are computed live against the current rows.
func (s *Store) GetStats() (Stats, error) {
	stats := Stats{Languages: map[string]int{}}

	totalFiles, err := s.GetMetadata("total_files")
	if err != nil {
		return stats, err
	}
	fmt.Sscanf(totalFiles, "%d", &stats.TotalFiles)

	totalSymbols, err := s.GetMetadata("total_symbols")
	if err != nil {
		return stats, err
	}
	fmt.Sscanf(totalSymbols, "%d", &stats.TotalSymbols)

	var totalSize *int64
	if err := s.conn.QueryRow("SELECT SUM(size) FROM files").Scan(&totalSize); err != nil {
		return stats, err
	}
	if totalSize != nil {
		stats.TotalSize = *totalSize
	}

	rows, err := s.conn.Query("SELECT language, COUNT(*) FROM files WHERE language IS NOT NULL AND language != '' GROUP BY language")
	if err != nil {
		return stats, err
	}
	defer rows.Close()
	for rows.Next() {
		var lang string
		var count int
		if err := rows.Scan(&lang, &count); err != nil {
			return stats, err
		}
		stats.Languages[lang] = count
	}
	if err := rows.Err(); err != nil {
		return stats, err
	}

	indexedAt, err := s.GetMetadata("indexed_at")
	if err != nil {
		return stats, err
	}
	fmt.Sscanf(indexedAt, "%d", &stats.IndexedAtMS)

	return stats, nil
}

func scanStrings(rows db.Rows) ([]string, error) {
	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
