// Package project locates a project's on-disk index directory and lists
// every project this host has indexed.
package project

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"symdex/internal/config"
	"symdex/internal/db"
)

// indexFileName is the store file inside every project's index directory.
const indexFileName = "index.db"

// ID returns the 16-hex-digit project identifier for root: a truncated
// SHA-256 hash of its canonicalized absolute path.
func ID(root string) (string, error) {
	canon, err := canonicalize(root)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256([]byte(canon))
	return hex.EncodeToString(sum[:])[:16], nil
}

func canonicalize(root string) (string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolving absolute path: %w", err)
	}
	return filepath.Clean(abs), nil
}

// indexesDir returns <store.Home>/<vendor-dir>/indexes.
func indexesDir(store config.Store) string {
	return filepath.Join(store.Home, config.VendorDir, "indexes")
}

// DirFor returns the index directory for root. It does not create it.
func DirFor(store config.Store, root string) (string, error) {
	id, err := ID(root)
	if err != nil {
		return "", err
	}
	return filepath.Join(indexesDir(store), id), nil
}

// FileFor returns the store file path for root, creating the parent
// directory if it does not yet exist.
func FileFor(store config.Store, root string) (string, error) {
	dir, err := DirFor(store, root)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating index directory: %w", err)
	}
	return filepath.Join(dir, indexFileName), nil
}

// Delete removes a project's entire index directory, if present.
func Delete(store config.Store, root string) error {
	dir, err := DirFor(store, root)
	if err != nil {
		return err
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("removing index directory: %w", err)
	}
	return nil
}

// Info describes one indexed project as reported by ListAll.
type Info struct {
	Root        string
	ID          string
	IndexedAtMS int64
}

// ListAll enumerates every project indexed under store's indexes directory.
// Each candidate store is opened and its metadata rows inspected;
// stores that are missing, unreadable, or lack the expected schema are
// silently skipped rather than failing the whole listing.
func ListAll(store config.Store) ([]Info, error) {
	root := indexesDir(store)
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading indexes directory: %w", err)
	}

	var infos []Info
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		id := e.Name()
		dbPath := filepath.Join(root, id, indexFileName)
		info, ok := readProjectInfo(dbPath, id)
		if !ok {
			continue
		}
		infos = append(infos, info)
	}
	return infos, nil
}

func readProjectInfo(dbPath, id string) (Info, bool) {
	if _, err := os.Stat(dbPath); err != nil {
		return Info{}, false
	}

	conn, err := db.OpenModernc(db.Config{Path: dbPath, Driver: db.DriverModernc})
	if err != nil {
		return Info{}, false
	}
	defer conn.Close()

	projectRoot, err := getMetadataValue(conn, "project_root")
	if err != nil {
		return Info{}, false
	}

	indexedAtRaw, err := getMetadataValue(conn, "indexed_at")
	if err != nil {
		return Info{}, false
	}

	var indexedAt int64
	if _, err := fmt.Sscanf(indexedAtRaw, "%d", &indexedAt); err != nil {
		return Info{}, false
	}

	return Info{Root: projectRoot, ID: id, IndexedAtMS: indexedAt}, true
}

func getMetadataValue(conn db.DB, key string) (string, error) {
	row := conn.QueryRow(`SELECT value FROM metadata WHERE key = ?`, key)
	var value string
	if err := row.Scan(&value); err != nil {
		return "", err
	}
	return value, nil
}
