package config

import "os"

// VendorDir is the fixed hidden directory name under which every project's
// index lives. It is a process-wide constant, not user-configurable.
const VendorDir = ".symdex"

// Store configures where project indexes are written.
type Store struct {
	// Home is the directory standing in for the user's home directory when
	// deriving an index path. Index directories are created under
	// Home/VendorDir/indexes/<project-id>/.
	Home string
}

// DefaultStore returns a Store rooted at the process's home directory.
func DefaultStore() Store {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return Store{Home: home}
}

// LoadStoreFromEnv loads store configuration from environment variables,
// falling back to DefaultStore when unset.
//
// Supported variable:
//   - SYMDEX_INDEX_HOME: overrides the home directory indexes are rooted under.
func LoadStoreFromEnv() Store {
	cfg := DefaultStore()
	if v := os.Getenv("SYMDEX_INDEX_HOME"); v != "" {
		cfg.Home = v
	}
	return cfg
}
