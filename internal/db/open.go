package db

import "fmt"

// Open opens a database connection using the driver specified in config.
// Only DriverModernc is implemented.
func Open(cfg Config) (DB, error) {
	switch cfg.Driver {
	case DriverModernc, "": // Default to modernc
		return OpenModernc(cfg)

	default:
		return nil, fmt.Errorf("unknown database driver: %s", cfg.Driver)
	}
}

// MustOpen opens a database connection and panics on error.
// Useful for testing and simple scripts.
func MustOpen(cfg Config) DB {
	db, err := Open(cfg)
	if err != nil {
		panic(fmt.Sprintf("failed to open database: %v", err))
	}
	return db
}
