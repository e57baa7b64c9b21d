package config

import (
	"os"
	"strconv"
)

// Limits bounds the work the file indexer does on a single file, so one
// enormous or pathological file can't stall an entire scan.
type Limits struct {
	// MaxBytes is the largest file size that will be read and indexed.
	MaxBytes int64

	// MaxLines is the largest line count that will be indexed.
	MaxLines int

	// MaxLineChars is the largest single line length that will be indexed.
	MaxLineChars int

	// FileDeadlineMS bounds wall-clock time spent indexing one file.
	FileDeadlineMS int

	// SkipOnError controls whether a read or decode failure is recorded as
	// a warning and skipped (true) or propagated to the caller (false).
	SkipOnError bool
}

// DefaultLimits returns the limits a fresh session starts with.
func DefaultLimits() Limits {
	return Limits{
		MaxBytes:       1 << 20, // 1 MiB
		MaxLines:       10_000,
		MaxLineChars:   10_000,
		FileDeadlineMS: 5_000,
		SkipOnError:    true,
	}
}

// LoadLimitsFromEnv loads indexing limits from environment variables,
// falling back to DefaultLimits for anything unset or unparsable.
//
// Supported variables:
//   - SYMDEX_MAX_BYTES
//   - SYMDEX_MAX_LINES
//   - SYMDEX_MAX_LINE_CHARS
//   - SYMDEX_FILE_DEADLINE_MS
//   - SYMDEX_SKIP_ON_ERROR ("true"/"false")
func LoadLimitsFromEnv() Limits {
	cfg := DefaultLimits()

	if v := os.Getenv("SYMDEX_MAX_BYTES"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			cfg.MaxBytes = n
		}
	}

	if v := os.Getenv("SYMDEX_MAX_LINES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MaxLines = n
		}
	}

	if v := os.Getenv("SYMDEX_MAX_LINE_CHARS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MaxLineChars = n
		}
	}

	if v := os.Getenv("SYMDEX_FILE_DEADLINE_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.FileDeadlineMS = n
		}
	}

	if v := os.Getenv("SYMDEX_SKIP_ON_ERROR"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.SkipOnError = b
		}
	}

	return cfg
}
