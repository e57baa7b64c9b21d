package config

import (
	"os"
	"testing"
)

func TestDefaultLimits(t *testing.T) {
	l := DefaultLimits()

	if l.MaxBytes != 1<<20 {
		t.Errorf("MaxBytes = %d, want %d", l.MaxBytes, 1<<20)
	}
	if l.MaxLines != 10_000 {
		t.Errorf("MaxLines = %d, want %d", l.MaxLines, 10_000)
	}
	if l.MaxLineChars != 10_000 {
		t.Errorf("MaxLineChars = %d, want %d", l.MaxLineChars, 10_000)
	}
	if l.FileDeadlineMS != 5_000 {
		t.Errorf("FileDeadlineMS = %d, want %d", l.FileDeadlineMS, 5_000)
	}
	if !l.SkipOnError {
		t.Error("SkipOnError should default to true")
	}
}

func TestLoadLimitsFromEnv(t *testing.T) {
	envVars := []string{
		"SYMDEX_MAX_BYTES", "SYMDEX_MAX_LINES", "SYMDEX_MAX_LINE_CHARS",
		"SYMDEX_FILE_DEADLINE_MS", "SYMDEX_SKIP_ON_ERROR",
	}
	for _, key := range envVars {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	t.Run("defaults when unset", func(t *testing.T) {
		cfg := LoadLimitsFromEnv()
		if cfg != DefaultLimits() {
			t.Errorf("got %+v, want defaults %+v", cfg, DefaultLimits())
		}
	})

	t.Run("overrides from env", func(t *testing.T) {
		t.Setenv("SYMDEX_MAX_BYTES", "2048")
		t.Setenv("SYMDEX_MAX_LINES", "500")
		t.Setenv("SYMDEX_MAX_LINE_CHARS", "200")
		t.Setenv("SYMDEX_FILE_DEADLINE_MS", "1000")
		t.Setenv("SYMDEX_SKIP_ON_ERROR", "false")

		cfg := LoadLimitsFromEnv()
		if cfg.MaxBytes != 2048 {
			t.Errorf("MaxBytes = %d, want 2048", cfg.MaxBytes)
		}
		if cfg.MaxLines != 500 {
			t.Errorf("MaxLines = %d, want 500", cfg.MaxLines)
		}
		if cfg.MaxLineChars != 200 {
			t.Errorf("MaxLineChars = %d, want 200", cfg.MaxLineChars)
		}
		if cfg.FileDeadlineMS != 1000 {
			t.Errorf("FileDeadlineMS = %d, want 1000", cfg.FileDeadlineMS)
		}
		if cfg.SkipOnError {
			t.Error("SkipOnError should be false")
		}
	})

	t.Run("invalid values fall back to defaults", func(t *testing.T) {
		t.Setenv("SYMDEX_MAX_BYTES", "not-a-number")
		cfg := LoadLimitsFromEnv()
		if cfg.MaxBytes != DefaultLimits().MaxBytes {
			t.Errorf("MaxBytes = %d, want default %d", cfg.MaxBytes, DefaultLimits().MaxBytes)
		}
	})
}
