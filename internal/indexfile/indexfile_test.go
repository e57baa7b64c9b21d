package indexfile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"symdex/internal/classify"
	"symdex/internal/config"
)

func writeFile(t *testing.T, dir, name, contents string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestIndexFileBasic(t *testing.T) {
	root := t.TempDir()
	abs := writeFile(t, root, "a.ts", "export function greet(name: string): string { return name; }\n")
	classifier := classify.New(".symdex")

	rec, err := IndexFile(abs, root, config.DefaultLimits(), classifier, nil)
	if err != nil {
		t.Fatalf("IndexFile: %v", err)
	}
	if rec == nil {
		t.Fatal("expected a record")
	}
	if rec.Path != "a.ts" {
		t.Errorf("Path = %q, want a.ts", rec.Path)
	}
	if rec.Language != classify.TypeScript {
		t.Errorf("Language = %q, want TypeScript", rec.Language)
	}
	if len(rec.Symbols) != 1 || rec.Symbols[0].Name != "greet" {
		t.Errorf("unexpected symbols: %+v", rec.Symbols)
	}
	if len(rec.ContentHash) != 16 {
		t.Errorf("ContentHash len = %d, want 16", len(rec.ContentHash))
	}
}

func TestIndexFileIgnoredIsSilentlySkipped(t *testing.T) {
	root := t.TempDir()
	abs := writeFile(t, root, "node_modules/lib.js", "function f() {}\n")
	classifier := classify.New(".symdex")

	var warnings []Warning
	rec, err := IndexFile(abs, root, config.DefaultLimits(), classifier, func(w Warning) { warnings = append(warnings, w) })
	if err != nil {
		t.Fatalf("IndexFile: %v", err)
	}
	if rec != nil {
		t.Error("expected ignored file to produce no record")
	}
	if len(warnings) != 0 {
		t.Errorf("expected no warnings for an ignored file, got %+v", warnings)
	}
}

func TestIndexFileBinaryIsSilentlySkipped(t *testing.T) {
	root := t.TempDir()
	abs := writeFile(t, root, "logo.png", "not really a png")
	classifier := classify.New(".symdex")

	var warnings []Warning
	rec, err := IndexFile(abs, root, config.DefaultLimits(), classifier, func(w Warning) { warnings = append(warnings, w) })
	if err != nil {
		t.Fatalf("IndexFile: %v", err)
	}
	if rec != nil {
		t.Error("expected binary file to produce no record")
	}
	if len(warnings) != 0 {
		t.Errorf("expected no warnings for a binary file, got %+v", warnings)
	}
}

func TestIndexFileSizeGate(t *testing.T) {
	root := t.TempDir()
	abs := writeFile(t, root, "big.go", strings.Repeat("x", 100))
	classifier := classify.New(".symdex")
	limits := config.DefaultLimits()
	limits.MaxBytes = 10

	var warnings []Warning
	rec, err := IndexFile(abs, root, limits, classifier, func(w Warning) { warnings = append(warnings, w) })
	if err != nil {
		t.Fatalf("IndexFile: %v", err)
	}
	if rec != nil {
		t.Error("expected oversized file to be rejected")
	}
	if len(warnings) != 1 || warnings[0].Reason != ReasonSize {
		t.Errorf("expected a size warning, got %+v", warnings)
	}
}

func TestIndexFileAtExactlyMaxBytesIsAccepted(t *testing.T) {
	root := t.TempDir()
	content := strings.Repeat("a", 10)
	abs := writeFile(t, root, "exact.go", content)
	classifier := classify.New(".symdex")
	limits := config.DefaultLimits()
	limits.MaxBytes = int64(len(content))

	rec, err := IndexFile(abs, root, limits, classifier, nil)
	if err != nil {
		t.Fatalf("IndexFile: %v", err)
	}
	if rec == nil {
		t.Error("expected file at exactly max_bytes to be accepted")
	}
}

func TestIndexFileLinesGate(t *testing.T) {
	root := t.TempDir()
	content := strings.Repeat("line\n", 20)
	abs := writeFile(t, root, "many.go", content)
	classifier := classify.New(".symdex")
	limits := config.DefaultLimits()
	limits.MaxLines = 5

	var warnings []Warning
	rec, err := IndexFile(abs, root, limits, classifier, func(w Warning) { warnings = append(warnings, w) })
	if err != nil {
		t.Fatalf("IndexFile: %v", err)
	}
	if rec != nil {
		t.Error("expected file exceeding max_lines to be rejected")
	}
	if len(warnings) != 1 || warnings[0].Reason != ReasonLines {
		t.Errorf("expected a lines warning, got %+v", warnings)
	}
}

// TestIndexFileAtExactlyMaxLinesWithTrailingNewlineIsAccepted implements
// testable property 11: a file of exactly max_lines content lines,
// newline-terminated, must not be rejected as having max_lines+1 lines.
func TestIndexFileAtExactlyMaxLinesWithTrailingNewlineIsAccepted(t *testing.T) {
	root := t.TempDir()
	content := strings.Repeat("line\n", 5)
	abs := writeFile(t, root, "exact-lines.go", content)
	classifier := classify.New(".symdex")
	limits := config.DefaultLimits()
	limits.MaxLines = 5

	rec, err := IndexFile(abs, root, limits, classifier, nil)
	if err != nil {
		t.Fatalf("IndexFile: %v", err)
	}
	if rec == nil {
		t.Fatal("expected file at exactly max_lines to be accepted")
	}
	if rec.LineCount != 5 {
		t.Errorf("LineCount = %d, want 5", rec.LineCount)
	}
}

func TestIndexFileLineLengthGate(t *testing.T) {
	root := t.TempDir()
	abs := writeFile(t, root, "longline.go", strings.Repeat("x", 50)+"\n")
	classifier := classify.New(".symdex")
	limits := config.DefaultLimits()
	limits.MaxLineChars = 10

	var warnings []Warning
	rec, err := IndexFile(abs, root, limits, classifier, func(w Warning) { warnings = append(warnings, w) })
	if err != nil {
		t.Fatalf("IndexFile: %v", err)
	}
	if rec != nil {
		t.Error("expected file with an overlong line to be rejected")
	}
	if len(warnings) != 1 || warnings[0].Reason != ReasonLineLength {
		t.Errorf("expected a line-length warning, got %+v", warnings)
	}
}

func TestIndexFileDeadlineExceeded(t *testing.T) {
	root := t.TempDir()
	abs := writeFile(t, root, "slow.go", "package main\n")
	classifier := classify.New(".symdex")
	limits := config.DefaultLimits()
	limits.FileDeadlineMS = 0

	rec, err := IndexFile(abs, root, limits, classifier, nil)
	if err != nil {
		t.Fatalf("IndexFile: %v", err)
	}
	if rec != nil {
		t.Error("expected a zero deadline to reject the file")
	}
}

// TestIndexFileSkipOnErrorFalsePropagatesDecodeError implements §7's
// IoError/DecodeError row: with skip_on_error=false, an invalid-UTF-8
// file surfaces as an error instead of a swallowed warning or a panic.
func TestIndexFileSkipOnErrorFalsePropagatesDecodeError(t *testing.T) {
	root := t.TempDir()
	abs := writeFile(t, root, "invalid.go", string([]byte{0xff, 0xfe, 0xfd}))
	classifier := classify.New(".symdex")
	limits := config.DefaultLimits()
	limits.SkipOnError = false

	rec, err := IndexFile(abs, root, limits, classifier, nil)
	if err == nil {
		t.Fatal("expected an error for invalid UTF-8 with skip_on_error=false")
	}
	if rec != nil {
		t.Error("expected no record alongside a propagated error")
	}
}

func TestHasChangedDetectsEditAndMissingFile(t *testing.T) {
	root := t.TempDir()
	abs := writeFile(t, root, "a.go", "package main\n")
	info, _ := os.Stat(abs)
	mtime := float64(info.ModTime().UnixMilli())
	hash := contentHash([]byte("package main\n"))

	if HasChanged(abs, mtime, hash) {
		t.Error("expected unchanged file to report unchanged")
	}

	time.Sleep(10 * time.Millisecond)
	if err := os.WriteFile(abs, []byte("package main\n\nfunc f() {}\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if !HasChanged(abs, mtime, hash) {
		t.Error("expected edited file to report changed")
	}

	if !HasChanged(filepath.Join(root, "missing.go"), mtime, hash) {
		t.Error("expected missing file to report changed")
	}
}
