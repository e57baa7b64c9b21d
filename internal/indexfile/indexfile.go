// Package indexfile turns one file on disk into a FileRecord, applying
// the size/line/deadline gates a single pathological file must not be
// allowed to violate.
package indexfile

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"symdex/internal/classify"
	"symdex/internal/config"
	"symdex/internal/extract"
)

// WarningReason is the closed set of reasons a file can be warned about.
type WarningReason string

const (
	ReasonSize         WarningReason = "size"
	ReasonLines        WarningReason = "lines"
	ReasonLineLength   WarningReason = "line-length"
	ReasonTimeout      WarningReason = "timeout"
	ReasonRegexTimeout WarningReason = "regex-timeout"
	ReasonError        WarningReason = "error"
)

// Warning is a transient, non-persisted note about one file.
type Warning struct {
	RelativePath string
	Reason       WarningReason
	Details      string
	TimestampMS  int64
}

// FileRecord is everything the store needs to persist for one file.
type FileRecord struct {
	Path         string
	AbsolutePath string
	SizeBytes    uint64
	MtimeMS      float64
	ContentHash  string
	Language     classify.Language
	LineCount    int
	Symbols      []extract.Symbol
	Imports      []string
	Exports      []string
}

// softDeadline is when a long-running index_file call starts logging a
// soft warning via the caller-supplied sink, ahead of the hard deadline.
const softDeadline = 2 * time.Second

// IndexFile applies every gate from the file indexer contract and
// returns the resulting record, or nil if any gate rejected the file.
// warn is called for every gate that produces a Warning; it may be nil.
// A non-nil error means a read or decode failure occurred with
// limits.SkipOnError false; per §7 that propagates to the caller
// instead of being swallowed as a warning.
func IndexFile(absPath, projectRoot string, limits config.Limits, classifier *classify.Classifier, warn func(Warning)) (*FileRecord, error) {
	if warn == nil {
		warn = func(Warning) {}
	}

	relPath, err := filepath.Rel(projectRoot, absPath)
	if err != nil {
		relPath = absPath
	}
	relPath = filepath.ToSlash(relPath)

	deadline := time.Duration(limits.FileDeadlineMS) * time.Millisecond
	ctx, cancel := context.WithTimeout(context.Background(), deadline)
	defer cancel()

	if deadline > softDeadline {
		timer := time.AfterFunc(softDeadline, func() {
			warn(Warning{
				RelativePath: relPath,
				Reason:       ReasonTimeout,
				Details:      "indexing is taking longer than 2s",
				TimestampMS:  nowMS(),
			})
		})
		defer timer.Stop()
	}

	type outcome struct {
		record *FileRecord
		err    error
	}
	done := make(chan outcome, 1)

	go func() {
		record, err := indexFileInner(absPath, relPath, limits, classifier, warn)
		done <- outcome{record, err}
	}()

	select {
	case <-ctx.Done():
		warn(Warning{
			RelativePath: relPath,
			Reason:       ReasonTimeout,
			Details:      "exceeded file_deadline_ms",
			TimestampMS:  nowMS(),
		})
		return nil, nil
	case result := <-done:
		return result.record, result.err
	}
}

func indexFileInner(absPath, relPath string, limits config.Limits, classifier *classify.Classifier, warn func(Warning)) (*FileRecord, error) {
	if classifier.IsIgnored(relPath) {
		return nil, nil
	}
	if classify.IsBinary(absPath) {
		return nil, nil
	}

	info, err := os.Stat(absPath)
	if err != nil || !info.Mode().IsRegular() {
		return nil, nil
	}

	size := uint64(info.Size())
	if int64(size) > limits.MaxBytes {
		warn(Warning{RelativePath: relPath, Reason: ReasonSize, Details: "file exceeds max_bytes", TimestampMS: nowMS()})
		return nil, nil
	}

	contents, err := os.ReadFile(absPath)
	if err != nil || !utf8.Valid(contents) {
		details := "read error"
		if err == nil {
			details = "invalid UTF-8"
		}
		if limits.SkipOnError {
			warn(Warning{RelativePath: relPath, Reason: ReasonError, Details: details, TimestampMS: nowMS()})
			return nil, nil
		}
		if err == nil {
			err = fmt.Errorf("invalid UTF-8")
		}
		return nil, fmt.Errorf("indexing %s: %w", relPath, err)
	}

	text := string(contents)
	lines := splitLines(text)
	if len(lines) > limits.MaxLines {
		warn(Warning{RelativePath: relPath, Reason: ReasonLines, Details: "file exceeds max_lines", TimestampMS: nowMS()})
		return nil, nil
	}
	for _, line := range lines {
		if len(line) > limits.MaxLineChars {
			warn(Warning{RelativePath: relPath, Reason: ReasonLineLength, Details: "a line exceeds max_line_chars", TimestampMS: nowMS()})
			return nil, nil
		}
	}

	hash := contentHash(contents)
	lang := classify.LanguageOf(absPath)

	result := safeExtract(text, lang, relPath, warn)

	return &FileRecord{
		Path:         relPath,
		AbsolutePath: absPath,
		SizeBytes:    size,
		MtimeMS:      float64(info.ModTime().UnixMilli()),
		ContentHash:  hash,
		Language:     lang,
		LineCount:    len(lines),
		Symbols:      result.Symbols,
		Imports:      result.Imports,
		Exports:      result.Exports,
	}, nil
}

// safeExtract runs the extractor under a recover so one pathological
// file's regex blowup never aborts a batch.
func safeExtract(text string, lang classify.Language, relPath string, warn func(Warning)) (result extract.Result) {
	defer func() {
		if r := recover(); r != nil {
			warn(Warning{
				RelativePath: relPath,
				Reason:       ReasonRegexTimeout,
				Details:      "symbol extraction failed",
				TimestampMS:  nowMS(),
			})
			result = extract.Result{Symbols: []extract.Symbol{}, Imports: []string{}, Exports: []string{}}
		}
	}()
	return extract.Extract(text, lang)
}

// HasChanged reports whether the file at absPath differs from the last
// recorded (mtime, hash) pair. The mtime comparison is a fast path; a
// mismatch triggers a rehash so a touch-without-edit doesn't appear as
// a change.
func HasChanged(absPath string, lastMtimeMS float64, lastHash string) bool {
	info, err := os.Stat(absPath)
	if err != nil {
		return true
	}
	if float64(info.ModTime().UnixMilli()) == lastMtimeMS {
		return false
	}
	contents, err := os.ReadFile(absPath)
	if err != nil {
		return true
	}
	return contentHash(contents) != lastHash
}

func contentHash(contents []byte) string {
	sum := sha256.Sum256(contents)
	return hex.EncodeToString(sum[:])[:16]
}

// splitLines counts a trailing newline as ending its preceding line
// rather than starting an extra empty one, so a file of exactly N
// newline-terminated lines reports N, not N+1.
func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

func nowMS() int64 {
	return time.Now().UnixMilli()
}
