// Package manager drives a project's full and incremental indexing
// runs: it owns the project root and the store handle, and serializes
// every write through them.
package manager

import (
	"context"
	"log/slog"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"symdex/internal/classify"
	"symdex/internal/config"
	"symdex/internal/indexfile"
	"symdex/internal/logging"
	"symdex/internal/project"
	"symdex/internal/schedule"
	"symdex/internal/store"
	"symdex/internal/walker"
)

// Phase is one stage of a build or update run, reported to a caller's
// progress callback.
type Phase string

const (
	PhaseScanning    Phase = "scanning"
	PhaseIndexing    Phase = "indexing"
	PhaseCalculating Phase = "calculating"
	PhaseSaving      Phase = "saving"
)

// ProgressFunc receives phase transitions and, during indexing, a
// monotone (done, total) count.
type ProgressFunc func(phase Phase, done, total int)

// batchSize is the number of pending records flushed to the store in
// one transaction.
const batchSize = 50

// Stats summarizes the outcome of a build or update run. For
// update_index, the counts describe the delta, not the whole store.
type Stats struct {
	TotalFiles   int
	TotalSymbols int
	TotalSize    int64
	Languages    map[string]int
	Duration     time.Duration
	Warnings     []indexfile.Warning
}

// Manager is the project-scoped handle build_index, update_index and
// index_file operate against.
type Manager struct {
	root       string
	store      *store.Store
	classifier *classify.Classifier
	limits     config.Limits
	log        *slog.Logger
}

// Open opens (creating if necessary) the index store for root under
// store config storeCfg.
func Open(root string, storeCfg config.Store) (*Manager, error) {
	dbPath, err := project.FileFor(storeCfg, root)
	if err != nil {
		return nil, err
	}

	s, err := store.Open(dbPath)
	if err != nil {
		return nil, err
	}

	return &Manager{
		root:       root,
		store:      s,
		classifier: classify.New(config.VendorDir),
		limits:     config.DefaultLimits(),
		log:        logging.Default("manager"),
	}, nil
}

// Close releases the underlying store handle.
func (m *Manager) Close() error {
	return m.store.Close()
}

// Load reports whether the store already holds a built index.
func (m *Manager) Load() (bool, error) {
	return m.store.HasData()
}

// The remaining methods pass the query surface straight through to the
// store; the manager's job is serializing writes, not re-implementing
// reads.

func (m *Manager) SearchSymbols(query string, limit int) ([]store.SymbolResult, error) {
	return m.store.SearchSymbols(query, limit)
}

func (m *Manager) FindFiles(substr string, limit int) ([]string, error) {
	return m.store.FindFiles(substr, limit)
}

func (m *Manager) GlobFiles(pattern string, limit int) ([]string, error) {
	return m.store.GlobFiles(pattern, limit)
}

func (m *Manager) FindFilesByName(name string, limit int) ([]string, error) {
	return m.store.FindFilesByName(name, limit)
}

func (m *Manager) GetFileSymbols(path string) ([]store.SymbolResult, error) {
	return m.store.GetFileSymbols(path)
}

func (m *Manager) FindImporters(moduleSubstr string) ([]string, error) {
	return m.store.FindImporters(moduleSubstr)
}

func (m *Manager) GetStats() (store.Stats, error) {
	return m.store.GetStats()
}

func noopProgress(Phase, int, int) {}

// indexOutcome is what one scheduled indexfile.IndexFile call produces:
// a record to persist, or a fatal error that must abort the run.
type indexOutcome struct {
	rec *indexfile.FileRecord
	err error
}

// BuildIndex performs a full scan and index of the project root,
// flushing records to the store in batches of batchSize. A batch
// insert failure is logged and does not abort the run; already
// committed batches remain. A fatal per-file error (skip_on_error=false
// hitting an unreadable or undecodable file) aborts the run and is
// returned to the caller once already in-flight files finish.
func (m *Manager) BuildIndex(progressCb ProgressFunc, limits config.Limits) (Stats, error) {
	if progressCb == nil {
		progressCb = noopProgress
	}
	start := time.Now()

	progressCb(PhaseScanning, 0, 0)
	total := walker.CountFiles(m.root, walker.DefaultMaxDepth, m.classifier)
	progressCb(PhaseIndexing, 0, total)

	files := walker.Scan(m.root, walker.DefaultMaxDepth, m.classifier)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var warnMu sync.Mutex
	var warnings []indexfile.Warning
	var pending []indexfile.FileRecord
	var fatalErr error
	flush := func() {
		if len(pending) == 0 {
			return
		}
		if err := m.store.InsertBatch(pending); err != nil {
			m.log.Error("batch insert failed", "error", err, "batch_size", len(pending))
		}
		pending = pending[:0]
	}

	worker := func(absPath string) indexOutcome {
		rec, err := indexfile.IndexFile(absPath, m.root, limits, m.classifier, func(w indexfile.Warning) {
			warnMu.Lock()
			warnings = append(warnings, w)
			warnMu.Unlock()
		})
		return indexOutcome{rec, err}
	}

	schedule.Run(ctx, files, schedule.DefaultWorkers(), worker,
		func(_ string, out indexOutcome) {
			if out.err != nil {
				if fatalErr == nil {
					fatalErr = out.err
					cancel()
				}
				return
			}
			if out.rec == nil {
				return
			}
			pending = append(pending, *out.rec)
			if len(pending) >= batchSize {
				flush()
			}
		},
		func(done, total int) {
			progressCb(PhaseIndexing, done, total)
		},
	)
	flush()

	if fatalErr != nil {
		return Stats{}, fatalErr
	}

	progressCb(PhaseCalculating, 0, 0)
	statsResult, err := m.recomputeStats(start.UnixMilli())
	if err != nil {
		return Stats{}, err
	}
	progressCb(PhaseSaving, 0, 0)

	statsResult.Duration = time.Since(start)
	statsResult.Warnings = warnings
	return statsResult, nil
}

// UpdateIndex walks the project root and applies only what changed
// since the last build or update: deleted files are removed, added
// and modified files are re-indexed and flushed with the same
// batching as BuildIndex. Returned stats describe the delta.
func (m *Manager) UpdateIndex(progressCb ProgressFunc, limits config.Limits) (Stats, error) {
	if progressCb == nil {
		progressCb = noopProgress
	}
	start := time.Now()

	progressCb(PhaseScanning, 0, 0)
	existing, err := m.store.GetAllFiles()
	if err != nil {
		return Stats{}, err
	}
	existingByPath := make(map[string]store.FileMeta, len(existing))
	for _, f := range existing {
		existingByPath[f.Path] = f
	}

	currentAbs := walker.Scan(m.root, walker.DefaultMaxDepth, m.classifier)
	current := make(map[string]string, len(currentAbs)) // relPath -> absPath
	for _, abs := range currentAbs {
		rel, err := filepath.Rel(m.root, abs)
		if err != nil {
			continue
		}
		current[filepath.ToSlash(rel)] = abs
	}

	var deleted, added, modified []string
	for path := range existingByPath {
		if _, ok := current[path]; !ok {
			deleted = append(deleted, path)
		}
	}
	for path, abs := range current {
		prev, ok := existingByPath[path]
		if !ok {
			added = append(added, path)
			continue
		}
		if indexfile.HasChanged(abs, prev.MtimeMS, prev.Hash) {
			modified = append(modified, path)
		}
	}

	for _, path := range deleted {
		if err := m.store.DeleteFile(path); err != nil {
			m.log.Error("delete_file failed", "path", path, "error", err)
		}
	}

	toIndex := make([]string, 0, len(added)+len(modified))
	for _, path := range added {
		toIndex = append(toIndex, current[path])
	}
	for _, path := range modified {
		toIndex = append(toIndex, current[path])
	}
	progressCb(PhaseIndexing, 0, len(toIndex))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var warnMu sync.Mutex
	var warnings []indexfile.Warning
	var pending []indexfile.FileRecord
	var fatalErr error
	languages := map[string]int{}
	var totalSymbols int
	var totalSize int64
	flush := func() {
		if len(pending) == 0 {
			return
		}
		if err := m.store.InsertBatch(pending); err != nil {
			m.log.Error("batch insert failed", "error", err, "batch_size", len(pending))
		}
		pending = pending[:0]
	}

	worker := func(absPath string) indexOutcome {
		rec, err := indexfile.IndexFile(absPath, m.root, limits, m.classifier, func(w indexfile.Warning) {
			warnMu.Lock()
			warnings = append(warnings, w)
			warnMu.Unlock()
		})
		return indexOutcome{rec, err}
	}

	schedule.Run(ctx, toIndex, schedule.DefaultWorkers(), worker,
		func(_ string, out indexOutcome) {
			if out.err != nil {
				if fatalErr == nil {
					fatalErr = out.err
					cancel()
				}
				return
			}
			if out.rec == nil {
				return
			}
			totalSymbols += len(out.rec.Symbols)
			totalSize += int64(out.rec.SizeBytes)
			if out.rec.Language != "" {
				languages[string(out.rec.Language)]++
			}
			pending = append(pending, *out.rec)
			if len(pending) >= batchSize {
				flush()
			}
		},
		func(done, total int) {
			progressCb(PhaseIndexing, done, total)
		},
	)
	flush()

	if fatalErr != nil {
		return Stats{}, fatalErr
	}

	progressCb(PhaseCalculating, 0, 0)
	if err := m.store.SetMetadata("indexed_at", strconv.FormatInt(time.Now().UnixMilli(), 10)); err != nil {
		return Stats{}, err
	}
	progressCb(PhaseSaving, 0, 0)

	return Stats{
		TotalFiles:   len(added) + len(modified),
		TotalSymbols: totalSymbols,
		TotalSize:    totalSize,
		Languages:    languages,
		Duration:     time.Since(start),
		Warnings:     warnings,
	}, nil
}

// IndexFile re-indexes a single file and persists the result as a
// one-entry batch. Failures are logged, never returned: callers that
// fire this from a file-watcher edit do not want a dropped event to
// crash the watch loop.
func (m *Manager) IndexFile(absPath string) {
	rec, err := indexfile.IndexFile(absPath, m.root, m.limits, m.classifier, func(w indexfile.Warning) {
		m.log.Warn("index warning", "path", w.RelativePath, "reason", w.Reason, "details", w.Details)
	})
	if err != nil {
		m.log.Error("index_file failed", "path", absPath, "error", err)
		return
	}
	if rec == nil {
		return
	}
	if err := m.store.InsertBatch([]indexfile.FileRecord{*rec}); err != nil {
		m.log.Error("index_file insert failed", "path", absPath, "error", err)
	}
}

func (m *Manager) recomputeStats(indexedAtMS int64) (Stats, error) {
	paths, err := m.store.GetAllPaths()
	if err != nil {
		return Stats{}, err
	}

	totalSymbols := 0
	for _, path := range paths {
		syms, err := m.store.GetFileSymbols(path)
		if err != nil {
			return Stats{}, err
		}
		totalSymbols += len(syms)
	}

	if err := m.store.SetMetadata("project_root", m.root); err != nil {
		return Stats{}, err
	}
	if err := m.store.SetMetadata("indexed_at", strconv.FormatInt(indexedAtMS, 10)); err != nil {
		return Stats{}, err
	}
	if err := m.store.SetMetadata("total_files", strconv.Itoa(len(paths))); err != nil {
		return Stats{}, err
	}
	if err := m.store.SetMetadata("total_symbols", strconv.Itoa(totalSymbols)); err != nil {
		return Stats{}, err
	}
	if err := m.store.SetMetadata("schema_version", "1"); err != nil {
		return Stats{}, err
	}

	result, err := m.store.GetStats()
	if err != nil {
		return Stats{}, err
	}
	return Stats{
		TotalFiles:   result.TotalFiles,
		TotalSymbols: result.TotalSymbols,
		TotalSize:    result.TotalSize,
		Languages:    result.Languages,
	}, nil
}
