// Command symdex-index builds and queries a per-project symbol index
// on disk: scan a project root, extract lightweight symbol
// information, and answer fast lookups against the result.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"

	"symdex/internal/config"
	"symdex/internal/logging"
	"symdex/internal/manager"
)

var logger *slog.Logger

const version = "0.1.0"

func main() {
	logger = logging.Default("symdex-index")

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "build":
		runBuild(os.Args[2:])
	case "update":
		runUpdate(os.Args[2:])
	case "search":
		runSearch(os.Args[2:])
	case "find":
		runFind(os.Args[2:])
	case "glob":
		runGlob(os.Args[2:])
	case "name":
		runFindByName(os.Args[2:])
	case "symbols":
		runFileSymbols(os.Args[2:])
	case "importers":
		runImporters(os.Args[2:])
	case "stats":
		runStats(os.Args[2:])
	case "version":
		fmt.Printf("symdex-index v%s\n", version)
	case "help", "-h", "--help":
		printUsage()
	default:
		logger.Error("unknown command", "command", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func openManager(path string) (*manager.Manager, string) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		logger.Error("invalid path", "error", err)
		os.Exit(1)
	}

	m, err := manager.Open(absPath, config.LoadStoreFromEnv())
	if err != nil {
		logger.Error("opening index failed", "error", err)
		os.Exit(1)
	}
	return m, absPath
}

func progressReporter() manager.ProgressFunc {
	return func(phase manager.Phase, done, total int) {
		if total > 0 {
			fmt.Fprintf(os.Stderr, "\r%s %d/%d...", phase, done, total)
		} else {
			fmt.Fprintf(os.Stderr, "\r%s...", phase)
		}
	}
}

func runBuild(args []string) {
	fs := flag.NewFlagSet("build", flag.ExitOnError)
	fs.Parse(args)

	path := "."
	if fs.NArg() > 0 {
		path = fs.Arg(0)
	}

	m, absPath := openManager(path)
	defer m.Close()

	logger.Info("building index", "path", absPath)
	start := time.Now()

	stats, err := m.BuildIndex(progressReporter(), config.LoadLimitsFromEnv())
	fmt.Fprintln(os.Stderr)
	if err != nil {
		logger.Error("build failed", "error", err)
		os.Exit(1)
	}

	logger.Info("build complete",
		"files", stats.TotalFiles,
		"symbols", stats.TotalSymbols,
		"size", humanize.Bytes(uint64(stats.TotalSize)),
		"warnings", len(stats.Warnings),
		"duration", time.Since(start).Round(time.Millisecond))
}

func runUpdate(args []string) {
	fs := flag.NewFlagSet("update", flag.ExitOnError)
	fs.Parse(args)

	path := "."
	if fs.NArg() > 0 {
		path = fs.Arg(0)
	}

	m, absPath := openManager(path)
	defer m.Close()

	has, err := m.Load()
	if err != nil {
		logger.Error("checking index failed", "error", err)
		os.Exit(1)
	}
	if !has {
		logger.Info("no existing index, running a full build instead", "path", absPath)
		runBuild(args)
		return
	}

	logger.Info("updating index", "path", absPath)
	delta, err := m.UpdateIndex(progressReporter(), config.LoadLimitsFromEnv())
	fmt.Fprintln(os.Stderr)
	if err != nil {
		logger.Error("update failed", "error", err)
		os.Exit(1)
	}

	logger.Info("update complete",
		"changed_files", delta.TotalFiles,
		"symbols", delta.TotalSymbols,
		"warnings", len(delta.Warnings))
}

func runSearch(args []string) {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	limit := fs.Int("limit", 20, "Maximum results")
	path := fs.String("path", ".", "Project root")
	fs.Parse(args)

	if fs.NArg() < 1 {
		logger.Error("search requires a query argument")
		os.Exit(1)
	}
	query := fs.Arg(0)

	m, _ := openManager(*path)
	defer m.Close()

	results, err := m.SearchSymbols(query, *limit)
	if err != nil {
		logger.Error("search failed", "error", err)
		os.Exit(1)
	}

	for _, r := range results {
		fmt.Printf("%-6d %-10s %s:%d  %s\n", r.Score, r.Kind, r.Path, r.Line, r.Name)
	}
}

func runFind(args []string) {
	fs := flag.NewFlagSet("find", flag.ExitOnError)
	limit := fs.Int("limit", 50, "Maximum results")
	path := fs.String("path", ".", "Project root")
	fs.Parse(args)

	if fs.NArg() < 1 {
		logger.Error("find requires a substring argument")
		os.Exit(1)
	}

	m, _ := openManager(*path)
	defer m.Close()

	results, err := m.FindFiles(fs.Arg(0), *limit)
	if err != nil {
		logger.Error("find failed", "error", err)
		os.Exit(1)
	}
	for _, p := range results {
		fmt.Println(p)
	}
}

func runGlob(args []string) {
	fs := flag.NewFlagSet("glob", flag.ExitOnError)
	limit := fs.Int("limit", 100, "Maximum results")
	path := fs.String("path", ".", "Project root")
	fs.Parse(args)

	if fs.NArg() < 1 {
		logger.Error("glob requires a pattern argument")
		os.Exit(1)
	}

	m, _ := openManager(*path)
	defer m.Close()

	results, err := m.GlobFiles(fs.Arg(0), *limit)
	if err != nil {
		logger.Error("glob failed", "error", err)
		os.Exit(1)
	}
	for _, p := range results {
		fmt.Println(p)
	}
}

func runFindByName(args []string) {
	fs := flag.NewFlagSet("name", flag.ExitOnError)
	limit := fs.Int("limit", 50, "Maximum results")
	path := fs.String("path", ".", "Project root")
	fs.Parse(args)

	if fs.NArg() < 1 {
		logger.Error("name requires a filename argument")
		os.Exit(1)
	}

	m, _ := openManager(*path)
	defer m.Close()

	results, err := m.FindFilesByName(fs.Arg(0), *limit)
	if err != nil {
		logger.Error("name lookup failed", "error", err)
		os.Exit(1)
	}
	for _, p := range results {
		fmt.Println(p)
	}
}

func runFileSymbols(args []string) {
	fs := flag.NewFlagSet("symbols", flag.ExitOnError)
	path := fs.String("path", ".", "Project root")
	fs.Parse(args)

	if fs.NArg() < 1 {
		logger.Error("symbols requires a file path argument")
		os.Exit(1)
	}

	m, _ := openManager(*path)
	defer m.Close()

	results, err := m.GetFileSymbols(fs.Arg(0))
	if err != nil {
		logger.Error("symbols lookup failed", "error", err)
		os.Exit(1)
	}
	for _, r := range results {
		fmt.Printf("%-10s %d  %s\n", r.Kind, r.Line, r.Name)
	}
}

func runImporters(args []string) {
	fs := flag.NewFlagSet("importers", flag.ExitOnError)
	path := fs.String("path", ".", "Project root")
	fs.Parse(args)

	if fs.NArg() < 1 {
		logger.Error("importers requires a module substring argument")
		os.Exit(1)
	}

	m, _ := openManager(*path)
	defer m.Close()

	results, err := m.FindImporters(fs.Arg(0))
	if err != nil {
		logger.Error("importers lookup failed", "error", err)
		os.Exit(1)
	}
	for _, p := range results {
		fmt.Println(p)
	}
}

func runStats(args []string) {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	fs.Parse(args)

	path := "."
	if fs.NArg() > 0 {
		path = fs.Arg(0)
	}

	m, absPath := openManager(path)
	defer m.Close()

	has, err := m.Load()
	if err != nil {
		logger.Error("checking index failed", "error", err)
		os.Exit(1)
	}
	if !has {
		logger.Error("no index found, run 'build' first", "path", absPath)
		os.Exit(1)
	}

	stats, err := m.GetStats()
	if err != nil {
		logger.Error("getting stats failed", "error", err)
		os.Exit(1)
	}

	fmt.Printf("Project: %s\n", absPath)
	fmt.Printf("Files: %d\n", stats.TotalFiles)
	fmt.Printf("Symbols: %d\n", stats.TotalSymbols)
	fmt.Printf("Size: %s\n", humanize.Bytes(uint64(stats.TotalSize)))
	if stats.IndexedAtMS > 0 {
		fmt.Printf("Indexed: %s\n", humanize.Time(time.UnixMilli(stats.IndexedAtMS)))
	}
	if len(stats.Languages) > 0 {
		fmt.Println("Languages:")
		for lang, count := range stats.Languages {
			fmt.Printf("  %-12s %d\n", lang, count)
		}
	}
}

func printUsage() {
	fmt.Println(`symdex-index - project symbol index builder and query tool

Usage:
  symdex-index build [path]                Full scan and build
  symdex-index update [path]                Incremental update
  symdex-index search [--path p] <query>    Search symbols by name
  symdex-index find [--path p] <substr>     Find files by path substring
  symdex-index glob [--path p] <pattern>    Find files by glob pattern
  symdex-index name [--path p] <filename>   Find files by exact name
  symdex-index symbols [--path p] <file>    List symbols in one file
  symdex-index importers [--path p] <module> Find files importing a module
  symdex-index stats [path]                 Show index statistics
  symdex-index version                      Print version
  symdex-index help                         Show this help

Environment Variables:
  SYMDEX_INDEX_HOME            Override the index store's home directory
  SYMDEX_MAX_BYTES             Max file size indexed (bytes)
  SYMDEX_MAX_LINES             Max line count indexed
  SYMDEX_MAX_LINE_CHARS        Max single line length indexed
  SYMDEX_FILE_DEADLINE_MS      Per-file indexing deadline (ms)
  SYMDEX_SKIP_ON_ERROR         Skip unreadable files instead of failing
  SYMDEX_LOG_LEVEL             Log level (debug, info, warn, error)
  SYMDEX_LOG_FORMAT            Log output format (text, json)`)
}
