// Package classify answers the three questions the rest of the indexer
// asks about a path before touching its contents: should it be skipped,
// is it binary, and what language is it written in.
package classify

import (
	"path/filepath"
	"strings"

	gitignore "github.com/sabhiram/go-gitignore"
)

// Language is one of the closed set of tags the extractor understands.
type Language string

const (
	TypeScript Language = "TypeScript"
	JavaScript Language = "JavaScript"
	Python     Language = "Python"
	Go         Language = "Go"
	Rust       Language = "Rust"

	// Recognized but unsupported by the extractor: language_of still
	// reports them, but the extractor yields empty symbol lists.
	Java   Language = "Java"
	Ruby   Language = "Ruby"
	C      Language = "C"
	Cpp    Language = "C++"
	CCpp   Language = "C/C++"
	CSharp Language = "C#"
	PHP    Language = "PHP"
	Swift  Language = "Swift"
	Kotlin Language = "Kotlin"
)

// extensionLanguage maps a lowercase, dot-free extension to a language tag.
var extensionLanguage = map[string]Language{
	"ts":  TypeScript,
	"tsx": TypeScript,
	"js":  JavaScript,
	"jsx": JavaScript,
	"mjs": JavaScript,
	"cjs": JavaScript,
	"py":  Python,
	"pyi": Python,
	"go":  Go,
	"rs":  Rust,

	"java":  Java,
	"rb":    Ruby,
	"c":     C,
	"cpp":   Cpp,
	"cc":    Cpp,
	"cxx":   Cpp,
	"h":     CCpp,
	"hpp":   CCpp,
	"hh":    CCpp,
	"cs":    CSharp,
	"php":   PHP,
	"swift": Swift,
	"kt":    Kotlin,
	"kts":   Kotlin,
}

// binaryExtensions is the closed set of extensions treated as non-text.
var binaryExtensions = map[string]bool{
	"png": true, "jpg": true, "jpeg": true, "gif": true, "bmp": true,
	"ico": true, "svg": true, "webp": true,
	"pdf": true, "zip": true, "tar": true, "gz": true, "rar": true, "7z": true,
	"exe": true, "dll": true, "so": true, "dylib": true, "wasm": true,
	"bin": true, "dat": true, "db": true, "sqlite": true,
	"doc": true, "docx": true, "xls": true, "xlsx": true, "ppt": true, "pptx": true, "odt": true,
	"mp3": true, "mp4": true, "wav": true, "avi": true, "mov": true,
	"ttf": true, "otf": true, "woff": true, "woff2": true,
}

// DefaultIgnoreSegments is the closed set of path segments (name-exact or
// glob-with-*) that mark a directory or file as excluded from scanning.
var DefaultIgnoreSegments = []string{
	"node_modules", ".git", "dist", "build", "coverage", ".next", ".nuxt", ".cache",
	"vendor", "target", "bin", "obj", "__pycache__", ".venv", "venv",
	".pytest_cache", ".mypy_cache", ".tox", ".eggs", "*.egg-info",
	".DS_Store", "thumbs.db",
}

// Classifier evaluates is_ignored/is_binary/language_of against a fixed
// set of ignore segments (the default set plus the project's vendor
// directory name).
type Classifier struct {
	ignore *gitignore.GitIgnore
}

// New builds a Classifier. vendorDir is added to the default ignore
// segments so a project's own index directory is never scanned.
func New(vendorDir string) *Classifier {
	segments := make([]string, 0, len(DefaultIgnoreSegments)+1)
	segments = append(segments, DefaultIgnoreSegments...)
	if vendorDir != "" {
		segments = append(segments, vendorDir)
	}

	lines := make([]string, len(segments))
	copy(lines, segments)
	return &Classifier{ignore: gitignore.CompileIgnoreLines(lines...)}
}

// IsIgnored reports whether relPath (or any of its segments) matches the
// ignore set. Matching is evaluated per-segment, not just on the full
// relative path, so a deeply nested node_modules is still caught.
func (c *Classifier) IsIgnored(relPath string) bool {
	clean := filepath.ToSlash(relPath)
	if c.ignore.MatchesPath(clean) {
		return true
	}
	for _, segment := range strings.Split(clean, "/") {
		if segment == "" {
			continue
		}
		if c.ignore.MatchesPath(segment) {
			return true
		}
	}
	return false
}

// IsBinary reports whether path's extension is in the closed binary set.
func IsBinary(path string) bool {
	return binaryExtensions[extOf(path)]
}

// LanguageOf maps path's extension to a language tag. The empty string
// means "unknown but text".
func LanguageOf(path string) Language {
	return extensionLanguage[extOf(path)]
}

func extOf(path string) string {
	ext := filepath.Ext(path)
	if ext == "" {
		return ""
	}
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}
