// Package extract pulls symbols, imports, and exports out of source text
// using per-language regular expression bundles. It is not a parser: it
// never builds an AST and never touches the filesystem.
package extract

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"symdex/internal/classify"
)

// Kind is one of the closed set of symbol kinds the store accepts.
type Kind string

const (
	KindFunction  Kind = "function"
	KindClass     Kind = "class"
	KindInterface Kind = "interface"
	KindType      Kind = "type"
	KindVariable  Kind = "variable"
	KindConstant  Kind = "constant"
	KindMethod    Kind = "method"
)

// Symbol is one extracted definition.
type Symbol struct {
	Name      string
	Kind      Kind
	StartLine int
	EndLine   *int
	Signature string
	Exported  bool
}

// Result is everything Extract produces for one file.
type Result struct {
	Symbols []Symbol
	Imports []string
	Exports []string
}

// exportedMode describes how a pattern's match implies the exported flag.
type exportedMode int

const (
	// exportedNever means the language has no export keyword the pattern
	// can observe (e.g. Python def/class).
	exportedNever exportedMode = iota
	// exportedIfKeyword means the flag is true when the match contains a
	// configured keyword (e.g. "export", "pub").
	exportedIfKeyword
	// exportedIfCapitalized means the flag follows Go's capitalization
	// convention for the captured name.
	exportedIfCapitalized
)

type symbolPattern struct {
	re      *regexp.Regexp // must contain a "name" capture group
	kind    Kind
	mode    exportedMode
	keyword string // used when mode == exportedIfKeyword
}

type languageBundle struct {
	symbols        []symbolPattern
	importPatterns []*regexp.Regexp // must contain a single capture group
	exportPattern  *regexp.Regexp   // optional; capture group is a comma-list
}

func mustPattern(expr string, kind Kind, mode exportedMode, keyword string) symbolPattern {
	return symbolPattern{re: regexp.MustCompile(expr), kind: kind, mode: mode, keyword: keyword}
}

// braceBody is substituted for the declaration body in brace-delimited
// languages: it stops the match at the line's opening brace when one is
// present, so a signature like "func foo() {" never swallows the body
// that follows on the same line. Lines with no brace (e.g. a type alias
// ending in ";") fall back to the rest of the line.
const braceBody = `(?:[^\n{]*\{|[^\n]*)`

var bundles = map[classify.Language]languageBundle{
	classify.Go: {
		symbols: []symbolPattern{
			mustPattern(`(?m)^type\s+(?P<name>\w+)\s+struct\b`+braceBody, KindType, exportedIfCapitalized, ""),
			mustPattern(`(?m)^type\s+(?P<name>\w+)\s+interface\b`+braceBody, KindInterface, exportedIfCapitalized, ""),
			mustPattern(`(?m)^func\s+\(\s*\w+\s+\*?\w+\s*\)\s+(?P<name>\w+)\s*\(`+braceBody, KindMethod, exportedIfCapitalized, ""),
			mustPattern(`(?m)^func\s+(?P<name>\w+)\s*\(`+braceBody, KindFunction, exportedIfCapitalized, ""),
			mustPattern(`(?m)^const\s+(?P<name>\w+)\s*[= ]`+braceBody, KindConstant, exportedIfCapitalized, ""),
			mustPattern(`(?m)^var\s+(?P<name>\w+)\s*[= ]`+braceBody, KindVariable, exportedIfCapitalized, ""),
		},
		importPatterns: []*regexp.Regexp{
			regexp.MustCompile(`import\s+"([^"]+)"`),
		},
	},
	classify.Rust: {
		symbols: []symbolPattern{
			mustPattern(`(?m)^\s*(?:pub\s+)?fn\s+(?P<name>\w+)\s*\(`+braceBody, KindFunction, exportedIfKeyword, "pub"),
			mustPattern(`(?m)^\s*(?:pub\s+)?struct\s+(?P<name>\w+)\b`+braceBody, KindType, exportedIfKeyword, "pub"),
			mustPattern(`(?m)^\s*(?:pub\s+)?enum\s+(?P<name>\w+)\b`+braceBody, KindType, exportedIfKeyword, "pub"),
			mustPattern(`(?m)^\s*(?:pub\s+)?trait\s+(?P<name>\w+)\b`+braceBody, KindInterface, exportedIfKeyword, "pub"),
			mustPattern(`(?m)^\s*(?:pub\s+)?const\s+(?P<name>\w+)\s*:`+braceBody, KindConstant, exportedIfKeyword, "pub"),
			mustPattern(`(?m)^\s*(?:pub\s+)?static\s+(?P<name>\w+)\s*:`+braceBody, KindVariable, exportedIfKeyword, "pub"),
		},
		importPatterns: []*regexp.Regexp{
			regexp.MustCompile(`(?m)^\s*use\s+([^;]+);`),
		},
	},
	classify.TypeScript: tsLikeBundle(true),
	classify.JavaScript: tsLikeBundle(false),
	classify.Python: {
		symbols: []symbolPattern{
			mustPattern(`(?m)^class\s+(?P<name>\w+)\s*(?:\([^)]*\))?\s*:.*$`, KindClass, exportedNever, ""),
			mustPattern(`(?m)^def\s+(?P<name>\w+)\s*\(.*$`, KindFunction, exportedNever, ""),
			mustPattern(`(?m)^\s+def\s+(?P<name>\w+)\s*\(.*$`, KindMethod, exportedNever, ""),
			mustPattern(`(?m)^(?P<name>[A-Z][A-Z0-9_]*)\s*(?::[^=]+)?=(?:[^=].*)?$`, KindConstant, exportedNever, ""),
			mustPattern(`(?m)^(?P<name>[a-z_]\w*)\s*(?::[^=]+)?=(?:[^=].*)?$`, KindVariable, exportedNever, ""),
		},
		importPatterns: []*regexp.Regexp{
			regexp.MustCompile(`(?m)^import\s+(.+)$`),
			regexp.MustCompile(`(?m)^from\s+\S+\s+import\s+(.+)$`),
		},
	},
}

func tsLikeBundle(withTypes bool) languageBundle {
	b := languageBundle{
		symbols: []symbolPattern{
			mustPattern(`(?m)^\s*(?:export\s+)?(?:default\s+)?(?:async\s+)?function\s*\*?\s+(?P<name>\w+)\s*\(`+braceBody, KindFunction, exportedIfKeyword, "export"),
			mustPattern(`(?m)^\s*(?:export\s+)?(?:default\s+)?class\s+(?P<name>\w+)\b`+braceBody, KindClass, exportedIfKeyword, "export"),
			mustPattern(`(?m)^\s*(?:export\s+)?const\s+(?P<name>\w+)\s*[:=]`+braceBody, KindConstant, exportedIfKeyword, "export"),
			mustPattern(`(?m)^\s*(?:export\s+)?(?:let|var)\s+(?P<name>\w+)\s*[:=]`+braceBody, KindVariable, exportedIfKeyword, "export"),
		},
		importPatterns: []*regexp.Regexp{
			regexp.MustCompile(`(?m)^\s*import\s+(?:.*\sfrom\s+)?["']([^"']+)["'];?\s*$`),
		},
		exportPattern: regexp.MustCompile(`(?m)export\s*\{([^}]*)\}`),
	}
	if withTypes {
		b.symbols = append(b.symbols,
			mustPattern(`(?m)^\s*(?:export\s+)?interface\s+(?P<name>\w+)\b`+braceBody, KindInterface, exportedIfKeyword, "export"),
			mustPattern(`(?m)^\s*(?:export\s+)?type\s+(?P<name>\w+)\s*=`+braceBody, KindType, exportedIfKeyword, "export"),
		)
	}
	return b
}

// Extract runs lang's pattern bundle over content. Unsupported languages
// (including the empty tag) yield an empty, non-nil Result.
func Extract(content string, lang classify.Language) Result {
	bundle, ok := bundles[lang]
	if !ok {
		return Result{Symbols: []Symbol{}, Imports: []string{}, Exports: []string{}}
	}

	result := Result{}

	for _, p := range bundle.symbols {
		result.Symbols = append(result.Symbols, extractSymbols(content, p)...)
	}
	sort.SliceStable(result.Symbols, func(i, j int) bool {
		return result.Symbols[i].StartLine < result.Symbols[j].StartLine
	})

	imports := map[string]struct{}{}
	for _, re := range bundle.importPatterns {
		for _, m := range re.FindAllStringSubmatch(content, -1) {
			addImportPieces(imports, m[1])
		}
	}
	result.Imports = sortedKeys(imports)

	exports := map[string]struct{}{}
	if bundle.exportPattern != nil {
		for _, m := range bundle.exportPattern.FindAllStringSubmatch(content, -1) {
			for _, piece := range strings.Split(m[1], ",") {
				name := strings.TrimSpace(piece)
				if name == "" || name == "default" {
					continue
				}
				exports[name] = struct{}{}
			}
		}
	}
	for _, s := range result.Symbols {
		if s.Exported {
			exports[s.Name] = struct{}{}
		}
	}
	result.Exports = sortedKeys(exports)

	if result.Symbols == nil {
		result.Symbols = []Symbol{}
	}
	return result
}

func extractSymbols(content string, p symbolPattern) []Symbol {
	nameIdx := p.re.SubexpIndex("name")
	var symbols []Symbol

	for _, m := range p.re.FindAllStringSubmatchIndex(content, -1) {
		name := content[m[2*nameIdx]:m[2*nameIdx+1]]
		if name == "default" {
			continue
		}

		matchStart, matchEnd := m[0], m[1]
		signature := strings.TrimSpace(content[matchStart:matchEnd])
		line := 1 + strings.Count(content[:matchStart], "\n")

		var exported bool
		switch p.mode {
		case exportedIfKeyword:
			exported = containsKeyword(signature, p.keyword)
		case exportedIfCapitalized:
			exported = isCapitalized(name)
		case exportedNever:
			exported = false
		}

		symbols = append(symbols, Symbol{
			Name:      name,
			Kind:      p.kind,
			StartLine: line,
			Signature: signature,
			Exported:  exported,
		})
	}
	return symbols
}

func containsKeyword(s, keyword string) bool {
	for _, field := range strings.Fields(s) {
		if field == keyword {
			return true
		}
	}
	return false
}

func isCapitalized(name string) bool {
	if name == "" {
		return false
	}
	r := []rune(name)[0]
	return unicode.IsUpper(r)
}

func addImportPieces(set map[string]struct{}, raw string) {
	for _, piece := range strings.Split(raw, ",") {
		trimmed := strings.TrimSpace(piece)
		if trimmed == "" {
			continue
		}
		set[trimmed] = struct{}{}
	}
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
