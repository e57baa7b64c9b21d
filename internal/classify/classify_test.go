package classify

import "testing"

func TestIsIgnored(t *testing.T) {
	c := New(".symdex")

	tests := []struct {
		path string
		want bool
	}{
		{"node_modules/react/index.js", true},
		{"src/node_modules/foo.js", true},
		{".git/HEAD", true},
		{"pkg/dist/bundle.js", true},
		{"vendor/github.com/foo/bar.go", true},
		{"build/output.bin", true},
		{"some-egg.egg-info/PKG-INFO", true},
		{".symdex/indexes/abc/index.db", true},
		{"src/main.go", false},
		{"README.md", false},
	}

	for _, tt := range tests {
		if got := c.IsIgnored(tt.path); got != tt.want {
			t.Errorf("IsIgnored(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestIsBinary(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"logo.png", true},
		{"archive.tar.gz", true},
		{"lib.so", true},
		{"data.sqlite", true},
		{"main.go", false},
		{"README", false},
		{"script.PY", false},
	}

	for _, tt := range tests {
		if got := IsBinary(tt.path); got != tt.want {
			t.Errorf("IsBinary(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestLanguageOf(t *testing.T) {
	tests := []struct {
		path string
		want Language
	}{
		{"a.ts", TypeScript},
		{"a.tsx", TypeScript},
		{"a.js", JavaScript},
		{"a.py", Python},
		{"m.go", Go},
		{"lib.rs", Rust},
		{"App.java", Java},
		{"script.rb", Ruby},
		{"main.c", C},
		{"main.cpp", Cpp},
		{"header.h", CCpp},
		{"Program.cs", CSharp},
		{"index.php", PHP},
		{"App.swift", Swift},
		{"Main.kt", Kotlin},
		{"unknown.xyz", Language("")},
		{"no-extension", Language("")},
	}

	for _, tt := range tests {
		if got := LanguageOf(tt.path); got != tt.want {
			t.Errorf("LanguageOf(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}
