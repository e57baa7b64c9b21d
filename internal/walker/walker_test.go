package walker

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"symdex/internal/classify"
)

func touch(t *testing.T, root, rel string) {
	t.Helper()
	path := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

func TestScanSkipsIgnoredAndBinary(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "src/main.go")
	touch(t, root, "node_modules/lib/index.js")
	touch(t, root, "assets/logo.png")
	touch(t, root, ".git/HEAD")

	classifier := classify.New(".symdex")
	found := Scan(root, DefaultMaxDepth, classifier)

	rel := make([]string, len(found))
	for i, f := range found {
		r, _ := filepath.Rel(root, f)
		rel[i] = filepath.ToSlash(r)
	}
	sort.Strings(rel)

	want := []string{"src/main.go"}
	if len(rel) != len(want) || rel[0] != want[0] {
		t.Errorf("Scan() = %v, want %v", rel, want)
	}
}

func TestCountFilesMatchesScanLength(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "a.go")
	touch(t, root, "b.go")
	touch(t, root, "sub/c.go")

	classifier := classify.New(".symdex")
	count := CountFiles(root, DefaultMaxDepth, classifier)
	found := Scan(root, DefaultMaxDepth, classifier)

	if count != len(found) {
		t.Errorf("CountFiles() = %d, len(Scan()) = %d", count, len(found))
	}
	if count != 3 {
		t.Errorf("CountFiles() = %d, want 3", count)
	}
}

func TestScanSymlinkCycleProtection(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "real/file.go")

	cyclePath := filepath.Join(root, "real", "loop")
	if err := os.Symlink(filepath.Join(root, "real"), cyclePath); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	classifier := classify.New(".symdex")
	found := Scan(root, DefaultMaxDepth, classifier)
	if len(found) != 1 {
		t.Errorf("expected the cycle to be visited once, got %d files: %v", len(found), found)
	}
}

func TestScanRespectsMaxDepth(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "a/b/c/d/deep.go")

	classifier := classify.New(".symdex")
	found := Scan(root, 1, classifier)
	if len(found) != 0 {
		t.Errorf("expected max_depth=1 to exclude a deeply nested file, got %v", found)
	}
}
