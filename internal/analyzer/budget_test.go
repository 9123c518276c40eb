package analyzer

import (
	"testing"

	"github.com/yihu111/tech-europe-hackathon/internal/github"
)

func blob(path string, size int) github.TreeEntry {
	return github.TreeEntry{Path: path, Type: "blob", Size: size}
}

func TestSelectFilesFiltersNonSource(t *testing.T) {
	tree := []github.TreeEntry{
		blob("main.py", 100),
		blob("logo.png", 100),
		blob("data.csv", 100),
		{Path: "src", Type: "tree"},
		blob("src/app.py", 100),
	}

	files, ok := DefaultBudget().selectFiles(tree)
	if !ok {
		t.Fatal("small tree must fit the budget")
	}
	if len(files) != 2 {
		t.Fatalf("expected 2 eligible files, got %d: %v", len(files), files)
	}
}

func TestSelectFilesSkipsVendoredDirs(t *testing.T) {
	tree := []github.TreeEntry{
		blob("node_modules/react/index.js", 100),
		blob("vendor/pkg/pkg.go", 100),
		blob("__pycache__/mod.py", 100),
		blob("app/handlers.go", 100),
	}

	files, ok := DefaultBudget().selectFiles(tree)
	if !ok {
		t.Fatal("small tree must fit the budget")
	}
	if len(files) != 1 || files[0].Path != "app/handlers.go" {
		t.Fatalf("unexpected selection: %v", files)
	}
}

func TestSelectFilesSkipsLockfiles(t *testing.T) {
	tree := []github.TreeEntry{
		blob("package.json", 100),
		blob("package-lock.json", 500000),
		blob("yarn.lock", 500000),
	}

	files, ok := DefaultBudget().selectFiles(tree)
	if !ok {
		t.Fatal("lockfiles must not count against the budget")
	}
	if len(files) != 1 || files[0].Path != "package.json" {
		t.Fatalf("unexpected selection: %v", files)
	}
}

func TestSelectFilesRejectsTooManyFiles(t *testing.T) {
	budget := Budget{MaxFiles: 2, MaxFileBytes: 1024, MaxTotalBytes: 10240}
	tree := []github.TreeEntry{
		blob("a.go", 10),
		blob("b.go", 10),
		blob("c.go", 10),
	}

	if _, ok := budget.selectFiles(tree); ok {
		t.Fatal("expected budget rejection when file count exceeds cap")
	}
}

func TestSelectFilesRejectsTooManyBytes(t *testing.T) {
	budget := Budget{MaxFiles: 10, MaxFileBytes: 1024, MaxTotalBytes: 2000}
	tree := []github.TreeEntry{
		blob("a.go", 1000),
		blob("b.go", 1001),
	}

	if _, ok := budget.selectFiles(tree); ok {
		t.Fatal("expected budget rejection when total bytes exceed cap")
	}
}

func TestSelectFilesCountsOversizedFilesAtCap(t *testing.T) {
	budget := Budget{MaxFiles: 10, MaxFileBytes: 100, MaxTotalBytes: 250}
	tree := []github.TreeEntry{
		blob("a.go", 100000), // truncated to 100 at fetch time
		blob("b.go", 100000),
	}

	files, ok := budget.selectFiles(tree)
	if !ok {
		t.Fatal("oversized files count at the truncation cap")
	}
	if len(files) != 2 {
		t.Fatalf("expected both files, got %d", len(files))
	}
}
