package analyzer

import (
	"path"
	"strings"

	"github.com/yihu111/tech-europe-hackathon/internal/github"
)

// Budget bounds how much of a repository tree deep analysis may consume.
// A repository whose eligible files exceed the caps is skipped entirely.
type Budget struct {
	MaxFiles      int
	MaxFileBytes  int
	MaxTotalBytes int
}

func DefaultBudget() Budget {
	return Budget{
		MaxFiles:      40,
		MaxFileBytes:  16 * 1024,
		MaxTotalBytes: 256 * 1024,
	}
}

var sourceExtensions = map[string]struct{}{
	".py": {}, ".js": {}, ".ts": {}, ".tsx": {}, ".jsx": {}, ".java": {},
	".cpp": {}, ".c": {}, ".h": {}, ".go": {}, ".rs": {}, ".php": {},
	".rb": {}, ".swift": {}, ".kt": {}, ".dart": {}, ".vue": {},
	".json": {}, ".yaml": {}, ".yml": {}, ".toml": {}, ".md": {},
}

var skippedDirs = map[string]struct{}{
	"node_modules": {}, "vendor": {}, ".git": {}, "dist": {}, "build": {},
	"target": {}, "__pycache__": {}, ".venv": {}, "venv": {}, ".next": {},
	"testdata": {},
}

var lockfiles = map[string]struct{}{
	"package-lock.json": {}, "yarn.lock": {}, "pnpm-lock.yaml": {},
	"go.sum": {}, "cargo.lock": {}, "poetry.lock": {}, "pipfile.lock": {},
	"composer.lock": {}, "gemfile.lock": {},
}

// selectFiles returns the tree entries eligible for analysis. ok is false
// when the eligible set itself exceeds the budget, meaning the repository
// should be skipped rather than truncated arbitrarily.
func (b Budget) selectFiles(tree []github.TreeEntry) (entries []github.TreeEntry, ok bool) {
	total := 0
	for _, entry := range tree {
		if !entry.IsBlob() || !eligible(entry.Path) {
			continue
		}

		entries = append(entries, entry)
		size := entry.Size
		if size > b.MaxFileBytes {
			// Oversized files are truncated at fetch time, so they count
			// against the total at the cap.
			size = b.MaxFileBytes
		}
		total += size

		if len(entries) > b.MaxFiles || total > b.MaxTotalBytes {
			return nil, false
		}
	}

	return entries, true
}

func eligible(filePath string) bool {
	base := strings.ToLower(path.Base(filePath))
	if _, locked := lockfiles[base]; locked {
		return false
	}

	for _, segment := range strings.Split(path.Dir(filePath), "/") {
		if _, skip := skippedDirs[segment]; skip {
			return false
		}
	}

	_, ok := sourceExtensions[strings.ToLower(path.Ext(filePath))]
	return ok
}
