// Package manifest classifies repository dependencies by fetching and
// parsing the manifest files conventional for each detected language.
package manifest

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/yihu111/tech-europe-hackathon/internal/github"

	"go.uber.org/zap"
)

// DependencySet is the normalized classification result for one repository.
type DependencySet struct {
	Repo     string   `json:"repo"`
	Language string   `json:"language"`
	Packages []string `json:"packages"`
}

// host is the subset of the repository host consumed by the classifier.
type host interface {
	Languages(ctx context.Context, owner, repo string) (map[string]int, error)
	Tree(ctx context.Context, owner, repo, ref string) ([]github.TreeEntry, error)
	FileContent(ctx context.Context, owner, repo, path string) (string, error)
}

type Classifier struct {
	host   host
	table  Table
	logger *zap.Logger
}

func NewClassifier(host host, table Table, logger *zap.Logger) *Classifier {
	if table == nil {
		table = DefaultTable()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Classifier{host: host, table: table, logger: logger}
}

// Classify produces the DependencySet for one repository. A missing manifest
// is a normal outcome and yields an empty package set; an unparseable
// manifest is logged and likewise falls back to empty for that file.
func (c *Classifier) Classify(ctx context.Context, owner string, repo github.Repository) (DependencySet, error) {
	set := DependencySet{
		Repo:     repo.Name,
		Language: repo.Language,
		Packages: []string{},
	}

	languages, err := c.host.Languages(ctx, owner, repo.Name)
	if err != nil {
		return set, fmt.Errorf("classify %s: %w", repo.Name, err)
	}

	if set.Language == "" {
		set.Language = primaryLanguage(languages)
	}

	specs := c.manifestSpecs(languages)
	if len(specs) == 0 {
		return set, nil
	}

	tree, err := c.host.Tree(ctx, owner, repo.Name, repo.DefaultBranch)
	if err != nil {
		return set, fmt.Errorf("classify %s: %w", repo.Name, err)
	}

	seen := map[string]struct{}{}
	for _, spec := range specs {
		for _, path := range matchingPaths(tree, spec.Filename) {
			content, err := c.host.FileContent(ctx, owner, repo.Name, path)
			if err != nil {
				c.logger.Warn("fetching manifest failed",
					zap.String("repo", repo.Name),
					zap.String("path", path),
					zap.Error(err),
				)
				continue
			}

			packages, err := Parse(spec.Format, path, content)
			if err != nil {
				var parseErr *ParseError
				if errors.As(err, &parseErr) {
					c.logger.Warn("unparseable manifest, falling back to empty set",
						zap.String("repo", repo.Name),
						zap.String("path", path),
						zap.Error(err),
					)
					continue
				}
				return set, err
			}

			for _, pkg := range packages {
				seen[pkg] = struct{}{}
			}
		}
	}

	set.Packages = make([]string, 0, len(seen))
	for pkg := range seen {
		set.Packages = append(set.Packages, pkg)
	}
	sort.Strings(set.Packages)

	return set, nil
}

// manifestSpecs collects the manifest specs for every detected language,
// de-duplicated by filename, in descending byte-count order.
func (c *Classifier) manifestSpecs(languages map[string]int) []FileSpec {
	var specs []FileSpec
	seen := map[string]struct{}{}
	for _, lang := range languagesByBytes(languages) {
		for _, spec := range c.table.Lookup(lang) {
			if _, ok := seen[spec.Filename]; ok {
				continue
			}
			seen[spec.Filename] = struct{}{}
			specs = append(specs, spec)
		}
	}
	return specs
}

// matchingPaths returns tree blobs whose basename equals the manifest
// filename, preferring shallow paths so the root manifest comes first.
func matchingPaths(tree []github.TreeEntry, filename string) []string {
	var paths []string
	for _, entry := range tree {
		if !entry.IsBlob() {
			continue
		}
		if entry.Path == filename || strings.HasSuffix(entry.Path, "/"+filename) {
			paths = append(paths, entry.Path)
		}
	}

	sort.SliceStable(paths, func(i, j int) bool {
		return strings.Count(paths[i], "/") < strings.Count(paths[j], "/")
	})

	return paths
}

func primaryLanguage(languages map[string]int) string {
	names := languagesByBytes(languages)
	if len(names) == 0 {
		return ""
	}
	return names[0]
}

// languagesByBytes returns language names sorted by byte count descending,
// name ascending on ties, for deterministic traversal.
func languagesByBytes(languages map[string]int) []string {
	names := make([]string, 0, len(languages))
	for name := range languages {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if languages[names[i]] != languages[names[j]] {
			return languages[names[i]] > languages[names[j]]
		}
		return names[i] < names[j]
	})
	return names
}
