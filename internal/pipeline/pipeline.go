// Package pipeline orchestrates one analysis run for an identifier:
// discovery, per-repository classification and framework matching, deep
// analysis, and the final reduce into an aggregated profile.
package pipeline

import (
	"context"
	"fmt"

	"github.com/yihu111/tech-europe-hackathon/internal/analyzer"
	"github.com/yihu111/tech-europe-hackathon/internal/frameworks"
	"github.com/yihu111/tech-europe-hackathon/internal/github"
	"github.com/yihu111/tech-europe-hackathon/internal/logger"
	"github.com/yihu111/tech-europe-hackathon/internal/manifest"
	"github.com/yihu111/tech-europe-hackathon/internal/profile"

	"go.uber.org/zap"
)

// discoverer lists an identifier's repositories.
type discoverer interface {
	ListRepositories(ctx context.Context, owner string) ([]github.Repository, error)
}

// classifier produces a dependency set for one repository.
type classifier interface {
	Classify(ctx context.Context, owner string, repo github.Repository) (manifest.DependencySet, error)
}

// matcher maps a dependency set to framework matches.
type matcher interface {
	Match(set manifest.DependencySet) []frameworks.Match
}

// deepAnalyzer runs the bounded-concurrency analysis stage.
type deepAnalyzer interface {
	AnalyzeAll(ctx context.Context, owner string, repos []github.Repository) map[string]*analyzer.Insight
}

// Deps aggregates the stages shared across one pipeline run.
type Deps struct {
	Discoverer discoverer
	Classifier classifier
	Matcher    matcher
	Analyzer   deepAnalyzer
	Logger     *zap.Logger
}

type Pipeline struct {
	deps Deps
}

func New(deps Deps) *Pipeline {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &Pipeline{deps: deps}
}

// Run executes the full pipeline for one identifier. Discovery failure
// aborts the run; everything after it is best effort per repository, so
// a partial profile is the normal outcome, not an error.
func (p *Pipeline) Run(ctx context.Context, identifier string) (*profile.AggregatedProfile, error) {
	log := p.deps.Logger.With(zap.String(logger.FieldIdentifier, identifier))

	repos, err := p.deps.Discoverer.ListRepositories(ctx, identifier)
	if err != nil {
		return nil, fmt.Errorf("discover repositories for %s: %w", identifier, err)
	}

	log.Info("discovery complete", zap.Int("repositories", len(repos)))

	var deps []manifest.DependencySet
	var matches []frameworks.Match

	for _, repo := range repos {
		if ctx.Err() != nil {
			break
		}

		set, err := p.deps.Classifier.Classify(ctx, identifier, repo)
		if err != nil {
			// Classification failures stay local to the repository.
			log.Warn("classification failed",
				zap.String(logger.FieldRepository, repo.Name),
				zap.Error(err),
			)
			continue
		}

		deps = append(deps, set)
		matches = append(matches, p.deps.Matcher.Match(set)...)
	}

	log.Info("classification complete",
		zap.Int("dependency_sets", len(deps)),
		zap.Int("framework_matches", len(matches)),
	)

	insights := p.deps.Analyzer.AnalyzeAll(ctx, identifier, repos)

	log.Info("deep analysis complete",
		zap.Int("insights", len(insights)),
		zap.Int("repositories", len(repos)),
	)

	aggregated, err := profile.Reduce(identifier, repos, deps, matches, insights)
	if err != nil {
		return nil, err
	}

	log.Info("profile reduced",
		zap.Int("skills", len(aggregated.Skills)),
		zap.Int("frameworks", len(aggregated.Frameworks)),
		zap.Int("repo_count", aggregated.RepoCount),
	)

	return aggregated, nil
}
