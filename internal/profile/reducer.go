package profile

import (
	"fmt"

	"github.com/yihu111/tech-europe-hackathon/internal/analyzer"
	"github.com/yihu111/tech-europe-hackathon/internal/frameworks"
	"github.com/yihu111/tech-europe-hackathon/internal/github"
	"github.com/yihu111/tech-europe-hackathon/internal/manifest"
)

// InvariantViolationError reports internally inconsistent reduce input,
// such as a record referencing a repository the discovery stage never
// produced. It indicates a bug in the caller, not a runtime condition.
type InvariantViolationError struct {
	Repo   string
	Record string
}

func (e *InvariantViolationError) Error() string {
	return fmt.Sprintf("invariant violation: %s references unknown repository %q", e.Record, e.Repo)
}

// Reduce merges the per-repository records for one identifier into an
// AggregatedProfile. The merge is deterministic: it orders everything by
// the discovery order of repos, so the result is independent of the
// completion order of the analysis stage. Reduce performs no I/O.
func Reduce(
	identifier string,
	repos []github.Repository,
	deps []manifest.DependencySet,
	matches []frameworks.Match,
	insights map[string]*analyzer.Insight,
) (*AggregatedProfile, error) {
	known := make(map[string]int, len(repos))
	for i, repo := range repos {
		known[repo.Name] = i
	}

	depsByRepo := make(map[string]manifest.DependencySet, len(deps))
	for _, set := range deps {
		if _, ok := known[set.Repo]; !ok {
			return nil, &InvariantViolationError{Repo: set.Repo, Record: "dependency set"}
		}
		depsByRepo[set.Repo] = set
	}

	matchesByRepo := make(map[string][]frameworks.Match)
	for _, match := range matches {
		if _, ok := known[match.Repo]; !ok {
			return nil, &InvariantViolationError{Repo: match.Repo, Record: "framework match"}
		}
		matchesByRepo[match.Repo] = append(matchesByRepo[match.Repo], match)
	}

	for repo := range insights {
		if _, ok := known[repo]; !ok {
			return nil, &InvariantViolationError{Repo: repo, Record: "repository insight"}
		}
	}

	profile := &AggregatedProfile{
		Identifier: identifier,
		Skills:     map[string]float64{},
		Frameworks: []frameworks.Match{},
		Insights:   []analyzer.Insight{},
		RepoCount:  len(repos),
	}

	// Raw signal counts: one per repository per language, plus one per
	// concept mention across insights. A dependency set with no packages
	// carries no signal, so its language does not count.
	counts := map[string]float64{}
	count := func(skill string) {
		if _, seen := counts[skill]; !seen {
			profile.skillOrder = append(profile.skillOrder, skill)
		}
		counts[skill]++
	}

	seenFramework := map[string]int{} // framework name -> index in profile.Frameworks

	for _, repo := range repos {
		if set, ok := depsByRepo[repo.Name]; ok && len(set.Packages) > 0 && set.Language != "" {
			count(set.Language)
		}

		for _, match := range matchesByRepo[repo.Name] {
			idx, seen := seenFramework[match.Name]
			if !seen {
				seenFramework[match.Name] = len(profile.Frameworks)
				profile.Frameworks = append(profile.Frameworks, match)
				continue
			}
			if match.Confidence > profile.Frameworks[idx].Confidence {
				profile.Frameworks[idx] = match
			}
		}

		if insight, ok := insights[repo.Name]; ok && insight != nil {
			profile.Insights = append(profile.Insights, *insight)
			for _, concept := range insight.Concepts {
				count(concept)
			}
		}
	}

	var total float64
	for _, c := range counts {
		total += c
	}
	if total > 0 {
		for skill, c := range counts {
			profile.Skills[skill] = c / total
		}
	}

	return profile, nil
}
