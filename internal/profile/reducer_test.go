package profile

import (
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/yihu111/tech-europe-hackathon/internal/analyzer"
	"github.com/yihu111/tech-europe-hackathon/internal/frameworks"
	"github.com/yihu111/tech-europe-hackathon/internal/github"
	"github.com/yihu111/tech-europe-hackathon/internal/manifest"
)

func discoveryOrder(names ...string) []github.Repository {
	repos := make([]github.Repository, 0, len(names))
	for _, name := range names {
		repos = append(repos, github.Repository{Name: name})
	}
	return repos
}

func TestReduceTwoLanguageProfile(t *testing.T) {
	repos := discoveryOrder("api", "web")
	deps := []manifest.DependencySet{
		{Repo: "api", Language: "Python", Packages: []string{"fastapi", "uvicorn"}},
		{Repo: "web", Language: "TypeScript", Packages: []string{"react", "vite"}},
	}
	matches := []frameworks.Match{
		{Repo: "api", Name: "FastAPI", Confidence: 1},
		{Repo: "web", Name: "React", Confidence: 1},
	}

	p, err := Reduce("alice", repos, deps, matches, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := map[string]float64{"Python": 0.5, "TypeScript": 0.5}
	if !reflect.DeepEqual(p.Skills, want) {
		t.Fatalf("skills = %v, want %v", p.Skills, want)
	}
	if len(p.Frameworks) != 2 {
		t.Fatalf("expected 2 frameworks, got %v", p.Frameworks)
	}
	if p.RepoCount != 2 {
		t.Fatalf("repo_count = %d, want 2", p.RepoCount)
	}
}

func TestReduceNoSignalYieldsEmptySkills(t *testing.T) {
	repos := discoveryOrder("empty")
	deps := []manifest.DependencySet{
		{Repo: "empty", Language: "Python", Packages: nil},
	}

	p, err := Reduce("bob", repos, deps, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(p.Skills) != 0 {
		t.Fatalf("manifest-less repository must yield empty skills, got %v", p.Skills)
	}
	if p.RepoCount != 1 {
		t.Fatalf("repo_count = %d, want 1", p.RepoCount)
	}
}

func TestReduceOmitsAbsentInsights(t *testing.T) {
	repos := discoveryOrder("a", "b", "c")
	insights := map[string]*analyzer.Insight{
		"a": {Repo: "a", Summary: "first"},
		"c": {Repo: "c", Summary: "third"},
	}

	p, err := Reduce("alice", repos, nil, nil, insights)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(p.Insights) != 2 {
		t.Fatalf("expected 2 insights, got %d", len(p.Insights))
	}
	if p.Insights[0].Repo != "a" || p.Insights[1].Repo != "c" {
		t.Fatalf("insights out of discovery order: %v", p.Insights)
	}
}

func TestReduceWeightsSumToOne(t *testing.T) {
	repos := discoveryOrder("a", "b", "c")
	deps := []manifest.DependencySet{
		{Repo: "a", Language: "Go", Packages: []string{"cobra"}},
		{Repo: "b", Language: "Go", Packages: []string{"gin"}},
		{Repo: "c", Language: "Rust", Packages: []string{"tokio"}},
	}
	insights := map[string]*analyzer.Insight{
		"a": {Repo: "a", Concepts: []string{"CLI tooling", "configuration"}},
	}

	p, err := Reduce("alice", repos, deps, nil, insights)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var sum float64
	for _, w := range p.Skills {
		if w < 0 {
			t.Fatalf("negative weight in %v", p.Skills)
		}
		sum += w
	}
	if math.Abs(sum-1) > 1e-9 {
		t.Fatalf("weights sum to %v, want 1", sum)
	}
	if math.Abs(p.Skills["Go"]-0.4) > 1e-9 {
		t.Fatalf("Go weight = %v, want 0.4", p.Skills["Go"])
	}
}

func TestReduceFrameworkDedupeKeepsHighestConfidence(t *testing.T) {
	repos := discoveryOrder("a", "b", "c")
	matches := []frameworks.Match{
		{Repo: "a", Name: "React", Confidence: 0.5},
		{Repo: "b", Name: "React", Confidence: 1},
		{Repo: "c", Name: "React", Confidence: 1},
	}

	p, err := Reduce("alice", repos, nil, matches, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(p.Frameworks) != 1 {
		t.Fatalf("expected 1 deduplicated framework, got %v", p.Frameworks)
	}
	got := p.Frameworks[0]
	if got.Confidence != 1 || got.Repo != "b" {
		t.Fatalf("expected first highest-confidence match (repo b), got %+v", got)
	}
}

func TestReduceDeterministicUnderPermutation(t *testing.T) {
	repos := discoveryOrder("a", "b")
	deps := []manifest.DependencySet{
		{Repo: "a", Language: "Python", Packages: []string{"flask"}},
		{Repo: "b", Language: "Go", Packages: []string{"echo"}},
	}
	insightsA := map[string]*analyzer.Insight{
		"a": {Repo: "a", Concepts: []string{"web"}},
		"b": {Repo: "b", Concepts: []string{"api"}},
	}
	// Same records arriving in the opposite completion order.
	insightsB := map[string]*analyzer.Insight{
		"b": {Repo: "b", Concepts: []string{"api"}},
		"a": {Repo: "a", Concepts: []string{"web"}},
	}
	depsReversed := []manifest.DependencySet{deps[1], deps[0]}

	first, err := Reduce("alice", repos, deps, nil, insightsA)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := Reduce("alice", repos, depsReversed, nil, insightsB)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Fatalf("profiles differ under input permutation:\n%+v\n%+v", first, second)
	}
}

func TestReduceIdempotent(t *testing.T) {
	repos := discoveryOrder("a")
	deps := []manifest.DependencySet{
		{Repo: "a", Language: "Ruby", Packages: []string{"rails"}},
	}

	first, err := Reduce("alice", repos, deps, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := Reduce("alice", repos, deps, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("repeated reduce differs:\n%+v\n%+v", first, second)
	}
}

func TestReduceRejectsUnknownRepoRef(t *testing.T) {
	repos := discoveryOrder("a")
	deps := []manifest.DependencySet{
		{Repo: "ghost", Language: "Go", Packages: []string{"x"}},
	}

	_, err := Reduce("alice", repos, deps, nil, nil)
	var violation *InvariantViolationError
	if !errors.As(err, &violation) {
		t.Fatalf("expected InvariantViolationError, got %v", err)
	}
	if violation.Repo != "ghost" {
		t.Fatalf("unexpected violation detail: %+v", violation)
	}
}

func TestRankedSkillsTieBreaksByFirstSeen(t *testing.T) {
	repos := discoveryOrder("a", "b")
	deps := []manifest.DependencySet{
		{Repo: "a", Language: "Python", Packages: []string{"x"}},
		{Repo: "b", Language: "TypeScript", Packages: []string{"y"}},
	}

	p, err := Reduce("alice", repos, deps, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ranked := p.RankedSkills()
	if len(ranked) != 2 {
		t.Fatalf("expected 2 ranked skills, got %v", ranked)
	}
	if ranked[0].Name != "Python" || ranked[1].Name != "TypeScript" {
		t.Fatalf("tie must keep first-seen order, got %v", ranked)
	}
}

func TestProfileRoundTrip(t *testing.T) {
	repos := discoveryOrder("a")
	deps := []manifest.DependencySet{
		{Repo: "a", Language: "Go", Packages: []string{"cobra"}},
	}

	p, err := Reduce("alice", repos, deps, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := p.MarshalIndent()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	restored, err := UnmarshalProfile(data)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if restored.Identifier != "alice" || restored.Skills["Go"] != 1 {
		t.Fatalf("round trip lost data: %+v", restored)
	}
	if got := restored.TopSkills(5); len(got) != 1 || got[0] != "Go" {
		t.Fatalf("unexpected top skills after round trip: %v", got)
	}
}
