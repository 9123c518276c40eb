package analyzer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/yihu111/tech-europe-hackathon/internal/github"
)

type stubHost struct {
	trees map[string][]github.TreeEntry
	files map[string]string
}

func (s *stubHost) Tree(_ context.Context, _, repo, _ string) ([]github.TreeEntry, error) {
	tree, ok := s.trees[repo]
	if !ok {
		return nil, errors.New("no such repo")
	}
	return tree, nil
}

func (s *stubHost) FileContent(_ context.Context, _, repo, path string) (string, error) {
	return s.files[repo+"/"+path], nil
}

type stubGenerator struct {
	mu        sync.Mutex
	responses map[string]string // matched by substring of the prompt
	errFor    map[string]error
	failOnce  map[string]bool
	calls     map[string]int
	inFlight  int32
	maxSeen   int32
}

func (s *stubGenerator) GenerateContent(_ context.Context, prompt string) (string, error) {
	current := atomic.AddInt32(&s.inFlight, 1)
	defer atomic.AddInt32(&s.inFlight, -1)
	for {
		seen := atomic.LoadInt32(&s.maxSeen)
		if current <= seen || atomic.CompareAndSwapInt32(&s.maxSeen, seen, current) {
			break
		}
	}

	// Simulate some latency so concurrency can actually overlap.
	time.Sleep(5 * time.Millisecond)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.calls == nil {
		s.calls = map[string]int{}
	}

	for key, response := range s.responses {
		if !strings.Contains(prompt, key) {
			continue
		}
		s.calls[key]++

		if s.failOnce != nil && s.failOnce[key] {
			s.failOnce[key] = false
			return "", errors.New("transient failure")
		}
		if err := s.errFor[key]; err != nil {
			return "", err
		}
		return response, nil
	}

	return "", errors.New("unexpected prompt")
}

func (s *stubGenerator) Model() string { return "stub-model" }

func smallTree() []github.TreeEntry {
	return []github.TreeEntry{
		{Path: "main.go", Type: "blob", Size: 100},
	}
}

func repos(names ...string) []github.Repository {
	result := make([]github.Repository, 0, len(names))
	for _, name := range names {
		result = append(result, github.Repository{Name: name, Language: "Go"})
	}
	return result
}

func TestAnalyzeAllCollectsInsights(t *testing.T) {
	host := &stubHost{
		trees: map[string][]github.TreeEntry{
			"alpha": smallTree(),
			"beta":  smallTree(),
		},
		files: map[string]string{
			"alpha/main.go": "package main",
			"beta/main.go":  "package main",
		},
	}
	gen := &stubGenerator{
		responses: map[string]string{
			"Repository: alpha": `{"concepts": ["cli"], "architecture_patterns": ["worker pool"], "summary": "A CLI."}`,
			"Repository: beta":  `{"concepts": ["http"], "architecture_patterns": [], "summary": "A server."}`,
		},
	}

	a := New(host, gen, Config{Workers: 2}, nil)

	insights := a.AnalyzeAll(context.Background(), "alice", repos("alpha", "beta"))

	if len(insights) != 2 {
		t.Fatalf("expected 2 insights, got %d", len(insights))
	}
	if insights["alpha"].Concepts[0] != "cli" {
		t.Fatalf("unexpected alpha insight: %+v", insights["alpha"])
	}
	if insights["beta"].Summary != "A server." {
		t.Fatalf("unexpected beta insight: %+v", insights["beta"])
	}
}

func TestAnalyzeAllIsolatesFailures(t *testing.T) {
	host := &stubHost{
		trees: map[string][]github.TreeEntry{
			"good": smallTree(),
			"bad":  smallTree(),
		},
		files: map[string]string{
			"good/main.go": "package main",
			"bad/main.go":  "package main",
		},
	}
	gen := &stubGenerator{
		responses: map[string]string{
			"Repository: good": `{"concepts": [], "architecture_patterns": [], "summary": "ok"}`,
			"Repository: bad":  "",
		},
		errFor: map[string]error{
			"Repository: bad": errors.New("model unavailable"),
		},
	}

	a := New(host, gen, Config{Workers: 2}, nil)

	insights := a.AnalyzeAll(context.Background(), "alice", repos("good", "bad"))

	if len(insights) != 1 {
		t.Fatalf("expected only the good repo, got %d insights", len(insights))
	}
	if _, ok := insights["bad"]; ok {
		t.Fatalf("failed repo must be absent, not present")
	}
}

func TestAnalyzeRetriesTransientFailureOnce(t *testing.T) {
	host := &stubHost{
		trees: map[string][]github.TreeEntry{"flaky": smallTree()},
		files: map[string]string{"flaky/main.go": "package main"},
	}
	gen := &stubGenerator{
		responses: map[string]string{
			"Repository: flaky": `{"concepts": ["retries"], "architecture_patterns": [], "summary": "ok"}`,
		},
		failOnce: map[string]bool{"Repository: flaky": true},
	}

	a := New(host, gen, Config{}, nil)

	insights := a.AnalyzeAll(context.Background(), "alice", repos("flaky"))

	if len(insights) != 1 {
		t.Fatalf("expected retry to recover the insight, got %d", len(insights))
	}
	if gen.calls["Repository: flaky"] != 2 {
		t.Fatalf("expected exactly 2 calls, got %d", gen.calls["Repository: flaky"])
	}
}

func TestAnalyzeDoesNotRetryMalformedResponse(t *testing.T) {
	host := &stubHost{
		trees: map[string][]github.TreeEntry{"noise": smallTree()},
		files: map[string]string{"noise/main.go": "package main"},
	}
	gen := &stubGenerator{
		responses: map[string]string{
			"Repository: noise": "this is not json",
		},
	}

	a := New(host, gen, Config{}, nil)

	insights := a.AnalyzeAll(context.Background(), "alice", repos("noise"))

	if len(insights) != 0 {
		t.Fatalf("malformed response must yield absent insight, got %v", insights)
	}
	if gen.calls["Repository: noise"] != 1 {
		t.Fatalf("malformed response must not be retried, got %d calls", gen.calls["Repository: noise"])
	}
}

func TestAnalyzeSkipsOversizedRepository(t *testing.T) {
	bigTree := make([]github.TreeEntry, 0, 100)
	for i := 0; i < 100; i++ {
		bigTree = append(bigTree, github.TreeEntry{
			Path: fmt.Sprintf("src/file%03d.go", i),
			Type: "blob",
			Size: 1000,
		})
	}

	host := &stubHost{
		trees: map[string][]github.TreeEntry{"huge": bigTree, "tiny": smallTree()},
		files: map[string]string{"tiny/main.go": "package main"},
	}
	gen := &stubGenerator{
		responses: map[string]string{
			"Repository: tiny": `{"concepts": [], "architecture_patterns": [], "summary": "ok"}`,
		},
	}

	a := New(host, gen, Config{Workers: 2}, nil)

	insights := a.AnalyzeAll(context.Background(), "alice", repos("huge", "tiny"))

	if _, ok := insights["huge"]; ok {
		t.Fatalf("oversized repository must be skipped")
	}
	if _, ok := insights["tiny"]; !ok {
		t.Fatalf("small repository must still be analyzed")
	}
}

func TestAnalyzeAllBoundsConcurrency(t *testing.T) {
	trees := map[string][]github.TreeEntry{}
	files := map[string]string{}
	responses := map[string]string{}
	names := make([]string, 0, 12)
	for i := 0; i < 12; i++ {
		name := fmt.Sprintf("repo%02d", i)
		names = append(names, name)
		trees[name] = smallTree()
		files[name+"/main.go"] = "package main"
		responses["Repository: "+name] = `{"concepts": [], "architecture_patterns": [], "summary": "ok"}`
	}

	gen := &stubGenerator{responses: responses}
	a := New(&stubHost{trees: trees, files: files}, gen, Config{Workers: 3}, nil)

	a.AnalyzeAll(context.Background(), "alice", repos(names...))

	if gen.maxSeen > 3 {
		t.Fatalf("expected at most 3 concurrent model calls, saw %d", gen.maxSeen)
	}
}

func TestAnalyzeAllStopsIssuingAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	host := &stubHost{trees: map[string][]github.TreeEntry{"any": smallTree()}}
	gen := &stubGenerator{responses: map[string]string{}}

	a := New(host, gen, Config{}, nil)

	insights := a.AnalyzeAll(ctx, "alice", repos("any"))
	if len(insights) != 0 {
		t.Fatalf("cancelled run must not produce insights, got %v", insights)
	}
}
