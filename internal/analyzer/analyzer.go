// Package analyzer is the map stage of the profile pipeline: an LLM-assisted
// pass over each repository's source tree, run with bounded concurrency and
// per-repository failure isolation.
package analyzer

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "embed"

	"github.com/yihu111/tech-europe-hackathon/internal/ai"
	"github.com/yihu111/tech-europe-hackathon/internal/github"
	"github.com/yihu111/tech-europe-hackathon/internal/utils"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

//go:embed prompt.md
var promptTemplate string

const (
	defaultWorkers = 4
	defaultTimeout = 2 * time.Minute

	defaultMaxLogLength = 200
)

// host is the subset of the repository host the analyzer consumes.
type host interface {
	Tree(ctx context.Context, owner, repo, ref string) ([]github.TreeEntry, error)
	FileContent(ctx context.Context, owner, repo, path string) (string, error)
}

// Config tunes the analyzer's concurrency and budget policy.
type Config struct {
	// Workers caps how many repositories are analyzed simultaneously.
	Workers int
	// Timeout bounds one repository's analysis end to end.
	Timeout time.Duration
	// Budget bounds how much tree content is retained per repository.
	Budget Budget
	// MaxLogLength truncates prompt/response previews in debug logs.
	MaxLogLength int
}

type Analyzer struct {
	host      host
	generator ai.Generator
	logger    *zap.Logger
	sem       *semaphore.Weighted
	timeout   time.Duration
	budget    Budget
	maxLogLen int
}

func New(host host, generator ai.Generator, cfg Config, logger *zap.Logger) *Analyzer {
	if cfg.Workers < 1 {
		cfg.Workers = defaultWorkers
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.Budget == (Budget{}) {
		cfg.Budget = DefaultBudget()
	}
	if cfg.MaxLogLength <= 0 {
		cfg.MaxLogLength = defaultMaxLogLength
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Analyzer{
		host:      host,
		generator: generator,
		logger:    logger,
		sem:       semaphore.NewWeighted(int64(cfg.Workers)),
		timeout:   cfg.Timeout,
		budget:    cfg.Budget,
		maxLogLen: cfg.MaxLogLength,
	}
}

// AnalyzeAll runs deep analysis over the repository set with bounded
// concurrency. The result maps repository name to its insight; repositories
// whose analysis failed or was skipped are simply absent. Cancelling the
// context stops issuing new work but lets in-flight analyses finish within
// their own timeout.
func (a *Analyzer) AnalyzeAll(ctx context.Context, owner string, repos []github.Repository) map[string]*Insight {
	results := make(map[string]*Insight, len(repos))

	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, repo := range repos {
		if err := a.sem.Acquire(ctx, 1); err != nil {
			a.logger.Info("stopping deep analysis", zap.Error(err))
			break
		}

		wg.Add(1)
		go func(repo github.Repository) {
			defer wg.Done()
			defer a.sem.Release(1)

			insight := a.analyze(ctx, owner, repo)
			if insight == nil {
				return
			}

			mu.Lock()
			results[repo.Name] = insight
			mu.Unlock()
		}(repo)
	}

	wg.Wait()

	return results
}

// analyze produces the insight for one repository, or nil when analysis is
// skipped or fails. Failures never propagate: this is best-effort per repo.
func (a *Analyzer) analyze(ctx context.Context, owner string, repo github.Repository) *Insight {
	log := a.logger.With(zap.String("repo", repo.Name))

	// In-flight work survives pipeline cancellation; the per-repository
	// timeout is the only bound from here on.
	runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.timeout)
	defer cancel()

	tree, err := a.host.Tree(runCtx, owner, repo.Name, repo.DefaultBranch)
	if err != nil {
		log.Warn("fetching tree failed, skipping deep analysis", zap.Error(err))
		return nil
	}

	files, ok := a.budget.selectFiles(tree)
	if !ok {
		log.Info("repository exceeds analysis budget, skipping",
			zap.Int("tree_entries", len(tree)),
		)
		return nil
	}
	if len(files) == 0 {
		log.Debug("no eligible files for deep analysis")
		return nil
	}

	prompt, err := a.buildPrompt(runCtx, owner, repo, files)
	if err != nil {
		log.Warn("building analysis prompt failed", zap.Error(err))
		return nil
	}

	log.Debug("deep analysis request",
		zap.Int("files", len(files)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, a.maxLogLen)),
	)

	raw, err := a.generator.GenerateContent(runCtx, prompt)
	if err != nil {
		// Exactly one retry on a transient upstream failure.
		log.Debug("model call failed, retrying once", zap.Error(err))
		raw, err = a.generator.GenerateContent(runCtx, prompt)
	}
	if err != nil {
		log.Warn("deep analysis failed", zap.Error(err))
		return nil
	}

	log.Debug("deep analysis response",
		zap.String("response_preview", utils.TruncateForLog(raw, a.maxLogLen)),
	)

	insight, err := parseInsight(repo.Name, raw)
	if err != nil {
		// Malformed responses are not retried.
		log.Warn("discarding malformed analysis response", zap.Error(err))
		return nil
	}

	return insight
}

func (a *Analyzer) buildPrompt(ctx context.Context, owner string, repo github.Repository, files []github.TreeEntry) (string, error) {
	var builder strings.Builder
	for _, entry := range files {
		content, err := a.host.FileContent(ctx, owner, repo.Name, entry.Path)
		if err != nil {
			return "", fmt.Errorf("fetch %s: %w", entry.Path, err)
		}

		if len(content) > a.budget.MaxFileBytes {
			content = content[:a.budget.MaxFileBytes] + "\n... [truncated]"
		}

		fmt.Fprintf(&builder, "### %s\n\n%s\n\n", entry.Path, content)
	}

	prompt := strings.ReplaceAll(promptTemplate, "{{REPO_NAME}}", repo.Name)
	prompt = strings.ReplaceAll(prompt, "{{PRIMARY_LANGUAGE}}", repo.Language)
	prompt = strings.ReplaceAll(prompt, "{{FILES}}", strings.TrimSpace(builder.String()))

	return prompt, nil
}
