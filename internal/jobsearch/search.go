// Package jobsearch composes job-board search queries from an
// aggregated profile's strongest skills.
package jobsearch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	_ "embed"

	"github.com/yihu111/tech-europe-hackathon/internal/ai"
	"github.com/yihu111/tech-europe-hackathon/internal/profile"

	"go.uber.org/zap"
)

//go:embed prompt.md
var promptTemplate string

const (
	defaultQueryCount = 3
	topSkillsForQuery = 8
)

// ErrEmptyProfile means the profile carries no skills to search on.
var ErrEmptyProfile = errors.New("profile has no skills to compose job queries from")

type Composer struct {
	generator ai.Generator
	logger    *zap.Logger
}

func NewComposer(generator ai.Generator, logger *zap.Logger) *Composer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Composer{generator: generator, logger: logger}
}

// ComposeQueries asks the model for count job-board search queries
// grounded in the profile's top skills and frameworks.
func (c *Composer) ComposeQueries(ctx context.Context, p *profile.AggregatedProfile, count int) ([]string, error) {
	if count < 1 {
		count = defaultQueryCount
	}

	summary := summarize(p)
	if summary == "" {
		return nil, ErrEmptyProfile
	}

	prompt := strings.ReplaceAll(promptTemplate, "{{PROFILE}}", summary)
	prompt = strings.ReplaceAll(prompt, "{{COUNT}}", strconv.Itoa(count))

	raw, err := c.generator.GenerateContent(ctx, prompt)
	if err != nil {
		c.logger.Debug("query composition failed, retrying once", zap.Error(err))
		raw, err = c.generator.GenerateContent(ctx, prompt)
	}
	if err != nil {
		return nil, fmt.Errorf("compose job queries: %w", err)
	}

	queries, err := parseQueries(raw)
	if err != nil {
		return nil, err
	}
	if len(queries) > count {
		queries = queries[:count]
	}

	c.logger.Info("job search queries composed",
		zap.String("identifier", p.Identifier),
		zap.Int("queries", len(queries)),
	)
	return queries, nil
}

func summarize(p *profile.AggregatedProfile) string {
	ranked := p.RankedSkills()
	if len(ranked) == 0 {
		return ""
	}
	if len(ranked) > topSkillsForQuery {
		ranked = ranked[:topSkillsForQuery]
	}

	var b strings.Builder
	b.WriteString("Top skills by usage:\n")
	for _, skill := range ranked {
		fmt.Fprintf(&b, "- %s (%.0f%%)\n", skill.Name, skill.Weight*100)
	}

	if len(p.Frameworks) > 0 {
		names := make([]string, 0, len(p.Frameworks))
		for _, match := range p.Frameworks {
			names = append(names, match.Name)
		}
		fmt.Fprintf(&b, "Frameworks: %s\n", strings.Join(names, ", "))
	}

	return strings.TrimSpace(b.String())
}

func parseQueries(raw string) ([]string, error) {
	cleaned := strings.TrimSpace(raw)
	if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.TrimPrefix(cleaned, "```json")
		cleaned = strings.TrimPrefix(cleaned, "```")
		cleaned = strings.TrimSpace(cleaned)
		if idx := strings.LastIndex(cleaned, "```"); idx != -1 {
			cleaned = cleaned[:idx]
		}
	}

	var items []string
	if err := json.Unmarshal([]byte(strings.TrimSpace(cleaned)), &items); err != nil {
		return nil, fmt.Errorf("parse job queries response: %w", err)
	}

	queries := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		queries = append(queries, item)
	}
	return queries, nil
}
