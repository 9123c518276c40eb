package rag

import (
	"context"
	"fmt"
	"strings"

	"github.com/yihu111/tech-europe-hackathon/internal/profile"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Indexer turns an aggregated profile into embedded fragments and serves
// similarity queries over them.
type Indexer struct {
	embedder Embedder
	store    Store
	logger   *zap.Logger
}

func NewIndexer(embedder Embedder, store Store, logger *zap.Logger) *Indexer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Indexer{embedder: embedder, store: store, logger: logger}
}

// Index embeds the profile's fragments and stores them under its
// identifier, replacing any previously indexed profile. All embeddings
// are computed before the store is touched, so a failed embedding leaves
// the previous index intact and queries never see a partial profile.
func (ix *Indexer) Index(ctx context.Context, p *profile.AggregatedProfile) error {
	fragments := buildFragments(p)
	if len(fragments) == 0 {
		ix.logger.Info("profile has no indexable fragments",
			zap.String("identifier", p.Identifier),
		)
		return ix.store.Upsert(ctx, p.Identifier, nil)
	}

	for i := range fragments {
		vector, err := ix.embedder.Embed(ctx, fragments[i].Text)
		if err != nil {
			return fmt.Errorf("embed fragment %d (%s): %w", i, fragments[i].Kind, err)
		}
		fragments[i].Vector = vector
	}

	if err := ix.store.Upsert(ctx, p.Identifier, fragments); err != nil {
		return fmt.Errorf("store profile index: %w", err)
	}

	ix.logger.Info("profile indexed",
		zap.String("identifier", p.Identifier),
		zap.Int("fragments", len(fragments)),
		zap.String("embedder", ix.embedder.ModelID()),
	)
	return nil
}

// Query embeds text and returns up to k nearest fragments for the
// identifier, best match first. An unindexed identifier yields an empty
// result.
func (ix *Indexer) Query(ctx context.Context, identifier, text string, k int) ([]Entry, error) {
	vector, err := ix.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	scored, err := ix.store.Query(ctx, identifier, vector, k)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(scored))
	for _, s := range scored {
		entries = append(entries, s.Entry)
	}
	return entries, nil
}

// Drop removes the identifier's indexed profile.
func (ix *Indexer) Drop(ctx context.Context, identifier string) error {
	return ix.store.Drop(ctx, identifier)
}

// buildFragments splits a profile into retrievable text units: one
// overview line, one line per ranked skill, and one per repository
// insight.
func buildFragments(p *profile.AggregatedProfile) []Entry {
	var fragments []Entry
	add := func(kind, source, text string) {
		fragments = append(fragments, Entry{
			ID:         uuid.NewString(),
			Identifier: p.Identifier,
			Kind:       kind,
			Text:       text,
			Source:     source,
			Position:   len(fragments),
		})
	}

	ranked := p.RankedSkills()
	if len(ranked) > 0 {
		names := make([]string, 0, len(ranked))
		for _, skill := range ranked {
			names = append(names, skill.Name)
		}
		add(KindOverview, "skills",
			fmt.Sprintf("%s works across %d repositories; main skills: %s.",
				p.Identifier, p.RepoCount, strings.Join(names, ", ")))
	}

	for _, skill := range ranked {
		add(KindSkill, "skills",
			fmt.Sprintf("%s: %.0f%% of detected activity for %s.",
				skill.Name, skill.Weight*100, p.Identifier))
	}

	for _, insight := range p.Insights {
		var b strings.Builder
		fmt.Fprintf(&b, "Repository %s: %s", insight.Repo, insight.Summary)
		if len(insight.Concepts) > 0 {
			fmt.Fprintf(&b, " Concepts: %s.", strings.Join(insight.Concepts, ", "))
		}
		if len(insight.ArchitecturePatterns) > 0 {
			fmt.Fprintf(&b, " Architecture: %s.", strings.Join(insight.ArchitecturePatterns, ", "))
		}
		add(KindInsight, insight.Repo, b.String())
	}

	return fragments
}
