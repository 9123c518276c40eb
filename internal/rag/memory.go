package rag

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore is an exact brute-force vector index held in memory.
// Vectors are normalized on insert so dot product equals cosine
// similarity. At profile scale (tens of fragments per identifier) a
// linear scan is exact and effectively free.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string][]Entry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string][]Entry)}
}

// Upsert replaces all entries for the identifier in one step; readers
// never observe a partially written profile.
func (s *MemoryStore) Upsert(_ context.Context, identifier string, entries []Entry) error {
	stored := make([]Entry, len(entries))
	for i, entry := range entries {
		entry.Vector = normalize(entry.Vector)
		stored[i] = entry
	}

	s.mu.Lock()
	s.entries[identifier] = stored
	s.mu.Unlock()

	return nil
}

// Query returns up to k entries nearest to vector, best match first.
// Equal scores keep fragment order. An unknown identifier yields an
// empty result, not an error.
func (s *MemoryStore) Query(_ context.Context, identifier string, vector []float32, k int) ([]Scored, error) {
	if k <= 0 {
		return nil, nil
	}

	query := normalize(vector)

	s.mu.RLock()
	entries := s.entries[identifier]
	scored := make([]Scored, 0, len(entries))
	for _, entry := range entries {
		if len(entry.Vector) != len(query) {
			continue
		}
		scored = append(scored, Scored{Entry: entry, Score: dotProduct(query, entry.Vector)})
	}
	s.mu.RUnlock()

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Entry.Position < scored[j].Entry.Position
	})

	if len(scored) > k {
		scored = scored[:k]
	}
	return scored, nil
}

func (s *MemoryStore) Drop(_ context.Context, identifier string) error {
	s.mu.Lock()
	delete(s.entries, identifier)
	s.mu.Unlock()
	return nil
}
