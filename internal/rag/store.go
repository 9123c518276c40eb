package rag

import (
	"context"
	"math"
)

// Fragment kinds, naming which part of the profile an entry came from.
const (
	KindOverview = "overview"
	KindSkill    = "skill"
	KindInsight  = "insight"
)

// Entry is one retrievable fragment of an indexed profile.
type Entry struct {
	ID         string    `json:"id"`
	Identifier string    `json:"identifier"`
	Kind       string    `json:"kind"`
	Text       string    `json:"text"`
	Vector     []float32 `json:"vector"`
	// Source names the repository or profile field the fragment came from.
	Source string `json:"source"`
	// Position is the fragment's index within its profile, used to break
	// similarity ties deterministically.
	Position int `json:"position"`
}

// Scored pairs an entry with its similarity to a query vector.
type Scored struct {
	Entry Entry
	Score float64
}

// Store is a pluggable vector index keyed by identifier. Upsert replaces
// the identifier's entries wholesale: a re-indexed profile fully
// supersedes the previous one, never merges with it.
type Store interface {
	Upsert(ctx context.Context, identifier string, entries []Entry) error
	Query(ctx context.Context, identifier string, vector []float32, k int) ([]Scored, error)
	Drop(ctx context.Context, identifier string) error
}

// normalize returns v scaled to unit L2 norm, so dot product against
// another normalized vector equals cosine similarity.
func normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	norm := math.Sqrt(sum)

	out := make([]float32, len(v))
	if norm == 0 {
		copy(out, v)
		return out
	}
	inv := float32(1 / norm)
	for i := range v {
		out[i] = v[i] * inv
	}
	return out
}

func dotProduct(a, b []float32) float64 {
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot
}
