// Package rag stores an aggregated profile as embedded text fragments and
// retrieves the ones most similar to a query, so question generation can be
// grounded in the developer's actual work.
package rag

import "context"

// Embedder maps text into a fixed-length float vector. Both sides of a
// query must use the same embedder so the vectors share one space.
// Implementations must be deterministic for the same text and model.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	ModelID() string
}
