// Package index exposes the reference-document similarity index. The
// engine only reads from it; corpus writes happen through the seeding
// tool and the out-of-process decision-memory loop.
package index

import (
	"context"

	"github.com/veridoc/veridoc/internal/model"
)

// SearchResult is one nearest neighbor with its cosine similarity and
// the metadata stored next to the reference vector.
type SearchResult struct {
	Score    float64
	Side     model.DocumentSide
	Filename string
}

// Searcher is the narrow query interface the verifier consumes
type Searcher interface {
	// Search returns up to topK nearest neighbors, restricted to the
	// given side unless side is SideUnknown.
	Search(ctx context.Context, vector []float32, side model.DocumentSide, topK int) ([]SearchResult, error)

	// Healthy reports whether the index is reachable
	Healthy(ctx context.Context) error
}
