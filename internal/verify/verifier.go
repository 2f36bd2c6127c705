// Package verify implements the visual authenticity check: a submitted
// document is embedded and compared against the reference corpus.
package verify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/veridoc/veridoc/internal/cache"
	"github.com/veridoc/veridoc/internal/embed"
	"github.com/veridoc/veridoc/internal/index"
	"github.com/veridoc/veridoc/internal/logging"
	"github.com/veridoc/veridoc/internal/model"
)

// EmbeddingError wraps a failure of the embedding dependency
type EmbeddingError struct {
	Op  string
	Err error
}

func (e *EmbeddingError) Error() string {
	return fmt.Sprintf("embedding %s: %v", e.Op, e.Err)
}

func (e *EmbeddingError) Unwrap() error { return e.Err }

const retryBackoff = 500 * time.Millisecond

// sleepFunc is the sleep used before the retry (injectable for tests)
var sleepFunc = time.Sleep

// Verifier scores a document sample against the reference corpus
type Verifier struct {
	embedder  embed.Client
	searcher  index.Searcher
	cache     cache.Cache
	topK      int
	threshold float64
	cacheTTL  time.Duration
}

// NewVerifier creates a verifier. cache may be nil to disable embedding
// reuse across requests.
func NewVerifier(embedder embed.Client, searcher index.Searcher, c cache.Cache, cfg model.Config) *Verifier {
	topK := cfg.Index.TopK
	if topK <= 0 {
		topK = 20
	}
	return &Verifier{
		embedder:  embedder,
		searcher:  searcher,
		cache:     c,
		topK:      topK,
		threshold: cfg.Thresholds.Authenticity,
		cacheTTL:  cfg.Cache.TTL,
	}
}

// Verify embeds each page of the sample, queries the similarity index
// per side, and aggregates the result. Multi-page documents take the
// minimum across page scores, so one forged side fails the whole
// document. The check is read-only and fails closed: when the corpus is
// empty or a dependency stays unreachable after one retry, the result
// is score 0 and passed=false rather than an assumed pass.
func (v *Verifier) Verify(ctx context.Context, sample *model.DocumentSample) (*model.AuthenticityResult, error) {
	if sample == nil || len(sample.Pages) == 0 {
		return nil, fmt.Errorf("document sample has no pages")
	}

	failed := &model.AuthenticityResult{Score: 0, Passed: false, MatchedSide: model.SideUnknown}

	minScore := -1.0
	totalNeighbors := 0
	sideCounts := make(map[model.DocumentSide]int)
	topMatch := ""
	topMatchScore := -1.0

	for _, page := range sample.Pages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		vector, err := v.embedPage(ctx, page)
		if err != nil {
			logging.Warnf("authenticity check failing closed: %v", err)
			return failed, nil
		}

		neighbors, err := v.searcher.Search(ctx, vector, page.Side, v.topK)
		if err != nil {
			logging.Warnf("authenticity check failing closed: similarity index: %v", err)
			return failed, nil
		}
		if len(neighbors) == 0 {
			// An empty corpus is absence of evidence, not authenticity.
			logging.Warnf("authenticity check failing closed: no reference neighbors for %s", page.Filename)
			return failed, nil
		}

		sum := 0.0
		for _, n := range neighbors {
			sum += n.Score
			sideCounts[n.Side]++
			if n.Score > topMatchScore {
				topMatchScore = n.Score
				topMatch = n.Filename
			}
		}
		pageScore := sum / float64(len(neighbors))
		totalNeighbors += len(neighbors)

		if minScore < 0 || pageScore < minScore {
			minScore = pageScore
		}
	}

	return &model.AuthenticityResult{
		Score:               minScore,
		Passed:              minScore >= v.threshold,
		MatchedSide:         mostCommonSide(sideCounts),
		NeighborsConsidered: totalNeighbors,
		TopMatch:            topMatch,
	}, nil
}

// embedPage embeds one page, retrying once with backoff. The embedding
// is cached by content hash so re-evaluations skip the service call.
func (v *Verifier) embedPage(ctx context.Context, page model.DocumentPage) ([]float32, error) {
	key := cache.Key("embedding", page.Data)
	if v.cache != nil {
		if raw, ok := v.cache.Get(key); ok {
			var vec []float32
			if err := json.Unmarshal(raw, &vec); err == nil {
				return vec, nil
			}
		}
	}

	vec, err := v.embedder.EmbedImage(ctx, page.MIME, page.Data)
	if err != nil {
		sleepFunc(retryBackoff)
		vec, err = v.embedder.EmbedImage(ctx, page.MIME, page.Data)
		if err != nil {
			return nil, &EmbeddingError{Op: "embed " + page.Filename, Err: err}
		}
	}

	if v.cache != nil {
		if raw, err := json.Marshal(vec); err == nil {
			_ = v.cache.Set(key, raw, v.cacheTTL)
		}
	}
	return vec, nil
}

// mostCommonSide picks the side reported by the most neighbors, with
// declaration order as the deterministic tie-break.
func mostCommonSide(counts map[model.DocumentSide]int) model.DocumentSide {
	best := model.SideUnknown
	bestCount := 0
	for _, side := range []model.DocumentSide{model.SideFront, model.SideBack, model.SideUnknown} {
		if counts[side] > bestCount {
			best = side
			bestCount = counts[side]
		}
	}
	return best
}
