// Package recommend provides the compatibility retrieval engine: per-category
// top-K cosine-similarity search over the feature store.
package recommend

import (
	"sort"
	"time"

	"github.com/hyperjump/kimawashi/internal/config"
	"github.com/hyperjump/kimawashi/internal/feature"
	"github.com/hyperjump/kimawashi/internal/models"
)

// Engine answers recommendation queries against an immutable feature store.
// It holds no mutable state; any number of Recommend calls may run concurrently.
type Engine struct {
	store *feature.Database
	cfg   *config.RecommendConfig
}

// NewEngine creates an engine over store.
func NewEngine(store *feature.Database, cfg *config.RecommendConfig) *Engine {
	return &Engine{store: store, cfg: cfg}
}

// Store returns the engine's feature store.
func (e *Engine) Store() *feature.Database {
	return e.store
}

// Recommend returns the top-K most similar catalog items per requested
// category. The query vector must be unit-normalized by the caller (the
// embedding provider's contract); it is compared by dot product against every
// stored vector in a single pass, then partitioned per category.
//
// Unknown category names are dropped and reported in the response, never as
// an error. Categories with no catalog items are omitted. Result groups keep
// the request's category order after duplicate and unknown names are removed;
// within a group, scores are descending with ties broken by ascending catalog
// order. Returns feature.ErrDimensionMismatch if the query dimension differs
// from the store's.
func (e *Engine) Recommend(query *models.RecommendQuery) (*models.RecommendResponse, error) {
	startTime := time.Now()
	if err := query.Validate(e.cfg.DefaultTopK, e.cfg.MaxTopK); err != nil {
		return nil, err
	}

	resp := &models.RecommendResponse{Results: []*models.CategoryRecommendation{}}

	resolved := make([]int, 0, len(query.Categories))
	seen := make(map[int]bool, len(query.Categories))
	for _, name := range query.Categories {
		idx, ok := e.store.ClassIndex(name)
		if !ok {
			resp.UnknownCategories = append(resp.UnknownCategories, name)
			continue
		}
		if seen[idx] {
			continue
		}
		seen[idx] = true
		resolved = append(resolved, idx)
	}
	if len(resolved) == 0 {
		resp.QueryTime = time.Since(startTime).Milliseconds()
		return resp, nil
	}

	// One dot-product pass over the whole store; categories only partition
	// this vector, so it is never recomputed per category.
	sims, err := e.store.Similarities(query.Vector)
	if err != nil {
		return nil, err
	}

	for _, classIdx := range resolved {
		rows := e.store.ClassRows(classIdx)
		if len(rows) == 0 {
			continue
		}
		order := make([]int, len(rows))
		copy(order, rows)
		// rows are ascending, so a stable sort by descending score keeps
		// equal scores in ascending catalog order.
		sort.SliceStable(order, func(i, j int) bool {
			return sims[order[i]] > sims[order[j]]
		})

		k := query.TopK
		if k > len(order) {
			k = len(order)
		}
		items := make([]*models.ItemMatch, k)
		for i := 0; i < k; i++ {
			items[i] = &models.ItemMatch{
				Path:  e.store.Path(order[i]),
				Score: sims[order[i]],
			}
		}
		resp.Results = append(resp.Results, &models.CategoryRecommendation{
			Category: e.store.ClassName(classIdx),
			Items:    items,
		})
	}

	resp.QueryTime = time.Since(startTime).Milliseconds()
	return resp, nil
}
