// Package models defines request and response types for the recommender.
package models

import "fmt"

// RecommendQuery is a recommendation request. Vector is the unit-normalized
// query embedding; Categories are the target garment categories.
type RecommendQuery struct {
	Vector     []float32 `json:"vector"`
	Categories []string  `json:"categories"`
	TopK       int       `json:"top_k,omitempty"`
}

// Validate checks required fields and clamps TopK into [1, maxTopK],
// substituting defaultTopK when unset. Returns an error if the query vector
// is missing; an empty category list is allowed and yields an empty result.
func (q *RecommendQuery) Validate(defaultTopK, maxTopK int) error {
	if len(q.Vector) == 0 {
		return fmt.Errorf("query vector cannot be empty")
	}
	if q.TopK <= 0 {
		q.TopK = defaultTopK
	}
	if q.TopK <= 0 {
		q.TopK = 5
	}
	if maxTopK > 0 && q.TopK > maxTopK {
		q.TopK = maxTopK
	}
	return nil
}
