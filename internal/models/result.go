package models

// ItemMatch is a single recommended catalog item.
type ItemMatch struct {
	Path  string  `json:"path"`
	Score float64 `json:"score"`
}

// CategoryRecommendation holds the ranked matches for one category, scores
// descending; equal scores keep ascending catalog order.
type CategoryRecommendation struct {
	Category string       `json:"category"`
	Items    []*ItemMatch `json:"items"`
}

// RecommendResponse is the response for a recommendation request. Results
// preserve request category order (after dropping unknown names); categories
// with no catalog items are omitted.
type RecommendResponse struct {
	Results []*CategoryRecommendation `json:"results"`
	// UnknownCategories lists requested names absent from the catalog's
	// class list. Non-fatal: remaining categories are still served.
	UnknownCategories []string `json:"unknown_categories,omitempty"`
	QueryTime         int64    `json:"query_time_ms"`
}
