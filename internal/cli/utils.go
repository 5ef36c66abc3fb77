// Package cli provides CLI utilities for Kimawashi.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/hyperjump/kimawashi/internal/models"
)

// OutputFormat is the format for recommendation output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// WriteRecommendations writes recommendation results to w in the given format.
// Use OutputJSON for parseable output consumable by other apps.
func WriteRecommendations(w io.Writer, response *models.RecommendResponse, format OutputFormat) error {
	switch format {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(response)
	default:
		writeRecommendationsText(w, response)
		return nil
	}
}

func writeRecommendationsText(w io.Writer, response *models.RecommendResponse) {
	if len(response.UnknownCategories) > 0 {
		fmt.Fprintf(w, "Unknown categories (skipped): %s\n", strings.Join(response.UnknownCategories, ", "))
	}
	if len(response.Results) == 0 {
		fmt.Fprintln(w, "No compatible items found for the selected categories.")
		return
	}
	fmt.Fprintf(w, "\nRecommendations in %dms\n", response.QueryTime)
	for _, group := range response.Results {
		fmt.Fprintf(w, "\nTop %d matches for %s\n", len(group.Items), group.Category)
		fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
		for i, item := range group.Items {
			fmt.Fprintf(w, "%2d. %.4f  %s\n", i+1, item.Score, item.Path)
		}
	}
}

// SplitCategories parses a comma-separated category list, trimming whitespace
// and dropping empty entries.
func SplitCategories(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
