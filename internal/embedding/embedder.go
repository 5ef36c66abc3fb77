// Package embedding provides query image embedding via ONNX and caching.
package embedding

import (
	"context"
	"fmt"

	"github.com/hyperjump/kimawashi/internal/config"
)

// Embedder produces unit-normalized vector embeddings for garment images.
// The embedding space must match the feature store's; only a dimension
// difference is detectable downstream.
type Embedder interface {
	// Embed returns the embedding for an encoded image (JPEG or PNG bytes).
	Embed(ctx context.Context, image []byte) ([]float32, error)
	Dimensions() int
	Close() error
}

// NewEmbedder creates an embedder from config. Supported types: "onnx"
// (default), "mock". The embedder is wrapped with an LRU cache when
// cfg.CacheSize > 0.
func NewEmbedder(cfg *config.EmbeddingConfig) (Embedder, error) {
	var (
		embedder Embedder
		err      error
	)
	switch cfg.Type {
	case "mock":
		embedder = NewMockEmbedder(cfg.Dimensions)
	case "onnx", "":
		embedder, err = NewONNXEmbedder(cfg.ModelPath, cfg.Dimensions, cfg.ImageSize)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown embedder type: %s (supported: onnx, mock)", cfg.Type)
	}
	if cfg.CacheSize > 0 {
		embedder = NewCachedEmbedder(embedder, cfg.CacheSize)
	}
	return embedder, nil
}
