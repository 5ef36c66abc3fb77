package embedding

import (
	"context"
	"hash/fnv"
	"math"

	"github.com/hyperjump/kimawashi/pkg/utils"
)

// MockEmbedder is a deterministic embedder for tests and development. It
// returns a fixed-dimension unit vector derived from the image content hash
// so that the same bytes always get the same embedding. No decoding is done.
type MockEmbedder struct {
	dimensions int
}

// NewMockEmbedder returns an embedder that produces deterministic embeddings of the given dimensions.
func NewMockEmbedder(dimensions int) *MockEmbedder {
	if dimensions <= 0 {
		dimensions = 2048
	}
	return &MockEmbedder{dimensions: dimensions}
}

// Embed returns a deterministic embedding based on the content hash.
func (e *MockEmbedder) Embed(ctx context.Context, image []byte) ([]float32, error) {
	h := fnv.New64a()
	_, _ = h.Write(image)
	seed := h.Sum64()

	emb := make([]float32, e.dimensions)
	for i := 0; i < e.dimensions; i++ {
		emb[i] = float32(math.Sin(float64(seed%100003)*float64(i+1))*0.1 + 0.01)
	}
	utils.NormalizeL2(emb)
	return emb, nil
}

// Dimensions returns the embedding dimension.
func (e *MockEmbedder) Dimensions() int {
	return e.dimensions
}

// Close is a no-op for MockEmbedder.
func (e *MockEmbedder) Close() error {
	return nil
}
