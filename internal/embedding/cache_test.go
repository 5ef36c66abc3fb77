package embedding

import (
	"context"
	"sync/atomic"
	"testing"
)

func TestEmbeddingCacheEvicts(t *testing.T) {
	c := NewEmbeddingCache(2)
	c.Set("a", []float32{1})
	c.Set("b", []float32{2})
	c.Set("c", []float32{3})
	if c.Len() != 2 {
		t.Errorf("Len=%d", c.Len())
	}
	if _, ok := c.Get("a"); ok {
		t.Error("oldest entry not evicted")
	}
	if v, ok := c.Get("c"); !ok || v[0] != 3 {
		t.Errorf("Get(c)=%v,%v", v, ok)
	}
}

func TestEmbeddingCacheLRUOrder(t *testing.T) {
	c := NewEmbeddingCache(2)
	c.Set("a", []float32{1})
	c.Set("b", []float32{2})
	c.Get("a") // refresh a; b becomes oldest
	c.Set("c", []float32{3})
	if _, ok := c.Get("b"); ok {
		t.Error("refreshed entry evicted instead of oldest")
	}
	if _, ok := c.Get("a"); !ok {
		t.Error("refreshed entry missing")
	}
}

type countingEmbedder struct {
	*MockEmbedder
	calls atomic.Int64
}

func (e *countingEmbedder) Embed(ctx context.Context, image []byte) ([]float32, error) {
	e.calls.Add(1)
	return e.MockEmbedder.Embed(ctx, image)
}

func TestCachedEmbedder(t *testing.T) {
	counter := &countingEmbedder{MockEmbedder: NewMockEmbedder(16)}
	e := NewCachedEmbedder(counter, 8)
	defer e.Close()
	ctx := context.Background()

	first, err := e.Embed(ctx, []byte("img"))
	if err != nil {
		t.Fatal(err)
	}
	second, err := e.Embed(ctx, []byte("img"))
	if err != nil {
		t.Fatal(err)
	}
	if counter.calls.Load() != 1 {
		t.Errorf("inner embedder called %d times", counter.calls.Load())
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatal("cached embedding differs from original")
		}
	}
	if _, err := e.Embed(ctx, []byte("other")); err != nil {
		t.Fatal(err)
	}
	if counter.calls.Load() != 2 {
		t.Errorf("inner embedder called %d times after new image", counter.calls.Load())
	}
	if e.Dimensions() != 16 {
		t.Errorf("Dimensions=%d", e.Dimensions())
	}
}
