package mock

import (
	"context"

	"github.com/w-h-a/recall/embedder"
)

// mockEmbedder produces deterministic fake vectors derived from text
// length. No real semantic similarity, good enough for wiring tests.
type mockEmbedder struct {
	dims int
}

func (e *mockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vec := make([]float32, e.dims)
	for i := range vec {
		vec[i] = float32(len(text)) / float32(e.dims+i+1)
	}
	return vec, nil
}

func NewEmbedder(dims int) embedder.Embedder {
	if dims <= 0 {
		dims = 8
	}
	return &mockEmbedder{dims: dims}
}
