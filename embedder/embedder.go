package embedder

import "context"

// Embedder turns text into an opaque vector. The vector space is owned by
// the external service; callers never interpret the values.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}
