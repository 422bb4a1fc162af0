package semanticindex

import (
	"context"
	"errors"
)

// ErrUnavailable signals that the similarity backend cannot be reached.
// Callers with another context source degrade instead of failing.
var ErrUnavailable = errors.New("semantic index unavailable")

// Index wraps the external similarity-search service. The adapter's job
// is request shaping (text in, embedding-backed search out) and response
// normalization; scoring and vector math stay on the remote side.
type Index interface {
	// Upsert embeds and writes the records, returning the count written.
	// Records are append-only; a duplicate write supersedes nothing and
	// only nudges retrieval ranking.
	Upsert(ctx context.Context, records []Record) (int, error)

	// Query embeds the text and returns up to k matches sorted by
	// descending similarity. Query never mutates state.
	Query(ctx context.Context, text string, k int, opts ...QueryOption) ([]Result, error)
}
