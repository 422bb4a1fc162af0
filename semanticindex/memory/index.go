package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/w-h-a/recall/semanticindex"
)

type memoryIndex struct {
	options semanticindex.Options
	records map[string]semanticindex.Record
	mtx     sync.RWMutex
	vectors map[string][]float32
}

func (s *memoryIndex) Upsert(ctx context.Context, records []semanticindex.Record) (int, error) {
	written := 0

	for _, rec := range records {
		vec, err := s.options.Embedder.Embed(ctx, rec.Content)
		if err != nil {
			return written, err
		}

		if len(rec.Id) == 0 {
			rec.Id = uuid.New().String()
		}
		if rec.CreatedAt.IsZero() {
			rec.CreatedAt = time.Now().UTC()
		}

		s.mtx.Lock()
		s.records[rec.Id] = rec
		s.vectors[rec.Id] = vec
		s.mtx.Unlock()

		written++
	}

	return written, nil
}

func (s *memoryIndex) Query(ctx context.Context, text string, k int, opts ...semanticindex.QueryOption) ([]semanticindex.Result, error) {
	if k < 1 {
		return nil, nil
	}

	options := semanticindex.NewQueryOptions(opts...)

	vec, err := s.options.Embedder.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	s.mtx.RLock()
	defer s.mtx.RUnlock()

	candidates := make([]semanticindex.Result, 0, len(s.records))

	for id, rec := range s.records {
		if len(options.SessionFilter) > 0 && rec.SessionId != options.SessionFilter {
			continue
		}
		score := semanticindex.CosineSimilarity(vec, s.vectors[id])
		candidates = append(candidates, semanticindex.Result{
			Record: rec,
			Score:  float32(score),
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})

	if len(candidates) > k {
		candidates = candidates[:k]
	}

	return candidates, nil
}

func NewIndex(opts ...semanticindex.Option) semanticindex.Index {
	options := semanticindex.NewOptions(opts...)

	if options.Embedder == nil {
		panic("missing embedder for memory index")
	}

	return &memoryIndex{
		options: options,
		records: map[string]semanticindex.Record{},
		vectors: map[string][]float32{},
		mtx:     sync.RWMutex{},
	}
}
