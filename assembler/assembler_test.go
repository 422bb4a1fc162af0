package assembler_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/w-h-a/recall/assembler"
	"github.com/w-h-a/recall/semanticindex"
	"github.com/w-h-a/recall/sessionstore"
)

type stubStore struct {
	sessionstore.Store
	history []sessionstore.Message
	err     error
}

func (s *stubStore) History(ctx context.Context, sessionId string, opts ...sessionstore.HistoryOption) ([]sessionstore.Message, error) {
	if s.err != nil {
		return nil, s.err
	}

	options := sessionstore.NewHistoryOptions(opts...)

	history := s.history
	if options.Limit > 0 && len(history) > options.Limit {
		history = history[len(history)-options.Limit:]
	}

	return history, nil
}

type stubIndex struct {
	results []semanticindex.Result
	err     error
	filter  string
}

func (s *stubIndex) Upsert(ctx context.Context, records []semanticindex.Record) (int, error) {
	return len(records), nil
}

func (s *stubIndex) Query(ctx context.Context, text string, k int, opts ...semanticindex.QueryOption) ([]semanticindex.Result, error) {
	options := semanticindex.NewQueryOptions(opts...)
	s.filter = options.SessionFilter

	if s.err != nil {
		return nil, s.err
	}

	results := s.results
	if len(results) > k {
		results = results[:k]
	}

	return results, nil
}

func message(id, content string, at time.Time) sessionstore.Message {
	return sessionstore.Message{
		Id:        id,
		SessionId: "s1",
		Role:      sessionstore.RoleUser,
		Content:   content,
		Timestamp: at,
	}
}

func match(chunkId string, score float32, content string, messageIds ...string) semanticindex.Result {
	return semanticindex.Result{
		Record: semanticindex.Record{
			Id:         chunkId,
			SessionId:  "s1",
			MessageIds: messageIds,
			Content:    content,
			CreatedAt:  time.Now().UTC(),
		},
		Score: score,
	}
}

func TestAssembleHistoryFirstThenSemanticByScore(t *testing.T) {
	now := time.Now().UTC()

	store := &stubStore{history: []sessionstore.Message{
		message("m1", "hello", now.Add(-2*time.Minute)),
		message("m2", "hi there", now.Add(-time.Minute)),
	}}
	index := &stubIndex{results: []semanticindex.Result{
		match("c-low", 0.4, "low relevance", "x1"),
		match("c-high", 0.9, "high relevance", "x2"),
	}}

	asm := assembler.New(store, index)

	out, err := asm.Assemble(context.Background(), assembler.Request{
		SessionId:       "s1",
		Query:           "anything",
		IncludeHistory:  true,
		IncludeSemantic: true,
	})
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}

	if len(out.Fragments) != 4 {
		t.Fatalf("expected 4 fragments, got %d", len(out.Fragments))
	}

	if out.Fragments[0].Text != "user: hello" || out.Fragments[1].Text != "user: hi there" {
		t.Fatalf("expected history first and chronological, got %q then %q", out.Fragments[0].Text, out.Fragments[1].Text)
	}

	if out.Fragments[2].Source.ChunkId != "c-high" || out.Fragments[3].Source.ChunkId != "c-low" {
		t.Fatalf("expected semantic fragments by descending score")
	}
}

func TestAssembleTiedScoresPreferNewerChunk(t *testing.T) {
	now := time.Now().UTC()

	older := match("c-old", 0.7, "stale recall", "x1")
	older.CreatedAt = now.Add(-time.Hour)

	newer := match("c-new", 0.7, "fresh recall", "x2")
	newer.CreatedAt = now

	index := &stubIndex{results: []semanticindex.Result{older, newer}}

	asm := assembler.New(&stubStore{}, index)

	out, err := asm.Assemble(context.Background(), assembler.Request{
		Query:           "anything",
		IncludeSemantic: true,
	})
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}

	if len(out.Fragments) != 2 {
		t.Fatalf("expected 2 fragments, got %d", len(out.Fragments))
	}

	if out.Fragments[0].Source.ChunkId != "c-new" || out.Fragments[1].Source.ChunkId != "c-old" {
		t.Fatalf("equal scores must order by recency, got %q then %q",
			out.Fragments[0].Source.ChunkId, out.Fragments[1].Source.ChunkId)
	}
}

func TestAssembleDropsSemanticOverlappingHistory(t *testing.T) {
	now := time.Now().UTC()

	store := &stubStore{history: []sessionstore.Message{
		message("m1", "hello", now),
	}}
	index := &stubIndex{results: []semanticindex.Result{
		match("c-dup", 0.9, "covers m1 already", "m1", "m0"),
		match("c-new", 0.5, "fresh recall", "x9"),
	}}

	asm := assembler.New(store, index)

	out, err := asm.Assemble(context.Background(), assembler.Request{
		SessionId:       "s1",
		Query:           "anything",
		IncludeHistory:  true,
		IncludeSemantic: true,
	})
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}

	for _, f := range out.Fragments {
		if f.Source.ChunkId == "c-dup" {
			t.Fatalf("overlapping chunk should have been dropped")
		}
	}

	if len(out.Fragments) != 2 {
		t.Fatalf("expected history plus one semantic fragment, got %d", len(out.Fragments))
	}
}

func TestAssembleBudgetDropsSemanticTailFirst(t *testing.T) {
	now := time.Now().UTC()

	store := &stubStore{history: []sessionstore.Message{
		message("m1", strings.Repeat("h", 20), now),
	}}
	index := &stubIndex{results: []semanticindex.Result{
		match("c1", 0.9, strings.Repeat("a", 30), "x1"),
		match("c2", 0.5, strings.Repeat("b", 30), "x2"),
	}}

	// Budget fits history plus one chunk only.
	asm := assembler.New(store, index, assembler.WithBudgetChars(60))

	out, err := asm.Assemble(context.Background(), assembler.Request{
		SessionId:       "s1",
		Query:           "anything",
		IncludeHistory:  true,
		IncludeSemantic: true,
	})
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}

	if len(out.Fragments) != 2 {
		t.Fatalf("expected 2 fragments under budget, got %d", len(out.Fragments))
	}

	if out.Fragments[0].Source.Kind != assembler.KindHistory {
		t.Fatalf("history should survive semantic trimming")
	}

	if out.Fragments[1].Source.ChunkId != "c1" {
		t.Fatalf("the lower-scored chunk should be dropped first")
	}
}

func TestAssembleBudgetShedsOldestHistoryLastResort(t *testing.T) {
	now := time.Now().UTC()

	store := &stubStore{history: []sessionstore.Message{
		message("m1", strings.Repeat("a", 40), now.Add(-2*time.Minute)),
		message("m2", strings.Repeat("b", 40), now.Add(-time.Minute)),
	}}

	asm := assembler.New(store, &stubIndex{}, assembler.WithBudgetChars(50))

	out, err := asm.Assemble(context.Background(), assembler.Request{
		SessionId:      "s1",
		Query:          "anything",
		IncludeHistory: true,
	})
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}

	if len(out.Fragments) != 1 {
		t.Fatalf("expected 1 fragment, got %d", len(out.Fragments))
	}

	if !strings.Contains(out.Fragments[0].Text, "b") {
		t.Fatalf("the most recent turn should survive, got %q", out.Fragments[0].Text)
	}
}

func TestAssembleTinyBudgetYieldsEmptyContext(t *testing.T) {
	store := &stubStore{history: []sessionstore.Message{
		message("m1", "a turn that exceeds any tiny budget", time.Now().UTC()),
	}}

	asm := assembler.New(store, &stubIndex{}, assembler.WithBudgetChars(3))

	out, err := asm.Assemble(context.Background(), assembler.Request{
		SessionId:      "s1",
		Query:          "anything",
		IncludeHistory: true,
	})
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}

	if len(out.Fragments) != 0 {
		t.Fatalf("expected an empty context, got %d fragments", len(out.Fragments))
	}
}

func TestAssembleDegradesWhenIndexUnavailable(t *testing.T) {
	store := &stubStore{history: []sessionstore.Message{
		message("m1", "hello", time.Now().UTC()),
	}}
	index := &stubIndex{err: semanticindex.ErrUnavailable}

	asm := assembler.New(store, index)

	out, err := asm.Assemble(context.Background(), assembler.Request{
		SessionId:       "s1",
		Query:           "anything",
		IncludeHistory:  true,
		IncludeSemantic: true,
	})
	if err != nil {
		t.Fatalf("expected history-only degradation, got %v", err)
	}

	if len(out.Fragments) != 1 || out.Fragments[0].Source.Kind != assembler.KindHistory {
		t.Fatalf("expected only the history fragment, got %+v", out.Fragments)
	}
}

func TestAssemblePropagatesUnavailableWithoutHistory(t *testing.T) {
	index := &stubIndex{err: semanticindex.ErrUnavailable}

	asm := assembler.New(&stubStore{}, index)

	_, err := asm.Assemble(context.Background(), assembler.Request{
		Query:           "anything",
		IncludeSemantic: true,
	})
	if !errors.Is(err, semanticindex.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable to propagate, got %v", err)
	}
}

func TestAssembleSessionScopedFilter(t *testing.T) {
	index := &stubIndex{}

	asm := assembler.New(&stubStore{}, index)

	_, err := asm.Assemble(context.Background(), assembler.Request{
		SessionId:       "s1",
		Query:           "anything",
		IncludeSemantic: true,
		SessionScoped:   true,
	})
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}

	if index.filter != "s1" {
		t.Fatalf("expected the query to be session filtered, got %q", index.filter)
	}
}

func TestAssembleHistoryErrorPropagates(t *testing.T) {
	store := &stubStore{err: sessionstore.ErrNotFound}

	asm := assembler.New(store, &stubIndex{})

	_, err := asm.Assemble(context.Background(), assembler.Request{
		SessionId:      "unknown",
		Query:          "anything",
		IncludeHistory: true,
	})
	if !errors.Is(err, sessionstore.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
