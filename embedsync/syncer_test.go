package embedsync_test

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/w-h-a/recall/embedder/mock"
	"github.com/w-h-a/recall/embedsync"
	"github.com/w-h-a/recall/semanticindex"
	memoryindex "github.com/w-h-a/recall/semanticindex/memory"
	"github.com/w-h-a/recall/sessionstore"
	memorystore "github.com/w-h-a/recall/sessionstore/memory"
)

func newSyncer(t *testing.T) (sessionstore.Store, semanticindex.Index, *embedsync.Syncer) {
	t.Helper()

	store := memorystore.NewStore()
	index := memoryindex.NewIndex(semanticindex.WithEmbedder(mock.NewEmbedder(8)))

	syncer := embedsync.New(store, index, embedsync.WithSettle(0))

	return store, index, syncer
}

func TestRunOnceEmbedsPendingMessages(t *testing.T) {
	ctx := context.Background()
	store, index, syncer := newSyncer(t)

	sessionId, _ := store.CreateSession(ctx)
	store.Append(ctx, sessionId, sessionstore.RoleUser, "I want to learn about vector search")
	store.Append(ctx, sessionId, sessionstore.RoleAssistant, "Start with cosine similarity")

	job, err := syncer.RunOnce(ctx)
	if err != nil {
		t.Fatalf("RunOnce failed: %v", err)
	}

	if job.Status != sessionstore.JobCompleted {
		t.Fatalf("expected completed job, got %q", job.Status)
	}

	if job.MessagesProcessed != 2 {
		t.Fatalf("expected 2 messages processed, got %d", job.MessagesProcessed)
	}

	pending, err := store.PendingMessages(ctx, sessionstore.WithSettle(0))
	if err != nil {
		t.Fatalf("PendingMessages failed: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected watermark to advance, %d still pending", len(pending))
	}

	results, err := index.Query(ctx, "vector search", 5)
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(results) == 0 {
		t.Fatalf("expected at least one chunk in the index")
	}

	if results[0].SessionId != sessionId {
		t.Fatalf("chunk carries the wrong session id: %q", results[0].SessionId)
	}

	if !strings.Contains(results[0].Content, "user: ") {
		t.Fatalf("chunk should contain role-prefixed transcript lines, got %q", results[0].Content)
	}
}

func TestRunOnceIsIdempotentAfterSuccess(t *testing.T) {
	ctx := context.Background()
	store, _, syncer := newSyncer(t)

	sessionId, _ := store.CreateSession(ctx)
	store.Append(ctx, sessionId, sessionstore.RoleUser, "only once please")

	if _, err := syncer.RunOnce(ctx); err != nil {
		t.Fatalf("first RunOnce failed: %v", err)
	}

	job, err := syncer.RunOnce(ctx)
	if err != nil {
		t.Fatalf("second RunOnce failed: %v", err)
	}

	if job.MessagesProcessed != 0 {
		t.Fatalf("expected nothing left to process, got %d", job.MessagesProcessed)
	}
}

func TestRunOnceGroupsAcrossSessions(t *testing.T) {
	ctx := context.Background()
	store, index, syncer := newSyncer(t)

	a, _ := store.CreateSession(ctx)
	b, _ := store.CreateSession(ctx)
	store.Append(ctx, a, sessionstore.RoleUser, "session a message")
	store.Append(ctx, b, sessionstore.RoleUser, "session b message")

	job, err := syncer.RunOnce(ctx)
	if err != nil {
		t.Fatalf("RunOnce failed: %v", err)
	}

	if job.MessagesProcessed != 2 {
		t.Fatalf("expected both sessions processed, got %d", job.MessagesProcessed)
	}

	results, err := index.Query(ctx, "message", 10)
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}

	sessions := map[string]bool{}
	for _, r := range results {
		sessions[r.SessionId] = true
	}

	if !sessions[a] || !sessions[b] {
		t.Fatalf("expected one chunk per session, got %v", sessions)
	}
}

type failingIndex struct{}

func (failingIndex) Upsert(ctx context.Context, records []semanticindex.Record) (int, error) {
	return 0, semanticindex.ErrUnavailable
}

func (failingIndex) Query(ctx context.Context, text string, k int, opts ...semanticindex.QueryOption) ([]semanticindex.Result, error) {
	return nil, semanticindex.ErrUnavailable
}

func TestRunOnceLeavesMessagesPendingOnUpsertFailure(t *testing.T) {
	ctx := context.Background()
	store := memorystore.NewStore()

	syncer := embedsync.New(store, failingIndex{}, embedsync.WithSettle(0))

	sessionId, _ := store.CreateSession(ctx)
	store.Append(ctx, sessionId, sessionstore.RoleUser, "do not lose me")

	job, err := syncer.RunOnce(ctx)
	if err == nil {
		t.Fatalf("expected the run to fail")
	}

	if job.Status != sessionstore.JobFailed {
		t.Fatalf("expected a failed job, got %q", job.Status)
	}

	pending, err := store.PendingMessages(ctx, sessionstore.WithSettle(0))
	if err != nil {
		t.Fatalf("PendingMessages failed: %v", err)
	}

	if len(pending) != 1 {
		t.Fatalf("expected the message to stay pending, got %d", len(pending))
	}
}

func TestChunkSplitsAndOverlaps(t *testing.T) {
	var msgs []sessionstore.Message
	base := time.Now().UTC()
	for i := 0; i < 10; i++ {
		msgs = append(msgs, sessionstore.Message{
			Id:        fmt.Sprintf("m%d", i),
			SessionId: "s1",
			Role:      sessionstore.RoleUser,
			Content:   strings.Repeat("word ", 20),
			Timestamp: base.Add(time.Duration(i) * time.Second),
		})
	}

	pieces := embedsync.Chunk(msgs, 50, 20)

	if len(pieces) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(pieces))
	}

	for _, p := range pieces {
		if len(p.MessageIds) == 0 {
			t.Fatalf("every chunk must reference its messages")
		}
		if p.End.Before(p.Start) {
			t.Fatalf("chunk time span is inverted")
		}
	}

	// Consecutive chunks share at least one message.
	for i := 1; i < len(pieces); i++ {
		prev := map[string]bool{}
		for _, id := range pieces[i-1].MessageIds {
			prev[id] = true
		}
		shared := false
		for _, id := range pieces[i].MessageIds {
			if prev[id] {
				shared = true
				break
			}
		}
		if !shared {
			t.Fatalf("chunks %d and %d do not overlap", i-1, i)
		}
	}
}

func TestChunkSingleShortConversation(t *testing.T) {
	msgs := []sessionstore.Message{
		{Id: "m1", Role: sessionstore.RoleUser, Content: "hi", Timestamp: time.Now()},
		{Id: "m2", Role: sessionstore.RoleAssistant, Content: "hello", Timestamp: time.Now()},
	}

	pieces := embedsync.Chunk(msgs, 300, 50)

	if len(pieces) != 1 {
		t.Fatalf("expected a single chunk, got %d", len(pieces))
	}

	if len(pieces[0].MessageIds) != 2 {
		t.Fatalf("expected both messages covered, got %v", pieces[0].MessageIds)
	}
}
