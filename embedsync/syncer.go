package embedsync

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/w-h-a/recall/semanticindex"
	"github.com/w-h-a/recall/sessionstore"
)

// Syncer is the background job that keeps the semantic index consistent
// with the conversational log. It talks to the stores only through their
// public contracts so it can be deployed apart from the request path.
//
// The guarantee is at-least-once: messages are marked embedded only
// after a successful upsert, so a crash in between re-embeds a chunk on
// the next run. A message is never skipped; it stays pending until
// marked.
type Syncer struct {
	store   sessionstore.Store
	index   semanticindex.Index
	options Options
}

// Run loops RunOnce on the configured interval until ctx is done.
func (s *Syncer) Run(ctx context.Context) {
	ticker := time.NewTicker(s.options.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.RunOnce(ctx); err != nil {
				slog.ErrorContext(ctx, "embedding sync run failed", "error", err)
			}
		}
	}
}

// RunOnce processes every message past the watermark: fetch pending,
// group per session, chunk, upsert, mark embedded, record the job.
func (s *Syncer) RunOnce(ctx context.Context) (sessionstore.JobRecord, error) {
	job := sessionstore.JobRecord{
		Id:        uuid.New().String(),
		StartedAt: time.Now().UTC(),
		Status:    sessionstore.JobRunning,
	}
	s.recordJob(ctx, job)

	pending, err := s.store.PendingMessages(
		ctx,
		sessionstore.WithSettle(s.options.Settle),
		sessionstore.WithPendingLimit(s.options.BatchLimit),
	)
	if err != nil {
		return s.finish(ctx, job, 0, err)
	}

	if len(pending) == 0 {
		return s.finish(ctx, job, 0, nil)
	}

	processed := 0

	for _, group := range groupBySession(pending) {
		chunks := Chunk(group.messages, s.options.ChunkWords, s.options.OverlapWords)

		records := make([]semanticindex.Record, 0, len(chunks))
		for _, c := range chunks {
			records = append(records, semanticindex.Record{
				SessionId:  group.sessionId,
				MessageIds: c.MessageIds,
				Content:    c.Text,
				Metadata: map[string]any{
					"type":       "conversation_history",
					"start_time": c.Start.Format(time.RFC3339Nano),
					"end_time":   c.End.Format(time.RFC3339Nano),
				},
				CreatedAt: time.Now().UTC(),
			})
		}

		if _, err := s.index.Upsert(ctx, records); err != nil {
			// Leave this session's messages pending; the next run
			// retries them.
			return s.finish(ctx, job, processed, fmt.Errorf("upsert session %s: %w", group.sessionId, err))
		}

		ids := make([]string, 0, len(group.messages))
		for _, msg := range group.messages {
			ids = append(ids, msg.Id)
		}

		if err := s.store.MarkEmbedded(ctx, ids); err != nil {
			return s.finish(ctx, job, processed, fmt.Errorf("mark embedded session %s: %w", group.sessionId, err))
		}

		processed += len(group.messages)

		slog.InfoContext(ctx, "embedded session messages", "session_id", group.sessionId, "messages", len(group.messages), "chunks", len(chunks))
	}

	return s.finish(ctx, job, processed, nil)
}

func (s *Syncer) finish(ctx context.Context, job sessionstore.JobRecord, processed int, err error) (sessionstore.JobRecord, error) {
	job.CompletedAt = time.Now().UTC()
	job.MessagesProcessed = processed

	if err != nil {
		job.Status = sessionstore.JobFailed
		job.Error = err.Error()
	} else {
		job.Status = sessionstore.JobCompleted
	}

	s.recordJob(ctx, job)

	return job, err
}

func (s *Syncer) recordJob(ctx context.Context, job sessionstore.JobRecord) {
	recorder, ok := s.store.(sessionstore.JobRecorder)
	if !ok {
		return
	}
	if err := recorder.RecordJob(ctx, job); err != nil {
		slog.WarnContext(ctx, "failed to record embedding job", "job_id", job.Id, "error", err)
	}
}

type sessionGroup struct {
	sessionId string
	messages  []sessionstore.Message
}

// groupBySession partitions pending messages per session, keeping both
// the per-session message order and a stable session order.
func groupBySession(msgs []sessionstore.Message) []sessionGroup {
	index := map[string]int{}
	var groups []sessionGroup

	for _, msg := range msgs {
		i, ok := index[msg.SessionId]
		if !ok {
			i = len(groups)
			index[msg.SessionId] = i
			groups = append(groups, sessionGroup{sessionId: msg.SessionId})
		}
		groups[i].messages = append(groups[i].messages, msg)
	}

	return groups
}

func New(store sessionstore.Store, index semanticindex.Index, opts ...Option) *Syncer {
	options := NewOptions(opts...)

	if store == nil {
		panic("session store is required")
	}

	if index == nil {
		panic("semantic index is required")
	}

	return &Syncer{
		store:   store,
		index:   index,
		options: options,
	}
}
