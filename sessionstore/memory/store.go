package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/w-h-a/recall/sessionstore"
)

type memoryStore struct {
	options  sessionstore.Options
	sessions map[string][]sessionstore.Message
	mtx      sync.RWMutex
}

func (s *memoryStore) CreateSession(ctx context.Context) (string, error) {
	id := uuid.New().String()

	s.mtx.Lock()
	defer s.mtx.Unlock()

	s.sessions[id] = []sessionstore.Message{}

	return id, nil
}

func (s *memoryStore) Append(ctx context.Context, sessionId string, role string, content string) (sessionstore.Message, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	msg := sessionstore.Message{
		Id:              uuid.New().String(),
		SessionId:       sessionId,
		Role:            role,
		Content:         content,
		Timestamp:       time.Now().UTC(),
		EmbeddingStatus: sessionstore.StatusPending,
	}

	s.sessions[sessionId] = append(s.sessions[sessionId], msg)

	return msg, nil
}

func (s *memoryStore) History(ctx context.Context, sessionId string, opts ...sessionstore.HistoryOption) ([]sessionstore.Message, error) {
	options := sessionstore.NewHistoryOptions(opts...)

	s.mtx.RLock()
	defer s.mtx.RUnlock()

	history, exists := s.sessions[sessionId]
	if !exists {
		return nil, sessionstore.ErrNotFound
	}

	copied := make([]sessionstore.Message, len(history))
	copy(copied, history)

	if options.Limit > 0 && len(copied) > options.Limit {
		copied = copied[len(copied)-options.Limit:]
	}

	return copied, nil
}

func (s *memoryStore) Exists(ctx context.Context, sessionId string) (bool, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	_, exists := s.sessions[sessionId]

	return exists, nil
}

func (s *memoryStore) PendingMessages(ctx context.Context, opts ...sessionstore.PendingOption) ([]sessionstore.Message, error) {
	options := sessionstore.NewPendingOptions(opts...)

	cutoff := time.Now().UTC().Add(-options.Settle)

	s.mtx.RLock()
	defer s.mtx.RUnlock()

	var pending []sessionstore.Message
	for _, history := range s.sessions {
		for _, msg := range history {
			if msg.EmbeddingStatus != sessionstore.StatusPending {
				continue
			}
			if msg.Timestamp.After(cutoff) {
				continue
			}
			pending = append(pending, msg)
		}
	}

	sortByTimestamp(pending)

	if options.Limit > 0 && len(pending) > options.Limit {
		pending = pending[:options.Limit]
	}

	return pending, nil
}

func (s *memoryStore) MarkEmbedded(ctx context.Context, messageIds []string) error {
	ids := make(map[string]struct{}, len(messageIds))
	for _, id := range messageIds {
		ids[id] = struct{}{}
	}

	s.mtx.Lock()
	defer s.mtx.Unlock()

	for sessionId, history := range s.sessions {
		for i := range history {
			if _, ok := ids[history[i].Id]; ok {
				history[i].EmbeddingStatus = sessionstore.StatusEmbedded
			}
		}
		s.sessions[sessionId] = history
	}

	return nil
}

func (s *memoryStore) Close() error {
	return nil
}

func NewStore(opts ...sessionstore.Option) sessionstore.Store {
	options := sessionstore.NewOptions(opts...)

	return &memoryStore{
		options:  options,
		sessions: map[string][]sessionstore.Message{},
		mtx:      sync.RWMutex{},
	}
}
