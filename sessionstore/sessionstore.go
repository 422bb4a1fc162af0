package sessionstore

import "context"

// Store is the durable, ordered log of conversation turns. Append is the
// sole mutator and must be atomic per session: two concurrent appends to
// the same session id serialize, and stored order reflects the order the
// store observed them.
type Store interface {
	// CreateSession allocates a new session id without writing any turn.
	CreateSession(ctx context.Context) (string, error)

	// Append writes one turn to the session, creating the session
	// implicitly if the id is unknown.
	Append(ctx context.Context, sessionId string, role string, content string) (Message, error)

	// History returns the session's messages in chronological order.
	// Returns ErrNotFound for a session id that has never been seen.
	History(ctx context.Context, sessionId string, opts ...HistoryOption) ([]Message, error)

	// Exists reports whether the session id is known to the store.
	Exists(ctx context.Context, sessionId string) (bool, error)

	// PendingMessages returns messages not yet embedded, oldest first,
	// across all sessions. Only messages older than the settle cutoff
	// are returned.
	PendingMessages(ctx context.Context, opts ...PendingOption) ([]Message, error)

	// MarkEmbedded advances the embed watermark past the given messages.
	MarkEmbedded(ctx context.Context, messageIds []string) error

	Close() error
}
