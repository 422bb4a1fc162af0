package sessionstore

import (
	"errors"
	"time"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

const (
	StatusPending  = "pending"
	StatusEmbedded = "embedded"
)

// ErrNotFound is returned when a caller-supplied session id is unknown.
var ErrNotFound = errors.New("session not found")

// Message is one immutable conversation turn.
type Message struct {
	Id        string    `json:"id"`
	SessionId string    `json:"session_id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	// EmbeddingStatus is the embed watermark marker: pending until the
	// sync job has upserted the message into the semantic index.
	EmbeddingStatus string `json:"embedding_status"`
}
