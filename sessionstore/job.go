package sessionstore

import (
	"context"
	"time"
)

const (
	JobRunning   = "running"
	JobCompleted = "completed"
	JobFailed    = "failed"
)

// JobRecord is one embedding-sync run in the durable job ledger.
type JobRecord struct {
	Id                string
	StartedAt         time.Time
	CompletedAt       time.Time
	Status            string
	MessagesProcessed int
	Error             string
}

// JobRecorder is implemented by stores that keep the job ledger. Stores
// without one are skipped; the ledger is bookkeeping, not a correctness
// requirement.
type JobRecorder interface {
	RecordJob(ctx context.Context, job JobRecord) error
}
