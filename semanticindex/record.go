package semanticindex

import "time"

// Record is one embedded chunk of conversation, traced back to the
// messages it was derived from.
type Record struct {
	Id         string
	SessionId  string
	MessageIds []string
	Content    string
	Metadata   map[string]any
	CreatedAt  time.Time
}

// Result pairs a retrieved record with its similarity score.
type Result struct {
	Record
	Score float32
}
