package assembler

import "time"

const (
	KindHistory  = "history"
	KindSemantic = "semantic"
)

// Fragment is one piece of assembled context with its provenance.
type Fragment struct {
	Text   string
	Source Source
}

// Source records where a fragment came from. It feeds the caller-visible
// sources list.
type Source struct {
	Kind       string         `json:"kind"`
	SessionId  string         `json:"session_id,omitempty"`
	MessageIds []string       `json:"message_ids,omitempty"`
	ChunkId    string         `json:"chunk_id,omitempty"`
	Score      float32        `json:"score,omitempty"`
	Timestamp  time.Time      `json:"timestamp,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// Context is the bounded, ordered output of one Assemble call.
type Context struct {
	Fragments []Fragment
}

// Sources returns the provenance list parallel to the fragments.
func (c Context) Sources() []Source {
	if len(c.Fragments) == 0 {
		return nil
	}
	sources := make([]Source, 0, len(c.Fragments))
	for _, f := range c.Fragments {
		sources = append(sources, f.Source)
	}
	return sources
}

// SemanticSources returns provenance for semantic-recall fragments only.
func (c Context) SemanticSources() []Source {
	var sources []Source
	for _, f := range c.Fragments {
		if f.Source.Kind == KindSemantic {
			sources = append(sources, f.Source)
		}
	}
	return sources
}

// Request selects which stores feed the context for one call.
type Request struct {
	SessionId       string
	Query           string
	IncludeHistory  bool
	IncludeSemantic bool
	// SessionScoped filters semantic recall to the active session.
	SessionScoped bool
	HistoryLimit  int
	MaxResults    int
}
