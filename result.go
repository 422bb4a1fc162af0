package recall

import "github.com/w-h-a/recall/assembler"

// Request is one caller query against the orchestrator.
type Request struct {
	Mode  Mode
	Query string
	// SessionId resumes an existing session. Empty in a persisting mode
	// means a new session is created.
	SessionId string
	// SessionSupplied distinguishes a caller-provided id (unknown ids
	// fail NotFound) from a server-generated new session.
	SessionSupplied bool
	PersonalityId   string
	MaxResults      int
}

// Result is the structured outcome handed to the renderer.
type Result struct {
	Response  string             `json:"response"`
	SessionId string             `json:"session_id,omitempty"`
	Sources   []assembler.Source `json:"sources,omitempty"`
}
