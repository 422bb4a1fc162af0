package personality

import "errors"

var (
	// ErrNotFound is returned for an unknown personality id.
	ErrNotFound = errors.New("personality not found")

	// ErrConflict is returned when a registered id collides with an
	// existing personality. Overwrites are rejected: sessions hold weak
	// references by id and an overwrite would silently change them all.
	ErrConflict = errors.New("personality already exists")

	// ErrInvalid is returned for files that cannot be parsed.
	ErrInvalid = errors.New("invalid personality definition")
)

const (
	TypeTemplate = "template"
	TypePrompt   = "prompt"
)

// Personality is one named prompt configuration: either a structured
// template or a raw free-form prompt.
type Personality struct {
	Id       string
	Type     string
	Template *Template
	Prompt   string
	Path     string
}

// Template holds the structured variant's fields.
type Template struct {
	Name                 string            `json:"name"`
	Role                 string            `json:"role"`
	CoreIdentity         string            `json:"core_identity"`
	CommunicationStyle   map[string]string `json:"communication_style"`
	AnchorPhrases        []string          `json:"anchor_phrases"`
	BehavioralGuidelines map[string]string `json:"behavioral_guidelines"`
	ExampleResponses     []string          `json:"example_responses"`
}

// Summary is the listing shape exposed by the catalog.
type Summary struct {
	Id   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
	Role string `json:"role"`
}
