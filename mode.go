package recall

// Mode selects the context strategy for one request. The set is closed:
// every mode maps to a fixed row in the strategy table below, and mode
// is chosen per request by the endpoint, never stored on the session.
type Mode int

const (
	// ModeStateless answers from semantic recall alone; nothing is
	// persisted.
	ModeStateless Mode = iota
	// ModeConversation answers from recent history; turns persist.
	ModeConversation
	// ModeLongTerm combines optional history with global semantic
	// recall; turns persist.
	ModeLongTerm
	// ModeHybrid combines recent history with session-scoped semantic
	// recall; turns persist.
	ModeHybrid
)

func (m Mode) String() string {
	switch m {
	case ModeStateless:
		return "stateless"
	case ModeConversation:
		return "conversation"
	case ModeLongTerm:
		return "long_term"
	case ModeHybrid:
		return "hybrid"
	default:
		return "unknown"
	}
}

type modeSpec struct {
	history       bool
	semantic      bool
	persist       bool
	sessionScoped bool
	defaultK      int
}

var modeSpecs = map[Mode]modeSpec{
	ModeStateless:    {history: false, semantic: true, persist: false, sessionScoped: false, defaultK: 3},
	ModeConversation: {history: true, semantic: false, persist: true},
	ModeLongTerm:     {history: true, semantic: true, persist: true, sessionScoped: false, defaultK: 5},
	ModeHybrid:       {history: true, semantic: true, persist: true, sessionScoped: true, defaultK: 5},
}
