package rename

// State is a stage of a rename invocation
type State int

const (
	StateIdle State = iota
	StateLocationsFetched
	StateDeduplicated
	StateScopesResolving
	StateScopesResolved
	StateContentsExtracted
	StatePromptBuilt
	StateSuggestionsReceived
	StatePresented
	StateFailed
)

var stateNames = map[State]string{
	StateIdle:                "idle",
	StateLocationsFetched:    "locations_fetched",
	StateDeduplicated:        "deduplicated",
	StateScopesResolving:     "scopes_resolving",
	StateScopesResolved:      "scopes_resolved",
	StateContentsExtracted:   "contents_extracted",
	StatePromptBuilt:         "prompt_built",
	StateSuggestionsReceived: "suggestions_received",
	StatePresented:           "presented",
	StateFailed:              "failed",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

// Terminal reports whether no further transitions can follow s
func (s State) Terminal() bool {
	return s == StatePresented || s == StateFailed
}
