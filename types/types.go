package types

// Result is the uniform outcome of a tool invocation. Tools never return Go
// errors to the conversation layer; semantic failures (not found, invalid
// input, business-rule violations) set IsError with a human-readable
// explanation in Feedback so the caller can render them directly.
type Result struct {
	Data     map[string]interface{} `json:"data"`
	Feedback string                 `json:"feedback"`
	IsError  bool                   `json:"is_error"`
}

// Session states.
const (
	SessionActive    = "active"
	SessionAwaiting  = "awaiting_input"
	SessionCompleted = "completed"
	SessionPreempted = "preempted"
	SessionFailed    = "failed"
)

// Session represents one running conversation over a journey.
type Session struct {
	ID        uint64                 `json:"id"`
	Journey   string                 `json:"journey"`
	StateID   uint64                 `json:"state_id"`
	Status    string                 `json:"status"`
	Context   map[string]interface{} `json:"context"`
	CreatedAt int64                  `json:"created_at"`
	UpdatedAt int64                  `json:"updated_at"`
}

// Guideline is a cross-cutting rule consulted every turn, independent of the
// active journey. Condition is an expression over the turn context. When
// several guidelines match, the highest Priority wins; ties resolve to the
// guideline declared first. Terminal guidelines pre-empt and end the active
// session.
type Guideline struct {
	Condition string `json:"condition"`
	Action    string `json:"action"`
	Priority  int    `json:"priority"`
	Terminal  bool   `json:"terminal"`
}

// Term is a glossary entry supplied once at setup for response grounding.
type Term struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}
