package journey

import (
	"errors"
	"fmt"
)

// Kind discriminates the state variants of a flow graph.
type Kind int

const (
	// KindStart is the implicit entry state every journey owns.
	KindStart Kind = iota
	// KindChat prompts the customer and waits for the next turn.
	KindChat
	// KindTool invokes a registered tool and feeds its result to the guards.
	KindTool
	// KindEnd terminates the session.
	KindEnd
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindStart:
		return "start"
	case KindChat:
		return "chat"
	case KindTool:
		return "tool"
	case KindEnd:
		return "end"
	default:
		return "unknown"
	}
}

// State is a node in a journey graph. States carry identity independent of
// their content: transitions reference states by pointer, so two upstream
// branches can converge on one shared state and every downstream transition
// defined on it applies to both paths.
type State struct {
	id     uint64
	kind   Kind
	prompt string
	tool   string
}

// ID returns the state's identity within its journey.
func (s *State) ID() uint64 { return s.id }

// Kind returns the state variant.
func (s *State) Kind() Kind { return s.kind }

// Prompt returns the chat prompt, empty for non-chat states.
func (s *State) Prompt() string { return s.prompt }

// Tool returns the tool name, empty for non-tool states.
func (s *State) Tool() string { return s.tool }

// Transition is a guarded edge between two states. Condition is an expression
// over the session context (including the latest tool result under "result");
// an empty condition is unconditional.
type Transition struct {
	From      *State
	To        *State
	Condition string
}

// Journey is a directed graph of conversation states with guarded
// transitions, plus the trigger phrases the router matches against incoming
// requests. Build it with Chat/Invoke/End/TransitionTo, then register it on
// an Engine; registration validates the graph.
type Journey struct {
	Title       string
	Description string
	Triggers    []string

	start       *State
	end         *State
	states      []*State
	transitions []*Transition
	byID        map[uint64]*State
	nextID      uint64
	errs        []error
}

// New creates an empty journey with its implicit start state.
func New(title, description string, triggers ...string) *Journey {
	j := &Journey{
		Title:       title,
		Description: description,
		Triggers:    triggers,
		byID:        map[uint64]*State{},
	}
	j.start = j.addState(&State{kind: KindStart})
	return j
}

func (j *Journey) addState(s *State) *State {
	j.nextID++
	s.id = j.nextID
	j.states = append(j.states, s)
	j.byID[s.id] = s
	return s
}

// Start returns the journey's entry state.
func (j *Journey) Start() *State { return j.start }

// Chat adds a prompt state.
func (j *Journey) Chat(prompt string) *State {
	if prompt == "" {
		j.errs = append(j.errs, fmt.Errorf("journey %q: chat state with empty prompt", j.Title))
	}
	return j.addState(&State{kind: KindChat, prompt: prompt})
}

// Invoke adds a tool-invocation state.
func (j *Journey) Invoke(tool string) *State {
	if tool == "" {
		j.errs = append(j.errs, fmt.Errorf("journey %q: tool state with empty tool name", j.Title))
	}
	return j.addState(&State{kind: KindTool, tool: tool})
}

// End returns the journey's shared terminal state, creating it on first use.
// All paths that finish the journey converge on this one state.
func (j *Journey) End() *State {
	if j.end == nil {
		j.end = j.addState(&State{kind: KindEnd})
	}
	return j.end
}

// TransitionTo declares a guarded transition. Guards from one source are
// evaluated in declaration order and the first satisfied one is taken, so
// order fallback transitions last. A second unconditional transition from the
// same source is a modeling error and fails validation.
func (j *Journey) TransitionTo(from, to *State, condition string) *Transition {
	t := &Transition{From: from, To: to, Condition: condition}
	j.transitions = append(j.transitions, t)

	if from == nil || to == nil {
		j.errs = append(j.errs, fmt.Errorf("journey %q: transition with nil state", j.Title))
		return t
	}
	if j.byID[from.id] != from || j.byID[to.id] != to {
		j.errs = append(j.errs, fmt.Errorf("journey %q: transition references a state from another journey", j.Title))
		return t
	}
	if from.kind == KindEnd {
		j.errs = append(j.errs, fmt.Errorf("journey %q: transition out of terminal state", j.Title))
		return t
	}
	if condition == "" {
		for _, prev := range j.transitions[:len(j.transitions)-1] {
			if prev.From == from && prev.Condition == "" {
				j.errs = append(j.errs, fmt.Errorf("journey %q: multiple unconditional transitions from state %d", j.Title, from.id))
				break
			}
		}
	}
	return t
}

// State returns a state by id, or nil.
func (j *Journey) State(id uint64) *State { return j.byID[id] }

// Transitions returns the declared transitions in declaration order.
func (j *Journey) Transitions() []*Transition { return j.transitions }

// From returns the transitions out of a state, in declaration order.
func (j *Journey) From(s *State) []*Transition {
	var out []*Transition
	for _, t := range j.transitions {
		if t.From == s {
			out = append(out, t)
		}
	}
	return out
}

// Validate checks the journey graph for modeling errors.
func (j *Journey) Validate() error {
	if len(j.errs) > 0 {
		return j.errs[0]
	}
	if j.Title == "" {
		return errors.New("journey has no title")
	}
	if len(j.Triggers) == 0 {
		return fmt.Errorf("journey %q has no trigger phrases", j.Title)
	}
	if len(j.From(j.start)) == 0 {
		return fmt.Errorf("journey %q has no transition from its start state", j.Title)
	}
	return nil
}
