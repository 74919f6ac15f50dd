package journey

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/songzhibin97/gkit/generator"
	"go.uber.org/zap"

	"github.com/nad125/pharmabot/events"
	"github.com/nad125/pharmabot/logger"
	"github.com/nad125/pharmabot/rules"
	"github.com/nad125/pharmabot/storage"
	"github.com/nad125/pharmabot/types"
)

// Standard error definitions
var (
	ErrJourneyNotFound   = errors.New("journey not found")
	ErrToolNotRegistered = errors.New("tool not registered")
	ErrSessionFinished   = errors.New("session already finished")
	ErrNoTransition      = errors.New("no transition guard satisfied")
	ErrStateNotFound     = errors.New("state not found")
)

// Event types published on the engine's bus.
const (
	EventStateChanged       = "state_changed"
	EventToolInvoked        = "tool_invoked"
	EventGuidelineTriggered = "guideline_triggered"
	EventSessionCompleted   = "session_completed"
	EventSessionPreempted   = "session_preempted"
)

// Reply sources.
const (
	SourceJourney   = "journey"
	SourceGuideline = "guideline"
)

// maxSteps bounds a single advance through the graph, guarding against
// cyclic journeys.
const maxSteps = 50

// Turn is the structured input for one conversation turn: the raw message
// plus any arguments the caller extracted from it (medication name, quantity,
// order id and so on). Argument extraction is the caller's concern; the
// engine only merges Args into the session context.
type Turn struct {
	Message string
	Args    map[string]interface{}
}

// Reply is the engine's response for one turn.
type Reply struct {
	SessionID uint64
	Journey   string
	Text      string
	Feedback  string
	Source    string
	Done      bool
}

// Disambiguation declares a set of candidate journeys for requests whose
// trigger matches are inconclusive. The engine only reports the candidate
// set; selecting among them is the caller's concern.
type Disambiguation struct {
	Observation string
	Candidates  []string
}

// RouteResult is the outcome of matching a request against journey triggers.
type RouteResult struct {
	Journey     string
	Ambiguous   bool
	Observation string
	Candidates  []string
}

// Engine holds the registered journeys, tools, guidelines and glossary, and
// advances sessions through journey graphs one turn at a time. Guideline
// evaluation takes precedence over flow advancement on every turn.
type Engine struct {
	journeys        map[string]*Journey
	order           []string
	tools           map[string]Tool
	guidelines      []types.Guideline
	glossary        []types.Term
	disambiguations []Disambiguation
	evaluator       rules.Evaluator
	store           storage.Storage
	bus             *events.Bus
	generate        generator.Generator
	mu              sync.RWMutex
}

// NewEngine creates an Engine. The ID generator is required; storage defaults
// to in-memory and the evaluator to an ExprEvaluator when nil.
func NewEngine(generate generator.Generator, store storage.Storage, evaluator rules.Evaluator) (*Engine, error) {
	if generate == nil {
		return nil, errors.New("generator is required")
	}
	if store == nil {
		store = storage.NewMemoryStorage()
	}
	if evaluator == nil {
		evaluator = rules.NewExprEvaluator()
	}

	return &Engine{
		journeys:  make(map[string]*Journey),
		tools:     make(map[string]Tool),
		evaluator: evaluator,
		store:     store,
		bus:       events.NewBus(),
		generate:  generate,
	}, nil
}

// SubscribeEvent subscribes an event handler to a specific event type.
func (e *Engine) SubscribeEvent(eventType string, handler events.Handler) {
	e.bus.Subscribe(eventType, handler)
}

// RegisterTool registers a tool for use in tool states.
func (e *Engine) RegisterTool(ctx context.Context, tool Tool) error {
	if tool == nil || tool.Name() == "" {
		return errors.New("tool with a name is required")
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		e.mu.Lock()
		defer e.mu.Unlock()
		e.tools[tool.Name()] = tool
		return nil
	}
}

// RegisterJourney validates and registers a journey. Tool states must
// reference already-registered tools.
func (e *Engine) RegisterJourney(ctx context.Context, j *Journey) error {
	if j == nil {
		return errors.New("journey is required")
	}
	if err := j.Validate(); err != nil {
		return err
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	for _, s := range j.states {
		if s.kind == KindTool {
			if _, ok := e.tools[s.tool]; !ok {
				return fmt.Errorf("%w: %s", ErrToolNotRegistered, s.tool)
			}
		}
	}
	if _, exists := e.journeys[j.Title]; !exists {
		e.order = append(e.order, j.Title)
	}
	e.journeys[j.Title] = j
	return nil
}

// AddGuideline adds a cross-cutting rule. Declaration order is the tie-break
// when matched guidelines share a priority.
func (e *Engine) AddGuideline(g types.Guideline) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.guidelines = append(e.guidelines, g)
}

// AddTerm adds a glossary entry.
func (e *Engine) AddTerm(term types.Term) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.glossary = append(e.glossary, term)
}

// Glossary returns the registered glossary terms.
func (e *Engine) Glossary() []types.Term {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]types.Term, len(e.glossary))
	copy(out, e.glossary)
	return out
}

// AddDisambiguation declares a candidate set for ambiguous routing.
func (e *Engine) AddDisambiguation(d Disambiguation) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.disambiguations = append(e.disambiguations, d)
}

// Journey returns a registered journey by title.
func (e *Engine) Journey(title string) (*Journey, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	j, ok := e.journeys[title]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrJourneyNotFound, title)
	}
	return j, nil
}

// Route matches a request against journey trigger phrases. A longer matched
// trigger is treated as more specific and outranks shorter ones; when the
// best matches tie across journeys and a disambiguation rule covers them, the
// result is ambiguous and carries the candidates for the caller to resolve.
// Without a covering rule the first-registered candidate wins.
func (e *Engine) Route(message string) RouteResult {
	lower := strings.ToLower(message)

	e.mu.RLock()
	defer e.mu.RUnlock()

	best := 0
	var matched []string
	for _, title := range e.order {
		longest := 0
		for _, trigger := range e.journeys[title].Triggers {
			if strings.Contains(lower, strings.ToLower(trigger)) && len(trigger) > longest {
				longest = len(trigger)
			}
		}
		if longest == 0 {
			continue
		}
		if longest > best {
			best = longest
			matched = []string{title}
		} else if longest == best {
			matched = append(matched, title)
		}
	}

	switch len(matched) {
	case 0:
		return RouteResult{}
	case 1:
		return RouteResult{Journey: matched[0]}
	}

	for _, d := range e.disambiguations {
		if covers(d.Candidates, matched) {
			return RouteResult{Ambiguous: true, Observation: d.Observation, Candidates: matched}
		}
	}
	return RouteResult{Journey: matched[0]}
}

// covers reports whether set contains every element of subset.
func covers(set, subset []string) bool {
	for _, s := range subset {
		found := false
		for _, c := range set {
			if c == s {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// StartSession creates a session for a journey and advances it to its first
// prompt. The initial context seeds argument values known up front.
func (e *Engine) StartSession(ctx context.Context, journeyTitle string, initial map[string]interface{}) (*Reply, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	j, err := e.Journey(journeyTitle)
	if err != nil {
		return nil, err
	}

	id, err := e.generate.NextID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session id: %w", err)
	}

	sessionCtx := copyContext(initial)
	if _, ok := sessionCtx["result"]; !ok {
		sessionCtx["result"] = map[string]interface{}{}
	}

	now := time.Now().UnixMilli()
	sess := types.Session{
		ID:        id,
		Journey:   j.Title,
		StateID:   j.start.id,
		Status:    types.SessionActive,
		Context:   sessionCtx,
		CreatedAt: now,
		UpdatedAt: now,
	}

	logger.Info("session started", zap.Uint64("session", sess.ID), zap.String("journey", j.Title))
	return e.advance(ctx, j, &sess)
}

// Session retrieves a stored session by id.
func (e *Engine) Session(ctx context.Context, id uint64) (types.Session, error) {
	return e.store.GetSession(ctx, id)
}

// HandleTurn processes one conversation turn for an existing session.
// Guidelines are evaluated before any flow advancement: a matched guideline's
// action becomes the reply, and a terminal guideline pre-empts and ends the
// session. Otherwise the turn input feeds the guards out of the current chat
// state and the session advances.
func (e *Engine) HandleTurn(ctx context.Context, sessionID uint64, turn Turn) (*Reply, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	sess, err := e.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Status != types.SessionActive && sess.Status != types.SessionAwaiting {
		return nil, fmt.Errorf("%w: id=%d status=%s", ErrSessionFinished, sessionID, sess.Status)
	}

	j, err := e.Journey(sess.Journey)
	if err != nil {
		return nil, err
	}

	if sess.Context == nil {
		sess.Context = map[string]interface{}{}
	}
	sess.Context["message"] = turn.Message
	for k, v := range turn.Args {
		sess.Context[k] = v
	}

	if g := e.matchGuideline(sess.Context); g != nil {
		return e.applyGuideline(ctx, &sess, g)
	}

	state := j.State(sess.StateID)
	if state == nil {
		return nil, fmt.Errorf("%w: journey=%s id=%d", ErrStateNotFound, sess.Journey, sess.StateID)
	}

	next := e.selectTransition(j, state, sess.Context)
	if next == nil {
		// No guard satisfied: stay on the current prompt and re-ask.
		sess.UpdatedAt = time.Now().UnixMilli()
		if err := e.store.SaveSession(ctx, sess); err != nil {
			return nil, err
		}
		return &Reply{
			SessionID: sess.ID,
			Journey:   sess.Journey,
			Text:      state.prompt,
			Source:    SourceJourney,
		}, nil
	}

	sess.StateID = next.To.id
	e.publish(ctx, EventStateChanged, sess.ID, map[string]interface{}{
		"journey": sess.Journey,
		"state":   sess.StateID,
	})
	return e.advance(ctx, j, &sess)
}

// Consult evaluates the guideline set against a standalone message, outside
// any session. Returns nil when no guideline matches.
func (e *Engine) Consult(message string) *types.Guideline {
	return e.matchGuideline(map[string]interface{}{"message": message})
}

// Stop shuts down the engine's event bus.
func (e *Engine) Stop(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		e.bus.Stop()
		return nil
	}
}

// advance walks the journey graph from the session's current state until a
// chat state awaits input, the terminal state completes the session, or the
// step bound trips.
func (e *Engine) advance(ctx context.Context, j *Journey, sess *types.Session) (*Reply, error) {
	reply := &Reply{SessionID: sess.ID, Journey: sess.Journey, Source: SourceJourney}

	for step := 0; step < maxSteps; step++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		state := j.State(sess.StateID)
		if state == nil {
			return nil, fmt.Errorf("%w: journey=%s id=%d", ErrStateNotFound, sess.Journey, sess.StateID)
		}

		switch state.kind {
		case KindChat:
			reply.Text = state.prompt

			// A chat state whose only outcome is the terminal state needs no
			// further input; finish in the same turn.
			outs := j.From(state)
			if len(outs) == 1 && outs[0].Condition == "" && outs[0].To.kind == KindEnd {
				sess.StateID = outs[0].To.id
				return reply, e.complete(ctx, sess, reply)
			}

			sess.Status = types.SessionAwaiting
			sess.UpdatedAt = time.Now().UnixMilli()
			if err := e.store.SaveSession(ctx, *sess); err != nil {
				return nil, err
			}
			return reply, nil

		case KindTool:
			e.mu.RLock()
			tool, ok := e.tools[state.tool]
			e.mu.RUnlock()
			if !ok {
				return nil, fmt.Errorf("%w: %s", ErrToolNotRegistered, state.tool)
			}

			result := tool.Execute(ctx, copyContext(sess.Context))
			sess.Context["result"] = result.Data
			sess.Context["feedback"] = result.Feedback
			sess.Context["is_error"] = result.IsError
			reply.Feedback = result.Feedback

			logger.Info("tool invoked",
				zap.Uint64("session", sess.ID),
				zap.String("tool", state.tool),
				zap.Bool("is_error", result.IsError))
			e.publish(ctx, EventToolInvoked, sess.ID, map[string]interface{}{
				"tool":     state.tool,
				"is_error": result.IsError,
			})

		case KindEnd:
			return reply, e.complete(ctx, sess, reply)
		}

		next := e.selectTransition(j, state, sess.Context)
		if next == nil {
			sess.Status = types.SessionFailed
			sess.UpdatedAt = time.Now().UnixMilli()
			if err := e.store.SaveSession(ctx, *sess); err != nil {
				return nil, err
			}
			return nil, fmt.Errorf("%w: journey=%s state=%d", ErrNoTransition, sess.Journey, state.id)
		}

		sess.StateID = next.To.id
		e.publish(ctx, EventStateChanged, sess.ID, map[string]interface{}{
			"journey": sess.Journey,
			"state":   sess.StateID,
		})
	}

	return nil, fmt.Errorf("journey %q exceeded %d steps without awaiting input", sess.Journey, maxSteps)
}

// selectTransition returns the first transition out of state whose guard is
// satisfied, honoring declaration order. Guards that fail to evaluate are
// logged and skipped.
func (e *Engine) selectTransition(j *Journey, state *State, sessionCtx map[string]interface{}) *Transition {
	for _, t := range j.From(state) {
		ok, err := e.evaluator.Evaluate(t.Condition, copyContext(sessionCtx))
		if err != nil {
			logger.Warn("guard evaluation failed",
				zap.String("journey", j.Title),
				zap.String("condition", t.Condition),
				zap.Error(err))
			continue
		}
		if ok {
			return t
		}
	}
	return nil
}

// matchGuideline returns the matched guideline with the highest priority, or
// nil. Ties resolve to the guideline declared first; evaluation errors are
// logged and the guideline skipped.
func (e *Engine) matchGuideline(sessionCtx map[string]interface{}) *types.Guideline {
	e.mu.RLock()
	guidelines := e.guidelines
	e.mu.RUnlock()

	var best *types.Guideline
	for i := range guidelines {
		g := &guidelines[i]
		ok, err := e.evaluator.Evaluate(g.Condition, copyContext(sessionCtx))
		if err != nil {
			logger.Warn("guideline evaluation failed", zap.String("condition", g.Condition), zap.Error(err))
			continue
		}
		if ok && (best == nil || g.Priority > best.Priority) {
			best = g
		}
	}
	return best
}

// applyGuideline turns a matched guideline into the reply for this turn. A
// terminal guideline pre-empts the journey and ends the session; otherwise
// the session stays where it is and the turn is consumed by the guideline.
func (e *Engine) applyGuideline(ctx context.Context, sess *types.Session, g *types.Guideline) (*Reply, error) {
	logger.Info("guideline triggered",
		zap.Uint64("session", sess.ID),
		zap.Int("priority", g.Priority),
		zap.Bool("terminal", g.Terminal))
	e.publish(ctx, EventGuidelineTriggered, sess.ID, map[string]interface{}{
		"priority": g.Priority,
		"terminal": g.Terminal,
	})

	reply := &Reply{
		SessionID: sess.ID,
		Journey:   sess.Journey,
		Text:      g.Action,
		Source:    SourceGuideline,
	}

	if g.Terminal {
		sess.Status = types.SessionPreempted
		reply.Done = true
	}
	sess.UpdatedAt = time.Now().UnixMilli()
	if err := e.store.SaveSession(ctx, *sess); err != nil {
		return nil, err
	}
	if g.Terminal {
		e.publish(ctx, EventSessionPreempted, sess.ID, map[string]interface{}{
			"journey": sess.Journey,
		})
	}
	return reply, nil
}

// complete marks the session finished and persists it.
func (e *Engine) complete(ctx context.Context, sess *types.Session, reply *Reply) error {
	sess.Status = types.SessionCompleted
	sess.UpdatedAt = time.Now().UnixMilli()
	reply.Done = true
	if err := e.store.SaveSession(ctx, *sess); err != nil {
		return err
	}
	logger.Info("session completed", zap.Uint64("session", sess.ID), zap.String("journey", sess.Journey))
	e.publish(ctx, EventSessionCompleted, sess.ID, map[string]interface{}{
		"journey": sess.Journey,
	})
	return nil
}

// publish sends an event on the bus, discarding delivery errors; the bus is
// best-effort observation, not control flow.
func (e *Engine) publish(ctx context.Context, eventType string, sessionID uint64, data map[string]interface{}) {
	_ = e.bus.Publish(ctx, events.Event{Type: eventType, SessionID: sessionID, Data: data})
}

// copyContext shallow-copies a context map so guard evaluation and tool
// execution never mutate the stored session context.
func copyContext(m map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	return out
}
