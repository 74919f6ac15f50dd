package rules

import (
	"fmt"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Evaluator evaluates guard expressions against a conversation context.
type Evaluator interface {
	Evaluate(expression string, context map[string]interface{}) (bool, error)
}

// ExprEvaluator implements Evaluator using expr-lang/expr. Compiled programs
// are cached by expression text; helpers registered with AddHelper are
// injected into every evaluation context, which lets conditions call
// functions closing over the turn context (e.g. keyword matchers over the
// user message).
type ExprEvaluator struct {
	cache   map[string]*vm.Program
	mu      sync.RWMutex
	helpers map[string]func(map[string]interface{}) interface{}
}

// NewExprEvaluator creates an ExprEvaluator with an empty program cache.
func NewExprEvaluator() *ExprEvaluator {
	return &ExprEvaluator{
		cache:   make(map[string]*vm.Program),
		helpers: make(map[string]func(map[string]interface{}) interface{}),
	}
}

// AddHelper registers a named value or function built from the evaluation
// context, made available to every expression under the given name.
func (e *ExprEvaluator) AddHelper(name string, build func(map[string]interface{}) interface{}) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.helpers[name] = build
}

// Evaluate evaluates the expression against the provided context. An empty
// expression is an unconditional guard and evaluates to true. Non-boolean
// results are an error.
func (e *ExprEvaluator) Evaluate(expression string, context map[string]interface{}) (bool, error) {
	if expression == "" {
		return true, nil
	}

	e.mu.RLock()
	for name, build := range e.helpers {
		context[name] = build(context)
	}
	program, ok := e.cache[expression]
	e.mu.RUnlock()

	if !ok {
		e.mu.Lock()
		if program, ok = e.cache[expression]; !ok {
			var err error
			program, err = expr.Compile(expression, expr.Env(context))
			if err != nil {
				e.mu.Unlock()
				return false, fmt.Errorf("compile condition %q: %w", expression, err)
			}
			e.cache[expression] = program
		}
		e.mu.Unlock()
	}

	result, err := expr.Run(program, context)
	if err != nil {
		return false, err
	}

	boolResult, ok := result.(bool)
	if !ok {
		return false, fmt.Errorf("condition %q did not evaluate to a boolean, got %T", expression, result)
	}
	return boolResult, nil
}
