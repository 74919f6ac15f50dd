package journey

import (
	"context"

	"github.com/nad125/pharmabot/types"
)

// Tool is an action handler invoked from a tool state. Tools receive the
// session context as arguments and always return a Result; semantic failures
// are reported through Result.IsError, never as panics or Go errors, so the
// engine can feed every outcome to the transition guards uniformly.
type Tool interface {
	// Name is the identifier tool states reference.
	Name() string

	// Execute runs the tool against the given arguments.
	Execute(ctx context.Context, args map[string]interface{}) types.Result
}

// ToolFunc adapts a named function to the Tool interface.
type ToolFunc struct {
	ToolName string
	Fn       func(ctx context.Context, args map[string]interface{}) types.Result
}

// Name implements Tool.
func (t ToolFunc) Name() string { return t.ToolName }

// Execute implements Tool.
func (t ToolFunc) Execute(ctx context.Context, args map[string]interface{}) types.Result {
	return t.Fn(ctx, args)
}
