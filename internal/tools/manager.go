package tools

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Porta048/AutoCad-MCP/internal/intent"
)

// ErrUnknownTool is returned when no tool is registered under a name.
var ErrUnknownTool = errors.New("unknown tool")

// ToolManager holds a registry of all available tools in registration order.
type ToolManager struct {
	tools map[string]ToolExecutor
	order []string
}

func NewToolManager() *ToolManager {
	return &ToolManager{
		tools: make(map[string]ToolExecutor),
	}
}

// Register adds a new tool to the manager's registry. Registering a name twice
// replaces the earlier tool but keeps its position.
func (tm *ToolManager) Register(tool ToolExecutor) {
	name := tool.Definition().Function.Name
	if _, exists := tm.tools[name]; !exists {
		tm.order = append(tm.order, name)
	}
	tm.tools[name] = tool
}

// GetDefinitions returns all registered tool definitions in registration order.
func (tm *ToolManager) GetDefinitions() []Tool {
	defs := make([]Tool, 0, len(tm.order))
	for _, name := range tm.order {
		defs = append(defs, tm.tools[name].Definition())
	}
	return defs
}

// Decode turns a call of the named tool into an intent.
func (tm *ToolManager) Decode(name string, arguments json.RawMessage) (intent.DrawIntent, error) {
	tool, ok := tm.tools[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTool, name)
	}
	return tool.Decode(arguments)
}

// Has reports whether a tool is registered under name.
func (tm *ToolManager) Has(name string) bool {
	_, ok := tm.tools[name]
	return ok
}

// ToolCount returns the number of registered tools.
func (tm *ToolManager) ToolCount() int {
	return len(tm.tools)
}
