package tools

import (
	"encoding/json"

	"github.com/Porta048/AutoCad-MCP/internal/intent"
)

// ProcessCommand is the name of the natural-language tool.
const ProcessCommand = "process_command"

// TextParser turns a drafting instruction into an intent.
type TextParser interface {
	Parse(text string) (intent.DrawIntent, error)
}

// CommandTool forwards a free-text instruction to the parser.
type CommandTool struct {
	parser TextParser
}

var _ ToolExecutor = (*CommandTool)(nil)

func NewCommandTool(parser TextParser) *CommandTool {
	return &CommandTool{parser: parser}
}

func (ct *CommandTool) Definition() Tool {
	return NewFunctionTool(
		ProcessCommand,
		"Process a natural language drawing command, e.g. 'draw a red circle at (100, 100) with radius 50'. "+
			"English, Italian and Chinese keywords are understood.",
		objectSchema([]string{"command"}, map[string]*JSONSchema{
			"command": stringSchema("Natural language command describing what to draw"),
		}),
	)
}

// Decode reads the command argument and parses it. Parser failures are
// returned unchanged so callers can tell them apart from argument errors.
func (ct *CommandTool) Decode(data json.RawMessage) (intent.DrawIntent, error) {
	command, err := CommandText(data)
	if err != nil {
		return nil, err
	}
	return ct.parser.Parse(command)
}

// CommandText extracts the "command" argument of a process_command call.
func CommandText(data json.RawMessage) (string, error) {
	a := parseArguments(data)
	command := a.str("command")
	if a.err != nil {
		return "", a.err
	}
	return command, nil
}

// NewManager registers the full tool table: the drawing tools followed by
// process_command.
func NewManager(defaultSavePath string, parser TextParser) *ToolManager {
	tm := NewToolManager()
	for _, tool := range NewDrawingTools(defaultSavePath) {
		tm.Register(tool)
	}
	tm.Register(NewCommandTool(parser))
	return tm
}
