package tools

import (
	"encoding/json"

	"github.com/Porta048/AutoCad-MCP/internal/intent"
)

// ToolExecutor defines the standard interface for any tool served by the gateway.
//
// By having all tools implement this interface, the transports can list and
// decode them in a standardized, plug-and-play fashion without needing to
// know the specific details of each tool's arguments.
type ToolExecutor interface {
	// Definition returns the tool's schema, which is provided to clients
	// so they understand the tool's capabilities, name, and arguments.
	Definition() Tool

	// Decode turns the JSON arguments of a call into an intent. The intent is
	// not validated yet; a missing or malformed argument is reported as an
	// *intent.ValidationError naming the argument.
	Decode(arguments json.RawMessage) (intent.DrawIntent, error)
}
