package dispatch

import (
	"encoding/json"
	"time"

	"github.com/Porta048/AutoCad-MCP/internal/cad"
	"github.com/Porta048/AutoCad-MCP/internal/intent"
	"github.com/Porta048/AutoCad-MCP/internal/tools"
)

// Request is one client call: either a structured tool call or a raw
// natural-language instruction.
type Request struct {
	Tool      string
	Arguments json.RawMessage
	Text      string
	raw       bool
}

// ToolCall builds a structured request for the named tool.
func ToolCall(name string, arguments json.RawMessage) Request {
	return Request{Tool: name, Arguments: arguments}
}

// RawText builds a request for an unstructured instruction. It is reported
// under the process_command tool name.
func RawText(text string) Request {
	return Request{Tool: tools.ProcessCommand, Text: text, raw: true}
}

// Status is the terminal state of a request.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusRejected  Status = "rejected"
	StatusFailed    Status = "failed"
)

// ErrorKind classifies rejected and failed requests.
type ErrorKind string

const (
	KindParseError      ErrorKind = "parse_error"
	KindValidationError ErrorKind = "validation_error"
	KindUnknownTool     ErrorKind = "unknown_tool"
	KindDriverError     ErrorKind = "driver_error"
	KindCancelled       ErrorKind = "cancelled"
)

// ErrorBody is the client-visible failure. Reason carries the parse reason or
// the driver error kind.
type ErrorBody struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
	Field   string    `json:"field,omitempty"`
	Reason  string    `json:"reason,omitempty"`
}

// Response is the uniform outcome of every request.
type Response struct {
	Status Status      `json:"status"`
	Tool   string      `json:"tool"`
	Result *cad.Result `json:"result,omitempty"`
	Error  *ErrorBody  `json:"error,omitempty"`
}

// OK reports whether the request completed.
func (r Response) OK() bool {
	return r.Status == StatusCompleted
}

// Event is passed to recorders once a request reaches its terminal state.
// Intent is nil when the request never produced a valid intent.
type Event struct {
	Tool           string
	Intent         intent.DrawIntent
	Response       Response
	DriverDuration time.Duration
	Time           time.Time
}
