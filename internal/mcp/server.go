// Package mcp serves the tool table over the Model Context Protocol:
// newline-delimited JSON-RPC 2.0 on stdin/stdout.
package mcp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/Porta048/AutoCad-MCP/internal/dispatch"
	"github.com/Porta048/AutoCad-MCP/internal/geometry"
	"github.com/Porta048/AutoCad-MCP/internal/journal"
	"github.com/Porta048/AutoCad-MCP/internal/logging"
	"github.com/Porta048/AutoCad-MCP/internal/tools"
)

// Handler runs tool calls.
type Handler interface {
	Handle(ctx context.Context, req dispatch.Request) dispatch.Response
}

// ToolLister lists the tool table.
type ToolLister interface {
	GetDefinitions() []tools.Tool
}

// DrawingState provides the drawing://current resource.
type DrawingState interface {
	Snapshot(ctx context.Context) (journal.State, error)
}

type Options struct {
	Info    ServerInfo
	Handler Handler
	Tools   ToolLister
	State   DrawingState
	Logger  logging.Logger
}

// Server answers MCP requests. Requests are handled concurrently; responses
// are written one line at a time in completion order.
type Server struct {
	info    ServerInfo
	handler Handler
	tools   ToolLister
	state   DrawingState
	logger  logging.Logger

	writeMu sync.Mutex
	out     *bufio.Writer

	inflightMu sync.Mutex
	inflight   map[string]context.CancelFunc
}

func NewServer(opts Options) *Server {
	return &Server{
		info:     opts.Info,
		handler:  opts.Handler,
		tools:    opts.Tools,
		state:    opts.State,
		logger:   logging.OrNop(opts.Logger),
		inflight: make(map[string]context.CancelFunc),
	}
}

// Serve reads requests from in until EOF or until ctx ends, then waits for
// the requests in flight and returns.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	s.out = bufio.NewWriter(out)

	lines := make(chan []byte)
	readErr := make(chan error, 1)
	go func() {
		defer close(lines)
		r := bufio.NewReader(in)
		for {
			line, err := r.ReadBytes('\n')
			if len(bytes.TrimSpace(line)) > 0 {
				select {
				case lines <- line:
				case <-ctx.Done():
					return
				}
			}
			if err != nil {
				if !errors.Is(err, io.EOF) {
					readErr <- err
				}
				return
			}
		}
	}()

	var wg sync.WaitGroup
	defer wg.Wait()
	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-readErr:
					return fmt.Errorf("failed to read request: %w", err)
				default:
					return nil
				}
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				s.handleLine(ctx, line)
			}()
		}
	}
}

func (s *Server) handleLine(ctx context.Context, line []byte) {
	req, err := UnmarshalRequest(bytes.TrimSpace(line))
	if err != nil {
		var rpcErr *RPCError
		errors.As(err, &rpcErr)
		var id json.RawMessage
		if req != nil {
			id = req.ID
		}
		s.logger.Warn("bad request: %v", err)
		s.write(NewErrorResponse(id, rpcErr.Code, rpcErr.Message, rpcErr.Data))
		return
	}

	if req.IsNotification() {
		s.notify(req)
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	key := string(req.ID)
	s.track(key, cancel)
	defer s.untrack(key)

	result, rpcErr := s.dispatch(ctx, req)
	if rpcErr != nil {
		s.write(NewErrorResponse(req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data))
		return
	}
	s.write(NewResponse(req.ID, result))
}

func (s *Server) notify(req *Request) {
	switch req.Method {
	case "notifications/initialized":
		s.logger.Info("client initialized")
	case "notifications/cancelled":
		var p struct {
			RequestID json.RawMessage `json:"requestId"`
		}
		if err := json.Unmarshal(req.Params, &p); err == nil {
			s.cancel(string(p.RequestID))
		}
	default:
		s.logger.Debug("ignoring notification %s", req.Method)
	}
}

func (s *Server) dispatch(ctx context.Context, req *Request) (any, *RPCError) {
	switch req.Method {
	case "initialize":
		return InitializeResult{
			ProtocolVersion: ProtocolVersion,
			ServerInfo:      s.info,
			Capabilities:    ServerCapabilities{Tools: &struct{}{}, Resources: &struct{}{}, Prompts: &struct{}{}},
		}, nil
	case "ping":
		return struct{}{}, nil
	case "tools/list":
		return s.listTools(), nil
	case "tools/call":
		return s.callTool(ctx, req.Params)
	case "resources/list":
		return map[string]any{"resources": []Resource{{
			URI:         DrawingURI,
			Name:        "Current Drawing State",
			Description: "Entities created in the current drawing, the active layer and the last command",
			MimeType:    "application/json",
		}}}, nil
	case "resources/read":
		return s.readResource(ctx, req.Params)
	case "prompts/list":
		return map[string]any{"prompts": []Prompt{{
			Name:        AssistantPrompt,
			Description: "CAD assistant system prompt for natural language drawing control",
			Arguments:   []PromptArgument{{Name: "task", Description: "The drawing task to accomplish"}},
		}}}, nil
	case "prompts/get":
		return s.getPrompt(req.Params)
	default:
		return nil, &RPCError{Code: MethodNotFound, Message: fmt.Sprintf("Method not found: %s", req.Method)}
	}
}

func (s *Server) listTools() map[string]any {
	defs := s.tools.GetDefinitions()
	list := make([]ToolSchema, 0, len(defs))
	for _, d := range defs {
		list = append(list, ToolSchema{
			Name:        d.Function.Name,
			Description: d.Function.Description,
			InputSchema: d.Function.Parameters,
		})
	}
	return map[string]any{"tools": list}
}

func (s *Server) callTool(ctx context.Context, raw json.RawMessage) (any, *RPCError) {
	var p ToolCallParams
	if err := json.Unmarshal(raw, &p); err != nil || p.Name == "" {
		return nil, &RPCError{Code: InvalidParams, Message: "tools/call needs a tool name"}
	}
	s.logger.Info("🛠️ tool call: %s %s", p.Name, compact(p.Arguments))

	resp := s.handler.Handle(ctx, dispatch.ToolCall(p.Name, p.Arguments))
	text, err := marshalText(resp)
	if err != nil {
		return nil, &RPCError{Code: InternalError, Message: err.Error()}
	}
	return ToolCallResult{
		Content: []ContentBlock{{Type: "text", Text: text}},
		IsError: !resp.OK(),
	}, nil
}

func (s *Server) readResource(ctx context.Context, raw json.RawMessage) (any, *RPCError) {
	var p struct {
		URI string `json:"uri"`
	}
	_ = json.Unmarshal(raw, &p)
	if p.URI != DrawingURI {
		return nil, &RPCError{Code: InvalidParams, Message: fmt.Sprintf("Unknown resource: %s", p.URI)}
	}
	state, err := s.state.Snapshot(ctx)
	if err != nil {
		s.logger.Error("drawing state unavailable: %v", err)
		return nil, &RPCError{Code: InternalError, Message: "drawing state unavailable"}
	}
	text, err := marshalText(state)
	if err != nil {
		return nil, &RPCError{Code: InternalError, Message: err.Error()}
	}
	return map[string]any{"contents": []ResourceContents{{
		URI:      DrawingURI,
		MimeType: "application/json",
		Text:     text,
	}}}, nil
}

// marshalText renders v as indented JSON for a text content block. HTML
// escaping is off so messages like "radius must be > 0" read as written.
func marshalText(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

func (s *Server) getPrompt(raw json.RawMessage) (any, *RPCError) {
	var p struct {
		Name      string            `json:"name"`
		Arguments map[string]string `json:"arguments"`
	}
	_ = json.Unmarshal(raw, &p)
	if p.Name != AssistantPrompt {
		return nil, &RPCError{Code: InvalidParams, Message: fmt.Sprintf("Unknown prompt: %s", p.Name)}
	}
	return GetPromptResult{
		Description: "CAD assistant for natural language control",
		Messages: []PromptMessage{{
			Role:    "user",
			Content: ContentBlock{Type: "text", Text: AssistantText(p.Arguments["task"])},
		}},
	}, nil
}

// AssistantText renders the cad-assistant prompt for task.
func AssistantText(task string) string {
	var b strings.Builder
	b.WriteString("You are a CAD assistant that creates drawings in AutoCAD, GstarCAD or ZWCAD through the tools of this server.\n\n")
	b.WriteString("You can:\n")
	b.WriteString("- Draw lines, circles, arcs, ellipses, rectangles and polylines\n")
	b.WriteString("- Add text and aligned dimensions\n")
	b.WriteString("- Fill closed boundaries with hatch patterns\n")
	b.WriteString("- Save the drawing to a DWG file\n\n")
	b.WriteString("Coordinates are [x, y] in drawing units. Positive X is right, positive Y is up.\n")
	b.WriteString("Angles are in degrees, counter-clockwise from the positive X axis.\n\n")
	b.WriteString("Colors:\n")
	for _, c := range geometry.Palette() {
		fmt.Fprintf(&b, "- %d: %s\n", int(c), c.Name())
	}
	b.WriteString("\n")
	if task = strings.TrimSpace(task); task != "" {
		b.WriteString("Current task: " + task)
	} else {
		b.WriteString("Waiting for drawing instructions...")
	}
	return b.String()
}

func (s *Server) write(resp *Response) {
	data, err := json.Marshal(resp)
	if err != nil {
		s.logger.Error("failed to encode response: %v", err)
		data, _ = json.Marshal(NewErrorResponse(resp.ID, InternalError, "failed to encode response", nil))
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if _, err := s.out.Write(append(data, '\n')); err != nil {
		s.logger.Error("failed to write response: %v", err)
		return
	}
	if err := s.out.Flush(); err != nil {
		s.logger.Error("failed to flush response: %v", err)
	}
}

func (s *Server) track(id string, cancel context.CancelFunc) {
	s.inflightMu.Lock()
	defer s.inflightMu.Unlock()
	s.inflight[id] = cancel
}

func (s *Server) untrack(id string) {
	s.inflightMu.Lock()
	defer s.inflightMu.Unlock()
	if cancel, ok := s.inflight[id]; ok {
		cancel()
		delete(s.inflight, id)
	}
}

func (s *Server) cancel(id string) {
	s.inflightMu.Lock()
	defer s.inflightMu.Unlock()
	if cancel, ok := s.inflight[id]; ok {
		cancel()
	}
}

func compact(raw json.RawMessage) string {
	var b bytes.Buffer
	if err := json.Compact(&b, raw); err != nil {
		return string(raw)
	}
	return b.String()
}
