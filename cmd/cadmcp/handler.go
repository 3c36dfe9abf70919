package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Porta048/AutoCad-MCP/internal/dispatch"
	"github.com/Porta048/AutoCad-MCP/internal/journal"
	"github.com/Porta048/AutoCad-MCP/internal/logging"
	"github.com/Porta048/AutoCad-MCP/internal/tools"
)

// StatusClientClosedRequest is the non-standard code used when the caller
// went away before the operation started.
const StatusClientClosedRequest = 499

// RequestHandler runs one tool call or raw instruction.
type RequestHandler interface {
	Handle(ctx context.Context, req dispatch.Request) dispatch.Response
}

// CADHandler exposes the tool table over HTTP.
type CADHandler struct {
	requests RequestHandler
	tools    *tools.ToolManager
	state    journal.Store
	logger   logging.Logger
}

func NewCADHandler(requests RequestHandler, toolManager *tools.ToolManager, state journal.Store, logger logging.Logger) *CADHandler {
	return &CADHandler{
		requests: requests,
		tools:    toolManager,
		state:    state,
		logger:   logging.OrNop(logger),
	}
}

// Routes registers every endpoint on engine. gatherer backs /metrics.
func (h *CADHandler) Routes(engine *gin.Engine, gatherer prometheus.Gatherer) {
	engine.GET("/healthz", h.HandleHealth)
	engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	v1 := engine.Group("/api/v1")
	{
		v1.GET("/tools", h.HandleListTools)
		v1.POST("/tools/:name", h.HandleToolCall)
		v1.POST("/command", h.HandleCommand)
		v1.GET("/drawing", h.HandleDrawing)
		v1.DELETE("/drawing", h.HandleResetDrawing)
	}
}

func (h *CADHandler) HandleHealth(c *gin.Context) {
	info := GetBuildInfo()
	c.JSON(http.StatusOK, gin.H{"status": "ok", "version": info.Version, "tools": h.tools.ToolCount()})
}

func (h *CADHandler) HandleListTools(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"tools": h.tools.GetDefinitions()})
}

// HandleToolCall runs the named tool with the request body as its arguments.
func (h *CADHandler) HandleToolCall(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}
	name := c.Param("name")
	h.logger.Info("HTTP tool call: %s", name)
	h.respond(c, h.requests.Handle(c.Request.Context(), dispatch.ToolCall(name, json.RawMessage(body))))
}

type commandRequest struct {
	Command string `json:"command" binding:"required"`
}

// HandleCommand runs a natural-language drawing instruction.
func (h *CADHandler) HandleCommand(c *gin.Context) {
	var req commandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}
	h.logger.Info("HTTP command: %.60s", req.Command)
	h.respond(c, h.requests.Handle(c.Request.Context(), dispatch.RawText(req.Command)))
}

func (h *CADHandler) HandleDrawing(c *gin.Context) {
	state, err := h.state.Snapshot(c.Request.Context())
	if err != nil {
		h.logger.Error("drawing state unavailable: %v", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "drawing state unavailable"})
		return
	}
	c.JSON(http.StatusOK, state)
}

// HandleResetDrawing clears the journal. The document in the host is untouched.
func (h *CADHandler) HandleResetDrawing(c *gin.Context) {
	if err := h.state.Reset(c.Request.Context()); err != nil {
		h.logger.Error("failed to reset drawing state: %v", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "drawing state unavailable"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *CADHandler) respond(c *gin.Context, resp dispatch.Response) {
	c.JSON(httpStatus(resp), resp)
}

func httpStatus(resp dispatch.Response) int {
	if resp.OK() {
		return http.StatusOK
	}
	var kind dispatch.ErrorKind
	if resp.Error != nil {
		kind = resp.Error.Kind
	}
	switch {
	case kind == dispatch.KindUnknownTool:
		return http.StatusNotFound
	case kind == dispatch.KindCancelled:
		return StatusClientClosedRequest
	case resp.Status == dispatch.StatusFailed:
		return http.StatusBadGateway
	default:
		return http.StatusUnprocessableEntity
	}
}
