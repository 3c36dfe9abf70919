package journal

import (
	"context"
	"encoding/json"

	"github.com/Porta048/AutoCad-MCP/internal/dispatch"
	"github.com/Porta048/AutoCad-MCP/internal/intent"
	"github.com/Porta048/AutoCad-MCP/internal/logging"
)

// Recorder feeds dispatcher events into a Store.
type Recorder struct {
	store  Store
	logger logging.Logger
}

var _ dispatch.Recorder = (*Recorder)(nil)

func NewRecorder(store Store, logger logging.Logger) *Recorder {
	return &Recorder{store: store, logger: logging.OrNop(logger)}
}

// Observe records ev. Store failures are logged and never reach the client.
func (r *Recorder) Observe(ctx context.Context, ev dispatch.Event) {
	if err := r.store.Record(ctx, entryFor(ev)); err != nil {
		r.logger.Warn("journal write failed: %v", err)
	}
}

func entryFor(ev dispatch.Event) Entry {
	e := Entry{Command: ev.Tool, Result: resultText(ev.Response)}
	if ev.Intent == nil {
		return e
	}
	e.Command = intent.Summary(ev.Intent)
	if !ev.Response.OK() {
		return e
	}

	e.Layer = ev.Intent.Appearance().Layer
	res := ev.Response.Result
	if res.Path != "" {
		e.SavedPath = res.Path
	}
	if res.EntityID != "" {
		params, _ := json.Marshal(ev.Intent)
		e.Entity = &Entity{
			ID:        res.EntityID,
			Type:      res.Operation,
			Summary:   e.Command,
			Layer:     e.Layer,
			Params:    params,
			CreatedAt: ev.Time,
		}
	}
	return e
}

func resultText(resp dispatch.Response) string {
	if resp.Error == nil {
		return string(resp.Status)
	}
	return string(resp.Status) + ": " + resp.Error.Message
}
