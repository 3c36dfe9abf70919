// Package journal keeps the drawing state reported to clients: the entities
// created so far, the current layer and the outcome of the last command.
//
// The journal is an observer of the dispatcher. It is never consulted before a
// driver call and losing it loses no drawing data; the host document remains
// the source of truth.
package journal

import (
	"context"
	"encoding/json"
	"time"
)

// DefaultMaxEntities bounds the entity list when no limit is configured.
const DefaultMaxEntities = 1000

// DefaultLayer is the layer every new drawing starts on.
const DefaultLayer = "0"

// Entity is one object created in the drawing.
type Entity struct {
	ID        string          `json:"entity_id"`
	Type      string          `json:"type"`
	Summary   string          `json:"summary"`
	Layer     string          `json:"layer,omitempty"`
	Params    json.RawMessage `json:"params,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// Entry is what one finished request contributes to the journal.
type Entry struct {
	Command string
	Result  string
	// Entity is set when the request created an entity.
	Entity *Entity
	// Layer is the layer the request drew on, if any.
	Layer string
	// SavedPath is set when the request saved the drawing.
	SavedPath string
}

// State is the snapshot served as drawing://current.
type State struct {
	Entities      []Entity `json:"entities"`
	CurrentLayer  string   `json:"current_layer"`
	LastCommand   string   `json:"last_command"`
	LastResult    string   `json:"last_result"`
	LastSavedPath string   `json:"last_saved_path,omitempty"`
	EntityCount   int      `json:"entity_count"`
}

// Store persists the journal.
type Store interface {
	Record(ctx context.Context, e Entry) error
	Snapshot(ctx context.Context) (State, error)
	Reset(ctx context.Context) error
}
