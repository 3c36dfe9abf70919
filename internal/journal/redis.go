package journal

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Redis stores the journal in two keys: a capped list of entity JSON
// documents and a hash holding the scalar state.
type Redis struct {
	rdb    *redis.Client
	prefix string
	max    int
}

var _ Store = (*Redis)(nil)

func NewRedis(rdb *redis.Client, prefix string, maxEntities int) *Redis {
	if prefix == "" {
		prefix = "cadmcp"
	}
	if maxEntities <= 0 {
		maxEntities = DefaultMaxEntities
	}
	return &Redis{rdb: rdb, prefix: prefix, max: maxEntities}
}

func (r *Redis) entitiesKey() string {
	return fmt.Sprintf("%s:drawing:entities", r.prefix)
}

func (r *Redis) stateKey() string {
	return fmt.Sprintf("%s:drawing:state", r.prefix)
}

func (r *Redis) Record(ctx context.Context, e Entry) error {
	pipe := r.rdb.TxPipeline()
	if e.Entity != nil {
		doc, err := json.Marshal(e.Entity)
		if err != nil {
			return fmt.Errorf("failed to encode entity: %w", err)
		}
		pipe.RPush(ctx, r.entitiesKey(), doc)
		pipe.LTrim(ctx, r.entitiesKey(), int64(-r.max), -1)
	}
	pipe.HSet(ctx, r.stateKey(), "last_command", e.Command, "last_result", e.Result)
	if e.Layer != "" {
		pipe.HSet(ctx, r.stateKey(), "current_layer", e.Layer)
	}
	if e.SavedPath != "" {
		pipe.HSet(ctx, r.stateKey(), "last_saved_path", e.SavedPath)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to record journal entry: %w", err)
	}
	return nil
}

func (r *Redis) Snapshot(ctx context.Context) (State, error) {
	docs, err := r.rdb.LRange(ctx, r.entitiesKey(), 0, -1).Result()
	if err != nil {
		return State{}, fmt.Errorf("failed to read entities: %w", err)
	}
	fields, err := r.rdb.HGetAll(ctx, r.stateKey()).Result()
	if err != nil {
		return State{}, fmt.Errorf("failed to read drawing state: %w", err)
	}

	s := State{
		Entities:      make([]Entity, 0, len(docs)),
		CurrentLayer:  fields["current_layer"],
		LastCommand:   fields["last_command"],
		LastResult:    fields["last_result"],
		LastSavedPath: fields["last_saved_path"],
	}
	if s.CurrentLayer == "" {
		s.CurrentLayer = DefaultLayer
	}
	for _, doc := range docs {
		var ent Entity
		if err := json.Unmarshal([]byte(doc), &ent); err != nil {
			// Skip documents written by an incompatible version.
			continue
		}
		s.Entities = append(s.Entities, ent)
	}
	s.EntityCount = len(s.Entities)
	return s, nil
}

func (r *Redis) Reset(ctx context.Context) error {
	if err := r.rdb.Del(ctx, r.entitiesKey(), r.stateKey()).Err(); err != nil {
		return fmt.Errorf("failed to reset journal: %w", err)
	}
	return nil
}
