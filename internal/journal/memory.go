package journal

import (
	"context"
	"sync"
)

// Memory is an in-process Store. Once full, the oldest entities are dropped.
type Memory struct {
	mu    sync.RWMutex
	max   int
	state State
}

var _ Store = (*Memory)(nil)

func NewMemory(maxEntities int) *Memory {
	if maxEntities <= 0 {
		maxEntities = DefaultMaxEntities
	}
	return &Memory{max: maxEntities, state: State{CurrentLayer: DefaultLayer}}
}

func (m *Memory) Record(_ context.Context, e Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if e.Entity != nil {
		m.state.Entities = append(m.state.Entities, *e.Entity)
		if over := len(m.state.Entities) - m.max; over > 0 {
			m.state.Entities = append([]Entity(nil), m.state.Entities[over:]...)
		}
	}
	if e.Layer != "" {
		m.state.CurrentLayer = e.Layer
	}
	if e.SavedPath != "" {
		m.state.LastSavedPath = e.SavedPath
	}
	m.state.LastCommand = e.Command
	m.state.LastResult = e.Result
	return nil
}

func (m *Memory) Snapshot(context.Context) (State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := m.state
	s.Entities = append([]Entity{}, m.state.Entities...)
	s.EntityCount = len(s.Entities)
	return s, nil
}

func (m *Memory) Reset(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = State{CurrentLayer: DefaultLayer}
	return nil
}
