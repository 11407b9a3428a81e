package session

import (
	"context"
	"log/slog"
)

// Manager owns session lifecycle: create, get and save session states, routed
// by the context state key. It replaces the ambient process-wide session
// dictionary of earlier revisions with an explicit store.
type Manager struct {
	store Store[State]
}

func NewManager(core Cache[State]) *Manager {
	return &Manager{
		store: NewStore(core, "session:state", StateKeyOrDefault),
	}
}

func NewMemoryManager() *Manager {
	return NewManager(NewMemoryCache[State]())
}

// Create builds a new session state with an initialized form and persists it.
func (m *Manager) Create(ctx context.Context) (State, error) {
	state := State{}
	if err := InitializeForm(state); err != nil {
		return nil, err
	}
	if err := m.store.Set(ctx, state); err != nil {
		return nil, err
	}
	if key, ok := StateKeyFromContext(ctx); ok {
		slog.Info("Created new session", "session", key)
	}
	return state, nil
}

// Get returns the session state for the context's key, creating it on first
// use.
func (m *Manager) Get(ctx context.Context) (State, error) {
	state, ok, err := m.store.Get(ctx)
	if err != nil {
		return nil, err
	}
	if ok {
		return state, nil
	}
	return m.Create(ctx)
}

// Save persists the session state. The in-memory backend shares the map with
// callers, but real backends need the explicit write.
func (m *Manager) Save(ctx context.Context, state State) error {
	return m.store.Set(ctx, state)
}

// Remove drops the session state entirely.
func (m *Manager) Remove(ctx context.Context) error {
	return m.store.Del(ctx)
}
