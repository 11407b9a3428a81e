package session

import (
	"context"
	"errors"
)

// Store namespaces a Cache and routes every call through a key derived from
// the context, so callers never handle raw storage keys.
type Store[S any] struct {
	core      Cache[S]
	namespace string
	keyFn     func(ctx context.Context) (string, bool)
}

func NewStore[S any](core Cache[S], namespace string, keyFn func(ctx context.Context) (string, bool)) Store[S] {
	return Store[S]{
		core:      core,
		namespace: namespace,
		keyFn:     keyFn,
	}
}

func (s Store[S]) key(ctx context.Context) (string, bool) {
	key, exist := s.keyFn(ctx)
	if !exist {
		return "", false
	}
	return s.namespace + ":" + key, true
}

func (s Store[S]) Set(ctx context.Context, val S) error {
	key, ok := s.key(ctx)
	if !ok {
		return errors.New("key not found")
	}
	return s.core.Set(ctx, key, val)
}

func (s Store[S]) Get(ctx context.Context) (S, bool, error) {
	key, ok := s.key(ctx)
	if !ok {
		var zero S
		return zero, false, errors.New("key not found")
	}
	return s.core.Get(ctx, key)
}

func (s Store[S]) Del(ctx context.Context) error {
	key, ok := s.key(ctx)
	if !ok {
		return errors.New("key not found")
	}
	return s.core.Del(ctx, key)
}

func (s Store[S]) Exists(ctx context.Context) (bool, error) {
	key, ok := s.key(ctx)
	if !ok {
		return false, errors.New("key not found")
	}
	return s.core.Exists(ctx, key)
}

type stateKeyContext struct{}

const defaultStateKey = "default"

// WithStateKey sets the session routing key on the context.
func WithStateKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, stateKeyContext{}, key)
}

// StateKeyFromContext gets the session routing key from the context.
func StateKeyFromContext(ctx context.Context) (string, bool) {
	value := ctx.Value(stateKeyContext{})
	if value == nil {
		return "", false
	}
	key, ok := value.(string)
	return key, ok
}

// StateKeyOrDefault falls back to a shared default key, which is what single
// user tools (the example REPL, tests) want.
func StateKeyOrDefault(ctx context.Context) (string, bool) {
	key, ok := StateKeyFromContext(ctx)
	if ok && key != "" {
		return key, true
	}
	return defaultStateKey, true
}
