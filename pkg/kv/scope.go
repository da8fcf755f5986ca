package kv

import (
	"context"
	"strings"
)

// Scoped narrows a Store to a single namespace, the way a browser keeps one
// storage area per origin. Keys are stored as "<namespace>/<key>".
type Scoped struct {
	store     Store
	namespace string
}

// Scope returns a view of store restricted to namespace.
func Scope(store Store, namespace string) *Scoped {
	return &Scoped{store: store, namespace: strings.Trim(namespace, "/")}
}

// Namespace returns the namespace the view is bound to.
func (s *Scoped) Namespace() string {
	return s.namespace
}

// Get reads key from the namespace.
func (s *Scoped) Get(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, ErrEmptyKey
	}
	return s.store.Get(ctx, s.qualify(key))
}

// Set writes key in the namespace.
func (s *Scoped) Set(ctx context.Context, key string, value []byte) error {
	if key == "" {
		return ErrEmptyKey
	}
	return s.store.Set(ctx, s.qualify(key), value)
}

// Delete removes key from the namespace.
func (s *Scoped) Delete(ctx context.Context, key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	return s.store.Delete(ctx, s.qualify(key))
}

// Keys lists the namespace's keys, with the namespace prefix stripped.
func (s *Scoped) Keys(ctx context.Context, prefix string) ([]string, error) {
	keys, err := s.store.Keys(ctx, s.qualify(prefix))
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, strings.TrimPrefix(k, s.qualify("")))
	}
	return out, nil
}

// Clear removes every key in the namespace.
func (s *Scoped) Clear(ctx context.Context) error {
	keys, err := s.Keys(ctx, "")
	if err != nil {
		return err
	}
	for _, k := range keys {
		if err := IgnoreNotFound(s.Delete(ctx, k)); err != nil {
			return err
		}
	}
	return nil
}

func (s *Scoped) qualify(key string) string {
	if s.namespace == "" {
		return key
	}
	return s.namespace + "/" + key
}
