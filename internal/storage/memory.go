package storage

import (
	"context"
	"fmt"
	"sync"
)

// Memory is an in-process Collection. It is safe for concurrent use.
type Memory[T any] struct {
	mu    sync.RWMutex
	docs  map[string]T
	order []string
}

// NewMemory creates an empty in-memory collection.
func NewMemory[T any]() *Memory[T] {
	return &Memory[T]{docs: make(map[string]T)}
}

func (m *Memory[T]) Get(_ context.Context, id string) (T, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.docs[id]
	if !ok {
		var zero T
		return zero, fmt.Errorf("get %q: %w", id, ErrNotFound)
	}
	return doc, nil
}

func (m *Memory[T]) Find(_ context.Context, match func(T) bool) ([]T, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]T, 0, len(m.order))
	for _, id := range m.order {
		doc := m.docs[id]
		if match == nil || match(doc) {
			out = append(out, doc)
		}
	}
	return out, nil
}

func (m *Memory[T]) Insert(_ context.Context, id string, doc T) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[id]; ok {
		return fmt.Errorf("insert %q: %w", id, ErrExists)
	}
	m.docs[id] = doc
	m.order = append(m.order, id)
	return nil
}

func (m *Memory[T]) Put(_ context.Context, id string, doc T) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[id]; !ok {
		m.order = append(m.order, id)
	}
	m.docs[id] = doc
	return nil
}

func (m *Memory[T]) Patch(_ context.Context, id string, fn func(*T) error) (T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[id]
	if !ok {
		var zero T
		return zero, fmt.Errorf("patch %q: %w", id, ErrNotFound)
	}
	if err := fn(&doc); err != nil {
		var zero T
		return zero, err
	}
	m.docs[id] = doc
	return doc, nil
}

func (m *Memory[T]) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[id]; !ok {
		return fmt.Errorf("delete %q: %w", id, ErrNotFound)
	}
	delete(m.docs, id)
	m.order = removeID(m.order, id)
	return nil
}

func (m *Memory[T]) DeleteWhere(_ context.Context, match func(T) bool) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.order[:0]
	removed := 0
	for _, id := range m.order {
		if match(m.docs[id]) {
			delete(m.docs, id)
			removed++
			continue
		}
		kept = append(kept, id)
	}
	m.order = kept
	return removed, nil
}

func (m *Memory[T]) Count(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.docs), nil
}

func removeID(ids []string, id string) []string {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}
