package store

import (
	"context"
	"sort"
	"sync"
)

// Memory is an in-process Store implementation backed by nested maps. It is
// safe for concurrent use and is the store of record in tests; it can also
// back a development server when no database is available.
type Memory struct {
	mu          sync.RWMutex
	collections map[string]map[string]map[string]any
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{collections: make(map[string]map[string]map[string]any)}
}

// coll returns the named collection, creating it on first use. Callers
// must hold the write lock.
func (m *Memory) coll(name string) map[string]map[string]any {
	c, ok := m.collections[name]
	if !ok {
		c = make(map[string]map[string]any)
		m.collections[name] = c
	}
	return c
}

// peek returns the named collection without creating it, for use under
// the read lock. A collection that was never written is nil, which ranges
// and lookups treat as empty.
func (m *Memory) peek(name string) map[string]map[string]any {
	return m.collections[name]
}

// FindByField scans the collection for documents whose field equals value.
// Numeric values are compared after normalization so that an int written by
// the engine matches a float64 read back from JSON.
func (m *Memory) FindByField(ctx context.Context, collection, field string, value any) (*Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var found *Document
	for id, fields := range m.peek(collection) {
		if !valueEqual(fields[field], value) {
			continue
		}
		if found != nil {
			return nil, ErrDuplicate
		}
		found = &Document{ID: id, Fields: clone(fields)}
	}
	if found == nil {
		return nil, ErrNotFound
	}
	return found, nil
}

// Get returns the document with the given ID or ErrNotFound.
func (m *Memory) Get(ctx context.Context, collection, id string) (*Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	fields, ok := m.peek(collection)[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &Document{ID: id, Fields: clone(fields)}, nil
}

// Create inserts a new document. It fails with ErrExists when the ID is
// already present in the collection.
func (m *Memory) Create(ctx context.Context, collection, id string, fields map[string]any) (*Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.coll(collection)
	if _, ok := c[id]; ok {
		return nil, ErrExists
	}
	c[id] = clone(fields)
	return &Document{ID: id, Fields: clone(fields)}, nil
}

// Update merges the given fields into an existing document. A nil value
// clears the field. Missing documents yield ErrNotFound.
func (m *Memory) Update(ctx context.Context, collection, id string, fields map[string]any) (*Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.coll(collection)
	existing, ok := c[id]
	if !ok {
		return nil, ErrNotFound
	}
	for k, v := range fields {
		if v == nil {
			existing[k] = nil
			continue
		}
		existing[k] = v
	}
	return &Document{ID: id, Fields: clone(existing)}, nil
}

// Delete removes a document, returning ErrNotFound when it does not exist.
func (m *Memory) Delete(ctx context.Context, collection, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.coll(collection)
	if _, ok := c[id]; !ok {
		return ErrNotFound
	}
	delete(c, id)
	return nil
}

// List returns every document in the collection ordered by ID so that
// output is deterministic.
func (m *Memory) List(ctx context.Context, collection string) ([]*Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c := m.peek(collection)
	out := make([]*Document, 0, len(c))
	for id, fields := range c {
		out = append(out, &Document{ID: id, Fields: clone(fields)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// valueEqual compares two field values, treating all numeric types as
// float64 so comparisons survive a JSON round trip.
func valueEqual(a, b any) bool {
	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	if aok && bok {
		return af == bf
	}
	return a == b
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
