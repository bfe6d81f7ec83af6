// Package store provides a small document-store abstraction used by the
// allocation engine and the HTTP handlers. Records are schemaless documents
// grouped into named collections and addressed by string IDs. Two
// implementations exist: a MySQL-backed store that keeps each collection in
// its own table with a JSON column, and an in-memory store used in tests and
// as a development fallback.
package store

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strconv"
)

// ErrNotFound is returned when a document lookup yields no rows. Handlers
// should translate this into an HTTP 404 response.
var ErrNotFound = errors.New("document not found")

// ErrExists is returned when creating a document under an ID that is
// already taken.
var ErrExists = errors.New("document already exists")

// ErrDuplicate is returned by FindByField when more than one document
// matches a field that callers expect to be unique. The engine treats this
// as a data integrity failure rather than picking a winner silently.
var ErrDuplicate = errors.New("duplicate documents for unique field")

// Document is a single record in a collection. Fields holds the document
// body as loosely typed values; numeric values may arrive as int, int64 or
// float64 depending on the backing store, so callers should read them
// through the typed accessors below.
type Document struct {
	ID     string
	Fields map[string]any
}

// Store is the persistence seam consumed by the allocation engine and the
// handlers. FindByField returns at most one document and fails with
// ErrDuplicate when the field is not unique in practice.
type Store interface {
	FindByField(ctx context.Context, collection, field string, value any) (*Document, error)
	Get(ctx context.Context, collection, id string) (*Document, error)
	Create(ctx context.Context, collection, id string, fields map[string]any) (*Document, error)
	Update(ctx context.Context, collection, id string, fields map[string]any) (*Document, error)
	Delete(ctx context.Context, collection, id string) error
	List(ctx context.Context, collection string) ([]*Document, error)
}

// NewID returns a random 20-byte hex identifier for a new document.
func NewID() string {
	b := make([]byte, 20)
	if _, err := rand.Read(b); err != nil {
		panic(err) // crypto/rand never fails on supported platforms
	}
	return hex.EncodeToString(b)
}

// String reads a field as a string. Missing fields and explicit nulls
// yield the empty string.
func (d *Document) String(key string) string {
	switch v := d.Fields[key].(type) {
	case string:
		return v
	default:
		return ""
	}
}

// Int reads a field as an int, accepting the numeric types produced by
// JSON decoding and by direct in-memory writes.
func (d *Document) Int(key string) int {
	switch v := d.Fields[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case string:
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return 0
}

// Bool reads a field as a bool. Missing fields yield false.
func (d *Document) Bool(key string) bool {
	if v, ok := d.Fields[key].(bool); ok {
		return v
	}
	return false
}

// clone returns a deep-enough copy of a field map so that callers cannot
// mutate stored state through a returned document.
func clone(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	return out
}
