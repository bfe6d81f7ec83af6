package store

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCreateGetDelete(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	doc, err := m.Create(ctx, "things", "a", map[string]any{"name": "first"})
	require.NoError(t, err)
	assert.Equal(t, "a", doc.ID)

	_, err = m.Create(ctx, "things", "a", map[string]any{"name": "dup"})
	assert.ErrorIs(t, err, ErrExists)

	got, err := m.Get(ctx, "things", "a")
	require.NoError(t, err)
	assert.Equal(t, "first", got.String("name"))

	require.NoError(t, m.Delete(ctx, "things", "a"))
	_, err = m.Get(ctx, "things", "a")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, m.Delete(ctx, "things", "a"), ErrNotFound)
}

func TestMemoryUpdateMergesAndClears(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	_, err := m.Create(ctx, "things", "a", map[string]any{"name": "first", "count": 3})
	require.NoError(t, err)

	doc, err := m.Update(ctx, "things", "a", map[string]any{"name": "second", "count": nil})
	require.NoError(t, err)
	assert.Equal(t, "second", doc.String("name"))
	assert.Zero(t, doc.Int("count"))

	_, err = m.Update(ctx, "things", "missing", map[string]any{"name": "x"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryFindByField(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	_, err := m.FindByField(ctx, "sheets", "sheet_number", 1)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = m.Create(ctx, "sheets", "a", map[string]any{"sheet_number": 1})
	require.NoError(t, err)

	doc, err := m.FindByField(ctx, "sheets", "sheet_number", 1)
	require.NoError(t, err)
	assert.Equal(t, "a", doc.ID)

	// Numeric comparison survives type drift between int and float64,
	// matching what a JSON round trip through MySQL produces.
	doc, err = m.FindByField(ctx, "sheets", "sheet_number", float64(1))
	require.NoError(t, err)
	assert.Equal(t, "a", doc.ID)

	_, err = m.Create(ctx, "sheets", "b", map[string]any{"sheet_number": 1})
	require.NoError(t, err)
	_, err = m.FindByField(ctx, "sheets", "sheet_number", 1)
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestMemoryListSortedByID(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	for _, id := range []string{"c", "a", "b"} {
		_, err := m.Create(ctx, "things", id, map[string]any{"name": id})
		require.NoError(t, err)
	}
	docs, err := m.List(ctx, "things")
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Equal(t, "a", docs[0].ID)
	assert.Equal(t, "b", docs[1].ID)
	assert.Equal(t, "c", docs[2].ID)

	empty, err := m.List(ctx, "never-written")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestMemoryReturnsCopies(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	_, err := m.Create(ctx, "things", "a", map[string]any{"name": "first"})
	require.NoError(t, err)

	got, err := m.Get(ctx, "things", "a")
	require.NoError(t, err)
	got.Fields["name"] = "mutated"

	again, err := m.Get(ctx, "things", "a")
	require.NoError(t, err)
	assert.Equal(t, "first", again.String("name"))
}

func TestMemoryConcurrentAccess(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := NewID()
			if _, err := m.Create(ctx, "things", id, map[string]any{"n": i}); err != nil {
				t.Error(err)
			}
			// Reads against a collection that may not exist yet must be
			// safe alongside writers.
			_, _ = m.FindByField(ctx, "other", "n", i)
			_, _ = m.List(ctx, "things")
		}(i)
	}
	wg.Wait()

	docs, err := m.List(ctx, "things")
	require.NoError(t, err)
	assert.Len(t, docs, 8)
}

func TestDocumentAccessors(t *testing.T) {
	d := &Document{ID: "x", Fields: map[string]any{
		"s":     "str",
		"i":     7,
		"i64":   int64(8),
		"f":     float64(9),
		"digit": "10",
		"b":     true,
		"nil":   nil,
	}}
	assert.Equal(t, "str", d.String("s"))
	assert.Empty(t, d.String("missing"))
	assert.Empty(t, d.String("nil"))
	assert.Equal(t, 7, d.Int("i"))
	assert.Equal(t, 8, d.Int("i64"))
	assert.Equal(t, 9, d.Int("f"))
	assert.Equal(t, 10, d.Int("digit"))
	assert.Zero(t, d.Int("missing"))
	assert.True(t, d.Bool("b"))
	assert.False(t, d.Bool("missing"))
}
