package remote

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPathHelpers(t *testing.T) {
	p := UserDocument("u1", "entries", "2024-03-01")
	assert.Equal(t, Path("users/u1/entries/2024-03-01"), p)

	coll, id := p.Split()
	assert.Equal(t, UserCollection("u1", "entries"), coll)
	assert.Equal(t, "2024-03-01", id)
	assert.True(t, p.ChildOf(coll))
	assert.False(t, p.ChildOf(Path("users/u1")))

	assert.NoError(t, p.Validate())
	assert.Error(t, Path("").Validate())
	assert.Error(t, Path("users//entries").Validate())
}

func TestIsPermissionDenied(t *testing.T) {
	assert.True(t, IsPermissionDenied(ErrPermissionDenied))
	assert.True(t, IsPermissionDenied(fmt.Errorf("set doc: %w", ErrPermissionDenied)))
	assert.False(t, IsPermissionDenied(ErrUnavailable))
	assert.False(t, IsPermissionDenied(nil))
}

func TestMergeFields(t *testing.T) {
	tests := []struct {
		name string
		dst  map[string]any
		src  map[string]any
		want map[string]any
	}{{
		name: "keeps unrelated fields",
		dst:  map[string]any{"a": 1.0, "b": "x"},
		src:  map[string]any{"b": "y"},
		want: map[string]any{"a": 1.0, "b": "y"},
	}, {
		name: "nested objects merge",
		dst:  map[string]any{"state": map[string]any{"mood": 3.0, "stress": 2.0}},
		src:  map[string]any{"state": map[string]any{"mood": 9.0}},
		want: map[string]any{"state": map[string]any{"mood": 9.0, "stress": 2.0}},
	}, {
		name: "lists replace",
		dst:  map[string]any{"l": []any{"a", "b"}},
		src:  map[string]any{"l": []any{"c"}},
		want: map[string]any{"l": []any{"c"}},
	}, {
		name: "nil dst",
		src:  map[string]any{"a": true},
		want: map[string]any{"a": true},
	}}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MergeFields(tt.dst, tt.src))
		})
	}
}

func TestApplyOverwrite(t *testing.T) {
	got, err := Apply(map[string]any{"a": 1.0}, map[string]any{"b": 2.0}, Overwrite())
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"b": 2.0}, got)

	_, err = Apply(nil, []int{1})
	assert.Error(t, err)
}

func TestSortDocuments(t *testing.T) {
	docs := []Document{
		{ID: "a", Data: map[string]any{"updatedAt": "2024-03-01T10:00:00Z"}},
		{ID: "b", Data: map[string]any{}},
		{ID: "c", Data: map[string]any{"updatedAt": "2024-03-02T09:00:00.5+01:00"}},
		{ID: "d", Data: map[string]any{"updatedAt": "2024-03-01T12:00:00Z"}},
	}
	SortDocuments(docs, ByUpdatedDesc)

	ids := make([]string, len(docs))
	for i, d := range docs {
		ids[i] = d.ID
	}
	assert.Equal(t, []string{"c", "d", "a", "b"}, ids)
}

func TestDocumentDecode(t *testing.T) {
	doc := Document{ID: "x", Data: map[string]any{"items": []any{map[string]any{"id": "a"}}}}
	var v struct {
		Items []struct {
			ID string `json:"id"`
		} `json:"items"`
	}
	require.NoError(t, doc.Decode(&v))
	require.Len(t, v.Items, 1)
	assert.Equal(t, "a", v.Items[0].ID)
}

func TestMemoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	p := UserDocument("u1", "entries", "2024-03-01")

	_, found, err := m.GetDocument(ctx, p)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, m.SetDocument(ctx, p, map[string]any{"a": 1, "keep": "me"}))
	require.NoError(t, m.SetDocument(ctx, p, map[string]any{"a": 2}))

	doc, found, err := m.GetDocument(ctx, p)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "2024-03-01", doc.ID)
	assert.Equal(t, map[string]any{"a": 2.0, "keep": "me"}, doc.Data)

	require.NoError(t, m.SetDocument(ctx, p, map[string]any{"a": 3}, Overwrite()))
	got, _ := m.Peek(p)
	assert.Equal(t, map[string]any{"a": 3.0}, got)

	assert.Equal(t, 2, m.Calls(OpGet))
	assert.Equal(t, 3, m.Calls(OpSet))
	assert.Equal(t, 5, m.TotalCalls())
}

func TestMemoryReturnsCopies(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	p := Path("c/doc")
	require.NoError(t, m.Put(p, map[string]any{"a": "x"}))

	doc, _, err := m.GetDocument(ctx, p)
	require.NoError(t, err)
	doc.Data["a"] = "mutated"

	got, _ := m.Peek(p)
	assert.Equal(t, "x", got["a"])
}

func TestMemoryListCollection(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	coll := UserCollection("u1", "entries")
	require.NoError(t, m.Put(coll+"/2024-03-01", map[string]any{"updatedAt": "2024-03-01T00:00:00Z"}))
	require.NoError(t, m.Put(coll+"/2024-03-02", map[string]any{"updatedAt": "2024-03-05T00:00:00Z"}))
	require.NoError(t, m.Put(UserCollection("u2", "entries")+"/2024-03-01", map[string]any{}))
	require.NoError(t, m.Put(UserDocument("u1", "config", "checklist"), map[string]any{}))

	docs, err := m.ListCollection(ctx, coll, ByUpdatedDesc)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "2024-03-02", docs[0].ID)
	assert.Equal(t, "2024-03-01", docs[1].ID)
}

func TestMemoryFaultInjection(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	p := Path("c/doc")

	m.Fail(OpSet, ErrPermissionDenied)
	err := m.SetDocument(ctx, p, map[string]any{"a": 1})
	assert.True(t, IsPermissionDenied(err))
	_, ok := m.Peek(p)
	assert.False(t, ok)

	m.Fail("", ErrUnavailable)
	_, _, err = m.GetDocument(ctx, p)
	assert.ErrorIs(t, err, ErrUnavailable)
	_, err = m.ListCollection(ctx, Path("c"), Order{})
	assert.ErrorIs(t, err, ErrUnavailable)

	m.Recover()
	assert.NoError(t, m.SetDocument(ctx, p, map[string]any{"a": 1}))
	assert.Equal(t, 2, m.Calls(OpSet))
}

func TestMemoryHook(t *testing.T) {
	m := NewMemory()
	boom := errors.New("boom")
	var seen []Op
	m.SetHook(func(_ context.Context, op Op, _ Path) error {
		seen = append(seen, op)
		if op == OpList {
			return boom
		}
		return nil
	})

	_, _, err := m.GetDocument(context.Background(), Path("c/doc"))
	require.NoError(t, err)
	_, err = m.ListCollection(context.Background(), Path("c"), Order{})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []Op{OpGet, OpList}, seen)
}
