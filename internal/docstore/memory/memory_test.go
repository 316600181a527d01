package memory

import (
	"context"
	"testing"

	"github.com/dayhubapp/dayhub/internal/common"
	"github.com/dayhubapp/dayhub/internal/docstore"
	"github.com/dayhubapp/dayhub/internal/docval"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet_NotFound(t *testing.T) {
	s := NewStore()

	_, err := s.Get(context.Background(), "users", "missing")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestSetGet_RoundTrip(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	doc := docstore.Document{"id": "u1", "name": "alice", "tags": []any{"a"}}
	require.NoError(t, s.Set(ctx, "users", "u1", doc))

	got, err := s.Get(ctx, "users", "u1")
	require.NoError(t, err)
	assert.Equal(t, "alice", got["name"])

	// mutation of the returned document must not leak into the store
	got["name"] = "bob"
	again, err := s.Get(ctx, "users", "u1")
	require.NoError(t, err)
	assert.Equal(t, "alice", again["name"])
}

func TestMerge_NestedAndDelete(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "users", "u1", docstore.Document{
		"name": "alice",
		"settings": map[string]any{
			"voice": "en-AU",
			"speed": 1.0,
		},
		"licenseKey": "k-1",
	}))

	require.NoError(t, s.Merge(ctx, "users", "u1", docstore.Document{
		"settings":   map[string]any{"speed": 1.5},
		"licenseKey": docval.Delete{},
		"expiresAt":  nil,
	}))

	got, err := s.Get(ctx, "users", "u1")
	require.NoError(t, err)

	settings := got["settings"].(map[string]any)
	assert.Equal(t, "en-AU", settings["voice"])
	assert.Equal(t, 1.5, settings["speed"])
	assert.NotContains(t, got, "licenseKey")
	assert.Contains(t, got, "expiresAt")
	assert.Nil(t, got["expiresAt"])
}

func TestMerge_CreatesMissingDocument(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	require.NoError(t, s.Merge(ctx, "users", "u1", docstore.Document{"name": "alice"}))

	got, err := s.Get(ctx, "users", "u1")
	require.NoError(t, err)
	assert.Equal(t, "alice", got["name"])
}

func TestMerge_ArraysReplace(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "buckets", "b1", docstore.Document{"items": []any{1, 2, 3}}))
	require.NoError(t, s.Merge(ctx, "buckets", "b1", docstore.Document{"items": []any{}}))

	got, err := s.Get(ctx, "buckets", "b1")
	require.NoError(t, err)
	assert.Empty(t, got["items"])
}

func TestDelete_Idempotent(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "users", "u1", docstore.Document{"name": "alice"}))
	require.NoError(t, s.Delete(ctx, "users", "u1"))
	require.NoError(t, s.Delete(ctx, "users", "u1"))

	_, err := s.Get(ctx, "users", "u1")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func seedCourses(t *testing.T, s *Store, n int) {
	t.Helper()
	ctx := context.Background()
	for i := 1; i <= n; i++ {
		doc := docstore.Document{
			"id":        courseID(i),
			"title":     "course",
			"createdAt": float64(1000 * i),
		}
		require.NoError(t, s.Set(ctx, "courses", courseID(i), doc))
	}
}

func courseID(i int) string {
	return string(rune('a'+i/26)) + string(rune('a'+i%26))
}

func TestQuery_DescendingWithLimit(t *testing.T) {
	s := NewStore()
	seedCourses(t, s, 25)

	docs, err := s.Query(context.Background(), "courses", docstore.Query{
		OrderBy:    "createdAt",
		Descending: true,
		Limit:      10,
	})
	require.NoError(t, err)
	require.Len(t, docs, 10)

	assert.Equal(t, float64(25000), docs[0]["createdAt"])
	for i := 1; i < len(docs); i++ {
		prev := docs[i-1]["createdAt"].(float64)
		cur := docs[i]["createdAt"].(float64)
		assert.Greater(t, prev, cur)
	}
}

func TestQuery_StartAfterCursor(t *testing.T) {
	s := NewStore()
	seedCourses(t, s, 25)

	first, err := s.Query(context.Background(), "courses", docstore.Query{
		OrderBy:    "createdAt",
		Descending: true,
		Limit:      10,
	})
	require.NoError(t, err)

	cursor := first[len(first)-1]["createdAt"]
	second, err := s.Query(context.Background(), "courses", docstore.Query{
		OrderBy:    "createdAt",
		Descending: true,
		StartAfter: cursor,
		Limit:      10,
	})
	require.NoError(t, err)
	require.Len(t, second, 10)

	seen := map[string]bool{}
	for _, doc := range first {
		seen[doc["id"].(string)] = true
	}
	for _, doc := range second {
		id := doc["id"].(string)
		assert.False(t, seen[id], "duplicate id %s across pages", id)
		assert.Less(t, doc["createdAt"].(float64), cursor.(float64))
	}
}

func TestQuery_ZeroQueryReturnsAll(t *testing.T) {
	s := NewStore()
	seedCourses(t, s, 5)

	docs, err := s.Query(context.Background(), "courses", docstore.Query{})
	require.NoError(t, err)
	assert.Len(t, docs, 5)
}
