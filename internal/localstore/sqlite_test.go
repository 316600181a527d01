package localstore

import (
	"context"
	"database/sql"
	"testing"

	"github.com/dayhubapp/dayhub/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE kv (
  key        TEXT PRIMARY KEY,
  value      TEXT    NOT NULL,
  updated_at INTEGER NOT NULL DEFAULT 0
);
`)
	require.NoError(t, err)

	return db
}

func TestSetGet_RoundTrip(t *testing.T) {
	s := NewSQLiteStore(setupDB(t))
	ctx := context.Background()

	type settings struct {
		Voice string  `json:"voice"`
		Speed float64 `json:"speed"`
	}

	require.NoError(t, s.Set(ctx, "dh_voice_settings", settings{Voice: "en-AU", Speed: 1.2}))

	var got settings
	require.NoError(t, s.Get(ctx, "dh_voice_settings", &got))
	assert.Equal(t, settings{Voice: "en-AU", Speed: 1.2}, got)
}

func TestSet_Replaces(t *testing.T) {
	s := NewSQLiteStore(setupDB(t))
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "dh_module_tasks", []string{"a", "b"}))
	require.NoError(t, s.Set(ctx, "dh_module_tasks", []string{}))

	var got []string
	require.NoError(t, s.Get(ctx, "dh_module_tasks", &got))
	assert.Empty(t, got)
}

func TestGet_Missing(t *testing.T) {
	s := NewSQLiteStore(setupDB(t))

	var got map[string]any
	err := s.Get(context.Background(), "dh_missing", &got)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestDelete(t *testing.T) {
	s := NewSQLiteStore(setupDB(t))
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "dh_user_profile", map[string]any{"name": "alice"}))
	require.NoError(t, s.Delete(ctx, "dh_user_profile"))
	require.NoError(t, s.Delete(ctx, "dh_user_profile"))

	var got map[string]any
	assert.ErrorIs(t, s.Get(ctx, "dh_user_profile", &got), common.ErrNotFound)
}
