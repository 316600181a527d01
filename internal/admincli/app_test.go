package admincli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/dayhubapp/dayhub/internal/authn"
	"github.com/dayhubapp/dayhub/internal/common"
	"github.com/dayhubapp/dayhub/internal/directory"
	"github.com/dayhubapp/dayhub/internal/docstore/memory"
	"github.com/dayhubapp/dayhub/internal/logging"
	"github.com/dayhubapp/dayhub/internal/users"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type allowAllGate struct{}

func (allowAllGate) IsAdmin(*authn.Identity) bool { return true }

func newTestApp(t *testing.T, recs ...*users.UserRecord) (*App, *memory.Store, *bytes.Buffer) {
	t.Helper()
	mem := memory.NewStore()
	for _, rec := range recs {
		require.NoError(t, mem.Set(context.Background(), common.CollectionUsers, rec.ID, rec.ToDocument()))
	}
	auth := authn.NewStatic(&authn.Identity{ID: "a1", Email: "admin@dayhub.app"})
	dir := directory.NewService(mem, auth, allowAllGate{}, logging.NewNopLogger())
	out := &bytes.Buffer{}
	return NewApp(dir, out), mem, out
}

func TestRun_UnknownCommand(t *testing.T) {
	app, _, _ := newTestApp(t)

	err := app.Run(context.Background(), []string{"frobnicate"})
	assert.Error(t, err)
}

func TestList_PrintsUsers(t *testing.T) {
	app, _, out := newTestApp(t,
		&users.UserRecord{ID: "u1", Email: "amy@example.com", Role: users.RoleUser},
		&users.UserRecord{ID: "u2", Email: "zoe@example.com", Role: users.RoleAdmin},
	)

	require.NoError(t, app.Run(context.Background(), []string{"list"}))

	output := out.String()
	assert.Contains(t, output, "amy@example.com")
	assert.Contains(t, output, "zoe@example.com")
	assert.Less(t, strings.Index(output, "amy"), strings.Index(output, "zoe"))
}

func TestStatus_LockWithReason(t *testing.T) {
	app, mem, _ := newTestApp(t, &users.UserRecord{ID: "u1", Email: "u1@example.com"})
	ctx := context.Background()

	err := app.Run(ctx, []string{"status", "-id", "u1", "-lock", "-reason", "abuse"})
	require.NoError(t, err)

	doc, err := mem.Get(ctx, common.CollectionUsers, "u1")
	require.NoError(t, err)
	assert.Equal(t, true, doc["locked"])
	assert.Equal(t, "abuse", doc["lockReason"])
}

func TestStatus_ExpiresNever(t *testing.T) {
	app, mem, _ := newTestApp(t, &users.UserRecord{ID: "u1"})
	ctx := context.Background()

	require.NoError(t, app.Run(ctx, []string{"status", "-id", "u1", "-expires", "never"}))

	doc, err := mem.Get(ctx, common.CollectionUsers, "u1")
	require.NoError(t, err)
	assert.Contains(t, doc, "expiresAt")
	assert.Nil(t, doc["expiresAt"])
}

func TestAssignKey_PromptsWhenOmitted(t *testing.T) {
	app, mem, _ := newTestApp(t, &users.UserRecord{ID: "u1"})
	ctx := context.Background()

	orig := readSecret
	readSecret = func() ([]byte, error) { return []byte("prompted-key"), nil }
	defer func() { readSecret = orig }()

	require.NoError(t, app.Run(ctx, []string{"assign-key", "-id", "u1"}))

	doc, err := mem.Get(ctx, common.CollectionUsers, "u1")
	require.NoError(t, err)
	assert.Equal(t, "prompted-key", doc["licenseKey"])
	assert.Equal(t, true, doc["activeFeatureEnabled"])
}

func TestDelete_RequiresConfirmation(t *testing.T) {
	app, mem, _ := newTestApp(t, &users.UserRecord{ID: "u1"})
	ctx := context.Background()

	err := app.Run(ctx, []string{"delete", "-id", "u1"})
	assert.Error(t, err)

	_, err = mem.Get(ctx, common.CollectionUsers, "u1")
	assert.NoError(t, err, "user must survive unconfirmed delete")

	require.NoError(t, app.Run(ctx, []string{"delete", "-id", "u1", "-yes"}))
	_, err = mem.Get(ctx, common.CollectionUsers, "u1")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestCreate_ShowsGeneratedID(t *testing.T) {
	app, _, out := newTestApp(t)

	require.NoError(t, app.Run(context.Background(), []string{"create", "-email", "new@example.com"}))
	assert.Contains(t, out.String(), "created ")
}
