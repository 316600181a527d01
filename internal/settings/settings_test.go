package settings

import (
	"context"
	"errors"
	"testing"

	"github.com/dayhubapp/dayhub/internal/authn"
	"github.com/dayhubapp/dayhub/internal/common"
	"github.com/dayhubapp/dayhub/internal/docstore/memory"
	"github.com/dayhubapp/dayhub/internal/localstore"
	"github.com/dayhubapp/dayhub/internal/logging"
	"github.com/dayhubapp/dayhub/internal/modstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type allowGate struct{}

func (allowGate) HasWritePrivilege(context.Context, *authn.Identity) bool { return true }

func newManager(local localstore.Store, remote *memory.Store) *Manager {
	auth := authn.NewStatic(&authn.Identity{ID: "u1", Email: "alice@example.com"})
	mods := modstore.New(local, remote, allowGate{}, auth, logging.NewNopLogger())
	return NewManager(local, mods, logging.NewNopLogger())
}

func TestVoice_DefaultsWhenUnsaved(t *testing.T) {
	m := newManager(localstore.NewMemoryStore(), memory.NewStore())

	got := m.Voice(context.Background())
	assert.Equal(t, DefaultVoice, got)
}

func TestSaveVoice_RoundTrip(t *testing.T) {
	m := newManager(localstore.NewMemoryStore(), memory.NewStore())
	ctx := context.Background()

	want := VoiceSettings{Voice: "en-GB", Rate: 1.25, Pitch: 0.9, AutoPlay: true}
	m.SaveVoice(ctx, want)

	assert.Equal(t, want, m.Voice(ctx))
}

func TestSaveVoice_WritesThroughModuleStore(t *testing.T) {
	remote := memory.NewStore()
	m := newManager(localstore.NewMemoryStore(), remote)
	ctx := context.Background()

	m.SaveVoice(ctx, VoiceSettings{Voice: "en-GB", Rate: 1.0, Pitch: 1.0})

	doc, err := remote.Get(ctx, common.CollectionUserModules, "u1:settings")
	require.NoError(t, err)
	data := doc["data"].(map[string]any)
	assert.Equal(t, "en-GB", data["voice"])
}

func TestVoice_DefaultsWhenReadFails(t *testing.T) {
	local := localstore.NewMemoryStore()
	m := newManager(local, memory.NewStore())
	ctx := context.Background()

	m.SaveVoice(ctx, VoiceSettings{Voice: "en-GB", Rate: 1.0, Pitch: 1.0})
	local.FailReads = errors.New("disk error")

	assert.Equal(t, DefaultVoice, m.Voice(ctx))
}
