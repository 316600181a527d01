// Package settings persists user preference settings. Voice settings get
// a dedicated local cache key so the reader UI can apply them before any
// store is consulted; the synced copy travels as an ordinary module
// bucket.
package settings

import (
	"context"
	"errors"

	"github.com/dayhubapp/dayhub/internal/common"
	"github.com/dayhubapp/dayhub/internal/localstore"
	"github.com/dayhubapp/dayhub/internal/logging"
	"github.com/dayhubapp/dayhub/internal/modstore"
)

// VoiceSettings are the text-to-speech preferences.
type VoiceSettings struct {
	Voice    string  `json:"voice"`
	Rate     float64 `json:"rate"`
	Pitch    float64 `json:"pitch"`
	AutoPlay bool    `json:"autoPlay"`
}

// DefaultVoice is used until the user saves a preference.
var DefaultVoice = VoiceSettings{Voice: "en-US", Rate: 1.0, Pitch: 1.0}

const settingsModule = "settings"

type Manager struct {
	local   localstore.Store
	modules *modstore.Store
	log     logging.Logger
}

func NewManager(local localstore.Store, modules *modstore.Store, log logging.Logger) *Manager {
	return &Manager{local: local, modules: modules, log: log}
}

// Voice returns the cached voice settings, falling back to defaults.
func (m *Manager) Voice(ctx context.Context) VoiceSettings {
	var vs VoiceSettings
	err := m.local.Get(ctx, common.LocalKey(common.KeyVoiceSettings), &vs)
	if err != nil {
		if !errors.Is(err, common.ErrNotFound) {
			m.log.Warn(ctx, "voice settings read failed, using defaults", "error", err)
		}
		return DefaultVoice
	}
	return vs
}

// SaveVoice stores the settings under the dedicated local key and writes
// them through the module store for sync.
func (m *Manager) SaveVoice(ctx context.Context, vs VoiceSettings) {
	if err := m.local.Set(ctx, common.LocalKey(common.KeyVoiceSettings), vs); err != nil {
		m.log.Error(ctx, "voice settings write failed", "error", err)
	}

	m.modules.Write(ctx, settingsModule, map[string]any{
		"voice":    vs.Voice,
		"rate":     vs.Rate,
		"pitch":    vs.Pitch,
		"autoPlay": vs.AutoPlay,
	})
}
