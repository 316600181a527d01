package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withArgs(t *testing.T, args ...string) {
	t.Helper()
	orig := os.Args
	os.Args = append([]string{"portal"}, args...)
	t.Cleanup(func() { os.Args = orig })
}

func TestLoadConfig_Defaults(t *testing.T) {
	withArgs(t)

	cfg := LoadConfig()
	assert.Equal(t, "dayhub.db", cfg.LocalDBPath)
	assert.Equal(t, "admin@dayhub.app", cfg.AdminEmail)
	assert.Equal(t, 2*time.Second, cfg.SyncDebounce)
}

func TestLoadConfig_JsonOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"admin_email": "ops@dayhub.app",
		"sync_debounce": "5s"
	}`), 0o600))

	withArgs(t, "-c", path)

	cfg := LoadConfig()
	assert.Equal(t, "ops@dayhub.app", cfg.AdminEmail)
	assert.Equal(t, 5*time.Second, cfg.SyncDebounce)
	// untouched fields keep defaults
	assert.Equal(t, "dayhub.db", cfg.LocalDBPath)
}

func TestLoadConfig_FlagsOverrideJson(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"admin_email": "ops@dayhub.app"}`), 0o600))

	withArgs(t, "-c", path, "-e", "root@dayhub.app", "-l", "/tmp/cache.db")

	cfg := LoadConfig()
	assert.Equal(t, "root@dayhub.app", cfg.AdminEmail)
	assert.Equal(t, "/tmp/cache.db", cfg.LocalDBPath)
}
