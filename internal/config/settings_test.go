package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupConfigHome(t *testing.T) {
	t.Helper()
	if runtime.GOOS != "linux" {
		t.Skip("XDG layout is linux-specific")
	}
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
}

func TestLoadSettingsDefaults(t *testing.T) {
	setupConfigHome(t)

	settings, err := LoadSettings()
	require.NoError(t, err)
	assert.Equal(t, 4, settings.Network.DefaultThreads)
	assert.Equal(t, "127.0.0.1:47891", settings.Network.BridgeAddr)
	assert.False(t, settings.General.ClipboardMonitor)
}

func TestSettingsRoundTrip(t *testing.T) {
	setupConfigHome(t)

	settings := DefaultSettings()
	settings.General.DefaultDownloadDir = "/data/dl"
	settings.General.ClipboardMonitor = true
	settings.Network.DefaultThreads = 8
	require.NoError(t, SaveSettings(settings))

	loaded, err := LoadSettings()
	require.NoError(t, err)
	assert.Equal(t, settings, loaded)
}

func TestLoadSettingsBadFile(t *testing.T) {
	setupConfigHome(t)
	require.NoError(t, EnsureDirs())
	require.NoError(t, os.WriteFile(filepath.Join(GetAppDir(), "settings.json"), []byte("{broken"), 0o644))

	settings, err := LoadSettings()
	assert.Error(t, err)
	// Broken files fall back to defaults rather than zero values.
	assert.Equal(t, 4, settings.Network.DefaultThreads)
}
