package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"daygrid/internal/layout"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 0, cfg.Window.StartHour)
	assert.Equal(t, 24, cfg.Window.TotalHours)
	assert.Equal(t, "stack", cfg.Style.Policy)
}

func TestNormalizeFillsZeroValues(t *testing.T) {
	var cfg Config
	cfg.Normalize()

	assert.NotEmpty(t, cfg.Listen)
	assert.NotEmpty(t, cfg.RefreshCron)
	assert.Equal(t, 24, cfg.Window.TotalHours)
	assert.Greater(t, cfg.Style.HourHeight, 0.0)
	assert.Greater(t, cfg.Style.SplitMinutes, 0)
	assert.NotNil(t, cfg.ICS)
	require.NoError(t, cfg.Validate())
}

func TestValidateRejectsPathologicalStyle(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Style.HourHeight = -10
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Style.SplitMinutes = -1
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Window.TotalHours = 48
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Width = 0
	assert.Error(t, cfg.Validate())
}

func TestLayoutStyleConversion(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Style.Policy = "cascade"
	cfg.Style.HourHeight = 48

	style := cfg.LayoutStyle()
	assert.Equal(t, layout.PackCascade, style.Policy)
	assert.Equal(t, 48.0, style.HourHeight)
}

func TestLoadCreatesDefaultOnFirstRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg := DefaultConfig()
	cfg.Timezone = "Europe/Berlin"
	cfg.Window.StartHour = 7
	cfg.Window.TotalHours = 14
	cfg.ICS = []ICSConfig{{URL: "https://example.com/cal.ics", ID: "work"}}
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Europe/Berlin", loaded.Timezone)
	assert.Equal(t, 7, loaded.Window.StartHour)
	assert.Equal(t, 14, loaded.Window.TotalHours)
	require.Len(t, loaded.ICS, 1)
	assert.Equal(t, "work", loaded.ICS[0].ID)
}

func TestLoadRejectsInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("style:\n  hour_height: -4\n"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadEmptyPath(t *testing.T) {
	_, err := Load("")
	assert.Error(t, err)
}
