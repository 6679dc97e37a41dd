package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadOverlaysProvidedFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "shellbridge.yaml")
	content := "stream:\n  fps: 24\n  extra_origins:\n    - http://localhost:3000\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 24, cfg.Stream.FPS)
	assert.Equal(t, 80, cfg.Stream.Quality) // untouched field keeps its default
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.Stream.ExtraOrigins)
}

func TestFirstAvailablePort(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 9100, cfg.FirstAvailablePort())
}
