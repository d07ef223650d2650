package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadWithoutPathReturnsDefaults(t *testing.T) {
	t.Setenv(EnvPath, "")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Batch.ChunkSize)
	assert.Equal(t, 100, cfg.Scan.ChunkSize)
	assert.Equal(t, 64, cfg.Icons.Size)
	assert.Equal(t, 30*time.Second, cfg.Batch.LoadTimeout)
	assert.Equal(t, filepath.Join("assets", "database", "database-groups.json"), cfg.OutputPath())
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spritebake.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
paths:
  images: /data/images
batch:
  chunkSize: 2
  pause: 0s
  loadTimeout: 5s
icons:
  size: 32
`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/data/images", cfg.Paths.Images)
	assert.Equal(t, filepath.Join("/data/images", "ui"), cfg.UIPath())
	assert.Equal(t, 2, cfg.Batch.ChunkSize)
	assert.Equal(t, time.Duration(0), cfg.Batch.Pause)
	assert.Equal(t, 5*time.Second, cfg.Batch.LoadTimeout)
	assert.Equal(t, 32, cfg.Icons.Size)
	// untouched keys keep defaults
	assert.Equal(t, "_ui_", cfg.Icons.UIPattern)
}

func TestLoadFromEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "env.yaml")
	require.NoError(t, os.WriteFile(path, []byte("scan:\n  chunkSize: 7\n"), 0644))
	t.Setenv(EnvPath, path)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Scan.ChunkSize)
}

func TestLoadRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("batch:\n  chunkSize: 0\n"), 0644))
	_, err := Load(path)
	assert.Error(t, err)
}
