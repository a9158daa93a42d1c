package datascope

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, DefaultPageCapacity, cfg.PageCapacity)
	assert.Equal(t, DefaultMaxPoints, cfg.DefaultMaxPoints)
	assert.Equal(t, DefaultThumbnailPoints, cfg.ThumbnailPoints)
	assert.Equal(t, DefaultInferSampleSize, cfg.InferSampleSize)
	assert.GreaterOrEqual(t, cfg.Workers, 1)
	assert.Zero(t, cfg.MemoryLimitMB)
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"page capacity", func(c *Config) { c.PageCapacity = 0 }},
		{"max points below range", func(c *Config) { c.DefaultMaxPoints = MinPoints - 1 }},
		{"max points above range", func(c *Config) { c.DefaultMaxPoints = MaxPoints + 1 }},
		{"thumbnail points", func(c *Config) { c.ThumbnailPoints = -1 }},
		{"infer sample size", func(c *Config) { c.InferSampleSize = 0 }},
		{"workers", func(c *Config) { c.Workers = 0 }},
		{"memory limit", func(c *Config) { c.MemoryLimitMB = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := DefaultConfig()
			tt.modify(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadConfig_File(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "datascope.yaml")
	content := "pageCapacity: 5000\ndefaultMaxPoints: 1000\nworkers: 3\nmemoryLimitMB: 256\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 5000, cfg.PageCapacity)
	assert.Equal(t, 1000, cfg.DefaultMaxPoints)
	assert.Equal(t, 3, cfg.Workers)
	assert.Equal(t, int64(256), cfg.MemoryLimitMB)
	assert.Equal(t, DefaultThumbnailPoints, cfg.ThumbnailPoints, "unset keys keep defaults")
}

func TestLoadConfig_Errors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	t.Run("missing explicit file", func(t *testing.T) {
		t.Parallel()
		_, err := LoadConfig(filepath.Join(dir, "missing.yaml"))
		assert.Error(t, err)
	})

	t.Run("invalid values", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(dir, "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("pageCapacity: 0\n"), 0o600))
		_, err := LoadConfig(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "pageCapacity")
	})
}

// Not parallel: modifies the environment.
func TestLoadConfig_Env(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "datascope.yaml")
	require.NoError(t, os.WriteFile(path, []byte("pageCapacity: 5000\n"), 0o600))
	t.Setenv("DATASCOPE_PAGECAPACITY", "50")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 50, cfg.PageCapacity)
}
