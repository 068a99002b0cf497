package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileReturnsDefault(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_OverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	contents := "max_queue_size: 250\ncode_rate: 0.75\nenable_adaptive_mode: false\n"
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 250, cfg.MaxQueueSize)
	assert.Equal(t, 0.75, cfg.CodeRate)
	assert.False(t, cfg.EnableAdaptiveMode)
	assert.Equal(t, 512, cfg.MemoryLimitMB) // untouched default survives partial override
}

func TestCodeParameters_MapsFromConfig(t *testing.T) {
	cfg := Default()
	params := cfg.CodeParameters()
	assert.Equal(t, cfg.CodeRate, params.CodeRate)
	assert.Equal(t, cfg.BlockLength, params.BlockLength)
	assert.Equal(t, cfg.MaxIterations, params.MaxIterations)
	assert.Equal(t, cfg.SyndromeThreshold, params.SyndromeThreshold)
}
