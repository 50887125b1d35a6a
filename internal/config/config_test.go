package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_MissingFileReturnsEmpty(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Empty(t, cfg.AWSProfile)
	assert.Empty(t, cfg.AWSRegion)
	assert.Empty(t, cfg.StackFile)
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	require.NoError(t, SaveConfig(&Config{
		AWSProfile: "prod",
		AWSRegion:  "eu-west-1",
		StackFile:  "stack.yaml",
	}))

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "prod", cfg.AWSProfile)
	assert.Equal(t, "eu-west-1", cfg.AWSRegion)
	assert.Equal(t, "stack.yaml", cfg.StackFile)

	assert.Equal(t, "prod", GetSavedProfile())
	assert.Equal(t, "eu-west-1", GetSavedRegion())
}

func TestLoadConfig_BadYAML(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	require.NoError(t, os.MkdirAll(filepath.Join(home, ".stratus"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(home, ".stratus", "config.yaml"), []byte("{not yaml"), 0644))

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestRememberStackFile_KeepsOtherFields(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	require.NoError(t, SaveConfig(&Config{AWSProfile: "prod"}))
	require.NoError(t, RememberStackFile("catalog.yaml"))

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "prod", cfg.AWSProfile)
	assert.Equal(t, "catalog.yaml", cfg.StackFile)
	assert.Equal(t, "catalog.yaml", GetSavedStackFile())
}
