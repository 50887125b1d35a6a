package stack

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_EmptyPathReturnsDefaults(t *testing.T) {
	spec, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultSpec(), spec)
}

func TestLoad_OverlaysOnDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stack.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
name: shop
capacity:
  min: 3
  max: 6
  desired: 3
database:
  mode: shared
`), 0644))

	spec, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "shop", spec.Name)
	assert.Equal(t, 3, spec.Capacity.Min)
	assert.Equal(t, 6, spec.Capacity.Max)
	assert.Equal(t, DatabaseShared, spec.Database.Mode)

	// untouched fields keep their defaults
	assert.Equal(t, "eu-west-1", spec.Region)
	assert.Equal(t, "/products", spec.HealthCheck.Path)
	assert.Equal(t, float64(70), spec.Scaling.TargetCPU)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stack.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{broken"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}
