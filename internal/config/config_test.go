package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("AWS_BUCKET_NAME", "booth-shapefiles")
	t.Setenv("BOOTHMAP_DATA_DIR", t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8000, cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "shp_files_state_wise/", cfg.S3Prefix)
	assert.Equal(t, 72, cfg.RunTTLHrs)
	assert.GreaterOrEqual(t, cfg.Workers, 1)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("AWS_BUCKET_NAME", "booth-shapefiles")
	t.Setenv("BOOTHMAP_DATA_DIR", t.TempDir())
	t.Setenv("PORT", "9100")
	t.Setenv("BATCH_WORKERS", "4")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Port)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestValidateMissingBucket(t *testing.T) {
	cfg := &Config{Workers: 2}
	assert.Error(t, cfg.Validate())
}

func TestValidateBadWorkers(t *testing.T) {
	cfg := &Config{S3Bucket: "b", Workers: 0}
	assert.Error(t, cfg.Validate())
}
