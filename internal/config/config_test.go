package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"go-contact-pipeline/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	require.Equal(t, 8080, cfg.Port)
	require.Equal(t, ":8080", cfg.Addr)
	require.Equal(t, "pipeline.db", cfg.DBPath)
	require.Equal(t, 10*time.Second, cfg.ExtractTimeout)
	require.Equal(t, 3, cfg.ExtractAttempts)
	require.Equal(t, 2*time.Minute, cfg.RunTimeout)
	require.Equal(t, 10000, cfg.MaxBatchSize)
	require.Equal(t, 4, cfg.LoadConcurrency)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("PIPELINE_PORT", "9090")
	t.Setenv("PIPELINE_DB_PATH", "/tmp/custom.db")
	t.Setenv("PIPELINE_EXTRACT_ATTEMPTS", "5")

	cfg, err := config.Load("")
	require.NoError(t, err)
	require.Equal(t, 9090, cfg.Port)
	require.Equal(t, "/tmp/custom.db", cfg.DBPath)
	require.Equal(t, 5, cfg.ExtractAttempts)
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("port: 3210\nload-concurrency: 8\n"), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, 3210, cfg.Port)
	require.Equal(t, 8, cfg.LoadConcurrency)
}

func TestLoadMissingConfigFileIsFine(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yml"))
	require.NoError(t, err)
}

func TestLoadRejectsInvalidBounds(t *testing.T) {
	t.Setenv("PIPELINE_PORT", "99999")
	_, err := config.Load("")
	require.Error(t, err)
}
