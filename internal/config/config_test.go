package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cloudbill/internal/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	t.Run("merges file values over defaults", func(t *testing.T) {
		path := writeConfig(t, `
server:
  port: 9090
database:
  url: postgres://db:5432/billing
  max_connections: 25
  min_connections: 5
`)

		cfg, err := config.Load(path)
		require.NoError(t, err)
		assert.Equal(t, 9090, cfg.Server.Port)
		assert.Equal(t, "postgres://db:5432/billing", cfg.Database.URL)
		// Untouched defaults survive.
		assert.Equal(t, "1M", cfg.Server.MaxBodySize)
	})

	t.Run("rejects invalid port", func(t *testing.T) {
		path := writeConfig(t, `
server:
  port: 70000
`)

		_, err := config.Load(path)
		assert.Error(t, err)
	})

	t.Run("rejects unknown log level", func(t *testing.T) {
		path := writeConfig(t, `
logging:
  level: loud
`)

		_, err := config.Load(path)
		assert.Error(t, err)
	})

	t.Run("missing file is an error", func(t *testing.T) {
		_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})
}

func TestDefault(t *testing.T) {
	cfg := config.Default()
	require.NoError(t, config.Validate(cfg))
	assert.Equal(t, 8080, cfg.Server.Port)
}
