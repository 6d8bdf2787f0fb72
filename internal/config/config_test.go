package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendrilhq/tendril/internal/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tendril.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := config.Load(writeConfig(t, `
version: 1
server:
  addr: ":9090"
store:
  backend: redis
  redis:
    addr: "localhost:6379"
    session_ttl: "24h"
engine:
  max_hops: 128
`))
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Addr())
	assert.Equal(t, "redis", cfg.StoreBackend())
	assert.Equal(t, 128, cfg.Engine.MaxHops)

	ttl, err := cfg.SessionTTL()
	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour, ttl)
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load(writeConfig(t, "version: 1\n"))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, "memory", cfg.StoreBackend())

	ttl, err := cfg.SessionTTL()
	require.NoError(t, err)
	assert.Zero(t, ttl)
}

func TestLoad_Invalid(t *testing.T) {
	_, err := config.Load(writeConfig(t, "version: 2\n"))
	assert.Error(t, err)

	_, err = config.Load(writeConfig(t, "version: 1\nstore:\n  backend: mongo\n"))
	assert.Error(t, err)

	// A bad TTL only surfaces when accessed.
	cfg, err := config.Load(writeConfig(t, "version: 1\nstore:\n  backend: redis\n  redis:\n    session_ttl: nope\n"))
	require.NoError(t, err)
	_, err = cfg.SessionTTL()
	assert.Error(t, err)
}
