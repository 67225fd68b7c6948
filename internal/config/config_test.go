package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 500, cfg.IGDB.PageSize)
	assert.Equal(t, 250*time.Millisecond, cfg.IGDB.RequestDelay)
	assert.Equal(t, 100, cfg.Sync.SubBatchSize)
	assert.Equal(t, "https://api.igdb.com/v4", cfg.IGDB.BaseURL)
	assert.Equal(t, "postgres", cfg.Database.Driver)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("IGDB_CLIENT_ID", "cid")
	t.Setenv("IGDB_CLIENT_SECRET", "secret")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("SYNC_UPDATE_CONCURRENCY", "8")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "cid", cfg.IGDB.ClientID)
	assert.True(t, cfg.IGDB.HasCredentials())
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 8, cfg.Sync.UpdateConcurrency)
}

func TestLoad_FileAndClamping(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
igdb:
  base_url: "http://localhost:9000/v4/"
  page_size: 1000
  request_delay: 10ms
sync:
  sub_batch_size: 5000
database:
  driver: sqlite
  dsn: "file::memory:"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:9000/v4", cfg.IGDB.BaseURL)
	assert.Equal(t, MaxPageSize, cfg.IGDB.PageSize)
	assert.Equal(t, MinRequestDelay, cfg.IGDB.RequestDelay)
	assert.Equal(t, MaxSubBatchSize, cfg.Sync.SubBatchSize)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.False(t, cfg.IGDB.HasCredentials())
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
