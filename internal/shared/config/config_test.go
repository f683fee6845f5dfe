package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"proxyharvest/internal/shared/types"
)

func TestLoadIniOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "harvester.ini")
	ini := `
[log]
level = debug

[harvest]
batch_size = 25
fetch_workers = 8

[storage]
max_protocol_servers = 500
`
	require.NoError(t, os.WriteFile(path, []byte(ini), 0o644))

	cfg := types.DefaultConfig()
	require.NoError(t, LoadIni(cfg, path))

	assert.Equal(t, "debug", cfg.LogConf.Level)
	assert.Equal(t, 25, cfg.HarvestConf.BatchSize)
	assert.Equal(t, 8, cfg.HarvestConf.FetchWorkers)
	assert.Equal(t, 500, cfg.StorageConf.MaxProtoServers)
	// Untouched keys keep their defaults.
	assert.Equal(t, 100, cfg.StorageConf.MaxChannelServers)
	assert.Equal(t, 10, cfg.HarvestConf.FetchTimeoutSeconds)
}

func TestLoadIniMissingFileKeepsDefaults(t *testing.T) {
	cfg := types.DefaultConfig()
	require.NoError(t, LoadIni(cfg, filepath.Join(t.TempDir(), "absent.ini")))
	assert.Equal(t, types.DefaultConfig(), cfg)
}

func TestEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "harvester.ini")
	require.NoError(t, os.WriteFile(path, []byte("[harvest]\nfetch_workers = 2\n"), 0o644))

	t.Setenv("HARVEST_FETCH_WORKERS", "16")
	t.Setenv("HARVEST_ROOT_DIR", "/tmp/elsewhere")

	cfg := types.DefaultConfig()
	require.NoError(t, LoadIni(cfg, path))

	assert.Equal(t, 16, cfg.HarvestConf.FetchWorkers)
	assert.Equal(t, "/tmp/elsewhere", cfg.StorageConf.RootDir)
}
