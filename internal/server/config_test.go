package server

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zereker/skyroute/internal/store"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
[server]
port = 8080

[search]
cache_ttl = "1m"
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "http", cfg.Server.Mode)
	assert.Equal(t, store.BackendMemory, cfg.Store.Backend)
	assert.Equal(t, 3, cfg.Search.DefaultMaxHops)
	assert.Equal(t, 4, cfg.Search.MaxHopsLimit)
	assert.Equal(t, "stdout", cfg.Log.Console)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadConfigSampleFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join("..", "..", "configs", "config.toml"))
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.False(t, cfg.Kafka.Enabled)
}

func TestLoadConfigErrors(t *testing.T) {
	tests := map[string]string{
		"bad toml":          `[server`,
		"bad mode":          "[server]\nmode = \"grpc\"\nport = 1",
		"missing port":      "[server]\nmode = \"http\"",
		"bad backend":       "[server]\nport = 1\n[store]\nbackend = \"mongo\"",
		"neo4j not enabled": "[server]\nport = 1\n[store]\nbackend = \"neo4j\"",
		"pg not enabled":    "[server]\nport = 1\n[store]\nbackend = \"postgres\"",
		"bad ttl":           "[server]\nport = 1\n[search]\ncache_ttl = \"soon\"",
		"redis no addr":     "[server]\nport = 1\n[redis]\nenabled = true",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, content))
			assert.Error(t, err)
		})
	}

	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestMCPModeLogsToStderr(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, "[server]\nmode = \"mcp\""))
	require.NoError(t, err)
	assert.Equal(t, "stderr", cfg.Log.Console)

	cfg, err = LoadConfig(writeConfig(t, "[server]\nmode = \"both\"\nport = 9000\n[log]\nconsole = \"none\""))
	require.NoError(t, err)
	assert.Equal(t, "none", cfg.Log.Console)
}
