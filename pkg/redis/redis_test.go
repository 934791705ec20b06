package redis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigValidate(t *testing.T) {
	disabled := Config{}
	require.NoError(t, disabled.Validate())
	assert.Empty(t, disabled.Prefix)

	cfg := Config{Enabled: true, Addr: "localhost:6379"}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "skyroute", cfg.Prefix)

	assert.Error(t, (&Config{Enabled: true}).Validate())
	assert.Error(t, (&Config{Enabled: true, Addr: "x:1", DB: -1}).Validate())
	assert.Error(t, (&Config{Enabled: true, Addr: "x:1", PoolSize: -1}).Validate())
}

func TestInitDisabled(t *testing.T) {
	require.NoError(t, Init(Config{}))
	assert.Nil(t, Client())
	assert.NoError(t, Close())
}
