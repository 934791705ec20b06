package log

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigValidate(t *testing.T) {
	t.Run("fills defaults", func(t *testing.T) {
		cfg := Config{}
		require.NoError(t, cfg.Validate())
		assert.Equal(t, "24h", cfg.RotationTime)
		assert.Equal(t, "168h", cfg.MaxAge)
		assert.Equal(t, defaultPattern, cfg.DefaultPattern)
		assert.Equal(t, "info", cfg.Level)
		assert.Equal(t, "text", cfg.Format)
		assert.Equal(t, "stdout", cfg.Console)
	})

	tests := []struct {
		name string
		cfg  Config
	}{
		{"bad rotation", Config{RotationTime: "daily"}},
		{"bad max age", Config{MaxAge: "week"}},
		{"bad level", Config{Level: "trace"}},
		{"bad format", Config{Format: "xml"}},
		{"bad console", Config{Console: "tty"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.cfg.Validate())
		})
	}
}

func TestHandlerLevelAndFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(newHandler(&buf, Config{Level: "warn", Format: "json"}))

	logger.Info("hidden")
	assert.Empty(t, buf.String())

	logger.Warn("shown", "module", "route")
	assert.Contains(t, buf.String(), `"msg":"shown"`)
	assert.Contains(t, buf.String(), `"module":"route"`)
}

func TestInitConsoleOnly(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	require.NoError(t, Init(Config{Console: "none"}))
	Logger("test").Info("discarded")
}
