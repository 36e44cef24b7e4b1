package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/l1jgo/collision/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestLoggerConfig(t *testing.T) {
	zc := loggerConfig(config.LoggingConfig{Level: "debug", Format: "console"})
	assert.Equal(t, zapcore.DebugLevel, zc.Level.Level())
	assert.Equal(t, "console", zc.Encoding)
	assert.True(t, zc.DisableCaller)
	assert.True(t, zc.DisableStacktrace)

	zc = loggerConfig(config.LoggingConfig{Level: "loud", Format: "json", Caller: true, Stacktrace: true})
	assert.Equal(t, zapcore.InfoLevel, zc.Level.Level(), "unknown levels fall back to info")
	assert.Equal(t, "json", zc.Encoding)
	assert.False(t, zc.DisableCaller)
	assert.False(t, zc.DisableStacktrace)
}

func TestNewLoggerWritesToOutputs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "collided.log")
	log, err := newLogger(config.LoggingConfig{Level: "info", Format: "json", Outputs: []string{path}})
	require.NoError(t, err)
	log.Info("tick over budget")
	log.Debug("hidden")
	require.NoError(t, log.Sync())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"msg":"tick over budget"`)
	assert.NotContains(t, string(raw), "hidden")
}
