package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/fayvince/resmeter/internal/config"
)

func TestNewLogger_FileOutput(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "log")
	logger, err := NewLogger(config.LogConfig{
		Level:              "info",
		Format:             "json",
		FileLoggingEnabled: true,
		Directory:          dir,
		Filename:           "resmeter.log",
		MaxSize:            1,
	})
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Info("Session started", zap.String("session_id", "abc"))
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(filepath.Join(dir, "resmeter.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"Session started"`)
	assert.Contains(t, string(data), `"session_id":"abc"`)
	assert.NotContains(t, string(data), "hidden")
}

func TestNewLogger_NoOutputs(t *testing.T) {
	_, err := NewLogger(config.LogConfig{Level: "info", Format: "json"})
	require.ErrorIs(t, err, ErrNoOutputs)
}

func TestConsoleCores_SplitByLevel(t *testing.T) {
	var out, errOut bytes.Buffer
	logger := zap.New(zapcore.NewTee(consoleCores(zapcore.InfoLevel, zapcore.AddSync(&out), zapcore.AddSync(&errOut))...))

	logger.Debug("debug line")
	logger.Warn("warn line")
	logger.Error("error line")

	assert.NotContains(t, out.String(), "debug line")
	assert.Contains(t, out.String(), "warn line")
	assert.NotContains(t, out.String(), "error line")
	assert.Contains(t, errOut.String(), "error line")
}

func TestParseLevel(t *testing.T) {
	level, err := parseLevel("WARN")
	require.NoError(t, err)
	assert.Equal(t, zapcore.WarnLevel, level)

	_, err = parseLevel("verbose")
	assert.Error(t, err)
}
