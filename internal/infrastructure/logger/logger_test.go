package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "info", cfg.Level)
	assert.Equal(t, "console", cfg.Format)
	assert.Equal(t, "stdout", cfg.Output)
	assert.NotEmpty(t, cfg.TimeFormat)
}

func TestNew(t *testing.T) {
	tests := []struct {
		name string
		cfg  *Config
	}{
		{"console to stdout", &Config{Level: "debug", Format: "console", Output: "stdout", TimeFormat: "15:04:05"}},
		{"json to stderr", &Config{Level: "warn", Format: "json", Output: "stderr", TimeFormat: "2006-01-02T15:04:05.000Z07:00"}},
		{"unknown level falls back to info", &Config{Level: "verbose", Format: "json", Output: "stdout", TimeFormat: "15:04:05"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := New(tt.cfg)
			require.NoError(t, err)
			require.NotNil(t, logger)
			logger.Info("ping")
		})
	}
}

func TestNew_FileOutput(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "app.log")

	logger, err := New(&Config{Level: "info", Format: "json", Output: logPath, TimeFormat: "15:04:05"})
	require.NoError(t, err)

	logger.Info("written to file")
	require.NoError(t, Sync(logger))

	content, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(content), "written to file")
}

func TestNew_UnwritableFileFallsBackToStdout(t *testing.T) {
	logger, err := New(&Config{
		Level:      "info",
		Format:     "json",
		Output:     filepath.Join(t.TempDir(), "missing", "nested", "app.log"),
		TimeFormat: "15:04:05",
	})
	require.NoError(t, err)
	logger.Info("fallback ping")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"info", zapcore.InfoLevel},
		{"warn", zapcore.WarnLevel},
		{"warning", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"fatal", zapcore.FatalLevel},
		{"ERROR", zapcore.ErrorLevel},
		{"trace", zapcore.InfoLevel},
		{"", zapcore.InfoLevel},
	}

	for _, tt := range tests {
		name := tt.input
		if name == "" {
			name = "empty"
		}
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.input))
		})
	}
}
