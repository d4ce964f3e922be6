// internal/observability/logger_test.go
package observability

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/xkilldash9x/booker-cli/internal/config"
)

// memSink is an in-memory WriteSyncer for capturing console output.
type memSink struct {
	bytes.Buffer
}

func (s *memSink) Sync() error { return nil }

func TestInitialize(t *testing.T) {
	t.Run("should emit bracketed colorized levels on the console", func(t *testing.T) {
		ResetForTest()
		sink := &memSink{}

		Initialize(config.LoggerConfig{
			Level:       "debug",
			Format:      "console",
			ServiceName: "booker-test",
			Colors:      config.ColorConfig{Info: "green"},
		}, zapcore.Lock(sink))

		logger := GetLogger()
		logger.Info("Polling for select modules.")

		output := sink.String()
		assert.Contains(t, output, "[INFO]")
		assert.Contains(t, output, "Polling for select modules.")
		assert.Contains(t, output, colorGreen)
		assert.Contains(t, output, colorReset)
		assert.Contains(t, output, "booker-test")
	})

	t.Run("should respect the configured level", func(t *testing.T) {
		ResetForTest()
		sink := &memSink{}

		Initialize(config.LoggerConfig{
			Level:       "warn",
			Format:      "console",
			ServiceName: "booker-test",
		}, zapcore.Lock(sink))

		logger := GetLogger()
		logger.Info("too quiet to appear")
		logger.Warn("loud enough")

		output := sink.String()
		assert.NotContains(t, output, "too quiet to appear")
		assert.Contains(t, output, "loud enough")
	})

	t.Run("should mirror console output into a fresh log file", func(t *testing.T) {
		ResetForTest()
		logPath := filepath.Join(t.TempDir(), "logs", "booker.log")

		// Simulate a leftover file from an earlier run.
		require.NoError(t, os.MkdirAll(filepath.Dir(logPath), 0o755))
		require.NoError(t, os.WriteFile(logPath, []byte("stale content\n"), 0o644))

		Initialize(config.LoggerConfig{
			Level:       "info",
			Format:      "console",
			ServiceName: "booker-test",
			LogFile:     logPath,
		}, zapcore.Lock(&memSink{}))

		logger := GetLogger()
		logger.Info("This run's first line.")
		require.NoError(t, logger.Sync())

		content, err := os.ReadFile(logPath)
		require.NoError(t, err)
		assert.NotContains(t, string(content), "stale content")
		assert.Contains(t, string(content), "This run's first line.")
		assert.NotContains(t, string(content), colorReset, "file output must be free of ANSI codes")
	})

	t.Run("should only honor the first initialization", func(t *testing.T) {
		ResetForTest()
		first := &memSink{}
		second := &memSink{}

		Initialize(config.LoggerConfig{Level: "info", Format: "console", ServiceName: "first"}, zapcore.Lock(first))
		Initialize(config.LoggerConfig{Level: "info", Format: "console", ServiceName: "second"}, zapcore.Lock(second))

		GetLogger().Info("routed once")
		assert.Contains(t, first.String(), "routed once")
		assert.Empty(t, second.String())
	})
}

func TestGetLoggerFallback(t *testing.T) {
	t.Run("should hand out a usable fallback before initialization", func(t *testing.T) {
		ResetForTest()
		logger := GetLogger()
		require.NotNil(t, logger)
		// Must not panic.
		logger.Debug("fallback logger smoke test")
	})
}
