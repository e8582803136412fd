package logger

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bufferedLogger(level LogLevel, json bool) (Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return NewLogger(&Config{
		Level:      level,
		Output:     &buf,
		JSON:       json,
		TimeFormat: "15:04:05",
	}), &buf
}

func TestFromContext(t *testing.T) {
	t.Run("Should return logger from context when present", func(t *testing.T) {
		expected := NewLogger(TestConfig())
		ctx := ContextWithLogger(t.Context(), expected)

		actual := FromContext(ctx)

		require.NotNil(t, actual)
		assert.Equal(t, expected, actual)
	})

	t.Run("Should return default logger when no logger in context", func(t *testing.T) {
		l := FromContext(t.Context())
		require.NotNil(t, l)
		assert.Equal(t, GetDefault(), l)
	})

	t.Run("Should return default logger when wrong type in context", func(t *testing.T) {
		ctx := context.WithValue(t.Context(), LoggerCtxKey, "not a logger")
		assert.Equal(t, GetDefault(), FromContext(ctx))
	})

	t.Run("Should return default logger when nil logger in context", func(t *testing.T) {
		ctx := context.WithValue(t.Context(), LoggerCtxKey, (Logger)(nil))
		assert.Equal(t, GetDefault(), FromContext(ctx))
	})
}

func TestLogLevel_ToCharmlogLevel(t *testing.T) {
	t.Run("Should convert all log levels to charm log levels", func(t *testing.T) {
		testCases := []struct {
			level    LogLevel
			expected int
		}{
			{DebugLevel, -4},
			{InfoLevel, 0},
			{WarnLevel, 4},
			{ErrorLevel, 8},
			{DisabledLevel, 1000},
			{LogLevel("unknown"), 0},
		}
		for _, tc := range testCases {
			assert.Equal(t, tc.expected, int(tc.level.ToCharmlogLevel()), "level %s", tc.level)
		}
	})
}

func TestParseLevel(t *testing.T) {
	t.Run("Should parse known names case-insensitively", func(t *testing.T) {
		assert.Equal(t, DebugLevel, ParseLevel("DEBUG"))
		assert.Equal(t, WarnLevel, ParseLevel(" warn "))
		assert.Equal(t, ErrorLevel, ParseLevel("error"))
		assert.Equal(t, DisabledLevel, ParseLevel("disabled"))
	})

	t.Run("Should fall back to info", func(t *testing.T) {
		assert.Equal(t, InfoLevel, ParseLevel(""))
		assert.Equal(t, InfoLevel, ParseLevel("verbose"))
	})
}

func TestNewLogger(t *testing.T) {
	t.Run("Should write text output", func(t *testing.T) {
		l, buf := bufferedLogger(InfoLevel, false)
		l.Info("test message")
		assert.Contains(t, buf.String(), "test message")
	})

	t.Run("Should write JSON output when enabled", func(t *testing.T) {
		l, buf := bufferedLogger(InfoLevel, true)
		l.Info("test message", "task", "greeter")
		out := buf.String()
		assert.Contains(t, out, "test message")
		assert.True(t, strings.HasPrefix(strings.TrimSpace(out), "{"))
		assert.Contains(t, out, `"task":"greeter"`)
	})

	t.Run("Should use quiet defaults under go test", func(t *testing.T) {
		require.NotNil(t, NewLogger(nil))
	})
}

func TestLogger_With(t *testing.T) {
	t.Run("Should carry additional fields", func(t *testing.T) {
		l, buf := bufferedLogger(InfoLevel, false)
		l.With("component", "taskset", "operation", "define").Info("operation completed")
		out := buf.String()
		assert.Contains(t, out, "component")
		assert.Contains(t, out, "taskset")
		assert.Contains(t, out, "operation completed")
	})
}

func TestConfigDefaults(t *testing.T) {
	t.Run("Should provide the test configuration", func(t *testing.T) {
		cfg := TestConfig()
		assert.Equal(t, DisabledLevel, cfg.Level)
		assert.Equal(t, io.Discard, cfg.Output)
		assert.False(t, cfg.JSON)
	})

	t.Run("Should detect the test environment", func(t *testing.T) {
		assert.True(t, IsTestEnvironment())
	})
}

func TestLoggerLevels(t *testing.T) {
	t.Run("Should respect level filtering", func(t *testing.T) {
		l, buf := bufferedLogger(WarnLevel, false)
		l.Debug("debug message")
		l.Info("info message")
		l.Warn("warn message")
		l.Error("error message")
		out := buf.String()
		assert.NotContains(t, out, "debug message")
		assert.NotContains(t, out, "info message")
		assert.Contains(t, out, "warn message")
		assert.Contains(t, out, "error message")
	})

	t.Run("Should disable all logging at DisabledLevel", func(t *testing.T) {
		l, buf := bufferedLogger(DisabledLevel, false)
		l.Error("error message")
		assert.Empty(t, buf.String())
	})
}

func TestConfigFrom(t *testing.T) {
	t.Run("Should map plain settings onto a logger configuration", func(t *testing.T) {
		cfg := ConfigFrom("DEBUG", true, true)
		assert.Equal(t, DebugLevel, cfg.Level)
		assert.True(t, cfg.JSON)
		assert.True(t, cfg.AddSource)
		assert.NotNil(t, cfg.Output)
	})
}
