package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func logLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestNewLogger(t *testing.T) {
	t.Run("json output carries service attributes", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(LogConfig{
			Format:         LogFormatJSON,
			Output:         &buf,
			ServiceName:    "momentum",
			ServiceVersion: "test",
		})

		logger.Info("hello")

		entry := logLine(t, &buf)
		assert.Equal(t, "hello", entry["msg"])
		assert.Equal(t, "momentum", entry["service"])
		assert.Equal(t, "test", entry["version"])
	})

	t.Run("context ids are attached", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(LogConfig{Format: LogFormatJSON, Output: &buf})

		ctx := WithCorrelationID(context.Background(), "corr-1")
		ctx = WithRequestID(ctx, "req-1")
		ctx = WithUserID(ctx, "u1")
		logger.InfoContext(ctx, "scored")

		entry := logLine(t, &buf)
		assert.Equal(t, "corr-1", entry[CorrelationIDKey])
		assert.Equal(t, "req-1", entry[RequestIDKey])
		assert.Equal(t, "u1", entry[UserIDKey])
	})

	t.Run("plain context logs no ids", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(LogConfig{Format: LogFormatJSON, Output: &buf})

		logger.Info("scored")

		entry := logLine(t, &buf)
		assert.NotContains(t, entry, CorrelationIDKey)
		assert.NotContains(t, entry, RequestIDKey)
	})

	t.Run("level filters", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(LogConfig{Format: LogFormatJSON, Output: &buf, Level: LogLevelWarn})

		logger.Info("dropped")
		assert.Zero(t, buf.Len())

		logger.Warn("kept")
		assert.NotZero(t, buf.Len())
	})
}

func TestContextHelpers(t *testing.T) {
	t.Run("empty ids are generated", func(t *testing.T) {
		ctx := WithCorrelationID(context.Background(), "")
		assert.NotEmpty(t, CorrelationIDFromContext(ctx))
	})

	t.Run("request context reuses parent correlation", func(t *testing.T) {
		ctx := NewRequestContext(context.Background(), "parent-corr")
		assert.Equal(t, "parent-corr", CorrelationIDFromContext(ctx))
		assert.NotEmpty(t, RequestIDFromContext(ctx))
	})

	t.Run("missing values read empty", func(t *testing.T) {
		ctx := context.Background()
		assert.Empty(t, CorrelationIDFromContext(ctx))
		assert.Empty(t, RequestIDFromContext(ctx))
		assert.Empty(t, UserIDFromContext(ctx))
	})
}
