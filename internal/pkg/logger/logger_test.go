package logger

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
	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	return record
}

func TestNew_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := New(&Config{Level: "warn", Format: "json", Output: &buf})

	log.Info("should be dropped")
	assert.Empty(t, buf.Bytes())

	log.Warn("should be written")
	assert.NotEmpty(t, buf.Bytes())
}

func TestNew_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	log := New(&Config{Level: "info", Format: "text", Output: &buf})

	log.Info("hello", "key", "value")

	out := buf.String()
	assert.Contains(t, out, "msg=hello")
	assert.Contains(t, out, "key=value")
}

func TestContextHandler_AddsRequestID(t *testing.T) {
	var buf bytes.Buffer
	log := New(&Config{Level: "info", Format: "json", Output: &buf})

	ctx := WithRequestID(context.Background(), "req-42")
	ctx = WithUserID(ctx, "user-7")
	log.InfoContext(ctx, "processing transfer")

	record := logLine(t, &buf)
	assert.Equal(t, "req-42", record["request_id"])
	assert.Equal(t, "user-7", record["user_id"])
	assert.Equal(t, "processing transfer", record["msg"])
}

func TestContextHandler_NoCorrelationWithoutContext(t *testing.T) {
	var buf bytes.Buffer
	log := New(&Config{Level: "info", Format: "json", Output: &buf})

	log.InfoContext(context.Background(), "plain record")

	record := logLine(t, &buf)
	_, hasRequestID := record["request_id"]
	_, hasTraceID := record["trace_id"]
	assert.False(t, hasRequestID)
	assert.False(t, hasTraceID)
}

func TestGetRequestID_MissingValue(t *testing.T) {
	assert.Equal(t, "", GetRequestID(context.Background()))
	assert.Equal(t, "", GetUserID(context.Background()))
}

func TestNew_NilConfigUsesDefaults(t *testing.T) {
	log := New(nil)
	require.NotNil(t, log)
}
