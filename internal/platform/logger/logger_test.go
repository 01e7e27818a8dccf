package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/pearguacamole/VroomVault/internal/platform/contextkeys"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_ToLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ToLevel("debug"))
	assert.Equal(t, slog.LevelWarn, ToLevel("warn"))
	assert.Equal(t, slog.LevelError, ToLevel("error"))
	assert.Equal(t, slog.LevelInfo, ToLevel("info"))
	assert.Equal(t, slog.LevelInfo, ToLevel("verbose"))
}

func Test_ContextHandler_AddsRequestID(t *testing.T) {
	// given
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "info")
	ctx := contextkeys.WithRequestID(context.Background(), "req-42")

	// when
	log.InfoContext(ctx, "listing cars")

	// then
	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "req-42", record["request_id"])
	assert.Equal(t, "listing cars", record["msg"])
}

func Test_ContextHandler_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "warn")

	log.Info("dropped")
	assert.Zero(t, buf.Len())

	log.Warn("kept")
	assert.Contains(t, buf.String(), "kept")
}
