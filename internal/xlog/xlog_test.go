package xlog

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultsToJSONInfo(t *testing.T) {
	l := New(Options{Component: "tunnel"})
	assert.NotNil(t, l.Logger)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, parseLevel("warning"))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel("bogus"))
}

func TestOutputContainsDefaultFields(t *testing.T) {
	var buf bytes.Buffer
	handler := slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}).
		WithAttrs([]slog.Attr{slog.String("service", "knxnetip"), slog.String("component", "routing")})
	l := &Logger{Logger: slog.New(handler)}
	l.Info("engine started", "queue_cap", 50)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "knxnetip", entry["service"])
	assert.Equal(t, "routing", entry["component"])
	assert.Equal(t, "engine started", entry["msg"])
	assert.Equal(t, float64(50), entry["queue_cap"])
}

func TestWithAddsAttributesWithoutMutatingParent(t *testing.T) {
	l := Default()
	child := l.With("session_id", "abc")
	assert.NotSame(t, l, child)
}
