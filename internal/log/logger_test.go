package log

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"WARN", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		require.NoError(t, err, "level %q", tt.in)
		assert.Equal(t, tt.want, got)
	}

	_, err := ParseLevel("verbose")
	require.Error(t, err)
}

func TestNewText(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&buf, Config{Level: "info", Format: FormatText})
	require.NoError(t, err)

	logger.Info("service started", "pid", 42)
	assert.Contains(t, buf.String(), "msg=\"service started\"")
	assert.Contains(t, buf.String(), "pid=42")
}

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&buf, Config{Level: "info", Format: FormatJSON})
	require.NoError(t, err)

	logger.Info("service started", "pid", 42)
	assert.Contains(t, buf.String(), `"msg":"service started"`)
	assert.Contains(t, buf.String(), `"pid":42`)
}

func TestNewRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&buf, Config{Level: "error", Format: FormatText})
	require.NoError(t, err)

	logger.Info("ignored")
	assert.Empty(t, buf.String())

	logger.Error("kept")
	assert.Contains(t, buf.String(), "kept")
}

func TestNewBadInput(t *testing.T) {
	var buf bytes.Buffer
	_, err := New(&buf, Config{Level: "bogus"})
	require.Error(t, err)

	_, err = New(&buf, Config{Format: "xml"})
	require.Error(t, err)
}

func TestDiscard(t *testing.T) {
	logger := Discard()
	logger.Error("dropped")
	assert.False(t, logger.Enabled(context.Background(), slog.LevelError))
}
