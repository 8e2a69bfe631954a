package logging

import (
	"bytes"
	"encoding/json"
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
		{"INFO", slog.LevelInfo},
		{" warn ", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseLevel(tt.in), tt.in)
	}
}

func TestNewJSONRespectsLevelAndComponent(t *testing.T) {
	var buf bytes.Buffer
	l := Component(New(Options{Writer: &buf, Level: "warn"}), "refdata")

	l.Info("hidden")
	l.Warn("shown", "file", "clients.csv")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &rec))
	assert.Equal(t, "shown", rec["msg"])
	assert.Equal(t, "refdata", rec["component"])
	assert.Equal(t, "clients.csv", rec["file"])
}

func TestNewColorWritesText(t *testing.T) {
	var buf bytes.Buffer
	New(Options{Writer: &buf, Color: true}).Info("hello", "k", 1)
	assert.Contains(t, buf.String(), "hello")
	assert.Contains(t, buf.String(), "k=")
}
