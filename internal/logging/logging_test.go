package logging

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	testCases := []struct {
		input       string
		expected    slog.Level
		description string
	}{
		{"debug", slog.LevelDebug, "debug"},
		{" INFO ", slog.LevelInfo, "case and spaces"},
		{"", slog.LevelInfo, "empty means info"},
		{"warning", slog.LevelWarn, "warning alias"},
		{"error", slog.LevelError, "error"},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			lvl, err := ParseLevel(tc.input)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, lvl)
		})
	}

	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestInitFiltersByLevel(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	require.NoError(t, Init(&buf, "warn"))

	slog.Info("hidden message")
	slog.Warn("visible message", "topic", "sports")

	out := buf.String()
	assert.NotContains(t, out, "hidden message")
	assert.Contains(t, out, "visible message")
	assert.Contains(t, out, "sports")

	assert.Error(t, Init(&buf, "loud"))
}

func TestIsTerminal(t *testing.T) {
	assert.False(t, IsTerminal(&bytes.Buffer{}))
}
