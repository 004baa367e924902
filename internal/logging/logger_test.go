package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

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
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"verbose", slog.LevelInfo},
		{"", slog.LevelInfo},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseLevel(tt.in), tt.in)
	}
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, slog.LevelInfo, "json")
	l.Info("progress", Lines(100000), Source("access.log"))

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "progress", got["msg"])
	assert.Equal(t, float64(100000), got[FieldLines])
	assert.Equal(t, "access.log", got[FieldSource])
}

func TestTextFormatAndLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, slog.LevelInfo, "text").With(Workers(4))
	l.Debug("hidden")
	l.Info("done", Parsed(10), Matched(7), Skipped(1), Rate(12.5), Duration(time.Second), Error(errors.New("x")))

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	for _, want := range []string{"msg=done", "workers=4", "parsed=10", "matched=7", "skipped=1", "lines_per_second=12.5", "duration=1s", "error=x"} {
		assert.True(t, strings.Contains(out, want), "missing %q in %q", want, out)
	}
}

func TestDiscard(t *testing.T) {
	Discard().Error("nothing")
}
