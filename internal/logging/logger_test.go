package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		" error ": slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseLevel(in), "level %q", in)
	}
}

func TestNewWithWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, Options{Level: "info"})
	l.Info("plan ready", "bars", 3)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "plan ready", rec["msg"])
	assert.Equal(t, "barcut", rec["service"])
	assert.Equal(t, float64(3), rec["bars"])
	assert.Contains(t, rec, "timestamp")
	assert.NotContains(t, rec, "time")
}

func TestNewWithWriter_Text(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, Options{Level: "debug", Format: "text"})
	l.Debug("patterns generated", "total", 12)

	line := buf.String()
	assert.True(t, strings.Contains(line, "msg=\"patterns generated\""), line)
	assert.Contains(t, line, "total=12")
}

func TestSetLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, Options{Level: "warn"})
	child := l.With("component", "engine")

	child.Info("hidden")
	assert.Zero(t, buf.Len())

	l.SetLevel("debug")
	assert.Equal(t, slog.LevelDebug, l.Level())
	child.Debug("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestNew_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "barcut.log")
	l := New(Options{File: path, MaxSize: 1})
	l.Info("written to file")
	require.NoError(t, l.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "written to file")
}

func TestClose_NoFile(t *testing.T) {
	l := New(Options{})
	assert.NoError(t, l.Close())
}
