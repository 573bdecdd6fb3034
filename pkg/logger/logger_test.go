package logger

import (
	"bytes"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"loud", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantErr, err != nil)
		})
	}
}

func TestHandler_SimpleFormat(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewHandler(slog.LevelInfo, &buf, "simple"))

	log.With("session", "abc").Info("Session opened", "server", "minesweeper game")
	log.Debug("hidden")

	assert.Equal(t, "INFO Session opened session=abc server=\"minesweeper game\"\n", buf.String())
}

func TestHandler_Groups(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewHandler(slog.LevelDebug, &buf, "simple"))

	log.WithGroup("agent").Warn("Slow", "name", "game", slog.Group("call", "op", "get_scores"))

	assert.Equal(t, "WARN Slow agent.name=game agent.call.op=get_scores\n", buf.String())
}

func TestHandler_JSON(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewHandler(slog.LevelInfo, &buf, "json"))
	log.Info("hello", "k", 1)
	assert.Contains(t, buf.String(), `"msg":"hello"`)
}

func TestFilteringHandler_DropsForeignRecords(t *testing.T) {
	var buf bytes.Buffer
	h := NewHandler(slog.LevelInfo, &buf, "simple")

	// A record without a PC cannot be attributed to this module.
	r := slog.NewRecord(testTime, slog.LevelInfo, "third party", 0)
	require.NoError(t, h.Handle(t.Context(), r))
	assert.Empty(t, buf.String())

	debug := NewHandler(slog.LevelDebug, &buf, "simple")
	require.NoError(t, debug.Handle(t.Context(), r))
	assert.Contains(t, buf.String(), "third party")
}

func TestOpenLogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	f, cleanup, err := OpenLogFile(path)
	require.NoError(t, err)
	defer cleanup()
	assert.Equal(t, path, f.Name())
}

var testTime = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
