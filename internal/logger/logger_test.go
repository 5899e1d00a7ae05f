package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerTerminalOutput(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Options{Out: &buf, NoColor: true, MinLevel: INFO})
	require.NoError(t, err)

	l.Info("api", "hello")
	l.Debug("api", "dropped")

	out := buf.String()
	assert.Contains(t, out, "INFO")
	assert.Contains(t, out, "[API       ]")
	assert.Contains(t, out, "hello")
	assert.NotContains(t, out, "dropped")
}

func TestLoggerZeroLevelAdmitsDebug(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Options{Out: &buf, NoColor: true})
	require.NoError(t, err)
	l.Debug("api", "kept")
	assert.Contains(t, buf.String(), "kept")
}

func TestLoggerWritesJSONFile(t *testing.T) {
	dir := t.TempDir()
	var buf bytes.Buffer
	l, err := New(Options{Dir: dir, Name: "test", Out: &buf, NoColor: true, MinLevel: DEBUG})
	require.NoError(t, err)
	l.Warn("queue", "broker down")
	l.Close()

	matches, err := filepath.Glob(filepath.Join(dir, "test-*.log"))
	require.NoError(t, err)
	require.Len(t, matches, 1)

	data, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	last := lines[len(lines)-1]

	var entry LogEntry
	require.NoError(t, json.Unmarshal([]byte(last), &entry))
	assert.Equal(t, "WARN", entry.Level)
	assert.Equal(t, "QUEUE", entry.Category)
	assert.Equal(t, "broker down", entry.Message)
}

func TestDiscardIsSilent(t *testing.T) {
	l := Discard()
	l.Error("x", "nothing")
	l.Close()
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, DEBUG, ParseLevel("debug"))
	assert.Equal(t, WARN, ParseLevel("warning"))
	assert.Equal(t, ERROR, ParseLevel("ERROR"))
	assert.Equal(t, INFO, ParseLevel(""))
}
