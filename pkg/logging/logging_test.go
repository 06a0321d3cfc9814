package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, ParseLevel("DEBUG"))
	assert.Equal(t, zapcore.WarnLevel, ParseLevel("warning"))
	assert.Equal(t, zapcore.ErrorLevel, ParseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel(""))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel("loud"))
}

func TestNewWritesJSONToNonTerminal(t *testing.T) {
	var buf bytes.Buffer
	log, flush := New(Config{Level: "info", Console: &buf})
	log.Debugw("hidden")
	log.Infow("cache saved", "entries", 3)
	flush()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)
	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &rec))
	assert.Equal(t, "cache saved", rec["msg"])
	assert.Equal(t, 3.0, rec["entries"])
	assert.Equal(t, "chronos", rec["logger"])
}

func TestNewFileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chronos.log")
	log, flush := New(Config{Level: "debug", File: path, MaxSizeMB: 1, Quiet: true})
	log.Debugw("to file")
	flush()

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"msg":"to file"`)
}

func TestNewWithoutSinksIsNop(t *testing.T) {
	log, flush := New(Config{Quiet: true})
	log.Errorw("dropped")
	flush()
}
