package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("CHRONOS_CONFIG_PATH", t.TempDir())
	t.Setenv("CHRONOS_PATH", "/tmp/chronos-test")

	s, err := LoadConfigFrom(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "/tmp/chronos-test", s.BasePath())
	assert.Equal(t, RemoteNone, s.Remote.Kind)
	assert.Equal(t, 1100*time.Millisecond, s.Debounce)
	assert.Equal(t, 2*time.Second, s.SavedHold)
	assert.Equal(t, 3500*time.Millisecond, s.ErrorHold)
	assert.Equal(t, "info", s.Log.Level)
	assert.Equal(t, "127.0.0.1:7878", s.Listen)
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CHRONOS_CONFIG_PATH", dir)
	cfg := []byte("path: " + filepath.Join(dir, "data") + "\nremote:\n  kind: sqlite\n  dsn: file:remote.db\ndebounce: 250ms\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".chronos.yaml"), cfg, 0o600))

	s, err := LoadConfigFrom(viper.New())
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "data"), s.Path)
	assert.Equal(t, RemoteSQLite, s.Remote.Kind)
	assert.Equal(t, "file:remote.db", s.Remote.DSN)
	assert.Equal(t, 250*time.Millisecond, s.Debounce)
}

func TestLoadConfigEnvOverridesNestedKeys(t *testing.T) {
	t.Setenv("CHRONOS_CONFIG_PATH", t.TempDir())
	t.Setenv("CHRONOS_REMOTE_KIND", RemoteHTTP)
	t.Setenv("CHRONOS_REMOTE_URL", "http://localhost:9000")

	s, err := LoadConfigFrom(viper.New())
	require.NoError(t, err)

	assert.Equal(t, RemoteHTTP, s.Remote.Kind)
	assert.Equal(t, "http://localhost:9000", s.Remote.URL)
}
