package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())

	v, err := New("")
	require.NoError(t, err)
	cfg, err := Load(v)
	require.NoError(t, err)

	require.Equal(t, "localhost:22124", cfg.Listen)
	require.Equal(t, int64(64<<20), cfg.MaxUploadBytes)
	require.Equal(t, 30*time.Second, cfg.ReadTimeout)
	require.Equal(t, slog.LevelInfo, cfg.LogLevel)
	require.Equal(t, "text", cfg.Format)
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "logmerge.yaml")
	require.NoError(t, os.WriteFile(path, []byte("listen: 0.0.0.0:9000\nlog-level: debug\nmax-upload-bytes: 1000\n"), 0o600))
	t.Setenv("LOGMERGE_MAX_UPLOAD_BYTES", "2000")

	v, err := New(path)
	require.NoError(t, err)

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String(KeyListen, "", "")
	require.NoError(t, Bind(v, fs))
	require.NoError(t, fs.Parse([]string{"--listen", "127.0.0.1:1234"}))

	cfg, err := Load(v)
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1:1234", cfg.Listen, "flag beats file")
	require.Equal(t, int64(2000), cfg.MaxUploadBytes, "env beats file")
	require.Equal(t, slog.LevelDebug, cfg.LogLevel, "file beats default")
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestLoadInvalid(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())

	for key, value := range map[string]string{
		"LOGMERGE_LOG_LEVEL":        "loud",
		"LOGMERGE_LOG_FORMAT":       "xml",
		"LOGMERGE_MAX_UPLOAD_BYTES": "-1",
	} {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			v, err := New("")
			require.NoError(t, err)
			_, err = Load(v)
			require.Error(t, err)
		})
	}
}
