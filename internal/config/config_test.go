package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadClient_Defaults(t *testing.T) {
	c, err := LoadClient(nil)
	require.NoError(t, err)

	assert.Equal(t, DriverFile, c.Cache.Driver)
	assert.NotEmpty(t, c.Cache.Path)
	assert.Equal(t, 2*time.Second, c.Sync.Debounce)
	assert.Equal(t, 3*time.Second, c.Sync.ResetAfter)
	assert.Equal(t, "GET", c.Sync.ReadMethod)
	assert.Zero(t, c.HTTP.Timeout)
	assert.Equal(t, "warn", c.Log.Level)
	assert.False(t, c.Version)
}

func TestLoadClient_Precedence(t *testing.T) {
	path := writeConfig(t, `{
		"sheet_url": "https://from-file/exec",
		"cache": {"driver": "sqlite", "path": "/tmp/story.db"},
		"sync": {"debounce": "5s", "read_method": "post"},
		"log": {"level": "debug"}
	}`)
	t.Setenv("STORY_SYNC_DEBOUNCE", "750ms")
	t.Setenv("STORY_LOG_LEVEL", "error")

	c, err := LoadClient([]string{"-c", path, "--log-level", "info", "--version"})
	require.NoError(t, err)

	assert.Equal(t, "https://from-file/exec", c.SheetURL)
	assert.Equal(t, DriverSQLite, c.Cache.Driver)
	assert.Equal(t, "/tmp/story.db", c.Cache.Path)
	assert.Equal(t, 750*time.Millisecond, c.Sync.Debounce, "env beats file")
	assert.Equal(t, "POST", c.Sync.ReadMethod)
	assert.Equal(t, "info", c.Log.Level, "flag beats env")
	assert.True(t, c.Version)
}

func TestLoadClient_Invalid(t *testing.T) {
	_, err := LoadClient([]string{"--cache-driver", "redis"})
	assert.ErrorContains(t, err, "cache.driver")

	t.Setenv("STORY_SYNC_READ_METHOD", "PUT")
	_, err = LoadClient(nil)
	assert.ErrorContains(t, err, "read_method")
}

func TestLoadClient_MissingExplicitFile(t *testing.T) {
	_, err := LoadClient([]string{"--config", filepath.Join(t.TempDir(), "nope.json")})
	assert.Error(t, err)
}

func TestLoadClient_BadJSON(t *testing.T) {
	path := writeConfig(t, `{"cache": `)
	_, err := LoadClient([]string{"-c", path})
	assert.Error(t, err)
}

func TestLoadServer(t *testing.T) {
	path := writeConfig(t, `{
		"database_dsn": "postgres://localhost/story",
		"tls": {"cert": "server.crt", "key": "server.key"},
		"revisions": {"retention": "48h"}
	}`)
	t.Setenv("STORY_CONFIG", path)

	s, err := LoadServer([]string{"-a", ":9090"})
	require.NoError(t, err)
	assert.Equal(t, ":9090", s.Address)
	assert.Equal(t, "postgres://localhost/story", s.DatabaseDSN)
	assert.True(t, s.TLS.Enabled())
	assert.Equal(t, 48*time.Hour, s.Revisions.Retention)
	assert.Equal(t, time.Hour, s.Revisions.Interval)
	assert.Equal(t, "info", s.Log.Level)
}

func TestLoadServer_RequiresDSN(t *testing.T) {
	t.Chdir(t.TempDir())
	_, err := LoadServer(nil)
	assert.ErrorContains(t, err, "database_dsn")

	s, err := LoadServer([]string{"-d", "postgres://x"})
	require.NoError(t, err)
	assert.False(t, s.TLS.Enabled())
	assert.Equal(t, "localhost:8080", s.Address)
}
