package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir(), "")
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "rcconf.db", cfg.Database.Name)
	assert.Equal(t, 30, cfg.Database.TimeoutSeconds)
	assert.False(t, cfg.Storage.Enabled)
	assert.Equal(t, "etc", cfg.Storage.Bucket)
	assert.Equal(t, "/etc", cfg.Etc.Mountpoint)
	assert.Equal(t, []string{"templates"}, cfg.Etc.PluginDirs)
	assert.Equal(t, time.Minute, cfg.Etc.CacheTTL)
	assert.Equal(t, "", cfg.Events.NATSURL)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadConfig_Env(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("ETC_MOUNTPOINT", "/mnt/etc")
	t.Setenv("ETC_PLUGIN_DIRS", "/usr/local/lib/etcd/plugins,/opt/templates")
	t.Setenv("STORAGE_ENABLED", "true")
	t.Setenv("EVENTS_NATS_URL", "nats://127.0.0.1:4222")

	cfg, err := LoadConfig(t.TempDir(), "")
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "/mnt/etc", cfg.Etc.Mountpoint)
	assert.Equal(t, []string{"/usr/local/lib/etcd/plugins", "/opt/templates"}, cfg.Etc.PluginDirs)
	assert.True(t, cfg.Storage.Enabled)
	assert.Equal(t, "nats://127.0.0.1:4222", cfg.Events.NATSURL)
}

func TestLoadConfig_DotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("LOG_LEVEL=debug\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("LOG_LEVEL") })

	cfg, err := LoadConfig(dir, "")
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadConfig_File(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "middleware.json")
	content := `{
  "database": {"driver": "mysql", "name": "freenas"},
  "etc": {"mountpoint": "/conf/etc", "plugin_dirs": ["/usr/local/lib/etcd"]}
}`
	require.NoError(t, os.WriteFile(file, []byte(content), 0o644))

	cfg, err := LoadConfig(dir, file)
	require.NoError(t, err)
	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, "freenas", cfg.Database.Name)
	assert.Equal(t, "/conf/etc", cfg.Etc.Mountpoint)
	assert.Equal(t, []string{"/usr/local/lib/etcd"}, cfg.Etc.PluginDirs)
	// Untouched sections keep their defaults
	assert.Equal(t, "8080", cfg.Server.Port)

	t.Run("Missing file", func(t *testing.T) {
		_, err := LoadConfig(dir, filepath.Join(dir, "missing.json"))
		assert.ErrorContains(t, err, "cannot read config file")
	})
}
