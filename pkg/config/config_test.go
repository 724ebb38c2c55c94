package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, StorageRelational, cfg.Storage.Driver)
	assert.Equal(t, TransportLoopback, cfg.Storage.Relational.Transport)
	assert.Equal(t, DialectSQLite, cfg.Storage.Relational.Dialect)
	assert.Equal(t, BindingNamed, cfg.Storage.Relational.Binding)
	assert.Equal(t, 3, cfg.Lifecycle.NextMaintenanceMonths)
	assert.Equal(t, CascadeBestEffort, cfg.Lifecycle.CascadePolicy)
	assert.Equal(t, IDCounter, cfg.Lifecycle.IDStrategy)
}

func TestLoadFileThenEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := filepath.Join(dir, "maintcore.yaml")
	yamlDoc := `
storage:
  driver: kv
  kv:
    driver: fs
    fs_root: /var/lib/maintcore
lifecycle:
  next_maintenance_months: 6
  cascade_policy: compensate
log:
  level: DEBUG
`
	require.NoError(t, os.WriteFile(path, []byte(yamlDoc), 0o600))
	t.Setenv("MAINTCORE_KV_FS_ROOT", "/tmp/override")
	t.Setenv("MAINTCORE_RELATIONAL_TIMEOUT", "2s")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, StorageKV, cfg.Storage.Driver)
	assert.Equal(t, KVFilesystem, cfg.Storage.KV.Driver)
	assert.Equal(t, "/tmp/override", cfg.Storage.KV.FSRoot)
	assert.Equal(t, 6, cfg.Lifecycle.NextMaintenanceMonths)
	assert.Equal(t, CascadeCompensate, cfg.Lifecycle.CascadePolicy)
	assert.Equal(t, "DEBUG", cfg.Log.Level)
	assert.Equal(t, 2*time.Second, cfg.Storage.Relational.Timeout)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("MAINTCORE_ID_STRATEGY=length\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("MAINTCORE_ID_STRATEGY") })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, IDLength, cfg.Lifecycle.IDStrategy)
}

func TestLoadRejectsBadInteger(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("MAINTCORE_NEXT_MAINTENANCE_MONTHS", "three")
	_, err := Load("")
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"defaults", func(*Config) {}, true},
		{"unknown storage", func(c *Config) { c.Storage.Driver = "mongo" }, false},
		{"unknown kv driver", func(c *Config) { c.Storage.Driver = StorageKV; c.Storage.KV.Driver = "etcd" }, false},
		{"s3 without bucket", func(c *Config) { c.Storage.Driver = StorageKV; c.Storage.KV.Driver = KVS3 }, false},
		{"s3 with bucket", func(c *Config) {
			c.Storage.Driver = StorageKV
			c.Storage.KV.Driver = KVS3
			c.Storage.KV.S3.Bucket = "maint"
		}, true},
		{"postgres without dsn", func(c *Config) { c.Storage.Relational.Dialect = DialectPostgres }, false},
		{"http without url", func(c *Config) { c.Storage.Relational.Transport = TransportHTTP }, false},
		{"bad binding", func(c *Config) { c.Storage.Relational.Binding = "both" }, false},
		{"bad cascade", func(c *Config) { c.Lifecycle.CascadePolicy = "retry" }, false},
		{"bad ids", func(c *Config) { c.Lifecycle.IDStrategy = "uuid" }, false},
		{"negative horizon", func(c *Config) { c.Lifecycle.NextMaintenanceMonths = -1 }, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			err := cfg.Validate()
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
