package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir switches to a fresh directory for the duration of the test
func chdir(t *testing.T) string {
	t.Helper()
	tmpDir := t.TempDir()
	oldWd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(tmpDir))
	t.Cleanup(func() { os.Chdir(oldWd) })
	return tmpDir
}

func TestLoad(t *testing.T) {
	chdir(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, "localhost:8080", cfg.Server.Addr())
	assert.Equal(t, "/api/v1", cfg.Server.APIPrefix)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "sqlite3", cfg.Database.Driver)
	assert.Equal(t, "datadict.db", cfg.Database.DSN)
	assert.Equal(t, 3, cfg.Database.MaxRetries)
	assert.True(t, cfg.Database.AutoMigrate)
	assert.Equal(t, "none", cfg.Cache.Backend)
	assert.Equal(t, time.Minute, cfg.Cache.TTL)
	assert.False(t, cfg.Auth.Enabled)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
	assert.False(t, cfg.Server.Pprof)
	assert.False(t, cfg.Limit.Enabled)
	assert.Equal(t, 60, cfg.Limit.Requests)
	assert.Equal(t, time.Minute, cfg.Limit.Window)
}

func TestLoadWithConfigFile(t *testing.T) {
	dir := chdir(t)

	configContent := `
server:
  port: 9090
  host: 0.0.0.0
  api_prefix: /dict
database:
  driver: pgx
  dsn: postgres://localhost/datadict
  tx_timeout: 5s
cache:
  backend: redis
  redis_addr: cache:6379
log:
  level: debug
  format: console
ratelimit:
  enabled: true
  backend: redis
  requests: 10
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "datadict.yaml"), []byte(configContent), 0644))

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, "/dict", cfg.Server.APIPrefix)
	assert.Equal(t, "pgx", cfg.Database.Driver)
	assert.Equal(t, "postgres://localhost/datadict", cfg.Database.DSN)
	assert.Equal(t, 5*time.Second, cfg.Database.TxTimeout)
	assert.Equal(t, "redis", cfg.Cache.Backend)
	assert.Equal(t, "cache:6379", cfg.Cache.RedisAddr)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.True(t, cfg.Limit.Enabled)
	assert.Equal(t, "redis", cfg.Limit.Backend)
	assert.Equal(t, 10, cfg.Limit.Requests)

	// untouched sections keep their defaults
	assert.Equal(t, "read_committed", cfg.Database.Isolation)
	assert.Equal(t, "datadict:", cfg.Cache.Prefix)
}

func TestLoadExplicitPath(t *testing.T) {
	dir := chdir(t)
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 7070\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	chdir(t)
	t.Setenv("DATADICT_SERVER_PORT", "6060")
	t.Setenv("DATADICT_DATABASE_DSN", "file:test.db")
	t.Setenv("DATADICT_AUTH_ENABLED", "true")
	t.Setenv("DATADICT_AUTH_SECRET", "0123456789abcdef0123")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 6060, cfg.Server.Port)
	assert.Equal(t, "file:test.db", cfg.Database.DSN)
	assert.True(t, cfg.Auth.Enabled)
	assert.Equal(t, "0123456789abcdef0123", cfg.Auth.Secret)
}

func TestValidateConfig(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:   ServerConfig{Port: 8080, APIPrefix: "/api/v1"},
			Database: DatabaseConfig{Driver: "sqlite3", DSN: ":memory:"},
			Cache:    CacheConfig{Backend: "none"},
			Log:      LogConfig{Level: "info", Format: "json"},
			Metrics:  MetricsConfig{Enabled: true, Path: "/metrics"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"empty prefix", func(c *Config) { c.Server.APIPrefix = "" }, ""},
		{"bad port", func(c *Config) { c.Server.Port = 0 }, "server.port"},
		{"prefix without slash", func(c *Config) { c.Server.APIPrefix = "api" }, "must start with '/'"},
		{"prefix trailing slash", func(c *Config) { c.Server.APIPrefix = "/api/" }, "must not end with '/'"},
		{"unknown driver", func(c *Config) { c.Database.Driver = "mysql" }, "database.driver"},
		{"missing dsn", func(c *Config) { c.Database.DSN = "" }, "database.dsn"},
		{"unknown cache", func(c *Config) { c.Cache.Backend = "memcached" }, "cache.backend"},
		{"short secret", func(c *Config) { c.Auth = AuthConfig{Enabled: true, Secret: "short"} }, "auth.secret"},
		{"unknown format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
		{"metrics path", func(c *Config) { c.Metrics.Path = "metrics" }, "metrics.path"},
		{"metrics disabled", func(c *Config) { c.Metrics = MetricsConfig{} }, ""},
		{"limit backend", func(c *Config) { c.Limit = LimitConfig{Enabled: true, Backend: "etcd", Requests: 1, Window: time.Second} }, "ratelimit.backend"},
		{"limit budget", func(c *Config) { c.Limit = LimitConfig{Enabled: true, Backend: "memory"} }, "must be positive"},
		{"limit disabled", func(c *Config) { c.Limit = LimitConfig{Backend: "etcd"} }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := validateConfig(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
