package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"

	"github.com/goliatone/go-blog/cache"
)

func resolve(t *testing.T, file string, args ...string) (Config, error) {
	t.Helper()

	var (
		cfg    Config
		cfgErr error
	)
	cmd := &cli.Command{
		Name:  "blogd",
		Flags: Flags(file),
		Action: func(_ context.Context, cmd *cli.Command) error {
			cfg, cfgErr = FromCommand(cmd)
			return nil
		},
	}
	require.NoError(t, cmd.Run(context.Background(), append([]string{"blogd"}, args...)))
	return cfg, cfgErr
}

func writeYAML(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "blog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefaults(t *testing.T) {
	cfg, err := resolve(t, filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 5174, cfg.HTTP.Port)
	assert.Equal(t, DriverMySQL, cfg.Database.Driver)
	assert.Equal(t, "127.0.0.1", cfg.Database.Host)
	assert.Equal(t, 3306, cfg.Database.Port)
	assert.Equal(t, "blog_user", cfg.Database.User)
	assert.Equal(t, "blog_platform", cfg.Database.Name)
	assert.Equal(t, 10, cfg.Database.PoolSize)
	assert.Equal(t, cache.BackendRedis, cfg.Cache.Backend)
	assert.Equal(t, "redis://localhost:6379", cfg.Cache.RedisURL)
	assert.Equal(t, 300*time.Second, cfg.Cache.ListTTL)
	assert.Equal(t, 60*time.Second, cfg.Cache.SearchTTL)
	assert.Empty(t, cfg.Auth.JWTSecret)
}

func TestPrecedence(t *testing.T) {
	file := writeYAML(t, `
http:
  port: 9000
database:
  driver: sqlite
  dsn: "file:blog.db"
cache:
  backend: memory
  list_ttl: 2m
log:
  level: debug
`)
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("MYSQL_HOST", "db.internal")

	cfg, err := resolve(t, file, "--port", "8080")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.HTTP.Port, "flag beats file")
	assert.Equal(t, "warn", cfg.Log.Level, "env beats file")
	assert.Equal(t, "db.internal", cfg.Database.Host, "legacy env name")
	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, "file:blog.db", cfg.Database.DSN)
	assert.Equal(t, cache.BackendMemory, cfg.Cache.Backend)
	assert.Equal(t, 2*time.Minute, cfg.Cache.ListTTL)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "bad port", mutate: func(c *Config) { c.HTTP.Port = 70000 }, wantErr: true},
		{name: "unknown driver", mutate: func(c *Config) { c.Database.Driver = "oracle" }, wantErr: true},
		{name: "sqlite needs no host", mutate: func(c *Config) {
			c.Database.Driver = DriverSQLite
			c.Database.Host = ""
		}},
		{name: "mysql needs a host", mutate: func(c *Config) { c.Database.Host = "" }, wantErr: true},
		{name: "dsn replaces host", mutate: func(c *Config) {
			c.Database.Host = ""
			c.Database.DSN = "user:pw@tcp(db:3306)/blog"
		}},
		{name: "zero pool", mutate: func(c *Config) { c.Database.PoolSize = 0 }, wantErr: true},
		{name: "bad cache backend", mutate: func(c *Config) { c.Cache.Backend = "memcached" }, wantErr: true},
		{name: "bad log format", mutate: func(c *Config) { c.Log.Format = "xml" }, wantErr: true},
		{name: "bad exporter", mutate: func(c *Config) { c.Metrics.Exporter = "statsd" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSource(t *testing.T) {
	t.Setenv(EnvFile, "")
	assert.Equal(t, DefaultFile, Source())

	t.Setenv(EnvFile, "/etc/blog/blog.yaml")
	assert.Equal(t, "/etc/blog/blog.yaml", Source())
}
