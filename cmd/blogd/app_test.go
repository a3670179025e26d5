package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-blog/internal/config"
	"github.com/goliatone/go-blog/internal/database"
)

func sqliteArgs(t *testing.T) ([]string, config.DatabaseConfig) {
	t.Helper()

	dsn := "file:" + filepath.Join(t.TempDir(), "blog.db") + "?_foreign_keys=on"
	args := []string{
		"blogd",
		"--db-driver", config.DriverSQLite,
		"--db-dsn", dsn,
		"--db-ping-timeout", "0s",
		"--cache-backend", "memory",
		"--log-level", "error",
	}

	cfg := config.Default().Database
	cfg.Driver = config.DriverSQLite
	cfg.DSN = dsn
	cfg.PingTimeout = 0
	return args, cfg
}

func countArticles(t *testing.T, cfg config.DatabaseConfig) (int, error) {
	t.Helper()

	ctx := context.Background()
	db, err := database.Open(ctx, cfg, nil)
	require.NoError(t, err)
	defer db.Close()

	return db.NewSelect().Table("articles").Count(ctx)
}

func TestSchemaCommands(t *testing.T) {
	args, cfg := sqliteArgs(t)
	ctx := context.Background()

	require.NoError(t, newApp().Run(ctx, append(args, "schema", "create")))

	n, err := countArticles(t, cfg)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	// create is idempotent
	require.NoError(t, newApp().Run(ctx, append(args, "schema", "create")))

	require.NoError(t, newApp().Run(ctx, append(args, "schema", "drop")))

	_, err = countArticles(t, cfg)
	assert.Error(t, err)
}

func TestCacheFlush(t *testing.T) {
	args, _ := sqliteArgs(t)
	assert.NoError(t, newApp().Run(context.Background(), append(args, "cache", "flush")))
}

func TestInvalidConfiguration(t *testing.T) {
	args, _ := sqliteArgs(t)
	args = append(args, "--metrics-exporter", "statsd", "schema", "create")

	err := newApp().Run(context.Background(), args)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestRealMainExitCode(t *testing.T) {
	args, _ := sqliteArgs(t)
	assert.Equal(t, 0, realMain(context.Background(), append(args, "schema", "create")))
	assert.Equal(t, 1, realMain(context.Background(), append(args, "--port", "0", "schema", "create")))
}
