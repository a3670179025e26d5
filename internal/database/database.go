package database

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/apex/log"
	"github.com/cenkalti/backoff/v5"
	"github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/mysqldialect"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/schema"

	"github.com/goliatone/go-blog/internal/config"
)

// DefaultSQLitePath is used by the sqlite driver when no DSN is configured.
const DefaultSQLitePath = "file:blog.db?_foreign_keys=on"

// DSN builds the data source name for cfg.Driver unless cfg.DSN is set.
func DSN(cfg config.DatabaseConfig) (string, error) {
	if cfg.DSN != "" {
		return cfg.DSN, nil
	}

	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	switch cfg.Driver {
	case config.DriverMySQL:
		mc := mysql.NewConfig()
		mc.Net = "tcp"
		mc.Addr = addr
		mc.User = cfg.User
		mc.Passwd = cfg.Password
		mc.DBName = cfg.Name
		mc.ParseTime = true
		mc.Loc = time.UTC
		mc.Params = map[string]string{"charset": "utf8mb4"}
		return mc.FormatDSN(), nil
	case config.DriverPostgres:
		u := url.URL{
			Scheme:   "postgres",
			User:     url.UserPassword(cfg.User, cfg.Password),
			Host:     addr,
			Path:     "/" + cfg.Name,
			RawQuery: "sslmode=disable",
		}
		return u.String(), nil
	case config.DriverSQLite:
		return DefaultSQLitePath, nil
	default:
		return "", fmt.Errorf("database: unsupported driver %q", cfg.Driver)
	}
}

func driverAndDialect(driver string) (string, schema.Dialect, error) {
	switch driver {
	case config.DriverMySQL:
		return "mysql", mysqldialect.New(), nil
	case config.DriverPostgres:
		return "postgres", pgdialect.New(), nil
	case config.DriverSQLite:
		return "sqlite3", sqlitedialect.New(), nil
	default:
		return "", nil, fmt.Errorf("database: unsupported driver %q", driver)
	}
}

// Open connects to the configured database and waits for it to answer a
// ping, retrying with exponential backoff for up to cfg.PingTimeout.
func Open(ctx context.Context, cfg config.DatabaseConfig, logger log.Interface) (*bun.DB, error) {
	if logger == nil {
		logger = log.Log
	}

	dsn, err := DSN(cfg)
	if err != nil {
		return nil, err
	}
	driverName, dialect, err := driverAndDialect(cfg.Driver)
	if err != nil {
		return nil, err
	}

	sqldb, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("database: open %s: %w", cfg.Driver, err)
	}
	sqldb.SetMaxOpenConns(cfg.PoolSize)
	sqldb.SetMaxIdleConns(cfg.PoolSize)
	if cfg.Driver == config.DriverSQLite {
		sqldb.SetMaxOpenConns(1)
	}

	db := bun.NewDB(sqldb, dialect)
	if err := waitForPing(ctx, db, cfg, logger); err != nil {
		_ = db.Close()
		return nil, err
	}

	logger.WithFields(log.Fields{"driver": cfg.Driver, "pool": cfg.PoolSize}).Info("database connected")
	return db, nil
}

func waitForPing(ctx context.Context, db *bun.DB, cfg config.DatabaseConfig, logger log.Interface) error {
	attempt := 0
	op := func() (struct{}, error) {
		attempt++
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		if err := db.PingContext(pingCtx); err != nil {
			logger.WithFields(log.Fields{"driver": cfg.Driver, "attempt": attempt}).WithError(err).Warn("database not ready")
			return struct{}{}, err
		}
		return struct{}{}, nil
	}

	opts := []backoff.RetryOption{backoff.WithBackOff(backoff.NewExponentialBackOff())}
	if cfg.PingTimeout > 0 {
		opts = append(opts, backoff.WithMaxElapsedTime(cfg.PingTimeout))
	} else {
		opts = append(opts, backoff.WithMaxTries(1))
	}

	if _, err := backoff.Retry(ctx, op, opts...); err != nil {
		return fmt.Errorf("database: ping %s: %w", cfg.Driver, err)
	}
	return nil
}
