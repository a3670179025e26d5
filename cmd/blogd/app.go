package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"syscall"
	"time"

	"github.com/apex/log"
	"github.com/uptrace/bun"
	"github.com/urfave/cli/v3"

	"github.com/goliatone/go-blog/cache"
	"github.com/goliatone/go-blog/internal/config"
	"github.com/goliatone/go-blog/internal/database"
	applog "github.com/goliatone/go-blog/internal/log"
	"github.com/goliatone/go-blog/pkg/di"
	"github.com/goliatone/go-blog/repositorycache"
	"github.com/goliatone/go-blog/store"
)

func newApp() *cli.Command {
	app := &cli.Command{
		Name:    "blogd",
		Usage:   "blog platform API server",
		Version: version,
		Flags:   config.Flags(config.Source()),
		Action:  serve,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "start the HTTP server",
				Action: serve,
			},
			{
				Name:  "schema",
				Usage: "manage the database tables",
				Commands: []*cli.Command{
					{
						Name:   "create",
						Usage:  "create missing tables and indexes",
						Action: schemaAction(store.CreateSchema),
					},
					{
						Name:   "drop",
						Usage:  "drop every table",
						Action: schemaAction(store.DropSchema),
					},
				},
			},
			{
				Name:  "cache",
				Usage: "maintain the cache backend",
				Commands: []*cli.Command{
					{
						Name:   "flush",
						Usage:  "delete every cached article entry",
						Action: flushCache,
					},
				},
			},
		},
	}

	sort.Slice(app.Flags, func(i, j int) bool {
		return app.Flags[i].Names()[0] < app.Flags[j].Names()[0]
	})
	return app
}

func setup(cmd *cli.Command) (config.Config, log.Interface, error) {
	cfg, err := config.FromCommand(cmd)
	if err != nil {
		return cfg, nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, applog.Init(cfg.Log.Level, cfg.Log.Format, os.Stderr), nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	container, err := di.NewContainer(ctx, cfg, di.WithLogger(logger))
	if err != nil {
		return err
	}
	defer func() {
		if err := container.Close(context.Background()); err != nil {
			logger.WithError(err).Warn("close")
		}
	}()

	// SQLite is the local development driver; create the tables on start.
	if cfg.Database.Driver == config.DriverSQLite {
		if err := store.CreateSchema(ctx, container.DB()); err != nil {
			return err
		}
	}

	server := &http.Server{
		Addr:              net.JoinHostPort(cfg.HTTP.Host, strconv.Itoa(cfg.HTTP.Port)),
		Handler:           container.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.WithField("addr", server.Addr).Info("listening")
		errc <- server.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.WithField("timeout", cfg.HTTP.ShutdownTimeout.String()).Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func schemaAction(fn func(context.Context, *bun.DB) error) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		cfg, logger, err := setup(cmd)
		if err != nil {
			return err
		}

		db, err := database.Open(ctx, cfg.Database, logger)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := fn(ctx, db); err != nil {
			return err
		}
		logger.WithFields(log.Fields{"driver": cfg.Database.Driver, "command": cmd.Name}).Info("schema updated")
		return nil
	}
}

func flushCache(ctx context.Context, cmd *cli.Command) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}

	backend, err := cache.NewStore(cfg.Cache)
	if err != nil {
		return err
	}
	svc := cache.NewService(backend, cache.WithPrefix(cfg.Cache.Prefix), cache.WithLogger(logger))
	defer svc.Close()

	if err := svc.Invalidate(ctx, repositorycache.ArticlesPrefix); err != nil {
		return fmt.Errorf("flush: %w", err)
	}
	logger.WithFields(log.Fields{"backend": cfg.Cache.Backend, "prefix": svc.Key(repositorycache.ArticlesPrefix)}).Info("cache flushed")
	return nil
}
