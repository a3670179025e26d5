package config

import (
	"os"

	altsrc "github.com/urfave/cli-altsrc/v3"
	yaml "github.com/urfave/cli-altsrc/v3/yaml"
	"github.com/urfave/cli/v3"

	"github.com/goliatone/go-blog/cache"
)

// EnvFile names the variable pointing at the YAML configuration file.
const EnvFile = "BLOG_CONFIG"

// Source returns the YAML file consulted after flags and environment.
func Source() string {
	if path := os.Getenv(EnvFile); path != "" {
		return path
	}
	return DefaultFile
}

// chain resolves a flag from the given environment variables, then from key
// in the YAML file.
func chain(file, key string, envs ...string) cli.ValueSourceChain {
	sources := make([]cli.ValueSource, 0, len(envs)+1)
	for _, env := range envs {
		sources = append(sources, cli.EnvVar(env))
	}
	sources = append(sources, yaml.YAML(key, altsrc.StringSourcer(file)))
	return cli.NewValueSourceChain(sources...)
}

// Flags returns the server flags. Values not given on the command line come
// from the environment, then from file.
func Flags(file string) []cli.Flag {
	d := Default()

	return []cli.Flag{
		&cli.StringFlag{
			Name:    "host",
			Usage:   "interface to listen on",
			Sources: chain(file, "http.host", "HOST"),
			Value:   d.HTTP.Host,
		},
		&cli.IntFlag{
			Name:    "port",
			Aliases: []string{"p"},
			Usage:   "port to listen on",
			Sources: chain(file, "http.port", "PORT"),
			Value:   d.HTTP.Port,
		},
		&cli.Int64Flag{
			Name:    "body-limit",
			Usage:   "maximum request body size in bytes",
			Sources: chain(file, "http.body_limit", "HTTP_BODY_LIMIT"),
			Value:   d.HTTP.BodyLimit,
		},
		&cli.DurationFlag{
			Name:    "shutdown-timeout",
			Usage:   "grace period for in-flight requests on shutdown",
			Sources: chain(file, "http.shutdown_timeout", "HTTP_SHUTDOWN_TIMEOUT"),
			Value:   d.HTTP.ShutdownTimeout,
		},
		&cli.DurationFlag{
			Name:    "cache-max-age",
			Usage:   "max-age of article responses; 0 sends no-cache",
			Sources: chain(file, "http.cache_max_age", "HTTP_CACHE_MAX_AGE"),
			Value:   d.HTTP.CacheMaxAge,
		},
		&cli.BoolFlag{
			Name:    "must-revalidate",
			Usage:   "append must-revalidate to article Cache-Control",
			Sources: chain(file, "http.must_revalidate", "HTTP_MUST_REVALIDATE"),
			Value:   d.HTTP.MustRevalidate,
		},

		&cli.StringFlag{
			Name:    "db-driver",
			Usage:   "database driver: mysql, postgres or sqlite",
			Sources: chain(file, "database.driver", "DB_DRIVER"),
			Value:   d.Database.Driver,
		},
		&cli.StringFlag{
			Name:    "db-host",
			Sources: chain(file, "database.host", "DB_HOST", "MYSQL_HOST"),
			Value:   d.Database.Host,
		},
		&cli.IntFlag{
			Name:    "db-port",
			Sources: chain(file, "database.port", "DB_PORT", "MYSQL_PORT"),
			Value:   d.Database.Port,
		},
		&cli.StringFlag{
			Name:    "db-user",
			Sources: chain(file, "database.user", "DB_USER", "MYSQL_USER"),
			Value:   d.Database.User,
		},
		&cli.StringFlag{
			Name:        "db-password",
			Sources:     chain(file, "database.password", "DB_PASSWORD", "MYSQL_PASSWORD"),
			Value:       d.Database.Password,
			HideDefault: true,
		},
		&cli.StringFlag{
			Name:    "db-name",
			Sources: chain(file, "database.name", "DB_NAME", "MYSQL_DATABASE"),
			Value:   d.Database.Name,
		},
		&cli.StringFlag{
			Name:    "db-dsn",
			Usage:   "full data source name; overrides host, port, user, password and name",
			Sources: chain(file, "database.dsn", "DATABASE_URL"),
		},
		&cli.IntFlag{
			Name:    "db-pool",
			Usage:   "maximum open connections",
			Sources: chain(file, "database.pool", "DB_POOL_SIZE", "MYSQL_CONNECTION_LIMIT"),
			Value:   d.Database.PoolSize,
		},
		&cli.DurationFlag{
			Name:    "db-ping-timeout",
			Usage:   "how long startup keeps retrying the database",
			Sources: chain(file, "database.ping_timeout", "DB_PING_TIMEOUT"),
			Value:   d.Database.PingTimeout,
		},

		&cli.StringFlag{
			Name:    "cache-backend",
			Usage:   "cache backend: redis, memory or none",
			Sources: chain(file, "cache.backend", "CACHE_BACKEND"),
			Value:   string(d.Cache.Backend),
		},
		&cli.StringFlag{
			Name:    "cache-prefix",
			Sources: chain(file, "cache.prefix", "CACHE_PREFIX"),
			Value:   d.Cache.Prefix,
		},
		&cli.StringFlag{
			Name:    "redis-url",
			Sources: chain(file, "cache.redis_url", "REDIS_URL"),
			Value:   d.Cache.RedisURL,
		},
		&cli.DurationFlag{
			Name:    "cache-list-ttl",
			Sources: chain(file, "cache.list_ttl", "CACHE_LIST_TTL"),
			Value:   d.Cache.ListTTL,
		},
		&cli.DurationFlag{
			Name:    "cache-search-ttl",
			Sources: chain(file, "cache.search_ttl", "CACHE_SEARCH_TTL"),
			Value:   d.Cache.SearchTTL,
		},
		&cli.DurationFlag{
			Name:    "cache-tags-ttl",
			Sources: chain(file, "cache.tags_ttl", "CACHE_TAGS_TTL"),
			Value:   d.Cache.TagsTTL,
		},
		&cli.IntFlag{
			Name:    "cache-memory-capacity",
			Sources: chain(file, "cache.memory.capacity", "CACHE_MEMORY_CAPACITY"),
			Value:   d.Cache.Memory.Capacity,
		},

		&cli.StringFlag{
			Name:    "log-level",
			Sources: chain(file, "log.level", "LOG_LEVEL"),
			Value:   d.Log.Level,
		},
		&cli.StringFlag{
			Name:    "log-format",
			Usage:   "text or json",
			Sources: chain(file, "log.format", "LOG_FORMAT"),
			Value:   d.Log.Format,
		},

		&cli.StringFlag{
			Name:        "jwt-secret",
			Usage:       "HS256 secret; when set, write routes require a bearer token",
			Sources:     chain(file, "auth.jwt_secret", "JWT_SECRET"),
			HideDefault: true,
		},
		&cli.StringFlag{
			Name:    "metrics-exporter",
			Usage:   "prometheus, stdout or none",
			Sources: chain(file, "metrics.exporter", "METRICS_EXPORTER"),
			Value:   d.Metrics.Exporter,
		},
	}
}

// FromCommand reads the resolved flag values of cmd and validates them.
func FromCommand(cmd *cli.Command) (Config, error) {
	cfg := Default()

	cfg.HTTP.Host = cmd.String("host")
	cfg.HTTP.Port = cmd.Int("port")
	cfg.HTTP.BodyLimit = cmd.Int64("body-limit")
	cfg.HTTP.ShutdownTimeout = cmd.Duration("shutdown-timeout")
	cfg.HTTP.CacheMaxAge = cmd.Duration("cache-max-age")
	cfg.HTTP.MustRevalidate = cmd.Bool("must-revalidate")

	cfg.Database.Driver = cmd.String("db-driver")
	cfg.Database.Host = cmd.String("db-host")
	cfg.Database.Port = cmd.Int("db-port")
	cfg.Database.User = cmd.String("db-user")
	cfg.Database.Password = cmd.String("db-password")
	cfg.Database.Name = cmd.String("db-name")
	cfg.Database.DSN = cmd.String("db-dsn")
	cfg.Database.PoolSize = cmd.Int("db-pool")
	cfg.Database.PingTimeout = cmd.Duration("db-ping-timeout")

	cfg.Cache.Backend = cache.Backend(cmd.String("cache-backend"))
	cfg.Cache.Prefix = cmd.String("cache-prefix")
	cfg.Cache.RedisURL = cmd.String("redis-url")
	cfg.Cache.ListTTL = cmd.Duration("cache-list-ttl")
	cfg.Cache.SearchTTL = cmd.Duration("cache-search-ttl")
	cfg.Cache.TagsTTL = cmd.Duration("cache-tags-ttl")
	cfg.Cache.Memory.Capacity = cmd.Int("cache-memory-capacity")

	cfg.Log.Level = cmd.String("log-level")
	cfg.Log.Format = cmd.String("log-format")
	cfg.Auth.JWTSecret = cmd.String("jwt-secret")
	cfg.Metrics.Exporter = cmd.String("metrics-exporter")

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}
