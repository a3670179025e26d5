package config

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/goliatone/go-blog/cache"
)

const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

const (
	ExporterPrometheus = "prometheus"
	ExporterStdout     = "stdout"
	ExporterNone       = "none"
)

// DefaultFile is read for values that neither flags nor the environment set.
const DefaultFile = "blog.yaml"

// Config is the resolved server configuration.
type Config struct {
	HTTP     HTTPConfig
	Database DatabaseConfig
	Cache    cache.Config
	Log      LogConfig
	Auth     AuthConfig
	Metrics  MetricsConfig
}

// HTTPConfig configures the listener and the response cache headers.
type HTTPConfig struct {
	Host            string
	Port            int
	BodyLimit       int64
	ShutdownTimeout time.Duration

	// CacheMaxAge switches article GET responses from "no-cache" to
	// "public, max-age=N" when positive.
	CacheMaxAge    time.Duration
	MustRevalidate bool
}

// DatabaseConfig configures the SQL connection. DSN overrides the
// individual connection fields.
type DatabaseConfig struct {
	Driver      string
	Host        string
	Port        int
	User        string
	Password    string
	Name        string
	DSN         string
	PoolSize    int
	PingTimeout time.Duration
}

type LogConfig struct {
	Level  string
	Format string
}

// AuthConfig enables the bearer token guard on write routes when Secret is set.
type AuthConfig struct {
	JWTSecret string
}

type MetricsConfig struct {
	Exporter string
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		HTTP: HTTPConfig{
			Host:            "",
			Port:            5174,
			BodyLimit:       1 << 20,
			ShutdownTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			Driver:      DriverMySQL,
			Host:        "127.0.0.1",
			Port:        3306,
			User:        "blog_user",
			Password:    "1234567890",
			Name:        "blog_platform",
			PoolSize:    10,
			PingTimeout: 30 * time.Second,
		},
		Cache:   cache.DefaultConfig(),
		Log:     LogConfig{Level: "info", Format: "text"},
		Metrics: MetricsConfig{Exporter: ExporterPrometheus},
	}
}

// Validate checks every section.
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.HTTP),
		validation.Field(&c.Database),
		validation.Field(&c.Log),
		validation.Field(&c.Metrics),
		validation.Field(&c.Cache),
	)
}

func (h HTTPConfig) Validate() error {
	return validation.ValidateStruct(&h,
		validation.Field(&h.Port, validation.Required, validation.Min(1), validation.Max(65535)),
		validation.Field(&h.BodyLimit, validation.Required, validation.Min(int64(1))),
		validation.Field(&h.ShutdownTimeout, validation.Min(time.Duration(0))),
		validation.Field(&h.CacheMaxAge, validation.Min(time.Duration(0))),
	)
}

func (d DatabaseConfig) Validate() error {
	needsHost := d.Driver != DriverSQLite && d.DSN == ""
	return validation.ValidateStruct(&d,
		validation.Field(&d.Driver, validation.Required, validation.In(DriverMySQL, DriverPostgres, DriverSQLite)),
		validation.Field(&d.Host, validation.When(needsHost, validation.Required, is.Host)),
		validation.Field(&d.Port, validation.When(needsHost, validation.Required, validation.Min(1), validation.Max(65535))),
		validation.Field(&d.User, validation.When(needsHost, validation.Required)),
		validation.Field(&d.Name, validation.When(needsHost, validation.Required)),
		validation.Field(&d.PoolSize, validation.Required, validation.Min(1)),
	)
}

func (l LogConfig) Validate() error {
	return validation.ValidateStruct(&l,
		validation.Field(&l.Level, validation.In("debug", "info", "warn", "error", "fatal")),
		validation.Field(&l.Format, validation.In("text", "json")),
	)
}

func (m MetricsConfig) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Exporter, validation.In(ExporterPrometheus, ExporterStdout, ExporterNone)),
	)
}
