package cache

import (
	"time"

	"github.com/goliatone/go-blog/internal/cacheinfra"
)

// Backend selects the store implementation.
type Backend string

const (
	BackendRedis  Backend = "redis"
	BackendMemory Backend = "memory"
	BackendNone   Backend = "none"
)

// ConfigError represents a configuration validation error.
type ConfigError = cacheinfra.ConfigError

// Config exposes cache configuration options for consumers of the cache package.
type Config struct {
	Backend  Backend
	Prefix   string
	RedisURL string

	// ListTTL applies to article list pages without a search term.
	ListTTL time.Duration
	// SearchTTL applies to list pages filtered by a search term.
	SearchTTL time.Duration
	TagsTTL   time.Duration

	Memory MemoryConfig
}

// MemoryConfig mirrors the underlying sturdyc sizing options.
type MemoryConfig struct {
	Capacity           int
	NumShards          int
	MaxTTL             time.Duration
	EvictionPercentage int
	EvictionInterval   time.Duration
}

// DefaultConfig returns a Config populated with sensible defaults.
func DefaultConfig() Config {
	mem := cacheinfra.DefaultMemoryConfig()
	return Config{
		Backend:   BackendRedis,
		Prefix:    DefaultPrefix,
		RedisURL:  "redis://localhost:6379",
		ListTTL:   300 * time.Second,
		SearchTTL: 60 * time.Second,
		TagsTTL:   300 * time.Second,
		Memory: MemoryConfig{
			Capacity:           mem.Capacity,
			NumShards:          mem.NumShards,
			MaxTTL:             mem.TTL,
			EvictionPercentage: mem.EvictionPercentage,
			EvictionInterval:   mem.EvictionInterval,
		},
	}
}

// Validate checks whether the configuration values are valid.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendRedis:
		if c.RedisURL == "" {
			return &ConfigError{Field: "RedisURL", Message: "is required for the redis backend"}
		}
	case BackendMemory:
		if err := c.memoryConfig().Validate(); err != nil {
			return err
		}
	case BackendNone:
	default:
		return &ConfigError{Field: "Backend", Message: "must be one of redis, memory, none"}
	}

	if c.ListTTL <= 0 {
		return &ConfigError{Field: "ListTTL", Message: "must be greater than 0"}
	}
	if c.SearchTTL <= 0 {
		return &ConfigError{Field: "SearchTTL", Message: "must be greater than 0"}
	}
	if c.TagsTTL <= 0 {
		return &ConfigError{Field: "TagsTTL", Message: "must be greater than 0"}
	}
	return nil
}

// NewStore constructs the backend selected by cfg.Backend.
func NewStore(cfg Config) (Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.Backend {
	case BackendRedis:
		store, err := cacheinfra.NewRedisStore(cacheinfra.RedisConfig{URL: cfg.RedisURL})
		if err != nil {
			return nil, err
		}
		return store, nil
	case BackendMemory:
		store, err := cacheinfra.NewMemoryStore(cfg.memoryConfig())
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return cacheinfra.NewNoopStore(), nil
	}
}

func (c Config) memoryConfig() cacheinfra.MemoryConfig {
	return cacheinfra.MemoryConfig{
		Capacity:           c.Memory.Capacity,
		NumShards:          c.Memory.NumShards,
		TTL:                c.Memory.MaxTTL,
		EvictionPercentage: c.Memory.EvictionPercentage,
		EvictionInterval:   c.Memory.EvictionInterval,
	}
}
