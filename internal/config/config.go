// Package config loads familytree settings.
//
// Settings are layered, later layers winning:
//
//  1. built-in defaults
//  2. a TOML file (familytree.toml in the working directory, or --config)
//  3. a .env file in the working directory
//  4. FAMILYTREE_* environment variables
//  5. command-line flags (applied by the cli package)
//
// Example file:
//
//	[server]
//	addr = ":8080"
//	shutdown_timeout = "10s"
//
//	[source]
//	location = "https://example.com/tree.json"
//	fetch_timeout = "30s"
//
//	[layout]
//	column_width = 100
//	row_height = 100
//
//	[cache]
//	backend = "redis"
//	redis_addr = "localhost:6379"
package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/matzehuels/familytree/pkg/cache"
	ferrors "github.com/matzehuels/familytree/pkg/errors"
	"github.com/matzehuels/familytree/pkg/layout"
)

const (
	// AppName names directories and the default config file.
	AppName = "familytree"

	// DefaultFile is read when no config path is given and it exists.
	DefaultFile = AppName + ".toml"

	// DefaultAddr is the server listen address.
	DefaultAddr = ":8080"
)

// Cache backends.
const (
	CacheNone  = "none"
	CacheFile  = "file"
	CacheRedis = "redis"
)

// Duration is a time.Duration decoded from strings like "30s".
type Duration time.Duration

// UnmarshalText parses a Go duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// MarshalText formats the duration.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Config is the complete settings tree.
type Config struct {
	Server ServerConfig   `toml:"server"`
	Source SourceConfig   `toml:"source"`
	Layout layout.Options `toml:"layout"`
	Cache  CacheConfig    `toml:"cache"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Addr            string   `toml:"addr"`
	ReadTimeout     Duration `toml:"read_timeout"`
	WriteTimeout    Duration `toml:"write_timeout"`
	ShutdownTimeout Duration `toml:"shutdown_timeout"`
}

// SourceConfig locates the tree document.
type SourceConfig struct {
	// Location is a URL, file path, mongodb:// URI or sqlite:path.
	Location string `toml:"location"`

	// FetchTimeout bounds the single fetch. Zero means no timeout.
	FetchTimeout Duration `toml:"fetch_timeout"`

	// Headers are sent with HTTP fetches, e.g. Authorization.
	Headers map[string]string `toml:"headers"`
}

// CacheConfig selects the artifact cache.
type CacheConfig struct {
	Backend       string `toml:"backend"`
	Dir           string `toml:"dir"`
	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`
	Prefix        string `toml:"prefix"`
}

// Default returns the built-in settings.
func Default() *Config {
	cfg := &Config{
		Server: ServerConfig{
			Addr:            DefaultAddr,
			ReadTimeout:     Duration(15 * time.Second),
			WriteTimeout:    Duration(60 * time.Second),
			ShutdownTimeout: Duration(10 * time.Second),
		},
		Cache: CacheConfig{
			Backend: CacheFile,
		},
	}
	cfg.Layout.SetDefaults()
	return cfg
}

// Load builds the configuration from path (or DefaultFile if path is empty
// and the file exists), the .env file and the environment.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		if _, err := os.Stat(DefaultFile); err == nil {
			path = DefaultFile
		}
	}
	if path != "" {
		if err := cfg.ReadFile(path); err != nil {
			return nil, err
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

// ReadFile decodes a TOML file over the current values.
func (c *Config) ReadFile(path string) error {
	md, err := toml.DecodeFile(path, c)
	if err != nil {
		return ferrors.Wrap(ferrors.ErrCodeInvalidInput, err, "read config %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return ferrors.New(ferrors.ErrCodeInvalidInput, "unknown config key %q in %s", undecoded[0].String(), path)
	}
	return nil
}

// ApplyEnv overrides settings from FAMILYTREE_* variables. PORT is honored
// when FAMILYTREE_ADDR is unset, and FAMILYTREE_MONGO_URI is used as the
// source when no source is configured.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	get := func(k string) string {
		v, _ := lookup(k)
		return v
	}

	if v := get("FAMILYTREE_ADDR"); v != "" {
		c.Server.Addr = v
	} else if v := get("PORT"); v != "" {
		c.Server.Addr = ":" + v
	}
	if v := get("FAMILYTREE_SOURCE"); v != "" {
		c.Source.Location = v
	} else if v := get("FAMILYTREE_MONGO_URI"); v != "" && c.Source.Location == "" {
		c.Source.Location = v
	}
	if v := get("FAMILYTREE_FETCH_TIMEOUT"); v != "" {
		if err := c.Source.FetchTimeout.UnmarshalText([]byte(v)); err != nil {
			return ferrors.Wrap(ferrors.ErrCodeInvalidInput, err, "FAMILYTREE_FETCH_TIMEOUT")
		}
	}
	if v := get("FAMILYTREE_CACHE"); v != "" {
		c.Cache.Backend = v
	}
	if v := get("FAMILYTREE_CACHE_DIR"); v != "" {
		c.Cache.Dir = v
	}
	if v := get("FAMILYTREE_CACHE_PREFIX"); v != "" {
		c.Cache.Prefix = v
	}
	if v := get("FAMILYTREE_REDIS_ADDR"); v != "" {
		c.Cache.RedisAddr = v
		if get("FAMILYTREE_CACHE") == "" {
			c.Cache.Backend = CacheRedis
		}
	}
	if v := get("FAMILYTREE_REDIS_PASSWORD"); v != "" {
		c.Cache.RedisPassword = v
	}
	if v := get("FAMILYTREE_REDIS_DB"); v != "" {
		db, err := strconv.Atoi(v)
		if err != nil {
			return ferrors.Wrap(ferrors.ErrCodeInvalidInput, err, "FAMILYTREE_REDIS_DB")
		}
		c.Cache.RedisDB = db
	}
	return nil
}

// Validate checks the settings.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return ferrors.New(ferrors.ErrCodeInvalidInput, "server address cannot be empty")
	}
	if c.Source.FetchTimeout < 0 {
		return ferrors.New(ferrors.ErrCodeInvalidInput, "fetch timeout must not be negative")
	}
	if err := c.Layout.Validate(); err != nil {
		return err
	}
	switch c.Cache.Backend {
	case CacheNone, CacheFile:
	case CacheRedis:
		if c.Cache.RedisAddr == "" {
			return ferrors.New(ferrors.ErrCodeInvalidInput, "redis cache requires redis_addr")
		}
	default:
		return ferrors.New(ferrors.ErrCodeInvalidInput,
			"invalid cache backend %q (must be one of: none, file, redis)", c.Cache.Backend)
	}
	return nil
}

// OpenCache creates the configured cache backend.
func (c CacheConfig) OpenCache(ctx context.Context) (cache.Cache, error) {
	switch c.Backend {
	case CacheRedis:
		return cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:     c.RedisAddr,
			Password: c.RedisPassword,
			DB:       c.RedisDB,
		})
	case CacheFile:
		dir := c.Dir
		if dir == "" {
			d, err := CacheDir()
			if err != nil {
				return cache.NewNullCache(), nil
			}
			dir = d
		}
		return cache.NewFileCache(dir)
	default:
		return cache.NewNullCache(), nil
	}
}

// Keyer returns the cache keyer, scoped when a prefix is configured.
func (c CacheConfig) Keyer() cache.Keyer {
	if c.Prefix == "" {
		return cache.NewDefaultKeyer()
	}
	return cache.NewScopedKeyer(nil, c.Prefix)
}

// CacheDir returns the cache directory using XDG standard (~/.cache/familytree/).
func CacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, AppName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", AppName), nil
}
