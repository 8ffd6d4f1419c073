// Package config loads the fpbviz application configuration.
//
// Configuration comes from an optional TOML file plus flag overrides
// applied by the CLI. Every field has a working default so a bare
// `fpbviz serve` runs without any file present.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/fpbviz/fpbviz/pkg/errors"
	"github.com/fpbviz/fpbviz/pkg/layout"
)

// Config is the complete application configuration.
type Config struct {
	Server  Server        `toml:"server"`
	Cache   Cache         `toml:"cache"`
	Store   Store         `toml:"store"`
	Session Session       `toml:"session"`
	Layout  layout.Config `toml:"layout"`
}

// Server configures the HTTP API.
type Server struct {
	// Addr is the listen address, host:port.
	Addr string `toml:"addr"`

	// CORSOrigins lists allowed CORS origins for the editor frontend.
	CORSOrigins []string `toml:"cors_origins"`
}

// Cache configures the pipeline result cache.
type Cache struct {
	// Backend selects the cache implementation: "none", "file" or
	// "redis".
	Backend string `toml:"backend"`

	// Dir is the cache directory for the file backend.
	Dir string `toml:"dir"`

	// RedisAddr is the Redis address for the redis backend.
	RedisAddr string `toml:"redis_addr"`

	// RedisPassword is the Redis password, if any.
	RedisPassword string `toml:"redis_password"`

	// RedisDB is the Redis database number.
	RedisDB int `toml:"redis_db"`
}

// Store configures document persistence.
type Store struct {
	// Backend selects the store implementation: "file" or "mongo".
	Backend string `toml:"backend"`

	// Dir is the document directory for the file backend.
	Dir string `toml:"dir"`

	// MongoURI is the MongoDB connection string for the mongo backend.
	MongoURI string `toml:"mongo_uri"`

	// MongoDatabase is the database name.
	MongoDatabase string `toml:"mongo_database"`

	// MongoCollection is the collection name.
	MongoCollection string `toml:"mongo_collection"`
}

// Session configures the editing-session store.
type Session struct {
	// Backend selects the session store: "memory", "file" or "redis".
	Backend string `toml:"backend"`

	// Dir is the session directory for the file backend.
	Dir string `toml:"dir"`

	// RedisAddr is the Redis address for the redis backend.
	RedisAddr string `toml:"redis_addr"`

	// RedisPassword is the Redis password, if any.
	RedisPassword string `toml:"redis_password"`

	// RedisDB is the Redis database number.
	RedisDB int `toml:"redis_db"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Server: Server{
			Addr:        "localhost:8080",
			CORSOrigins: []string{"http://localhost:5173"},
		},
		Cache: Cache{
			Backend:   "file",
			RedisAddr: "localhost:6379",
		},
		Store: Store{
			Backend:         "file",
			MongoURI:        "mongodb://localhost:27017",
			MongoDatabase:   "fpbviz",
			MongoCollection: "documents",
		},
		Session: Session{
			Backend:   "memory",
			RedisAddr: "localhost:6379",
		},
		Layout: layout.DefaultConfig(),
	}
}

// Load reads the config file at path, layered over the defaults.
// A missing file is not an error; the defaults are returned as-is.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read config %s", path)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse config %s", path)
	}

	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Cache.Backend {
	case "", "none", "file", "redis":
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "unknown cache backend: %q", c.Cache.Backend)
	}
	switch c.Store.Backend {
	case "", "file", "mongo":
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "unknown store backend: %q", c.Store.Backend)
	}
	switch c.Session.Backend {
	case "", "memory", "file", "redis":
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "unknown session backend: %q", c.Session.Backend)
	}
	return nil
}

// DefaultPath returns the standard config file location,
// ~/.config/fpbviz/config.toml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return home + "/.config/fpbviz/config.toml", nil
}
