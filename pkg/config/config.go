// Package config loads strata's TOML configuration.
//
// A file is optional. Values absent from the file keep their defaults, and
// command-line flags override both:
//
//	[arrange]
//	maintain_mean = true
//	max_duration = "15s"
//	phase_budget = "3s"
//
//	[cache]
//	dir = "~/.cache/strata"
//	redis_addr = "localhost:6379"
//	ttl = "168h"
//
//	[server]
//	addr = ":8080"
//
//	[log]
//	level = "info"
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Config is the full configuration.
type Config struct {
	Arrange Arrange `toml:"arrange"`
	Cache   Cache   `toml:"cache"`
	Server  Server  `toml:"server"`
	Log     Log     `toml:"log"`
}

// Arrange holds engine options.
type Arrange struct {
	MaintainMean bool          `toml:"maintain_mean"`
	BatchWeights bool          `toml:"batch_weights"`
	MaxDuration  time.Duration `toml:"max_duration"`
	PhaseBudget  time.Duration `toml:"phase_budget"`
}

// Cache selects and tunes the cache backend. RedisAddr takes precedence
// over Dir; Disabled turns caching off entirely.
type Cache struct {
	Disabled  bool          `toml:"disabled"`
	Dir       string        `toml:"dir"`
	RedisAddr string        `toml:"redis_addr"`
	RedisDB   int           `toml:"redis_db"`
	Prefix    string        `toml:"prefix"`
	TTL       time.Duration `toml:"ttl"`
}

// Server holds HTTP server options.
type Server struct {
	Addr           string        `toml:"addr"`
	RequestTimeout time.Duration `toml:"request_timeout"`
	MaxBodyBytes   int64         `toml:"max_body_bytes"`
}

// Log holds logging options.
type Log struct {
	Level string `toml:"level"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Arrange: Arrange{
			MaxDuration: 15 * time.Second,
			PhaseBudget: 3 * time.Second,
		},
		Cache: Cache{
			Dir: defaultCacheDir(),
			TTL: 7 * 24 * time.Hour,
		},
		Server: Server{
			Addr:           ":8080",
			RequestTimeout: 30 * time.Second,
			MaxBodyBytes:   16 << 20,
		},
		Log: Log{Level: "info"},
	}
}

func defaultCacheDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "strata")
	}
	return filepath.Join(os.TempDir(), "strata-cache")
}

// Load reads the file at path over the defaults. An empty path returns the
// defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	return Parse(data, cfg)
}

// Parse decodes TOML data over base and validates the result. Unknown keys
// are rejected so typos do not go unnoticed.
func Parse(data []byte, base Config) (Config, error) {
	cfg := base
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return base, fmt.Errorf("parse config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return base, fmt.Errorf("%w: unknown key %q", ErrInvalid, undecoded[0].String())
	}
	if err := cfg.Validate(); err != nil {
		return base, err
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c Config) Validate() error {
	if c.Arrange.MaxDuration <= 0 {
		return fmt.Errorf("%w: arrange.max_duration must be positive", ErrInvalid)
	}
	if c.Arrange.PhaseBudget <= 0 {
		return fmt.Errorf("%w: arrange.phase_budget must be positive", ErrInvalid)
	}
	if c.Cache.TTL < 0 {
		return fmt.Errorf("%w: cache.ttl must not be negative", ErrInvalid)
	}
	if c.Server.MaxBodyBytes <= 0 {
		return fmt.Errorf("%w: server.max_body_bytes must be positive", ErrInvalid)
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: log.level: %v", ErrInvalid, err)
	}
	return nil
}

// LogLevel returns the parsed log level, falling back to info.
func (c Config) LogLevel() log.Level {
	lvl, err := log.ParseLevel(c.Log.Level)
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}

// Write encodes c as TOML.
func (c Config) Write(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}
