// Package config loads user defaults for the nunet CLI and server.
//
// The file lives at $XDG_CONFIG_HOME/nunet/config.toml (falling back to
// ~/.config/nunet/config.toml). A missing file is not an error: [Default]
// is used. Keys present in the file override the defaults, unknown keys are
// rejected, and the merged result is validated.
//
//	[network]
//	name = "Example"
//	learning_rate = 0.05
//	format = "python"
//
//	[synapse]
//	interval = 0.1
//	min = -1.0
//	max = 1.0
//	bias = true
//
//	[storage]
//	backend = "sqlite"
//	dsn = "/home/me/.local/share/nunet/designs.db"
//
//	[cache]
//	ttl = "168h"
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"

	"github.com/matzehuels/nunet/pkg/codegen"
	"github.com/matzehuels/nunet/pkg/errors"
)

const appName = "nunet"

// Config is the merged user configuration.
type Config struct {
	Network NetworkConfig `toml:"network"`
	Synapse SynapseConfig `toml:"synapse"`
	Storage StorageConfig `toml:"storage"`
	Cache   CacheConfig   `toml:"cache"`
	Server  ServerConfig  `toml:"server"`
}

// NetworkConfig holds code generation defaults.
type NetworkConfig struct {
	Name         string  `toml:"name" validate:"required,identifier"`
	LearningRate float64 `toml:"learning_rate" validate:"gt=0"`
	Format       string  `toml:"format" validate:"oneof=python json"`
}

// SynapseConfig is the initialization range and bias given to synapses
// created without explicit values.
type SynapseConfig struct {
	Interval float64 `toml:"interval" validate:"gt=0"`
	Min      float64 `toml:"min"`
	Max      float64 `toml:"max" validate:"gtefield=Min"`
	Bias     bool    `toml:"bias"`
}

// StorageConfig selects the design store used by the store commands and
// the server. DSN is a directory for "file", a database path for "sqlite"
// and a URL for "redis" and "mongo".
type StorageConfig struct {
	Backend string `toml:"backend" validate:"oneof=file sqlite redis mongo"`
	DSN     string `toml:"dsn"`
}

// CacheConfig controls the generation cache.
type CacheConfig struct {
	Disabled bool          `toml:"disabled"`
	TTL      time.Duration `toml:"ttl" validate:"gte=0"`
	RedisURL string        `toml:"redis_url" validate:"omitempty,url"`
}

// ServerConfig holds API server settings. An empty SessionDir keeps
// sessions in memory.
type ServerConfig struct {
	Addr       string        `toml:"addr" validate:"required,hostname_port"`
	SessionTTL time.Duration `toml:"session_ttl" validate:"gt=0"`
	SessionDir string        `toml:"session_dir"`
}

var validate *validator.Validate

func init() {
	validate = validator.New()
	_ = validate.RegisterValidation("identifier", func(fl validator.FieldLevel) bool {
		return codegen.IsIdentifier(fl.Field().String())
	})
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Network: NetworkConfig{
			Name:         "Network",
			LearningRate: codegen.DefaultLearningRate,
			Format:       string(codegen.FormatPython),
		},
		Synapse: SynapseConfig{Interval: 0.1, Min: -1, Max: 1, Bias: true},
		Storage: StorageConfig{Backend: "file"},
		Cache:   CacheConfig{TTL: 7 * 24 * time.Hour},
		Server:  ServerConfig{Addr: "127.0.0.1:8080", SessionTTL: 2 * time.Hour},
	}
}

// Dir returns the configuration directory.
func Dir() (string, error) {
	if home := os.Getenv("XDG_CONFIG_HOME"); home != "" {
		return filepath.Join(home, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName), nil
}

// Path returns the default configuration file path.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// DataDir returns the directory for locally stored designs
// ($XDG_DATA_HOME/nunet, falling back to ~/.local/share/nunet).
func DataDir() (string, error) {
	if home := os.Getenv("XDG_DATA_HOME"); home != "" {
		return filepath.Join(home, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "share", appName), nil
}

// CacheDir returns the cache directory ($XDG_CACHE_HOME/nunet, falling
// back to ~/.cache/nunet).
func CacheDir() (string, error) {
	if home := os.Getenv("XDG_CACHE_HOME"); home != "" {
		return filepath.Join(home, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// Load reads the configuration at path, or at [Path] when path is empty.
// An explicitly named file must exist; the default file may be absent.
// Failures are INVALID_INPUT.
func Load(path string) (Config, error) {
	cfg := Default()
	explicit := path != ""
	if !explicit {
		p, err := Path()
		if err != nil {
			return cfg, nil
		}
		path = p
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return cfg, nil
		}
		return Config{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "read config %s", path)
	}
	if err := Decode(string(data), &cfg); err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "config %s", path)
	}
	return cfg, nil
}

// Decode parses TOML into cfg, keeping values for absent keys, then
// validates the result.
func Decode(data string, cfg *Config) error {
	md, err := toml.Decode(data, cfg)
	if err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
	}
	return cfg.Validate()
}

// Validate checks every field constraint.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid: %w", err)
	}
	return nil
}
