// Package config loads MarketCraft settings.
//
// Settings are resolved in three layers: built-in defaults, an optional YAML
// file, then MARKETCRAFT_* environment variables. The result is checked
// against an embedded CUE schema before use.
package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

//go:embed schema.cue
var schemaCUE string

// EnvPrefix prefixes every environment override.
const EnvPrefix = "MARKETCRAFT_"

// Config is the full settings tree.
type Config struct {
	Storage Storage `yaml:"storage" json:"storage" envPrefix:"STORAGE_"`
	Limits  Limits  `yaml:"limits" json:"limits" envPrefix:"LIMITS_"`
	Log     Log     `yaml:"log" json:"log" envPrefix:"LOG_"`
}

// Storage selects the record backend.
type Storage struct {
	Driver string `yaml:"driver" json:"driver" env:"DRIVER"`
	Path   string `yaml:"path" json:"path" env:"PATH"`
}

// Limits caps what a single player may own.
type Limits struct {
	Shops int `yaml:"shops" json:"shops" env:"SHOPS"`
	Signs int `yaml:"signs" json:"signs" env:"SIGNS"`
}

// Log configures the process logger.
type Log struct {
	Level  string `yaml:"level" json:"level" env:"LEVEL"`
	Format string `yaml:"format" json:"format" env:"FORMAT"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Storage: Storage{Driver: "sqlite", Path: "marketcraft.db"},
		Limits:  Limits{Shops: 10, Signs: 10},
		Log:     Log{Level: "info", Format: "text"},
	}
}

// Load resolves settings from path (optional) and the process environment.
func Load(path string) (Config, error) {
	return LoadWith(path, env.ToMap(os.Environ()))
}

// LoadWith resolves settings from path (optional) and the given environment.
func LoadWith(path string, environ map[string]string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := decodeYAML(bytes.NewReader(data), &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := env.ParseWithOptions(&cfg, env.Options{
		Prefix:      EnvPrefix,
		Environment: environ,
	}); err != nil {
		return Config{}, fmt.Errorf("config environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// decodeYAML rejects unknown keys so typos surface instead of being ignored.
func decodeYAML(r io.Reader, cfg *Config) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
	return nil
}

// Validate checks the settings against the embedded CUE schema.
func (c Config) Validate() error {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("config schema: %w", err)
	}

	v := schema.LookupPath(cue.ParsePath("#Config")).Unify(ctx.Encode(c))
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// SlogLevel maps the configured level name to a slog level.
func (l Log) SlogLevel() slog.Level {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger builds a logger writing to w. verbose forces debug level.
func (l Log) NewLogger(w io.Writer, verbose bool) *slog.Logger {
	level := l.SlogLevel()
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if l.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
