// Package config provides Viper-based configuration loading for the tactics server.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/multierr"

	"github.com/DoyleJ11/grid-tactics-server/internal/engine"
)

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string `mapstructure:"addr"`
	// ShutdownTimeout bounds graceful shutdown of in-flight requests.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// GameConfig holds board geometry and the room every client lands in by default.
type GameConfig struct {
	BoardSize   int    `mapstructure:"board_size"`
	ZoneWidth   int    `mapstructure:"zone_width"`
	DefaultRoom string `mapstructure:"default_room"`
}

// Rules returns the engine rules for this geometry.
func (g GameConfig) Rules() engine.Rules {
	return engine.Rules{BoardSize: g.BoardSize, ZoneWidth: g.ZoneWidth}
}

type CatalogConfig struct {
	// Path is the skill catalog file, YAML or JSON.
	Path string `mapstructure:"path"`
}

type LobbyConfig struct {
	InboxSize  int `mapstructure:"inbox_size"`
	OutboxSize int `mapstructure:"outbox_size"`
}

type WSConfig struct {
	// ReadTimeout closes a connection that sends nothing for this long.
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	// OriginPatterns are extra origins allowed to open a websocket.
	OriginPatterns []string `mapstructure:"origin_patterns"`
}

// Config is the top-level application configuration.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Logging LoggingConfig `mapstructure:"logging"`
	Game    GameConfig    `mapstructure:"game"`
	Catalog CatalogConfig `mapstructure:"catalog"`
	Lobby   LobbyConfig   `mapstructure:"lobby"`
	WS      WSConfig      `mapstructure:"ws"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs error
	if c.Server.Addr == "" {
		errs = multierr.Append(errs, errors.New("server.addr must not be empty"))
	}
	if c.Server.ShutdownTimeout < 0 {
		errs = multierr.Append(errs, errors.New("server.shutdown_timeout must not be negative"))
	}
	errs = multierr.Append(errs, validateLogging(c.Logging))
	if err := c.Game.Rules().Validate(); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("game: %w", err))
	}
	if c.Game.DefaultRoom == "" {
		errs = multierr.Append(errs, errors.New("game.default_room must not be empty"))
	}
	if c.Catalog.Path == "" {
		errs = multierr.Append(errs, errors.New("catalog.path must not be empty"))
	}
	if c.Lobby.InboxSize < 1 {
		errs = multierr.Append(errs, fmt.Errorf("lobby.inbox_size must be >= 1, got %d", c.Lobby.InboxSize))
	}
	if c.Lobby.OutboxSize < 1 {
		errs = multierr.Append(errs, fmt.Errorf("lobby.outbox_size must be >= 1, got %d", c.Lobby.OutboxSize))
	}
	if c.WS.ReadTimeout <= 0 {
		errs = multierr.Append(errs, errors.New("ws.read_timeout must be positive"))
	}
	if c.WS.WriteTimeout <= 0 {
		errs = multierr.Append(errs, errors.New("ws.write_timeout must be positive"))
	}
	if errs != nil {
		return fmt.Errorf("configuration validation failed: %w", errs)
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	var errs error
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		errs = multierr.Append(errs, fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level))
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		errs = multierr.Append(errs, fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format))
	}
	return errs
}

// LoadEnvFile copies a dotenv file into the process environment so the
// TACTICS_ overrides below can come from it. A missing file is not an error.
func LoadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result. An empty path runs on defaults and
// environment alone.
//
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()

	// Environment variable overrides with TACTICS_ prefix
	v.SetEnvPrefix("TACTICS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
	}

	return LoadFromViper(v)
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("game.board_size", 10)
	v.SetDefault("game.zone_width", 3)
	v.SetDefault("game.default_room", "main")

	v.SetDefault("catalog.path", "configs/skills.yaml")

	v.SetDefault("lobby.inbox_size", 64)
	v.SetDefault("lobby.outbox_size", 32)

	v.SetDefault("ws.read_timeout", "10m")
	v.SetDefault("ws.write_timeout", "3s")
	v.SetDefault("ws.origin_patterns", []string{})
}
