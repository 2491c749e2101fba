// Package config provides Viper-based configuration loading for the dungeon
// server.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ServerConfig holds the websocket listener settings.
type ServerConfig struct {
	// Host is the bind address for the websocket listener.
	Host string `mapstructure:"host"`
	// Port is the TCP port for the websocket listener.
	Port int `mapstructure:"port"`
	// WriteTimeout is the per-frame write deadline.
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	// IdleTimeout is the duration of read inactivity after which a session
	// is treated as unresponsive and closed.
	IdleTimeout time.Duration `mapstructure:"idle_timeout"`
	// HandshakeTimeout is how long a new connection has to send its
	// connect frame.
	HandshakeTimeout time.Duration `mapstructure:"handshake_timeout"`
	// QueueSize is each session's outbound queue capacity.
	QueueSize int `mapstructure:"queue_size"`
	// CommandBuffer is the engine intake channel capacity.
	CommandBuffer int `mapstructure:"command_buffer"`
}

// Addr returns the "host:port" listen address.
//
// Postcondition: Returns a non-empty string in "host:port" format.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// GameConfig holds world and map-generation settings.
type GameConfig struct {
	// OverworldWidth, OverworldHeight are the overworld dimensions.
	OverworldWidth  int `mapstructure:"overworld_width"`
	OverworldHeight int `mapstructure:"overworld_height"`
	// DungeonWidth, DungeonHeight are the dungeon dimensions.
	DungeonWidth  int `mapstructure:"dungeon_width"`
	DungeonHeight int `mapstructure:"dungeon_height"`
	// OverworldSpawnX, OverworldSpawnY is the fixed overworld spawn.
	OverworldSpawnX int `mapstructure:"overworld_spawn_x"`
	OverworldSpawnY int `mapstructure:"overworld_spawn_y"`
	// DungeonSpawnX, DungeonSpawnY is the fixed dungeon spawn.
	DungeonSpawnX int `mapstructure:"dungeon_spawn_x"`
	DungeonSpawnY int `mapstructure:"dungeon_spawn_y"`
	// Seed makes map generation deterministic when non-zero.
	Seed int64 `mapstructure:"seed"`
	// MapFile optionally replaces the procedural overworld with a
	// hand-authored YAML map file.
	MapFile string `mapstructure:"map_file"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// Config is the top-level application configuration.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Game    GameConfig    `mapstructure:"game"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := validateServer(c.Server); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateGame(c.Game); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateServer(s ServerConfig) error {
	var errs []string
	if s.Port < 1 || s.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", s.Port))
	}
	if s.WriteTimeout < 0 {
		errs = append(errs, "server.write_timeout must not be negative")
	}
	if s.IdleTimeout < 0 {
		errs = append(errs, "server.idle_timeout must not be negative")
	}
	if s.HandshakeTimeout < 0 {
		errs = append(errs, "server.handshake_timeout must not be negative")
	}
	if s.QueueSize < 1 {
		errs = append(errs, fmt.Sprintf("server.queue_size must be >= 1, got %d", s.QueueSize))
	}
	if s.CommandBuffer < 1 {
		errs = append(errs, fmt.Sprintf("server.command_buffer must be >= 1, got %d", s.CommandBuffer))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateGame(g GameConfig) error {
	var errs []string
	if g.OverworldWidth < 1 || g.OverworldHeight < 1 {
		errs = append(errs, fmt.Sprintf("game overworld dimensions must be positive, got %dx%d", g.OverworldWidth, g.OverworldHeight))
	}
	if g.DungeonWidth < 1 || g.DungeonHeight < 1 {
		errs = append(errs, fmt.Sprintf("game dungeon dimensions must be positive, got %dx%d", g.DungeonWidth, g.DungeonHeight))
	}
	if g.OverworldWidth > 0 && g.OverworldHeight > 0 &&
		(g.OverworldSpawnX < 0 || g.OverworldSpawnX >= g.OverworldWidth ||
			g.OverworldSpawnY < 0 || g.OverworldSpawnY >= g.OverworldHeight) {
		errs = append(errs, fmt.Sprintf("game overworld spawn (%d,%d) outside %dx%d map",
			g.OverworldSpawnX, g.OverworldSpawnY, g.OverworldWidth, g.OverworldHeight))
	}
	if g.DungeonWidth > 0 && g.DungeonHeight > 0 &&
		(g.DungeonSpawnX < 0 || g.DungeonSpawnX >= g.DungeonWidth ||
			g.DungeonSpawnY < 0 || g.DungeonSpawnY >= g.DungeonHeight) {
		errs = append(errs, fmt.Sprintf("game dungeon spawn (%d,%d) outside %dx%d map",
			g.DungeonSpawnX, g.DungeonSpawnY, g.DungeonWidth, g.DungeonHeight))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

// Load reads configuration from the given file path, applies environment
// variable overrides, and validates the result.
//
// Precondition: path must be a valid file path to a YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Environment variable overrides with DUNGEON_ prefix
	v.SetEnvPrefix("DUNGEON")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
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
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.write_timeout", "10s")
	v.SetDefault("server.idle_timeout", "5m")
	v.SetDefault("server.handshake_timeout", "10s")
	v.SetDefault("server.queue_size", 64)
	v.SetDefault("server.command_buffer", 256)

	v.SetDefault("game.overworld_width", 60)
	v.SetDefault("game.overworld_height", 30)
	v.SetDefault("game.dungeon_width", 80)
	v.SetDefault("game.dungeon_height", 50)
	v.SetDefault("game.overworld_spawn_x", 30)
	v.SetDefault("game.overworld_spawn_y", 15)
	v.SetDefault("game.dungeon_spawn_x", 10)
	v.SetDefault("game.dungeon_spawn_y", 10)
	v.SetDefault("game.seed", 0)
	v.SetDefault("game.map_file", "")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}
