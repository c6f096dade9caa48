// Package config loads server configuration from a YAML file with
// environment-variable overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/spf13/viper"
)

// Config is the root server configuration.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Network NetworkConfig `mapstructure:"network"`
	Logging LoggingConfig `mapstructure:"logging"`
	Journal JournalConfig `mapstructure:"journal"`
}

// ServerConfig covers the simulation process itself.
type ServerConfig struct {
	// ListenAddr is the HTTP address the websocket endpoint binds to when
	// hosting.
	ListenAddr string `mapstructure:"listen_addr"`
	// TickRate is the simulation frequency in ticks per second.
	TickRate int `mapstructure:"tick_rate"`
}

// NetworkConfig selects the process's network role.
type NetworkConfig struct {
	// Mode is one of "none", "client", "server", "listen".
	Mode string `mapstructure:"mode"`
	// UpstreamURL is the host's websocket URL, required in client mode.
	UpstreamURL string `mapstructure:"upstream_url"`
	// JoinPassword gates incoming connections when hosting, and is presented
	// to the host when joining. Empty disables the check.
	JoinPassword string `mapstructure:"join_password"`
	// PlayerName is the name presented when joining a host.
	PlayerName string `mapstructure:"player_name"`
}

// LoggingConfig controls the zap logger.
type LoggingConfig struct {
	// Level is one of "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is "json" or "console".
	Format string `mapstructure:"format"`
}

// JournalConfig controls event recording.
type JournalConfig struct {
	// DSN is the Postgres connection string for the journal store; empty
	// keeps the journal in memory.
	DSN string `mapstructure:"dsn"`
	// Record starts the recorder at boot.
	Record bool `mapstructure:"record"`
}

// Load reads the configuration file at path, applying defaults and
// VOXELFORGE_* environment overrides. A missing file is not an error; the
// defaults and environment stand alone.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetDefault("server.listen_addr", ":8745")
	v.SetDefault("server.tick_rate", 20)
	v.SetDefault("network.mode", "none")
	v.SetDefault("network.player_name", "player")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("journal.record", false)

	v.SetEnvPrefix("VOXELFORGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Server.TickRate <= 0 {
		return fmt.Errorf("server.tick_rate must be positive, got %d", c.Server.TickRate)
	}
	switch c.Network.Mode {
	case "none", "client", "server", "listen":
	default:
		return fmt.Errorf("network.mode must be one of none, client, server, listen; got %q", c.Network.Mode)
	}
	if c.Network.Mode == "client" && c.Network.UpstreamURL == "" {
		return fmt.Errorf("network.upstream_url is required in client mode")
	}
	return nil
}
