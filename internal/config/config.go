// Package config provides Viper-based configuration loading for the arena
// game server.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// HTTPConfig holds the HTTP listener and CORS settings.
type HTTPConfig struct {
	// Host is the bind address for the HTTP listener.
	Host string `mapstructure:"host"`
	// Port is the TCP port for the HTTP listener.
	Port int `mapstructure:"port"`
	// AllowedOrigins is the CORS origin allow-list. "*" allows any origin
	// and is rejected in production.
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	// Production tightens the origin policy: wildcard origins are refused.
	Production bool `mapstructure:"production"`
	// ShutdownTimeout bounds graceful HTTP shutdown.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Addr returns the "host:port" listen address.
//
// Postcondition: Returns a non-empty string in "host:port" format.
func (h HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", h.Host, h.Port)
}

// TransportConfig holds WebSocket connection settings.
type TransportConfig struct {
	// HeartbeatInterval is how often clients are expected to heartbeat.
	HeartbeatInterval time.Duration `mapstructure:"heartbeat_interval"`
	// IdleTimeout is the transport-level read deadline.
	IdleTimeout time.Duration `mapstructure:"idle_timeout"`
	// SendQueueSize bounds the per-connection outbound queue; a connection
	// whose queue overflows is considered slow and dropped.
	SendQueueSize int `mapstructure:"send_queue_size"`
	// ReaperInterval is how often the stale-connection reaper runs.
	ReaperInterval time.Duration `mapstructure:"reaper_interval"`
	// StaleAfter is the heartbeat age past which a connection is evicted.
	StaleAfter time.Duration `mapstructure:"stale_after"`
	// MaxMessageBytes bounds a single inbound frame.
	MaxMessageBytes int64 `mapstructure:"max_message_bytes"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// GameConfig holds gameplay content settings.
type GameConfig struct {
	// EnemyCatalogPath optionally points at a YAML tuning override for the
	// enemy catalog. Empty means built-in defaults.
	EnemyCatalogPath string `mapstructure:"enemy_catalog_path"`
}

// Config is the top-level application configuration.
type Config struct {
	HTTP      HTTPConfig      `mapstructure:"http"`
	Transport TransportConfig `mapstructure:"transport"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Game      GameConfig      `mapstructure:"game"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error
// describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := validateHTTP(c.HTTP); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateTransport(c.Transport); err != nil {
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

func validateHTTP(h HTTPConfig) error {
	var errs []string
	if h.Port < 1 || h.Port > 65535 {
		errs = append(errs, fmt.Sprintf("http.port must be 1-65535, got %d", h.Port))
	}
	if len(h.AllowedOrigins) == 0 {
		errs = append(errs, "http.allowed_origins must not be empty")
	}
	if h.Production {
		for _, origin := range h.AllowedOrigins {
			if origin == "*" {
				errs = append(errs, "http.allowed_origins must not contain \"*\" in production")
			}
		}
	}
	if h.ShutdownTimeout < 0 {
		errs = append(errs, "http.shutdown_timeout must not be negative")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateTransport(t TransportConfig) error {
	var errs []string
	if t.HeartbeatInterval <= 0 {
		errs = append(errs, "transport.heartbeat_interval must be positive")
	}
	if t.IdleTimeout <= 0 {
		errs = append(errs, "transport.idle_timeout must be positive")
	}
	if t.SendQueueSize < 1 {
		errs = append(errs, fmt.Sprintf("transport.send_queue_size must be >= 1, got %d", t.SendQueueSize))
	}
	if t.ReaperInterval <= 0 {
		errs = append(errs, "transport.reaper_interval must be positive")
	}
	if t.StaleAfter <= t.HeartbeatInterval {
		errs = append(errs, "transport.stale_after must exceed transport.heartbeat_interval")
	}
	if t.MaxMessageBytes < 1 {
		errs = append(errs, fmt.Sprintf("transport.max_message_bytes must be >= 1, got %d", t.MaxMessageBytes))
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

// Load reads configuration from the given file path (optional), applies
// environment variable overrides, and validates the result.
//
// Precondition: path, when non-empty, must be a readable YAML file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()

	// Environment variable overrides with ARENA_ prefix.
	v.SetEnvPrefix("ARENA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Deployment platforms conventionally inject the bare PORT variable.
	_ = v.BindEnv("http.port", "ARENA_HTTP_PORT", "PORT")

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
	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 8080)
	v.SetDefault("http.allowed_origins", []string{"*"})
	v.SetDefault("http.production", false)
	v.SetDefault("http.shutdown_timeout", "10s")

	v.SetDefault("transport.heartbeat_interval", "5s")
	v.SetDefault("transport.idle_timeout", "15s")
	v.SetDefault("transport.send_queue_size", 256)
	v.SetDefault("transport.reaper_interval", "30s")
	v.SetDefault("transport.stale_after", "60s")
	v.SetDefault("transport.max_message_bytes", 65536)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("game.enemy_catalog_path", "")
}
