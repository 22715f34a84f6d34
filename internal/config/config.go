// Package config handles configuration loading and management for Arbiter.
// It supports XDG config paths, project-level overrides, and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for Arbiter.
type Config struct {
	Run        RunConfig        `mapstructure:"run"`
	Delegation DelegationConfig `mapstructure:"delegation"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// RunConfig holds default values for task runs.
type RunConfig struct {
	// Timeout is the overall deadline for one task run.
	Timeout time.Duration `mapstructure:"timeout"`
	// EventBuffer is the event channel buffer size.
	EventBuffer int `mapstructure:"event_buffer"`
}

// DelegationConfig holds delegation failure handling settings.
type DelegationConfig struct {
	// MaxRetries is how many times a failed sub-task is retried.
	MaxRetries int `mapstructure:"max_retries"`
	// FallbackToDirect falls back to direct handling after retries.
	FallbackToDirect bool `mapstructure:"fallback_to_direct"`
}

// RedisConfig holds the optional remote event sink settings.
type RedisConfig struct {
	// Addr is the Redis address. Empty disables the remote sink.
	Addr string `mapstructure:"addr"`
	// Password is the Redis password, if any.
	Password string `mapstructure:"password"`
	// DB is the Redis database index.
	DB int `mapstructure:"db"`
}

// LoggingConfig holds debug logging settings.
type LoggingConfig struct {
	// DebugLog is the path of the debug log file. Empty disables it.
	DebugLog string `mapstructure:"debug_log"`
}

// Load loads configuration from XDG paths, project overrides, and environment variables.
// Precedence (highest to lowest):
// 1. Environment variables (ARBITER_REDIS_ADDR, ...)
// 2. Project config (.arbiter.yaml in current directory or parent)
// 3. User config (~/.config/arbiter/config.yaml)
// 4. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	// Load user config from XDG path
	userConfigDir := getUserConfigDir()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(userConfigDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading user config: %w", err)
		}
	}

	// Load project config if present
	projectConfig := findProjectConfig()
	if projectConfig != "" {
		projectViper := viper.New()
		projectViper.SetConfigFile(projectConfig)
		if err := projectViper.ReadInConfig(); err == nil {
			if err := v.MergeConfigMap(projectViper.AllSettings()); err != nil {
				return nil, fmt.Errorf("merging project config: %w", err)
			}
		}
	}

	// Environment variable overrides
	v.AutomaticEnv()
	v.BindEnv("redis.addr", "ARBITER_REDIS_ADDR")
	v.BindEnv("redis.password", "ARBITER_REDIS_PASSWORD")
	v.BindEnv("logging.debug_log", "ARBITER_DEBUG_LOG")

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.Redis.Addr = os.ExpandEnv(cfg.Redis.Addr)

	return cfg, nil
}

// LoadFromPath loads configuration from a specific path (for testing).
func LoadFromPath(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return cfg, nil
}

// GetUserConfigPath returns the path to the user config file.
func GetUserConfigPath() string {
	return filepath.Join(getUserConfigDir(), "config.yaml")
}

// GetProjectConfigPath returns the path to the project config file if it exists.
func GetProjectConfigPath() string {
	return findProjectConfig()
}

// setDefaults configures default values.
func setDefaults(v *viper.Viper) {
	// Run defaults
	v.SetDefault("run.timeout", "2m")
	v.SetDefault("run.event_buffer", 100)

	// Delegation defaults
	v.SetDefault("delegation.max_retries", 1)
	v.SetDefault("delegation.fallback_to_direct", true)

	// Redis sink disabled by default
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	// Logging defaults
	v.SetDefault("logging.debug_log", "")
}

// getUserConfigDir returns the XDG config directory for Arbiter.
func getUserConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "arbiter")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "arbiter")
	}
	return filepath.Join(home, ".config", "arbiter")
}

// findProjectConfig searches for .arbiter.yaml in the current directory and parents.
func findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		configPath := filepath.Join(cwd, ".arbiter.yaml")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(cwd)
		if parent == cwd {
			break
		}
		cwd = parent
	}

	return ""
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Run: RunConfig{
			Timeout:     2 * time.Minute,
			EventBuffer: 100,
		},
		Delegation: DelegationConfig{
			MaxRetries:       1,
			FallbackToDirect: true,
		},
		Redis: RedisConfig{},
		Logging: LoggingConfig{
			DebugLog: "",
		},
	}
}
