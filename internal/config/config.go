// Package config handles TOML configuration loading with environment variable substitution.
package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the root configuration structure.
type Config struct {
	Server     ServerConfig     `toml:"server"`
	Database   DatabaseConfig   `toml:"database"`
	Library    LibraryConfig    `toml:"library"`
	Cache      CacheConfig      `toml:"cache"`
	Progress   ProgressConfig   `toml:"progress"`
	Permission PermissionConfig `toml:"permission"`
	Log        LogConfig        `toml:"log"`
	Profile    ProfileConfig    `toml:"profile"`
	Events     EventsConfig     `toml:"events"`
}

type ServerConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	LogLevel string `toml:"log_level"`
}

type DatabaseConfig struct {
	Path string `toml:"path"`
}

type LibraryConfig struct {
	Root     string `toml:"root"`
	MaxDepth int    `toml:"max_depth"`
}

type CacheConfig struct {
	TTL time.Duration `toml:"ttl"`
	// RefreshInterval triggers background refreshes while serving; 0 disables.
	RefreshInterval time.Duration `toml:"refresh_interval"`
}

type ProgressConfig struct {
	Throttle time.Duration `toml:"throttle"`
}

type PermissionConfig struct {
	PollInterval time.Duration `toml:"poll_interval"`
}

// LogConfig controls the optional rotating log file.
type LogConfig struct {
	File       string `toml:"file"`
	MaxSize    int    `toml:"max_size"` // megabytes
	MaxBackups int    `toml:"max_backups"`
	MaxAge     int    `toml:"max_age"` // days
	Compress   bool   `toml:"compress"`
}

type ProfileConfig struct {
	Default string `toml:"default"`
}

// EventsConfig bounds the event log.
type EventsConfig struct {
	Retention time.Duration `toml:"retention"`
}

// Defaults
const (
	DefaultHost            = "127.0.0.1"
	DefaultPort            = 8585
	DefaultMaxDepth        = 3
	DefaultCacheTTL        = 5 * time.Minute
	DefaultRefreshInterval = 15 * time.Minute
	DefaultThrottle        = 5 * time.Second
	DefaultPollInterval    = 8 * time.Second
	DefaultEventRetention  = 30 * 24 * time.Hour
)

// Load reads, parses and validates the configuration file.
func Load(path string) (*Config, error) {
	cfg, missing, err := load(path)
	if err != nil {
		return nil, err
	}

	if err := (&ConfigError{Path: path, Missing: missing, Errors: cfg.Validate()}).orNil(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadWithoutValidation reads and parses the configuration file without
// validating it. Unresolved environment variables are left as written.
func LoadWithoutValidation(path string) (*Config, error) {
	cfg, _, err := load(path)
	return cfg, err
}

func load(path string) (*Config, []string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("reading config: %w", err)
	}

	content, missing := substituteEnvVars(string(data))

	var cfg Config
	if _, err := toml.Decode(content, &cfg); err != nil {
		return nil, nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.applyDefaults()
	return &cfg, missing, nil
}

// Default returns a configuration with every default applied.
func Default() *Config {
	var cfg Config
	cfg.applyDefaults()
	return &cfg
}

func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = DefaultHost
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = "info"
	}
	if c.Database.Path == "" {
		c.Database.Path = DefaultDatabasePath()
	}
	if c.Library.MaxDepth == 0 {
		c.Library.MaxDepth = DefaultMaxDepth
	}
	if c.Cache.TTL == 0 {
		c.Cache.TTL = DefaultCacheTTL
	}
	if c.Cache.RefreshInterval == 0 {
		c.Cache.RefreshInterval = DefaultRefreshInterval
	}
	if c.Progress.Throttle == 0 {
		c.Progress.Throttle = DefaultThrottle
	}
	if c.Permission.PollInterval == 0 {
		c.Permission.PollInterval = DefaultPollInterval
	}
	if c.Events.Retention == 0 {
		c.Events.Retention = DefaultEventRetention
	}
	if c.Log.File != "" {
		if c.Log.MaxSize == 0 {
			c.Log.MaxSize = 10
		}
		if c.Log.MaxBackups == 0 {
			c.Log.MaxBackups = 3
		}
		if c.Log.MaxAge == 0 {
			c.Log.MaxAge = 28
		}
	}
}

// envVarPattern matches ${VAR}, ${VAR:-default} and ${VAR:?message}.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?:(:-|:\?)([^}]*))?\}`)

// substituteEnvVars replaces environment references and returns the names
// (or "NAME: message" for :? references) that could not be resolved.
// Unresolved references are left unchanged.
func substituteEnvVars(content string) (string, []string) {
	var missing []string
	out := envVarPattern.ReplaceAllStringFunc(content, func(match string) string {
		m := envVarPattern.FindStringSubmatch(match)
		name, op, arg := m[1], m[2], m[3]
		value, ok := os.LookupEnv(name)

		switch op {
		case ":-":
			if !ok || value == "" {
				return arg
			}
			return value
		case ":?":
			if !ok || value == "" {
				missing = append(missing, name+": "+arg)
				return match
			}
			return value
		}
		if !ok {
			missing = append(missing, name)
			return match
		}
		return value
	})
	return out, missing
}
