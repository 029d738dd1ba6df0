// internal/config/validate.go
package config

import (
	"fmt"
	"os"
	"time"
)

var validLogLevels = map[string]bool{
	"debug": true, "info": true, "warn": true, "error": true, "": true,
}

// Throttle bounds for progress writes.
const (
	MinThrottle = 5 * time.Second
	MaxThrottle = 10 * time.Second
)

// Validate checks the configuration for errors.
// Returns a slice of error messages (empty if valid).
func (c *Config) Validate() []string {
	var errs []string

	// Library root is required and must be a directory
	if c.Library.Root == "" {
		errs = append(errs, "library.root: required")
	} else if info, err := os.Stat(c.Library.Root); err != nil {
		errs = append(errs, fmt.Sprintf("library.root: %q is not accessible: %v", c.Library.Root, err))
	} else if !info.IsDir() {
		errs = append(errs, fmt.Sprintf("library.root: %q is not a directory", c.Library.Root))
	}
	if c.Library.MaxDepth < 0 || c.Library.MaxDepth > 10 {
		errs = append(errs, fmt.Sprintf("library.max_depth: must be between 1 and 10, got %d", c.Library.MaxDepth))
	}

	// Server validation
	if c.Server.Port != 0 && (c.Server.Port < 1 || c.Server.Port > 65535) {
		errs = append(errs, fmt.Sprintf("server.port: must be between 1 and 65535, got %d", c.Server.Port))
	}
	if !validLogLevels[c.Server.LogLevel] {
		errs = append(errs, fmt.Sprintf("server.log_level: must be one of debug, info, warn, error; got %q", c.Server.LogLevel))
	}

	// Timing validation
	if c.Cache.TTL < 0 {
		errs = append(errs, fmt.Sprintf("cache.ttl: must not be negative, got %s", c.Cache.TTL))
	}
	if c.Cache.RefreshInterval < 0 {
		errs = append(errs, fmt.Sprintf("cache.refresh_interval: must not be negative, got %s", c.Cache.RefreshInterval))
	}
	if c.Progress.Throttle != 0 && (c.Progress.Throttle < MinThrottle || c.Progress.Throttle > MaxThrottle) {
		errs = append(errs, fmt.Sprintf("progress.throttle: must be between %s and %s, got %s", MinThrottle, MaxThrottle, c.Progress.Throttle))
	}
	if c.Permission.PollInterval != 0 && c.Permission.PollInterval < time.Second {
		errs = append(errs, fmt.Sprintf("permission.poll_interval: must be at least 1s, got %s", c.Permission.PollInterval))
	}

	// Log file validation
	if c.Events.Retention < 0 {
		errs = append(errs, "events.retention: must not be negative")
	}
	if c.Log.MaxSize < 0 || c.Log.MaxBackups < 0 || c.Log.MaxAge < 0 {
		errs = append(errs, "log: max_size, max_backups and max_age must not be negative")
	}

	return errs
}
