// internal/config/discover.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// EnvConfig names the environment variable that points at a config file.
const EnvConfig = "REELSHELF_CONFIG"

func xdgDir(env, fallback string) (string, bool) {
	if dir := os.Getenv(env); dir != "" {
		return dir, true
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", false
	}
	return filepath.Join(home, fallback), true
}

// DefaultPath returns the XDG config location, $XDG_CONFIG_HOME/reelshelf/config.toml.
func DefaultPath() string {
	dir, ok := xdgDir("XDG_CONFIG_HOME", ".config")
	if !ok {
		return "./config.toml"
	}
	return filepath.Join(dir, "reelshelf", "config.toml")
}

// DefaultDatabasePath returns $XDG_DATA_HOME/reelshelf/reelshelf.db, or a path
// under ./data when no home directory is known.
func DefaultDatabasePath() string {
	dir, ok := xdgDir("XDG_DATA_HOME", filepath.Join(".local", "share"))
	if !ok {
		return filepath.Join("data", "reelshelf.db")
	}
	return filepath.Join(dir, "reelshelf", "reelshelf.db")
}

// SearchPaths lists the locations Discover checks after REELSHELF_CONFIG.
func SearchPaths() []string {
	return []string{
		"./config.toml",
		DefaultPath(),
		"/etc/reelshelf/config.toml",
	}
}

// Discover finds the config file. REELSHELF_CONFIG wins when set and must
// exist; otherwise the first existing entry of SearchPaths is returned.
func Discover() (string, error) {
	if envPath := os.Getenv(EnvConfig); envPath != "" {
		if _, err := os.Stat(envPath); err != nil {
			return "", fmt.Errorf("%s=%s: %w", EnvConfig, envPath, err)
		}
		return envPath, nil
	}

	paths := SearchPaths()
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", fmt.Errorf("config not found, checked: %s", strings.Join(paths, ", "))
}
