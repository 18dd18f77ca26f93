// ABOUTME: XDG-based data and config directory resolution for the pipeflow CLI.
// ABOUTME: Checks XDG_DATA_HOME / XDG_CONFIG_HOME, falls back to ~/.local/share/pipeflow and ~/.config/pipeflow.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/2389-research/pipeflow/config"
)

// defaultDataDir returns the default data directory for the edit journal.
// It checks XDG_DATA_HOME first, then falls back to ~/.local/share/pipeflow.
func defaultDataDir() (string, error) {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "pipeflow"), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}

	return filepath.Join(home, ".local", "share", "pipeflow"), nil
}

// defaultConfigDir returns the default config directory.
// It checks XDG_CONFIG_HOME first, then falls back to ~/.config/pipeflow.
func defaultConfigDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "pipeflow"), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}

	return filepath.Join(home, ".config", "pipeflow"), nil
}

// userConfigFile returns a config file from the user config dir, or "" when
// the working directory has its own config file or the user has none.
func userConfigFile() string {
	for _, name := range config.DefaultFiles {
		if _, err := os.Stat(name); err == nil {
			return ""
		}
	}
	dir, err := defaultConfigDir()
	if err != nil {
		return ""
	}
	for _, name := range config.DefaultFiles {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
