// Package config provides configuration management for the progressio CLI.
package config

import (
	"os"
	"path/filepath"
)

// FileName is the name of the configuration file inside Dir.
const FileName = "config.yaml"

// Dir returns the progressio config directory.
// Uses XDG_CONFIG_HOME/progressio, defaulting to ~/.config/progressio.
func Dir() (string, error) {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "progressio"), nil
}

// Path returns the full path of the configuration file.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, FileName), nil
}
