// Package xdg provides XDG Base Directory Specification compliant paths
package xdg

import (
	"os"
	"path/filepath"
)

const appDir = "pterodactyl-git-webhook"

// ConfigDir returns the XDG config directory for the service
// Priority: XDG_CONFIG_HOME > ~/.config/pterodactyl-git-webhook
func ConfigDir() (string, error) {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, appDir), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".config", appDir), nil
}

// DataDir returns the XDG data directory for the service
// Priority: XDG_DATA_HOME > ~/.local/share/pterodactyl-git-webhook
func DataDir() (string, error) {
	if xdgData := os.Getenv("XDG_DATA_HOME"); xdgData != "" {
		return filepath.Join(xdgData, appDir), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".local", "share", appDir), nil
}
