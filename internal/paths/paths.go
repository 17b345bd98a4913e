// Package paths resolves where clientdb keeps its configuration and its
// database file.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// AppName is the directory name used under the platform config/data roots.
const AppName = "clientdb"

// Environment variable names for directory overrides.
const (
	EnvConfigDir = "CLIENTDB_CONFIG_DIR"
	EnvDataDir   = "CLIENTDB_DATA_DIR"
)

// platformDir holds platform-detection functions that can be overridden in tests.
var platformDir = struct {
	goos          string
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
}{
	goos:          runtime.GOOS,
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
}

// DefaultConfigDir returns the platform-specific default configuration directory.
//
// Linux:   $XDG_CONFIG_HOME/clientdb (fallback ~/.config/clientdb)
// macOS:   ~/Library/Application Support/clientdb
// Windows: %APPDATA%/clientdb
func DefaultConfigDir() (string, error) {
	return xdgOrUserConfig("XDG_CONFIG_HOME", ".config")
}

// DefaultDataDir returns the platform-specific default data directory.
//
// Linux:   $XDG_DATA_HOME/clientdb (fallback ~/.local/share/clientdb)
// macOS:   ~/Library/Application Support/clientdb
// Windows: %APPDATA%/clientdb
func DefaultDataDir() (string, error) {
	return xdgOrUserConfig("XDG_DATA_HOME", filepath.Join(".local", "share"))
}

// xdgOrUserConfig applies the XDG lookup on Linux and os.UserConfigDir
// elsewhere.
func xdgOrUserConfig(xdgVar, homeFallback string) (string, error) {
	if platformDir.goos != "linux" {
		dir, err := platformDir.userConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, AppName), nil
	}
	if xdg := os.Getenv(xdgVar); xdg != "" {
		return filepath.Join(xdg, AppName), nil
	}
	home, err := platformDir.homeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, homeFallback, AppName), nil
}

// ResolveConfigDir returns the configuration directory following the precedence
// chain: flag > CLIENTDB_CONFIG_DIR env > DefaultConfigDir().
func ResolveConfigDir(flag string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if env := os.Getenv(EnvConfigDir); env != "" {
		return filepath.Abs(env)
	}
	return DefaultConfigDir()
}

// ResolveDataDir returns the data directory following the precedence chain:
// flag > configYAMLValue > CLIENTDB_DATA_DIR env > DefaultDataDir().
func ResolveDataDir(flag, configYAMLValue string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if configYAMLValue != "" {
		return filepath.Abs(configYAMLValue)
	}
	if env := os.Getenv(EnvDataDir); env != "" {
		return filepath.Abs(env)
	}
	return DefaultDataDir()
}
