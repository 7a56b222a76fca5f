package config

import (
	"os"
	"path/filepath"
)

const (
	// EnvConfigPath is the environment variable for an explicit config path.
	EnvConfigPath = "KRUNCH_CONFIG"
	// ConfigFileName is the config file name looked up in the working
	// directory.
	ConfigFileName = "krunch.yaml"
	// DirName is the directory name under the XDG base directories.
	DirName = "krunch"
)

// FindConfigPath returns the first existing config file in priority order,
// or "" if there is none.
func FindConfigPath() string {
	if path := os.Getenv(EnvConfigPath); path != "" {
		if fileExists(path) {
			return path
		}
	}

	if fileExists(ConfigFileName) {
		if abs, err := filepath.Abs(ConfigFileName); err == nil {
			return abs
		}
		return ConfigFileName
	}

	if xdgHome := os.Getenv("XDG_CONFIG_HOME"); xdgHome != "" {
		path := filepath.Join(xdgHome, DirName, "config.yaml")
		if fileExists(path) {
			return path
		}
	}

	if home := os.Getenv("HOME"); home != "" {
		path := filepath.Join(home, ".config", DirName, "config.yaml")
		if fileExists(path) {
			return path
		}
	}

	return ""
}

// DefaultConfigPath returns where a new config file should be written.
func DefaultConfigPath() string {
	if xdgHome := os.Getenv("XDG_CONFIG_HOME"); xdgHome != "" {
		return filepath.Join(xdgHome, DirName, "config.yaml")
	}
	if home := os.Getenv("HOME"); home != "" {
		return filepath.Join(home, ".config", DirName, "config.yaml")
	}
	return ConfigFileName
}

// DefaultDatabasePath returns the preference database location under the
// XDG data directory.
func DefaultDatabasePath() string {
	if dataHome := os.Getenv("XDG_DATA_HOME"); dataHome != "" {
		return filepath.Join(dataHome, DirName, "krunch.db")
	}
	if home := os.Getenv("HOME"); home != "" {
		return filepath.Join(home, ".local", "share", DirName, "krunch.db")
	}
	return "krunch.db"
}

// EnsureConfigDir creates the parent directory of path.
func EnsureConfigDir(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0o700)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
