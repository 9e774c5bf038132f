// Package paths centralizes the on-disk layout under the data directory.
package paths

import (
	"os"
	"path/filepath"
)

// Base returns the default data directory, ~/.quietsend.
func Base() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".quietsend")
}

// DB returns the bucket store path inside dataDir.
func DB(dataDir string) string {
	return filepath.Join(dataDir, "quietsend.db")
}

// Config returns the config file path inside dataDir.
func Config(dataDir string) string {
	return filepath.Join(dataDir, "config.toml")
}

// LogDir returns the log directory inside dataDir.
func LogDir(dataDir string) string {
	return filepath.Join(dataDir, "logs")
}

// Log returns the daemon log file path inside dataDir.
func Log(dataDir string) string {
	return filepath.Join(LogDir(dataDir), "quietsendd.log")
}

// EnsureDirs creates the data directory tree with owner-only permissions.
func EnsureDirs(dataDir string) error {
	for _, d := range []string{dataDir, LogDir(dataDir)} {
		if err := os.MkdirAll(d, 0700); err != nil {
			return err
		}
	}
	return nil
}
