package appdir

import (
	"fmt"
	"os"
	"path/filepath"
)

// Name is the directory name used below the OS-specific base directories.
const Name = "commit-resolver"

// ConfigDir returns the OS-specific config directory for commit-resolver.
// Linux: $XDG_CONFIG_HOME/commit-resolver  macOS: ~/Library/Application Support/commit-resolver
// Windows: %AppData%/commit-resolver
func ConfigDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("getting user config dir: %w", err)
	}
	return filepath.Join(base, Name), nil
}

// EnsureFile creates path and its parent directories if they do not exist.
// The file is created with 0600 permissions (owner read/write only).
// A no-op if the file already exists.
func EnsureFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		if os.IsExist(err) {
			return nil
		}
		return fmt.Errorf("creating config file: %w", err)
	}
	return f.Close()
}

// TempDir returns the directory downloaded packages and extracted entries are
// written to. An empty dir selects os.TempDir(); any other value is created
// with 0700 permissions if missing.
func TempDir(dir string) (string, error) {
	if dir == "" {
		return os.TempDir(), nil
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("creating temp dir: %w", err)
	}
	return dir, nil
}
