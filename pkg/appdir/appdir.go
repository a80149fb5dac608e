// Package appdir locates the per-user state directory.
package appdir

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// EnvHome overrides the directory.
const EnvHome = "XETH_HOME"

var (
	once   sync.Once
	dir    string
	mkdErr error
)

// AppDir returns $XETH_HOME, or ~/.xeth-go, creating it on first use. It
// falls back to the working directory when no home directory is known.
// The error from creating the directory is kept and returned on every call.
func AppDir() (string, error) {
	once.Do(func() {
		dir = os.Getenv(EnvHome)
		if dir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				home = "."
			}
			dir = filepath.Join(home, ".xeth-go")
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			mkdErr = fmt.Errorf("appdir: create %s: %w", dir, err)
		}
	})
	return dir, mkdErr
}
