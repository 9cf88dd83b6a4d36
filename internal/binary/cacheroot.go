package binary

import (
	"os"
	"path/filepath"
	"sync"
)

var (
	rootOnce sync.Once
	rootDir  string
)

// DefaultRoot returns the process-wide cache root. It is decided once:
// ~/.cuimp/binaries when the home directory is writable, ./binaries otherwise.
func DefaultRoot() string {
	rootOnce.Do(func() {
		rootDir = resolveRoot(os.UserHomeDir, os.Getwd)
	})
	return rootDir
}

func resolveRoot(home, wd func() (string, error)) string {
	if h, err := home(); err == nil && h != "" {
		dir := filepath.Join(h, ".cuimp", "binaries")
		if writable(dir) {
			return dir
		}
	}

	cwd, err := wd()
	if err != nil || cwd == "" {
		cwd = "."
	}
	return filepath.Join(cwd, "binaries")
}

// writable creates dir if needed and probes it with a temporary file.
func writable(dir string) bool {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return false
	}
	f, err := os.CreateTemp(dir, ".probe-*")
	if err != nil {
		return false
	}
	name := f.Name()
	f.Close()
	os.Remove(name)
	return true
}
