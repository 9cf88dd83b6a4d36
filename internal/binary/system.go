package binary

import (
	"errors"
	"os/exec"
	"path/filepath"
	"runtime"
	"time"
)

// ErrNoSystemBinary is returned when no curl-impersonate executable is found
// outside the cache.
var ErrNoSystemBinary = errors.New("curl-impersonate not found on PATH or in search paths")

var systemSearchDirs = []string{
	"/usr/local/bin",
	"/usr/bin",
	"/bin",
	"/sbin",
	"/usr/sbin",
	"/usr/local/sbin",
	"./binaries",
	".",
	"..",
	"../..",
}

func systemBinaryName() string {
	if runtime.GOOS == "windows" {
		return "curl-impersonate.exe"
	}
	return "curl-impersonate"
}

// FindSystemBinary looks for curl-impersonate on PATH, then in the fixed
// search directories.
func FindSystemBinary() (string, error) {
	return findSystemBinary(exec.LookPath, systemSearchDirs)
}

func findSystemBinary(lookPath func(string) (string, error), dirs []string) (string, error) {
	name := systemBinaryName()
	if p, err := lookPath(name); err == nil {
		if abs, err := filepath.Abs(p); err == nil {
			p = abs
		}
		return p, nil
	}

	for _, dir := range dirs {
		candidate := filepath.Join(dir, name)
		if _, err := VerifyExecutable(candidate); err == nil {
			if abs, err := filepath.Abs(candidate); err == nil {
				candidate = abs
			}
			return candidate, nil
		}
	}
	return "", ErrNoSystemBinary
}

// RecordForPath verifies a binary provided outside the cache and describes
// it as a Record with the given source.
func RecordForPath(path, source string) (*Record, error) {
	info, err := VerifyExecutable(path)
	if err != nil {
		return nil, err
	}
	return &Record{
		Key:        source + ":" + path,
		Path:       path,
		Size:       info.Size(),
		Executable: true,
		Verified:   []string{VerificationExecutable.String()},
		Source:     source,
		AcquiredAt: time.Now().UTC(),
	}, nil
}
