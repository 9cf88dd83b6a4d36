// Package testutil provides helpers for testing cuimp in isolation.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// isolatedVars are cleared so tests never pick up the developer's proxy or
// cuimp settings.
var isolatedVars = []string{
	"HTTP_PROXY", "http_proxy", "HTTPS_PROXY", "https_proxy",
	"ALL_PROXY", "all_proxy", "NO_PROXY", "no_proxy",
	"CUIMP_BROWSER", "CUIMP_VERSION", "CUIMP_PLATFORM", "CUIMP_ARCHITECTURE",
	"CUIMP_RELEASE", "CUIMP_CACHE_DIR", "CUIMP_RELEASE_BASE_URL", "CUIMP_RETRIES",
	"CUIMP_CHECKSUMS", "CUIMP_KEYRING", "CUIMP_SYSTEM_BINARY", "CUIMP_BINARY_PATH",
	"CUIMP_PROXY", "CUIMP_TIMEOUT", "CUIMP_MAX_REDIRECTS", "CUIMP_INSECURE_TLS",
	"CUIMP_RATE_LIMIT", "CUIMP_RATE_BURST",
}

// Env describes the isolated directories created by SetupTestEnv.
type Env struct {
	Home     string
	CacheDir string
}

// SetupTestEnv points HOME at a temporary directory, clears proxy and
// CUIMP_* variables and creates a cache directory. Everything is undone by
// the testing framework.
func SetupTestEnv(t *testing.T) *Env {
	t.Helper()

	tmpDir := t.TempDir()
	env := &Env{
		Home:     filepath.Join(tmpDir, "home"),
		CacheDir: filepath.Join(tmpDir, "cache"),
	}

	t.Setenv("HOME", env.Home)
	t.Setenv("USERPROFILE", env.Home)
	for _, name := range isolatedVars {
		t.Setenv(name, "")
		os.Unsetenv(name)
	}

	for _, dir := range []string{env.Home, env.CacheDir} {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			t.Fatalf("failed to create test directory %s: %v", dir, err)
		}
	}
	return env
}
