package config

import (
	"fmt"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/ZebulonRouseFrantzich/cuimp/internal/descriptor"
	"github.com/ZebulonRouseFrantzich/cuimp/internal/profile"
	"github.com/ZebulonRouseFrantzich/cuimp/internal/proxy"
)

// Config is the file and environment configuration of cuimp. Zero values
// mean "use the built-in default".
type Config struct {
	Browser      string `envconfig:"BROWSER"`
	Version      string `envconfig:"VERSION"`
	Platform     string `envconfig:"PLATFORM"`
	Architecture string `envconfig:"ARCHITECTURE"`

	Release        string `envconfig:"RELEASE"`
	CacheDir       string `envconfig:"CACHE_DIR"`
	ReleaseBaseURL string `envconfig:"RELEASE_BASE_URL"`
	Retries        int    `envconfig:"RETRIES"`
	// Checksums pins archive SHA-256 digests by asset name.
	Checksums map[string]string `envconfig:"CHECKSUMS"`
	// Keyring is the path of an armored OpenPGP public keyring.
	Keyring      string `envconfig:"KEYRING"`
	SystemBinary bool   `envconfig:"SYSTEM_BINARY"`
	BinaryPath   string `envconfig:"BINARY_PATH"`

	Proxy        string        `envconfig:"PROXY"`
	Timeout      time.Duration `envconfig:"TIMEOUT"`
	MaxRedirects int           `envconfig:"MAX_REDIRECTS"`
	InsecureTLS  bool          `envconfig:"INSECURE_TLS"`
	ExtraArgs    []string      `ignored:"true"`
	Headers      [][2]string   `ignored:"true"`

	RateLimit float64 `envconfig:"RATE_LIMIT"`
	RateBurst int     `envconfig:"RATE_BURST"`
}

// Validate checks values that can be rejected without touching the
// network or the filesystem.
func (c *Config) Validate() error {
	if c.Browser != "" {
		if !slices.Contains(profile.Browsers(), strings.ToLower(c.Browser)) {
			return &ValidationError{
				Field:   luaFieldBrowser,
				Message: fmt.Sprintf("unknown browser %q (supported: %s)", c.Browser, strings.Join(profile.Browsers(), ", ")),
			}
		}
	}

	if c.Release != "" {
		if _, err := descriptor.NormalizeRelease(c.Release); err != nil {
			return &ValidationError{Field: luaFieldRelease, Message: err.Error()}
		}
	}

	if c.ReleaseBaseURL != "" {
		u, err := url.Parse(c.ReleaseBaseURL)
		if err != nil || (u.Scheme != "https" && u.Scheme != "http") || u.Host == "" {
			return &ValidationError{Field: luaFieldReleaseBaseURL, Message: "must be an http(s) URL"}
		}
	}

	if c.Proxy != "" {
		if _, err := proxy.Parse(c.Proxy); err != nil {
			return &ValidationError{Field: luaFieldProxy, Message: err.Error()}
		}
	}

	switch {
	case c.Timeout < 0:
		return &ValidationError{Field: luaFieldTimeout, Message: "cannot be negative"}
	case c.Retries < 0:
		return &ValidationError{Field: luaFieldRetries, Message: "cannot be negative"}
	case c.RateLimit < 0:
		return &ValidationError{Field: luaFieldRateLimit, Message: "cannot be negative"}
	case len(c.ExtraArgs) > MaxExtraArgs:
		return &ValidationError{
			Field:   luaFieldExtraArgs,
			Message: fmt.Sprintf("too many arguments (%d), maximum is %d", len(c.ExtraArgs), MaxExtraArgs),
		}
	case len(c.Headers) > MaxHeaders:
		return &ValidationError{
			Field:   luaFieldHeaders,
			Message: fmt.Sprintf("too many headers (%d), maximum is %d", len(c.Headers), MaxHeaders),
		}
	}

	for i, h := range c.Headers {
		if h[0] == "" || strings.ContainsAny(h[0], ": \t\r\n") || strings.ContainsAny(h[1], "\r\n") {
			return &ValidationError{Field: fmt.Sprintf("%s[%d]", luaFieldHeaders, i+1), Message: "invalid header"}
		}
	}

	for asset, sum := range c.Checksums {
		if len(strings.TrimSpace(sum)) != 64 {
			return &ValidationError{
				Field:   fmt.Sprintf("%s[%q]", luaFieldChecksums, asset),
				Message: "expected a hex SHA-256 digest",
			}
		}
	}

	if c.BinaryPath != "" && c.SystemBinary {
		return &ValidationError{Field: luaFieldBinaryPath, Message: "binary_path and system_binary are mutually exclusive"}
	}

	return nil
}

// ValidationError represents a config validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return "config validation failed for " + e.Field + ": " + e.Message
	}
	return "config validation failed: " + e.Message
}
