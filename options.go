package cuimp

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ProtonMail/go-crypto/openpgp"
	"go.uber.org/zap"

	"github.com/ZebulonRouseFrantzich/cuimp/internal/binary"
	"github.com/ZebulonRouseFrantzich/cuimp/internal/config"
	"github.com/ZebulonRouseFrantzich/cuimp/internal/platform"
)

// Option configures a Client.
type Option func(*options) error

type options struct {
	descriptor Descriptor
	release    string

	cacheDir     string
	baseURL      string
	retries      int
	checksums    map[string]string
	keyring      openpgp.EntityList
	keyringFile  string
	httpClient   *http.Client
	binaryPath   string
	systemBinary bool

	proxy        string
	timeout      time.Duration
	maxRedirects int
	insecureTLS  bool
	extraArgs    []string
	headers      []Header

	logger    config.Logger
	onState   binary.StateFunc
	progress  binary.ProgressFunc
	rps       float64
	burst     int
	env       map[string]string
	detector  platform.Detector
	killGrace time.Duration
	tempDir   string
}

// Logger is the structured logging interface accepted by WithLogger.
type Logger = config.Logger

// StateFunc observes binary provisioning state changes.
type StateFunc = binary.StateFunc

// ProgressFunc observes download progress; total is -1 when unknown.
type ProgressFunc = binary.ProgressFunc

// WithDescriptor sets the default browser, version, platform and
// architecture. Empty fields keep their automatic value.
func WithDescriptor(d Descriptor) Option {
	return func(o *options) error {
		o.descriptor = d
		return nil
	}
}

// WithBrowser sets the default browser and version. An empty version
// selects the latest profile.
func WithBrowser(browser, version string) Option {
	return func(o *options) error {
		o.descriptor.Browser = browser
		o.descriptor.Version = version
		return nil
	}
}

// WithRelease pins the curl-impersonate release. Default is
// descriptor.DefaultRelease.
func WithRelease(release string) Option {
	return func(o *options) error {
		o.release = release
		return nil
	}
}

// WithCacheDir sets the binary cache root. Default is ~/.cuimp/binaries.
func WithCacheDir(dir string) Option {
	return func(o *options) error {
		o.cacheDir = dir
		return nil
	}
}

// WithReleaseBaseURL sets the download base for release assets.
func WithReleaseBaseURL(u string) Option {
	return func(o *options) error {
		o.baseURL = u
		return nil
	}
}

// WithRetries sets how many times a failed download is retried.
// Default is 0.
func WithRetries(n int) Option {
	return func(o *options) error {
		if n < 0 {
			return errors.New("retries must not be negative")
		}
		o.retries = n
		return nil
	}
}

// WithChecksums pins archive SHA-256 digests by asset name.
func WithChecksums(checksums map[string]string) Option {
	return func(o *options) error {
		o.checksums = checksums
		return nil
	}
}

// WithKeyring enables detached OpenPGP signature verification of release
// archives.
func WithKeyring(keyring openpgp.EntityList) Option {
	return func(o *options) error {
		if len(keyring) == 0 {
			return errors.New("keyring must not be empty")
		}
		o.keyring = keyring
		return nil
	}
}

// WithKeyringFile is WithKeyring for an armored or binary keyring file.
func WithKeyringFile(path string) Option {
	return func(o *options) error {
		o.keyringFile = path
		return nil
	}
}

// WithHTTPClient sets the client used to download binaries.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) error {
		if hc == nil {
			return errors.New("client must not be nil")
		}
		o.httpClient = hc
		return nil
	}
}

// WithBinaryPath uses an existing curl-impersonate binary and skips
// provisioning entirely.
func WithBinaryPath(path string) Option {
	return func(o *options) error {
		o.binaryPath = path
		return nil
	}
}

// WithSystemBinary prefers a curl-impersonate found on PATH or in the usual
// install locations, falling back to provisioning.
func WithSystemBinary() Option {
	return func(o *options) error {
		o.systemBinary = true
		return nil
	}
}

// WithProxy sets the default proxy. It takes precedence over proxy
// environment variables.
func WithProxy(proxy string) Option {
	return func(o *options) error {
		o.proxy = proxy
		return nil
	}
}

// WithTimeout sets the default per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *options) error {
		if d < 0 {
			return errors.New("timeout must not be negative")
		}
		o.timeout = d
		return nil
	}
}

// WithMaxRedirects sets the default redirect limit. A negative value
// disables redirect following.
func WithMaxRedirects(n int) Option {
	return func(o *options) error {
		o.maxRedirects = n
		return nil
	}
}

// WithInsecureTLS disables certificate verification for every request.
func WithInsecureTLS() Option {
	return func(o *options) error {
		o.insecureTLS = true
		return nil
	}
}

// WithExtraArgs appends raw curl arguments to every request.
func WithExtraArgs(args ...string) Option {
	return func(o *options) error {
		o.extraArgs = append(o.extraArgs, args...)
		return nil
	}
}

// WithHeader adds a header to every request. Request headers of the same
// name win.
func WithHeader(name, value string) Option {
	return func(o *options) error {
		o.headers = append(o.headers, Header{Name: name, Value: value})
		return nil
	}
}

// WithLogger injects a logger. Default discards everything.
func WithLogger(l Logger) Option {
	return func(o *options) error {
		o.logger = l
		return nil
	}
}

// WithZap logs through a zap logger.
func WithZap(l *zap.Logger) Option {
	return func(o *options) error {
		if l == nil {
			return errors.New("logger must not be nil")
		}
		o.logger = config.NewZapLogger(l)
		return nil
	}
}

// WithStateObserver reports binary provisioning state changes.
func WithStateObserver(fn StateFunc) Option {
	return func(o *options) error {
		o.onState = fn
		return nil
	}
}

// WithProgress reports binary download progress.
func WithProgress(fn ProgressFunc) Option {
	return func(o *options) error {
		o.progress = fn
		return nil
	}
}

// WithRateLimit limits how many processes are spawned per second.
func WithRateLimit(rps float64, burst int) Option {
	return func(o *options) error {
		if rps <= 0 {
			return errors.New("requests per second must be positive")
		}
		if burst < 1 {
			burst = 1
		}
		o.rps = rps
		o.burst = burst
		return nil
	}
}

// WithEnvironment replaces the process environment consulted for proxy
// variables.
func WithEnvironment(env map[string]string) Option {
	return func(o *options) error {
		o.env = env
		return nil
	}
}

// WithDetector overrides host platform detection.
func WithDetector(d platform.Detector) Option {
	return func(o *options) error {
		if d == nil {
			return errors.New("detector must not be nil")
		}
		o.detector = d
		return nil
	}
}

// WithKillGrace sets how long a process may outlive its timeout before it
// is killed. Default is 2s.
func WithKillGrace(d time.Duration) Option {
	return func(o *options) error {
		o.killGrace = d
		return nil
	}
}

// WithTempDir sets where per-request header and body files are written.
func WithTempDir(dir string) Option {
	return func(o *options) error {
		o.tempDir = dir
		return nil
	}
}

// WithConfig applies a loaded configuration. Options given after it
// override its values.
func WithConfig(cfg *config.Config) Option {
	return func(o *options) error {
		if cfg == nil {
			return nil
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		o.descriptor = Descriptor{
			Browser:      cfg.Browser,
			Version:      cfg.Version,
			Platform:     cfg.Platform,
			Architecture: cfg.Architecture,
		}
		o.release = cfg.Release
		o.cacheDir = cfg.CacheDir
		o.baseURL = cfg.ReleaseBaseURL
		o.retries = cfg.Retries
		o.checksums = cfg.Checksums
		o.keyringFile = cfg.Keyring
		o.binaryPath = cfg.BinaryPath
		o.systemBinary = cfg.SystemBinary
		o.proxy = cfg.Proxy
		o.timeout = cfg.Timeout
		o.maxRedirects = cfg.MaxRedirects
		o.insecureTLS = cfg.InsecureTLS
		o.extraArgs = append([]string(nil), cfg.ExtraArgs...)
		o.headers = o.headers[:0]
		for _, h := range cfg.Headers {
			o.headers = append(o.headers, Header{Name: h[0], Value: h[1]})
		}
		if cfg.RateLimit > 0 {
			o.rps = cfg.RateLimit
			o.burst = max(cfg.RateBurst, 1)
		}
		return nil
	}
}

func (o *options) apply(opts []Option) error {
	for i, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(o); err != nil {
			return fmt.Errorf("option %d: %w", i, err)
		}
	}
	return nil
}
