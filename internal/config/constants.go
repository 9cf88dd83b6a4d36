package config

import "time"

// Lua schema field names and globals
const (
	luaGlobalCuimp         = "cuimp"
	luaFieldBrowser        = "browser"
	luaFieldVersion        = "version"
	luaFieldPlatform       = "platform"
	luaFieldArchitecture   = "architecture"
	luaFieldRelease        = "release"
	luaFieldCacheDir       = "cache_dir"
	luaFieldReleaseBaseURL = "release_base_url"
	luaFieldProxy          = "proxy"
	luaFieldTimeout        = "timeout"
	luaFieldMaxRedirects   = "max_redirects"
	luaFieldInsecureTLS    = "insecure_tls"
	luaFieldRetries        = "retries"
	luaFieldExtraArgs      = "extra_args"
	luaFieldHeaders        = "headers"
	luaFieldChecksums      = "checksums"
	luaFieldKeyring        = "keyring"
	luaFieldSystemBinary   = "system_binary"
	luaFieldBinaryPath     = "binary_path"
	luaFieldRateLimit      = "rate_limit"
	luaFieldRPS            = "rps"
	luaFieldBurst          = "burst"
)

// Resource limits for config parsing.
const (
	MaxConfigSize       = 1 << 20
	MaxExtraArgs        = 256
	MaxHeaders          = 256
	DefaultParseTimeout = 5 * time.Second
	luaCallStackSize    = 256
	luaRegistrySize     = 1024 * 8
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "CUIMP"
