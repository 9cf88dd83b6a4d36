// Package config loads cuimp settings from a sandboxed Lua file and the
// environment, and provides the Logger abstraction used by every
// component.
//
// # Configuration file
//
// The file (default ~/.cuimp/config.lua) must define a global table named
// cuimp. It runs in gopher-lua with os, io, module loading, debug and raw
// table access removed, a bounded call stack and a 5 second evaluation
// limit. A read-only platform table describing the host is injected so
// settings can be conditional:
//
//	cuimp = {
//	  browser = "chrome",
//	  version = "131",
//	  proxy = platform.is_linux and "socks5://127.0.0.1:1080" or nil,
//	  timeout = 30,                -- seconds, or a duration string such as "1m30s"
//	  max_redirects = 5,
//	  extra_args = { "--http1.1" },
//	  headers = {
//	    { "Accept-Language", "de-DE" },
//	  },
//	  checksums = {
//	    ["curl-impersonate-v1.0.0.x86_64-linux-gnu.tar.gz"] = "9f2c...",
//	  },
//	  rate_limit = { rps = 5, burst = 2 },
//	}
//
// # Environment
//
// CUIMP_* variables override file values field by field (CUIMP_BROWSER,
// CUIMP_PROXY, CUIMP_TIMEOUT=30s, CUIMP_CHECKSUMS=asset:digest,...).
// Headers and extra arguments are file-only.
//
// # Logging
//
// Logger is a minimal structured logging interface. NopLogger discards
// everything; NewZapLogger adapts a *zap.Logger.
package config
