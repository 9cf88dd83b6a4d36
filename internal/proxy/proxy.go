// Package proxy parses proxy specifications and selects the proxy for a
// request from an explicit value or the conventional environment variables.
package proxy

import (
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"

	"golang.org/x/net/http/httpproxy"

	"github.com/ZebulonRouseFrantzich/cuimp/internal/errs"
)

var defaultPorts = map[string]int{
	"http":   80,
	"https":  443,
	"socks4": 1080,
	"socks5": 1080,
}

// Spec is a parsed proxy.
type Spec struct {
	Scheme   string
	Host     string
	Port     int
	Username string
	Password string
	// Source is "explicit" or the environment variable the proxy came from.
	Source string
}

// Parse parses a proxy specification of the form
// [scheme://][user[:pass]@]host[:port]. A missing scheme means http and a
// missing port means the scheme's default.
func Parse(raw string) (*Spec, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil, &errs.ProxyError{Proxy: raw, Reason: "empty"}
	}
	if !strings.Contains(s, "://") {
		s = "http://" + s
	}

	u, err := url.Parse(s)
	if err != nil {
		return nil, &errs.ProxyError{Proxy: raw, Reason: "unparseable"}
	}

	scheme := strings.ToLower(u.Scheme)
	defPort, ok := defaultPorts[scheme]
	if !ok {
		return nil, &errs.ProxyError{Proxy: raw, Reason: "unsupported scheme " + strconv.Quote(u.Scheme)}
	}

	host := u.Hostname()
	if host == "" {
		return nil, &errs.ProxyError{Proxy: raw, Reason: "missing host"}
	}

	port := defPort
	if p := u.Port(); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil || n < 1 || n > 65535 {
			return nil, &errs.ProxyError{Proxy: raw, Reason: "invalid port " + strconv.Quote(p)}
		}
		port = n
	}

	spec := &Spec{Scheme: scheme, Host: host, Port: port}
	if u.User != nil {
		spec.Username = u.User.Username()
		spec.Password, _ = u.User.Password()
	}
	return spec, nil
}

// URL renders the proxy with percent-encoded credentials.
func (s *Spec) URL() string {
	u := url.URL{
		Scheme: s.Scheme,
		Host:   net.JoinHostPort(s.Host, strconv.Itoa(s.Port)),
	}
	switch {
	case s.Password != "":
		u.User = url.UserPassword(s.Username, s.Password)
	case s.Username != "":
		u.User = url.User(s.Username)
	}
	return u.String()
}

// Redacted renders the proxy with credentials hidden, for logs.
func (s *Spec) Redacted() string {
	hostport := net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
	if s.Username != "" || s.Password != "" {
		return s.Scheme + "://<redacted>@" + hostport
	}
	return s.Scheme + "://" + hostport
}

// Args returns the curl flags that route a request through the proxy.
func (s *Spec) Args() []string {
	return []string{"--proxy", s.URL()}
}

// Environ snapshots the process environment for Resolve.
func Environ() map[string]string {
	env := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			env[k] = v
		}
	}
	return env
}

// Resolve selects the proxy for a request to target.
//
// A non-empty explicit value always wins and must be valid. Otherwise the
// environment is consulted in order: HTTPS_PROXY and https_proxy for https
// targets or HTTP_PROXY and http_proxy for everything else, then ALL_PROXY
// and all_proxy. Unparseable values are skipped. NO_PROXY (or no_proxy) and
// loopback targets bypass environment proxies. A nil Spec means direct.
func Resolve(explicit, target string, env map[string]string) (*Spec, error) {
	if strings.TrimSpace(explicit) != "" {
		spec, err := Parse(explicit)
		if err != nil {
			return nil, err
		}
		spec.Source = "explicit"
		return spec, nil
	}

	targetURL, err := url.Parse(target)
	if err != nil {
		targetURL = &url.URL{Scheme: "http"}
	}
	scheme := strings.ToLower(targetURL.Scheme)

	names := []string{"HTTP_PROXY", "http_proxy"}
	if scheme == "https" {
		names = []string{"HTTPS_PROXY", "https_proxy"}
	}
	names = append(names, "ALL_PROXY", "all_proxy")

	for _, name := range names {
		value := strings.TrimSpace(env[name])
		if value == "" {
			continue
		}
		spec, err := Parse(value)
		if err != nil {
			continue
		}
		if bypassed(targetURL, env) {
			return nil, nil
		}
		spec.Source = name
		return spec, nil
	}
	return nil, nil
}

// bypassed reports whether NO_PROXY rules exclude target. Matching follows
// net/http: domain suffixes, CIDR blocks, host:port pairs and "*".
func bypassed(target *url.URL, env map[string]string) bool {
	noProxy := env["NO_PROXY"]
	if noProxy == "" {
		noProxy = env["no_proxy"]
	}

	probe := *target
	if probe.Scheme != "https" {
		probe.Scheme = "http"
	}

	cfg := httpproxy.Config{
		HTTPProxy:  "http://proxy.invalid",
		HTTPSProxy: "http://proxy.invalid",
		NoProxy:    noProxy,
	}
	u, err := cfg.ProxyFunc()(&probe)
	return err == nil && u == nil
}
