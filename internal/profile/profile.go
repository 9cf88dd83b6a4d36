// Package profile holds the browser fingerprint table: for every supported
// browser version, the curl-impersonate flags that reproduce its TLS and HTTP/2
// handshake and the ordered default request headers it sends.
package profile

import (
	"slices"
	"sort"
	"strings"
)

// Browser names.
const (
	Chrome  = "chrome"
	Edge    = "edge"
	Firefox = "firefox"
	Safari  = "safari"
)

// DefaultBrowser is used when a descriptor leaves the browser empty.
const DefaultBrowser = Chrome

// Profile describes how one browser version is impersonated.
type Profile struct {
	Browser string
	Version string // "131", "18.0"
	Comment string
	// Args are passed to curl-impersonate before any request-specific flag.
	Args []string
	// Headers are sent by default, in order. Request headers with the same
	// name replace them in place.
	Headers [][2]string
}

// Name returns the conventional target name, e.g. "chrome131" or "safari18_0".
func (p *Profile) Name() string {
	return p.Browser + strings.ReplaceAll(p.Version, ".", "_")
}

// Clone returns a deep copy of p.
func (p *Profile) Clone() *Profile {
	c := *p
	c.Args = slices.Clone(p.Args)
	c.Headers = slices.Clone(p.Headers)
	return &c
}

// Lookup returns a copy of the profile for an exact browser and version.
func Lookup(browser, version string) (*Profile, bool) {
	for _, p := range profiles {
		if p.Browser == browser && p.Version == version {
			return p.Clone(), true
		}
	}
	return nil, false
}

// Browsers returns the supported browser names, sorted.
func Browsers() []string {
	seen := make(map[string]bool)
	var out []string
	for _, p := range profiles {
		if !seen[p.Browser] {
			seen[p.Browser] = true
			out = append(out, p.Browser)
		}
	}
	sort.Strings(out)
	return out
}

// Versions returns the versions declared for browser in table order
// (oldest first).
func Versions(browser string) []string {
	var out []string
	for _, p := range profiles {
		if p.Browser == browser {
			out = append(out, p.Version)
		}
	}
	return out
}

// Latest returns the newest declared version of browser, or "" if the
// browser is unknown.
func Latest(browser string) string {
	versions := Versions(browser)
	if len(versions) == 0 {
		return ""
	}
	return versions[len(versions)-1]
}

// All returns a copy of every profile in table order.
func All() []*Profile {
	out := make([]*Profile, len(profiles))
	for i, p := range profiles {
		out[i] = p.Clone()
	}
	return out
}
