// Package descriptor turns a partially specified impersonation target into a
// concrete, supported combination of browser version, platform, architecture
// and release artifact.
//
// Resolution is pure: the host platform is injected, the support matrix is
// data, and no I/O happens.
package descriptor

import (
	"fmt"
	"strings"

	"github.com/ZebulonRouseFrantzich/cuimp/internal/profile"
)

const (
	// DefaultRelease is the curl-impersonate release pinned by this module.
	DefaultRelease = "1.0.0"
	// DefaultBaseURL is where release assets are downloaded from.
	DefaultBaseURL = "https://github.com/lexiforest/curl-impersonate/releases/download"
	// BinaryName is the executable inside every release archive.
	BinaryName = "curl-impersonate"
)

// Descriptor identifies an impersonation target. Empty fields are filled
// during resolution.
type Descriptor struct {
	Browser      string `json:"browser,omitempty"`
	Version      string `json:"version,omitempty"`
	Platform     string `json:"platform,omitempty"`
	Architecture string `json:"architecture,omitempty"`
}

func (d Descriptor) String() string {
	return fmt.Sprintf("%s %s (%s/%s)", d.Browser, d.Version, d.Platform, d.Architecture)
}

// Variant is the release artifact serving one platform and architecture.
type Variant struct {
	Release string // without leading "v"
	Asset   string // archive file name
	Binary  string // executable name inside the archive
}

// Tag returns the release tag the asset is published under.
func (v Variant) Tag() string {
	return "v" + v.Release
}

// URL returns the download URL of the asset below baseURL.
func (v Variant) URL(baseURL string) string {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return strings.TrimRight(baseURL, "/") + "/" + v.Tag() + "/" + v.Asset
}

// Resolved is a fully specified, supported descriptor.
type Resolved struct {
	Descriptor
	Profile *profile.Profile
	Variant Variant
	// Key names the cached binary. Browsers share a key because one archive
	// serves every profile; the profile is applied on the command line.
	Key string
}

// BinaryKey returns the cache key for a release, platform and architecture.
func BinaryKey(release, platformName, arch string) string {
	return fmt.Sprintf("%s-%s-%s-%s", BinaryName, release, platformName, arch)
}
