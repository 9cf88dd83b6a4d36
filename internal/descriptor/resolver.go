package descriptor

import (
	"fmt"
	"slices"
	"strings"

	"github.com/Masterminds/semver"

	"github.com/ZebulonRouseFrantzich/cuimp/internal/errs"
	"github.com/ZebulonRouseFrantzich/cuimp/internal/platform"
	"github.com/ZebulonRouseFrantzich/cuimp/internal/profile"
)

// Resolver fills and validates descriptors against a support matrix.
type Resolver struct {
	host    platform.Info
	release string
	matrix  Matrix
}

// NewResolver creates a resolver for the given host and release. An empty
// release selects DefaultRelease.
func NewResolver(host platform.Info, release string) (*Resolver, error) {
	if release == "" {
		release = DefaultRelease
	}
	rel, err := NormalizeRelease(release)
	if err != nil {
		return nil, err
	}
	return &Resolver{
		host:    host,
		release: rel,
		matrix:  BuildMatrix(rel),
	}, nil
}

// Release returns the release this resolver resolves against.
func (r *Resolver) Release() string {
	return r.release
}

// Matrix returns the support matrix.
func (r *Resolver) Matrix() Matrix {
	return r.matrix
}

// Resolve fills empty fields and checks the result against the support
// matrix. Unsupported combinations fail with an *errs.UnsupportedError that
// names the offending axis.
func (r *Resolver) Resolve(d Descriptor) (*Resolved, error) {
	browser := strings.ToLower(strings.TrimSpace(d.Browser))
	if browser == "" {
		browser = profile.DefaultBrowser
	}
	versions, ok := r.matrix[browser]
	if !ok {
		return nil, &errs.UnsupportedError{Axis: "browser", Value: d.Browser, Supported: r.matrix.Browsers()}
	}

	version := strings.TrimSpace(d.Version)
	if version == "" || strings.EqualFold(version, "latest") {
		version = profile.Latest(browser)
	} else {
		canonical, err := canonicalVersion(browser, version)
		if err != nil {
			return nil, &errs.UnsupportedError{Axis: "version", Value: d.Version, Supported: r.matrix.Versions(browser)}
		}
		version = canonical
	}
	platforms, ok := versions[version]
	if !ok {
		return nil, &errs.UnsupportedError{Axis: "version", Value: d.Version, Supported: r.matrix.Versions(browser)}
	}

	osName := platform.NormalizeOS(d.Platform)
	if osName == "" {
		osName = r.host.OS
	}
	archs, ok := platforms[osName]
	if !ok {
		return nil, &errs.UnsupportedError{Axis: "platform", Value: osName, Supported: sortedKeys(platforms)}
	}

	arch := platform.NormalizeArch(d.Architecture)
	if arch == "" {
		arch = r.host.Arch
	}
	variant, ok := archs[arch]
	if !ok {
		return nil, &errs.UnsupportedError{Axis: "architecture", Value: arch, Supported: sortedKeys(archs)}
	}

	p, ok := profile.Lookup(browser, version)
	if !ok {
		// The matrix is built from the profile table.
		return nil, fmt.Errorf("profile table out of sync for %s %s", browser, version)
	}

	return &Resolved{
		Descriptor: Descriptor{
			Browser:      browser,
			Version:      version,
			Platform:     osName,
			Architecture: arch,
		},
		Profile: p,
		Variant: variant,
		Key:     BinaryKey(variant.Release, osName, arch),
	}, nil
}

// canonicalVersion reduces a requested version to the granularity the
// profile table is keyed by: majors for Chromium and Firefox, major.minor
// for Safari.
func canonicalVersion(browser, version string) (string, error) {
	v, err := semver.NewVersion(truncateVersion(version))
	if err != nil {
		return "", err
	}
	if browser == profile.Safari {
		return fmt.Sprintf("%d.%d", v.Major(), v.Minor()), nil
	}
	return fmt.Sprintf("%d", v.Major()), nil
}

// truncateVersion keeps at most three numeric components so that four-part
// Chrome versions such as 131.0.6778.85 parse.
func truncateVersion(version string) string {
	parts := strings.Split(strings.TrimPrefix(version, "v"), ".")
	if len(parts) > 3 {
		parts = parts[:3]
	}
	return strings.Join(parts, ".")
}

// NormalizeRelease validates a release tag and strips any leading "v".
func NormalizeRelease(release string) (string, error) {
	v, err := semver.NewVersion(strings.TrimSpace(release))
	if err != nil {
		return "", fmt.Errorf("invalid release %q: %w", release, err)
	}
	return v.String(), nil
}

// Supported reports whether platform and architecture have a release asset.
func Supported(osName, arch string) bool {
	_, ok := assetTargets[osName][arch]
	return ok
}

// KnownPlatforms returns every platform name the resolver understands,
// including those without a release asset.
func KnownPlatforms() []string {
	return slices.Clone(knownPlatforms)
}

// KnownArchitectures returns every architecture name the resolver understands.
func KnownArchitectures() []string {
	return slices.Clone(knownArchitectures)
}
