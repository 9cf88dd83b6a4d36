package descriptor

import (
	"sort"

	"github.com/ZebulonRouseFrantzich/cuimp/internal/platform"
	"github.com/ZebulonRouseFrantzich/cuimp/internal/profile"
)

// Platforms recognised by the resolver. Some have no release asset.
var knownPlatforms = []string{
	platform.OSLinux,
	platform.OSWindows,
	platform.OSMacOS,
	platform.OSAndroid,
	platform.OSIOS,
}

var knownArchitectures = []string{platform.ArchX64, platform.ArchARM64}

// assetTargets maps platform and architecture to the target triple used in
// release asset names and to the archive extension.
var assetTargets = map[string]map[string][2]string{
	platform.OSLinux: {
		platform.ArchX64:   {"x86_64-linux-gnu", ".tar.gz"},
		platform.ArchARM64: {"aarch64-linux-gnu", ".tar.gz"},
	},
	platform.OSMacOS: {
		platform.ArchX64:   {"x86_64-macos", ".tar.gz"},
		platform.ArchARM64: {"arm64-macos", ".tar.gz"},
	},
	platform.OSWindows: {
		platform.ArchX64: {"x86_64-win32", ".zip"},
	},
}

// Matrix is the support matrix: browser, version, platform, architecture.
type Matrix map[string]map[string]map[string]map[string]Variant

// BuildMatrix combines the profile table with the asset table of release.
func BuildMatrix(release string) Matrix {
	m := make(Matrix)
	for _, p := range profile.All() {
		versions, ok := m[p.Browser]
		if !ok {
			versions = make(map[string]map[string]map[string]Variant)
			m[p.Browser] = versions
		}
		platforms := make(map[string]map[string]Variant)
		for osName, archs := range assetTargets {
			platforms[osName] = make(map[string]Variant)
			for arch := range archs {
				platforms[osName][arch] = variantFor(release, osName, arch)
			}
		}
		versions[p.Version] = platforms
	}
	return m
}

func variantFor(release, osName, arch string) Variant {
	target := assetTargets[osName][arch]
	bin := BinaryName
	if osName == platform.OSWindows {
		bin += ".exe"
	}
	return Variant{
		Release: release,
		Asset:   BinaryName + "-v" + release + "." + target[0] + target[1],
		Binary:  bin,
	}
}

// Browsers returns the browsers present in the matrix, sorted.
func (m Matrix) Browsers() []string {
	return sortedKeys(m)
}

// Versions returns the versions of browser present in the matrix, sorted.
func (m Matrix) Versions(browser string) []string {
	return sortedKeys(m[browser])
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
