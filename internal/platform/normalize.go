package platform

import "strings"

var familyMap = map[string]string{
	"debian":   FamilyDebian,
	"ubuntu":   FamilyDebian, // gopsutil might return ubuntu as family
	"rhel":     FamilyRHEL,
	"centos":   FamilyRHEL,
	"rocky":    FamilyRHEL,
	"fedora":   FamilyFedora,
	"suse":     FamilySUSE,
	"opensuse": FamilySUSE,
	"arch":     FamilyArch,
	"manjaro":  FamilyArch,
	"alpine":   FamilyAlpine,
}

var osMap = map[string]string{
	"linux":   OSLinux,
	"darwin":  OSMacOS,
	"macos":   OSMacOS,
	"windows": OSWindows,
	"android": OSAndroid,
	"ios":     OSIOS,
}

var archMap = map[string]string{
	"amd64":   ArchX64,
	"x86_64":  ArchX64,
	"x64":     ArchX64,
	"arm64":   ArchARM64,
	"aarch64": ArchARM64,
}

// NormalizeOS maps a GOOS value or user-supplied platform name to the
// release-asset platform name. Unknown values are returned lowercased.
func NormalizeOS(goos string) string {
	return normalizeOS(goos)
}

// NormalizeArch maps a GOARCH value or user-supplied architecture name to the
// release-asset architecture name. Unknown values are returned lowercased.
func NormalizeArch(goarch string) string {
	return normalizeArch(goarch)
}

func normalizeOS(goos string) string {
	key := strings.ToLower(strings.TrimSpace(goos))
	if name, ok := osMap[key]; ok {
		return name
	}
	return key
}

func normalizeArch(goarch string) string {
	key := strings.ToLower(strings.TrimSpace(goarch))
	if name, ok := archMap[key]; ok {
		return name
	}
	return key
}

func normalizeDistro(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// mapFamily maps distribution family strings to canonical family names.
func mapFamily(family string) string {
	if canonical, ok := familyMap[normalizeDistro(family)]; ok {
		return canonical
	}
	return FamilyUnknown
}
