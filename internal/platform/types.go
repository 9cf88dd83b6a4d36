// Package platform detects the host operating system and CPU architecture and
// maps them onto the names used by curl-impersonate release assets.
//
// Detection uses runtime.GOOS/GOARCH for the OS and architecture and gopsutil
// for Linux distribution details. Distribution detection failures degrade to
// empty distro fields rather than errors.
package platform

import "context"

// Release-asset platform names.
const (
	OSLinux   = "linux"
	OSWindows = "windows"
	OSMacOS   = "macos"
	OSAndroid = "android"
	OSIOS     = "ios"
)

// Release-asset architecture names.
const (
	ArchX64   = "x64"
	ArchARM64 = "arm64"
)

// Linux distribution family constants.
const (
	FamilyDebian  = "debian"  // Debian, Ubuntu, Linux Mint
	FamilyRHEL    = "rhel"    // RHEL, CentOS, Rocky Linux, AlmaLinux
	FamilyFedora  = "fedora"  // Fedora
	FamilySUSE    = "suse"    // openSUSE, SLES
	FamilyArch    = "arch"    // Arch Linux, Manjaro
	FamilyAlpine  = "alpine"  // Alpine Linux
	FamilyUnknown = "unknown" // Unrecognized distributions
)

// Info contains platform detection information.
type Info struct {
	OS      string // "linux", "macos", "windows", ... (asset naming)
	Arch    string // "x64", "arm64"; the raw GOARCH when unrecognised
	GOOS    string // runtime.GOOS
	GOARCH  string // runtime.GOARCH
	Distro  string // distro ID (Linux only, e.g. "ubuntu")
	Family  string // canonical family (e.g. "debian")
	Version string // distro version (Linux only, e.g. "22.04")
}

// IsLinux returns true if the platform is Linux.
func (i *Info) IsLinux() bool {
	return i.OS == OSLinux
}

// IsMacOS returns true if the platform is macOS.
func (i *Info) IsMacOS() bool {
	return i.OS == OSMacOS
}

// IsWindows returns true if the platform is Windows.
func (i *Info) IsWindows() bool {
	return i.OS == OSWindows
}

// IsX64 returns true if the architecture is x86-64.
func (i *Info) IsX64() bool {
	return i.Arch == ArchX64
}

// IsARM64 returns true if the architecture is arm64.
func (i *Info) IsARM64() bool {
	return i.Arch == ArchARM64
}

// IsAppleSilicon returns true if running on Apple Silicon (macOS + arm64).
func (i *Info) IsAppleSilicon() bool {
	return i.OS == OSMacOS && i.Arch == ArchARM64
}

// Detector is the interface for platform detection.
type Detector interface {
	Detect(ctx context.Context) (*Info, error)
}

// StaticDetector returns a fixed Info. It is used to pin the host platform in
// tests and when the caller already knows the target.
type StaticDetector struct {
	Info Info
}

// Detect returns a copy of the configured info.
func (d StaticDetector) Detect(ctx context.Context) (*Info, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	info := d.Info
	return &info, nil
}
