package descriptor

import (
	"errors"
	"strings"
	"testing"

	"github.com/ZebulonRouseFrantzich/cuimp/internal/errs"
	"github.com/ZebulonRouseFrantzich/cuimp/internal/platform"
	"github.com/ZebulonRouseFrantzich/cuimp/internal/profile"
)

func newTestResolver(t *testing.T, osName, arch string) *Resolver {
	t.Helper()
	r, err := NewResolver(platform.Info{OS: osName, Arch: arch}, "")
	if err != nil {
		t.Fatalf("NewResolver() error = %v", err)
	}
	return r
}

func TestResolve_Defaults(t *testing.T) {
	r := newTestResolver(t, platform.OSLinux, platform.ArchX64)

	got, err := r.Resolve(Descriptor{})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	want := Descriptor{Browser: "chrome", Version: "131", Platform: "linux", Architecture: "x64"}
	if got.Descriptor != want {
		t.Errorf("Descriptor = %+v, want %+v", got.Descriptor, want)
	}
	if got.Key != "curl-impersonate-1.0.0-linux-x64" {
		t.Errorf("Key = %q", got.Key)
	}
	if got.Variant.Asset != "curl-impersonate-v1.0.0.x86_64-linux-gnu.tar.gz" {
		t.Errorf("Asset = %q", got.Variant.Asset)
	}
	if got.Profile == nil || got.Profile.Name() != "chrome131" {
		t.Errorf("Profile = %v", got.Profile)
	}
}

func TestResolve_Versions(t *testing.T) {
	r := newTestResolver(t, platform.OSMacOS, platform.ArchARM64)

	tests := []struct {
		name    string
		browser string
		version string
		want    string
	}{
		{"chrome_major", "chrome", "120", "120"},
		{"chrome_full_version", "chrome", "131.0.6778.85", "131"},
		{"chrome_v_prefix", "Chrome", "v124", "124"},
		{"edge", "edge", "101", "101"},
		{"firefox", "firefox", "133.0", "133"},
		{"safari_major", "safari", "18", "18.0"},
		{"safari_minor", "safari", "15.5", "15.5"},
		{"latest_keyword", "firefox", "latest", "135"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Resolve(Descriptor{Browser: tt.browser, Version: tt.version})
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if got.Version != tt.want {
				t.Errorf("Version = %q, want %q", got.Version, tt.want)
			}
		})
	}
}

func TestResolve_Unsupported(t *testing.T) {
	r := newTestResolver(t, platform.OSLinux, platform.ArchX64)

	tests := []struct {
		name string
		desc Descriptor
		axis string
	}{
		{"unknown_browser", Descriptor{Browser: "opera"}, "browser"},
		{"unknown_version", Descriptor{Browser: "chrome", Version: "1"}, "version"},
		{"garbage_version", Descriptor{Browser: "chrome", Version: "banana"}, "version"},
		{"safari_unlisted_minor", Descriptor{Browser: "safari", Version: "16.1"}, "version"},
		{"android", Descriptor{Platform: "android"}, "platform"},
		{"ios", Descriptor{Platform: "ios"}, "platform"},
		{"freebsd", Descriptor{Platform: "freebsd"}, "platform"},
		{"windows_arm64", Descriptor{Platform: "windows", Architecture: "arm64"}, "architecture"},
		{"riscv", Descriptor{Architecture: "riscv64"}, "architecture"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Resolve(tt.desc)
			if !errors.Is(err, errs.ErrUnsupportedDescriptor) {
				t.Fatalf("Resolve() error = %v, want ErrUnsupportedDescriptor", err)
			}
			var ue *errs.UnsupportedError
			if !errors.As(err, &ue) {
				t.Fatalf("error is not *errs.UnsupportedError: %T", err)
			}
			if ue.Axis != tt.axis {
				t.Errorf("Axis = %q, want %q", ue.Axis, tt.axis)
			}
		})
	}
}

func TestResolve_HostIntrospectionOnlyFillsEmptyFields(t *testing.T) {
	r := newTestResolver(t, platform.OSMacOS, platform.ArchARM64)

	got, err := r.Resolve(Descriptor{Platform: "darwin", Architecture: "amd64"})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got.Platform != "macos" || got.Architecture != "x64" {
		t.Errorf("got %s/%s, want macos/x64", got.Platform, got.Architecture)
	}
	if got.Variant.Asset != "curl-impersonate-v1.0.0.x86_64-macos.tar.gz" {
		t.Errorf("Asset = %q", got.Variant.Asset)
	}
}

func TestResolve_TotalOverMatrix(t *testing.T) {
	r := newTestResolver(t, platform.OSLinux, platform.ArchX64)

	for browser, versions := range r.Matrix() {
		for version, platforms := range versions {
			for osName, archs := range platforms {
				for arch, variant := range archs {
					d := Descriptor{Browser: browser, Version: version, Platform: osName, Architecture: arch}
					got, err := r.Resolve(d)
					if err != nil {
						t.Errorf("Resolve(%v) error = %v", d, err)
						continue
					}
					if got.Variant != variant {
						t.Errorf("Resolve(%v) variant = %+v, want %+v", d, got.Variant, variant)
					}
					if got.Descriptor != d {
						t.Errorf("Resolve(%v) = %v, resolution is not idempotent", d, got.Descriptor)
					}
				}
			}
		}
	}
}

func TestResolve_Deterministic(t *testing.T) {
	r := newTestResolver(t, platform.OSWindows, platform.ArchX64)

	a, err := r.Resolve(Descriptor{Browser: "edge"})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	b, _ := r.Resolve(Descriptor{Browser: "edge"})
	if a.Key != b.Key || a.Variant != b.Variant {
		t.Errorf("resolution differs: %+v vs %+v", a, b)
	}
	if a.Variant.Binary != "curl-impersonate.exe" {
		t.Errorf("Binary = %q", a.Variant.Binary)
	}
	if !strings.HasSuffix(a.Variant.Asset, "x86_64-win32.zip") {
		t.Errorf("Asset = %q", a.Variant.Asset)
	}
}

func TestBrowsersShareKey(t *testing.T) {
	r := newTestResolver(t, platform.OSLinux, platform.ArchARM64)

	keys := make(map[string]bool)
	for _, browser := range profile.Browsers() {
		got, err := r.Resolve(Descriptor{Browser: browser})
		if err != nil {
			t.Fatalf("Resolve(%s) error = %v", browser, err)
		}
		keys[got.Key] = true
	}
	if len(keys) != 1 {
		t.Errorf("expected one shared key, got %v", keys)
	}
}

func TestNewResolver_Release(t *testing.T) {
	r, err := NewResolver(platform.Info{OS: "linux", Arch: "x64"}, "v1.1.2")
	if err != nil {
		t.Fatalf("NewResolver() error = %v", err)
	}
	if r.Release() != "1.1.2" {
		t.Errorf("Release() = %q", r.Release())
	}

	if _, err := NewResolver(platform.Info{}, "not-a-version"); err == nil {
		t.Error("expected error for invalid release")
	}
}

func TestVariantURL(t *testing.T) {
	v := Variant{Release: "1.0.0", Asset: "curl-impersonate-v1.0.0.arm64-macos.tar.gz"}

	if got := v.URL(""); got != DefaultBaseURL+"/v1.0.0/curl-impersonate-v1.0.0.arm64-macos.tar.gz" {
		t.Errorf("URL(\"\") = %q", got)
	}
	if got := v.URL("http://127.0.0.1:8080/"); got != "http://127.0.0.1:8080/v1.0.0/curl-impersonate-v1.0.0.arm64-macos.tar.gz" {
		t.Errorf("URL(custom) = %q", got)
	}
}

func TestKnownAxes(t *testing.T) {
	for _, osName := range KnownPlatforms() {
		for _, arch := range KnownArchitectures() {
			_, hasAsset := assetTargets[osName][arch]
			if Supported(osName, arch) != hasAsset {
				t.Errorf("Supported(%s, %s) disagrees with the asset table", osName, arch)
			}
		}
	}
	if Supported(platform.OSIOS, platform.ArchARM64) {
		t.Error("ios must not be supported")
	}
}
