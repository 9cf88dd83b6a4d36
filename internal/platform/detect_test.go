package platform

import (
	"context"
	"runtime"
	"testing"
)

func TestRealDetector_Detect(t *testing.T) {
	info, err := NewDetector().Detect(context.Background())
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}

	if info.GOOS != runtime.GOOS {
		t.Errorf("GOOS = %v, want %v", info.GOOS, runtime.GOOS)
	}
	if info.GOARCH != runtime.GOARCH {
		t.Errorf("GOARCH = %v, want %v", info.GOARCH, runtime.GOARCH)
	}
	if info.OS != NormalizeOS(runtime.GOOS) {
		t.Errorf("OS = %v, want %v", info.OS, NormalizeOS(runtime.GOOS))
	}
	if info.Arch != NormalizeArch(runtime.GOARCH) {
		t.Errorf("Arch = %v, want %v", info.Arch, NormalizeArch(runtime.GOARCH))
	}

	if info.Distro != "" && info.Family == "" {
		t.Error("If Distro is set, Family should also be set")
	}
	if runtime.GOOS != "linux" && info.Distro != "" {
		t.Errorf("Distro should be empty on %s, got %q", runtime.GOOS, info.Distro)
	}
}

func TestRealDetector_CancelledContext(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("distro detection only runs on linux")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// gopsutil may answer from cache before noticing cancellation; either
	// outcome is acceptable as long as a returned info is well formed.
	info, err := NewDetector().Detect(ctx)
	if err == nil && info.GOOS != runtime.GOOS {
		t.Errorf("GOOS = %v, want %v", info.GOOS, runtime.GOOS)
	}
}

func TestStaticDetector(t *testing.T) {
	d := StaticDetector{Info: Info{OS: OSMacOS, Arch: ArchARM64}}

	info, err := d.Detect(context.Background())
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if !info.IsAppleSilicon() {
		t.Errorf("expected Apple Silicon, got %+v", info)
	}

	info.OS = OSLinux
	again, _ := d.Detect(context.Background())
	if again.OS != OSMacOS {
		t.Error("StaticDetector must return a copy")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := d.Detect(ctx); err == nil {
		t.Error("expected error for cancelled context")
	}
}
