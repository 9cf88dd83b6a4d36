package platform

import (
	"context"
	"fmt"
	"runtime"

	"github.com/shirou/gopsutil/v4/host"
)

// RealDetector implements Detector using actual platform detection.
type RealDetector struct{}

// NewDetector creates a new platform detector.
func NewDetector() Detector {
	return &RealDetector{}
}

// Detect performs platform detection and returns platform information.
//
// OS and architecture come from the Go runtime and are mapped to release
// asset names; values with no mapping are passed through unchanged so the
// descriptor resolver can reject them with a precise axis. On Linux the
// distribution is read with gopsutil; failures leave the distro fields empty.
func (d *RealDetector) Detect(ctx context.Context) (*Info, error) {
	info := &Info{
		OS:     normalizeOS(runtime.GOOS),
		Arch:   normalizeArch(runtime.GOARCH),
		GOOS:   runtime.GOOS,
		GOARCH: runtime.GOARCH,
	}

	if runtime.GOOS != "linux" {
		return info, nil
	}

	distro, family, version, err := host.PlatformInformationWithContext(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("platform detection cancelled: %w", ctx.Err())
		}
		return info, nil
	}

	distro = normalizeDistro(distro)
	if distro != "" {
		info.Distro = distro
		info.Family = mapFamily(family)
		info.Version = normalizeDistro(version)
	}

	return info, nil
}
