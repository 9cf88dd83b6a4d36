package binary

import (
	"time"
)

// State is a provisioning state of a cache key.
type State int

const (
	StateAbsent State = iota
	StateDownloading
	StateExtracting
	StateVerifying
	StateReady
)

// String returns the string representation of the state
func (s State) String() string {
	switch s {
	case StateAbsent:
		return "absent"
	case StateDownloading:
		return "downloading"
	case StateExtracting:
		return "extracting"
	case StateVerifying:
		return "verifying"
	case StateReady:
		return "ready"
	default:
		return "unknown"
	}
}

// StateFunc observes state transitions of a key.
type StateFunc func(key string, state State)

// ProgressFunc receives download progress. total is -1 when unknown.
type ProgressFunc func(downloaded, total int64)

// Record sources.
const (
	SourceDownload = "download"
	SourceSystem   = "system"
	SourceExplicit = "explicit"
)

// VerificationMethod indicates how a binary was verified
type VerificationMethod int

const (
	// VerificationExecutable indicates the on-disk executable checks passed
	VerificationExecutable VerificationMethod = iota
	// VerificationSHA256 indicates the archive matched a pinned checksum
	VerificationSHA256
	// VerificationOpenPGP indicates the archive signature verified
	VerificationOpenPGP
)

// String returns the string representation of the verification method
func (v VerificationMethod) String() string {
	switch v {
	case VerificationExecutable:
		return "executable"
	case VerificationSHA256:
		return "sha256"
	case VerificationOpenPGP:
		return "openpgp"
	default:
		return "unknown"
	}
}

// Record describes a Ready binary.
type Record struct {
	Key           string    `json:"key"`
	Path          string    `json:"path"`
	Release       string    `json:"release,omitempty"`
	Asset         string    `json:"asset,omitempty"`
	URL           string    `json:"url,omitempty"`
	ArchiveSHA256 string    `json:"archive_sha256,omitempty"`
	BinarySHA256  string    `json:"binary_sha256,omitempty"`
	Size          int64     `json:"size"`
	Executable    bool      `json:"executable"`
	Verified      []string  `json:"verified,omitempty"`
	Source        string    `json:"source"`
	AcquiredAt    time.Time `json:"acquired_at"`
}

// EnsureOptions configures a single Ensure call.
type EnsureOptions struct {
	// Force discards any cached binary and provisions it again.
	Force bool
}

// DownloadResult contains information about a completed download
type DownloadResult struct {
	Path     string
	SHA256   string
	Size     int64
	Duration time.Duration
}
