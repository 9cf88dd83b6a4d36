// Package binary provisions the curl-impersonate executable: it downloads the
// release archive for a resolved descriptor, extracts and verifies the binary,
// and keeps it in a local cache keyed by release, platform and architecture.
//
// # Cache Layout
//
//	<root>/<key>/curl-impersonate[.exe]
//	<root>/<key>/record.json
//	<root>/<key>.lock
//	<root>/.staging-<key>-*
//
// The root defaults to ~/.cuimp/binaries, falling back to ./binaries when the
// home directory is unavailable or not writable.
//
// # Lifecycle
//
// Each key moves through Absent, Downloading, Extracting, Verifying and
// Ready. A key directory only ever appears through an atomic rename of a
// fully verified staging directory, so a half-written binary is never
// observed as Ready. A Ready key returns to Downloading when the caller
// forces a refresh or the cached binary no longer verifies.
//
// # Verification
//
//   - The binary must exist, be a regular non-empty file and carry an
//     executable bit (not checked on Windows).
//   - When a SHA-256 is pinned for the asset, the archive must match it.
//   - When an OpenPGP keyring is configured, the archive's detached signature
//     (<asset>.sig) must verify against it.
//
// # Concurrency
//
// Concurrent Ensure calls for one key share a single provisioning run within
// the process; a lock file next to the key directory serializes runs across
// processes. Ready records are memoized so hot-path lookups take no lock.
package binary
