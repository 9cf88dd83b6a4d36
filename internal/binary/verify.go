package binary

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	"github.com/ProtonMail/go-crypto/openpgp" //nolint:staticcheck // Using ProtonMail's maintained fork
)

// Verifier checks downloaded archives and extracted binaries.
type Verifier struct {
	checksums map[string]string
	keyring   openpgp.EntityList
}

// NewVerifier creates a verifier. checksums maps asset names to pinned
// SHA-256 digests in hex; keyring may be nil to skip signature checks.
func NewVerifier(checksums map[string]string, keyring openpgp.EntityList) *Verifier {
	pinned := make(map[string]string, len(checksums))
	for asset, sum := range checksums {
		pinned[asset] = strings.ToLower(strings.TrimSpace(sum))
	}
	return &Verifier{
		checksums: pinned,
		keyring:   keyring,
	}
}

// HasKeyring reports whether archive signatures are checked.
func (v *Verifier) HasKeyring() bool {
	return len(v.keyring) > 0
}

// VerifyChecksum compares the archive digest against the pinned value for
// asset. It reports whether a pinned value existed.
func (v *Verifier) VerifyChecksum(asset, actual string) (bool, error) {
	expected, ok := v.checksums[asset]
	if !ok {
		return false, nil
	}

	// Compare checksums (case-insensitive)
	if !strings.EqualFold(actual, expected) {
		return true, fmt.Errorf("checksum mismatch:\nactual:   %s\nexpected: %s", actual, expected)
	}
	return true, nil
}

// VerifySignature checks a detached signature over the archive, armored or
// binary.
func (v *Verifier) VerifySignature(archivePath, signaturePath string) error {
	if !v.HasKeyring() {
		return fmt.Errorf("no keyring configured")
	}

	archiveFile, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer archiveFile.Close()

	sigFile, err := os.Open(signaturePath)
	if err != nil {
		return fmt.Errorf("open signature: %w", err)
	}
	defer sigFile.Close()

	// Verify signature (try armored first)
	_, err = openpgp.CheckArmoredDetachedSignature(v.keyring, archiveFile, sigFile, nil)
	if err != nil {
		// Try non-armored signature
		archiveFile.Seek(0, io.SeekStart)
		sigFile.Seek(0, io.SeekStart)
		_, err = openpgp.CheckDetachedSignature(v.keyring, archiveFile, sigFile, nil)
	}
	if err != nil {
		return fmt.Errorf("verify signature: %w", err)
	}
	return nil
}

// VerifyExecutable checks that path is a regular, non-empty file with an
// executable bit. The bit is not checked on Windows.
func VerifyExecutable(path string) (os.FileInfo, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat binary: %w", err)
	}

	// Check if it's a regular file
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%s is not a regular file", path)
	}
	if info.Size() == 0 {
		return nil, fmt.Errorf("%s is empty", path)
	}

	// Check if it's executable
	if runtime.GOOS != "windows" && info.Mode().Perm()&0111 == 0 {
		return nil, fmt.Errorf("%s is not executable", path)
	}

	return info, nil
}

// LoadKeyring loads an OpenPGP public keyring from path, armored or binary.
func LoadKeyring(path string) (openpgp.EntityList, error) {
	keyringFile, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open keyring: %w", err)
	}
	defer keyringFile.Close()

	keyring, err := openpgp.ReadArmoredKeyRing(keyringFile)
	if err != nil {
		// Try reading as non-armored keyring
		keyringFile.Seek(0, io.SeekStart)
		keyring, err = openpgp.ReadKeyRing(keyringFile)
		if err != nil {
			return nil, fmt.Errorf("read keyring: %w", err)
		}
	}

	if len(keyring) == 0 {
		return nil, fmt.Errorf("keyring is empty")
	}

	return keyring, nil
}

// calculateSHA256 calculates the SHA256 checksum of a file
func calculateSHA256(filePath string) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", err
	}
	defer file.Close()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return "", err
	}

	return hex.EncodeToString(hasher.Sum(nil)), nil
}
