package binary

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// MaxBinarySize bounds the size of an extracted executable.
const MaxBinarySize = 512 << 20

// Format is an archive container format.
type Format int

const (
	FormatUnknown Format = iota
	FormatTarGzip
	FormatTarZstd
	FormatTar
	FormatZip
)

func (f Format) String() string {
	switch f {
	case FormatTarGzip:
		return "tar.gz"
	case FormatTarZstd:
		return "tar.zst"
	case FormatTar:
		return "tar"
	case FormatZip:
		return "zip"
	default:
		return "unknown"
	}
}

var (
	magicGzip = []byte{0x1f, 0x8b}
	magicZstd = []byte{0x28, 0xb5, 0x2f, 0xfd}
	magicZip  = []byte("PK\x03\x04")
	magicTar  = []byte("ustar")
)

// ErrBinaryNotFound is returned when the archive holds no entry with the
// expected executable name.
var ErrBinaryNotFound = errors.New("binary not found in archive")

// Extractor handles archive extraction
type Extractor struct{}

// NewExtractor creates a new extractor
func NewExtractor() *Extractor {
	return &Extractor{}
}

// DetectFormat identifies an archive by its leading bytes.
func DetectFormat(archivePath string) (Format, error) {
	f, err := os.Open(archivePath)
	if err != nil {
		return FormatUnknown, fmt.Errorf("open archive: %w", err)
	}
	defer f.Close()

	head := make([]byte, 262)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return FormatUnknown, fmt.Errorf("read archive header: %w", err)
	}
	head = head[:n]

	switch {
	case bytes.HasPrefix(head, magicGzip):
		return FormatTarGzip, nil
	case bytes.HasPrefix(head, magicZstd):
		return FormatTarZstd, nil
	case bytes.HasPrefix(head, magicZip):
		return FormatZip, nil
	case len(head) >= 262 && bytes.Equal(head[257:262], magicTar):
		return FormatTar, nil
	default:
		return FormatUnknown, nil
	}
}

// ExtractBinary extracts the regular file named binaryName from the archive
// at archivePath into destPath with executable permissions. Every entry name
// is checked; an archive containing absolute or parent-relative paths is
// rejected as a whole.
func (e *Extractor) ExtractBinary(archivePath, destPath, binaryName string) error {
	format, err := DetectFormat(archivePath)
	if err != nil {
		return err
	}

	switch format {
	case FormatZip:
		return e.extractZip(archivePath, destPath, binaryName)
	case FormatTarGzip, FormatTarZstd, FormatTar:
		return e.extractTar(archivePath, format, destPath, binaryName)
	default:
		return fmt.Errorf("unrecognized archive format: %s", filepath.Base(archivePath))
	}
}

func (e *Extractor) extractTar(archivePath string, format Format, destPath, binaryName string) error {
	archiveFile, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer archiveFile.Close()

	var r io.Reader = archiveFile
	switch format {
	case FormatTarGzip:
		gzipReader, err := gzip.NewReader(archiveFile)
		if err != nil {
			return fmt.Errorf("create gzip reader: %w", err)
		}
		defer gzipReader.Close()
		r = gzipReader
	case FormatTarZstd:
		zstdReader, err := zstd.NewReader(archiveFile)
		if err != nil {
			return fmt.Errorf("create zstd reader: %w", err)
		}
		defer zstdReader.Close()
		r = zstdReader
	}

	tarReader := tar.NewReader(r)
	found := false
	for {
		header, err := tarReader.Next()
		if err == io.EOF {
			break // End of archive
		}
		if err != nil {
			return fmt.Errorf("read tar header: %w", err)
		}

		if err := checkEntryName(header.Name); err != nil {
			return err
		}

		if found || header.Typeflag != tar.TypeReg || path.Base(header.Name) != binaryName {
			continue
		}
		if err := writeExecutable(destPath, tarReader); err != nil {
			return err
		}
		found = true
	}

	if !found {
		return fmt.Errorf("%w: %s", ErrBinaryNotFound, binaryName)
	}
	return nil
}

func (e *Extractor) extractZip(archivePath, destPath, binaryName string) error {
	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("open zip: %w", err)
	}
	defer zr.Close()

	var target *zip.File
	for _, f := range zr.File {
		if err := checkEntryName(f.Name); err != nil {
			return err
		}
		if target == nil && f.Mode().IsRegular() && path.Base(f.Name) == binaryName {
			target = f
		}
	}
	if target == nil {
		return fmt.Errorf("%w: %s", ErrBinaryNotFound, binaryName)
	}

	rc, err := target.Open()
	if err != nil {
		return fmt.Errorf("open %s: %w", target.Name, err)
	}
	defer rc.Close()

	return writeExecutable(destPath, rc)
}

// checkEntryName prevents path traversal.
func checkEntryName(name string) error {
	clean := path.Clean(strings.ReplaceAll(name, `\`, "/"))
	if path.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, "../") || filepath.VolumeName(name) != "" {
		return fmt.Errorf("illegal file path: %s", name)
	}
	return nil
}

func writeExecutable(destPath string, r io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return fmt.Errorf("create dest dir: %w", err)
	}

	// Create destination file with executable permissions
	outFile, err := os.OpenFile(destPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0755)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}

	n, err := io.Copy(outFile, io.LimitReader(r, MaxBinarySize+1))
	if err != nil {
		outFile.Close()
		return fmt.Errorf("write file: %w", err)
	}
	if n > MaxBinarySize {
		outFile.Close()
		return fmt.Errorf("binary exceeds %d bytes", MaxBinarySize)
	}

	if err := outFile.Close(); err != nil {
		return fmt.Errorf("close file: %w", err)
	}

	// umask may have stripped bits at creation
	return SetExecutable(destPath)
}

// SetExecutable sets executable permissions on a file
func SetExecutable(path string) error {
	// Set permissions to 0755 (rwxr-xr-x)
	if err := os.Chmod(path, 0755); err != nil {
		return fmt.Errorf("set executable: %w", err)
	}
	return nil
}
