package binary

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

const fakeBinary = "#!/bin/sh\necho fake curl-impersonate\n"

type archiveEntry struct {
	name    string
	content string
	dir     bool
}

func writeTar(t *testing.T, buf *bytes.Buffer, entries []archiveEntry) {
	t.Helper()

	tw := tar.NewWriter(buf)
	for _, e := range entries {
		header := &tar.Header{
			Name:     e.name,
			Mode:     0755,
			Size:     int64(len(e.content)),
			Typeflag: tar.TypeReg,
		}
		if e.dir {
			header.Typeflag = tar.TypeDir
			header.Size = 0
		}
		if err := tw.WriteHeader(header); err != nil {
			t.Fatalf("failed to write header for %s: %v", e.name, err)
		}
		if !e.dir {
			if _, err := tw.Write([]byte(e.content)); err != nil {
				t.Fatalf("failed to write content for %s: %v", e.name, err)
			}
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("failed to close tar: %v", err)
	}
}

// makeTarGz builds a gzip-compressed tar archive in memory.
func makeTarGz(t *testing.T, entries []archiveEntry) []byte {
	t.Helper()

	var tarBuf bytes.Buffer
	writeTar(t, &tarBuf, entries)

	var out bytes.Buffer
	gw := gzip.NewWriter(&out)
	if _, err := gw.Write(tarBuf.Bytes()); err != nil {
		t.Fatalf("failed to gzip: %v", err)
	}
	if err := gw.Close(); err != nil {
		t.Fatalf("failed to close gzip: %v", err)
	}
	return out.Bytes()
}

func makeTarZst(t *testing.T, entries []archiveEntry) []byte {
	t.Helper()

	var tarBuf bytes.Buffer
	writeTar(t, &tarBuf, entries)

	var out bytes.Buffer
	zw, err := zstd.NewWriter(&out)
	if err != nil {
		t.Fatalf("failed to create zstd writer: %v", err)
	}
	if _, err := zw.Write(tarBuf.Bytes()); err != nil {
		t.Fatalf("failed to zstd: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("failed to close zstd: %v", err)
	}
	return out.Bytes()
}

func makeZip(t *testing.T, entries []archiveEntry) []byte {
	t.Helper()

	var out bytes.Buffer
	zw := zip.NewWriter(&out)
	for _, e := range entries {
		w, err := zw.Create(e.name)
		if err != nil {
			t.Fatalf("failed to create zip entry %s: %v", e.name, err)
		}
		if _, err := w.Write([]byte(e.content)); err != nil {
			t.Fatalf("failed to write zip entry %s: %v", e.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("failed to close zip: %v", err)
	}
	return out.Bytes()
}

// releaseArchive mimics the layout of a curl-impersonate release.
func releaseArchive(t *testing.T) []byte {
	t.Helper()
	return makeTarGz(t, []archiveEntry{
		{name: "curl-impersonate", content: fakeBinary},
		{name: "curl_chrome131", content: "#!/bin/sh\nexec curl-impersonate \"$@\"\n"},
	})
}
