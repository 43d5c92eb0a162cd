// Package archivetest provides shared test utilities for building release archives.
package archivetest

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
)

// Entry describes a single archive member.
type Entry struct {
	Name     string
	Body     string
	Mode     os.FileMode
	Linkname string // symlink target; Body is ignored when set
	Hardlink string // tar hard link target; not supported for zip
}

// IsDir reports whether the entry is a directory (its name ends in '/').
func (e Entry) IsDir() bool {
	return strings.HasSuffix(e.Name, "/")
}

// Release returns the entries of a typical release archive whose single
// top-level directory is root.
func Release(root string) []Entry {
	return []Entry{
		{Name: root + "/", Mode: 0o755},
		{Name: root + "/app", Body: "#!/bin/sh\necho app\n", Mode: 0o755},
		{Name: root + "/README.md", Body: "readme\n", Mode: 0o644},
		{Name: root + "/docs/", Mode: 0o755},
		{Name: root + "/docs/LICENSE", Body: "license\n", Mode: 0o644},
	}
}

// Write creates an archive at path, choosing the format from its extension.
// Supported extensions are .tar, .tar.gz, .tgz, .tar.xz, .tar.zst and .zip.
func Write(t *testing.T, path string, entries []Entry) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("failed to create archive directory: %v", err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create archive: %v", err)
	}
	defer f.Close()

	switch {
	case strings.HasSuffix(path, ".zip"):
		writeZip(t, f, entries)
	case strings.HasSuffix(path, ".tar.gz"), strings.HasSuffix(path, ".tgz"):
		gzw := gzip.NewWriter(f)
		writeTar(t, gzw, entries)
		closeOrFail(t, gzw)
	case strings.HasSuffix(path, ".tar.xz"):
		xzw, err := xz.NewWriter(f)
		if err != nil {
			t.Fatalf("failed to create xz writer: %v", err)
		}
		writeTar(t, xzw, entries)
		closeOrFail(t, xzw)
	case strings.HasSuffix(path, ".tar.zst"):
		zw, err := zstd.NewWriter(f)
		if err != nil {
			t.Fatalf("failed to create zstd writer: %v", err)
		}
		writeTar(t, zw, entries)
		closeOrFail(t, zw)
	case strings.HasSuffix(path, ".tar"):
		writeTar(t, f, entries)
	default:
		t.Fatalf("archivetest: unsupported archive extension: %s", path)
	}
}

func writeTar(t *testing.T, w io.Writer, entries []Entry) {
	t.Helper()

	tw := tar.NewWriter(w)
	for _, e := range entries {
		hdr := &tar.Header{
			Name: e.Name,
			Mode: int64(e.Mode.Perm()),
		}
		switch {
		case e.IsDir():
			hdr.Typeflag = tar.TypeDir
		case e.Linkname != "":
			hdr.Typeflag = tar.TypeSymlink
			hdr.Linkname = e.Linkname
		case e.Hardlink != "":
			hdr.Typeflag = tar.TypeLink
			hdr.Linkname = e.Hardlink
		default:
			hdr.Typeflag = tar.TypeReg
			hdr.Size = int64(len(e.Body))
		}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatalf("failed to write tar header: %v", err)
		}
		if hdr.Typeflag == tar.TypeReg {
			if _, err := io.WriteString(tw, e.Body); err != nil {
				t.Fatalf("failed to write tar body: %v", err)
			}
		}
	}
	closeOrFail(t, tw)
}

func writeZip(t *testing.T, w io.Writer, entries []Entry) {
	t.Helper()

	zw := zip.NewWriter(w)
	for _, e := range entries {
		if e.Hardlink != "" {
			t.Fatalf("archivetest: zip cannot hold hard link %s", e.Name)
		}
		hdr := &zip.FileHeader{Name: e.Name, Method: zip.Deflate}
		switch {
		case e.IsDir():
			hdr.SetMode(os.ModeDir | e.Mode.Perm())
		case e.Linkname != "":
			hdr.SetMode(os.ModeSymlink | 0o777)
		default:
			hdr.SetMode(e.Mode.Perm())
		}
		fw, err := zw.CreateHeader(hdr)
		if err != nil {
			t.Fatalf("failed to write zip header: %v", err)
		}
		body := e.Body
		if e.Linkname != "" {
			body = e.Linkname
		}
		if !e.IsDir() {
			if _, err := io.WriteString(fw, body); err != nil {
				t.Fatalf("failed to write zip body: %v", err)
			}
		}
	}
	closeOrFail(t, zw)
}

func closeOrFail(t *testing.T, c io.Closer) {
	t.Helper()
	if err := c.Close(); err != nil {
		t.Fatalf("failed to close archive writer: %v", err)
	}
}
