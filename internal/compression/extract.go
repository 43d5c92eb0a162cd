// Package compression extracts release archives into a directory.
package compression

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-hclog"
)

// DefaultMaxFileSize is the default limit on the decompressed size of a single
// archive entry.
const DefaultMaxFileSize int64 = 1 << 30

var (
	// ErrUnsupportedFormat is returned for archives whose extension is not recognised.
	ErrUnsupportedFormat = errors.New("unsupported archive format")

	// ErrUnsafePath is returned for entries that would be written outside the
	// destination directory.
	ErrUnsafePath = errors.New("unsafe path in archive")
)

type format int

const (
	formatTar format = iota
	formatTarGz
	formatTarXz
	formatTarBz2
	formatTarZst
	formatZip
)

// extensions maps every recognised archive extension to its format.
var extensions = []struct {
	ext    string
	format format
}{
	{".tar.gz", formatTarGz},
	{".tgz", formatTarGz},
	{".tar.xz", formatTarXz},
	{".txz", formatTarXz},
	{".tar.bz2", formatTarBz2},
	{".tbz2", formatTarBz2},
	{".tbz", formatTarBz2},
	{".tar.zst", formatTarZst},
	{".tzst", formatTarZst},
	{".tar", formatTar},
	{".zip", formatZip},
}

// Options configures an extraction.
type Options struct {
	// MaxFileSize limits the decompressed size of each entry.
	// If zero, DefaultMaxFileSize is used.
	MaxFileSize int64

	// Logger receives debug output about skipped entries.
	// If nil, nothing is logged.
	Logger hclog.Logger
}

// DefaultOptions returns the options used when none are given.
func DefaultOptions() Options {
	return Options{
		MaxFileSize: DefaultMaxFileSize,
		Logger:      hclog.NewNullLogger(),
	}
}

func (o Options) withDefaults() Options {
	if o.MaxFileSize <= 0 {
		o.MaxFileSize = DefaultMaxFileSize
	}
	if o.Logger == nil {
		o.Logger = hclog.NewNullLogger()
	}
	return o
}

// ArchiveExtension returns the archive extension of filename, e.g. ".tar.gz".
// Matching is case-insensitive; the returned extension is as written in filename.
func ArchiveExtension(filename string) (string, bool) {
	ext, _, ok := detect(filename)
	return ext, ok
}

// TrimArchiveExtension removes the archive extension from filename.
// For example: "app-1.2.linux-armv6.tar.gz" -> "app-1.2.linux-armv6".
// Filenames without a recognised extension are returned unchanged.
func TrimArchiveExtension(filename string) string {
	ext, _, ok := detect(filename)
	if !ok {
		return filename
	}
	return filename[:len(filename)-len(ext)]
}

func detect(filename string) (string, format, bool) {
	lower := strings.ToLower(filename)
	for _, e := range extensions {
		if strings.HasSuffix(lower, e.ext) && len(lower) > len(e.ext) {
			return filename[len(filename)-len(e.ext):], e.format, true
		}
	}
	return "", 0, false
}

// Extract unpacks every entry of the archive at archivePath into destDir.
// The format is chosen from the file extension:
// - Tar archives (.tar, .tar.gz, .tar.xz, .tar.bz2, .tar.zst and short forms)
// - Zip archives (.zip)
func Extract(archivePath, destDir string, opts Options) error {
	opts = opts.withDefaults()

	name := filepath.Base(archivePath)
	_, f, ok := detect(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, name)
	}

	if f == formatZip {
		return extractZip(archivePath, destDir, opts)
	}

	file, err := os.Open(archivePath) // #nosec G304 - Archive path supplied by the user
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer file.Close()

	r, err := newDecompressor(f, file)
	if err != nil {
		return err
	}
	defer r.Close()

	return extractTar(r, destDir, opts)
}
