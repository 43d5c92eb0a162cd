package compression

import (
	"compress/bzip2"
	"compress/gzip"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
)

// newDecompressor wraps r in the stream decoder for the tar flavour f.
func newDecompressor(f format, r io.Reader) (io.ReadCloser, error) {
	switch f {
	case formatTar:
		return io.NopCloser(r), nil

	case formatTarGz:
		gzr, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		return gzr, nil

	case formatTarXz:
		xzr, err := xz.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("failed to create xz reader: %w", err)
		}
		return io.NopCloser(xzr), nil

	case formatTarBz2:
		return io.NopCloser(bzip2.NewReader(r)), nil

	case formatTarZst:
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd reader: %w", err)
		}
		return zr.IOReadCloser(), nil
	}

	return nil, fmt.Errorf("%w: not a tar stream", ErrUnsupportedFormat)
}
