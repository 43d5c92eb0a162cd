package compression

import (
	"archive/tar"
	"errors"
	"fmt"
	"io"

	"github.com/jmylchreest/artifact-reorg/internal/security"
)

// extractTar unpacks a (decompressed) tar stream into destDir.
func extractTar(r io.Reader, destDir string, opts Options) error {
	dest, err := openDestination(destDir)
	if err != nil {
		return err
	}
	defer dest.Close()

	tr := tar.NewReader(r)

	for {
		header, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return dest.finish()
		}
		if errors.Is(err, tar.ErrInsecurePath) {
			return fmt.Errorf("%w: %s: %v", ErrUnsafePath, header.Name, err)
		}
		if err != nil {
			return fmt.Errorf("failed to read tar archive: %w", err)
		}

		if err := security.ValidateFilePath(header.Name, destDir); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrUnsafePath, header.Name, err)
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := dest.makeDir(header.Name, header.FileInfo().Mode()); err != nil {
				return err
			}

		case tar.TypeReg:
			if err := dest.writeFile(header.Name, tr, header.FileInfo().Mode(), opts.MaxFileSize); err != nil {
				return err
			}

		case tar.TypeSymlink:
			if err := security.ValidateLinkTarget(header.Name, header.Linkname, destDir); err != nil {
				return fmt.Errorf("%w: %s: %v", ErrUnsafePath, header.Name, err)
			}
			if err := dest.writeSymlink(header.Name, header.Linkname); err != nil {
				return err
			}

		case tar.TypeLink:
			if err := security.ValidateFilePath(header.Linkname, destDir); err != nil {
				return fmt.Errorf("%w: %s: %v", ErrUnsafePath, header.Name, err)
			}
			if err := dest.writeHardlink(header.Name, header.Linkname); err != nil {
				return err
			}

		default:
			opts.Logger.Debug("skipping unsupported tar entry",
				"name", header.Name, "type", string(header.Typeflag))
		}
	}
}
