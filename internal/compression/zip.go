package compression

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/jmylchreest/artifact-reorg/internal/security"
)

// maxLinkTarget bounds the size of a symlink target stored in a zip entry.
const maxLinkTarget = 4096

// extractZip unpacks a zip archive into destDir.
func extractZip(archivePath, destDir string, opts Options) error {
	zr, err := zip.OpenReader(archivePath)
	if errors.Is(err, zip.ErrInsecurePath) {
		if zr != nil {
			zr.Close()
		}
		return fmt.Errorf("%w: %v", ErrUnsafePath, err)
	}
	if err != nil {
		return fmt.Errorf("failed to create zip reader: %w", err)
	}
	defer zr.Close()

	dest, err := openDestination(destDir)
	if err != nil {
		return err
	}
	defer dest.Close()

	for _, f := range zr.File {
		if err := security.ValidateFilePath(f.Name, destDir); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrUnsafePath, f.Name, err)
		}
		mode := f.Mode()

		switch {
		case mode.IsDir():
			if err := dest.makeDir(f.Name, mode); err != nil {
				return err
			}

		case mode&os.ModeSymlink != 0:
			linkTarget, err := readZipLink(f)
			if err != nil {
				return fmt.Errorf("failed to extract %s: %w", f.Name, err)
			}
			if err := security.ValidateLinkTarget(f.Name, linkTarget, destDir); err != nil {
				return fmt.Errorf("%w: %s: %v", ErrUnsafePath, f.Name, err)
			}
			if err := dest.writeSymlink(f.Name, linkTarget); err != nil {
				return err
			}

		case mode.IsRegular():
			if err := extractZipFile(dest, f, opts.MaxFileSize); err != nil {
				return err
			}

		default:
			opts.Logger.Debug("skipping unsupported zip entry", "name", f.Name, "mode", mode.String())
		}
	}

	return dest.finish()
}

func extractZipFile(dest *destination, f *zip.File, maxSize int64) error {
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("failed to extract %s: failed to open file in archive: %w", f.Name, err)
	}
	defer rc.Close()

	// Zips written on Windows carry no unix permissions.
	mode := f.Mode()
	if mode.Perm() == 0 {
		mode |= 0o644
	}
	return dest.writeFile(f.Name, rc, mode, maxSize)
}

func readZipLink(f *zip.File) (string, error) {
	rc, err := f.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open file in archive: %w", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(security.NewLimitedReader(rc, maxLinkTarget))
	if err != nil {
		return "", fmt.Errorf("failed to read link target: %w", err)
	}
	return string(data), nil
}
