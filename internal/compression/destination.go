package compression

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jmylchreest/artifact-reorg/internal/security"
)

// destination writes archive entries below a directory. Every filesystem
// operation goes through an os.Root, so a symlink extracted by an earlier
// entry can never redirect a later entry outside the directory.
type destination struct {
	dir  string
	root *os.Root

	// dirModes holds the archived permissions of directory entries. They are
	// applied once all entries are written.
	dirModes map[string]os.FileMode
}

func openDestination(dir string) (*destination, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create destination directory: %w", err)
	}
	root, err := os.OpenRoot(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open destination directory: %w", err)
	}
	return &destination{
		dir:      dir,
		root:     root,
		dirModes: make(map[string]os.FileMode),
	}, nil
}

// Close releases the root handle.
func (d *destination) Close() error {
	return d.root.Close()
}

// entryPath converts a slash-separated archive name to a path relative to the root.
func entryPath(name string) string {
	return filepath.Clean(filepath.FromSlash(name))
}

// makeDir creates a directory entry. It stays writable until finish so its
// children can be extracted.
func (d *destination) makeDir(name string, mode os.FileMode) error {
	rel := entryPath(name)
	if err := d.root.MkdirAll(rel, mode.Perm()|0o700); err != nil {
		return d.wrap(name, fmt.Errorf("failed to create directory: %w", err))
	}
	if rel != "." {
		d.dirModes[rel] = mode.Perm()
	}
	return nil
}

// writeFile copies r into a new file with the given permissions.
func (d *destination) writeFile(name string, r io.Reader, mode os.FileMode, maxSize int64) error {
	rel, err := d.prepare(name)
	if err != nil {
		return err
	}

	out, err := d.root.OpenFile(rel, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return d.wrap(name, fmt.Errorf("failed to create file: %w", err))
	}

	// Limit decompression size to prevent archive bombs
	limitedReader := security.NewLimitedReader(r, maxSize)
	_, copyErr := io.Copy(out, limitedReader)
	closeErr := out.Close()

	if copyErr != nil {
		return fmt.Errorf("failed to extract %s: failed to write file: %w", name, copyErr)
	}
	if closeErr != nil {
		return fmt.Errorf("failed to extract %s: failed to close file: %w", name, closeErr)
	}

	if err := d.root.Chmod(rel, mode.Perm()); err != nil {
		return d.wrap(name, fmt.Errorf("failed to set file mode: %w", err))
	}
	return nil
}

func (d *destination) writeSymlink(name, target string) error {
	rel, err := d.prepare(name)
	if err != nil {
		return err
	}
	if err := d.root.Symlink(target, rel); err != nil {
		return d.wrap(name, err)
	}
	return nil
}

func (d *destination) writeHardlink(name, existing string) error {
	rel, err := d.prepare(name)
	if err != nil {
		return err
	}
	if err := d.root.Link(entryPath(existing), rel); err != nil {
		return d.wrap(name, err, existing)
	}
	return nil
}

// prepare creates the parent directories of name and clears a previous entry
// of the same name, so that a later entry never writes through a symlink.
func (d *destination) prepare(name string) (string, error) {
	rel := entryPath(name)
	if err := d.root.MkdirAll(filepath.Dir(rel), 0o755); err != nil {
		return "", d.wrap(name, fmt.Errorf("failed to create parent directory: %w", err))
	}

	fi, err := d.root.Lstat(rel)
	if errors.Is(err, os.ErrNotExist) {
		return rel, nil
	}
	if err != nil {
		return "", d.wrap(name, err)
	}
	if fi.IsDir() {
		return "", fmt.Errorf("failed to extract %s: cannot replace directory with a file", name)
	}
	if err := d.root.Remove(rel); err != nil {
		return "", d.wrap(name, err)
	}
	return rel, nil
}

// finish applies the recorded directory permissions, deepest first.
func (d *destination) finish() error {
	dirs := make([]string, 0, len(d.dirModes))
	for dir := range d.dirModes {
		dirs = append(dirs, dir)
	}
	sort.Slice(dirs, func(i, j int) bool {
		di, dj := depth(dirs[i]), depth(dirs[j])
		if di != dj {
			return di > dj
		}
		return dirs[i] < dirs[j]
	})

	for _, dir := range dirs {
		if err := d.root.Chmod(dir, d.dirModes[dir]); err != nil {
			return fmt.Errorf("failed to set directory mode on %s: %w", dir, err)
		}
	}
	return nil
}

func depth(rel string) int {
	return strings.Count(rel, string(filepath.Separator))
}

// wrap annotates a failed root operation on name. When name (or another
// path the operation used) resolves outside the destination the error wraps
// ErrUnsafePath.
func (d *destination) wrap(name string, err error, others ...string) error {
	for _, p := range append([]string{name}, others...) {
		if d.escapes(p) {
			return fmt.Errorf("%w: %s: %v", ErrUnsafePath, name, err)
		}
	}
	return fmt.Errorf("failed to extract %s: %w", name, err)
}

// escapes reports whether the parent directory of the archive path name
// resolves, through symlinks on disk, to somewhere outside the destination.
func (d *destination) escapes(name string) bool {
	base, err := filepath.EvalSymlinks(d.dir)
	if err != nil {
		return false
	}
	parent, err := filepath.EvalSymlinks(filepath.Join(d.dir, filepath.Dir(entryPath(name))))
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(base, parent)
	if err != nil {
		return true
	}
	return !filepath.IsLocal(rel)
}
