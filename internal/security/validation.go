// Package security provides path and size guards used while extracting archives.
package security

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// ErrSizeLimitExceeded is returned by LimitedReader once its budget is spent.
var ErrSizeLimitExceeded = errors.New("decompression size limit exceeded")

// ValidateFilePath validates a file path within an archive to prevent directory traversal.
func ValidateFilePath(filePath, baseDir string) error {
	if filePath == "" {
		return fmt.Errorf("empty file path")
	}

	// Only a whole ".." element is a traversal; "notes..txt" is a valid name.
	for _, part := range strings.FieldsFunc(filePath, isSeparator) {
		if part == ".." {
			return fmt.Errorf("file path contains directory traversal (..) - not allowed")
		}
	}

	if filepath.IsAbs(filePath) || strings.HasPrefix(filePath, "/") {
		return fmt.Errorf("absolute paths in archives are not allowed")
	}

	// Ensure the final path would be within baseDir
	if !within(filepath.Join(baseDir, filePath), baseDir) {
		return fmt.Errorf("file path would escape base directory")
	}

	return nil
}

// ValidateLinkTarget checks that a symbolic link created at linkPath (relative
// to baseDir) pointing at target does not resolve outside baseDir.
func ValidateLinkTarget(linkPath, target, baseDir string) error {
	if target == "" {
		return fmt.Errorf("empty link target for %s", linkPath)
	}
	if filepath.IsAbs(target) || strings.HasPrefix(target, "/") {
		return fmt.Errorf("absolute link target %q is not allowed", target)
	}

	resolved := filepath.Join(baseDir, filepath.Dir(linkPath), target)
	if !within(resolved, baseDir) {
		return fmt.Errorf("link target %q would escape base directory", target)
	}

	return nil
}

// isSeparator matches both slash styles; archives written on Windows may use
// backslashes.
func isSeparator(r rune) bool {
	return r == '/' || r == '\\'
}

func within(path, baseDir string) bool {
	cleanPath := filepath.Clean(path)
	cleanBase := filepath.Clean(baseDir)
	return cleanPath == cleanBase ||
		strings.HasPrefix(cleanPath, cleanBase+string(filepath.Separator))
}

// LimitedReader wraps an io.Reader and limits the total bytes that can be read.
// This prevents decompression bomb attacks when extracting archives.
type LimitedReader struct {
	R         io.Reader
	Remaining int64
}

// Read implements io.Reader with size limits.
//
// Reaching the limit exactly is not an error; the next read that still finds
// data in the underlying reader is.
func (l *LimitedReader) Read(p []byte) (int, error) {
	if l.Remaining <= 0 {
		var next [1]byte
		n, err := l.R.Read(next[:])
		if n > 0 {
			return 0, ErrSizeLimitExceeded
		}
		return 0, err
	}
	if int64(len(p)) > l.Remaining {
		p = p[:l.Remaining]
	}
	n, err := l.R.Read(p)
	l.Remaining -= int64(n)
	return n, err
}

// NewLimitedReader creates a new LimitedReader with the specified size limit.
func NewLimitedReader(r io.Reader, maxBytes int64) *LimitedReader {
	return &LimitedReader{
		R:         r,
		Remaining: maxBytes,
	}
}
