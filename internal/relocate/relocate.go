// Package relocate moves the contents of platform release archives into a
// docker buildx TARGETPLATFORM directory tree.
package relocate

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/jmylchreest/artifact-reorg/internal/compression"
	"github.com/jmylchreest/artifact-reorg/internal/platform"
)

var (
	// ErrMissingEntry is returned when an archive does not contain the
	// top-level directory implied by its file name.
	ErrMissingEntry = errors.New("expected entry not found in archive")

	// ErrDestinationExists is returned when the platform directory is already present.
	ErrDestinationExists = errors.New("destination already exists")
)

// Plan describes where an archive will be relocated to.
type Plan struct {
	// Archive is the path of the archive.
	Archive string
	// InnerDir is the name of the archive's top-level directory,
	// e.g. "app-1.2.linux-armv6".
	InnerDir string
	// Platform is the platform parsed from the archive name.
	Platform platform.Platform
	// Destination is the directory the inner directory is moved to,
	// e.g. "out/linux/arm/v6".
	Destination string
}

// PlanDestination derives the relocation plan for archivePath without
// touching the filesystem. The archive name must have the form
// <name>.<os>-<arch><archive extension>.
func PlanDestination(archivePath, outputRoot string) (Plan, error) {
	name := filepath.Base(archivePath)
	if _, ok := compression.ArchiveExtension(name); !ok {
		return Plan{}, fmt.Errorf("%w: %s", compression.ErrUnsupportedFormat, name)
	}

	inner := compression.TrimArchiveExtension(name)
	idx := strings.LastIndex(inner, ".")
	if idx < 0 {
		return Plan{}, fmt.Errorf("%w: %q has no platform suffix", platform.ErrMalformedSuffix, name)
	}

	p, err := platform.Resolve(inner[idx+1:])
	if err != nil {
		return Plan{}, fmt.Errorf("archive %s: %w", name, err)
	}

	return Plan{
		Archive:     archivePath,
		InnerDir:    inner,
		Platform:    p,
		Destination: filepath.Join(outputRoot, p.Path()),
	}, nil
}

// Relocator extracts archives and moves their top-level directory to the
// platform path under an output root.
type Relocator struct {
	logger  hclog.Logger
	extract compression.Options
	tempDir string
}

// Option configures a Relocator.
type Option func(*Relocator)

// WithLogger sets the logger. The default discards all output.
func WithLogger(logger hclog.Logger) Option {
	return func(r *Relocator) {
		r.logger = logger
	}
}

// WithMaxFileSize limits the decompressed size of each archive entry.
func WithMaxFileSize(n int64) Option {
	return func(r *Relocator) {
		r.extract.MaxFileSize = n
	}
}

// WithTempDir sets the parent directory of the scratch extraction directories.
// The default is os.TempDir().
func WithTempDir(dir string) Option {
	return func(r *Relocator) {
		r.tempDir = dir
	}
}

// New creates a Relocator.
func New(opts ...Option) *Relocator {
	r := &Relocator{
		logger:  hclog.NewNullLogger(),
		extract: compression.DefaultOptions(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.extract.Logger = r.logger
	return r
}

// Relocate extracts archivePath into a scratch directory and moves its
// top-level directory to the platform path under outputRoot. It returns the
// final directory. The scratch directory is always removed.
func (r *Relocator) Relocate(archivePath, outputRoot string) (string, error) {
	plan, err := PlanDestination(archivePath, outputRoot)
	if err != nil {
		return "", err
	}

	tmpDir, err := os.MkdirTemp(r.tempDir, "artifact-reorg-")
	if err != nil {
		return "", fmt.Errorf("failed to create extraction directory: %w", err)
	}
	defer func() {
		if err := removeTree(tmpDir); err != nil {
			r.logger.Warn("failed to remove extraction directory", "dir", tmpDir, "error", err)
		}
	}()

	r.logger.Debug("extracting archive", "archive", archivePath, "dir", tmpDir)
	if err := compression.Extract(archivePath, tmpDir, r.extract); err != nil {
		return "", fmt.Errorf("failed to extract %s: %w", filepath.Base(archivePath), err)
	}

	src := filepath.Join(tmpDir, plan.InnerDir)
	if _, err := os.Lstat(src); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s does not contain %s", ErrMissingEntry, filepath.Base(archivePath), plan.InnerDir)
		}
		return "", err
	}

	if _, err := os.Lstat(plan.Destination); err == nil {
		return "", fmt.Errorf("%w: %s", ErrDestinationExists, plan.Destination)
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(plan.Destination), 0o755); err != nil {
		return "", fmt.Errorf("failed to create platform directory: %w", err)
	}

	r.logger.Debug("moving extracted directory", "from", src, "to", plan.Destination)
	if err := move(src, plan.Destination); err != nil {
		return "", fmt.Errorf("failed to move %s to %s: %w", plan.InnerDir, plan.Destination, err)
	}

	r.logger.Info("relocated archive",
		"archive", filepath.Base(archivePath),
		"platform", plan.Platform.String(),
		"destination", plan.Destination)

	return plan.Destination, nil
}
