package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-hclog"

	"github.com/jmylchreest/artifact-reorg/internal/relocate"
)

// RunOptions configures Run.
type RunOptions struct {
	// DryRun only computes where each archive would be moved.
	DryRun bool

	// Logger receives progress output. If nil, nothing is logged.
	Logger hclog.Logger

	// Relocator performs the extraction. If nil, relocate.New() is used.
	Relocator *relocate.Relocator
}

// Summary describes the outcome of a run.
type Summary struct {
	// Relocated holds the destination directory of each relocated archive.
	Relocated []string
	// Skipped holds the input entries that are not regular files.
	Skipped []string
	// Planned holds the relocation plans of a dry run.
	Planned []relocate.Plan
}

// Run relocates every regular file directly inside inputRoot into the platform
// tree under outputRoot. Subdirectories and other non-file entries are
// skipped. The first failure aborts the run.
func Run(outputRoot, inputRoot string, opts RunOptions) (*Summary, error) {
	logger := opts.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	relocator := opts.Relocator
	if relocator == nil {
		relocator = relocate.New(relocate.WithLogger(logger))
	}

	entries, err := os.ReadDir(inputRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to read input directory: %w", err)
	}

	summary := &Summary{}
	for _, entry := range entries {
		path := filepath.Join(inputRoot, entry.Name())

		// Follow symlinks; dangling links are not files.
		fi, err := os.Stat(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return summary, fmt.Errorf("failed to stat %s: %w", path, err)
		}
		if err != nil || !fi.Mode().IsRegular() {
			logger.Debug("skipping non-file entry", "path", path)
			summary.Skipped = append(summary.Skipped, entry.Name())
			continue
		}

		if opts.DryRun {
			plan, err := relocate.PlanDestination(path, outputRoot)
			if err != nil {
				return summary, err
			}
			summary.Planned = append(summary.Planned, plan)
			continue
		}

		dest, err := relocator.Relocate(path, outputRoot)
		if err != nil {
			return summary, err
		}
		summary.Relocated = append(summary.Relocated, dest)
	}

	return summary, nil
}
