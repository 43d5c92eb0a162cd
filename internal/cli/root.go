// Package cli provides the command-line interface for artifact-reorg.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/jmylchreest/artifact-reorg/internal/compression"
	"github.com/jmylchreest/artifact-reorg/internal/relocate"
	"github.com/jmylchreest/artifact-reorg/internal/version"
)

type rootOptions struct {
	verbose     bool
	quiet       bool
	dryRun      bool
	maxFileSize int64
}

// NewRootCmd creates the artifact-reorg command.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "artifact-reorg <output-root> <input-root>",
		Short: "Reorganise release archives into a docker buildx platform tree",
		Long: `Untars platform release archives into the directory layout used by
docker buildx multi-platform builds.

Every regular file in <input-root> must be an archive named
<name>.<os>-<arch><ext>, containing a single top-level directory
<name>.<os>-<arch>. That directory is moved to <output-root>/<os>/<arch>,
with versioned ARM architectures split into arm/<variant>.

Supported archive formats: .tar, .tar.gz, .tgz, .tar.xz, .txz, .tar.bz2,
.tbz, .tbz2, .tar.zst, .tzst, .zip

Examples:
  # dist/app-1.2.linux-armv6.tar.gz -> build/linux/arm/v6
  artifact-reorg build dist

  # Show where each archive would go without extracting anything
  artifact-reorg --dry-run build dist`,
		Args:         cobra.ExactArgs(2),
		Version:      version.Short(),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRoot(cmd, args[0], args[1], opts)
		},
	}

	registerFlags(cmd.Flags(), opts)
	cmd.MarkFlagsMutuallyExclusive("verbose", "quiet")
	cmd.SetVersionTemplate(version.String() + "\n")

	return cmd
}

func registerFlags(flags *pflag.FlagSet, opts *rootOptions) {
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "enable verbose output")
	flags.BoolVarP(&opts.quiet, "quiet", "q", false, "suppress non-error output")
	flags.BoolVarP(&opts.dryRun, "dry-run", "n", false, "print the destination of each archive without extracting")
	flags.Int64Var(&opts.maxFileSize, "max-file-size", compression.DefaultMaxFileSize, "maximum decompressed size of a single archive entry in bytes")
}

func runRoot(cmd *cobra.Command, outputRoot, inputRoot string, opts *rootOptions) error {
	if opts.maxFileSize <= 0 {
		return fmt.Errorf("invalid --max-file-size %d: must be positive", opts.maxFileSize)
	}

	logger := newLogger(cmd.ErrOrStderr(), opts)
	relocator := relocate.New(
		relocate.WithLogger(logger),
		relocate.WithMaxFileSize(opts.maxFileSize),
	)

	summary, err := Run(outputRoot, inputRoot, RunOptions{
		DryRun:    opts.dryRun,
		Logger:    logger,
		Relocator: relocator,
	})
	if err != nil {
		return err
	}

	if opts.dryRun {
		t := newTable("ARCHIVE", "PLATFORM", "DESTINATION")
		for _, plan := range summary.Planned {
			t.addRow(plan.Archive, plan.Platform.String(), plan.Destination)
		}
		fmt.Fprint(cmd.OutOrStdout(), t.render())
		return nil
	}

	logger.Debug("run complete", "relocated", len(summary.Relocated), "skipped", len(summary.Skipped))
	return nil
}

// newLogger creates the logger for a run. Colour is only used when writing
// to a terminal.
func newLogger(w io.Writer, opts *rootOptions) hclog.Logger {
	level := hclog.Info
	switch {
	case opts.quiet:
		level = hclog.Error
	case opts.verbose:
		level = hclog.Debug
	}

	color := hclog.ColorOff
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) { // #nosec G115 - File descriptors fit in int
		color = hclog.AutoColor
	}

	return hclog.New(&hclog.LoggerOptions{
		Name:        "artifact-reorg",
		Output:      w,
		Level:       level,
		Color:       color,
		DisableTime: true,
	})
}
