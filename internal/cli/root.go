package cli

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/nxcore/internal/pipeline"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigFile string
	NoColor    bool

	// Pipeline holds the runtime knobs resolved from the config file and
	// environment.
	Pipeline pipeline.Config
	// Logger is installed by the root command before any subcommand runs.
	Logger *slog.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// logger returns the configured logger, or one that drops everything when
// a command runs without the root command.
func (o *RootOptions) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return o.Logger
}

// printer builds the result printer for cmd.
func (o *RootOptions) printer(cmd *cobra.Command) *Printer {
	return &Printer{
		JSON:    o.Format == "json",
		Verbose: o.Verbose,
		Out:     cmd.OutOrStdout(),
		Diag:    cmd.ErrOrStderr(),
	}
}

// NewRootCommand creates the root command for the nxcore CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{Pipeline: pipeline.DefaultConfig()}

	cmd := &cobra.Command{
		Use:   "nxcore",
		Short: "nxcore - hierarchical data graph and filter pipelines",
		Long: `Run filter pipelines over a hierarchical graph of groups, geometries and
typed arrays.

Pipelines are YAML or CUE files listing filters in order. preflight checks
a pipeline without allocating any array data; run executes it and saves
the resulting graph.

Configuration sources (in order of precedence):
  1. Command line flags
  2. Environment variables (NXCORE_*, e.g. NXCORE_PIPELINE_WORKERS=4)
  3. Configuration file (--config, ./nxcore.yaml or ~/.nxcore/nxcore.yaml)`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := loadSettings(opts, cmd.Flags()); err != nil {
				return commandFailure(CodeGeneric, "load configuration", err)
			}
			if !isValidFormat(opts.Format) {
				return commandFailure(CodeGeneric, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats), nil)
			}
			opts.Logger = newLogger(cmd.ErrOrStderr(), opts.Verbose, opts.NoColor)
			slog.SetDefault(opts.Logger)
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigFile, "config", "", "config file (default ./nxcore.yaml or ~/.nxcore/nxcore.yaml)")
	cmd.PersistentFlags().BoolVar(&opts.NoColor, "no-color", false, "disable colored log output")

	// Add subcommands
	cmd.AddCommand(NewPreflightCommand(opts))
	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewInspectCommand(opts))
	cmd.AddCommand(NewFiltersCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
