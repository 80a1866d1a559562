package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/nxcore/internal/pipeline"
	"github.com/roach88/nxcore/internal/structure"
)

// NewPreflightCommand creates the preflight command.
func NewPreflightCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preflight <pipeline>",
		Short: "Check a pipeline without allocating array data",
		Long: `Preflight every filter of a pipeline against an empty graph.

Each filter validates its arguments and lists the changes it would make.
Later filters see the shapes earlier ones would create, so a pipeline that
passes preflight is structurally sound. No array data is allocated.

Example:
  nxcore preflight mask.yaml
  nxcore preflight mask.cue --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPreflight(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

// preflightResult is the report in JSON and a summary line in text, where
// the report itself was already printed.
type preflightResult struct {
	pipeline.Report
	warnings int
}

func (r preflightResult) writeText(w io.Writer) {
	fmt.Fprintf(w, "✓ Preflight passed (%d filter(s), %d warning(s))\n", len(r.Nodes), r.warnings)
}

func runPreflight(opts *RootOptions, path string, cmd *cobra.Command) error {
	out := opts.printer(cmd)

	p, err := loadPipeline(opts, path, out)
	if err != nil {
		return out.Fail(loadFailure(path, err))
	}

	r := p.Preflight(contextOf(cmd), structure.New())
	if !out.JSON {
		writeReport(out.Out, r.Value)
	}
	if f := runFailure(CodePreflight, r); f != nil {
		return out.Fail(f)
	}
	return out.Result(preflightResult{Report: r.Value, warnings: len(r.Warnings)})
}
