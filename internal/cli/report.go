package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/nxcore/internal/filter"
	"github.com/roach88/nxcore/internal/filters"
	"github.com/roach88/nxcore/internal/pipeline"
)

// loadPipeline reads a pipeline file and binds it to the built-in filters.
func loadPipeline(opts *RootOptions, path string, p *Printer, extra ...pipeline.Option) (*pipeline.Pipeline, error) {
	file, err := pipeline.LoadFile(path)
	if err != nil {
		return nil, err
	}
	p.Logf("Loaded pipeline %q with %d step(s) from %s", file.Name, len(file.Pipeline), path)

	reg, err := filters.NewRegistry()
	if err != nil {
		return nil, err
	}
	popts := append([]pipeline.Option{
		pipeline.WithConfig(opts.Pipeline),
		pipeline.WithLogger(opts.logger()),
		pipeline.WithMessageHandler(func(m filter.Message) {
			p.Logf("[%s] %s", m.Severity, m.Text)
		}),
	}, extra...)
	return file.Build(reg, popts...)
}

// writeReport prints a report one filter at a time.
func writeReport(w io.Writer, rep pipeline.Report) {
	fmt.Fprintf(w, "Pipeline %s (%s)\n", rep.Pipeline, rep.Mode)
	for _, n := range rep.Nodes {
		fmt.Fprintf(w, "  [%d] %s (%s)\n", n.Index, n.Filter, n.Duration)
		for _, a := range n.Actions.Actions {
			fmt.Fprintf(w, "      + %s\n", a)
		}
		for _, v := range n.Values {
			fmt.Fprintf(w, "      %s = %s\n", v.Name, v.Value)
		}
		for _, wn := range n.Warnings {
			fmt.Fprintf(w, "      warning [%d]: %s\n", wn.Code, wn.Message)
		}
		for _, e := range n.Errors {
			fmt.Fprintf(w, "      error [%d]: %s\n", e.Code, e.Message)
		}
	}
}

// contextOf returns the command's context, which is nil when a test calls
// Execute without one.
func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
