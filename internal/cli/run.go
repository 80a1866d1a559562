package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/nxcore/internal/pipeline"
	"github.com/roach88/nxcore/internal/store"
	"github.com/roach88/nxcore/internal/structure"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Output string
}

// RunSummary is the JSON payload of a successful run.
type RunSummary struct {
	Report  pipeline.Report `json:"report"`
	Output  string          `json:"output"`
	Objects int             `json:"objects"`
}

func (s RunSummary) writeText(w io.Writer) {
	fmt.Fprintf(w, "✓ Wrote %d object(s) to %s\n", s.Objects, s.Output)
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <pipeline>",
		Short: "Execute a pipeline and save the resulting graph",
		Long: `Execute every filter of a pipeline against an empty graph and save the
result to a SQLite graph file.

Arrays larger than pipeline.out_of_core_bytes are kept in a chunked store
under pipeline.chunk_dir while the pipeline runs. Ctrl-C stops the run
between filters; nothing is written in that case.

Example:
  nxcore run --out grains.db mask.yaml
  NXCORE_PIPELINE_WORKERS=4 nxcore run --out grains.db mask.cue --verbose`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "out", "o", "", "path to the graph file to write (required)")
	_ = cmd.MarkFlagRequired("out")

	return cmd
}

func runPipeline(opts *RunOptions, path string, cmd *cobra.Command) error {
	out := opts.printer(cmd)
	logger := opts.logger()

	storage, err := pipeline.OpenStorage(opts.Pipeline, logger)
	if err != nil {
		return out.Fail(commandFailure(CodeGeneric, "open array storage", err))
	}
	// Chunked arrays are read while the graph is written, so storage
	// outlives the write below.
	defer func() {
		if closeErr := storage.Close(); closeErr != nil {
			logger.Error("error closing array storage", "error", closeErr)
		}
	}()

	p, err := loadPipeline(opts.RootOptions, path, out, pipeline.WithAllocator(storage.Allocator()))
	if err != nil {
		return out.Fail(loadFailure(path, err))
	}

	// Setup signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(contextOf(cmd))
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan) // Prevent signal handler leak

	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("received signal, stopping after the current filter", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	ds := structure.New()
	r := p.Execute(ctx, ds)
	if !out.JSON {
		writeReport(out.Out, r.Value)
	}
	if f := runFailure(CodeExecute, r); f != nil {
		return out.Fail(f)
	}

	if err := saveGraph(ctx, opts.Output, ds, logger); err != nil {
		f := commandFailure(CodeWrite, "write graph", err)
		f.Details = map[string]string{"file": opts.Output}
		return out.Fail(f)
	}
	return out.Result(RunSummary{Report: r.Value, Output: opts.Output, Objects: ds.Size()})
}

func saveGraph(ctx context.Context, path string, ds *structure.DataStructure, logger *slog.Logger) error {
	st, err := store.Open(path)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			logger.Error("error closing graph file", "error", closeErr)
		}
	}()
	logger.Debug("writing graph", "path", path, "objects", ds.Size())
	return st.Write(ctx, ds)
}
