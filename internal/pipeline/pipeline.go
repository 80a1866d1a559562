package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/nxcore/internal/action"
	"github.com/roach88/nxcore/internal/filter"
	"github.com/roach88/nxcore/internal/result"
	"github.com/roach88/nxcore/internal/structure"
)

// Node is one filter invocation.
type Node struct {
	Filter filter.Filter
	Args   filter.Arguments
}

// Pipeline is an ordered list of filter invocations.
type Pipeline struct {
	Name  string
	Nodes []Node

	config   Config
	logger   *slog.Logger
	messages filter.MessageHandler
	alloc    action.Allocator
	clock    Clock
}

// Clock supplies the times used for report durations.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithConfig sets the runtime knobs.
func WithConfig(cfg Config) Option {
	return func(p *Pipeline) { p.config = cfg }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// WithMessageHandler sets the receiver of filter messages.
func WithMessageHandler(h filter.MessageHandler) Option {
	return func(p *Pipeline) { p.messages = h }
}

// WithAllocator sets where execute-mode arrays are allocated.
// Defaults to the heap.
func WithAllocator(a action.Allocator) Option {
	return func(p *Pipeline) { p.alloc = a }
}

// WithClock sets the clock used to measure durations.
func WithClock(c Clock) Option {
	return func(p *Pipeline) { p.clock = c }
}

// New creates a pipeline.
func New(name string, nodes []Node, opts ...Option) *Pipeline {
	p := &Pipeline{
		Name:   name,
		Nodes:  nodes,
		config: DefaultConfig(),
		logger: slog.Default(),
		alloc:  action.MemoryAllocator{},
		clock:  systemClock{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// NodeReport describes what one filter did.
type NodeReport struct {
	Index    int                     `json:"index"`
	Filter   string                  `json:"filter"`
	Actions  action.OutputActions    `json:"preview"`
	Values   []filter.PreflightValue `json:"values,omitempty"`
	Warnings []result.Warning        `json:"warnings,omitempty"`
	Errors   []*result.Error         `json:"errors,omitempty"`
	Duration time.Duration           `json:"duration_ns"`
}

// Report is the outcome of Preflight or Execute.
type Report struct {
	Pipeline string       `json:"pipeline"`
	Mode     string       `json:"mode"`
	Nodes    []NodeReport `json:"nodes"`
	// Cancelled is set when the run stopped before the last filter finished.
	Cancelled bool `json:"cancelled,omitempty"`
}

// Preflight checks every filter in order against ds, applying each filter's
// actions in preflight mode so that later filters see earlier outputs.
// It mutates ds: callers pass a scratch copy or an empty graph. It stops at
// the first failing filter.
func (p *Pipeline) Preflight(ctx context.Context, ds *structure.DataStructure) result.Result[Report] {
	return p.run(ctx, ds, action.ModePreflight)
}

// Execute runs every filter in order against ds. Each filter is
// preflighted against the live graph, its actions applied in execute mode,
// and then executed. It stops at the first failure or when ctx is done.
func (p *Pipeline) Execute(ctx context.Context, ds *structure.DataStructure) result.Result[Report] {
	return p.run(ctx, ds, action.ModeExecute)
}

func (p *Pipeline) run(ctx context.Context, ds *structure.DataStructure, mode action.Mode) result.Result[Report] {
	start := p.clock.Now()
	logger := p.logger.With("pipeline", p.Name, "mode", mode.String())
	logger.Info("pipeline started", "filters", len(p.Nodes))

	out := result.Ok(Report{Pipeline: p.Name, Mode: mode.String(), Nodes: make([]NodeReport, 0, len(p.Nodes))})
	for i, n := range p.Nodes {
		if err := ctx.Err(); err != nil {
			out.AddWarning(result.CancelledWarning("pipeline %q stopped before filter %d (%s): %v", p.Name, i, n.Filter.Name(), err))
			out.Value.Cancelled = true
			break
		}
		nr, r := p.runNode(ctx, ds, mode, i, n, logger)
		out.Value.Nodes = append(out.Value.Nodes, nr)
		result.Absorb(&out, r)
		if r.Invalid() {
			break
		}
		if r.Cancelled() {
			out.Value.Cancelled = true
			break
		}
	}

	logger.Info("pipeline finished",
		"ok", out.Valid(),
		"cancelled", out.Value.Cancelled,
		"warnings", len(out.Warnings),
		"errors", len(out.Errors),
		"duration", p.clock.Now().Sub(start))
	return out
}

func (p *Pipeline) runNode(ctx context.Context, ds *structure.DataStructure, mode action.Mode, i int, n Node, logger *slog.Logger) (NodeReport, result.Result[result.Void]) {
	start := p.clock.Now()
	name := n.Filter.Name()
	nr := NodeReport{Index: i, Filter: name}

	pre := n.Filter.Preflight(ds, n.Args, p.messages)
	nr.Actions = pre.Value.Actions
	nr.Values = pre.Value.Values
	r := result.Convert(pre, result.Void{})
	if pre.Valid() {
		applied := pre.Value.Actions.ApplyAll(ds, mode, action.WithAllocator(p.alloc), action.WithLogger(logger))
		result.Absorb(&r, applied)
	}
	if r.Valid() && mode == action.ModeExecute {
		ectx := filter.WithAlgorithm(ctx, p.config.Algorithm(logger))
		result.Absorb(&r, n.Filter.Execute(ectx, ds, n.Args, p.messages))
	}
	r = prefixed(r, i, name)

	nr.Warnings = r.Warnings
	nr.Errors = r.Errors
	nr.Duration = p.clock.Now().Sub(start)
	logger.Info("filter finished",
		"index", i,
		"filter", name,
		"actions", len(nr.Actions.Actions),
		"warnings", len(r.Warnings),
		"errors", len(r.Errors),
		"duration", nr.Duration)
	return nr, r
}

// prefixed names the filter in every diagnostic of r.
func prefixed(r result.Result[result.Void], i int, name string) result.Result[result.Void] {
	out := result.Result[result.Void]{}
	for _, w := range r.Warnings {
		w.Message = fmt.Sprintf("filter %d (%s): %s", i, name, w.Message)
		out.AddWarning(w)
	}
	for _, e := range r.Errors {
		out.AddError(&result.Error{Kind: e.Kind, Code: e.Code, Message: fmt.Sprintf("filter %d (%s): %s", i, name, e.Message)})
	}
	return out
}
