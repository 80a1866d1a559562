package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/nxcore/internal/datapath"
	"github.com/roach88/nxcore/internal/datastore"
	"github.com/roach88/nxcore/internal/store"
	"github.com/roach88/nxcore/internal/structure"
)

// InspectEntry describes one reachable path of a saved graph. An object
// with several parents appears once per path.
type InspectEntry struct {
	Path           string               `json:"path"`
	ID             structure.ObjectID   `json:"id"`
	Kind           string               `json:"kind"`
	Parents        []structure.ObjectID `json:"parents"`
	DataType       string               `json:"data_type,omitempty"`
	TupleShape     datastore.Shape      `json:"tuple_shape,omitempty"`
	ComponentShape datastore.Shape      `json:"component_shape,omitempty"`
	Allocated      *bool                `json:"allocated,omitempty"`
}

// InspectResult is the JSON payload of the inspect command.
type InspectResult struct {
	File    string             `json:"file"`
	Objects int                `json:"objects"`
	NextID  structure.ObjectID `json:"next_id"`
	Entries []InspectEntry     `json:"entries"`
}

// NewInspectCommand creates the inspect command.
func NewInspectCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect <graph.db>",
		Short: "List the objects of a saved graph",
		Long: `List every path of a graph file written by run, with object ids,
parents and array shapes.

Example:
  nxcore inspect grains.db
  nxcore inspect grains.db --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runInspect(opts *RootOptions, path string, cmd *cobra.Command) error {
	out := opts.printer(cmd)

	// store.Open would create an empty file; a typo should not.
	if _, err := os.Stat(path); err != nil {
		return out.Fail(commandFailure(CodeNotFound, "graph file not found", err))
	}

	ds, err := readGraph(cmd, path)
	if err != nil {
		f := commandFailure(CodeRead, "read graph", err)
		f.Details = map[string]string{"file": path}
		return out.Fail(f)
	}

	res := InspectResult{File: path, Objects: ds.Size(), NextID: ds.NextID()}
	res.Entries, err = inspectEntries(ds)
	if err != nil {
		return out.Fail(&Failure{Exit: ExitFailure, Code: CodeGeneric, Op: "walk graph", Err: err})
	}
	return out.Result(res)
}

func readGraph(cmd *cobra.Command, path string) (*structure.DataStructure, error) {
	st, err := store.Open(path)
	if err != nil {
		return nil, err
	}
	defer st.Close()

	ds, err := st.Read(contextOf(cmd))
	if errors.Is(err, store.ErrNoGraph) {
		return nil, fmt.Errorf("%s holds no graph: %w", path, err)
	}
	return ds, err
}

type tupleShaped interface {
	TupleShape() datastore.Shape
}

type typed interface {
	DataType() datastore.DataType
}

type allocatable interface {
	IsAllocated() bool
}

// inspectEntries walks ds in name order.
func inspectEntries(ds *structure.DataStructure) ([]InspectEntry, error) {
	var out []InspectEntry
	err := ds.Walk(func(p datapath.DataPath, obj structure.Object) error {
		e := InspectEntry{
			Path:    p.String(),
			ID:      obj.ID(),
			Kind:    obj.Kind().String(),
			Parents: obj.ParentIDs(),
		}
		if t, ok := obj.(tupleShaped); ok {
			e.TupleShape = t.TupleShape()
		}
		if t, ok := obj.(typed); ok {
			e.DataType = t.DataType().String()
		}
		if a, ok := obj.(*structure.DataArray); ok {
			e.ComponentShape = a.ComponentShape()
		}
		if a, ok := obj.(allocatable); ok {
			allocated := a.IsAllocated()
			e.Allocated = &allocated
		}
		out = append(out, e)
		return nil
	})
	return out, err
}

// writeText prints one line per entry, indented by depth.
func (res InspectResult) writeText(w io.Writer) {
	fmt.Fprintf(w, "Graph %s: %d object(s), next id %d\n", res.File, res.Objects, res.NextID)
	for _, e := range res.Entries {
		depth := strings.Count(e.Path, "/")
		fmt.Fprintf(w, "%s%s [%d] %s", strings.Repeat("  ", depth+1), baseName(e.Path), e.ID, e.Kind)
		if e.DataType != "" {
			fmt.Fprintf(w, " %s", e.DataType)
		}
		if e.TupleShape != nil {
			fmt.Fprintf(w, " %s", e.TupleShape)
			if e.ComponentShape != nil {
				fmt.Fprintf(w, "x%s", e.ComponentShape)
			}
		}
		if e.Allocated != nil && !*e.Allocated {
			fmt.Fprint(w, " (no data)")
		}
		if len(e.Parents) > 1 {
			ids := make([]string, len(e.Parents))
			for i, id := range e.Parents {
				ids[i] = id.String()
			}
			fmt.Fprintf(w, " (parents %s)", strings.Join(ids, ", "))
		}
		fmt.Fprintln(w)
	}
}

func baseName(path string) string {
	return path[strings.LastIndex(path, "/")+1:]
}
