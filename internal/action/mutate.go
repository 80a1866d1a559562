package action

import (
	"fmt"

	"github.com/roach88/nxcore/internal/datapath"
	"github.com/roach88/nxcore/internal/datastore"
	"github.com/roach88/nxcore/internal/result"
	"github.com/roach88/nxcore/internal/structure"
)

// CopyDataObjectAction deep copies the object at Source, with all of its
// descendants, to Destination. Preflight copies shapes only.
type CopyDataObjectAction struct {
	Source      datapath.DataPath
	Destination datapath.DataPath
}

func (a CopyDataObjectAction) Apply(ds *structure.DataStructure, mode Mode) result.Result[result.Void] {
	src, err := ds.Resolve(a.Source)
	if err != nil {
		return fail(fmt.Errorf("%w: %s", ErrSourceNotFound, a.Source))
	}
	parentID, err := checkTarget(ds, a.Destination)
	if err != nil {
		return fail(err)
	}
	var opts []structure.CopyOption
	if mode == ModePreflight {
		opts = append(opts, structure.ShapeOnly())
	}
	if _, err := ds.CopyObject(src.ID(), parentID, a.Destination.Name(), opts...); err != nil {
		return fail(err)
	}
	return result.OkVoid()
}

func (a CopyDataObjectAction) CreatedPaths() []datapath.DataPath {
	return []datapath.DataPath{a.Destination}
}

func (a CopyDataObjectAction) String() string {
	return fmt.Sprintf("CopyDataObject %s -> %s", a.Source, a.Destination)
}

func (a CopyDataObjectAction) Preview() Preview {
	return Preview{Type: "CopyDataObject", Path: a.Destination.String(), Params: map[string]any{"source": a.Source.String()}}
}

// DeleteDataAction removes the parent edge named by Path. The object is
// deleted, with its unshared descendants, when that was its last edge.
type DeleteDataAction struct {
	Path datapath.DataPath
}

func (a DeleteDataAction) Apply(ds *structure.DataStructure, _ Mode) result.Result[result.Void] {
	if _, err := ds.RemovePath(a.Path); err != nil {
		return fail(err)
	}
	return result.OkVoid()
}

func (a DeleteDataAction) String() string { return "DeleteData " + a.Path.String() }

func (a DeleteDataAction) Preview() Preview {
	return Preview{Type: "DeleteData", Path: a.Path.String()}
}

// MoveDataAction reparents the object at Path under NewParent. The object
// keeps its id, name and any other parents.
type MoveDataAction struct {
	Path      datapath.DataPath
	NewParent datapath.DataPath
}

func (a MoveDataAction) Apply(ds *structure.DataStructure, _ Mode) result.Result[result.Void] {
	obj, err := ds.Resolve(a.Path)
	if err != nil {
		return fail(err)
	}
	newParentID, err := ds.ContainerID(a.NewParent)
	if err != nil {
		return fail(fmt.Errorf("%w: %v", ErrInvalidParentPath, err))
	}
	oldParentID := parentOf(ds, a.Path)
	if newParentID == oldParentID {
		return result.OkVoid()
	}
	if err := ds.AddParent(obj.ID(), newParentID); err != nil {
		return fail(err)
	}
	if _, err := ds.RemoveParent(obj.ID(), oldParentID); err != nil {
		return fail(err)
	}
	return result.OkVoid()
}

func (a MoveDataAction) CreatedPaths() []datapath.DataPath {
	return []datapath.DataPath{a.NewParent.MustCreateChildPath(a.Path.Name())}
}

func (a MoveDataAction) String() string {
	return fmt.Sprintf("MoveData %s -> %s", a.Path, a.NewParent)
}

func (a MoveDataAction) Preview() Preview {
	return Preview{Type: "MoveData", Path: a.Path.String(), Params: map[string]any{"new_parent": a.NewParent.String()}}
}

// RenameDataAction renames the object at Path under every parent.
type RenameDataAction struct {
	Path    datapath.DataPath
	NewName string
}

func (a RenameDataAction) Apply(ds *structure.DataStructure, _ Mode) result.Result[result.Void] {
	obj, err := ds.Resolve(a.Path)
	if err != nil {
		return fail(err)
	}
	if err := ds.Rename(obj.ID(), a.NewName); err != nil {
		return fail(err)
	}
	return result.OkVoid()
}

func (a RenameDataAction) CreatedPaths() []datapath.DataPath {
	renamed, err := a.Path.ReplaceName(a.NewName)
	if err != nil {
		return nil
	}
	return []datapath.DataPath{renamed}
}

func (a RenameDataAction) String() string {
	return fmt.Sprintf("RenameData %s -> %s", a.Path, a.NewName)
}

func (a RenameDataAction) Preview() Preview {
	return Preview{Type: "RenameData", Path: a.Path.String(), Params: map[string]any{"new_name": a.NewName}}
}

// ResizeAttributeMatrixAction changes the tuple shape of an attribute
// matrix and every array in it. Neighbor lists cannot follow a resize; they
// are removed from the matrix with a warning.
type ResizeAttributeMatrixAction struct {
	Path       datapath.DataPath
	TupleShape datastore.Shape
}

func (a ResizeAttributeMatrixAction) Apply(ds *structure.DataStructure, _ Mode) result.Result[result.Void] {
	am, err := structure.ResolveAs[*structure.AttributeMatrix](ds, a.Path)
	if err != nil {
		return fail(err)
	}
	if len(a.TupleShape) == 0 {
		return fail(fmt.Errorf("%w: empty tuple shape for %s", ErrInvalidAction, a.Path))
	}
	tuples, err := a.TupleShape.ProductChecked()
	if err != nil {
		return fail(fmt.Errorf("resize %s: %w", a.Path, err))
	}
	if err := ds.CheckTupleCountChange(am, am.ID(), tuples); err != nil {
		return fail(fmt.Errorf("resize %s: %w", a.Path, err))
	}

	var dropped []*structure.NeighborList
	for _, id := range am.ChildIDs() {
		obj, _ := ds.Get(id)
		switch o := obj.(type) {
		case *structure.NeighborList:
			dropped = append(dropped, o)
		case structure.Array:
			if _, err := structure.FitTupleShape(o.TupleShape(), a.TupleShape); err != nil {
				return fail(fmt.Errorf("resize %s: %q: %w", a.Path, o.Name(), err))
			}
			if err := ds.CheckTupleCountChange(o, am.ID(), tuples); err != nil {
				return fail(fmt.Errorf("resize %s: %w", a.Path, err))
			}
		}
	}

	var warnings []result.Warning
	for _, nl := range dropped {
		warnings = append(warnings, result.Warning{
			Kind:    result.KindShapeMismatch,
			Code:    CodeNeighborListDrop,
			Message: fmt.Sprintf("neighbor list %s will not be kept by the resize of %s", a.Path.MustCreateChildPath(nl.Name()), a.Path),
		})
		if _, err := ds.RemoveParent(nl.ID(), am.ID()); err != nil {
			return fail(err)
		}
	}
	if err := am.ResizeTuples(ds, a.TupleShape); err != nil {
		r := fail(err)
		r.AddWarning(warnings...)
		return r
	}
	return result.OkVoid(warnings...)
}

func (a ResizeAttributeMatrixAction) String() string {
	return fmt.Sprintf("ResizeAttributeMatrix %s tuples=%s", a.Path, a.TupleShape)
}

func (a ResizeAttributeMatrixAction) Preview() Preview {
	return Preview{Type: "ResizeAttributeMatrix", Path: a.Path.String(), Params: map[string]any{"tuple_shape": a.TupleShape}}
}
