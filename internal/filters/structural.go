package filters

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/roach88/nxcore/internal/action"
	"github.com/roach88/nxcore/internal/datapath"
	"github.com/roach88/nxcore/internal/datastore"
	"github.com/roach88/nxcore/internal/filter"
	"github.com/roach88/nxcore/internal/result"
	"github.com/roach88/nxcore/internal/structure"
)

var (
	createDataGroupID       = uuid.MustParse("e7d2f9b8-0a1c-4f6e-9b3a-21c5d7e8f901")
	createAttributeMatrixID = uuid.MustParse("a6936d2e-3f5b-4c71-8e2d-5b9c0f1a7d42")
	copyDataObjectID        = uuid.MustParse("ac8d51d8-6ad6-4c6f-9c7e-0b2f3e4d5a63")
	deleteDataID            = uuid.MustParse("bf286740-e987-49fe-a7c8-6e566e3a0606")
	moveDataID              = uuid.MustParse("651e5894-ab7c-4176-b7f0-ee2b8d2a1d38")
	renameDataObjectID      = uuid.MustParse("d53c808f-004d-5fac-b125-0fffc8cc78d6")
	resizeAttributeMatrixID = uuid.MustParse("2f4d6a8c-1e3b-4c5d-9f7a-8b6c4d2e0f13")
)

// CreateDataGroup creates an empty group.
type CreateDataGroup struct{}

func (CreateDataGroup) Name() string      { return "create_data_group" }
func (CreateDataGroup) HumanName() string { return "Create Data Group" }
func (CreateDataGroup) UUID() uuid.UUID   { return createDataGroupID }

func (CreateDataGroup) Parameters() filter.Parameters {
	return filter.Parameters{
		filter.ArrayCreationParameter{Key: "path", Human: "Group Path"},
	}
}

func (f CreateDataGroup) Preflight(ds *structure.DataStructure, args filter.Arguments, _ filter.MessageHandler) result.Result[filter.PreflightResult] {
	args, r := prepare(f.Parameters(), ds, args)
	if r.Invalid() {
		return r
	}
	path, _ := filter.Get[datapath.DataPath](args, "path")
	if err := checkCreatable(ds, path, structure.KindDataGroup, 0); err != nil {
		return failWith(r, err)
	}
	return emit(r, action.CreateDataGroupAction{Path: path})
}

func (CreateDataGroup) Execute(context.Context, *structure.DataStructure, filter.Arguments, filter.MessageHandler) result.Result[result.Void] {
	return result.OkVoid()
}

// CreateAttributeMatrix creates an attribute matrix with a tuple shape.
type CreateAttributeMatrix struct{}

func (CreateAttributeMatrix) Name() string      { return "create_attribute_matrix" }
func (CreateAttributeMatrix) HumanName() string { return "Create Attribute Matrix" }
func (CreateAttributeMatrix) UUID() uuid.UUID   { return createAttributeMatrixID }

func (CreateAttributeMatrix) Parameters() filter.Parameters {
	return filter.Parameters{
		filter.ArrayCreationParameter{Key: "path", Human: "Attribute Matrix Path"},
		filter.ShapeParameter{Key: "tuple_shape", Human: "Tuple Shape", Help: "slowest to fastest varying"},
	}
}

func (f CreateAttributeMatrix) Preflight(ds *structure.DataStructure, args filter.Arguments, _ filter.MessageHandler) result.Result[filter.PreflightResult] {
	args, r := prepare(f.Parameters(), ds, args)
	if r.Invalid() {
		return r
	}
	path, _ := filter.Get[datapath.DataPath](args, "path")
	shape, _ := filter.Get[datastore.Shape](args, "tuple_shape")
	if err := checkCreatable(ds, path, structure.KindAttributeMatrix, 0); err != nil {
		return failWith(r, err)
	}
	return emit(r, action.CreateAttributeMatrixAction{Path: path, TupleShape: shape})
}

func (CreateAttributeMatrix) Execute(context.Context, *structure.DataStructure, filter.Arguments, filter.MessageHandler) result.Result[result.Void] {
	return result.OkVoid()
}

// CopyDataObject deep copies an object and its descendants.
type CopyDataObject struct{}

func (CopyDataObject) Name() string      { return "copy_data_object" }
func (CopyDataObject) HumanName() string { return "Copy Data Object" }
func (CopyDataObject) UUID() uuid.UUID   { return copyDataObjectID }

func (CopyDataObject) Parameters() filter.Parameters {
	return filter.Parameters{
		filter.DataPathParameter{Key: "source", Human: "Object to Copy"},
		filter.ArrayCreationParameter{Key: "destination", Human: "Copy Path"},
	}
}

func (f CopyDataObject) Preflight(ds *structure.DataStructure, args filter.Arguments, _ filter.MessageHandler) result.Result[filter.PreflightResult] {
	args, r := prepare(f.Parameters(), ds, args)
	if r.Invalid() {
		return r
	}
	src, _ := filter.Get[datapath.DataPath](args, "source")
	dst, _ := filter.Get[datapath.DataPath](args, "destination")
	obj, _ := ds.Resolve(src)
	var tuples uint64
	if arr, ok := obj.(structure.Array); ok {
		tuples = arr.NumTuples()
	}
	if err := checkCreatable(ds, dst, obj.Kind(), tuples); err != nil {
		return failWith(r, err)
	}
	if dst.HasPrefix(src) {
		return failWith(r, fmt.Errorf("%w: cannot copy %s into itself", action.ErrInvalidParentPath, src))
	}
	return emit(r, action.CopyDataObjectAction{Source: src, Destination: dst})
}

func (CopyDataObject) Execute(context.Context, *structure.DataStructure, filter.Arguments, filter.MessageHandler) result.Result[result.Void] {
	return result.OkVoid()
}

// DeleteData removes objects by path. Shared objects lose only the named
// edge.
type DeleteData struct{}

func (DeleteData) Name() string      { return "delete_data" }
func (DeleteData) HumanName() string { return "Delete Data" }
func (DeleteData) UUID() uuid.UUID   { return deleteDataID }

func (DeleteData) Parameters() filter.Parameters {
	return filter.Parameters{
		filter.DataPathParameter{Key: "path", Human: "Object to Delete"},
	}
}

func (f DeleteData) Preflight(ds *structure.DataStructure, args filter.Arguments, msg filter.MessageHandler) result.Result[filter.PreflightResult] {
	args, r := prepare(f.Parameters(), ds, args)
	if r.Invalid() {
		return r
	}
	path, _ := filter.Get[datapath.DataPath](args, "path")
	obj, _ := ds.Resolve(path)
	if obj.ParentCount() > 1 {
		msg.Infof("%s has %d parents; only the edge at this path is removed", path, obj.ParentCount())
	}
	return emit(r, action.DeleteDataAction{Path: path})
}

func (DeleteData) Execute(context.Context, *structure.DataStructure, filter.Arguments, filter.MessageHandler) result.Result[result.Void] {
	return result.OkVoid()
}

// MoveData reparents an object under a new container.
type MoveData struct{}

func (MoveData) Name() string      { return "move_data" }
func (MoveData) HumanName() string { return "Move Data" }
func (MoveData) UUID() uuid.UUID   { return moveDataID }

func (MoveData) Parameters() filter.Parameters {
	return filter.Parameters{
		filter.DataPathParameter{Key: "path", Human: "Object to Move"},
		filter.DataPathParameter{Key: "new_parent", Human: "New Parent", Optional: true, AllowedKinds: containerKinds},
	}
}

var containerKinds = []structure.Kind{
	structure.KindDataGroup, structure.KindAttributeMatrix, structure.KindImageGeom,
	structure.KindVertexGeom, structure.KindEdgeGeom, structure.KindTriangleGeom,
	structure.KindQuadGeom, structure.KindTetrahedralGeom, structure.KindHexahedralGeom,
}

func (f MoveData) Preflight(ds *structure.DataStructure, args filter.Arguments, _ filter.MessageHandler) result.Result[filter.PreflightResult] {
	args, r := prepare(f.Parameters(), ds, args)
	if r.Invalid() {
		return r
	}
	path, _ := filter.Get[datapath.DataPath](args, "path")
	parent, _ := filter.Get[datapath.DataPath](args, "new_parent")
	if path.Parent().Equal(parent) {
		return emit(r)
	}
	obj, _ := ds.Resolve(path)
	var tuples uint64
	if arr, ok := obj.(structure.Array); ok {
		tuples = arr.NumTuples()
	}
	parentID, _ := ds.ContainerID(parent)
	if err := ds.CheckInsert(parentID, obj.Name(), obj.Kind(), tuples); err != nil {
		return failWith(r, err)
	}
	if parentID == obj.ID() || ds.IsAncestor(obj.ID(), parentID) {
		return failWith(r, fmt.Errorf("%w: cannot move %s under its own descendant", action.ErrInvalidParentPath, path))
	}
	return emit(r, action.MoveDataAction{Path: path, NewParent: parent})
}

func (MoveData) Execute(context.Context, *structure.DataStructure, filter.Arguments, filter.MessageHandler) result.Result[result.Void] {
	return result.OkVoid()
}

// RenameDataObject renames an object under all of its parents.
type RenameDataObject struct{}

func (RenameDataObject) Name() string      { return "rename_data_object" }
func (RenameDataObject) HumanName() string { return "Rename Data Object" }
func (RenameDataObject) UUID() uuid.UUID   { return renameDataObjectID }

func (RenameDataObject) Parameters() filter.Parameters {
	return filter.Parameters{
		filter.DataPathParameter{Key: "path", Human: "Object to Rename"},
		filter.StringParameter{Key: "new_name", Human: "New Name"},
	}
}

func (f RenameDataObject) Preflight(ds *structure.DataStructure, args filter.Arguments, _ filter.MessageHandler) result.Result[filter.PreflightResult] {
	args, r := prepare(f.Parameters(), ds, args)
	if r.Invalid() {
		return r
	}
	path, _ := filter.Get[datapath.DataPath](args, "path")
	name, _ := filter.Get[string](args, "new_name")
	renamed, err := path.ReplaceName(name)
	if err != nil {
		return failWith(r, fmt.Errorf("%w: %v", filter.ErrArgumentRange, err))
	}
	obj, _ := ds.Resolve(path)
	// The new name must be free under every parent, not just this path's.
	for _, p := range ds.AllPaths(obj.ID()) {
		if sibling, _ := p.ReplaceName(name); !sibling.Equal(p) && ds.ContainsPath(sibling) {
			return failWith(r, fmt.Errorf("%w: %s", filter.ErrTargetExists, sibling))
		}
	}
	if !renamed.Equal(path) {
		r.Value.Values = append(r.Value.Values, filter.PreflightValue{Name: "renamed", Value: renamed.String()})
	}
	return emit(r, action.RenameDataAction{Path: path, NewName: name})
}

func (RenameDataObject) Execute(context.Context, *structure.DataStructure, filter.Arguments, filter.MessageHandler) result.Result[result.Void] {
	return result.OkVoid()
}

// ResizeAttributeMatrix changes the tuple shape of a matrix and its arrays.
type ResizeAttributeMatrix struct{}

func (ResizeAttributeMatrix) Name() string      { return "resize_attribute_matrix" }
func (ResizeAttributeMatrix) HumanName() string { return "Resize Attribute Matrix" }
func (ResizeAttributeMatrix) UUID() uuid.UUID   { return resizeAttributeMatrixID }

func (ResizeAttributeMatrix) Parameters() filter.Parameters {
	return filter.Parameters{
		filter.DataPathParameter{Key: "path", Human: "Attribute Matrix", AllowedKinds: []structure.Kind{structure.KindAttributeMatrix}},
		filter.ShapeParameter{Key: "tuple_shape", Human: "New Tuple Shape"},
	}
}

func (f ResizeAttributeMatrix) Preflight(ds *structure.DataStructure, args filter.Arguments, _ filter.MessageHandler) result.Result[filter.PreflightResult] {
	args, r := prepare(f.Parameters(), ds, args)
	if r.Invalid() {
		return r
	}
	path, _ := filter.Get[datapath.DataPath](args, "path")
	shape, _ := filter.Get[datastore.Shape](args, "tuple_shape")
	am, _ := structure.ResolveAs[*structure.AttributeMatrix](ds, path)
	tuples, err := shape.ProductChecked()
	if err != nil {
		return failWith(r, err)
	}
	if err := ds.CheckTupleCountChange(am, am.ID(), tuples); err != nil {
		return failWith(r, err)
	}
	for _, id := range am.ChildIDs() {
		obj, _ := ds.Get(id)
		arr, ok := obj.(structure.Array)
		if !ok || obj.Kind() == structure.KindNeighborList {
			continue
		}
		if _, err := structure.FitTupleShape(arr.TupleShape(), shape); err != nil {
			return failWith(r, fmt.Errorf("%s: %w", path.MustCreateChildPath(obj.Name()), err))
		}
		if err := ds.CheckTupleCountChange(arr, am.ID(), tuples); err != nil {
			return failWith(r, fmt.Errorf("%s: %w", path.MustCreateChildPath(obj.Name()), err))
		}
	}
	r.Value.Values = append(r.Value.Values, filter.PreflightValue{
		Name:  "tuples",
		Value: fmt.Sprintf("%d -> %d", am.NumTuples(), tuples),
	})
	return emit(r, action.ResizeAttributeMatrixAction{Path: path, TupleShape: shape})
}

func (ResizeAttributeMatrix) Execute(context.Context, *structure.DataStructure, filter.Arguments, filter.MessageHandler) result.Result[result.Void] {
	return result.OkVoid()
}
