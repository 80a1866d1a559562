package action

import (
	"fmt"

	"github.com/roach88/nxcore/internal/datapath"
	"github.com/roach88/nxcore/internal/datastore"
	"github.com/roach88/nxcore/internal/result"
	"github.com/roach88/nxcore/internal/structure"
)

// CreateDataGroupAction creates an empty group.
type CreateDataGroupAction struct {
	Path datapath.DataPath
}

func (a CreateDataGroupAction) Apply(ds *structure.DataStructure, _ Mode) result.Result[result.Void] {
	parentID, err := checkTarget(ds, a.Path)
	if err != nil {
		return fail(err)
	}
	if _, err := ds.CreateDataGroup(a.Path.Name(), parentID); err != nil {
		return fail(err)
	}
	return result.OkVoid()
}

func (a CreateDataGroupAction) CreatedPaths() []datapath.DataPath { return []datapath.DataPath{a.Path} }
func (a CreateDataGroupAction) String() string                    { return "CreateDataGroup " + a.Path.String() }
func (a CreateDataGroupAction) Preview() Preview {
	return Preview{Type: "CreateDataGroup", Path: a.Path.String()}
}

// CreateArrayAction creates a typed data array. Execute mode allocates the
// store and fills it with FillValue.
type CreateArrayAction struct {
	Type           datastore.DataType
	TupleShape     datastore.Shape
	ComponentShape datastore.Shape
	Path           datapath.DataPath
	FillValue      float64
	// DataFormat is "" for the default store or FormatOutOfCore.
	DataFormat string
}

func (a CreateArrayAction) Apply(ds *structure.DataStructure, mode Mode) result.Result[result.Void] {
	return a.ApplyWith(ds, mode, nil)
}

// ApplyWith implements AllocatingAction.
func (a CreateArrayAction) ApplyWith(ds *structure.DataStructure, mode Mode, alloc Allocator) result.Result[result.Void] {
	parentID, err := checkTarget(ds, a.Path)
	if err != nil {
		return fail(err)
	}
	if _, err := datastore.NewEmpty(a.Type, a.TupleShape, a.ComponentShape); err != nil {
		return fail(fmt.Errorf("create array %s: %w", a.Path, err))
	}
	if err := ds.CheckInsert(parentID, a.Path.Name(), structure.KindDataArray, a.TupleShape.Product()); err != nil {
		return fail(err)
	}
	store, err := allocate(alloc, mode, a.Type, a.TupleShape, a.ComponentShape, a.DataFormat, a.FillValue)
	if err != nil {
		return fail(fmt.Errorf("create array %s: %w", a.Path, err))
	}
	if _, err := ds.CreateDataArray(a.Path.Name(), parentID, store); err != nil {
		release(store)
		return fail(err)
	}
	return result.OkVoid()
}

func (a CreateArrayAction) CreatedPaths() []datapath.DataPath { return []datapath.DataPath{a.Path} }

func (a CreateArrayAction) String() string {
	return fmt.Sprintf("CreateArray %s %s tuples=%s components=%s", a.Path, a.Type, a.TupleShape, a.ComponentShape)
}

func (a CreateArrayAction) Preview() Preview {
	params := map[string]any{
		"data_type":       a.Type.String(),
		"tuple_shape":     a.TupleShape,
		"component_shape": a.ComponentShape,
	}
	if a.FillValue != 0 {
		params["fill_value"] = a.FillValue
	}
	if a.DataFormat != "" {
		params["data_format"] = a.DataFormat
	}
	return Preview{Type: "CreateArray", Path: a.Path.String(), Params: params}
}

// CreateNeighborListAction creates a neighbor list. Execute mode allocates
// empty per-tuple lists.
type CreateNeighborListAction struct {
	Type       datastore.DataType
	TupleShape datastore.Shape
	Path       datapath.DataPath
}

func (a CreateNeighborListAction) Apply(ds *structure.DataStructure, mode Mode) result.Result[result.Void] {
	parentID, err := checkTarget(ds, a.Path)
	if err != nil {
		return fail(err)
	}
	if _, err := ds.CreateNeighborList(a.Path.Name(), parentID, a.Type, a.TupleShape, mode == ModeExecute); err != nil {
		return fail(err)
	}
	return result.OkVoid()
}

func (a CreateNeighborListAction) CreatedPaths() []datapath.DataPath { return []datapath.DataPath{a.Path} }

func (a CreateNeighborListAction) String() string {
	return fmt.Sprintf("CreateNeighborList %s %s tuples=%s", a.Path, a.Type, a.TupleShape)
}

func (a CreateNeighborListAction) Preview() Preview {
	return Preview{Type: "CreateNeighborList", Path: a.Path.String(), Params: map[string]any{
		"data_type":   a.Type.String(),
		"tuple_shape": a.TupleShape,
	}}
}

// CreateStringArrayAction creates a string array. Execute mode sets every
// tuple to InitValue.
type CreateStringArrayAction struct {
	TupleShape datastore.Shape
	Path       datapath.DataPath
	InitValue  string
}

func (a CreateStringArrayAction) Apply(ds *structure.DataStructure, mode Mode) result.Result[result.Void] {
	parentID, err := checkTarget(ds, a.Path)
	if err != nil {
		return fail(err)
	}
	arr, err := ds.CreateStringArray(a.Path.Name(), parentID, a.TupleShape, mode == ModeExecute)
	if err != nil {
		return fail(err)
	}
	if mode == ModeExecute && a.InitValue != "" {
		for i := uint64(0); i < arr.NumTuples(); i++ {
			_ = arr.Set(i, a.InitValue)
		}
	}
	return result.OkVoid()
}

func (a CreateStringArrayAction) CreatedPaths() []datapath.DataPath { return []datapath.DataPath{a.Path} }

func (a CreateStringArrayAction) String() string {
	return fmt.Sprintf("CreateStringArray %s tuples=%s", a.Path, a.TupleShape)
}

func (a CreateStringArrayAction) Preview() Preview {
	return Preview{Type: "CreateStringArray", Path: a.Path.String(), Params: map[string]any{"tuple_shape": a.TupleShape}}
}

// CreateAttributeMatrixAction creates an attribute matrix.
type CreateAttributeMatrixAction struct {
	Path       datapath.DataPath
	TupleShape datastore.Shape
}

func (a CreateAttributeMatrixAction) Apply(ds *structure.DataStructure, _ Mode) result.Result[result.Void] {
	parentID, err := checkTarget(ds, a.Path)
	if err != nil {
		return fail(err)
	}
	if _, err := ds.CreateAttributeMatrix(a.Path.Name(), parentID, a.TupleShape); err != nil {
		return fail(err)
	}
	return result.OkVoid()
}

func (a CreateAttributeMatrixAction) CreatedPaths() []datapath.DataPath {
	return []datapath.DataPath{a.Path}
}

func (a CreateAttributeMatrixAction) String() string {
	return fmt.Sprintf("CreateAttributeMatrix %s tuples=%s", a.Path, a.TupleShape)
}

func (a CreateAttributeMatrixAction) Preview() Preview {
	return Preview{Type: "CreateAttributeMatrix", Path: a.Path.String(), Params: map[string]any{"tuple_shape": a.TupleShape}}
}
