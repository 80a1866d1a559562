package filters

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/nxcore/internal/action"
	"github.com/roach88/nxcore/internal/datastore"
	"github.com/roach88/nxcore/internal/filter"
	"github.com/roach88/nxcore/internal/parallel"
	"github.com/roach88/nxcore/internal/result"
	"github.com/roach88/nxcore/internal/structure"
	"github.com/roach88/nxcore/internal/testutil"
)

// run preflights f, applies its actions in execute mode and executes it,
// failing the test at the first invalid step.
func run(t *testing.T, f filter.Filter, ds *structure.DataStructure, args filter.Arguments) result.Result[result.Void] {
	t.Helper()
	pre := f.Preflight(ds, args, nil)
	require.True(t, pre.Valid(), "preflight: %v", pre.Err())
	applied := pre.Value.Actions.ApplyAll(ds, action.ModeExecute)
	require.True(t, applied.Valid(), "apply: %v", applied.Err())
	return f.Execute(context.Background(), ds, args, nil)
}

// preflightErr runs Preflight and returns its joined error.
func preflightErr(t *testing.T, f filter.Filter, ds *structure.DataStructure, args filter.Arguments) error {
	t.Helper()
	r := f.Preflight(ds, args, nil)
	require.True(t, r.Invalid(), "preflight should fail")
	return r.Err()
}

func TestAll_RegistersEveryFilter(t *testing.T) {
	reg, err := NewRegistry()
	require.NoError(t, err)

	all := reg.All()
	require.Len(t, all, len(All()))
	seen := map[uuid.UUID]bool{}
	for _, f := range all {
		assert.False(t, seen[f.UUID()], "duplicate UUID on %s", f.Name())
		seen[f.UUID()] = true
		assert.NotEmpty(t, f.HumanName())
		assert.NotEmpty(t, f.Parameters(), f.Name())

		byID, err := reg.Lookup(f.UUID().String())
		require.NoError(t, err)
		assert.Equal(t, f.Name(), byID.Name())
	}
}

func TestPreflight_DoesNotMutate(t *testing.T) {
	ds := structure.New()
	testutil.Matrix(t, ds, "AM", 4)
	testutil.Array(t, ds, "AM/Values", datastore.Float64, datastore.Shape{4}, datastore.Shape{1}, 1, 2, 3, 4)
	before := testutil.Shapes(t, ds)
	next := ds.NextID()

	for _, f := range []struct {
		filter filter.Filter
		args   filter.Arguments
	}{
		{CreateDataArray{}, filter.Arguments{"output": "AM/New", "tuple_shape": []any{4}}},
		{ThresholdArray{}, filter.Arguments{"input": "AM/Values", "value": 2, "output": "AM/Mask"}},
		{CopyDataObject{}, filter.Arguments{"source": "AM", "destination": "Copy"}},
		{ResizeAttributeMatrix{}, filter.Arguments{"path": "AM", "tuple_shape": []any{8}}},
		{DeleteData{}, filter.Arguments{"path": "AM/Values"}},
	} {
		r := f.filter.Preflight(ds, f.args, nil)
		require.True(t, r.Valid(), "%s: %v", f.filter.Name(), r.Err())
		require.NotEmpty(t, r.Value.Actions.Actions, f.filter.Name())
	}
	assert.Equal(t, before, testutil.Shapes(t, ds))
	assert.Equal(t, next, ds.NextID())
}

func TestCreateDataArray_FillsInExecute(t *testing.T) {
	ds := structure.New()
	testutil.Matrix(t, ds, "AM", 5)
	args := filter.Arguments{
		"output":          "AM/Values",
		"data_type":       "int16",
		"tuple_shape":     []any{5},
		"component_shape": []any{2},
		"fill_value":      7,
	}

	pre := CreateDataArray{}.Preflight(ds, args, nil)
	require.True(t, pre.Valid(), pre.Err())
	assert.Equal(t, []filter.PreflightValue{{Name: "size", Value: "20 bytes"}}, pre.Value.Values)

	r := run(t, CreateDataArray{}, ds, args)
	require.True(t, r.Valid(), r.Err())
	assert.Equal(t, []float64{7, 7, 7, 7, 7, 7, 7, 7, 7, 7}, testutil.Values(t, ds, "AM/Values"))
}

func TestCreateDataArray_Rejects(t *testing.T) {
	ds := structure.New()
	testutil.Matrix(t, ds, "AM", 5)
	testutil.Array(t, ds, "AM/Taken", datastore.Float32, datastore.Shape{5}, datastore.Shape{1})

	tests := []struct {
		name string
		args filter.Arguments
		want *result.Error
	}{
		{"target exists", filter.Arguments{"output": "AM/Taken", "tuple_shape": []any{5}}, filter.ErrTargetExists},
		{"tuple mismatch", filter.Arguments{"output": "AM/New", "tuple_shape": []any{3}}, structure.ErrTupleMismatch},
		{"missing shape", filter.Arguments{"output": "AM/New"}, filter.ErrMissingArgument},
		{"bad type", filter.Arguments{"output": "AM/New", "tuple_shape": []any{5}, "data_type": "complex64"}, filter.ErrArgumentType},
		{"bad format", filter.Arguments{"output": "AM/New", "tuple_shape": []any{5}, "data_format": "hdf5"}, filter.ErrArgumentRange},
		{"overflowing tuple shape", filter.Arguments{"output": "Huge", "tuple_shape": []any{1 << 32, 1 << 32}}, filter.ErrArgumentRange},
		{"overflowing byte size", filter.Arguments{"output": "Huge", "tuple_shape": []any{1 << 62}, "data_type": "float64"}, datastore.ErrInvalidShape},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, preflightErr(t, CreateDataArray{}, ds, tt.args), tt.want)
		})
	}
}

func TestCreateDataArray_MissingParentFailsOnApply(t *testing.T) {
	ds := structure.New()
	args := filter.Arguments{"output": "Nowhere/Values", "tuple_shape": []any{2}}

	pre := CreateDataArray{}.Preflight(ds, args, nil)
	require.True(t, pre.Valid(), "an earlier filter may still create the parent")

	applied := pre.Value.Actions.ApplyAll(ds, action.ModePreflight)
	require.True(t, applied.Invalid())
	assert.True(t, result.IsKind(applied.Err(), result.KindInvalidParent))
}

func TestCreateDataArray_Cancelled(t *testing.T) {
	ds := structure.New()
	args := filter.Arguments{"output": "Values", "tuple_shape": []any{100}, "fill_value": 1}
	pre := CreateDataArray{}.Preflight(ds, args, nil)
	require.True(t, pre.Valid())
	require.True(t, pre.Value.Actions.ApplyAll(ds, action.ModeExecute).Valid())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := CreateDataArray{}.Execute(ctx, ds, args, nil)

	assert.True(t, r.Valid())
	assert.True(t, r.Cancelled())
	assert.Equal(t, 0.0, testutil.Values(t, ds, "Values")[0], "nothing is filled after cancellation")
}

func TestThresholdArray_Operators(t *testing.T) {
	input := []float64{-1, 0, 2, 5, 2.5}
	tests := []struct {
		op   string
		want []float64
	}{
		{"<", []float64{1, 1, 0, 0, 0}},
		{"<=", []float64{1, 1, 1, 0, 0}},
		{">", []float64{0, 0, 0, 1, 1}},
		{">=", []float64{0, 0, 1, 1, 1}},
		{"==", []float64{0, 0, 1, 0, 0}},
		{"!=", []float64{1, 1, 0, 1, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.op, func(t *testing.T) {
			ds := structure.New()
			testutil.Array(t, ds, "In", datastore.Float64, datastore.Shape{5}, datastore.Shape{1}, input...)

			r := run(t, ThresholdArray{}, ds, filter.Arguments{"input": "In", "operator": tt.op, "value": 2, "output": "Mask"})
			require.True(t, r.Valid(), r.Err())
			assert.Equal(t, tt.want, testutil.Values(t, ds, "Mask"))

			mask, err := structure.ResolveAs[*structure.DataArray](ds, testutil.Path("Mask"))
			require.NoError(t, err)
			assert.Equal(t, datastore.Boolean, mask.DataType())
		})
	}
}

func TestThresholdArray_ParallelMatchesSequential(t *testing.T) {
	const n = 5000
	values := make([]float64, n)
	for i := range values {
		values[i] = float64((i * 37) % 101)
	}
	masks := map[bool][]float64{}
	for _, par := range []bool{false, true} {
		ds := structure.New()
		testutil.Array(t, ds, "In", datastore.UInt16, datastore.Shape{n}, datastore.Shape{1}, values...)
		args := filter.Arguments{"input": "In", "operator": "<", "value": 50, "output": "Mask"}

		pre := ThresholdArray{}.Preflight(ds, args, nil)
		require.True(t, pre.Valid())
		require.True(t, pre.Value.Actions.ApplyAll(ds, action.ModeExecute).Valid())
		ctx := filter.WithAlgorithm(context.Background(), parallel.Algorithm{Parallel: par, Workers: 4})
		require.True(t, ThresholdArray{}.Execute(ctx, ds, args, nil).Valid())
		masks[par] = testutil.Values(t, ds, "Mask")
	}
	assert.Equal(t, masks[false], masks[true])
}

func TestThresholdArray_RejectsSelection(t *testing.T) {
	ds := structure.New()
	testutil.Matrix(t, ds, "AM", 3)
	testutil.Array(t, ds, "AM/Vec", datastore.Float32, datastore.Shape{3}, datastore.Shape{3})
	testutil.Array(t, ds, "AM/Flags", datastore.Boolean, datastore.Shape{3}, datastore.Shape{1})
	_, err := ds.CreateNeighborList("Neighbors", mustID(t, ds, "AM"), datastore.Int32, datastore.Shape{3}, true)
	require.NoError(t, err)

	tests := []struct {
		name  string
		input string
		want  *result.Error
		kind  result.Kind
	}{
		{"missing", "AM/Nope", filter.ErrSelectionMissing, result.KindPathResolution},
		{"neighbor list", "AM/Neighbors", filter.ErrSelectionKind, result.KindPathResolution},
		{"matrix", "AM", filter.ErrSelectionKind, result.KindPathResolution},
		{"boolean", "AM/Flags", filter.ErrSelectionType, result.KindShapeMismatch},
		{"three components", "AM/Vec", filter.ErrSelectionShape, result.KindShapeMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := preflightErr(t, ThresholdArray{}, ds, filter.Arguments{"input": tt.input, "value": 1, "output": "AM/Mask"})
			assert.ErrorIs(t, err, tt.want)
			assert.True(t, result.IsKind(err, tt.kind))
		})
	}
}

func TestCreateImageGeometry(t *testing.T) {
	ds := structure.New()
	args := filter.Arguments{"path": "Image", "dimensions": []any{3, 2, 1}, "spacing": []any{0.5, 0.5, 1}, "units": "mm"}

	pre := CreateImageGeometry{}.Preflight(ds, args, nil)
	require.True(t, pre.Valid(), pre.Err())
	assert.Equal(t, []filter.PreflightValue{{Name: "cells", Value: "6"}}, pre.Value.Values)

	require.True(t, run(t, CreateImageGeometry{}, ds, args).Valid())
	am, err := structure.ResolveAs[*structure.AttributeMatrix](ds, testutil.Path("Image/CellData"))
	require.NoError(t, err)
	assert.Equal(t, datastore.Shape{1, 2, 3}, am.TupleShape())

	img, err := structure.ResolveAs[*structure.ImageGeom](ds, testutil.Path("Image"))
	require.NoError(t, err)
	assert.Equal(t, "mm", img.Geometry().Units)
}

func TestCreateImageGeometry_Rejects(t *testing.T) {
	ds := structure.New()
	for name, args := range map[string]filter.Arguments{
		"zero dimension": {"path": "Image", "dimensions": []any{3, 0, 1}},
		"fractional":     {"path": "Image", "dimensions": []any{3, 1.5, 1}},
		"zero spacing":   {"path": "Image", "dimensions": []any{3, 2, 1}, "spacing": []any{1, 0, 1}},
	} {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, preflightErr(t, CreateImageGeometry{}, ds, args), filter.ErrArgumentRange)
		})
	}
	assert.Equal(t, 0, ds.Size())
}

func triangleArgs(handling string) filter.Arguments {
	return filter.Arguments{
		"geometry":       "TriangleGeom",
		"path":           "Mesh",
		"array_handling": handling,
		"vertices":       "Inputs/Verts",
		"elements":       "Inputs/Faces",
	}
}

func TestCreateGeometry_Handling(t *testing.T) {
	for _, h := range []string{"copy", "move", "reference"} {
		t.Run(h, func(t *testing.T) {
			ds := structure.New()
			testutil.TriangleInputs(t, ds, 3)

			r := run(t, CreateGeometry{}, ds, triangleArgs(h))
			require.True(t, r.Valid(), r.Err())

			geom, err := structure.ResolveAs[*structure.NodeGeom](ds, testutil.Path("Mesh"))
			require.NoError(t, err)
			assert.Equal(t, uint64(4), geom.NumberOfVertices(ds))
			assert.Equal(t, uint64(2), geom.NumberOfElements(ds))
			assert.Equal(t, h != "move", ds.ContainsPath(testutil.Path("Inputs/Verts")))
		})
	}
}

func TestCreateGeometry_IndexOutOfBounds(t *testing.T) {
	ds := structure.New()
	testutil.TriangleInputs(t, ds, 4)

	r := run(t, CreateGeometry{}, ds, triangleArgs("copy"))
	require.True(t, r.Invalid())
	assert.ErrorIs(t, r.Err(), ErrIndexOutOfBounds)
	assert.True(t, result.IsKind(r.Err(), result.KindExecution))
}

func TestCreateGeometry_Rejects(t *testing.T) {
	ds := structure.New()
	testutil.TriangleInputs(t, ds, 3)
	testutil.Array(t, ds, "Inputs/Quads", datastore.UInt64, datastore.Shape{1}, datastore.Shape{4})

	noElements := triangleArgs("copy")
	delete(noElements, "elements")
	quads := triangleArgs("copy")
	quads["elements"] = "Inputs/Quads"
	badKind := triangleArgs("copy")
	badKind["geometry"] = "ImageGeom"
	intVerts := triangleArgs("copy")
	intVerts["vertices"] = "Inputs/Faces"

	assert.ErrorIs(t, preflightErr(t, CreateGeometry{}, ds, noElements), filter.ErrMissingArgument)
	assert.True(t, result.IsKind(preflightErr(t, CreateGeometry{}, ds, quads), result.KindShapeMismatch))
	assert.ErrorIs(t, preflightErr(t, CreateGeometry{}, ds, badKind), filter.ErrArgumentRange)
	assert.ErrorIs(t, preflightErr(t, CreateGeometry{}, ds, intVerts), filter.ErrSelectionType)
}

func TestCreateGeometry_VertexOnly(t *testing.T) {
	ds := structure.New()
	testutil.TriangleInputs(t, ds, 3)

	r := run(t, CreateGeometry{}, ds, filter.Arguments{"geometry": "VertexGeom", "path": "Cloud", "vertices": "Inputs/Verts"})
	require.True(t, r.Valid(), r.Err())
	assert.True(t, ds.ContainsPath(testutil.Path("Cloud/VertexData")))
}

func mustID(t *testing.T, ds *structure.DataStructure, p string) structure.ObjectID {
	t.Helper()
	id, ok := ds.GetID(testutil.Path(p))
	require.True(t, ok, p)
	return id
}
