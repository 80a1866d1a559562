package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/nxcore/internal/datapath"
	"github.com/roach88/nxcore/internal/datastore"
	"github.com/roach88/nxcore/internal/structure"
)

// Path parses s, panicking on malformed input.
func Path(s string) datapath.DataPath { return datapath.MustParse(s) }

func parentOf(t testing.TB, ds *structure.DataStructure, p datapath.DataPath) structure.ObjectID {
	t.Helper()
	id, err := ds.ContainerID(p.Parent())
	require.NoError(t, err, "parent of %s", p)
	return id
}

// Group creates a data group at p. The parent must exist.
func Group(t testing.TB, ds *structure.DataStructure, p string) *structure.DataGroup {
	t.Helper()
	path := Path(p)
	g, err := ds.CreateDataGroup(path.Name(), parentOf(t, ds, path))
	require.NoError(t, err)
	return g
}

// Matrix creates an attribute matrix at p.
func Matrix(t testing.TB, ds *structure.DataStructure, p string, tuples ...uint64) *structure.AttributeMatrix {
	t.Helper()
	path := Path(p)
	am, err := ds.CreateAttributeMatrix(path.Name(), parentOf(t, ds, path), datastore.Shape(tuples))
	require.NoError(t, err)
	return am
}

// Array creates a heap array at p with the given shapes and fills it with
// values in flat order. Missing values stay zero.
func Array(t testing.TB, ds *structure.DataStructure, p string, dt datastore.DataType, tuples, comps datastore.Shape, values ...float64) *structure.DataArray {
	t.Helper()
	store, err := datastore.New(dt, tuples, comps)
	require.NoError(t, err)
	for i, v := range values {
		require.NoError(t, store.SetFloat64(uint64(i), v))
	}
	path := Path(p)
	arr, err := ds.CreateDataArray(path.Name(), parentOf(t, ds, path), store)
	require.NoError(t, err)
	return arr
}

// Values reads every element of the array at p.
func Values(t testing.TB, ds *structure.DataStructure, p string) []float64 {
	t.Helper()
	arr, err := structure.ResolveAs[*structure.DataArray](ds, Path(p))
	require.NoError(t, err)
	out := make([]float64, arr.Store().Size())
	for i := range out {
		out[i], err = arr.Store().GetFloat64(uint64(i))
		require.NoError(t, err)
	}
	return out
}

// TriangleInputs creates the group Inputs holding a four-vertex float32
// list Verts and a two-triangle uint64 list Faces. lastIndex replaces the
// final connectivity entry, so a value of 4 or more is out of bounds.
func TriangleInputs(t testing.TB, ds *structure.DataStructure, lastIndex float64) {
	t.Helper()
	Group(t, ds, "Inputs")
	Array(t, ds, "Inputs/Verts", datastore.Float32, datastore.Shape{4}, datastore.Shape{3},
		0, 0, 0,
		1, 0, 0,
		1, 1, 0,
		0, 1, 0,
	)
	Array(t, ds, "Inputs/Faces", datastore.UInt64, datastore.Shape{2}, datastore.Shape{3},
		0, 1, 2,
		0, 2, lastIndex,
	)
}

// Shapes lists every reachable path with its kind and, for arrays and
// matrices, its shapes.
func Shapes(t testing.TB, ds *structure.DataStructure) map[string]string {
	t.Helper()
	out := map[string]string{}
	err := ds.Walk(func(p datapath.DataPath, obj structure.Object) error {
		switch o := obj.(type) {
		case *structure.DataArray:
			out[p.String()] = o.DataType().String() + " " + o.TupleShape().String() + "x" + o.ComponentShape().String()
		case *structure.AttributeMatrix:
			out[p.String()] = "AttributeMatrix " + o.TupleShape().String()
		case structure.Array:
			out[p.String()] = obj.Kind().String() + " " + o.TupleShape().String()
		default:
			out[p.String()] = obj.Kind().String()
		}
		return nil
	})
	require.NoError(t, err)
	return out
}
