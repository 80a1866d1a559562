package structure

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/roach88/nxcore/internal/datapath"
	"github.com/roach88/nxcore/internal/datastore"
	"github.com/roach88/nxcore/internal/result"
)

func mustStore(t testing.TB, dt datastore.DataType, ts, cs datastore.Shape) datastore.Store {
	t.Helper()
	s, err := datastore.New(dt, ts, cs)
	require.NoError(t, err)
	return s
}

func TestNew_FirstIDIsOne(t *testing.T) {
	ds := New()
	assert.Equal(t, ObjectID(1), ds.NextID())

	g, err := ds.CreateDataGroup("Group", RootID)
	require.NoError(t, err)
	assert.Equal(t, ObjectID(1), g.ID())
	assert.Equal(t, []ObjectID{RootID}, g.ParentIDs())
	assert.Equal(t, ObjectID(2), ds.NextID())
}

func TestCreate_FailureConsumesNoID(t *testing.T) {
	ds := New()
	_, err := ds.CreateDataGroup("Group", RootID)
	require.NoError(t, err)

	_, err = ds.CreateDataGroup("Group", RootID)
	require.ErrorIs(t, err, result.ErrAlreadyExists)
	assert.Equal(t, ObjectID(2), ds.NextID())
	assert.Equal(t, 1, ds.Size())
}

func TestCreate_NameUniquePerParentOnly(t *testing.T) {
	ds := New()
	a, err := ds.CreateDataGroup("A", RootID)
	require.NoError(t, err)
	b, err := ds.CreateDataGroup("B", RootID)
	require.NoError(t, err)

	_, err = ds.CreateDataGroup("Same", a.ID())
	require.NoError(t, err)
	_, err = ds.CreateDataGroup("Same", b.ID())
	require.NoError(t, err)
}

func TestCreate_InvalidParent(t *testing.T) {
	ds := New()
	arr, err := ds.CreateDataArray("Arr", RootID, mustStore(t, datastore.Int32, datastore.Shape{2}, datastore.Shape{1}))
	require.NoError(t, err)

	_, err = ds.CreateDataGroup("Child", arr.ID())
	require.ErrorIs(t, err, result.ErrInvalidParent)

	_, err = ds.CreateDataGroup("Child", 99)
	require.ErrorIs(t, err, result.ErrInvalidParent)
}

func TestCreate_InvalidName(t *testing.T) {
	ds := New()
	_, err := ds.CreateDataGroup("a/b", RootID)
	require.ErrorIs(t, err, ErrInvalidName)
	_, err = ds.CreateDataGroup("", RootID)
	require.ErrorIs(t, err, ErrInvalidName)
}

func TestAttributeMatrix_TupleInvariant(t *testing.T) {
	ds := New()
	am, err := ds.CreateAttributeMatrix("CellData", RootID, datastore.Shape{1, 10, 10})
	require.NoError(t, err)

	_, err = ds.CreateDataArray("Bad", am.ID(), mustStore(t, datastore.Float32, datastore.Shape{99}, datastore.Shape{1}))
	require.ErrorIs(t, err, result.ErrShapeMismatch)
	assert.False(t, ds.ContainsPath(datapath.MustParse("CellData/Bad")))
	assert.Equal(t, ObjectID(2), ds.NextID())

	_, err = ds.CreateDataArray("Flat", am.ID(), mustStore(t, datastore.Float32, datastore.Shape{100}, datastore.Shape{3}))
	require.NoError(t, err)

	_, err = ds.CreateDataGroup("Group", am.ID())
	require.ErrorIs(t, err, result.ErrInvalidParent)

	_, err = ds.CreateNeighborList("Neighbors", am.ID(), datastore.Int32, datastore.Shape{1, 10, 10}, false)
	require.NoError(t, err)
}

func TestResolve(t *testing.T) {
	ds := New()
	g, err := ds.CreateDataGroup("Group", RootID)
	require.NoError(t, err)
	arr, err := ds.CreateDataArray("Arr", g.ID(), mustStore(t, datastore.UInt8, datastore.Shape{4}, datastore.Shape{1}))
	require.NoError(t, err)

	obj, err := ds.Resolve(datapath.MustParse("Group/Arr"))
	require.NoError(t, err)
	assert.Equal(t, arr.ID(), obj.ID())

	_, err = ds.Resolve(datapath.MustParse("Group/Missing"))
	require.ErrorIs(t, err, result.ErrPathResolution)

	_, err = ds.Resolve(datapath.MustParse("Group/Arr/Deeper"))
	require.ErrorIs(t, err, ErrPathNotFound)

	_, err = ResolveAs[*AttributeMatrix](ds, datapath.MustParse("Group/Arr"))
	require.ErrorIs(t, err, ErrWrongKind)

	id, ok := ds.GetID(datapath.MustParse("Group"))
	assert.True(t, ok)
	assert.Equal(t, g.ID(), id)
}

func TestAddParent_SharesObject(t *testing.T) {
	ds := New()
	a, _ := ds.CreateDataGroup("A", RootID)
	b, _ := ds.CreateDataGroup("B", RootID)
	arr, err := ds.CreateDataArray("Arr", a.ID(), mustStore(t, datastore.Int8, datastore.Shape{1}, datastore.Shape{1}))
	require.NoError(t, err)

	require.NoError(t, ds.AddParent(arr.ID(), b.ID()))
	assert.Equal(t, 2, arr.ParentCount())
	assert.Equal(t, []datapath.DataPath{datapath.MustParse("A/Arr"), datapath.MustParse("B/Arr")}, ds.AllPaths(arr.ID()))

	err = ds.AddParent(arr.ID(), b.ID())
	require.ErrorIs(t, err, result.ErrAlreadyExists)
}

func TestAddParent_RejectsCycle(t *testing.T) {
	ds := New()
	a, _ := ds.CreateDataGroup("A", RootID)
	b, _ := ds.CreateDataGroup("B", a.ID())

	require.ErrorIs(t, ds.AddParent(a.ID(), b.ID()), ErrCycle)
	require.ErrorIs(t, ds.AddParent(a.ID(), a.ID()), ErrCycle)
}

func TestRemoveParent_OrphanCascades(t *testing.T) {
	ds := New()
	g, _ := ds.CreateDataGroup("Group", RootID)
	inner, _ := ds.CreateDataGroup("Inner", g.ID())
	arr, err := ds.CreateDataArray("Arr", inner.ID(), mustStore(t, datastore.Float64, datastore.Shape{3}, datastore.Shape{1}))
	require.NoError(t, err)

	orphaned, err := ds.RemoveParent(g.ID(), RootID)
	require.NoError(t, err)
	assert.True(t, orphaned)
	assert.Equal(t, 0, ds.Size())

	_, ok := ds.Get(arr.ID())
	assert.False(t, ok)
	assert.Equal(t, ObjectID(4), ds.NextID())
}

func TestRemoveParent_SharedChildSurvives(t *testing.T) {
	ds := New()
	a, _ := ds.CreateDataGroup("A", RootID)
	b, _ := ds.CreateDataGroup("B", RootID)
	arr, _ := ds.CreateDataArray("Arr", a.ID(), mustStore(t, datastore.Float64, datastore.Shape{3}, datastore.Shape{1}))
	require.NoError(t, ds.AddParent(arr.ID(), b.ID()))

	require.NoError(t, ds.RemoveObject(a.ID()))

	_, ok := ds.Get(arr.ID())
	require.True(t, ok)
	assert.Equal(t, []ObjectID{b.ID()}, arr.ParentIDs())
	assert.True(t, ds.ContainsPath(datapath.MustParse("B/Arr")))
}

func TestRemoveParent_NotAParent(t *testing.T) {
	ds := New()
	a, _ := ds.CreateDataGroup("A", RootID)
	b, _ := ds.CreateDataGroup("B", RootID)

	_, err := ds.RemoveParent(a.ID(), b.ID())
	require.ErrorIs(t, err, ErrNotAParent)
}

func TestRemovePath_RemovesOneEdge(t *testing.T) {
	ds := New()
	a, _ := ds.CreateDataGroup("A", RootID)
	b, _ := ds.CreateDataGroup("B", RootID)
	arr, _ := ds.CreateDataArray("Arr", a.ID(), mustStore(t, datastore.Int16, datastore.Shape{1}, datastore.Shape{1}))
	require.NoError(t, ds.AddParent(arr.ID(), b.ID()))

	orphaned, err := ds.RemovePath(datapath.MustParse("A/Arr"))
	require.NoError(t, err)
	assert.False(t, orphaned)
	assert.False(t, ds.ContainsPath(datapath.MustParse("A/Arr")))

	orphaned, err = ds.RemovePath(datapath.MustParse("B/Arr"))
	require.NoError(t, err)
	assert.True(t, orphaned)
}

func TestRename(t *testing.T) {
	ds := New()
	a, _ := ds.CreateDataGroup("A", RootID)
	_, _ = ds.CreateDataGroup("B", RootID)

	require.ErrorIs(t, ds.Rename(a.ID(), "B"), result.ErrAlreadyExists)
	require.NoError(t, ds.Rename(a.ID(), "C"))
	assert.True(t, ds.ContainsPath(datapath.MustParse("C")))
	assert.False(t, ds.ContainsPath(datapath.MustParse("A")))
	assert.Equal(t, "C", a.Name())
}

func TestWalk_VisitsEveryPath(t *testing.T) {
	ds := New()
	a, _ := ds.CreateDataGroup("A", RootID)
	b, _ := ds.CreateDataGroup("B", RootID)
	arr, _ := ds.CreateDataArray("Arr", a.ID(), mustStore(t, datastore.Int16, datastore.Shape{1}, datastore.Shape{1}))
	require.NoError(t, ds.AddParent(arr.ID(), b.ID()))

	var seen []string
	require.NoError(t, ds.Walk(func(p datapath.DataPath, _ Object) error {
		seen = append(seen, p.String())
		return nil
	}))
	assert.Equal(t, []string{"A", "A/Arr", "B", "B/Arr"}, seen)
}

func TestAttributeMatrix_ResizeTuples(t *testing.T) {
	ds := New()
	am, _ := ds.CreateAttributeMatrix("AM", RootID, datastore.Shape{2, 3})
	shaped, err := ds.CreateDataArray("Shaped", am.ID(), mustStore(t, datastore.Int32, datastore.Shape{2, 3}, datastore.Shape{1}))
	require.NoError(t, err)
	flat, err := ds.CreateDataArray("Flat", am.ID(), mustStore(t, datastore.Int32, datastore.Shape{6}, datastore.Shape{2}))
	require.NoError(t, err)
	nl, err := ds.CreateNeighborList("NL", am.ID(), datastore.Float32, datastore.Shape{2, 3}, true)
	require.NoError(t, err)

	require.NoError(t, am.ResizeTuples(ds, datastore.Shape{4, 3}))

	assert.Equal(t, datastore.Shape{4, 3}, shaped.TupleShape())
	assert.Equal(t, datastore.Shape{12}, flat.TupleShape())
	assert.Equal(t, uint64(2), flat.NumComponents())
	assert.Equal(t, uint64(12), nl.NumTuples())
	assert.Equal(t, uint64(12), am.NumTuples())
}

func TestAttributeMatrix_ResizeRejectsBeforeMutating(t *testing.T) {
	ds := New()
	am, _ := ds.CreateAttributeMatrix("AM", RootID, datastore.Shape{2, 3})
	flat, err := ds.CreateDataArray("Flat", am.ID(), mustStore(t, datastore.Int32, datastore.Shape{6}, datastore.Shape{1}))
	require.NoError(t, err)
	_, err = ds.CreateDataArray("Rank3", am.ID(), mustStore(t, datastore.Int32, datastore.Shape{1, 2, 3}, datastore.Shape{1}))
	require.NoError(t, err)

	err = am.ResizeTuples(ds, datastore.Shape{4, 3})
	require.ErrorIs(t, err, result.ErrShapeMismatch)
	assert.Equal(t, datastore.Shape{6}, flat.TupleShape())
	assert.Equal(t, datastore.Shape{2, 3}, am.TupleShape())
}

func TestAttributeMatrix_ResizeRejectsSharedArray(t *testing.T) {
	ds := New()
	a, _ := ds.CreateAttributeMatrix("A", RootID, datastore.Shape{10})
	b, _ := ds.CreateAttributeMatrix("B", RootID, datastore.Shape{10})
	x, err := ds.CreateDataArray("X", a.ID(), mustStore(t, datastore.Float32, datastore.Shape{10}, datastore.Shape{1}))
	require.NoError(t, err)
	require.NoError(t, ds.AddParent(x.ID(), b.ID()))

	err = a.ResizeTuples(ds, datastore.Shape{20})
	require.ErrorIs(t, err, ErrTupleMismatch)
	assert.Equal(t, uint64(10), a.NumTuples())
	assert.Equal(t, uint64(10), b.NumTuples())
	assert.Equal(t, uint64(10), x.NumTuples())

	_, err = FromSnapshot(ds.Snapshot())
	require.NoError(t, err)

	// Reshaping without changing the count keeps the other matrix valid.
	require.NoError(t, a.ResizeTuples(ds, datastore.Shape{2, 5}))
	assert.Equal(t, datastore.Shape{10}, x.TupleShape())
}

func TestAttributeMatrix_ResizeRejectsGeometryBinding(t *testing.T) {
	ds := New()
	g := buildTriangle(t, ds)
	vdata, err := ResolveAs[*AttributeMatrix](ds, datapath.MustParse("Mesh/VertexData"))
	require.NoError(t, err)

	err = vdata.ResizeTuples(ds, datastore.Shape{5})
	require.ErrorIs(t, err, ErrTupleMismatch)
	assert.Equal(t, uint64(4), vdata.NumTuples())

	shared, err := ds.CreateAttributeMatrix("Shared", RootID, datastore.Shape{4})
	require.NoError(t, err)
	require.NoError(t, ds.AddParent(g.VerticesID(), shared.ID()))

	err = shared.ResizeTuples(ds, datastore.Shape{6})
	require.ErrorIs(t, err, ErrTupleMismatch)
	assert.Equal(t, uint64(4), g.NumberOfVertices(ds))
	require.NoError(t, g.Validate(ds))

	image, err := ds.CreateImageGeom("Image", RootID, ImageGeometry{Dimensions: [3]uint64{2, 2, 1}, Spacing: [3]float64{1, 1, 1}})
	require.NoError(t, err)
	cells, err := ds.CreateAttributeMatrix("CellData", image.ID(), datastore.Shape{1, 2, 2})
	require.NoError(t, err)
	require.NoError(t, image.SetCellData(ds, cells.ID()))

	require.ErrorIs(t, cells.ResizeTuples(ds, datastore.Shape{1, 2, 3}), ErrTupleMismatch)
	require.NoError(t, cells.ResizeTuples(ds, datastore.Shape{4, 1, 1}))
	require.NoError(t, image.Validate(ds))
}

func TestAttributeMatrix_CreateRejectsOverflowingShape(t *testing.T) {
	ds := New()
	_, err := ds.CreateAttributeMatrix("Huge", RootID, datastore.Shape{1 << 32, 1 << 32})
	require.ErrorIs(t, err, datastore.ErrInvalidShape)
	assert.Equal(t, 0, ds.Size())
	assert.Equal(t, ObjectID(1), ds.NextID())
}

func TestIDs_MonotonicNeverReused(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		ds := New()
		seen := map[ObjectID]bool{}
		last := ObjectID(0)

		steps := rapid.IntRange(1, 40).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			live := ds.ObjectIDs()
			if len(live) > 0 && rapid.Bool().Draw(t, "remove") {
				victim := rapid.SampledFrom(live).Draw(t, "victim")
				if err := ds.RemoveObject(victim); err != nil {
					t.Fatalf("remove %d: %v", victim, err)
				}
				continue
			}
			parent := RootID
			if len(live) > 0 && rapid.Bool().Draw(t, "nested") {
				candidate := rapid.SampledFrom(live).Draw(t, "parent")
				if _, ok := ds.objects[candidate].(*DataGroup); ok {
					parent = candidate
				}
			}
			name := rapid.StringMatching(`[a-d]`).Draw(t, "name")
			before := ds.NextID()
			g, err := ds.CreateDataGroup(name, parent)
			if err != nil {
				if ds.NextID() != before {
					t.Fatalf("failed create consumed an id")
				}
				continue
			}
			if seen[g.ID()] || g.ID() <= last {
				t.Fatalf("id %d reused or not increasing (last %d)", g.ID(), last)
			}
			seen[g.ID()] = true
			last = g.ID()
		}
		if ds.NextID() != last+1 && last != 0 {
			t.Fatalf("next id %d, last issued %d", ds.NextID(), last)
		}
	})
}
