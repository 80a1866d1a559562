package structure

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/nxcore/internal/datastore"
	"github.com/roach88/nxcore/internal/result"
)

// buildTriangle creates a triangle geometry with 4 vertices and 2 faces.
func buildTriangle(t *testing.T, ds *DataStructure) *NodeGeom {
	t.Helper()
	g, err := ds.CreateNodeGeom(KindTriangleGeom, "Mesh", RootID)
	require.NoError(t, err)
	verts, err := ds.CreateDataArray("Vertices", g.ID(), mustStore(t, datastore.Float32, datastore.Shape{4}, datastore.Shape{3}))
	require.NoError(t, err)
	faces, err := ds.CreateDataArray("Faces", g.ID(), mustStore(t, datastore.UInt64, datastore.Shape{2}, datastore.Shape{3}))
	require.NoError(t, err)
	vdata, err := ds.CreateAttributeMatrix("VertexData", g.ID(), datastore.Shape{4})
	require.NoError(t, err)
	fdata, err := ds.CreateAttributeMatrix("FaceData", g.ID(), datastore.Shape{2})
	require.NoError(t, err)

	require.NoError(t, g.SetVertices(ds, verts.ID()))
	require.NoError(t, g.SetConnectivity(ds, faces.ID()))
	require.NoError(t, g.SetVertexData(ds, vdata.ID()))
	require.NoError(t, g.SetElementData(ds, fdata.ID()))
	return g
}

func TestNodeGeom_Counts(t *testing.T) {
	ds := New()
	g := buildTriangle(t, ds)

	assert.Equal(t, uint64(4), g.NumberOfVertices(ds))
	assert.Equal(t, uint64(2), g.NumberOfElements(ds))
	assert.Equal(t, uint64(3), g.VerticesPerElement())
	assert.Equal(t, 2, g.Dimensionality())
	require.NoError(t, g.Validate(ds))
}

func TestNodeGeom_RejectsBadArrays(t *testing.T) {
	ds := New()
	g, err := ds.CreateNodeGeom(KindEdgeGeom, "Edges", RootID)
	require.NoError(t, err)
	intVerts, _ := ds.CreateDataArray("IntVerts", g.ID(), mustStore(t, datastore.Int32, datastore.Shape{2}, datastore.Shape{3}))
	floatEdges, _ := ds.CreateDataArray("FloatEdges", g.ID(), mustStore(t, datastore.Float32, datastore.Shape{1}, datastore.Shape{2}))
	wide, _ := ds.CreateDataArray("Wide", g.ID(), mustStore(t, datastore.Int64, datastore.Shape{1}, datastore.Shape{3}))
	outside, _ := ds.CreateDataArray("Outside", RootID, mustStore(t, datastore.Float32, datastore.Shape{2}, datastore.Shape{3}))

	require.ErrorIs(t, g.SetVertices(ds, intVerts.ID()), ErrInvalidGeometry)
	require.ErrorIs(t, g.SetConnectivity(ds, floatEdges.ID()), ErrInvalidGeometry)
	require.ErrorIs(t, g.SetConnectivity(ds, wide.ID()), ErrInvalidGeometry)
	require.ErrorIs(t, g.SetVertices(ds, outside.ID()), result.ErrInvalidParent)
	require.ErrorIs(t, g.Validate(ds), ErrInvalidGeometry)
}

func TestNodeGeom_ValidateTupleCounts(t *testing.T) {
	ds := New()
	g := buildTriangle(t, ds)
	faces, err := Lookup[*DataArray](ds, g.ConnectivityID())
	require.NoError(t, err)

	require.NoError(t, faces.Store().ResizeTuples(datastore.Shape{5}))
	require.ErrorIs(t, g.Validate(ds), ErrTupleMismatch)
}

func TestNodeGeom_RemovingChildClearsReference(t *testing.T) {
	ds := New()
	g := buildTriangle(t, ds)
	vid := g.VerticesID()

	_, err := ds.RemoveParent(vid, g.ID())
	require.NoError(t, err)
	assert.Equal(t, RootID, g.VerticesID())
	assert.Equal(t, uint64(0), g.NumberOfVertices(ds))
}

func TestVertexGeom_NoConnectivity(t *testing.T) {
	ds := New()
	g, err := ds.CreateNodeGeom(KindVertexGeom, "Points", RootID)
	require.NoError(t, err)
	verts, err := ds.CreateDataArray("Vertices", g.ID(), mustStore(t, datastore.Float64, datastore.Shape{7}, datastore.Shape{3}))
	require.NoError(t, err)
	require.NoError(t, g.SetVertices(ds, verts.ID()))

	assert.Equal(t, uint64(7), g.NumberOfElements(ds))
	require.ErrorIs(t, g.SetConnectivity(ds, verts.ID()), ErrInvalidGeometry)
	require.NoError(t, g.Validate(ds))
}

func TestCreateNodeGeom_RejectsImageKind(t *testing.T) {
	_, err := New().CreateNodeGeom(KindImageGeom, "Image", RootID)
	require.ErrorIs(t, err, datastore.ErrUnsupportedType)
}

func TestImageGeom_CellData(t *testing.T) {
	ds := New()
	img, err := ds.CreateImageGeom("Image", RootID, ImageGeometry{
		Dimensions: [3]uint64{10, 10, 1},
		Spacing:    [3]float64{1, 1, 1},
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(100), img.NumberOfCells())
	assert.Equal(t, datastore.Shape{1, 10, 10}, img.Geometry().CellTupleShape())

	wrong, err := ds.CreateAttributeMatrix("Wrong", img.ID(), datastore.Shape{5})
	require.NoError(t, err)
	require.ErrorIs(t, img.SetCellData(ds, wrong.ID()), ErrTupleMismatch)

	cells, err := ds.CreateAttributeMatrix("CellData", img.ID(), img.Geometry().CellTupleShape())
	require.NoError(t, err)
	require.NoError(t, img.SetCellData(ds, cells.ID()))
	assert.Equal(t, cells.ID(), img.CellDataID())
	require.NoError(t, img.Validate(ds))
}

func TestCreateImageGeom_RejectsZeroDimension(t *testing.T) {
	_, err := New().CreateImageGeom("Image", RootID, ImageGeometry{
		Dimensions: [3]uint64{10, 0, 1},
		Spacing:    [3]float64{1, 1, 1},
	})
	require.ErrorIs(t, err, ErrInvalidGeometry)
}
