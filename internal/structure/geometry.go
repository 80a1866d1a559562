package structure

import (
	"fmt"

	"github.com/roach88/nxcore/internal/datastore"
)

// Geometry is implemented by ImageGeom and NodeGeom.
type Geometry interface {
	Container

	// Dimensionality is the topological dimension of the elements (0-3).
	Dimensionality() int

	// refs lists the child ids the geometry points at.
	refs() []*ObjectID
}

// ImageGeometry describes a regular grid. Dimensions are in X, Y, Z order.
type ImageGeometry struct {
	Dimensions [3]uint64
	Origin     [3]float64
	Spacing    [3]float64
	Units      string
}

// CellTupleShape returns the Z, Y, X tuple shape of the cell data.
func (g ImageGeometry) CellTupleShape() datastore.Shape {
	return datastore.Shape{g.Dimensions[2], g.Dimensions[1], g.Dimensions[0]}
}

// NumberOfCells returns X*Y*Z.
func (g ImageGeometry) NumberOfCells() uint64 {
	return g.Dimensions[0] * g.Dimensions[1] * g.Dimensions[2]
}

func (g ImageGeometry) validate() error {
	for i, d := range g.Dimensions {
		if d == 0 {
			return fmt.Errorf("%w: image dimension %d is zero", ErrInvalidGeometry, i)
		}
	}
	for i, s := range g.Spacing {
		if s <= 0 {
			return fmt.Errorf("%w: image spacing %d must be positive, got %g", ErrInvalidGeometry, i, s)
		}
	}
	if _, err := g.CellTupleShape().ProductChecked(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidGeometry, err)
	}
	return nil
}

// ImageGeom is a regular grid geometry with implicit cell ordering.
type ImageGeom struct {
	objectBase
	children
	geom       ImageGeometry
	cellDataID ObjectID
}

func (g *ImageGeom) Kind() Kind          { return KindImageGeom }
func (g *ImageGeom) Dimensionality() int { return 3 }

// Geometry returns the grid description.
func (g *ImageGeom) Geometry() ImageGeometry { return g.geom }

// NumberOfCells returns the cell count of the grid.
func (g *ImageGeom) NumberOfCells() uint64 { return g.geom.NumberOfCells() }

// CellDataID returns the cell AttributeMatrix, or RootID when unset.
func (g *ImageGeom) CellDataID() ObjectID { return g.cellDataID }

// SetCellData points the geometry at one of its AttributeMatrix children.
// The matrix tuple count must equal the cell count.
func (g *ImageGeom) SetCellData(ds *DataStructure, id ObjectID) error {
	am, err := g.ownedMatrix(ds, id)
	if err != nil {
		return err
	}
	if am.NumTuples() != g.NumberOfCells() {
		return fmt.Errorf("%w: cell data %q has %d tuples, image has %d cells",
			ErrTupleMismatch, am.Name(), am.NumTuples(), g.NumberOfCells())
	}
	g.cellDataID = id
	return nil
}

// Validate checks the cell data reference.
func (g *ImageGeom) Validate(ds *DataStructure) error {
	if err := g.geom.validate(); err != nil {
		return err
	}
	if g.cellDataID == RootID {
		return nil
	}
	am, err := Lookup[*AttributeMatrix](ds, g.cellDataID)
	if err != nil {
		return err
	}
	if am.NumTuples() != g.NumberOfCells() {
		return fmt.Errorf("%w: cell data has %d tuples, image has %d cells", ErrTupleMismatch, am.NumTuples(), g.NumberOfCells())
	}
	return nil
}

func (g *ImageGeom) refs() []*ObjectID { return []*ObjectID{&g.cellDataID} }

func (g *ImageGeom) ownedMatrix(ds *DataStructure, id ObjectID) (*AttributeMatrix, error) {
	return ownedChild[*AttributeMatrix](ds, g, id)
}

// NodeGeom is a geometry with an explicit vertex list: Vertex, Edge,
// Triangle, Quad, Tetrahedral or Hexahedral. Every kind except Vertex has a
// connectivity array of vertex indices, one row per element.
type NodeGeom struct {
	objectBase
	children
	kind           Kind
	verticesID     ObjectID
	connectivityID ObjectID
	vertexDataID   ObjectID
	elementDataID  ObjectID
}

func (g *NodeGeom) Kind() Kind { return g.kind }

// Dimensionality implements Geometry.
func (g *NodeGeom) Dimensionality() int { return dimensionality(g.kind) }

// VerticesPerElement returns the connectivity row length.
func (g *NodeGeom) VerticesPerElement() uint64 { return VerticesPerElement(g.kind) }

func (g *NodeGeom) VerticesID() ObjectID     { return g.verticesID }
func (g *NodeGeom) ConnectivityID() ObjectID { return g.connectivityID }
func (g *NodeGeom) VertexDataID() ObjectID   { return g.vertexDataID }
func (g *NodeGeom) ElementDataID() ObjectID  { return g.elementDataID }

// VerticesPerElement returns the number of vertices per element for a node
// geometry kind, or 0 for other kinds.
func VerticesPerElement(k Kind) uint64 {
	switch k {
	case KindVertexGeom:
		return 1
	case KindEdgeGeom:
		return 2
	case KindTriangleGeom:
		return 3
	case KindQuadGeom, KindTetrahedralGeom:
		return 4
	case KindHexahedralGeom:
		return 8
	}
	return 0
}

func dimensionality(k Kind) int {
	switch k {
	case KindEdgeGeom:
		return 1
	case KindTriangleGeom, KindQuadGeom:
		return 2
	case KindTetrahedralGeom, KindHexahedralGeom, KindImageGeom:
		return 3
	}
	return 0
}

// NumberOfVertices returns the vertex array tuple count, 0 when unset.
func (g *NodeGeom) NumberOfVertices(ds *DataStructure) uint64 {
	if a, err := Lookup[*DataArray](ds, g.verticesID); err == nil {
		return a.NumTuples()
	}
	return 0
}

// NumberOfElements returns the connectivity tuple count. For a vertex
// geometry every vertex is an element.
func (g *NodeGeom) NumberOfElements(ds *DataStructure) uint64 {
	if g.kind == KindVertexGeom {
		return g.NumberOfVertices(ds)
	}
	if a, err := Lookup[*DataArray](ds, g.connectivityID); err == nil {
		return a.NumTuples()
	}
	return 0
}

// SetVertices points the geometry at a child array of 3-component floats.
func (g *NodeGeom) SetVertices(ds *DataStructure, id ObjectID) error {
	a, err := ownedChild[*DataArray](ds, g, id)
	if err != nil {
		return err
	}
	if err := CheckVertexArray(a.DataType(), a.NumComponents()); err != nil {
		return fmt.Errorf("vertices %q: %w", a.Name(), err)
	}
	g.verticesID = id
	return nil
}

// SetConnectivity points the geometry at a child array of integer vertex
// indices with VerticesPerElement components.
func (g *NodeGeom) SetConnectivity(ds *DataStructure, id ObjectID) error {
	if g.kind == KindVertexGeom {
		return fmt.Errorf("%w: vertex geometry %q has no connectivity", ErrInvalidGeometry, g.name)
	}
	a, err := ownedChild[*DataArray](ds, g, id)
	if err != nil {
		return err
	}
	if err := CheckConnectivityArray(g.kind, a.DataType(), a.NumComponents()); err != nil {
		return fmt.Errorf("connectivity %q: %w", a.Name(), err)
	}
	g.connectivityID = id
	return nil
}

// SetVertexData points the geometry at the AttributeMatrix holding
// per-vertex arrays.
func (g *NodeGeom) SetVertexData(ds *DataStructure, id ObjectID) error {
	if _, err := ownedChild[*AttributeMatrix](ds, g, id); err != nil {
		return err
	}
	g.vertexDataID = id
	return nil
}

// SetElementData points the geometry at the AttributeMatrix holding
// per-element arrays.
func (g *NodeGeom) SetElementData(ds *DataStructure, id ObjectID) error {
	if g.kind == KindVertexGeom {
		return fmt.Errorf("%w: vertex geometry %q keeps per-vertex data only", ErrInvalidGeometry, g.name)
	}
	if _, err := ownedChild[*AttributeMatrix](ds, g, id); err != nil {
		return err
	}
	g.elementDataID = id
	return nil
}

// Validate checks that vertex data matches the vertex count and element
// data matches the element count.
func (g *NodeGeom) Validate(ds *DataStructure) error {
	if g.verticesID == RootID {
		return fmt.Errorf("%w: %s %q has no vertices", ErrInvalidGeometry, g.kind, g.name)
	}
	if g.kind != KindVertexGeom && g.connectivityID == RootID {
		return fmt.Errorf("%w: %s %q has no connectivity", ErrInvalidGeometry, g.kind, g.name)
	}
	check := func(role string, amID ObjectID, want uint64) error {
		if amID == RootID {
			return nil
		}
		am, err := Lookup[*AttributeMatrix](ds, amID)
		if err != nil {
			return err
		}
		if am.NumTuples() != want {
			return fmt.Errorf("%w: %s data %q has %d tuples, geometry has %d",
				ErrTupleMismatch, role, am.Name(), am.NumTuples(), want)
		}
		return nil
	}
	if err := check("vertex", g.vertexDataID, g.NumberOfVertices(ds)); err != nil {
		return err
	}
	return check("element", g.elementDataID, g.NumberOfElements(ds))
}

func (g *NodeGeom) refs() []*ObjectID {
	return []*ObjectID{&g.verticesID, &g.connectivityID, &g.vertexDataID, &g.elementDataID}
}

// CheckVertexArray validates the type and component count of a vertex list.
func CheckVertexArray(dt datastore.DataType, components uint64) error {
	if !dt.IsFloat() {
		return fmt.Errorf("%w: vertices must be float32 or float64, got %s", ErrInvalidGeometry, dt)
	}
	if components != 3 {
		return fmt.Errorf("%w: vertices need 3 components, got %d", ErrInvalidGeometry, components)
	}
	return nil
}

// CheckConnectivityArray validates the type and component count of a
// connectivity list for a node geometry kind.
func CheckConnectivityArray(kind Kind, dt datastore.DataType, components uint64) error {
	if !dt.IsInteger() {
		return fmt.Errorf("%w: connectivity must be an integer type, got %s", ErrInvalidGeometry, dt)
	}
	if want := VerticesPerElement(kind); components != want {
		return fmt.Errorf("%w: %s connectivity needs %d components, got %d", ErrInvalidGeometry, kind, want, components)
	}
	return nil
}

// ownedChild looks up id as a T that has parent as one of its parents.
func ownedChild[T Object](ds *DataStructure, parent Object, id ObjectID) (T, error) {
	obj, err := Lookup[T](ds, id)
	if err != nil {
		return obj, err
	}
	if !obj.HasParent(parent.ID()) {
		var zero T
		return zero, fmt.Errorf("%w: %q is not a child of %q", ErrInvalidParent, obj.Name(), parent.Name())
	}
	return obj, nil
}
