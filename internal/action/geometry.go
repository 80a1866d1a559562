package action

import (
	"fmt"
	"slices"

	"github.com/roach88/nxcore/internal/datapath"
	"github.com/roach88/nxcore/internal/datastore"
	"github.com/roach88/nxcore/internal/result"
	"github.com/roach88/nxcore/internal/structure"
)

// Default child names of created geometries.
const (
	DefaultCellDataName    = "CellData"
	DefaultVertexDataName  = "VertexData"
	DefaultEdgeDataName    = "EdgeData"
	DefaultFaceDataName    = "FaceData"
	DefaultVerticesName    = "SharedVertexList"
	DefaultEdgesName       = "SharedEdgeList"
	DefaultTrianglesName   = "SharedTriList"
	DefaultQuadsName       = "SharedQuadList"
	DefaultTetrahedraName  = "SharedTetList"
	DefaultHexahedraName   = "SharedHexList"
	defaultConnectivityDT  = datastore.UInt64
	defaultVertexCoordType = datastore.Float32
)

// CreateImageGeometryAction creates an image geometry with a cell
// attribute matrix of shape Z, Y, X.
type CreateImageGeometryAction struct {
	Path         datapath.DataPath
	Geometry     structure.ImageGeometry
	CellDataName string
}

func (a CreateImageGeometryAction) cellDataName() string {
	return or(a.CellDataName, DefaultCellDataName)
}

func (a CreateImageGeometryAction) Apply(ds *structure.DataStructure, _ Mode) result.Result[result.Void] {
	parentID, err := checkTarget(ds, a.Path)
	if err != nil {
		return fail(err)
	}
	if err := checkName(a.cellDataName()); err != nil {
		return fail(err)
	}
	img, err := ds.CreateImageGeom(a.Path.Name(), parentID, a.Geometry)
	if err != nil {
		return fail(err)
	}
	am, err := ds.CreateAttributeMatrix(a.cellDataName(), img.ID(), a.Geometry.CellTupleShape())
	if err == nil {
		err = img.SetCellData(ds, am.ID())
	}
	if err != nil {
		// The graph is restored; ids issued to img and am stay consumed.
		_ = ds.RemoveObject(img.ID())
		return fail(err)
	}
	return result.OkVoid()
}

func (a CreateImageGeometryAction) CreatedPaths() []datapath.DataPath {
	return []datapath.DataPath{a.Path, a.Path.MustCreateChildPath(a.cellDataName())}
}

func (a CreateImageGeometryAction) String() string {
	return fmt.Sprintf("CreateImageGeometry %s dims=%v", a.Path, a.Geometry.Dimensions)
}

func (a CreateImageGeometryAction) Preview() Preview {
	return Preview{Type: "CreateImageGeometry", Path: a.Path.String(), Params: map[string]any{
		"dimensions": a.Geometry.Dimensions,
		"origin":     a.Geometry.Origin,
		"spacing":    a.Geometry.Spacing,
		"cell_data":  a.cellDataName(),
	}}
}

// CreateVertexGeometryAction creates a point cloud geometry.
type CreateVertexGeometryAction struct {
	Path               datapath.DataPath
	NumVertices        uint64
	VertexDataName     string
	SharedVerticesName string
	InputVertices      datapath.DataPath
	Handling           ArrayHandling
}

func (a CreateVertexGeometryAction) spec() nodeGeometry {
	return nodeGeometry{
		kind:           structure.KindVertexGeom,
		path:           a.Path,
		numVertices:    a.NumVertices,
		vertexDataName: or(a.VertexDataName, DefaultVertexDataName),
		verticesName:   or(a.SharedVerticesName, DefaultVerticesName),
		inputVertices:  a.InputVertices,
		handling:       a.Handling,
	}
}

func (a CreateVertexGeometryAction) Apply(ds *structure.DataStructure, mode Mode) result.Result[result.Void] {
	return a.ApplyWith(ds, mode, nil)
}

func (a CreateVertexGeometryAction) ApplyWith(ds *structure.DataStructure, mode Mode, alloc Allocator) result.Result[result.Void] {
	return a.spec().apply(ds, mode, alloc)
}

func (a CreateVertexGeometryAction) CreatedPaths() []datapath.DataPath { return a.spec().createdPaths() }
func (a CreateVertexGeometryAction) String() string                    { return a.spec().String() }
func (a CreateVertexGeometryAction) Preview() Preview                  { return a.spec().preview() }

// CreateGeometry1DAction creates an edge geometry.
type CreateGeometry1DAction struct {
	Path               datapath.DataPath
	NumVertices        uint64
	NumEdges           uint64
	VertexDataName     string
	EdgeDataName       string
	SharedVerticesName string
	SharedEdgesName    string
	InputVertices      datapath.DataPath
	InputEdges         datapath.DataPath
	Handling           ArrayHandling
}

func (a CreateGeometry1DAction) spec() nodeGeometry {
	return nodeGeometry{
		kind:            structure.KindEdgeGeom,
		path:            a.Path,
		numVertices:     a.NumVertices,
		numElements:     a.NumEdges,
		vertexDataName:  or(a.VertexDataName, DefaultVertexDataName),
		elementDataName: or(a.EdgeDataName, DefaultEdgeDataName),
		verticesName:    or(a.SharedVerticesName, DefaultVerticesName),
		elementsName:    or(a.SharedEdgesName, DefaultEdgesName),
		inputVertices:   a.InputVertices,
		inputElements:   a.InputEdges,
		handling:        a.Handling,
	}
}

func (a CreateGeometry1DAction) Apply(ds *structure.DataStructure, mode Mode) result.Result[result.Void] {
	return a.ApplyWith(ds, mode, nil)
}

func (a CreateGeometry1DAction) ApplyWith(ds *structure.DataStructure, mode Mode, alloc Allocator) result.Result[result.Void] {
	return a.spec().apply(ds, mode, alloc)
}

func (a CreateGeometry1DAction) CreatedPaths() []datapath.DataPath { return a.spec().createdPaths() }
func (a CreateGeometry1DAction) String() string                    { return a.spec().String() }
func (a CreateGeometry1DAction) Preview() Preview                  { return a.spec().preview() }

// CreateGeometry2DAction creates a triangle or quad geometry.
type CreateGeometry2DAction struct {
	// Kind is structure.KindTriangleGeom or structure.KindQuadGeom.
	Kind               structure.Kind
	Path               datapath.DataPath
	NumVertices        uint64
	NumFaces           uint64
	VertexDataName     string
	FaceDataName       string
	SharedVerticesName string
	SharedFacesName    string
	InputVertices      datapath.DataPath
	InputFaces         datapath.DataPath
	Handling           ArrayHandling
}

func (a CreateGeometry2DAction) spec() nodeGeometry {
	facesName := DefaultTrianglesName
	if a.Kind == structure.KindQuadGeom {
		facesName = DefaultQuadsName
	}
	return nodeGeometry{
		kind:            a.Kind,
		path:            a.Path,
		numVertices:     a.NumVertices,
		numElements:     a.NumFaces,
		vertexDataName:  or(a.VertexDataName, DefaultVertexDataName),
		elementDataName: or(a.FaceDataName, DefaultFaceDataName),
		verticesName:    or(a.SharedVerticesName, DefaultVerticesName),
		elementsName:    or(a.SharedFacesName, facesName),
		inputVertices:   a.InputVertices,
		inputElements:   a.InputFaces,
		handling:        a.Handling,
		allowedKinds:    []structure.Kind{structure.KindTriangleGeom, structure.KindQuadGeom},
	}
}

func (a CreateGeometry2DAction) Apply(ds *structure.DataStructure, mode Mode) result.Result[result.Void] {
	return a.ApplyWith(ds, mode, nil)
}

func (a CreateGeometry2DAction) ApplyWith(ds *structure.DataStructure, mode Mode, alloc Allocator) result.Result[result.Void] {
	return a.spec().apply(ds, mode, alloc)
}

func (a CreateGeometry2DAction) CreatedPaths() []datapath.DataPath { return a.spec().createdPaths() }
func (a CreateGeometry2DAction) String() string                    { return a.spec().String() }
func (a CreateGeometry2DAction) Preview() Preview                  { return a.spec().preview() }

// CreateGeometry3DAction creates a tetrahedral or hexahedral geometry.
type CreateGeometry3DAction struct {
	// Kind is structure.KindTetrahedralGeom or structure.KindHexahedralGeom.
	Kind               structure.Kind
	Path               datapath.DataPath
	NumVertices        uint64
	NumCells           uint64
	VertexDataName     string
	CellDataName       string
	SharedVerticesName string
	SharedCellsName    string
	InputVertices      datapath.DataPath
	InputCells         datapath.DataPath
	Handling           ArrayHandling
}

func (a CreateGeometry3DAction) spec() nodeGeometry {
	cellsName := DefaultTetrahedraName
	if a.Kind == structure.KindHexahedralGeom {
		cellsName = DefaultHexahedraName
	}
	return nodeGeometry{
		kind:            a.Kind,
		path:            a.Path,
		numVertices:     a.NumVertices,
		numElements:     a.NumCells,
		vertexDataName:  or(a.VertexDataName, DefaultVertexDataName),
		elementDataName: or(a.CellDataName, DefaultCellDataName),
		verticesName:    or(a.SharedVerticesName, DefaultVerticesName),
		elementsName:    or(a.SharedCellsName, cellsName),
		inputVertices:   a.InputVertices,
		inputElements:   a.InputCells,
		handling:        a.Handling,
		allowedKinds:    []structure.Kind{structure.KindTetrahedralGeom, structure.KindHexahedralGeom},
	}
}

func (a CreateGeometry3DAction) Apply(ds *structure.DataStructure, mode Mode) result.Result[result.Void] {
	return a.ApplyWith(ds, mode, nil)
}

func (a CreateGeometry3DAction) ApplyWith(ds *structure.DataStructure, mode Mode, alloc Allocator) result.Result[result.Void] {
	return a.spec().apply(ds, mode, alloc)
}

func (a CreateGeometry3DAction) CreatedPaths() []datapath.DataPath { return a.spec().createdPaths() }
func (a CreateGeometry3DAction) String() string                    { return a.spec().String() }
func (a CreateGeometry3DAction) Preview() Preview                  { return a.spec().preview() }

// nodeGeometry is the shared body of the node geometry actions.
type nodeGeometry struct {
	kind            structure.Kind
	path            datapath.DataPath
	numVertices     uint64
	numElements     uint64
	vertexDataName  string
	elementDataName string
	verticesName    string
	elementsName    string
	inputVertices   datapath.DataPath
	inputElements   datapath.DataPath
	handling        ArrayHandling
	allowedKinds    []structure.Kind
}

func (g nodeGeometry) hasElements() bool { return g.kind != structure.KindVertexGeom }

func (g nodeGeometry) String() string {
	return fmt.Sprintf("Create%s %s handling=%s", g.kind, g.path, g.handling)
}

func (g nodeGeometry) createdPaths() []datapath.DataPath {
	out := []datapath.DataPath{g.path, g.path.MustCreateChildPath(g.vertexDataName)}
	if g.hasElements() {
		out = append(out, g.path.MustCreateChildPath(g.elementDataName))
	}
	if g.handling == HandlingCreate || g.handling == HandlingCopy {
		out = append(out, g.path.MustCreateChildPath(g.verticesName))
		if g.hasElements() {
			out = append(out, g.path.MustCreateChildPath(g.elementsName))
		}
	}
	return out
}

func (g nodeGeometry) preview() Preview {
	params := map[string]any{
		"geometry":       g.kind.String(),
		"array_handling": g.handling.String(),
	}
	if g.handling == HandlingCreate {
		params["num_vertices"] = g.numVertices
		if g.hasElements() {
			params["num_elements"] = g.numElements
		}
	} else {
		params["input_vertices"] = g.inputVertices.String()
		if g.hasElements() {
			params["input_elements"] = g.inputElements.String()
		}
	}
	return Preview{Type: "Create" + g.kind.String(), Path: g.path.String(), Params: params}
}

// binding is one shared array the geometry will own.
type binding struct {
	role     string
	source   *structure.DataArray
	parentID structure.ObjectID
	name     string
	store    datastore.Store
}

func (g nodeGeometry) apply(ds *structure.DataStructure, mode Mode, alloc Allocator) result.Result[result.Void] {
	if g.allowedKinds != nil && !slices.Contains(g.allowedKinds, g.kind) {
		return fail(fmt.Errorf("%w: %s is not one of %v", ErrInvalidAction, g.kind, g.allowedKinds))
	}
	if g.handling > HandlingReference {
		return fail(fmt.Errorf("%w: array handling %d", ErrInvalidAction, uint8(g.handling)))
	}
	parentID, err := checkTarget(ds, g.path)
	if err != nil {
		return fail(err)
	}
	if err := ds.CheckInsert(parentID, g.path.Name(), g.kind, 0); err != nil {
		return fail(err)
	}

	verts := binding{role: "vertices", name: g.verticesName}
	elems := binding{role: "elements", name: g.elementsName}
	numVertices, numElements := g.numVertices, g.numElements

	if g.handling != HandlingCreate {
		if verts.source, verts.parentID, err = g.source(ds, g.inputVertices); err != nil {
			return fail(err)
		}
		if err := structure.CheckVertexArray(verts.source.DataType(), verts.source.NumComponents()); err != nil {
			return fail(fmt.Errorf("%s: %w", g.inputVertices, err))
		}
		numVertices = verts.source.NumTuples()
		if g.hasElements() {
			if elems.source, elems.parentID, err = g.source(ds, g.inputElements); err != nil {
				return fail(err)
			}
			if err := structure.CheckConnectivityArray(g.kind, elems.source.DataType(), elems.source.NumComponents()); err != nil {
				return fail(fmt.Errorf("%s: %w", g.inputElements, err))
			}
			if elems.source.ID() == verts.source.ID() {
				return fail(fmt.Errorf("%w: vertices and elements are the same array", ErrInvalidAction))
			}
			numElements = elems.source.NumTuples()
		}
		if g.handling == HandlingMove || g.handling == HandlingReference {
			verts.name = verts.source.Name()
			if elems.source != nil {
				elems.name = elems.source.Name()
			}
		}
	}
	if !g.hasElements() {
		numElements = numVertices
	}

	names := []string{g.vertexDataName, verts.name}
	if g.hasElements() {
		names = append(names, g.elementDataName, elems.name)
	}
	seen := make(map[string]bool)
	for _, n := range names {
		if err := checkName(n); err != nil {
			return fail(err)
		}
		if seen[n] {
			return fail(fmt.Errorf("%w: geometry %s would hold two children named %q", ErrTargetExists, g.path, n))
		}
		seen[n] = true
	}

	bindings := []*binding{&verts}
	if g.hasElements() {
		bindings = append(bindings, &elems)
	}
	defer func() {
		for _, b := range bindings {
			if b.store != nil {
				release(b.store)
			}
		}
	}()
	switch g.handling {
	case HandlingCreate:
		if verts.store, err = allocate(alloc, mode, defaultVertexCoordType, datastore.Shape{numVertices}, datastore.Shape{3}, "", 0); err != nil {
			return fail(err)
		}
		if g.hasElements() {
			k := structure.VerticesPerElement(g.kind)
			if elems.store, err = allocate(alloc, mode, defaultConnectivityDT, datastore.Shape{numElements}, datastore.Shape{k}, "", 0); err != nil {
				return fail(err)
			}
		}
	case HandlingCopy:
		for _, b := range bindings {
			if b.store, err = copyStore(b.source.Store(), mode); err != nil {
				return fail(fmt.Errorf("copy %s: %w", b.role, err))
			}
		}
	}

	geom, err := ds.CreateNodeGeom(g.kind, g.path.Name(), parentID)
	if err != nil {
		return fail(err)
	}
	if err := g.attach(ds, geom, bindings, numVertices, numElements); err != nil {
		// The graph is restored; ids issued inside attach stay consumed.
		_ = ds.RemoveObject(geom.ID())
		return fail(err)
	}
	if g.handling == HandlingMove {
		for _, b := range bindings {
			if _, err := ds.RemoveParent(b.source.ID(), b.parentID); err != nil {
				return fail(err)
			}
		}
	}
	return result.OkVoid()
}

// attach creates the attribute matrices and binds the arrays. Stores that
// end up owned by the graph are cleared from their binding.
func (g nodeGeometry) attach(ds *structure.DataStructure, geom *structure.NodeGeom, bindings []*binding, numVertices, numElements uint64) error {
	vdata, err := ds.CreateAttributeMatrix(g.vertexDataName, geom.ID(), datastore.Shape{numVertices})
	if err != nil {
		return err
	}
	if err := geom.SetVertexData(ds, vdata.ID()); err != nil {
		return err
	}
	if g.hasElements() {
		edata, err := ds.CreateAttributeMatrix(g.elementDataName, geom.ID(), datastore.Shape{numElements})
		if err != nil {
			return err
		}
		if err := geom.SetElementData(ds, edata.ID()); err != nil {
			return err
		}
	}

	ids := make([]structure.ObjectID, len(bindings))
	for i, b := range bindings {
		if b.store != nil {
			arr, err := ds.CreateDataArray(b.name, geom.ID(), b.store)
			if err != nil {
				return err
			}
			b.store = nil
			ids[i] = arr.ID()
			continue
		}
		if err := ds.AddParent(b.source.ID(), geom.ID()); err != nil {
			return err
		}
		ids[i] = b.source.ID()
	}
	if err := geom.SetVertices(ds, ids[0]); err != nil {
		return err
	}
	if len(ids) > 1 {
		if err := geom.SetConnectivity(ds, ids[1]); err != nil {
			return err
		}
	}
	return geom.Validate(ds)
}

// source resolves an input array and the id of the parent its path names.
func (g nodeGeometry) source(ds *structure.DataStructure, path datapath.DataPath) (*structure.DataArray, structure.ObjectID, error) {
	if path.IsEmpty() {
		return nil, 0, fmt.Errorf("%w: %s needs an input array for %s handling", ErrSourceNotFound, g.kind, g.handling)
	}
	obj, err := ds.Resolve(path)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %s", ErrSourceNotFound, path)
	}
	arr, ok := obj.(*structure.DataArray)
	if !ok {
		return nil, 0, fmt.Errorf("%w: %s is a %s, not a DataArray", ErrWrongSourceKind, path, obj.Kind())
	}
	return arr, parentOf(ds, path), nil
}

// copyStore duplicates src for mode. Preflight only keeps the shape.
func copyStore(src datastore.Store, mode Mode) (datastore.Store, error) {
	if mode == ModePreflight || !src.IsAllocated() {
		return datastore.NewEmpty(src.DataType(), src.TupleShape(), src.ComponentShape())
	}
	return src.Clone()
}

func checkName(name string) error {
	if _, err := datapath.New(name); err != nil {
		return fmt.Errorf("%w: child name %q: %v", ErrInvalidAction, name, err)
	}
	return nil
}

func or(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
