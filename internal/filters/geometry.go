package filters

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/roach88/nxcore/internal/action"
	"github.com/roach88/nxcore/internal/datapath"
	"github.com/roach88/nxcore/internal/datastore"
	"github.com/roach88/nxcore/internal/filter"
	"github.com/roach88/nxcore/internal/parallel"
	"github.com/roach88/nxcore/internal/result"
	"github.com/roach88/nxcore/internal/structure"
)

var (
	createImageGeometryID = uuid.MustParse("c4320659-1a84-461d-939e-c7c10229a504")
	createGeometryID      = uuid.MustParse("24768170-5b90-4a9d-82ac-9aeecd9f892e")
)

// CreateImageGeometry creates a regular grid geometry and its cell data
// attribute matrix.
type CreateImageGeometry struct{}

func (CreateImageGeometry) Name() string      { return "create_image_geometry" }
func (CreateImageGeometry) HumanName() string { return "Create Image Geometry" }
func (CreateImageGeometry) UUID() uuid.UUID   { return createImageGeometryID }

var xyz = []string{"x", "y", "z"}

func (CreateImageGeometry) Parameters() filter.Parameters {
	return filter.Parameters{
		filter.ArrayCreationParameter{Key: "path", Human: "Geometry Path"},
		filter.VectorParameter{Key: "dimensions", Human: "Dimensions", Names: xyz},
		filter.VectorParameter{Key: "origin", Human: "Origin", Names: xyz, Default: []float64{0, 0, 0}},
		filter.VectorParameter{Key: "spacing", Human: "Spacing", Names: xyz, Default: []float64{1, 1, 1}},
		filter.StringParameter{Key: "units", Human: "Length Unit", AllowEmpty: true},
		filter.StringParameter{Key: "cell_data_name", Human: "Cell Data Name", Default: action.DefaultCellDataName},
	}
}

func (f CreateImageGeometry) Preflight(ds *structure.DataStructure, args filter.Arguments, _ filter.MessageHandler) result.Result[filter.PreflightResult] {
	args, r := prepare(f.Parameters(), ds, args)
	if r.Invalid() {
		return r
	}
	path, _ := filter.Get[datapath.DataPath](args, "path")
	vecs, _ := getAll[[]float64](args, "dimensions", "origin", "spacing")
	units, _ := filter.Get[string](args, "units")
	cellData, _ := filter.Get[string](args, "cell_data_name")

	geom := structure.ImageGeometry{Units: units}
	for i := range 3 {
		d := vecs[0][i]
		if d < 1 || d != float64(uint64(d)) {
			return failWith(r, fmt.Errorf("%w: dimension %s = %g", filter.ErrArgumentRange, xyz[i], d))
		}
		if vecs[2][i] <= 0 {
			return failWith(r, fmt.Errorf("%w: spacing %s = %g", filter.ErrArgumentRange, xyz[i], vecs[2][i]))
		}
		geom.Dimensions[i] = uint64(d)
		geom.Origin[i] = vecs[1][i]
		geom.Spacing[i] = vecs[2][i]
	}
	if err := checkCreatable(ds, path, structure.KindImageGeom, 0); err != nil {
		return failWith(r, err)
	}
	r.Value.Values = append(r.Value.Values, filter.PreflightValue{Name: "cells", Value: fmt.Sprint(geom.NumberOfCells())})
	return emit(r, action.CreateImageGeometryAction{Path: path, Geometry: geom, CellDataName: cellData})
}

func (CreateImageGeometry) Execute(context.Context, *structure.DataStructure, filter.Arguments, filter.MessageHandler) result.Result[result.Void] {
	return result.OkVoid()
}

// CreateGeometry builds a node geometry from existing vertex and
// connectivity arrays, binding them with an array handling policy.
type CreateGeometry struct{}

func (CreateGeometry) Name() string      { return "create_geometry" }
func (CreateGeometry) HumanName() string { return "Create Geometry" }
func (CreateGeometry) UUID() uuid.UUID   { return createGeometryID }

var nodeGeometryKinds = []string{
	structure.KindVertexGeom.String(),
	structure.KindEdgeGeom.String(),
	structure.KindTriangleGeom.String(),
	structure.KindQuadGeom.String(),
	structure.KindTetrahedralGeom.String(),
	structure.KindHexahedralGeom.String(),
}

func (CreateGeometry) Parameters() filter.Parameters {
	return filter.Parameters{
		filter.ChoiceParameter{Key: "geometry", Human: "Geometry Type", Choices: nodeGeometryKinds},
		filter.ArrayCreationParameter{Key: "path", Human: "Geometry Path"},
		filter.ChoiceParameter{
			Key: "array_handling", Human: "Array Handling",
			Choices: []string{"copy", "move", "reference"}, Default: "copy",
		},
		filter.ArraySelectionParameter{
			Key: "vertices", Human: "Shared Vertex List",
			AllowedTypes:    []datastore.DataType{datastore.Float32, datastore.Float64},
			ComponentShapes: []datastore.Shape{{3}},
		},
		filter.DataPathParameter{Key: "elements", Human: "Shared Element List", Optional: true, AllowedKinds: []structure.Kind{structure.KindDataArray}},
		filter.StringParameter{Key: "vertex_data_name", Human: "Vertex Data Name", Default: action.DefaultVertexDataName},
		filter.StringParameter{Key: "element_data_name", Human: "Element Data Name", AllowEmpty: true},
	}
}

// geometryAction builds the action for kind.
func geometryAction(kind structure.Kind, path, verts, elems datapath.DataPath, h action.ArrayHandling, vertexData, elementData string) action.Action {
	switch kind {
	case structure.KindVertexGeom:
		return action.CreateVertexGeometryAction{Path: path, VertexDataName: vertexData, InputVertices: verts, Handling: h}
	case structure.KindEdgeGeom:
		return action.CreateGeometry1DAction{Path: path, VertexDataName: vertexData, EdgeDataName: elementData, InputVertices: verts, InputEdges: elems, Handling: h}
	case structure.KindTriangleGeom, structure.KindQuadGeom:
		return action.CreateGeometry2DAction{Kind: kind, Path: path, VertexDataName: vertexData, FaceDataName: elementData, InputVertices: verts, InputFaces: elems, Handling: h}
	default:
		return action.CreateGeometry3DAction{Kind: kind, Path: path, VertexDataName: vertexData, CellDataName: elementData, InputVertices: verts, InputCells: elems, Handling: h}
	}
}

func (f CreateGeometry) Preflight(ds *structure.DataStructure, args filter.Arguments, _ filter.MessageHandler) result.Result[filter.PreflightResult] {
	args, r := prepare(f.Parameters(), ds, args)
	if r.Invalid() {
		return r
	}
	kind, _ := filter.Get[structure.Kind](args, "geometry")
	handling, _ := filter.Get[action.ArrayHandling](args, "array_handling")
	paths, _ := getAll[datapath.DataPath](args, "path", "vertices", "elements")
	path, verts, elems := paths[0], paths[1], paths[2]
	names, _ := getAll[string](args, "vertex_data_name", "element_data_name")

	if err := checkCreatable(ds, path, kind, 0); err != nil {
		return failWith(r, err)
	}
	if kind != structure.KindVertexGeom {
		if elems.IsEmpty() {
			return failWith(r, fmt.Errorf("%w: %s needs an element list", filter.ErrMissingArgument, kind))
		}
		arr, err := filter.SelectArray(ds, elems, nil, nil)
		if err != nil {
			return failWith(r, err)
		}
		if err := structure.CheckConnectivityArray(kind, arr.DataType(), arr.NumComponents()); err != nil {
			return failWith(r, fmt.Errorf("%s: %w", elems, err))
		}
		r.Value.Values = append(r.Value.Values, filter.PreflightValue{Name: "elements", Value: fmt.Sprint(arr.NumTuples())})
	}
	return emit(r, geometryAction(kind, path, verts, elems, handling, names[0], names[1]))
}

// Execute checks that every connectivity index refers to an existing
// vertex. The check runs in parallel chunks over the elements.
func (f CreateGeometry) Execute(ctx context.Context, ds *structure.DataStructure, args filter.Arguments, msg filter.MessageHandler) result.Result[result.Void] {
	args = f.Parameters().WithDefaults(args)
	path, err := filter.Get[datapath.DataPath](args, "path")
	if err != nil {
		return executeFail(err)
	}
	geom, err := structure.ResolveAs[*structure.NodeGeom](ds, path)
	if err != nil {
		return executeFail(err)
	}
	if geom.Kind() == structure.KindVertexGeom {
		return result.OkVoid()
	}
	conn, err := structure.Lookup[*structure.DataArray](ds, geom.ConnectivityID())
	if err != nil {
		return executeFail(err)
	}
	numVertices := geom.NumberOfVertices(ds)
	k := geom.VerticesPerElement()
	store := conn.Store()

	alg := filter.AlgorithmFrom(ctx)
	alg.Progress = msg.Progress("check "+path.String(), conn.NumTuples(), alg.ProgressInterval)
	stats, err := alg.Execute(ctx, conn.NumTuples(), func(_ context.Context, r parallel.Range) error {
		for i := r.Begin * k; i < r.End*k; i++ {
			v, err := store.GetFloat64(i)
			if err != nil {
				return err
			}
			if v < 0 || uint64(v) >= numVertices {
				return fmt.Errorf("%w: element %d refers to vertex %g of %d", ErrIndexOutOfBounds, i/k, v, numVertices)
			}
		}
		return nil
	})
	if err != nil {
		return executeFail(err)
	}
	if stats.Cancelled {
		return filter.Cancelled(f.Name(), stats.TuplesProcessed, conn.NumTuples())
	}
	return result.OkVoid()
}
