package structure

import (
	"fmt"

	"github.com/roach88/nxcore/internal/datastore"
)

// Factories validate every precondition before registering, so a failed
// factory call leaves the graph unchanged and consumes no id. Callers that
// chain several factories and roll back with RemoveObject get the graph
// back but not the ids already issued.

// CreateDataGroup creates a group under parentID.
func (ds *DataStructure) CreateDataGroup(name string, parentID ObjectID) (*DataGroup, error) {
	name = normalizeName(name)
	if err := ds.checkInsert(parentID, name, KindDataGroup, 0); err != nil {
		return nil, err
	}
	g := &DataGroup{objectBase: newBase(name), children: newChildren()}
	ds.register(g, parentID)
	return g, nil
}

// CreateAttributeMatrix creates a matrix with the given tuple shape.
func (ds *DataStructure) CreateAttributeMatrix(name string, parentID ObjectID, tupleShape datastore.Shape) (*AttributeMatrix, error) {
	name = normalizeName(name)
	if len(tupleShape) == 0 {
		return nil, fmt.Errorf("%w: attribute matrix %q needs a tuple shape", ErrIncompatibleShape, name)
	}
	if _, err := tupleShape.ProductChecked(); err != nil {
		return nil, fmt.Errorf("attribute matrix %q: %w", name, err)
	}
	if err := ds.checkInsert(parentID, name, KindAttributeMatrix, 0); err != nil {
		return nil, err
	}
	m := &AttributeMatrix{objectBase: newBase(name), children: newChildren(), tupleShape: tupleShape.Clone()}
	ds.register(m, parentID)
	return m, nil
}

// CreateDataArray wraps store in a new array under parentID. The array
// takes ownership of the store.
func (ds *DataStructure) CreateDataArray(name string, parentID ObjectID, store datastore.Store) (*DataArray, error) {
	name = normalizeName(name)
	if store == nil {
		return nil, fmt.Errorf("%w: array %q has no store", datastore.ErrNotAllocated, name)
	}
	if err := ds.checkInsert(parentID, name, KindDataArray, store.TupleCount()); err != nil {
		return nil, err
	}
	a := &DataArray{objectBase: newBase(name), store: store}
	ds.register(a, parentID)
	return a, nil
}

// CreateNeighborList creates a neighbor list; allocate creates the empty
// per-tuple lists.
func (ds *DataStructure) CreateNeighborList(name string, parentID ObjectID, dataType datastore.DataType, tupleShape datastore.Shape, allocate bool) (*NeighborList, error) {
	name = normalizeName(name)
	if !dataType.Valid() {
		return nil, fmt.Errorf("%w: %d", datastore.ErrUnsupportedType, uint8(dataType))
	}
	if len(tupleShape) == 0 {
		return nil, fmt.Errorf("%w: neighbor list %q needs a tuple shape", ErrIncompatibleShape, name)
	}
	tuples, err := tupleShape.ProductChecked()
	if err != nil {
		return nil, fmt.Errorf("neighbor list %q: %w", name, err)
	}
	if err := ds.checkInsert(parentID, name, KindNeighborList, tuples); err != nil {
		return nil, err
	}
	n := &NeighborList{objectBase: newBase(name), dataType: dataType, tupleShape: tupleShape.Clone()}
	if allocate {
		n.Allocate()
	}
	ds.register(n, parentID)
	return n, nil
}

// CreateStringArray creates a string array; allocate creates empty strings.
func (ds *DataStructure) CreateStringArray(name string, parentID ObjectID, tupleShape datastore.Shape, allocate bool) (*StringArray, error) {
	name = normalizeName(name)
	if len(tupleShape) == 0 {
		return nil, fmt.Errorf("%w: string array %q needs a tuple shape", ErrIncompatibleShape, name)
	}
	tuples, err := tupleShape.ProductChecked()
	if err != nil {
		return nil, fmt.Errorf("string array %q: %w", name, err)
	}
	if err := ds.checkInsert(parentID, name, KindStringArray, tuples); err != nil {
		return nil, err
	}
	s := &StringArray{objectBase: newBase(name), tupleShape: tupleShape.Clone()}
	if allocate {
		s.Allocate()
	}
	ds.register(s, parentID)
	return s, nil
}

// CreateImageGeom creates an image geometry. Its cell data matrix is
// created separately and attached with SetCellData.
func (ds *DataStructure) CreateImageGeom(name string, parentID ObjectID, geom ImageGeometry) (*ImageGeom, error) {
	name = normalizeName(name)
	if err := geom.validate(); err != nil {
		return nil, err
	}
	if err := ds.checkInsert(parentID, name, KindImageGeom, 0); err != nil {
		return nil, err
	}
	g := &ImageGeom{objectBase: newBase(name), children: newChildren(), geom: geom}
	ds.register(g, parentID)
	return g, nil
}

// CreateNodeGeom creates an empty node geometry of the given kind. Arrays
// and attribute matrices are attached with the Set* methods.
func (ds *DataStructure) CreateNodeGeom(kind Kind, name string, parentID ObjectID) (*NodeGeom, error) {
	name = normalizeName(name)
	if !kind.IsNodeGeometry() {
		return nil, fmt.Errorf("%w: %s is not a node geometry", datastore.ErrUnsupportedType, kind)
	}
	if err := ds.checkInsert(parentID, name, kind, 0); err != nil {
		return nil, err
	}
	g := &NodeGeom{objectBase: newBase(name), children: newChildren(), kind: kind}
	ds.register(g, parentID)
	return g, nil
}

// ResizeTuples changes the matrix shape and resizes every child array to
// match. A child whose rank equals the new rank takes the shape; a rank 1
// child takes the flattened count. All children are checked before any is
// resized.
func (m *AttributeMatrix) ResizeTuples(ds *DataStructure, tupleShape datastore.Shape) error {
	if len(tupleShape) == 0 {
		return fmt.Errorf("%w: empty tuple shape for %q", ErrIncompatibleShape, m.name)
	}
	tuples, err := tupleShape.ProductChecked()
	if err != nil {
		return fmt.Errorf("resize %q: %w", m.name, err)
	}
	if err := ds.CheckTupleCountChange(m, m.id, tuples); err != nil {
		return err
	}
	type pending struct {
		arr   Array
		shape datastore.Shape
	}
	var plan []pending
	for _, cid := range m.ChildIDs() {
		arr, ok := ds.objects[cid].(Array)
		if !ok {
			continue
		}
		target, err := FitTupleShape(arr.TupleShape(), tupleShape)
		if err != nil {
			return fmt.Errorf("resize %q child %q: %w", m.name, arr.Name(), err)
		}
		if err := ds.CheckTupleCountChange(arr, m.id, tuples); err != nil {
			return err
		}
		plan = append(plan, pending{arr, target})
	}
	for _, p := range plan {
		if err := p.arr.resizeTuples(p.shape); err != nil {
			return fmt.Errorf("resize %q child %q: %w", m.name, p.arr.Name(), err)
		}
	}
	m.tupleShape = tupleShape.Clone()
	return nil
}

// CheckTupleCountChange reports whether obj may change to the given tuple
// count on behalf of its parent owner. Any other AttributeMatrix parent
// must already hold that count. A geometry parent that points at obj only
// allows a reshape that keeps the count.
func (ds *DataStructure) CheckTupleCountChange(obj Object, owner ObjectID, tuples uint64) error {
	var current uint64
	switch o := obj.(type) {
	case Array:
		current = o.NumTuples()
	case *AttributeMatrix:
		current = o.NumTuples()
	}
	for _, pid := range obj.ParentIDs() {
		if pid == owner || pid == RootID {
			continue
		}
		switch p := ds.objects[pid].(type) {
		case *AttributeMatrix:
			if p.NumTuples() != tuples {
				return fmt.Errorf("%w: %q is shared with attribute matrix %q of %d tuples, cannot take %d",
					ErrTupleMismatch, obj.Name(), p.Name(), p.NumTuples(), tuples)
			}
		case Geometry:
			if current == tuples {
				continue
			}
			for _, ref := range p.refs() {
				if *ref == obj.ID() {
					return fmt.Errorf("%w: %q is bound to geometry %q, cannot take %d tuples",
						ErrTupleMismatch, obj.Name(), p.Name(), tuples)
				}
			}
		}
	}
	return nil
}

// FitTupleShape returns the tuple shape an array with shape current takes
// when its attribute matrix becomes matrix.
func FitTupleShape(current, matrix datastore.Shape) (datastore.Shape, error) {
	switch {
	case len(current) == len(matrix):
		return matrix.Clone(), nil
	case len(current) == 1:
		n, err := matrix.ProductChecked()
		if err != nil {
			return nil, err
		}
		return datastore.Shape{n}, nil
	}
	return nil, fmt.Errorf("%w: rank %d array cannot follow shape %s", ErrIncompatibleShape, len(current), matrix)
}
