package structure

import (
	"fmt"
	"slices"

	"github.com/roach88/nxcore/internal/datastore"
)

// Snapshot is a flat, serializable view of a graph.
type Snapshot struct {
	NextID  ObjectID
	Objects []Record
}

// Record describes one object. Store is set for data arrays only and is
// shared with the graph, not copied.
type Record struct {
	ID      ObjectID
	Kind    Kind
	Name    string
	Parents []ObjectID
	Attrs   Attrs
	Store   datastore.Store
}

// Attrs holds the kind-specific fields of a Record.
type Attrs struct {
	TupleShape datastore.Shape    `json:"tuple_shape,omitempty"`
	DataType   datastore.DataType `json:"data_type,omitempty"`
	Allocated  bool               `json:"allocated,omitempty"`
	Lists      [][]float64        `json:"lists,omitempty"`
	Strings    []string           `json:"strings,omitempty"`
	Image      *ImageAttrs        `json:"image,omitempty"`
	Node       *NodeAttrs         `json:"node,omitempty"`
}

// ImageAttrs are the fields of an ImageGeom.
type ImageAttrs struct {
	Geometry ImageGeometry `json:"geometry"`
	CellData ObjectID      `json:"cell_data,omitempty"`
}

// NodeAttrs are the array references of a NodeGeom.
type NodeAttrs struct {
	Vertices     ObjectID `json:"vertices,omitempty"`
	Connectivity ObjectID `json:"connectivity,omitempty"`
	VertexData   ObjectID `json:"vertex_data,omitempty"`
	ElementData  ObjectID `json:"element_data,omitempty"`
}

// Snapshot returns records for every object in ascending id order.
func (ds *DataStructure) Snapshot() Snapshot {
	snap := Snapshot{NextID: ds.nextID}
	for _, id := range ds.ObjectIDs() {
		obj := ds.objects[id]
		rec := Record{ID: id, Kind: obj.Kind(), Name: obj.Name(), Parents: obj.ParentIDs()}
		switch o := obj.(type) {
		case *AttributeMatrix:
			rec.Attrs.TupleShape = o.TupleShape()
		case *DataArray:
			rec.Store = o.store
		case *NeighborList:
			rec.Attrs.TupleShape = o.TupleShape()
			rec.Attrs.DataType = o.dataType
			rec.Attrs.Allocated = o.IsAllocated()
			rec.Attrs.Lists = o.cloneLists()
		case *StringArray:
			rec.Attrs.TupleShape = o.TupleShape()
			rec.Attrs.Allocated = o.IsAllocated()
			rec.Attrs.Strings = o.Values()
		case *ImageGeom:
			rec.Attrs.Image = &ImageAttrs{Geometry: o.geom, CellData: o.cellDataID}
		case *NodeGeom:
			rec.Attrs.Node = &NodeAttrs{
				Vertices:     o.verticesID,
				Connectivity: o.connectivityID,
				VertexData:   o.vertexDataID,
				ElementData:  o.elementDataID,
			}
		}
		snap.Objects = append(snap.Objects, rec)
	}
	return snap
}

// FromSnapshot rebuilds a graph with the recorded ids, edges and next id.
// Data array records adopt their Store.
func FromSnapshot(snap Snapshot) (*DataStructure, error) {
	ds := New()
	ds.nextID = snap.NextID
	if ds.nextID == RootID {
		ds.nextID = 1
	}

	for _, rec := range snap.Objects {
		if rec.ID == RootID || rec.ID >= ds.nextID {
			return nil, fmt.Errorf("%w: id %d outside [1, %d)", ErrInvalidSnapshot, rec.ID, ds.nextID)
		}
		if _, dup := ds.objects[rec.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate id %d", ErrInvalidSnapshot, rec.ID)
		}
		if len(rec.Parents) == 0 {
			return nil, fmt.Errorf("%w: object %d %q has no parent", ErrInvalidSnapshot, rec.ID, rec.Name)
		}
		obj, err := objectFromRecord(rec)
		if err != nil {
			return nil, err
		}
		obj.base().id = rec.ID
		ds.objects[rec.ID] = obj
	}

	// Link in id order so matrices are checked against their final shapes.
	for _, rec := range snap.Objects {
		obj := ds.objects[rec.ID]
		for _, pid := range slices.Sorted(slices.Values(rec.Parents)) {
			if err := ds.checkInsert(pid, obj.Name(), obj.Kind(), tupleCount(obj)); err != nil {
				return nil, fmt.Errorf("%w: object %d: %v", ErrInvalidSnapshot, rec.ID, err)
			}
			ds.link(pid, obj)
		}
	}

	for _, obj := range ds.objects {
		g, ok := obj.(Geometry)
		if !ok {
			continue
		}
		for _, ref := range g.refs() {
			if *ref == RootID {
				continue
			}
			child, ok := ds.objects[*ref]
			if !ok || !child.HasParent(g.ID()) {
				return nil, fmt.Errorf("%w: geometry %q references %d which is not its child", ErrInvalidSnapshot, g.Name(), *ref)
			}
		}
	}
	return ds, nil
}

func objectFromRecord(rec Record) (Object, error) {
	if _, err := rec.Attrs.TupleShape.ProductChecked(); err != nil {
		return nil, fmt.Errorf("%w: object %d: %w", ErrInvalidSnapshot, rec.ID, err)
	}
	base := newBase(rec.Name)
	switch rec.Kind {
	case KindDataGroup:
		return &DataGroup{objectBase: base, children: newChildren()}, nil
	case KindAttributeMatrix:
		if len(rec.Attrs.TupleShape) == 0 {
			return nil, fmt.Errorf("%w: attribute matrix %d has no tuple shape", ErrInvalidSnapshot, rec.ID)
		}
		return &AttributeMatrix{objectBase: base, children: newChildren(), tupleShape: rec.Attrs.TupleShape.Clone()}, nil
	case KindDataArray:
		if rec.Store == nil {
			return nil, fmt.Errorf("%w: data array %d has no store", ErrInvalidSnapshot, rec.ID)
		}
		return &DataArray{objectBase: base, store: rec.Store}, nil
	case KindNeighborList:
		n := &NeighborList{objectBase: base, dataType: rec.Attrs.DataType, tupleShape: rec.Attrs.TupleShape.Clone()}
		if rec.Attrs.Allocated {
			n.Allocate()
			copy(n.lists, rec.Attrs.Lists)
		}
		return n, nil
	case KindStringArray:
		s := &StringArray{objectBase: base, tupleShape: rec.Attrs.TupleShape.Clone()}
		if rec.Attrs.Allocated {
			s.Allocate()
			copy(s.values, rec.Attrs.Strings)
		}
		return s, nil
	case KindImageGeom:
		if rec.Attrs.Image == nil {
			return nil, fmt.Errorf("%w: image geometry %d has no attributes", ErrInvalidSnapshot, rec.ID)
		}
		return &ImageGeom{objectBase: base, children: newChildren(), geom: rec.Attrs.Image.Geometry, cellDataID: rec.Attrs.Image.CellData}, nil
	}
	if rec.Kind.IsNodeGeometry() {
		g := &NodeGeom{objectBase: base, children: newChildren(), kind: rec.Kind}
		if n := rec.Attrs.Node; n != nil {
			g.verticesID, g.connectivityID = n.Vertices, n.Connectivity
			g.vertexDataID, g.elementDataID = n.VertexData, n.ElementData
		}
		return g, nil
	}
	return nil, fmt.Errorf("%w: object %d has unknown kind %s", ErrInvalidSnapshot, rec.ID, rec.Kind)
}
