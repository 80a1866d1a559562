package structure

import (
	"fmt"
	"maps"
	"slices"

	"github.com/roach88/nxcore/internal/datastore"
)

// cloneObject returns an independent copy of obj with the same id, name,
// parents and children. Array stores are cloned; with shapeOnly they are
// replaced by unallocated stores of the same shape.
func cloneObject(obj Object, shapeOnly bool) (Object, error) {
	switch o := obj.(type) {
	case *DataGroup:
		return &DataGroup{objectBase: o.copyBase(), children: o.children.clone()}, nil
	case *AttributeMatrix:
		return &AttributeMatrix{objectBase: o.copyBase(), children: o.children.clone(), tupleShape: o.tupleShape.Clone()}, nil
	case *DataArray:
		if shapeOnly {
			s, err := datastore.NewEmpty(o.store.DataType(), o.store.TupleShape(), o.store.ComponentShape())
			if err != nil {
				return nil, err
			}
			return &DataArray{objectBase: o.copyBase(), store: s}, nil
		}
		s, err := o.store.Clone()
		if err != nil {
			return nil, fmt.Errorf("clone store of %q: %w", o.name, err)
		}
		return &DataArray{objectBase: o.copyBase(), store: s}, nil
	case *NeighborList:
		n := &NeighborList{objectBase: o.copyBase(), dataType: o.dataType, tupleShape: o.tupleShape.Clone()}
		if !shapeOnly {
			n.lists = o.cloneLists()
		}
		return n, nil
	case *StringArray:
		var values []string
		if o.values != nil && !shapeOnly {
			values = slices.Clone(o.values)
		}
		return &StringArray{objectBase: o.copyBase(), tupleShape: o.tupleShape.Clone(), values: values}, nil
	case *ImageGeom:
		return &ImageGeom{objectBase: o.copyBase(), children: o.children.clone(), geom: o.geom, cellDataID: o.cellDataID}, nil
	case *NodeGeom:
		c := *o
		c.objectBase = o.copyBase()
		c.children = o.children.clone()
		return &c, nil
	}
	return nil, fmt.Errorf("%w: %T", datastore.ErrUnsupportedType, obj)
}

// DeepCopy returns an independent graph with identical ids, names, edges,
// shapes, contents and next id.
func (ds *DataStructure) DeepCopy() (*DataStructure, error) {
	out := &DataStructure{
		objects: make(map[ObjectID]Object, len(ds.objects)),
		root:    ds.root.clone(),
		nextID:  ds.nextID,
	}
	for id, obj := range ds.objects {
		c, err := cloneObject(obj, false)
		if err != nil {
			return nil, err
		}
		out.objects[id] = c
	}
	return out, nil
}

// Subtree returns id and every object reachable from it through child
// edges, in depth-first name order. Shared descendants appear once.
func (ds *DataStructure) Subtree(id ObjectID) []ObjectID {
	var out []ObjectID
	seen := make(map[ObjectID]bool)
	var visit func(ObjectID)
	visit = func(cur ObjectID) {
		if seen[cur] {
			return
		}
		seen[cur] = true
		out = append(out, cur)
		if c, ok := ds.objects[cur].(Container); ok {
			for _, cid := range c.ChildIDs() {
				visit(cid)
			}
		}
	}
	if _, ok := ds.objects[id]; ok {
		visit(id)
	}
	return out
}

// CopyOption configures CopyObject.
type CopyOption func(*copyConfig)

type copyConfig struct {
	shapeOnly bool
}

// ShapeOnly makes CopyObject create unallocated arrays with the source
// shapes instead of cloning their contents.
func ShapeOnly() CopyOption {
	return func(c *copyConfig) { c.shapeOnly = true }
}

// CopyObject copies the subtree rooted at srcID under dstParentID with the
// given name. Every copied object gets a fresh id, stores are cloned, and
// geometry references are remapped to the copies. Edges from copied objects
// to parents outside the subtree are not reproduced.
func (ds *DataStructure) CopyObject(srcID, dstParentID ObjectID, name string, opts ...CopyOption) (ObjectID, error) {
	var cfg copyConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	src, ok := ds.objects[srcID]
	if !ok {
		return 0, fmt.Errorf("%w: copy source id %d", ErrInvalidParent, srcID)
	}
	name = normalizeName(name)
	if dstParentID == srcID || (dstParentID != RootID && ds.IsAncestor(srcID, dstParentID)) {
		return 0, fmt.Errorf("%w: cannot copy %q into itself", ErrCycle, src.Name())
	}
	if err := ds.checkInsert(dstParentID, name, src.Kind(), tupleCount(src)); err != nil {
		return 0, err
	}

	ids := ds.Subtree(srcID)
	remap := make(map[ObjectID]ObjectID, len(ids))
	for i, id := range ids {
		remap[id] = ds.nextID + ObjectID(i)
	}
	copies := make([]Object, len(ids))
	for i, id := range ids {
		c, err := cloneObject(ds.objects[id], cfg.shapeOnly)
		if err != nil {
			return 0, err
		}
		copies[i] = c
	}

	for i, c := range copies {
		b := c.base()
		b.id = remap[ids[i]]
		parents := make(map[ObjectID]struct{})
		for pid := range b.parents {
			if np, inside := remap[pid]; inside && ids[i] != srcID {
				parents[np] = struct{}{}
			}
		}
		b.parents = parents
		if ct, ok := c.(Container); ok {
			kids := ct.kids()
			for n, cid := range maps.Clone(kids.byName) {
				kids.byName[n] = remap[cid]
			}
		}
		if g, ok := c.(Geometry); ok {
			for _, ref := range g.refs() {
				if *ref != RootID {
					*ref = remap[*ref]
				}
			}
		}
	}

	root := copies[0]
	root.base().name = name
	for _, c := range copies {
		ds.objects[c.ID()] = c
	}
	ds.nextID += ObjectID(len(ids))
	ds.link(dstParentID, root)
	return root.ID(), nil
}
