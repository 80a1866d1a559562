package structure

import (
	"maps"
	"slices"

	"github.com/roach88/nxcore/internal/datastore"
)

// Object is a node in the DataStructure graph. The set of implementations
// is closed: DataGroup, AttributeMatrix, DataArray, NeighborList,
// StringArray, ImageGeom and NodeGeom.
type Object interface {
	ID() ObjectID
	Name() string
	Kind() Kind

	// ParentIDs returns the owning objects in ascending order. Top-level
	// objects include RootID.
	ParentIDs() []ObjectID
	ParentCount() int
	HasParent(id ObjectID) bool

	base() *objectBase
}

// Container is an Object that can own children.
type Container interface {
	Object

	// ChildIDs returns the children ordered by name.
	ChildIDs() []ObjectID
	ChildNames() []string
	ChildByName(name string) (ObjectID, bool)
	NumChildren() int

	kids() *children
}

// Array is an Object holding one entry per tuple.
type Array interface {
	Object

	TupleShape() datastore.Shape
	NumTuples() uint64

	resizeTuples(shape datastore.Shape) error
}

type objectBase struct {
	id      ObjectID
	name    string
	parents map[ObjectID]struct{}
}

func newBase(name string) objectBase {
	return objectBase{name: name, parents: make(map[ObjectID]struct{})}
}

func (o *objectBase) ID() ObjectID    { return o.id }
func (o *objectBase) Name() string    { return o.name }
func (o *objectBase) ParentCount() int { return len(o.parents) }

func (o *objectBase) ParentIDs() []ObjectID {
	return slices.Sorted(maps.Keys(o.parents))
}

func (o *objectBase) HasParent(id ObjectID) bool {
	_, ok := o.parents[id]
	return ok
}

func (o *objectBase) base() *objectBase { return o }

func (o *objectBase) copyBase() objectBase {
	return objectBase{id: o.id, name: o.name, parents: maps.Clone(o.parents)}
}

// children maps child names to ids. It backs every Container and the root.
type children struct {
	byName map[string]ObjectID
}

func newChildren() children {
	return children{byName: make(map[string]ObjectID)}
}

func (c *children) ChildNames() []string {
	return slices.Sorted(maps.Keys(c.byName))
}

func (c *children) ChildIDs() []ObjectID {
	names := c.ChildNames()
	ids := make([]ObjectID, len(names))
	for i, n := range names {
		ids[i] = c.byName[n]
	}
	return ids
}

func (c *children) ChildByName(name string) (ObjectID, bool) {
	id, ok := c.byName[name]
	return id, ok
}

func (c *children) NumChildren() int { return len(c.byName) }

func (c *children) kids() *children { return c }

func (c *children) clone() children {
	return children{byName: maps.Clone(c.byName)}
}

// DataGroup is a plain container.
type DataGroup struct {
	objectBase
	children
}

func (g *DataGroup) Kind() Kind { return KindDataGroup }

// AttributeMatrix is a container whose children are arrays sharing its
// tuple shape.
type AttributeMatrix struct {
	objectBase
	children
	tupleShape datastore.Shape
}

func (m *AttributeMatrix) Kind() Kind { return KindAttributeMatrix }

// TupleShape returns a copy of the matrix shape.
func (m *AttributeMatrix) TupleShape() datastore.Shape { return m.tupleShape.Clone() }

// NumTuples returns the product of the tuple shape.
func (m *AttributeMatrix) NumTuples() uint64 { return m.tupleShape.Product() }
