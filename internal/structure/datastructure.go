package structure

import (
	"fmt"
	"log/slog"
	"maps"
	"slices"

	"github.com/roach88/nxcore/internal/datapath"
)

// DataStructure owns every object of one graph. Objects are kept in an
// arena keyed by id; edges are parent id sets on the child plus name maps on
// the parent. An object lives while it has at least one parent edge.
//
// A DataStructure is not safe for concurrent mutation.
type DataStructure struct {
	objects map[ObjectID]Object
	root    children
	nextID  ObjectID
}

// New returns an empty graph. The first issued id is 1.
func New() *DataStructure {
	return &DataStructure{
		objects: make(map[ObjectID]Object),
		root:    newChildren(),
		nextID:  1,
	}
}

// NextID returns the id the next created object will receive.
func (ds *DataStructure) NextID() ObjectID { return ds.nextID }

// Size returns the number of live objects.
func (ds *DataStructure) Size() int { return len(ds.objects) }

// Get returns the object with the given id.
func (ds *DataStructure) Get(id ObjectID) (Object, bool) {
	obj, ok := ds.objects[id]
	return obj, ok
}

// Lookup returns the object with the given id as a T.
func Lookup[T Object](ds *DataStructure, id ObjectID) (T, error) {
	var zero T
	obj, ok := ds.objects[id]
	if !ok {
		return zero, fmt.Errorf("%w: id %d", ErrObjectNotFound, id)
	}
	t, ok := obj.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %q is a %s", ErrWrongKind, obj.Name(), obj.Kind())
	}
	return t, nil
}

// ResolveAs resolves path to a T.
func ResolveAs[T Object](ds *DataStructure, path datapath.DataPath) (T, error) {
	var zero T
	obj, err := ds.Resolve(path)
	if err != nil {
		return zero, err
	}
	t, ok := obj.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %s is a %s", ErrWrongKind, path, obj.Kind())
	}
	return t, nil
}

// Resolve walks path from the root by name.
func (ds *DataStructure) Resolve(path datapath.DataPath) (Object, error) {
	if path.IsEmpty() {
		return nil, fmt.Errorf("%w: empty path", ErrPathNotFound)
	}
	cur := &ds.root
	var obj Object
	for i, seg := range path.Segments() {
		if cur == nil {
			return nil, fmt.Errorf("%w: %s: %q is not a container", ErrPathNotFound, path, obj.Name())
		}
		id, ok := cur.byName[seg]
		if !ok {
			return nil, fmt.Errorf("%w: %s (segment %d %q)", ErrPathNotFound, path, i, seg)
		}
		obj = ds.objects[id]
		cur = nil
		if c, ok := obj.(Container); ok {
			cur = c.kids()
		}
	}
	return obj, nil
}

// GetID returns the id at path.
func (ds *DataStructure) GetID(path datapath.DataPath) (ObjectID, bool) {
	obj, err := ds.Resolve(path)
	if err != nil {
		return 0, false
	}
	return obj.ID(), true
}

// ContainsPath reports whether path resolves.
func (ds *DataStructure) ContainsPath(path datapath.DataPath) bool {
	_, err := ds.Resolve(path)
	return err == nil
}

// ContainerID resolves path to an object that can hold children. The empty
// path is the root. A missing or non-container target is an InvalidParent
// error.
func (ds *DataStructure) ContainerID(path datapath.DataPath) (ObjectID, error) {
	if path.IsEmpty() {
		return RootID, nil
	}
	obj, err := ds.Resolve(path)
	if err != nil {
		return 0, fmt.Errorf("%w: parent %s does not exist", ErrInvalidParent, path)
	}
	if !obj.Kind().IsContainer() {
		return 0, fmt.Errorf("%w: parent %s is a %s", ErrInvalidParent, path, obj.Kind())
	}
	return obj.ID(), nil
}

// kidsOf returns the child map of a container id or the root.
func (ds *DataStructure) kidsOf(id ObjectID) (*children, error) {
	if id == RootID {
		return &ds.root, nil
	}
	obj, ok := ds.objects[id]
	if !ok {
		return nil, fmt.Errorf("%w: parent id %d does not exist", ErrInvalidParent, id)
	}
	c, ok := obj.(Container)
	if !ok {
		return nil, fmt.Errorf("%w: parent %q is a %s", ErrInvalidParent, obj.Name(), obj.Kind())
	}
	return c.kids(), nil
}

// Children returns the child ids of a container or the root, by name.
func (ds *DataStructure) Children(id ObjectID) ([]ObjectID, error) {
	kids, err := ds.kidsOf(id)
	if err != nil {
		return nil, err
	}
	return kids.ChildIDs(), nil
}

// TopLevelIDs returns the children of the root ordered by name.
func (ds *DataStructure) TopLevelIDs() []ObjectID {
	return ds.root.ChildIDs()
}

// ObjectIDs returns every live id in ascending order.
func (ds *DataStructure) ObjectIDs() []ObjectID {
	return slices.Sorted(maps.Keys(ds.objects))
}

// AllPaths returns every path that reaches id, sorted.
func (ds *DataStructure) AllPaths(id ObjectID) []datapath.DataPath {
	obj, ok := ds.objects[id]
	if !ok {
		return nil
	}
	var out []datapath.DataPath
	for _, pid := range obj.ParentIDs() {
		if pid == RootID {
			out = append(out, datapath.MustNew(obj.Name()))
			continue
		}
		for _, pp := range ds.AllPaths(pid) {
			out = append(out, pp.MustCreateChildPath(obj.Name()))
		}
	}
	slices.SortFunc(out, func(a, b datapath.DataPath) int {
		switch {
		case a.String() < b.String():
			return -1
		case a.String() > b.String():
			return 1
		}
		return 0
	})
	return out
}

// IsAncestor reports whether ancestor is reachable from id by following
// parent edges.
func (ds *DataStructure) IsAncestor(ancestor, id ObjectID) bool {
	obj, ok := ds.objects[id]
	if !ok {
		return false
	}
	for pid := range obj.base().parents {
		if pid == ancestor || ds.IsAncestor(ancestor, pid) {
			return true
		}
	}
	return false
}

// CheckInsert reports whether a child called name of kind k, with tuples
// tuples when it is an array, could be created under parentID.
func (ds *DataStructure) CheckInsert(parentID ObjectID, name string, k Kind, tuples uint64) error {
	return ds.checkInsert(parentID, normalizeName(name), k, tuples)
}

// checkInsert validates adding a child called name of kind k (with tuples
// tuples when it is an array) under parentID.
func (ds *DataStructure) checkInsert(parentID ObjectID, name string, k Kind, tuples uint64) error {
	if err := validName(name); err != nil {
		return err
	}
	kids, err := ds.kidsOf(parentID)
	if err != nil {
		return err
	}
	if _, taken := kids.byName[name]; taken {
		return fmt.Errorf("%w: %q under %s", ErrDuplicateName, name, ds.describe(parentID))
	}
	if am, ok := ds.objects[parentID].(*AttributeMatrix); ok {
		if !k.IsArray() {
			return fmt.Errorf("%w: attribute matrix %q can only hold arrays, not %s", ErrInvalidParent, am.Name(), k)
		}
		if tuples != am.NumTuples() {
			return fmt.Errorf("%w: %q has %d tuples, attribute matrix %q has %d",
				ErrTupleMismatch, name, tuples, am.Name(), am.NumTuples())
		}
	}
	return nil
}

func validName(name string) error {
	p, err := datapath.New(name)
	if err != nil {
		return fmt.Errorf("%w: %q: %v", ErrInvalidName, name, err)
	}
	if p.Name() != name {
		return fmt.Errorf("%w: %q is not NFC normalized", ErrInvalidName, name)
	}
	return nil
}

// normalizeName returns the NFC form of name, or name unchanged when it is
// not a valid segment (validName reports that case).
func normalizeName(name string) string {
	if p, err := datapath.New(name); err == nil {
		return p.Name()
	}
	return name
}

func tupleCount(obj Object) uint64 {
	if a, ok := obj.(Array); ok {
		return a.NumTuples()
	}
	return 0
}

func (ds *DataStructure) describe(id ObjectID) string {
	if id == RootID {
		return "root"
	}
	if obj, ok := ds.objects[id]; ok {
		return fmt.Sprintf("%q", obj.Name())
	}
	return fmt.Sprintf("id %d", id)
}

// register assigns the next id to obj and links it under parentID. The
// caller has already run checkInsert.
func (ds *DataStructure) register(obj Object, parentID ObjectID) ObjectID {
	b := obj.base()
	b.id = ds.nextID
	ds.nextID++
	ds.objects[b.id] = obj
	ds.link(parentID, obj)
	return b.id
}

func (ds *DataStructure) link(parentID ObjectID, child Object) {
	kids, _ := ds.kidsOf(parentID)
	kids.byName[child.Name()] = child.ID()
	child.base().parents[parentID] = struct{}{}
}

// unlink removes the parentID -> child edge and destroys the child when it
// was the last one. It reports whether the child was destroyed.
func (ds *DataStructure) unlink(parentID ObjectID, child Object) bool {
	if kids, err := ds.kidsOf(parentID); err == nil {
		delete(kids.byName, child.Name())
	}
	if g, ok := ds.objects[parentID].(Geometry); ok {
		for _, ref := range g.refs() {
			if *ref == child.ID() {
				*ref = RootID
			}
		}
	}
	delete(child.base().parents, parentID)
	if len(child.base().parents) > 0 {
		return false
	}
	ds.destroy(child)
	return true
}

func (ds *DataStructure) destroy(obj Object) {
	delete(ds.objects, obj.ID())
	if c, ok := obj.(Container); ok {
		for _, cid := range c.ChildIDs() {
			if child, ok := ds.objects[cid]; ok {
				ds.unlink(obj.ID(), child)
			}
		}
	}
	if a, ok := obj.(*DataArray); ok {
		if r, ok := a.store.(interface{ Release() error }); ok {
			if err := r.Release(); err != nil {
				slog.Warn("release array store", "name", a.Name(), "id", a.ID(), "error", err)
			}
		}
	}
}

// AddParent adds an edge from parentID to id. The object keeps its name,
// which must be free under the new parent.
func (ds *DataStructure) AddParent(id, parentID ObjectID) error {
	obj, ok := ds.objects[id]
	if !ok {
		return fmt.Errorf("%w: id %d", ErrObjectNotFound, id)
	}
	if obj.HasParent(parentID) {
		return fmt.Errorf("%w: %q is already a child of %s", ErrDuplicateName, obj.Name(), ds.describe(parentID))
	}
	if parentID == id || (parentID != RootID && ds.IsAncestor(id, parentID)) {
		return fmt.Errorf("%w: %q under %s", ErrCycle, obj.Name(), ds.describe(parentID))
	}
	if err := ds.checkInsert(parentID, obj.Name(), obj.Kind(), tupleCount(obj)); err != nil {
		return err
	}
	ds.link(parentID, obj)
	return nil
}

// RemoveParent removes the edge from parentID to id. Removing the last edge
// deletes the object and cascades to its children; orphaned reports that.
func (ds *DataStructure) RemoveParent(id, parentID ObjectID) (orphaned bool, err error) {
	obj, ok := ds.objects[id]
	if !ok {
		return false, fmt.Errorf("%w: id %d", ErrObjectNotFound, id)
	}
	if !obj.HasParent(parentID) {
		return false, fmt.Errorf("%w: %s is not a parent of %q", ErrNotAParent, ds.describe(parentID), obj.Name())
	}
	return ds.unlink(parentID, obj), nil
}

// RemoveObject removes every parent edge of id, deleting it.
func (ds *DataStructure) RemoveObject(id ObjectID) error {
	obj, ok := ds.objects[id]
	if !ok {
		return fmt.Errorf("%w: id %d", ErrObjectNotFound, id)
	}
	for _, pid := range obj.ParentIDs() {
		ds.unlink(pid, obj)
	}
	return nil
}

// RemovePath removes the edge named by path. The object survives if it is
// still reachable through another parent.
func (ds *DataStructure) RemovePath(path datapath.DataPath) (orphaned bool, err error) {
	obj, err := ds.Resolve(path)
	if err != nil {
		return false, err
	}
	parentID := RootID
	if parent := path.Parent(); !parent.IsEmpty() {
		parentID, _ = ds.GetID(parent)
	}
	return ds.RemoveParent(obj.ID(), parentID)
}

// Rename changes the name of id. The name must be free under every parent.
func (ds *DataStructure) Rename(id ObjectID, name string) error {
	obj, ok := ds.objects[id]
	if !ok {
		return fmt.Errorf("%w: id %d", ErrObjectNotFound, id)
	}
	name = normalizeName(name)
	if err := validName(name); err != nil {
		return err
	}
	if name == obj.Name() {
		return nil
	}
	parents := obj.ParentIDs()
	for _, pid := range parents {
		kids, _ := ds.kidsOf(pid)
		if _, taken := kids.byName[name]; taken {
			return fmt.Errorf("%w: %q under %s", ErrDuplicateName, name, ds.describe(pid))
		}
	}
	for _, pid := range parents {
		kids, _ := ds.kidsOf(pid)
		delete(kids.byName, obj.Name())
		kids.byName[name] = id
	}
	obj.base().name = name
	return nil
}

// WalkFunc is called for every path reachable from the root. Objects with
// several parents are visited once per path.
type WalkFunc func(path datapath.DataPath, obj Object) error

// Walk visits the graph depth first in name order. Returning an error stops
// the walk.
func (ds *DataStructure) Walk(fn WalkFunc) error {
	return ds.walk(datapath.DataPath{}, &ds.root, fn)
}

func (ds *DataStructure) walk(prefix datapath.DataPath, kids *children, fn WalkFunc) error {
	for _, name := range kids.ChildNames() {
		obj := ds.objects[kids.byName[name]]
		path := prefix.MustCreateChildPath(name)
		if err := fn(path, obj); err != nil {
			return err
		}
		if c, ok := obj.(Container); ok {
			if err := ds.walk(path, c.kids(), fn); err != nil {
				return err
			}
		}
	}
	return nil
}
