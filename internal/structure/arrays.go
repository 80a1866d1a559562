package structure

import (
	"fmt"
	"slices"

	"github.com/roach88/nxcore/internal/datastore"
)

// DataArray is a typed, shaped array backed by a datastore.Store.
type DataArray struct {
	objectBase
	store datastore.Store
}

func (a *DataArray) Kind() Kind { return KindDataArray }

// Store returns the backing store.
func (a *DataArray) Store() datastore.Store { return a.store }

// DataType returns the element type.
func (a *DataArray) DataType() datastore.DataType { return a.store.DataType() }

// TupleShape implements Array.
func (a *DataArray) TupleShape() datastore.Shape { return a.store.TupleShape() }

// ComponentShape returns the per-tuple shape.
func (a *DataArray) ComponentShape() datastore.Shape { return a.store.ComponentShape() }

// NumTuples implements Array.
func (a *DataArray) NumTuples() uint64 { return a.store.TupleCount() }

// NumComponents returns the product of the component shape.
func (a *DataArray) NumComponents() uint64 { return a.store.ComponentCount() }

// IsAllocated reports whether the store holds values.
func (a *DataArray) IsAllocated() bool { return a.store.IsAllocated() }

func (a *DataArray) resizeTuples(shape datastore.Shape) error {
	return a.store.ResizeTuples(shape)
}

// Typed returns the array store as a TypedStore of element type T.
func Typed[T datastore.Element](a *DataArray) (datastore.TypedStore[T], error) {
	ts, ok := a.store.(datastore.TypedStore[T])
	if !ok {
		return nil, fmt.Errorf("%w: %q holds %s, not %s (%s store)",
			datastore.ErrUnsupportedType, a.name, a.store.DataType(), datastore.DataTypeOf[T](), a.store.Kind())
	}
	return ts, nil
}

// NeighborList holds a variable-length list of values per tuple. Lists is
// nil until the array is allocated.
type NeighborList struct {
	objectBase
	dataType   datastore.DataType
	tupleShape datastore.Shape
	lists      [][]float64
}

func (n *NeighborList) Kind() Kind { return KindNeighborList }

// DataType returns the declared element type of the lists.
func (n *NeighborList) DataType() datastore.DataType { return n.dataType }

// TupleShape implements Array.
func (n *NeighborList) TupleShape() datastore.Shape { return n.tupleShape.Clone() }

// NumTuples implements Array.
func (n *NeighborList) NumTuples() uint64 { return n.tupleShape.Product() }

// IsAllocated reports whether per-tuple lists exist.
func (n *NeighborList) IsAllocated() bool { return n.lists != nil }

// Allocate creates an empty list for every tuple.
func (n *NeighborList) Allocate() {
	if n.lists == nil {
		n.lists = make([][]float64, n.NumTuples())
	}
}

// List returns the list of tuple i.
func (n *NeighborList) List(i uint64) ([]float64, error) {
	if err := n.check(i); err != nil {
		return nil, err
	}
	return slices.Clone(n.lists[i]), nil
}

// SetList replaces the list of tuple i.
func (n *NeighborList) SetList(i uint64, values []float64) error {
	if err := n.check(i); err != nil {
		return err
	}
	n.lists[i] = slices.Clone(values)
	return nil
}

func (n *NeighborList) check(i uint64) error {
	if n.lists == nil {
		return fmt.Errorf("%w: neighbor list %q", datastore.ErrNotAllocated, n.name)
	}
	if i >= uint64(len(n.lists)) {
		return fmt.Errorf("%w: tuple %d of %d", datastore.ErrOutOfRange, i, len(n.lists))
	}
	return nil
}

func (n *NeighborList) resizeTuples(shape datastore.Shape) error {
	if len(shape) != len(n.tupleShape) {
		return fmt.Errorf("%w: %s -> %s", datastore.ErrIncompatibleRank, n.tupleShape, shape)
	}
	if n.lists != nil {
		resized := make([][]float64, shape.Product())
		copy(resized, n.lists)
		n.lists = resized
	}
	n.tupleShape = shape.Clone()
	return nil
}

func (n *NeighborList) cloneLists() [][]float64 {
	if n.lists == nil {
		return nil
	}
	out := make([][]float64, len(n.lists))
	for i, l := range n.lists {
		out[i] = slices.Clone(l)
	}
	return out
}

// StringArray holds one string per tuple. Values is nil until allocated.
type StringArray struct {
	objectBase
	tupleShape datastore.Shape
	values     []string
}

func (s *StringArray) Kind() Kind { return KindStringArray }

// TupleShape implements Array.
func (s *StringArray) TupleShape() datastore.Shape { return s.tupleShape.Clone() }

// NumTuples implements Array.
func (s *StringArray) NumTuples() uint64 { return s.tupleShape.Product() }

// IsAllocated reports whether values exist.
func (s *StringArray) IsAllocated() bool { return s.values != nil }

// Allocate creates an empty string for every tuple.
func (s *StringArray) Allocate() {
	if s.values == nil {
		s.values = make([]string, s.NumTuples())
	}
}

// Values returns a copy of all values.
func (s *StringArray) Values() []string { return slices.Clone(s.values) }

// At returns the value of tuple i.
func (s *StringArray) At(i uint64) (string, error) {
	if err := s.check(i); err != nil {
		return "", err
	}
	return s.values[i], nil
}

// Set writes the value of tuple i.
func (s *StringArray) Set(i uint64, v string) error {
	if err := s.check(i); err != nil {
		return err
	}
	s.values[i] = v
	return nil
}

func (s *StringArray) check(i uint64) error {
	if s.values == nil {
		return fmt.Errorf("%w: string array %q", datastore.ErrNotAllocated, s.name)
	}
	if i >= uint64(len(s.values)) {
		return fmt.Errorf("%w: tuple %d of %d", datastore.ErrOutOfRange, i, len(s.values))
	}
	return nil
}

func (s *StringArray) resizeTuples(shape datastore.Shape) error {
	if len(shape) != len(s.tupleShape) {
		return fmt.Errorf("%w: %s -> %s", datastore.ErrIncompatibleRank, s.tupleShape, shape)
	}
	if s.values != nil {
		resized := make([]string, shape.Product())
		copy(resized, s.values)
		s.values = resized
	}
	s.tupleShape = shape.Clone()
	return nil
}
