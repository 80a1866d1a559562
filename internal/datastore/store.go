package datastore

import (
	"encoding"
	"fmt"

	"github.com/roach88/nxcore/internal/result"
)

// Error codes reported by this package.
const (
	CodeUnsupportedType  = -200
	CodeInvalidShape     = -201
	CodeIncompatibleRank = -202
	CodeOutOfRange       = -203
	CodeNotAllocated     = -204
	CodeSizeMismatch     = -205
)

var (
	// ErrUnsupportedType is returned for an unknown DataType.
	ErrUnsupportedType = result.NewError(result.KindUnsupported, CodeUnsupportedType, "unsupported data type")

	// ErrInvalidShape is returned when a store is created with an unusable shape.
	ErrInvalidShape = result.NewError(result.KindShapeMismatch, CodeInvalidShape, "invalid shape")

	// ErrIncompatibleRank is returned by ResizeTuples when the rank changes.
	ErrIncompatibleRank = result.NewError(result.KindShapeMismatch, CodeIncompatibleRank, "incompatible rank")

	// ErrOutOfRange is returned for an element index past the end of the store.
	ErrOutOfRange = result.NewError(result.KindShapeMismatch, CodeOutOfRange, "index out of range")

	// ErrNotAllocated is returned when values are read from or written to an
	// EmptyStore.
	ErrNotAllocated = result.NewError(result.KindUnsupported, CodeNotAllocated, "store holds no data")

	// ErrSizeMismatch is returned when encoded data does not match the shape.
	ErrSizeMismatch = result.NewError(result.KindShapeMismatch, CodeSizeMismatch, "data size does not match shape")
)

// StoreKind names a backing strategy.
type StoreKind uint8

const (
	// KindMemory keeps all values on the heap.
	KindMemory StoreKind = iota + 1
	// KindEmpty keeps only the shape; used while preflighting.
	KindEmpty
	// KindChunked keeps values in compressed chunks in a key-value database.
	KindChunked
)

// String returns the strategy name.
func (k StoreKind) String() string {
	switch k {
	case KindMemory:
		return "memory"
	case KindEmpty:
		return "empty"
	case KindChunked:
		return "chunked"
	default:
		return "unknown"
	}
}

// Store is typed, two-level shaped array storage.
//
// The total element count is TupleShape().Product() * ComponentShape().Product().
// TupleCount, ComponentCount, Size and ByteSize are always derived from the
// two shapes. The component shape never changes after creation.
//
// All backing strategies are interchangeable behind this interface.
// MarshalBinary produces little-endian element bytes in flat index order.
type Store interface {
	encoding.BinaryMarshaler
	encoding.BinaryUnmarshaler

	DataType() DataType
	Kind() StoreKind

	TupleShape() Shape
	ComponentShape() Shape
	TupleCount() uint64
	ComponentCount() uint64
	Size() uint64
	ByteSize() uint64

	// IsAllocated reports whether the store holds values.
	IsAllocated() bool

	// ResizeTuples changes the tuple shape. Existing values in the common
	// flat prefix are kept; growth zero-fills; shrinking truncates.
	ResizeTuples(tupleShape Shape) error

	// GetFloat64 reads element i converted to float64.
	GetFloat64(i uint64) (float64, error)

	// SetFloat64 writes element i converted from float64.
	SetFloat64(i uint64, v float64) error

	// Fill sets every element to v.
	Fill(v float64) error

	// Clone returns an independent store with the same shape and values.
	Clone() (Store, error)
}

// TypedStore adds typed element access to a Store.
type TypedStore[T Element] interface {
	Store

	At(i uint64) (T, error)
	Set(i uint64, v T) error

	// CopyOut fills dst with the values starting at element start.
	CopyOut(start uint64, dst []T) error

	// CopyIn writes src into the store starting at element start.
	CopyIn(start uint64, src []T) error
}

// shapeInfo holds the shape fields shared by all strategies.
type shapeInfo struct {
	dataType       DataType
	tupleShape     Shape
	componentShape Shape
}

func (s *shapeInfo) DataType() DataType     { return s.dataType }
func (s *shapeInfo) TupleShape() Shape      { return s.tupleShape.Clone() }
func (s *shapeInfo) ComponentShape() Shape  { return s.componentShape.Clone() }
func (s *shapeInfo) TupleCount() uint64     { return s.tupleShape.Product() }
func (s *shapeInfo) ComponentCount() uint64 { return s.componentShape.Product() }
func (s *shapeInfo) Size() uint64           { return s.TupleCount() * s.ComponentCount() }
func (s *shapeInfo) ByteSize() uint64       { return s.Size() * s.dataType.Size() }

func (s *shapeInfo) checkIndex(i uint64) error {
	if i >= s.Size() {
		return fmt.Errorf("%w: element %d of %d", ErrOutOfRange, i, s.Size())
	}
	return nil
}

func (s *shapeInfo) checkSpan(start, n uint64) error {
	if start+n > s.Size() {
		return fmt.Errorf("%w: elements [%d, %d) of %d", ErrOutOfRange, start, start+n, s.Size())
	}
	return nil
}

// typeOps holds the per-type constructors, built once per DataType from the
// generic implementations.
type typeOps struct {
	newMemory  func(tupleShape, componentShape Shape) (Store, error)
	newChunked func(tupleShape, componentShape Shape, opts ChunkedOptions) (Store, error)
}

func opsFor[T Element]() typeOps {
	return typeOps{
		newMemory: func(ts, cs Shape) (Store, error) {
			s, err := NewMemoryStore[T](ts, cs)
			if err != nil {
				return nil, err
			}
			return s, nil
		},
		newChunked: func(ts, cs Shape, opts ChunkedOptions) (Store, error) {
			s, err := NewChunkedStore[T](ts, cs, opts)
			if err != nil {
				return nil, err
			}
			return s, nil
		},
	}
}

var ops = [...]typeOps{
	Int8:    opsFor[int8](),
	UInt8:   opsFor[uint8](),
	Int16:   opsFor[int16](),
	UInt16:  opsFor[uint16](),
	Int32:   opsFor[int32](),
	UInt32:  opsFor[uint32](),
	Int64:   opsFor[int64](),
	UInt64:  opsFor[uint64](),
	Float32: opsFor[float32](),
	Float64: opsFor[float64](),
	Boolean: opsFor[bool](),
}

// New creates a zero-filled heap store of the given element type.
func New(dataType DataType, tupleShape, componentShape Shape) (Store, error) {
	if !dataType.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedType, uint8(dataType))
	}
	return ops[dataType].newMemory(tupleShape, componentShape)
}

// NewChunked creates an out-of-core store of the given element type.
func NewChunked(dataType DataType, tupleShape, componentShape Shape, opts ChunkedOptions) (Store, error) {
	if !dataType.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedType, uint8(dataType))
	}
	return ops[dataType].newChunked(tupleShape, componentShape, opts)
}

// CopyValues copies every element of src into dst through float64
// conversion. Both stores must have the same size.
func CopyValues(dst, src Store) error {
	if dst.Size() != src.Size() {
		return fmt.Errorf("%w: copy %d elements into %d", ErrSizeMismatch, src.Size(), dst.Size())
	}
	if dst.DataType() == src.DataType() {
		data, err := src.MarshalBinary()
		if err != nil {
			return err
		}
		return dst.UnmarshalBinary(data)
	}
	for i := uint64(0); i < src.Size(); i++ {
		v, err := src.GetFloat64(i)
		if err != nil {
			return err
		}
		if err := dst.SetFloat64(i, v); err != nil {
			return err
		}
	}
	return nil
}
