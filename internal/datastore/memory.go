package datastore

import (
	"encoding/binary"
	"fmt"
)

// MemoryStore keeps all values in a heap slice.
type MemoryStore[T Element] struct {
	shapeInfo
	values []T
}

// NewMemoryStore creates a zero-filled store.
func NewMemoryStore[T Element](tupleShape, componentShape Shape) (*MemoryStore[T], error) {
	if err := validateShapes(DataTypeOf[T](), tupleShape, componentShape); err != nil {
		return nil, err
	}
	s := &MemoryStore[T]{
		shapeInfo: shapeInfo{
			dataType:       DataTypeOf[T](),
			tupleShape:     tupleShape.Clone(),
			componentShape: componentShape.Clone(),
		},
	}
	s.values = make([]T, s.Size())
	return s, nil
}

// Kind implements Store.
func (s *MemoryStore[T]) Kind() StoreKind { return KindMemory }

// IsAllocated implements Store.
func (s *MemoryStore[T]) IsAllocated() bool { return true }

// Values exposes the backing slice. Writers running in parallel must touch
// disjoint index ranges.
func (s *MemoryStore[T]) Values() []T {
	return s.values
}

// At implements TypedStore.
func (s *MemoryStore[T]) At(i uint64) (T, error) {
	if err := s.checkIndex(i); err != nil {
		var zero T
		return zero, err
	}
	return s.values[i], nil
}

// Set implements TypedStore.
func (s *MemoryStore[T]) Set(i uint64, v T) error {
	if err := s.checkIndex(i); err != nil {
		return err
	}
	s.values[i] = v
	return nil
}

// CopyOut implements TypedStore.
func (s *MemoryStore[T]) CopyOut(start uint64, dst []T) error {
	if err := s.checkSpan(start, uint64(len(dst))); err != nil {
		return err
	}
	copy(dst, s.values[start:])
	return nil
}

// CopyIn implements TypedStore.
func (s *MemoryStore[T]) CopyIn(start uint64, src []T) error {
	if err := s.checkSpan(start, uint64(len(src))); err != nil {
		return err
	}
	copy(s.values[start:], src)
	return nil
}

// GetFloat64 implements Store.
func (s *MemoryStore[T]) GetFloat64(i uint64) (float64, error) {
	v, err := s.At(i)
	if err != nil {
		return 0, err
	}
	return toFloat64(v), nil
}

// SetFloat64 implements Store.
func (s *MemoryStore[T]) SetFloat64(i uint64, v float64) error {
	return s.Set(i, fromFloat64[T](v))
}

// Fill implements Store.
func (s *MemoryStore[T]) Fill(v float64) error {
	tv := fromFloat64[T](v)
	for i := range s.values {
		s.values[i] = tv
	}
	return nil
}

// ResizeTuples implements Store.
func (s *MemoryStore[T]) ResizeTuples(tupleShape Shape) error {
	if err := s.validateResize(tupleShape); err != nil {
		return err
	}
	newSize := tupleShape.Product() * s.ComponentCount()
	resized := make([]T, newSize)
	copy(resized, s.values)
	s.values = resized
	s.tupleShape = tupleShape.Clone()
	return nil
}

// Clone implements Store.
func (s *MemoryStore[T]) Clone() (Store, error) {
	c := &MemoryStore[T]{
		shapeInfo: shapeInfo{
			dataType:       s.dataType,
			tupleShape:     s.tupleShape.Clone(),
			componentShape: s.componentShape.Clone(),
		},
		values: make([]T, len(s.values)),
	}
	copy(c.values, s.values)
	return c, nil
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (s *MemoryStore[T]) MarshalBinary() ([]byte, error) {
	return binary.Append(make([]byte, 0, s.ByteSize()), binary.LittleEndian, s.values)
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler. The data must hold
// exactly Size() elements.
func (s *MemoryStore[T]) UnmarshalBinary(data []byte) error {
	if uint64(len(data)) != s.ByteSize() {
		return fmt.Errorf("%w: %d bytes for %d %s elements", ErrSizeMismatch, len(data), s.Size(), s.dataType)
	}
	if _, err := binary.Decode(data, binary.LittleEndian, s.values); err != nil {
		return fmt.Errorf("decode %s values: %w", s.dataType, err)
	}
	return nil
}
