package datastore

import "fmt"

// EmptyStore records a shape without allocating values. Preflight creates
// arrays with EmptyStore so that the final shape is visible to later steps
// while bulk allocation is skipped.
type EmptyStore struct {
	shapeInfo
}

// NewEmpty creates a shape-only store.
func NewEmpty(dataType DataType, tupleShape, componentShape Shape) (*EmptyStore, error) {
	if !dataType.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedType, uint8(dataType))
	}
	if err := validateShapes(dataType, tupleShape, componentShape); err != nil {
		return nil, err
	}
	return &EmptyStore{shapeInfo: shapeInfo{
		dataType:       dataType,
		tupleShape:     tupleShape.Clone(),
		componentShape: componentShape.Clone(),
	}}, nil
}

// Kind implements Store.
func (s *EmptyStore) Kind() StoreKind { return KindEmpty }

// IsAllocated implements Store.
func (s *EmptyStore) IsAllocated() bool { return false }

// ResizeTuples implements Store; only the shape changes.
func (s *EmptyStore) ResizeTuples(tupleShape Shape) error {
	if err := s.validateResize(tupleShape); err != nil {
		return err
	}
	s.tupleShape = tupleShape.Clone()
	return nil
}

// GetFloat64 implements Store.
func (s *EmptyStore) GetFloat64(uint64) (float64, error) { return 0, ErrNotAllocated }

// SetFloat64 implements Store.
func (s *EmptyStore) SetFloat64(uint64, float64) error { return ErrNotAllocated }

// Fill implements Store. Filling a shape-only store is a no-op.
func (s *EmptyStore) Fill(float64) error { return nil }

// Clone implements Store.
func (s *EmptyStore) Clone() (Store, error) {
	return &EmptyStore{shapeInfo: shapeInfo{
		dataType:       s.dataType,
		tupleShape:     s.tupleShape.Clone(),
		componentShape: s.componentShape.Clone(),
	}}, nil
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (s *EmptyStore) MarshalBinary() ([]byte, error) { return nil, ErrNotAllocated }

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (s *EmptyStore) UnmarshalBinary([]byte) error { return ErrNotAllocated }
