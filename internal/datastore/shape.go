package datastore

import (
	"fmt"
	"math/bits"
	"slices"
	"strings"
)

// Shape is a list of dimension extents, slowest varying first.
type Shape []uint64

// Product returns the number of elements the shape describes.
// The empty shape describes nothing and returns 0.
func (s Shape) Product() uint64 {
	if len(s) == 0 {
		return 0
	}
	p := uint64(1)
	for _, d := range s {
		p *= d
	}
	return p
}

// ProductChecked is Product that fails with ErrInvalidShape instead of
// wrapping when the extents multiply past uint64.
func (s Shape) ProductChecked() (uint64, error) {
	if len(s) == 0 {
		return 0, nil
	}
	p := uint64(1)
	for _, d := range s {
		hi, lo := bits.Mul64(p, d)
		if hi != 0 {
			return 0, fmt.Errorf("%w: shape %s overflows uint64", ErrInvalidShape, s)
		}
		p = lo
	}
	return p, nil
}

// ByteSize returns the number of bytes a dataType store of the given
// shapes holds, failing with ErrInvalidShape on overflow.
func ByteSize(dataType DataType, tupleShape, componentShape Shape) (uint64, error) {
	n := dataType.Size()
	for _, s := range []Shape{tupleShape, componentShape} {
		p, err := s.ProductChecked()
		if err != nil {
			return 0, err
		}
		hi, lo := bits.Mul64(n, p)
		if hi != 0 {
			return 0, fmt.Errorf("%w: %s x %s of %s overflows uint64 bytes",
				ErrInvalidShape, tupleShape, componentShape, dataType)
		}
		n = lo
	}
	return n, nil
}

// Rank returns the number of dimensions.
func (s Shape) Rank() int {
	return len(s)
}

// Equal reports whether both shapes have the same extents.
func (s Shape) Equal(other Shape) bool {
	return slices.Equal(s, other)
}

// Clone returns an independent copy.
func (s Shape) Clone() Shape {
	return slices.Clone(s)
}

// String renders the shape as "[1, 10, 10]".
func (s Shape) String() string {
	parts := make([]string, len(s))
	for i, d := range s {
		parts[i] = fmt.Sprintf("%d", d)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// validateShapes checks the shape pair a store is created with.
func validateShapes(dataType DataType, tupleShape, componentShape Shape) error {
	if len(tupleShape) == 0 {
		return fmt.Errorf("%w: tuple shape is empty", ErrInvalidShape)
	}
	if len(componentShape) == 0 {
		return fmt.Errorf("%w: component shape is empty", ErrInvalidShape)
	}
	if componentShape.Product() == 0 {
		return fmt.Errorf("%w: component shape %s has a zero extent", ErrInvalidShape, componentShape)
	}
	_, err := ByteSize(dataType, tupleShape, componentShape)
	return err
}

// validateResize checks that a tuple resize keeps the rank and the size
// representable.
func (s *shapeInfo) validateResize(newShape Shape) error {
	if len(newShape) != len(s.tupleShape) {
		return fmt.Errorf("%w: tuple shape rank %d cannot become rank %d (%s -> %s)",
			ErrIncompatibleRank, len(s.tupleShape), len(newShape), s.tupleShape, newShape)
	}
	_, err := ByteSize(s.dataType, newShape, s.componentShape)
	return err
}
