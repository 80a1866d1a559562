package action

import (
	"fmt"

	"github.com/roach88/nxcore/internal/datastore"
)

// FormatOutOfCore requests a chunked, disk-backed store.
const FormatOutOfCore = "out-of-core"

// Allocator creates the store of a new array in execute mode.
type Allocator interface {
	Allocate(dataType datastore.DataType, tupleShape, componentShape datastore.Shape, format string) (datastore.Store, error)
}

// MemoryAllocator places every array on the heap, whatever its format.
type MemoryAllocator struct{}

// Allocate implements Allocator.
func (MemoryAllocator) Allocate(dt datastore.DataType, ts, cs datastore.Shape, _ string) (datastore.Store, error) {
	return datastore.New(dt, ts, cs)
}

// ChunkedAllocator places arrays in chunked stores when they request the
// out-of-core format or are at least ThresholdBytes large. Other arrays go
// to the heap.
type ChunkedAllocator struct {
	Options datastore.ChunkedOptions
	// ThresholdBytes of 0 disables size-based placement.
	ThresholdBytes uint64
}

// Allocate implements Allocator.
func (a ChunkedAllocator) Allocate(dt datastore.DataType, ts, cs datastore.Shape, format string) (datastore.Store, error) {
	switch format {
	case "", FormatOutOfCore:
	default:
		return nil, fmt.Errorf("%w: unknown data format %q", ErrInvalidAction, format)
	}
	size, err := datastore.ByteSize(dt, ts, cs)
	if err != nil {
		return nil, err
	}
	if format == FormatOutOfCore || (a.ThresholdBytes > 0 && size >= a.ThresholdBytes) {
		return datastore.NewChunked(dt, ts, cs, a.Options)
	}
	return datastore.New(dt, ts, cs)
}

// allocate builds the store for mode: shape-only in preflight, allocated
// and filled in execute.
func allocate(alloc Allocator, mode Mode, dt datastore.DataType, ts, cs datastore.Shape, format string, fill float64) (datastore.Store, error) {
	if mode == ModePreflight {
		return datastore.NewEmpty(dt, ts, cs)
	}
	if alloc == nil {
		alloc = MemoryAllocator{}
	}
	s, err := alloc.Allocate(dt, ts, cs, format)
	if err != nil {
		return nil, err
	}
	if fill != 0 {
		if err := s.Fill(fill); err != nil {
			release(s)
			return nil, err
		}
	}
	return s, nil
}

// release frees a store that was allocated but never attached.
func release(s datastore.Store) {
	if r, ok := s.(interface{ Release() error }); ok {
		_ = r.Release()
	}
}
