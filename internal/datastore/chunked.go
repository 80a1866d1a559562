package datastore

import (
	"encoding/binary"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

// Chunked store defaults.
const (
	DefaultChunkTuples = 4096
	DefaultCacheChunks = 4
)

// ChunkedOptions configures an out-of-core store.
type ChunkedOptions struct {
	// DB holds the chunks. Required. The store does not close it.
	DB *badger.DB
	// ChunkTuples is the number of tuples per chunk (default 4096).
	ChunkTuples uint64
	// CacheChunks is the number of decoded chunks kept resident (default 4).
	CacheChunks int
}

type chunk[T Element] struct {
	values []T
	dirty  bool
}

// ChunkedStore keeps values in fixed-size zstd-compressed chunks in a
// badger database, with a small write-back cache of decoded chunks.
// Chunks that were never written read as zero.
//
// Access is serialized by a mutex, so concurrent workers are safe but do not
// run in parallel against the same store.
type ChunkedStore[T Element] struct {
	shapeInfo

	mu         sync.Mutex
	db         *badger.DB
	prefix     []byte
	chunkElems uint64
	capacity   int
	resident   map[uint64]*chunk[T]
	lru        []uint64 // least recently used first
}

// NewChunkedStore creates an out-of-core store. All values start at zero.
func NewChunkedStore[T Element](tupleShape, componentShape Shape, opts ChunkedOptions) (*ChunkedStore[T], error) {
	if opts.DB == nil {
		return nil, errors.New("chunked store: nil badger DB")
	}
	if err := validateShapes(DataTypeOf[T](), tupleShape, componentShape); err != nil {
		return nil, err
	}
	if opts.ChunkTuples == 0 {
		opts.ChunkTuples = DefaultChunkTuples
	}
	if opts.CacheChunks < 1 {
		opts.CacheChunks = DefaultCacheChunks
	}
	s := &ChunkedStore[T]{
		shapeInfo: shapeInfo{
			dataType:       DataTypeOf[T](),
			tupleShape:     tupleShape.Clone(),
			componentShape: componentShape.Clone(),
		},
		db:       opts.DB,
		prefix:   []byte("nx/" + uuid.NewString() + "/"),
		capacity: opts.CacheChunks,
		resident: make(map[uint64]*chunk[T]),
	}
	s.chunkElems = opts.ChunkTuples * s.ComponentCount()
	return s, nil
}

// Kind implements Store.
func (s *ChunkedStore[T]) Kind() StoreKind { return KindChunked }

// IsAllocated implements Store.
func (s *ChunkedStore[T]) IsAllocated() bool { return true }

// ChunkTuples returns the number of tuples per chunk.
func (s *ChunkedStore[T]) ChunkTuples() uint64 {
	return s.chunkElems / s.ComponentCount()
}

func (s *ChunkedStore[T]) numChunks() uint64 {
	return (s.Size() + s.chunkElems - 1) / s.chunkElems
}

func (s *ChunkedStore[T]) key(idx uint64) []byte {
	return binary.BigEndian.AppendUint64(slices.Clone(s.prefix), idx)
}

// readChunk decodes chunk idx straight from the database.
func (s *ChunkedStore[T]) readChunk(idx uint64) ([]T, error) {
	values := make([]T, s.chunkElems)
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(s.key(idx))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			raw, err := Decompress(val)
			if err != nil {
				return err
			}
			_, err = binary.Decode(raw, binary.LittleEndian, values)
			return err
		})
	})
	if err != nil {
		return nil, fmt.Errorf("read chunk %d: %w", idx, err)
	}
	return values, nil
}

func encodeChunk[T Element](values []T) ([]byte, error) {
	raw, err := binary.Append(nil, binary.LittleEndian, values)
	if err != nil {
		return nil, err
	}
	return Compress(raw)
}

func (s *ChunkedStore[T]) writeChunk(idx uint64, c *chunk[T]) error {
	if !c.dirty {
		return nil
	}
	payload, err := encodeChunk(c.values)
	if err != nil {
		return fmt.Errorf("encode chunk %d: %w", idx, err)
	}
	if err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(s.key(idx), payload)
	}); err != nil {
		return fmt.Errorf("write chunk %d: %w", idx, err)
	}
	c.dirty = false
	return nil
}

// load returns the resident chunk idx, reading and caching it if needed.
// Caller holds s.mu.
func (s *ChunkedStore[T]) load(idx uint64) (*chunk[T], error) {
	if c, ok := s.resident[idx]; ok {
		s.touch(idx)
		return c, nil
	}
	values, err := s.readChunk(idx)
	if err != nil {
		return nil, err
	}
	c := &chunk[T]{values: values}
	s.resident[idx] = c
	s.lru = append(s.lru, idx)
	for len(s.lru) > s.capacity {
		victim := s.lru[0]
		if err := s.writeChunk(victim, s.resident[victim]); err != nil {
			return nil, err
		}
		delete(s.resident, victim)
		s.lru = s.lru[1:]
	}
	return c, nil
}

func (s *ChunkedStore[T]) touch(idx uint64) {
	if i := slices.Index(s.lru, idx); i >= 0 {
		s.lru = append(slices.Delete(s.lru, i, i+1), idx)
	}
}

func (s *ChunkedStore[T]) flushLocked() error {
	for _, idx := range s.lru {
		if err := s.writeChunk(idx, s.resident[idx]); err != nil {
			return err
		}
	}
	return nil
}

// Flush writes every dirty resident chunk to the database.
func (s *ChunkedStore[T]) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flushLocked()
}

// Release deletes every chunk of this store from the database. The store
// must not be used afterwards.
func (s *ChunkedStore[T]) Release() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resident = make(map[uint64]*chunk[T])
	s.lru = nil
	return s.deleteChunks()
}

// deleteChunks removes every stored chunk of this store.
func (s *ChunkedStore[T]) deleteChunks() error {
	var keys [][]byte
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{Prefix: s.prefix})
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("list chunks: %w", err)
	}
	wb := s.db.NewWriteBatch()
	defer wb.Cancel()
	for _, k := range keys {
		if err := wb.Delete(k); err != nil {
			return fmt.Errorf("delete chunk: %w", err)
		}
	}
	return wb.Flush()
}

// At implements TypedStore.
func (s *ChunkedStore[T]) At(i uint64) (T, error) {
	var zero T
	if err := s.checkIndex(i); err != nil {
		return zero, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := s.load(i / s.chunkElems)
	if err != nil {
		return zero, err
	}
	return c.values[i%s.chunkElems], nil
}

// Set implements TypedStore.
func (s *ChunkedStore[T]) Set(i uint64, v T) error {
	if err := s.checkIndex(i); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := s.load(i / s.chunkElems)
	if err != nil {
		return err
	}
	c.values[i%s.chunkElems] = v
	c.dirty = true
	return nil
}

// CopyOut implements TypedStore.
func (s *ChunkedStore[T]) CopyOut(start uint64, dst []T) error {
	if err := s.checkSpan(start, uint64(len(dst))); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for done := uint64(0); done < uint64(len(dst)); {
		pos := start + done
		c, err := s.load(pos / s.chunkElems)
		if err != nil {
			return err
		}
		done += uint64(copy(dst[done:], c.values[pos%s.chunkElems:]))
	}
	return nil
}

// CopyIn implements TypedStore.
func (s *ChunkedStore[T]) CopyIn(start uint64, src []T) error {
	if err := s.checkSpan(start, uint64(len(src))); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for done := uint64(0); done < uint64(len(src)); {
		pos := start + done
		c, err := s.load(pos / s.chunkElems)
		if err != nil {
			return err
		}
		done += uint64(copy(c.values[pos%s.chunkElems:], src[done:]))
		c.dirty = true
	}
	return nil
}

// GetFloat64 implements Store.
func (s *ChunkedStore[T]) GetFloat64(i uint64) (float64, error) {
	v, err := s.At(i)
	if err != nil {
		return 0, err
	}
	return toFloat64(v), nil
}

// SetFloat64 implements Store.
func (s *ChunkedStore[T]) SetFloat64(i uint64, v float64) error {
	return s.Set(i, fromFloat64[T](v))
}

// Fill implements Store. Every chunk is rewritten in one write batch.
func (s *ChunkedStore[T]) Fill(v float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resident = make(map[uint64]*chunk[T])
	s.lru = nil

	if err := s.deleteChunks(); err != nil {
		return fmt.Errorf("fill: clear chunks: %w", err)
	}
	tv := fromFloat64[T](v)
	var zero T
	if tv == zero {
		return nil
	}

	full := make([]T, s.chunkElems)
	for i := range full {
		full[i] = tv
	}
	payload, err := encodeChunk(full)
	if err != nil {
		return err
	}

	wb := s.db.NewWriteBatch()
	defer wb.Cancel()
	n := s.numChunks()
	for idx := uint64(0); idx < n; idx++ {
		p := payload
		if tail := s.Size() - idx*s.chunkElems; tail < s.chunkElems {
			partial := make([]T, s.chunkElems)
			copy(partial, full[:tail])
			if p, err = encodeChunk(partial); err != nil {
				return err
			}
		}
		if err := wb.Set(s.key(idx), p); err != nil {
			return fmt.Errorf("fill chunk %d: %w", idx, err)
		}
	}
	return wb.Flush()
}

// ResizeTuples implements Store. Chunks past the new end are deleted and the
// tail of a partially kept chunk is zeroed, so later growth reads zeros.
func (s *ChunkedStore[T]) ResizeTuples(tupleShape Shape) error {
	if err := s.validateResize(tupleShape); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.flushLocked(); err != nil {
		return err
	}
	oldChunks := s.numChunks()
	newSize := tupleShape.Product() * s.ComponentCount()
	newChunks := (newSize + s.chunkElems - 1) / s.chunkElems

	if newSize < s.Size() {
		wb := s.db.NewWriteBatch()
		defer wb.Cancel()
		for idx := newChunks; idx < oldChunks; idx++ {
			if err := wb.Delete(s.key(idx)); err != nil {
				return fmt.Errorf("resize: delete chunk %d: %w", idx, err)
			}
			if _, ok := s.resident[idx]; ok {
				delete(s.resident, idx)
				s.lru = slices.DeleteFunc(s.lru, func(v uint64) bool { return v == idx })
			}
		}
		if err := wb.Flush(); err != nil {
			return fmt.Errorf("resize: %w", err)
		}
		if keep := newSize % s.chunkElems; keep != 0 {
			tail, err := s.load(newChunks - 1)
			if err != nil {
				return err
			}
			clear(tail.values[keep:])
			tail.dirty = true
			if err := s.writeChunk(newChunks-1, tail); err != nil {
				return err
			}
		}
	}
	s.tupleShape = tupleShape.Clone()
	return nil
}

// Clone implements Store. Compressed chunks are copied without decoding.
func (s *ChunkedStore[T]) Clone() (Store, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.flushLocked(); err != nil {
		return nil, err
	}
	c, err := NewChunkedStore[T](s.tupleShape, s.componentShape, ChunkedOptions{
		DB:          s.db,
		ChunkTuples: s.chunkElems / s.ComponentCount(),
		CacheChunks: s.capacity,
	})
	if err != nil {
		return nil, err
	}

	wb := s.db.NewWriteBatch()
	defer wb.Cancel()
	err = s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{Prefix: s.prefix, PrefetchValues: true})
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			val, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			idx := binary.BigEndian.Uint64(item.Key()[len(s.prefix):])
			if err := wb.Set(c.key(idx), val); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("clone chunks: %w", err)
	}
	if err := wb.Flush(); err != nil {
		return nil, fmt.Errorf("clone chunks: %w", err)
	}
	return c, nil
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (s *ChunkedStore[T]) MarshalBinary() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.flushLocked(); err != nil {
		return nil, err
	}
	out := make([]byte, 0, s.ByteSize())
	size := s.Size()
	for idx := uint64(0); idx < s.numChunks(); idx++ {
		values, err := s.readChunk(idx)
		if err != nil {
			return nil, err
		}
		n := min(s.chunkElems, size-idx*s.chunkElems)
		if out, err = binary.Append(out, binary.LittleEndian, values[:n]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (s *ChunkedStore[T]) UnmarshalBinary(data []byte) error {
	if uint64(len(data)) != s.ByteSize() {
		return fmt.Errorf("%w: %d bytes for %d %s elements", ErrSizeMismatch, len(data), s.Size(), s.dataType)
	}
	all := make([]T, s.Size())
	if _, err := binary.Decode(data, binary.LittleEndian, all); err != nil {
		return fmt.Errorf("decode %s values: %w", s.dataType, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.resident = make(map[uint64]*chunk[T])
	s.lru = nil

	wb := s.db.NewWriteBatch()
	defer wb.Cancel()
	for idx := uint64(0); idx < s.numChunks(); idx++ {
		values := make([]T, s.chunkElems)
		copy(values, all[idx*s.chunkElems:])
		payload, err := encodeChunk(values)
		if err != nil {
			return err
		}
		if err := wb.Set(s.key(idx), payload); err != nil {
			return fmt.Errorf("write chunk %d: %w", idx, err)
		}
	}
	return wb.Flush()
}
