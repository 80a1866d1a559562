package testutil

import (
	"bytes"

	"github.com/google/go-cmp/cmp"

	"github.com/roach88/nxcore/internal/datastore"
)

// StoreComparer makes cmp compare stores by element type, shapes,
// allocation and encoded contents, whatever their backing strategy.
var StoreComparer = cmp.Comparer(func(a, b datastore.Store) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.DataType() != b.DataType() || !a.TupleShape().Equal(b.TupleShape()) ||
		!a.ComponentShape().Equal(b.ComponentShape()) || a.IsAllocated() != b.IsAllocated() {
		return false
	}
	if !a.IsAllocated() {
		return true
	}
	ab, err1 := a.MarshalBinary()
	bb, err2 := b.MarshalBinary()
	return err1 == nil && err2 == nil && bytes.Equal(ab, bb)
})
