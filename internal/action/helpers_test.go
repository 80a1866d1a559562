package action

import (
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"

	"github.com/roach88/nxcore/internal/datastore"
	"github.com/roach88/nxcore/internal/testutil"
)

func mustStore(t testing.TB, dt datastore.DataType, ts datastore.Shape, cs ...uint64) datastore.Store {
	t.Helper()
	if len(cs) == 0 {
		cs = []uint64{1}
	}
	s, err := datastore.New(dt, ts, datastore.Shape(cs))
	require.NoError(t, err)
	return s
}

func openBadger(t *testing.T) *badger.DB {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

var storeComparer = testutil.StoreComparer
