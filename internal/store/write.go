package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/roach88/nxcore/internal/datastore"
	"github.com/roach88/nxcore/internal/structure"
)

const metaNextID = "next_id"

// Write replaces the stored graph with ds in one transaction.
//
// Allocated arrays are stored as zstd-compressed little-endian values.
// Shape-only arrays left by a preflight are stored with NULL data and read
// back as shape-only arrays.
func (s *Store) Write(ctx context.Context, ds *structure.DataStructure) error {
	snap := ds.Snapshot()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write graph: begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after Commit

	for _, table := range []string{"arrays", "edges", "objects", "meta"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("write graph: clear %s: %w", table, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `INSERT INTO meta (key, value) VALUES (?, ?)`, metaNextID, int64(snap.NextID)); err != nil {
		return fmt.Errorf("write graph: next id: %w", err)
	}

	for _, rec := range snap.Objects {
		if err := writeRecord(ctx, tx, rec); err != nil {
			return fmt.Errorf("write graph: object %d %q: %w", rec.ID, rec.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write graph: commit: %w", err)
	}
	return nil
}

func writeRecord(ctx context.Context, tx *sql.Tx, rec structure.Record) error {
	kind, err := rec.Kind.MarshalText()
	if err != nil {
		return err
	}
	attrs, err := json.Marshal(rec.Attrs)
	if err != nil {
		return fmt.Errorf("marshal attrs: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO objects (id, kind, name, attrs)
		VALUES (?, ?, ?, ?)
	`, int64(rec.ID), string(kind), rec.Name, string(attrs)); err != nil {
		return fmt.Errorf("insert object: %w", err)
	}

	for _, pid := range rec.Parents {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO edges (parent_id, child_id) VALUES (?, ?)
		`, int64(pid), int64(rec.ID)); err != nil {
			return fmt.Errorf("insert edge from %d: %w", pid, err)
		}
	}

	if rec.Store != nil {
		return writeArray(ctx, tx, rec.ID, rec.Store)
	}
	return nil
}

func writeArray(ctx context.Context, tx *sql.Tx, id structure.ObjectID, store datastore.Store) error {
	tuples, err := json.Marshal(store.TupleShape())
	if err != nil {
		return err
	}
	comps, err := json.Marshal(store.ComponentShape())
	if err != nil {
		return err
	}

	// Shape-only arrays keep a NULL data column.
	var data any
	if store.IsAllocated() {
		raw, err := store.MarshalBinary()
		if err != nil {
			return fmt.Errorf("encode values: %w", err)
		}
		compressed, err := datastore.Compress(raw)
		if err != nil {
			return err
		}
		data = compressed
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO arrays (object_id, data_type, tuple_shape, component_shape, data)
		VALUES (?, ?, ?, ?, ?)
	`, int64(id), store.DataType().String(), string(tuples), string(comps), data); err != nil {
		return fmt.Errorf("insert array: %w", err)
	}
	return nil
}
