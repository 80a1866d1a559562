package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/roach88/nxcore/internal/datastore"
	"github.com/roach88/nxcore/internal/structure"
)

// ErrNoGraph is returned by Read when nothing has been written yet.
var ErrNoGraph = errors.New("no graph stored")

// Read rebuilds the stored graph. Every array is loaded onto the heap.
func (s *Store) Read(ctx context.Context) (*structure.DataStructure, error) {
	var nextID int64
	err := s.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = ?`, metaNextID).Scan(&nextID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("read graph: %w", ErrNoGraph)
	}
	if err != nil {
		return nil, fmt.Errorf("read graph: next id: %w", err)
	}

	snap := structure.Snapshot{NextID: structure.ObjectID(nextID)}
	index, err := s.readObjects(ctx, &snap)
	if err != nil {
		return nil, fmt.Errorf("read graph: %w", err)
	}
	if err := s.readEdges(ctx, snap.Objects, index); err != nil {
		return nil, fmt.Errorf("read graph: %w", err)
	}
	if err := s.readArrays(ctx, snap.Objects, index); err != nil {
		return nil, fmt.Errorf("read graph: %w", err)
	}

	ds, err := structure.FromSnapshot(snap)
	if err != nil {
		return nil, fmt.Errorf("read graph: %w", err)
	}
	return ds, nil
}

// readObjects appends one record per object row in id order and returns
// the position of each id in snap.Objects.
func (s *Store) readObjects(ctx context.Context, snap *structure.Snapshot) (map[structure.ObjectID]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, kind, name, attrs FROM objects ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("query objects: %w", err)
	}
	defer rows.Close()

	index := make(map[structure.ObjectID]int)
	for rows.Next() {
		var (
			id         int64
			kind, name string
			attrsJSON  string
			rec        structure.Record
		)
		if err := rows.Scan(&id, &kind, &name, &attrsJSON); err != nil {
			return nil, fmt.Errorf("scan object: %w", err)
		}
		rec.ID = structure.ObjectID(id)
		rec.Name = name
		if err := rec.Kind.UnmarshalText([]byte(kind)); err != nil {
			return nil, fmt.Errorf("object %d: %w", id, err)
		}
		if err := json.Unmarshal([]byte(attrsJSON), &rec.Attrs); err != nil {
			return nil, fmt.Errorf("object %d: unmarshal attrs: %w", id, err)
		}
		index[rec.ID] = len(snap.Objects)
		snap.Objects = append(snap.Objects, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate objects: %w", err)
	}
	return index, nil
}

func (s *Store) readEdges(ctx context.Context, recs []structure.Record, index map[structure.ObjectID]int) error {
	rows, err := s.db.QueryContext(ctx, `SELECT parent_id, child_id FROM edges ORDER BY child_id ASC, parent_id ASC`)
	if err != nil {
		return fmt.Errorf("query edges: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var parent, child int64
		if err := rows.Scan(&parent, &child); err != nil {
			return fmt.Errorf("scan edge: %w", err)
		}
		i, ok := index[structure.ObjectID(child)]
		if !ok {
			return fmt.Errorf("edge %d -> %d: unknown child", parent, child)
		}
		recs[i].Parents = append(recs[i].Parents, structure.ObjectID(parent))
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate edges: %w", err)
	}
	return nil
}

func (s *Store) readArrays(ctx context.Context, recs []structure.Record, index map[structure.ObjectID]int) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT object_id, data_type, tuple_shape, component_shape, data
		FROM arrays ORDER BY object_id ASC
	`)
	if err != nil {
		return fmt.Errorf("query arrays: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id                int64
			dtName            string
			tuplesJSON, comps string
			data              []byte
		)
		if err := rows.Scan(&id, &dtName, &tuplesJSON, &comps, &data); err != nil {
			return fmt.Errorf("scan array: %w", err)
		}
		i, ok := index[structure.ObjectID(id)]
		if !ok {
			return fmt.Errorf("array %d: unknown object", id)
		}
		store, err := decodeArray(dtName, tuplesJSON, comps, data)
		if err != nil {
			return fmt.Errorf("array %d: %w", id, err)
		}
		recs[i].Store = store
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate arrays: %w", err)
	}
	return nil
}

func decodeArray(dtName, tuplesJSON, compsJSON string, data []byte) (datastore.Store, error) {
	dt, err := datastore.ParseDataType(dtName)
	if err != nil {
		return nil, err
	}
	var tuples, comps datastore.Shape
	if err := json.Unmarshal([]byte(tuplesJSON), &tuples); err != nil {
		return nil, fmt.Errorf("tuple shape: %w", err)
	}
	if err := json.Unmarshal([]byte(compsJSON), &comps); err != nil {
		return nil, fmt.Errorf("component shape: %w", err)
	}

	if data == nil {
		return datastore.NewEmpty(dt, tuples, comps)
	}
	store, err := datastore.New(dt, tuples, comps)
	if err != nil {
		return nil, err
	}
	raw, err := datastore.Decompress(data)
	if err != nil {
		return nil, err
	}
	if err := store.UnmarshalBinary(raw); err != nil {
		return nil, err
	}
	return store, nil
}
