// Package store persists a DataStructure in a SQLite file.
//
// A file holds one graph. Write replaces whatever was stored before in a
// single transaction; Read rebuilds a graph with the same ids, names,
// edges, shapes, contents and next id.
//
// # Tables
//
//   - meta: key/value integers; next_id is the id the next object gets
//   - objects: one row per object with its kind, name and kind-specific
//     attributes as JSON
//   - edges: (parent_id, child_id) pairs; parent_id 0 is the top level
//   - arrays: element type, shapes and zstd-compressed little-endian values
//     of every DataArray; shape-only arrays have a NULL data column
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Open takes an exclusive lock on "<path>.lock" for the lifetime of the
// Store, so two processes never write the same graph file.
package store
