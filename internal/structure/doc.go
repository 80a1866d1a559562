// Package structure implements the DataStructure object graph.
//
// A DataStructure is an arena of objects keyed by ObjectID. Objects form a
// directed acyclic graph: an object may have several parents, and it lives
// exactly as long as it has at least one parent edge. The graph root is the
// pseudo-parent RootID; top-level objects carry it in their parent set.
//
// Objects are addressed from the outside by datapath.DataPath, resolved by
// walking child names from the root. Handles are ids or paths, never raw
// references that outlive a mutation.
//
// Id issuance:
//
//	ds := structure.New()        // NextID() == 1
//	g, _ := ds.CreateDataGroup("Group", structure.RootID)  // g.ID() == 1
//	ds.RemoveObject(g.ID())      // NextID() stays 2
//
// Ids are never reused within one DataStructure, and the next id is part of
// Snapshot so it survives serialization.
//
// Object kinds are closed: DataGroup, AttributeMatrix, DataArray,
// NeighborList, StringArray, ImageGeom and NodeGeom (vertex, edge, triangle,
// quad, tetrahedral and hexahedral). Geometries own their vertex and
// connectivity arrays and attribute matrices as children and keep their ids.
package structure
