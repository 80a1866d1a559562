// Package filters holds the built-in filters: structural edits of the
// graph plus a threshold filter that exercises parallel execution.
//
// Every filter validates its arguments against the graph in Preflight and
// returns Actions; none of them mutates the graph outside Execute, and
// Execute only writes array values.
package filters
