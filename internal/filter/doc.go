// Package filter defines the two-phase protocol every filter follows.
//
// Preflight reads the graph and the arguments, validates every referenced
// path, and returns the Actions that would make the structural changes.
// It never mutates the graph. The orchestrator applies those Actions, then
// calls Execute, which only does numeric work on arrays that now exist
// with the shapes Preflight promised.
//
// Execute polls its context between chunks of work. A cancelled Execute
// returns a valid Result carrying a Cancelled warning; partial results are
// left in place.
package filter
