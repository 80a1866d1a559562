// Package parallel splits a tuple range [0, N) into contiguous chunks and
// runs them on a bounded worker group or sequentially.
//
// Chunks must be independent: a chunk may only write to the part of an
// output array that belongs to its own range. The graph itself is never
// touched from a worker.
//
// Cancellation is cooperative. The context is checked before every chunk,
// and ForEachTuple also checks it inside long chunks. A run that stops
// short of N because of cancellation is not an error: Execute returns a nil
// error and Stats.Cancelled is set. A chunk cut short counts its processed
// tuples but not toward ChunksCompleted.
package parallel
