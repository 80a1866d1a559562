package filter

import (
	"context"

	"github.com/google/uuid"

	"github.com/roach88/nxcore/internal/action"
	"github.com/roach88/nxcore/internal/parallel"
	"github.com/roach88/nxcore/internal/result"
	"github.com/roach88/nxcore/internal/structure"
)

// Filter is one pipeline step.
//
// Preflight must not mutate ds. Execute may assume the actions returned by
// Preflight were applied in ModeExecute.
type Filter interface {
	// Name is the stable identifier used in pipeline files.
	Name() string
	HumanName() string
	UUID() uuid.UUID
	Parameters() Parameters

	Preflight(ds *structure.DataStructure, args Arguments, msg MessageHandler) result.Result[PreflightResult]
	Execute(ctx context.Context, ds *structure.DataStructure, args Arguments, msg MessageHandler) result.Result[result.Void]
}

// PreflightValue is a human-readable fact Preflight computed, such as the
// size of an array that will be created.
type PreflightValue struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// PreflightResult is what a successful Preflight returns.
type PreflightResult struct {
	Actions action.OutputActions
	Values  []PreflightValue
}

type algorithmKey struct{}

// WithAlgorithm attaches the parallel settings Execute should use.
func WithAlgorithm(ctx context.Context, alg parallel.Algorithm) context.Context {
	return context.WithValue(ctx, algorithmKey{}, alg)
}

// AlgorithmFrom returns the settings attached by WithAlgorithm, or the
// zero Algorithm (sequential) when none are attached.
func AlgorithmFrom(ctx context.Context) parallel.Algorithm {
	alg, _ := ctx.Value(algorithmKey{}).(parallel.Algorithm)
	return alg
}

// Cancelled builds the result of an Execute that stopped early.
func Cancelled(name string, processed, total uint64) result.Result[result.Void] {
	return result.OkVoid(result.CancelledWarning("%s cancelled after %d of %d tuples", name, processed, total))
}
