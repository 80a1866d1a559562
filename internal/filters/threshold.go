package filters

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/roach88/nxcore/internal/action"
	"github.com/roach88/nxcore/internal/datapath"
	"github.com/roach88/nxcore/internal/datastore"
	"github.com/roach88/nxcore/internal/filter"
	"github.com/roach88/nxcore/internal/parallel"
	"github.com/roach88/nxcore/internal/result"
	"github.com/roach88/nxcore/internal/structure"
)

var thresholdArrayID = uuid.MustParse("3402b5e4-6ab2-4a2f-b5c9-8b6c0f3d2e71")

var comparisons = map[string]func(v, threshold float64) bool{
	"<":  func(v, t float64) bool { return v < t },
	"<=": func(v, t float64) bool { return v <= t },
	">":  func(v, t float64) bool { return v > t },
	">=": func(v, t float64) bool { return v >= t },
	"==": func(v, t float64) bool { return v == t },
	"!=": func(v, t float64) bool { return v != t },
}

// numericTypes are the element types ThresholdArray accepts.
var numericTypes = []datastore.DataType{
	datastore.Int8, datastore.UInt8, datastore.Int16, datastore.UInt16,
	datastore.Int32, datastore.UInt32, datastore.Int64, datastore.UInt64,
	datastore.Float32, datastore.Float64,
}

// ThresholdArray compares a one-component numeric array against a value
// and writes a boolean mask with the same tuple shape next to it.
type ThresholdArray struct{}

func (ThresholdArray) Name() string      { return "threshold_array" }
func (ThresholdArray) HumanName() string { return "Threshold Array" }
func (ThresholdArray) UUID() uuid.UUID   { return thresholdArrayID }

func (ThresholdArray) Parameters() filter.Parameters {
	return filter.Parameters{
		filter.ArraySelectionParameter{
			Key: "input", Human: "Input Array",
			AllowedTypes:    numericTypes,
			ComponentShapes: []datastore.Shape{{1}},
		},
		filter.ChoiceParameter{Key: "operator", Human: "Comparison", Choices: []string{"<", "<=", ">", ">=", "==", "!="}, Default: ">"},
		filter.NumberParameter{Key: "value", Human: "Threshold"},
		filter.ArrayCreationParameter{Key: "output", Human: "Mask Array"},
	}
}

func (f ThresholdArray) Preflight(ds *structure.DataStructure, args filter.Arguments, _ filter.MessageHandler) result.Result[filter.PreflightResult] {
	args, r := prepare(f.Parameters(), ds, args)
	if r.Invalid() {
		return r
	}
	paths, _ := getAll[datapath.DataPath](args, "input", "output")
	input, _ := structure.ResolveAs[*structure.DataArray](ds, paths[0])
	if err := checkCreatable(ds, paths[1], structure.KindDataArray, input.NumTuples()); err != nil {
		return failWith(r, err)
	}
	return emit(r, action.CreateArrayAction{
		Type:           datastore.Boolean,
		TupleShape:     input.TupleShape(),
		ComponentShape: datastore.Shape{1},
		Path:           paths[1],
	})
}

func (f ThresholdArray) Execute(ctx context.Context, ds *structure.DataStructure, args filter.Arguments, msg filter.MessageHandler) result.Result[result.Void] {
	args = f.Parameters().WithDefaults(args)
	paths, err := getAll[datapath.DataPath](args, "input", "output")
	if err != nil {
		return executeFail(err)
	}
	op, err := filter.Get[string](args, "operator")
	if err != nil {
		return executeFail(err)
	}
	value, err := filter.Get[float64](args, "value")
	if err != nil {
		return executeFail(err)
	}
	compare, ok := comparisons[op]
	if !ok {
		return executeFail(fmt.Errorf("%w: operator %q", filter.ErrArgumentRange, op))
	}
	input, err := filter.SelectArray(ds, paths[0], numericTypes, []datastore.Shape{{1}})
	if err != nil {
		return executeFail(err)
	}
	mask, err := structure.ResolveAs[*structure.DataArray](ds, paths[1])
	if err != nil {
		return executeFail(err)
	}
	if mask.NumTuples() != input.NumTuples() {
		return executeFail(fmt.Errorf("%w: mask %s has %d tuples, input has %d",
			action.ErrShapeMismatch, paths[1], mask.NumTuples(), input.NumTuples()))
	}

	in, out := input.Store(), mask.Store()
	n := input.NumTuples()
	alg := filter.AlgorithmFrom(ctx)
	alg.Progress = msg.Progress("threshold "+paths[0].String(), n, alg.ProgressInterval)
	stats, err := alg.Execute(ctx, n, func(ctx context.Context, r parallel.Range) error {
		for i := r.Begin; i < r.End; i++ {
			v, err := in.GetFloat64(i)
			if err != nil {
				return err
			}
			var b float64
			if compare(v, value) {
				b = 1
			}
			if err := out.SetFloat64(i, b); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return executeFail(err)
	}
	if stats.Cancelled {
		return filter.Cancelled(f.Name(), stats.TuplesProcessed, n)
	}
	return result.OkVoid()
}
