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

var createDataArrayID = uuid.MustParse("67041f9b-bdc6-4122-acc6-c9fe9280e90d")

// CreateDataArray creates a typed array and fills it with a constant. The
// fill runs in parallel chunks during Execute.
type CreateDataArray struct{}

func (CreateDataArray) Name() string      { return "create_data_array" }
func (CreateDataArray) HumanName() string { return "Create Data Array" }
func (CreateDataArray) UUID() uuid.UUID   { return createDataArrayID }

func (CreateDataArray) Parameters() filter.Parameters {
	return filter.Parameters{
		filter.DataTypeParameter{Key: "data_type", Human: "Data Type", Default: datastore.Float32},
		filter.ShapeParameter{Key: "tuple_shape", Human: "Tuple Shape"},
		filter.ShapeParameter{Key: "component_shape", Human: "Component Shape", Default: datastore.Shape{1}},
		filter.ArrayCreationParameter{Key: "output", Human: "Created Array"},
		filter.NumberParameter{Key: "fill_value", Human: "Initialization Value"},
		filter.ChoiceParameter{
			Key: "data_format", Human: "Data Format", Help: "empty for the default store",
			Choices: []string{"", action.FormatOutOfCore},
		},
	}
}

func (f CreateDataArray) Preflight(ds *structure.DataStructure, args filter.Arguments, _ filter.MessageHandler) result.Result[filter.PreflightResult] {
	args, r := prepare(f.Parameters(), ds, args)
	if r.Invalid() {
		return r
	}
	dt, _ := filter.Get[datastore.DataType](args, "data_type")
	shapes, _ := getAll[datastore.Shape](args, "tuple_shape", "component_shape")
	output, _ := filter.Get[datapath.DataPath](args, "output")
	format, _ := filter.GetOr(args, "data_format", "")

	size, err := datastore.ByteSize(dt, shapes[0], shapes[1])
	if err != nil {
		return failWith(r, err)
	}
	if err := checkCreatable(ds, output, structure.KindDataArray, shapes[0].Product()); err != nil {
		return failWith(r, err)
	}
	r.Value.Values = append(r.Value.Values, filter.PreflightValue{Name: "size", Value: fmt.Sprintf("%d bytes", size)})
	return emit(r, action.CreateArrayAction{
		Type:           dt,
		TupleShape:     shapes[0],
		ComponentShape: shapes[1],
		Path:           output,
		DataFormat:     format,
	})
}

func (f CreateDataArray) Execute(ctx context.Context, ds *structure.DataStructure, args filter.Arguments, msg filter.MessageHandler) result.Result[result.Void] {
	args = f.Parameters().WithDefaults(args)
	fill, err := filter.Get[float64](args, "fill_value")
	if err != nil {
		return executeFail(err)
	}
	if fill == 0 {
		return result.OkVoid()
	}
	output, err := filter.Get[datapath.DataPath](args, "output")
	if err != nil {
		return executeFail(err)
	}
	arr, err := structure.ResolveAs[*structure.DataArray](ds, output)
	if err != nil {
		return executeFail(err)
	}

	store := arr.Store()
	comps := arr.NumComponents()
	alg := filter.AlgorithmFrom(ctx)
	alg.Progress = msg.Progress("fill "+output.String(), arr.NumTuples(), alg.ProgressInterval)
	stats, err := alg.Execute(ctx, arr.NumTuples(), func(ctx context.Context, r parallel.Range) error {
		for i := r.Begin * comps; i < r.End*comps; i++ {
			if err := store.SetFloat64(i, fill); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return executeFail(fmt.Errorf("fill %s: %w", output, err))
	}
	if stats.Cancelled {
		return filter.Cancelled(f.Name(), stats.TuplesProcessed, arr.NumTuples())
	}
	return result.OkVoid()
}
