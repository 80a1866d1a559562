package filters

import (
	"fmt"

	"github.com/roach88/nxcore/internal/action"
	"github.com/roach88/nxcore/internal/datapath"
	"github.com/roach88/nxcore/internal/filter"
	"github.com/roach88/nxcore/internal/result"
	"github.com/roach88/nxcore/internal/structure"
)

// Error codes reported by this package.
const (
	CodePreflight        = -500
	CodeExecute          = -501
	CodeIndexOutOfBounds = -502
)

var (
	// ErrIndexOutOfBounds is returned when connectivity refers to a missing vertex.
	ErrIndexOutOfBounds = result.NewError(result.KindExecution, CodeIndexOutOfBounds, "vertex index out of bounds")
)

// prepare fills defaults and validates args. The returned result carries
// validation warnings and, when invalid, the errors.
func prepare(params filter.Parameters, ds *structure.DataStructure, args filter.Arguments) (filter.Arguments, result.Result[filter.PreflightResult]) {
	args = params.WithDefaults(args)
	v := params.Validate(ds, args)
	return args, result.Convert(v, filter.PreflightResult{})
}

func preflightFail(err error) result.Result[filter.PreflightResult] {
	return result.FromError[filter.PreflightResult](err, CodePreflight)
}

func executeFail(err error) result.Result[result.Void] {
	return result.FromError[result.Void](err, CodeExecute)
}

// checkCreatable runs the insertion checks for a new object at path when
// its parent already exists. A missing parent is left to the action, since
// an earlier filter may create it.
func checkCreatable(ds *structure.DataStructure, path datapath.DataPath, kind structure.Kind, tuples uint64) error {
	if ds.ContainsPath(path) {
		return fmt.Errorf("%w: %s", filter.ErrTargetExists, path)
	}
	parentID, err := ds.ContainerID(path.Parent())
	if err != nil {
		if _, ok := ds.GetID(path.Parent()); !ok {
			return nil
		}
		return err
	}
	return ds.CheckInsert(parentID, path.Name(), kind, tuples)
}

// getAll reads several arguments of one type, stopping at the first error.
func getAll[T any](args filter.Arguments, keys ...string) ([]T, error) {
	out := make([]T, len(keys))
	for i, k := range keys {
		v, err := filter.Get[T](args, k)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// All returns one instance of every built-in filter.
func All() []filter.Filter {
	return []filter.Filter{
		CreateDataGroup{},
		CreateDataArray{},
		CreateAttributeMatrix{},
		CreateImageGeometry{},
		CreateGeometry{},
		CopyDataObject{},
		DeleteData{},
		MoveData{},
		RenameDataObject{},
		ResizeAttributeMatrix{},
		ThresholdArray{},
	}
}

// NewRegistry returns a registry holding every built-in filter.
func NewRegistry() (*filter.Registry, error) {
	return filter.NewRegistry(All()...)
}

// emit appends actions to a validated preflight result.
func emit(r result.Result[filter.PreflightResult], actions ...action.Action) result.Result[filter.PreflightResult] {
	r.Value.Actions.Append(actions...)
	return r
}

// failWith turns r into a failure carrying err, keeping its warnings.
func failWith(r result.Result[filter.PreflightResult], err error) result.Result[filter.PreflightResult] {
	out := preflightFail(err)
	out.AddWarning(r.Warnings...)
	return out
}
