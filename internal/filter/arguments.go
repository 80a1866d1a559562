package filter

import (
	"encoding"
	"fmt"
	"maps"
	"math"
	"math/big"

	"github.com/roach88/nxcore/internal/action"
	"github.com/roach88/nxcore/internal/datapath"
	"github.com/roach88/nxcore/internal/datastore"
	"github.com/roach88/nxcore/internal/structure"
)

// Arguments maps parameter keys to values.
//
// Values may arrive already typed (tests, Go callers) or in the generic form
// a YAML/JSON/CUE decoder produces (string, float64, int, []any). Get
// converts either form, so a filter reads the same value whichever way the
// pipeline was loaded.
type Arguments map[string]any

// Clone returns a shallow copy.
func (a Arguments) Clone() Arguments {
	return maps.Clone(a)
}

// Get reads key as T.
func Get[T any](args Arguments, key string) (T, error) {
	var out T
	v, ok := args[key]
	if !ok || v == nil {
		return out, fmt.Errorf("%w: %q", ErrMissingArgument, key)
	}
	if err := convert(v, &out); err != nil {
		return out, fmt.Errorf("%w: %q: %v", ErrArgumentType, key, err)
	}
	return out, nil
}

// GetOr reads key as T, returning fallback when the key is absent. A
// present value of the wrong type is still an error.
func GetOr[T any](args Arguments, key string, fallback T) (T, error) {
	if v, ok := args[key]; !ok || v == nil {
		return fallback, nil
	}
	return Get[T](args, key)
}

// convert stores v into dst, a pointer to one of the supported argument types.
func convert(v any, dst any) error {
	if assignDirect(v, dst) {
		return nil
	}
	switch d := dst.(type) {
	case *float64:
		f, err := toFloat(v)
		*d = f
		return err
	case *int:
		f, err := toFloat(v)
		if err != nil {
			return err
		}
		if f != math.Trunc(f) {
			return fmt.Errorf("%v is not an integer", v)
		}
		*d = int(f)
		return nil
	case *uint64:
		f, err := toFloat(v)
		if err != nil {
			return err
		}
		if f < 0 || f != math.Trunc(f) {
			return fmt.Errorf("%v is not a non-negative integer", v)
		}
		*d = uint64(f)
		return nil
	case *datastore.Shape:
		items, err := toFloats(v)
		if err != nil {
			return err
		}
		shape := make(datastore.Shape, len(items))
		for i, f := range items {
			if f < 0 || f != math.Trunc(f) {
				return fmt.Errorf("shape entry %v is not a non-negative integer", f)
			}
			shape[i] = uint64(f)
		}
		*d = shape
		return nil
	case *[]float64:
		items, err := toFloats(v)
		*d = items
		return err
	case *[]datapath.DataPath:
		list, ok := v.([]any)
		if !ok {
			if strs, ok := v.([]string); ok {
				list = make([]any, len(strs))
				for i, s := range strs {
					list[i] = s
				}
			} else {
				return fmt.Errorf("want a list of paths, got %T", v)
			}
		}
		paths := make([]datapath.DataPath, len(list))
		for i, item := range list {
			if err := convert(item, &paths[i]); err != nil {
				return err
			}
		}
		*d = paths
		return nil
	case encoding.TextUnmarshaler:
		// DataPath, DataType, ArrayHandling and Kind all parse from text.
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("want a string, got %T", v)
		}
		return d.UnmarshalText([]byte(s))
	}
	return fmt.Errorf("cannot convert %T to %T", v, dst)
}

// assignDirect handles values that already have the destination type.
func assignDirect(v any, dst any) bool {
	switch d := dst.(type) {
	case *bool:
		b, ok := v.(bool)
		*d = b
		return ok
	case *string:
		s, ok := v.(string)
		*d = s
		return ok
	case *datapath.DataPath:
		p, ok := v.(datapath.DataPath)
		*d = p
		return ok
	case *datastore.DataType:
		t, ok := v.(datastore.DataType)
		*d = t
		return ok
	case *datastore.Shape:
		s, ok := v.(datastore.Shape)
		*d = s
		return ok
	case *action.ArrayHandling:
		h, ok := v.(action.ArrayHandling)
		*d = h
		return ok
	case *structure.Kind:
		k, ok := v.(structure.Kind)
		*d = k
		return ok
	case *[]datapath.DataPath:
		p, ok := v.([]datapath.DataPath)
		*d = p
		return ok
	case *structure.ImageGeometry:
		g, ok := v.(structure.ImageGeometry)
		*d = g
		return ok
	case *any:
		*d = v
		return true
	}
	return false
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	case uint32:
		return float64(n), nil
	case uint:
		return float64(n), nil
	case *big.Int:
		f, _ := new(big.Float).SetInt(n).Float64()
		return f, nil
	}
	return 0, fmt.Errorf("want a number, got %T", v)
}

func toFloats(v any) ([]float64, error) {
	switch list := v.(type) {
	case []float64:
		return list, nil
	case []uint64:
		out := make([]float64, len(list))
		for i, n := range list {
			out[i] = float64(n)
		}
		return out, nil
	case []int:
		out := make([]float64, len(list))
		for i, n := range list {
			out[i] = float64(n)
		}
		return out, nil
	case []any:
		out := make([]float64, len(list))
		for i, item := range list {
			f, err := toFloat(item)
			if err != nil {
				return nil, fmt.Errorf("item %d: %w", i, err)
			}
			out[i] = f
		}
		return out, nil
	}
	return nil, fmt.Errorf("want a list of numbers, got %T", v)
}
