package datastore

import (
	"fmt"
	"strings"
)

// DataType identifies the element type of a store.
type DataType uint8

const (
	Int8 DataType = iota
	UInt8
	Int16
	UInt16
	Int32
	UInt32
	Int64
	UInt64
	Float32
	Float64
	Boolean
)

var dataTypeNames = [...]string{
	Int8:    "int8",
	UInt8:   "uint8",
	Int16:   "int16",
	UInt16:  "uint16",
	Int32:   "int32",
	UInt32:  "uint32",
	Int64:   "int64",
	UInt64:  "uint64",
	Float32: "float32",
	Float64: "float64",
	Boolean: "boolean",
}

var dataTypeSizes = [...]uint64{
	Int8: 1, UInt8: 1, Int16: 2, UInt16: 2, Int32: 4, UInt32: 4,
	Int64: 8, UInt64: 8, Float32: 4, Float64: 8, Boolean: 1,
}

// AllDataTypes lists every supported element type in declaration order.
func AllDataTypes() []DataType {
	out := make([]DataType, len(dataTypeNames))
	for i := range dataTypeNames {
		out[i] = DataType(i)
	}
	return out
}

// Valid reports whether d is a known element type.
func (d DataType) Valid() bool {
	return int(d) < len(dataTypeNames)
}

// String returns the lower-case type name ("float32").
func (d DataType) String() string {
	if !d.Valid() {
		return fmt.Sprintf("DataType(%d)", uint8(d))
	}
	return dataTypeNames[d]
}

// Size returns the number of bytes per element.
func (d DataType) Size() uint64 {
	if !d.Valid() {
		return 0
	}
	return dataTypeSizes[d]
}

// IsFloat reports whether d is float32 or float64.
func (d DataType) IsFloat() bool {
	return d == Float32 || d == Float64
}

// IsInteger reports whether d is one of the integer types.
func (d DataType) IsInteger() bool {
	return d.Valid() && !d.IsFloat() && d != Boolean
}

// ParseDataType parses a type name. Matching is case-insensitive and
// accepts "bool" as an alias of "boolean".
func ParseDataType(s string) (DataType, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "bool" {
		return Boolean, nil
	}
	for i, n := range dataTypeNames {
		if n == name {
			return DataType(i), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown data type %q", ErrUnsupportedType, s)
}

// MarshalText implements encoding.TextMarshaler.
func (d DataType) MarshalText() ([]byte, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedType, uint8(d))
	}
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *DataType) UnmarshalText(text []byte) error {
	parsed, err := ParseDataType(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Element is the set of Go types a store can hold.
type Element interface {
	int8 | uint8 | int16 | uint16 | int32 | uint32 | int64 | uint64 | float32 | float64 | bool
}

// DataTypeOf returns the DataType matching T.
func DataTypeOf[T Element]() DataType {
	var zero T
	switch any(zero).(type) {
	case int8:
		return Int8
	case uint8:
		return UInt8
	case int16:
		return Int16
	case uint16:
		return UInt16
	case int32:
		return Int32
	case uint32:
		return UInt32
	case int64:
		return Int64
	case uint64:
		return UInt64
	case float32:
		return Float32
	case float64:
		return Float64
	default:
		return Boolean
	}
}

func toFloat64[T Element](v T) float64 {
	switch x := any(v).(type) {
	case int8:
		return float64(x)
	case uint8:
		return float64(x)
	case int16:
		return float64(x)
	case uint16:
		return float64(x)
	case int32:
		return float64(x)
	case uint32:
		return float64(x)
	case int64:
		return float64(x)
	case uint64:
		return float64(x)
	case float32:
		return float64(x)
	case float64:
		return x
	case bool:
		if x {
			return 1
		}
	}
	return 0
}

func fromFloat64[T Element](f float64) T {
	var out any
	var zero T
	switch any(zero).(type) {
	case int8:
		out = int8(f)
	case uint8:
		out = uint8(f)
	case int16:
		out = int16(f)
	case uint16:
		out = uint16(f)
	case int32:
		out = int32(f)
	case uint32:
		out = uint32(f)
	case int64:
		out = int64(f)
	case uint64:
		out = uint64(f)
	case float32:
		out = float32(f)
	case float64:
		out = f
	case bool:
		out = f != 0
	}
	return out.(T)
}
