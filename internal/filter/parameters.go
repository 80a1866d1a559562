package filter

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/nxcore/internal/datapath"
	"github.com/roach88/nxcore/internal/datastore"
	"github.com/roach88/nxcore/internal/result"
	"github.com/roach88/nxcore/internal/structure"
)

// Info describes a parameter for listings and help output.
type Info struct {
	Key   string `json:"key"`
	Human string `json:"human_name"`
	Help  string `json:"help,omitempty"`
}

// Parameter is one typed filter input. The set of parameter types is
// closed; filters compose them.
type Parameter interface {
	Info() Info
	// TypeName names the value type for listings.
	TypeName() string
	// DefaultValue is used when the argument is absent. nil means required.
	DefaultValue() any
	// check validates a present value against the graph.
	check(ds *structure.DataStructure, args Arguments) error
}

// Parameters is an ordered parameter list.
type Parameters []Parameter

// Lookup finds a parameter by key.
func (ps Parameters) Lookup(key string) (Parameter, bool) {
	for _, p := range ps {
		if p.Info().Key == key {
			return p, true
		}
	}
	return nil, false
}

// WithDefaults returns a copy of args with every absent key set to its
// parameter default. Unknown keys are kept.
func (ps Parameters) WithDefaults(args Arguments) Arguments {
	out := args.Clone()
	if out == nil {
		out = Arguments{}
	}
	for _, p := range ps {
		key := p.Info().Key
		if _, ok := out[key]; ok {
			continue
		}
		if def := p.DefaultValue(); def != nil {
			out[key] = def
		}
	}
	return out
}

// Validate checks every parameter against args and ds, collecting all
// failures. Unknown argument keys produce warnings.
func (ps Parameters) Validate(ds *structure.DataStructure, args Arguments) result.Result[result.Void] {
	var out result.Result[result.Void]
	for _, p := range ps {
		key := p.Info().Key
		if v, ok := args[key]; !ok || v == nil {
			if p.DefaultValue() == nil {
				out.AddError(result.AsError(fmt.Errorf("%w: %q", ErrMissingArgument, key), CodeMissingArgument))
			}
			continue
		}
		if err := p.check(ds, args); err != nil {
			out.AddError(result.AsError(err, CodeArgumentType))
		}
	}
	for key := range args {
		if _, ok := ps.Lookup(key); !ok {
			out.AddWarning(result.NewWarning(CodeArgumentType, "unknown argument %q ignored", key))
		}
	}
	slices.SortFunc(out.Warnings, func(a, b result.Warning) int { return strings.Compare(a.Message, b.Message) })
	return out
}

// BoolParameter is a flag.
type BoolParameter struct {
	Key, Human, Help string
	Default          bool
}

func (p BoolParameter) Info() Info        { return Info{p.Key, p.Human, p.Help} }
func (p BoolParameter) TypeName() string  { return "bool" }
func (p BoolParameter) DefaultValue() any { return p.Default }
func (p BoolParameter) check(_ *structure.DataStructure, args Arguments) error {
	_, err := Get[bool](args, p.Key)
	return err
}

// NumberParameter is a float64 with optional bounds.
type NumberParameter struct {
	Key, Human, Help string
	Default          float64
	// Min and Max apply when Bounded is set.
	Min, Max float64
	Bounded  bool
	Integer  bool
}

func (p NumberParameter) Info() Info { return Info{p.Key, p.Human, p.Help} }
func (p NumberParameter) TypeName() string {
	if p.Integer {
		return "integer"
	}
	return "number"
}
func (p NumberParameter) DefaultValue() any { return p.Default }
func (p NumberParameter) check(_ *structure.DataStructure, args Arguments) error {
	var v float64
	var err error
	if p.Integer {
		var i int
		i, err = Get[int](args, p.Key)
		v = float64(i)
	} else {
		v, err = Get[float64](args, p.Key)
	}
	if err != nil {
		return err
	}
	if p.Bounded && (v < p.Min || v > p.Max) {
		return fmt.Errorf("%w: %q = %g, want [%g, %g]", ErrArgumentRange, p.Key, v, p.Min, p.Max)
	}
	return nil
}

// StringParameter is free text.
type StringParameter struct {
	Key, Human, Help string
	Default          string
	AllowEmpty       bool
}

func (p StringParameter) Info() Info        { return Info{p.Key, p.Human, p.Help} }
func (p StringParameter) TypeName() string  { return "string" }
func (p StringParameter) DefaultValue() any { return p.Default }
func (p StringParameter) check(_ *structure.DataStructure, args Arguments) error {
	s, err := Get[string](args, p.Key)
	if err != nil {
		return err
	}
	if s == "" && !p.AllowEmpty {
		return fmt.Errorf("%w: %q is empty", ErrArgumentRange, p.Key)
	}
	return nil
}

// ChoiceParameter is one of a fixed list of strings.
type ChoiceParameter struct {
	Key, Human, Help string
	Choices          []string
	Default          string
}

func (p ChoiceParameter) Info() Info        { return Info{p.Key, p.Human, p.Help} }
func (p ChoiceParameter) TypeName() string  { return "choice(" + strings.Join(p.Choices, "|") + ")" }
func (p ChoiceParameter) DefaultValue() any {
	if slices.Contains(p.Choices, p.Default) {
		return p.Default
	}
	return nil
}
func (p ChoiceParameter) check(_ *structure.DataStructure, args Arguments) error {
	s, err := Get[string](args, p.Key)
	if err != nil {
		return err
	}
	if !slices.Contains(p.Choices, s) {
		return fmt.Errorf("%w: %q = %q, want one of %v", ErrArgumentRange, p.Key, s, p.Choices)
	}
	return nil
}

// DataTypeParameter selects an element type.
type DataTypeParameter struct {
	Key, Human, Help string
	Default          datastore.DataType
}

func (p DataTypeParameter) Info() Info       { return Info{p.Key, p.Human, p.Help} }
func (p DataTypeParameter) TypeName() string { return "data_type" }
func (p DataTypeParameter) DefaultValue() any {
	if !p.Default.Valid() {
		return nil
	}
	return p.Default
}
func (p DataTypeParameter) check(_ *structure.DataStructure, args Arguments) error {
	dt, err := Get[datastore.DataType](args, p.Key)
	if err != nil {
		return err
	}
	if !dt.Valid() {
		return fmt.Errorf("%w: %q", ErrArgumentRange, p.Key)
	}
	return nil
}

// ShapeParameter is a tuple or component shape. Every entry must be
// positive.
type ShapeParameter struct {
	Key, Human, Help string
	Default          datastore.Shape
}

func (p ShapeParameter) Info() Info       { return Info{p.Key, p.Human, p.Help} }
func (p ShapeParameter) TypeName() string { return "shape" }
func (p ShapeParameter) DefaultValue() any {
	if len(p.Default) == 0 {
		return nil
	}
	return p.Default.Clone()
}
func (p ShapeParameter) check(_ *structure.DataStructure, args Arguments) error {
	shape, err := Get[datastore.Shape](args, p.Key)
	if err != nil {
		return err
	}
	if len(shape) == 0 || slices.Contains(shape, 0) {
		return fmt.Errorf("%w: %q = %s", ErrArgumentRange, p.Key, shape)
	}
	if _, err := shape.ProductChecked(); err != nil {
		return fmt.Errorf("%w: %q: %v", ErrArgumentRange, p.Key, err)
	}
	return nil
}

// VectorParameter is a fixed-length list of numbers, such as an origin.
type VectorParameter struct {
	Key, Human, Help string
	// Names labels each entry, and its length is the required length.
	Names   []string
	Default []float64
}

func (p VectorParameter) Info() Info       { return Info{p.Key, p.Human, p.Help} }
func (p VectorParameter) TypeName() string { return fmt.Sprintf("vector[%d]", len(p.Names)) }
func (p VectorParameter) DefaultValue() any {
	if p.Default == nil {
		return nil
	}
	return slices.Clone(p.Default)
}
func (p VectorParameter) check(_ *structure.DataStructure, args Arguments) error {
	v, err := Get[[]float64](args, p.Key)
	if err != nil {
		return err
	}
	if len(v) != len(p.Names) {
		return fmt.Errorf("%w: %q has %d entries, want %d (%s)", ErrArgumentRange, p.Key, len(v), len(p.Names), strings.Join(p.Names, ", "))
	}
	return nil
}

// DataPathParameter selects an existing object of one of AllowedKinds
// (any kind when empty).
type DataPathParameter struct {
	Key, Human, Help string
	AllowedKinds     []structure.Kind
	// Optional allows the empty path, which means "none".
	Optional bool
}

func (p DataPathParameter) Info() Info       { return Info{p.Key, p.Human, p.Help} }
func (p DataPathParameter) TypeName() string { return "data_path" }
func (p DataPathParameter) DefaultValue() any {
	if p.Optional {
		return datapath.DataPath{}
	}
	return nil
}
func (p DataPathParameter) check(ds *structure.DataStructure, args Arguments) error {
	path, err := Get[datapath.DataPath](args, p.Key)
	if err != nil {
		return err
	}
	if path.IsEmpty() && p.Optional {
		return nil
	}
	_, err = CheckPath(ds, path, p.AllowedKinds...)
	return err
}

// ArraySelectionParameter selects an existing DataArray, optionally
// restricted by element type and component shape.
type ArraySelectionParameter struct {
	Key, Human, Help string
	AllowedTypes     []datastore.DataType
	ComponentShapes  []datastore.Shape
}

func (p ArraySelectionParameter) Info() Info        { return Info{p.Key, p.Human, p.Help} }
func (p ArraySelectionParameter) TypeName() string  { return "array_selection" }
func (p ArraySelectionParameter) DefaultValue() any { return nil }
func (p ArraySelectionParameter) check(ds *structure.DataStructure, args Arguments) error {
	path, err := Get[datapath.DataPath](args, p.Key)
	if err != nil {
		return err
	}
	_, err = SelectArray(ds, path, p.AllowedTypes, p.ComponentShapes)
	return err
}

// ArrayCreationParameter names an array that the filter will create. The
// path must be free and its parent must exist or be created earlier in the
// same pipeline; only the first is checkable here.
type ArrayCreationParameter struct {
	Key, Human, Help string
}

func (p ArrayCreationParameter) Info() Info        { return Info{p.Key, p.Human, p.Help} }
func (p ArrayCreationParameter) TypeName() string  { return "array_creation" }
func (p ArrayCreationParameter) DefaultValue() any { return nil }
func (p ArrayCreationParameter) check(ds *structure.DataStructure, args Arguments) error {
	path, err := Get[datapath.DataPath](args, p.Key)
	if err != nil {
		return err
	}
	if path.IsEmpty() {
		return fmt.Errorf("%w: %q is empty", ErrArgumentRange, p.Key)
	}
	if ds.ContainsPath(path) {
		return fmt.Errorf("%w: %s", ErrTargetExists, path)
	}
	return nil
}

// CheckPath resolves path and checks its kind against allowed (any kind
// when allowed is empty).
func CheckPath(ds *structure.DataStructure, path datapath.DataPath, allowed ...structure.Kind) (structure.Object, error) {
	obj, err := ds.Resolve(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrSelectionMissing, path)
	}
	if len(allowed) > 0 && !slices.Contains(allowed, obj.Kind()) {
		return nil, fmt.Errorf("%w: %s is a %s, want one of %v", ErrSelectionKind, path, obj.Kind(), allowed)
	}
	return obj, nil
}

// SelectArray resolves path to a DataArray and checks its element type and
// component shape. Empty allow lists accept anything.
//
// A NeighborList or StringArray at path is a kind error: the caller needs
// flat array data.
func SelectArray(ds *structure.DataStructure, path datapath.DataPath, types []datastore.DataType, compShapes []datastore.Shape) (*structure.DataArray, error) {
	obj, err := CheckPath(ds, path, structure.KindDataArray)
	if err != nil {
		return nil, err
	}
	arr := obj.(*structure.DataArray)
	if len(types) > 0 && !slices.Contains(types, arr.DataType()) {
		return nil, fmt.Errorf("%w: %s is %s, want one of %v", ErrSelectionType, path, arr.DataType(), types)
	}
	if len(compShapes) > 0 && !slices.ContainsFunc(compShapes, arr.ComponentShape().Equal) {
		return nil, fmt.Errorf("%w: %s has components %s, want one of %v", ErrSelectionShape, path, arr.ComponentShape(), compShapes)
	}
	return arr, nil
}
