package pipeline

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	"gopkg.in/yaml.v3"

	"github.com/roach88/nxcore/internal/filter"
)

// Pipeline file error codes.
const (
	ErrCodeRead          = "P001" // file could not be read
	ErrCodeParse         = "P002" // YAML or CUE syntax/evaluation error
	ErrCodeInvalid       = "P003" // well-formed file with missing or bad fields
	ErrCodeUnknownFilter = "P004" // filter reference not in the registry
	ErrCodeFormat        = "P005" // unsupported file extension
)

// LoadError is a pipeline file failure.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// File is the decoded form of a pipeline file.
type File struct {
	// Name identifies the pipeline in logs and reports.
	Name string `yaml:"name" json:"name"`

	// Pipeline lists the filter invocations in execution order.
	Pipeline []Step `yaml:"pipeline" json:"pipeline"`
}

// Step is one filter invocation in a pipeline file.
type Step struct {
	// Filter is a registered filter name or UUID.
	Filter string `yaml:"filter" json:"filter"`

	// Args are the filter arguments. Values keep their decoded form
	// (strings, numbers, lists) and are converted when the filter reads them.
	Args map[string]any `yaml:"args,omitempty" json:"args,omitempty"`
}

// LoadFile reads a .yaml, .yml or .cue pipeline file.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeRead, Message: fmt.Sprintf("reading pipeline file: %v", err)}
	}
	var f *File
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		f, err = ParseYAML(data)
	case ".cue":
		f, err = ParseCUE(data, path)
	default:
		return nil, &LoadError{Code: ErrCodeFormat, Message: fmt.Sprintf("unsupported pipeline file %s: want .yaml, .yml or .cue", path)}
	}
	if err != nil {
		return nil, err
	}
	if f.Name == "" {
		f.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return f, nil
}

// ParseYAML decodes a YAML pipeline. Unknown top-level and step fields are
// rejected.
func ParseYAML(data []byte) (*File, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, &LoadError{Code: ErrCodeParse, Message: fmt.Sprintf("parsing YAML: %v", err)}
	}
	if err := f.validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// ParseCUE compiles and decodes a CUE pipeline. The value must be concrete.
// filename is used in positions only.
func ParseCUE(data []byte, filename string) (*File, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(data, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, cueLoadError(ErrCodeParse, err)
	}
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, cueLoadError(ErrCodeParse, err)
	}
	if err := checkCUEFields(v); err != nil {
		return nil, err
	}

	var f File
	if err := v.Decode(&f); err != nil {
		return nil, cueLoadError(ErrCodeInvalid, err)
	}
	if err := f.validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// checkCUEFields rejects fields File and Step do not define, matching the
// strictness of the YAML decoder.
func checkCUEFields(v cue.Value) error {
	if err := onlyFields(v, "name", "pipeline"); err != nil {
		return err
	}
	list, err := v.LookupPath(cue.ParsePath("pipeline")).List()
	if err != nil {
		return nil
	}
	for list.Next() {
		if err := onlyFields(list.Value(), "filter", "args"); err != nil {
			return err
		}
	}
	return nil
}

func onlyFields(v cue.Value, allowed ...string) error {
	iter, err := v.Fields()
	if err != nil {
		return cueLoadError(ErrCodeInvalid, err)
	}
	for iter.Next() {
		label := iter.Selector().String()
		if !slices.Contains(allowed, label) {
			return &LoadError{Code: ErrCodeInvalid, Message: fmt.Sprintf("unknown field %q", label), Pos: iter.Value().Pos()}
		}
	}
	return nil
}

// cueLoadError keeps the position of the first CUE error.
func cueLoadError(code string, err error) *LoadError {
	le := &LoadError{Code: code, Message: err.Error()}
	var cerr cueerrors.Error
	if errors.As(err, &cerr) {
		le.Pos = cerr.Position()
		le.Message = cueerrors.Details(cerr, nil)
	}
	le.Message = strings.TrimSpace(le.Message)
	return le
}

func (f *File) validate() error {
	if len(f.Pipeline) == 0 {
		return &LoadError{Code: ErrCodeInvalid, Message: "pipeline has no steps"}
	}
	for i, s := range f.Pipeline {
		if s.Filter == "" {
			return &LoadError{Code: ErrCodeInvalid, Message: fmt.Sprintf("step %d: filter is required", i)}
		}
	}
	return nil
}

// Build resolves every step through reg and returns the pipeline.
func (f *File) Build(reg *filter.Registry, opts ...Option) (*Pipeline, error) {
	nodes := make([]Node, 0, len(f.Pipeline))
	for i, s := range f.Pipeline {
		flt, err := reg.Lookup(s.Filter)
		if err != nil {
			return nil, &LoadError{Code: ErrCodeUnknownFilter, Message: fmt.Sprintf("step %d: %v", i, err)}
		}
		nodes = append(nodes, Node{Filter: flt, Args: filter.Arguments(s.Args).Clone()})
	}
	return New(f.Name, nodes, opts...), nil
}
