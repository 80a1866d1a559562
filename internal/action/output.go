package action

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"

	"github.com/roach88/nxcore/internal/datapath"
	"github.com/roach88/nxcore/internal/result"
	"github.com/roach88/nxcore/internal/structure"
)

// OutputActions is the ordered list of actions a preflight produced, plus
// the warnings and errors found while producing it.
type OutputActions struct {
	Actions  []Action
	Warnings []result.Warning
	Errors   []*result.Error
}

// Append adds actions in order.
func (o *OutputActions) Append(actions ...Action) {
	o.Actions = append(o.Actions, actions...)
}

// AddWarning records a non-blocking diagnostic.
func (o *OutputActions) AddWarning(w ...result.Warning) {
	o.Warnings = append(o.Warnings, w...)
}

// AddError records a failure.
func (o *OutputActions) AddError(e ...*result.Error) {
	o.Errors = append(o.Errors, e...)
}

// Valid reports whether no errors were recorded.
func (o OutputActions) Valid() bool { return len(o.Errors) == 0 }

// CreatedPaths lists the paths of every CreationAction in order.
func (o OutputActions) CreatedPaths() []datapath.DataPath {
	var out []datapath.DataPath
	for _, a := range o.Actions {
		if c, ok := a.(CreationAction); ok {
			out = append(out, c.CreatedPaths()...)
		}
	}
	return out
}

// ApplyOption configures ApplyAll.
type ApplyOption func(*applyConfig)

type applyConfig struct {
	alloc  Allocator
	logger *slog.Logger
}

// WithAllocator sets the allocator for execute mode arrays.
func WithAllocator(a Allocator) ApplyOption {
	return func(c *applyConfig) { c.alloc = a }
}

// WithLogger sets the logger for per-action debug output.
func WithLogger(l *slog.Logger) ApplyOption {
	return func(c *applyConfig) { c.logger = l }
}

// ApplyAll applies the actions in list order. Recorded errors fail
// immediately without applying anything; otherwise the first failing action
// stops the rest. Warnings from the list and from applied actions are
// returned either way.
func (o OutputActions) ApplyAll(ds *structure.DataStructure, mode Mode, opts ...ApplyOption) result.Result[result.Void] {
	cfg := applyConfig{alloc: MemoryAllocator{}, logger: slog.Default()}
	for _, opt := range opts {
		opt(&cfg)
	}

	out := result.OkVoid(slices.Clone(o.Warnings)...)
	if len(o.Errors) > 0 {
		out.AddError(o.Errors...)
		return out
	}
	for i, a := range o.Actions {
		var r result.Result[result.Void]
		if aa, ok := a.(AllocatingAction); ok {
			r = aa.ApplyWith(ds, mode, cfg.alloc)
		} else {
			r = a.Apply(ds, mode)
		}
		cfg.logger.Debug("apply action", "index", i, "action", a.String(), "mode", mode.String(), "ok", r.Valid())
		out.AddWarning(r.Warnings...)
		if r.Invalid() {
			for _, e := range r.Errors {
				out.AddError(&result.Error{Kind: e.Kind, Code: e.Code, Message: fmt.Sprintf("action %d (%s): %s", i, a, e.Message)})
			}
			return out
		}
	}
	return out
}

type outputJSON struct {
	Actions  []Preview     `json:"actions"`
	Warnings []messageJSON `json:"warnings,omitempty"`
	Errors   []messageJSON `json:"errors,omitempty"`
}

type messageJSON struct {
	Kind    result.Kind `json:"kind,omitempty"`
	Code    int         `json:"code"`
	Message string      `json:"message"`
}

// MarshalJSON renders a preview of the pending changes.
func (o OutputActions) MarshalJSON() ([]byte, error) {
	doc := outputJSON{Actions: make([]Preview, 0, len(o.Actions))}
	for _, a := range o.Actions {
		if p, ok := a.(Previewer); ok {
			doc.Actions = append(doc.Actions, p.Preview())
			continue
		}
		doc.Actions = append(doc.Actions, Preview{Type: a.String()})
	}
	for _, w := range o.Warnings {
		doc.Warnings = append(doc.Warnings, messageJSON{Kind: w.Kind, Code: w.Code, Message: w.Message})
	}
	for _, e := range o.Errors {
		doc.Errors = append(doc.Errors, messageJSON{Kind: e.Kind, Code: e.Code, Message: e.Message})
	}
	return json.Marshal(doc)
}
