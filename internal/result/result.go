// Package result provides the Result value returned by every public
// protocol entry point (Action.Apply, Filter.Preflight, Filter.Execute) and
// the error taxonomy shared across the module.
//
// A Result carries either a value plus zero or more warnings, or one or more
// errors plus zero or more warnings. Warnings never make a result invalid.
//
// This package imports nothing internal.
package result

import "errors"

// Void is the value type of results that carry no payload.
type Void = struct{}

// Result is a value with accumulated diagnostics.
type Result[T any] struct {
	Value    T
	Errors   []*Error
	Warnings []Warning
}

// Ok creates a valid result holding v.
func Ok[T any](v T, warnings ...Warning) Result[T] {
	return Result[T]{Value: v, Warnings: warnings}
}

// OkVoid creates a valid result with no payload.
func OkVoid(warnings ...Warning) Result[Void] {
	return Result[Void]{Warnings: warnings}
}

// Fail creates an invalid result from one or more errors.
func Fail[T any](errs ...*Error) Result[T] {
	return Result[T]{Errors: errs}
}

// FromError creates a result from a Go error. A nil error yields a valid
// result with the zero value.
func FromError[T any](err error, fallbackCode int) Result[T] {
	if err == nil {
		return Result[T]{}
	}
	return Result[T]{Errors: []*Error{AsError(err, fallbackCode)}}
}

// Valid reports whether the result carries no errors.
func (r Result[T]) Valid() bool {
	return len(r.Errors) == 0
}

// Invalid reports whether the result carries at least one error.
func (r Result[T]) Invalid() bool {
	return len(r.Errors) > 0
}

// Cancelled reports whether the result carries a cancellation warning.
func (r Result[T]) Cancelled() bool {
	for _, w := range r.Warnings {
		if w.Kind == KindCancelled {
			return true
		}
	}
	return false
}

// Err joins all errors into a single Go error, or returns nil.
func (r Result[T]) Err() error {
	if len(r.Errors) == 0 {
		return nil
	}
	errs := make([]error, len(r.Errors))
	for i, e := range r.Errors {
		errs[i] = e
	}
	return errors.Join(errs...)
}

// AddWarning appends warnings in place.
func (r *Result[T]) AddWarning(w ...Warning) {
	r.Warnings = append(r.Warnings, w...)
}

// AddError appends errors in place.
func (r *Result[T]) AddError(e ...*Error) {
	r.Errors = append(r.Errors, e...)
}

// Absorb appends the diagnostics of another result (of any type) to r.
func Absorb[T, U any](r *Result[T], other Result[U]) {
	r.Errors = append(r.Errors, other.Errors...)
	r.Warnings = append(r.Warnings, other.Warnings...)
}

// Convert carries the diagnostics of r over to a result holding v.
// The value is only meaningful if r is valid.
func Convert[T, U any](r Result[T], v U) Result[U] {
	return Result[U]{Value: v, Errors: r.Errors, Warnings: r.Warnings}
}

// Merge combines void results, preserving order of diagnostics.
func Merge(results ...Result[Void]) Result[Void] {
	var out Result[Void]
	for _, r := range results {
		Absorb(&out, r)
	}
	return out
}
