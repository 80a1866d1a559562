package result

import (
	"errors"
	"fmt"
)

// Kind categorizes an Error or Warning.
type Kind string

const (
	// KindPathResolution: a DataPath does not resolve, or resolves to an
	// object of the wrong kind.
	KindPathResolution Kind = "PATH_RESOLUTION"

	// KindShapeMismatch: tuple or component shapes are inconsistent.
	KindShapeMismatch Kind = "SHAPE_MISMATCH"

	// KindAlreadyExists: the target path is occupied.
	KindAlreadyExists Kind = "ALREADY_EXISTS"

	// KindInvalidParent: a source object is missing, or a destination parent
	// cannot hold the object.
	KindInvalidParent Kind = "INVALID_PARENT"

	// KindCancelled: a cooperative stop was observed. Only ever carried by a
	// Warning; cancellation is not a failure.
	KindCancelled Kind = "CANCELLED"

	// KindUnsupported: unknown element type or malformed configuration.
	KindUnsupported Kind = "UNSUPPORTED"

	// KindInvalidArgument: a filter argument is missing or has the wrong type.
	KindInvalidArgument Kind = "INVALID_ARGUMENT"

	// KindExecution: numeric work failed for a data-dependent reason.
	KindExecution Kind = "EXECUTION"
)

// Error is a coded failure. Code is a numeric identifier chosen by the
// reporting package; Kind is the taxonomy category used for matching.
type Error struct {
	Kind    Kind   `json:"kind"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// NewError creates an Error with a formatted message.
func NewError(kind Kind, code int, format string, args ...any) *Error {
	return &Error{Kind: kind, Code: code, Message: fmt.Sprintf(format, args...)}
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s(%d): %s", e.Kind, e.Code, e.Message)
}

// Is matches the kind sentinels below by Kind and any other *Error by Kind
// and Code, so a converted error still matches the sentinel it came from.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	if t.Code == 0 && t.Message == "" {
		return t.Kind == e.Kind
	}
	return t.Kind == e.Kind && t.Code == e.Code
}

// Kind sentinels for errors.Is. They match any Error of the same Kind.
var (
	ErrPathResolution  = &Error{Kind: KindPathResolution}
	ErrShapeMismatch   = &Error{Kind: KindShapeMismatch}
	ErrAlreadyExists   = &Error{Kind: KindAlreadyExists}
	ErrInvalidParent   = &Error{Kind: KindInvalidParent}
	ErrUnsupported     = &Error{Kind: KindUnsupported}
	ErrInvalidArgument = &Error{Kind: KindInvalidArgument}
)

// IsKind reports whether err (or anything it wraps) is an Error of kind.
// Uses errors.As to handle wrapped errors.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// AsError converts any error into an *Error. Errors that already carry one
// keep its kind and code (the message keeps the wrapping context); anything
// else becomes a KindExecution error with the given fallback code.
func AsError(err error, fallbackCode int) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		if e == err {
			return e
		}
		return &Error{Kind: e.Kind, Code: e.Code, Message: err.Error()}
	}
	return &Error{Kind: KindExecution, Code: fallbackCode, Message: err.Error()}
}

// Warning is a non-blocking diagnostic.
type Warning struct {
	Kind    Kind   `json:"kind,omitempty"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// NewWarning creates a Warning with a formatted message.
func NewWarning(code int, format string, args ...any) Warning {
	return Warning{Code: code, Message: fmt.Sprintf(format, args...)}
}

// String renders the warning for logs.
func (w Warning) String() string {
	if w.Kind != "" {
		return fmt.Sprintf("%s(%d): %s", w.Kind, w.Code, w.Message)
	}
	return fmt.Sprintf("warning(%d): %s", w.Code, w.Message)
}

// CancelledCode is the Warning code attached to cancelled results.
const CancelledCode = -1

// CancelledWarning builds the warning that marks a cooperative stop.
func CancelledWarning(format string, args ...any) Warning {
	return Warning{Kind: KindCancelled, Code: CancelledCode, Message: fmt.Sprintf(format, args...)}
}
