package filter

import "github.com/roach88/nxcore/internal/result"

// Error codes reported by this package.
const (
	CodeMissingArgument  = -400
	CodeArgumentType     = -401
	CodeArgumentRange    = -402
	CodeUnknownFilter    = -403
	CodeDuplicateFilter  = -404
	CodeSelectionMissing = -405
	CodeSelectionKind    = -406
	CodeSelectionType    = -407
	CodeSelectionShape   = -408
	CodeTargetExists     = -409
)

var (
	// ErrMissingArgument is returned when a required argument is absent.
	ErrMissingArgument = result.NewError(result.KindInvalidArgument, CodeMissingArgument, "missing argument")
	// ErrArgumentType is returned when an argument cannot be converted to the requested type.
	ErrArgumentType = result.NewError(result.KindInvalidArgument, CodeArgumentType, "argument has the wrong type")
	// ErrArgumentRange is returned when an argument is outside the allowed values.
	ErrArgumentRange = result.NewError(result.KindInvalidArgument, CodeArgumentRange, "argument out of range")
	// ErrUnknownFilter is returned by Registry.Lookup.
	ErrUnknownFilter = result.NewError(result.KindUnsupported, CodeUnknownFilter, "unknown filter")
	// ErrDuplicateFilter is returned by Registry.Register.
	ErrDuplicateFilter = result.NewError(result.KindUnsupported, CodeDuplicateFilter, "filter already registered")
	// ErrSelectionMissing is returned when a selected path does not resolve.
	ErrSelectionMissing = result.NewError(result.KindPathResolution, CodeSelectionMissing, "selected path does not exist")
	// ErrSelectionKind is returned when a selected path has the wrong object kind.
	ErrSelectionKind = result.NewError(result.KindPathResolution, CodeSelectionKind, "selected object has the wrong kind")
	// ErrSelectionType is returned when a selected array has a disallowed element type.
	ErrSelectionType = result.NewError(result.KindShapeMismatch, CodeSelectionType, "selected array has a disallowed data type")
	// ErrSelectionShape is returned when a selected array has a disallowed component shape.
	ErrSelectionShape = result.NewError(result.KindShapeMismatch, CodeSelectionShape, "selected array has a disallowed component shape")
	// ErrTargetExists is returned when a path that will be created is occupied.
	ErrTargetExists = result.NewError(result.KindAlreadyExists, CodeTargetExists, "output path already exists")
)
