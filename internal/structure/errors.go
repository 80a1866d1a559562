package structure

import "github.com/roach88/nxcore/internal/result"

// Error codes reported by this package.
const (
	CodePathNotFound      = -100
	CodeWrongKind         = -101
	CodeDuplicateName     = -102
	CodeInvalidParent     = -103
	CodeTupleMismatch     = -104
	CodeObjectNotFound    = -105
	CodeNotAParent        = -106
	CodeCycle             = -107
	CodeInvalidName       = -108
	CodeInvalidGeometry   = -109
	CodeIncompatibleShape = -110
	CodeInvalidSnapshot   = -111
)

var (
	// ErrPathNotFound is returned when a DataPath segment does not resolve.
	ErrPathNotFound = result.NewError(result.KindPathResolution, CodePathNotFound, "path not found")

	// ErrWrongKind is returned when a path or id resolves to an object of an
	// unexpected kind.
	ErrWrongKind = result.NewError(result.KindPathResolution, CodeWrongKind, "object has the wrong kind")

	// ErrObjectNotFound is returned for an id that is not in the graph.
	ErrObjectNotFound = result.NewError(result.KindPathResolution, CodeObjectNotFound, "object not found")

	// ErrDuplicateName is returned when a parent already has a child with
	// the requested name.
	ErrDuplicateName = result.NewError(result.KindAlreadyExists, CodeDuplicateName, "name already in use")

	// ErrInvalidParent is returned when the parent is missing or cannot hold
	// the child.
	ErrInvalidParent = result.NewError(result.KindInvalidParent, CodeInvalidParent, "invalid parent")

	// ErrNotAParent is returned when removing an edge that does not exist.
	ErrNotAParent = result.NewError(result.KindInvalidParent, CodeNotAParent, "not a parent")

	// ErrCycle is returned when an edge would make an object its own ancestor.
	ErrCycle = result.NewError(result.KindInvalidParent, CodeCycle, "edge would create a cycle")

	// ErrTupleMismatch is returned when an array's tuple count differs from
	// its AttributeMatrix.
	ErrTupleMismatch = result.NewError(result.KindShapeMismatch, CodeTupleMismatch, "tuple count mismatch")

	// ErrIncompatibleShape is returned when a tuple shape cannot be applied.
	ErrIncompatibleShape = result.NewError(result.KindShapeMismatch, CodeIncompatibleShape, "incompatible tuple shape")

	// ErrInvalidName is returned for an empty name or one containing '/'.
	ErrInvalidName = result.NewError(result.KindInvalidArgument, CodeInvalidName, "invalid object name")

	// ErrInvalidGeometry is returned when geometry arrays are inconsistent.
	ErrInvalidGeometry = result.NewError(result.KindShapeMismatch, CodeInvalidGeometry, "invalid geometry")

	// ErrInvalidSnapshot is returned by FromSnapshot for inconsistent records.
	ErrInvalidSnapshot = result.NewError(result.KindUnsupported, CodeInvalidSnapshot, "invalid snapshot")
)
