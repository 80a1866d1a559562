package action

import (
	"fmt"

	"github.com/roach88/nxcore/internal/datapath"
	"github.com/roach88/nxcore/internal/result"
	"github.com/roach88/nxcore/internal/structure"
)

// Mode selects how an Action is applied.
type Mode uint8

const (
	// ModePreflight creates objects with their final shapes but does not
	// allocate or initialize bulk data.
	ModePreflight Mode = iota
	// ModeExecute performs the same structural change and allocates data.
	ModeExecute
)

func (m Mode) String() string {
	if m == ModeExecute {
		return "execute"
	}
	return "preflight"
}

// Error and warning codes reported by actions.
const (
	CodeTargetExists      = -300
	CodeInvalidParentPath = -301
	CodeSourceNotFound    = -302
	CodeWrongSourceKind   = -303
	CodeShapeMismatch     = -304
	CodeInvalidAction     = -305
	CodeApplyFailed       = -306
	CodeNeighborListDrop  = -310
)

var (
	// ErrTargetExists is returned when the target path is occupied.
	ErrTargetExists = result.NewError(result.KindAlreadyExists, CodeTargetExists, "target already exists")
	// ErrInvalidParentPath is returned when the target's parent cannot hold it.
	ErrInvalidParentPath = result.NewError(result.KindInvalidParent, CodeInvalidParentPath, "invalid parent path")
	// ErrSourceNotFound is returned when a source object is missing.
	ErrSourceNotFound = result.NewError(result.KindInvalidParent, CodeSourceNotFound, "source not found")
	// ErrWrongSourceKind is returned when a source has an unexpected kind.
	ErrWrongSourceKind = result.NewError(result.KindPathResolution, CodeWrongSourceKind, "source has the wrong kind")
	// ErrShapeMismatch is returned for inconsistent shapes between inputs.
	ErrShapeMismatch = result.NewError(result.KindShapeMismatch, CodeShapeMismatch, "shape mismatch")
	// ErrInvalidAction is returned for a malformed action.
	ErrInvalidAction = result.NewError(result.KindUnsupported, CodeInvalidAction, "invalid action")
)

// Action describes one structural change. Apply is the only way it takes
// effect. A failed Apply leaves the DataStructure unchanged.
type Action interface {
	Apply(ds *structure.DataStructure, mode Mode) result.Result[result.Void]
	String() string
}

// CreationAction is an Action that creates objects at known paths.
type CreationAction interface {
	Action
	CreatedPaths() []datapath.DataPath
}

// AllocatingAction is an Action whose execute mode allocates array stores.
// ApplyAll passes its Allocator through ApplyWith.
type AllocatingAction interface {
	Action
	ApplyWith(ds *structure.DataStructure, mode Mode, alloc Allocator) result.Result[result.Void]
}

// Previewer is implemented by actions that describe themselves for
// preflight output.
type Previewer interface {
	Preview() Preview
}

// Preview is the JSON description of a pending action.
type Preview struct {
	Type   string         `json:"type"`
	Path   string         `json:"path,omitempty"`
	Params map[string]any `json:"params,omitempty"`
}

func fail(err error) result.Result[result.Void] {
	return result.FromError[result.Void](err, CodeApplyFailed)
}

// checkTarget validates that path is free and its parent can hold children,
// returning the parent id.
func checkTarget(ds *structure.DataStructure, path datapath.DataPath) (structure.ObjectID, error) {
	if path.IsEmpty() {
		return 0, fmt.Errorf("%w: empty target path", ErrInvalidAction)
	}
	if ds.ContainsPath(path) {
		return 0, fmt.Errorf("%w: %s", ErrTargetExists, path)
	}
	parentID, err := ds.ContainerID(path.Parent())
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrInvalidParentPath, path, err)
	}
	return parentID, nil
}

// parentOf returns the id of the parent named by path.Parent().
func parentOf(ds *structure.DataStructure, path datapath.DataPath) structure.ObjectID {
	if path.Parent().IsEmpty() {
		return structure.RootID
	}
	id, _ := ds.GetID(path.Parent())
	return id
}
