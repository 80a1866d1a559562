package action

import (
	"fmt"
	"strings"
)

// ArrayHandling selects how a geometry action binds its vertex and
// connectivity arrays.
//
//	Create     allocate new arrays
//	Copy       attach independent duplicates; sources are untouched
//	Move       reparent the sources; their edge count is unchanged
//	Reference  add the geometry as an extra parent of the sources
type ArrayHandling uint8

const (
	HandlingCreate ArrayHandling = iota
	HandlingCopy
	HandlingMove
	HandlingReference
)

var handlingNames = [...]string{
	HandlingCreate:    "create",
	HandlingCopy:      "copy",
	HandlingMove:      "move",
	HandlingReference: "reference",
}

func (h ArrayHandling) String() string {
	if int(h) < len(handlingNames) {
		return handlingNames[h]
	}
	return fmt.Sprintf("ArrayHandling(%d)", uint8(h))
}

// ParseArrayHandling parses a policy name, case-insensitively.
func ParseArrayHandling(s string) (ArrayHandling, error) {
	for i, n := range handlingNames {
		if strings.EqualFold(n, strings.TrimSpace(s)) {
			return ArrayHandling(i), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown array handling %q", ErrInvalidAction, s)
}

// MarshalText implements encoding.TextMarshaler.
func (h ArrayHandling) MarshalText() ([]byte, error) {
	if int(h) >= len(handlingNames) {
		return nil, fmt.Errorf("%w: array handling %d", ErrInvalidAction, uint8(h))
	}
	return []byte(h.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (h *ArrayHandling) UnmarshalText(text []byte) error {
	parsed, err := ParseArrayHandling(string(text))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}
