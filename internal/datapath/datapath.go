// Package datapath provides the immutable addressing value used to locate
// objects inside a DataStructure.
//
// A DataPath is an ordered list of name segments. It holds no reference to
// any particular DataStructure and is resolved lazily at use. All methods
// return new values; a DataPath is never modified in place.
//
// Segments are NFC normalized at construction so that two visually equal
// names compare equal regardless of how they were typed.
package datapath

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Separator joins segments in the string form of a path.
const Separator = "/"

var (
	// ErrEmptySegment is returned when a segment is the empty string.
	ErrEmptySegment = errors.New("datapath: empty segment")

	// ErrInvalidSegment is returned when a segment contains the separator.
	ErrInvalidSegment = errors.New("datapath: segment contains separator")
)

// DataPath is an ordered, immutable sequence of name segments.
// The zero value is the empty path, which addresses the graph root.
type DataPath struct {
	segments []string
}

// New builds a DataPath from segments.
func New(segments ...string) (DataPath, error) {
	out := make([]string, len(segments))
	for i, s := range segments {
		seg, err := normalizeSegment(s)
		if err != nil {
			return DataPath{}, fmt.Errorf("segment %d: %w", i, err)
		}
		out[i] = seg
	}
	return DataPath{segments: out}, nil
}

// MustNew is like New but panics on error.
// Use only in tests or with literal segments.
func MustNew(segments ...string) DataPath {
	p, err := New(segments...)
	if err != nil {
		panic(err)
	}
	return p
}

// Parse splits a slash-joined string into a DataPath.
// Leading and trailing separators are ignored; "" parses to the empty path.
func Parse(s string) (DataPath, error) {
	s = strings.Trim(s, Separator)
	if s == "" {
		return DataPath{}, nil
	}
	return New(strings.Split(s, Separator)...)
}

// MustParse is like Parse but panics on error.
func MustParse(s string) DataPath {
	p, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return p
}

func normalizeSegment(s string) (string, error) {
	if s == "" {
		return "", ErrEmptySegment
	}
	if strings.Contains(s, Separator) {
		return "", fmt.Errorf("%w: %q", ErrInvalidSegment, s)
	}
	return norm.NFC.String(s), nil
}

// Segments returns a copy of the path segments.
func (p DataPath) Segments() []string {
	return slices.Clone(p.segments)
}

// Len returns the number of segments.
func (p DataPath) Len() int {
	return len(p.segments)
}

// IsEmpty reports whether p is the empty (root) path.
func (p DataPath) IsEmpty() bool {
	return len(p.segments) == 0
}

// Name returns the last segment, or "" for the empty path.
func (p DataPath) Name() string {
	if len(p.segments) == 0 {
		return ""
	}
	return p.segments[len(p.segments)-1]
}

// Parent drops the last segment. The parent of the empty path is empty.
func (p DataPath) Parent() DataPath {
	if len(p.segments) <= 1 {
		return DataPath{}
	}
	return DataPath{segments: slices.Clone(p.segments[:len(p.segments)-1])}
}

// CreateChildPath appends name as a new last segment.
func (p DataPath) CreateChildPath(name string) (DataPath, error) {
	seg, err := normalizeSegment(name)
	if err != nil {
		return DataPath{}, err
	}
	out := make([]string, len(p.segments), len(p.segments)+1)
	copy(out, p.segments)
	return DataPath{segments: append(out, seg)}, nil
}

// MustCreateChildPath is like CreateChildPath but panics on error.
func (p DataPath) MustCreateChildPath(name string) DataPath {
	c, err := p.CreateChildPath(name)
	if err != nil {
		panic(err)
	}
	return c
}

// ReplaceName swaps the last segment for name.
// Calling ReplaceName on the empty path returns a single-segment path.
func (p DataPath) ReplaceName(name string) (DataPath, error) {
	return p.Parent().CreateChildPath(name)
}

// HasPrefix reports whether prefix is a leading section of p.
// Every path has the empty path as a prefix.
func (p DataPath) HasPrefix(prefix DataPath) bool {
	if len(prefix.segments) > len(p.segments) {
		return false
	}
	return slices.Equal(p.segments[:len(prefix.segments)], prefix.segments)
}

// ReplaceSection rewrites a leading section of p from oldPrefix to newPrefix.
// If p does not start with oldPrefix, p is returned unchanged and ok is false.
func (p DataPath) ReplaceSection(oldPrefix, newPrefix DataPath) (DataPath, bool) {
	if !p.HasPrefix(oldPrefix) {
		return p, false
	}
	out := make([]string, 0, len(newPrefix.segments)+len(p.segments)-len(oldPrefix.segments))
	out = append(out, newPrefix.segments...)
	out = append(out, p.segments[len(oldPrefix.segments):]...)
	return DataPath{segments: out}, true
}

// Equal reports whether both paths have identical segment sequences.
func (p DataPath) Equal(other DataPath) bool {
	return slices.Equal(p.segments, other.segments)
}

// String returns the slash-joined form.
func (p DataPath) String() string {
	return strings.Join(p.segments, Separator)
}

// MarshalJSON encodes the path as its string form.
func (p DataPath) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

// UnmarshalJSON decodes a path from its string form.
func (p *DataPath) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler, used by YAML and map keys.
func (p DataPath) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *DataPath) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
