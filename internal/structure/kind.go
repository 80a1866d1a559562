package structure

import (
	"fmt"
	"strconv"
)

// ObjectID identifies an object within one DataStructure. Ids are issued
// monotonically starting at 1 and are never reused.
type ObjectID uint64

// RootID is the graph root. It is never an object; top-level objects carry
// it as their parent.
const RootID ObjectID = 0

// String renders the id as a decimal number.
func (id ObjectID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// Kind enumerates the object variants a DataStructure can hold.
type Kind uint8

const (
	KindDataGroup Kind = iota + 1
	KindAttributeMatrix
	KindDataArray
	KindNeighborList
	KindStringArray
	KindImageGeom
	KindVertexGeom
	KindEdgeGeom
	KindTriangleGeom
	KindQuadGeom
	KindTetrahedralGeom
	KindHexahedralGeom
)

var kindNames = map[Kind]string{
	KindDataGroup:       "DataGroup",
	KindAttributeMatrix: "AttributeMatrix",
	KindDataArray:       "DataArray",
	KindNeighborList:    "NeighborList",
	KindStringArray:     "StringArray",
	KindImageGeom:       "ImageGeom",
	KindVertexGeom:      "VertexGeom",
	KindEdgeGeom:        "EdgeGeom",
	KindTriangleGeom:    "TriangleGeom",
	KindQuadGeom:        "QuadGeom",
	KindTetrahedralGeom: "TetrahedralGeom",
	KindHexahedralGeom:  "HexahedralGeom",
}

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// ParseKind parses the name returned by String.
func ParseKind(s string) (Kind, error) {
	for k, n := range kindNames {
		if n == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown object kind %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	if _, ok := kindNames[k]; !ok {
		return nil, fmt.Errorf("unknown object kind %d", uint8(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// IsGeometry reports whether k is one of the geometry kinds.
func (k Kind) IsGeometry() bool {
	return k >= KindImageGeom && k <= KindHexahedralGeom
}

// IsNodeGeometry reports whether k is a geometry with an explicit vertex list.
func (k Kind) IsNodeGeometry() bool {
	return k >= KindVertexGeom && k <= KindHexahedralGeom
}

// IsArray reports whether k holds per-tuple data.
func (k Kind) IsArray() bool {
	return k == KindDataArray || k == KindNeighborList || k == KindStringArray
}

// IsContainer reports whether objects of kind k can have children.
func (k Kind) IsContainer() bool {
	return k == KindDataGroup || k == KindAttributeMatrix || k.IsGeometry()
}
