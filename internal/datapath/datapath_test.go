package datapath

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_RoundTripsString(t *testing.T) {
	p, err := Parse("Image/CellData/Foo")
	require.NoError(t, err)

	assert.Equal(t, 3, p.Len())
	assert.Equal(t, "Foo", p.Name())
	assert.Equal(t, "Image/CellData/Foo", p.String())
	assert.Equal(t, []string{"Image", "CellData", "Foo"}, p.Segments())
}

func TestParse_EmptyIsRoot(t *testing.T) {
	p, err := Parse("")
	require.NoError(t, err)
	assert.True(t, p.IsEmpty())
	assert.Equal(t, "", p.Name())

	p, err = Parse("/")
	require.NoError(t, err)
	assert.True(t, p.IsEmpty())
}

func TestNew_RejectsBadSegments(t *testing.T) {
	_, err := New("a", "")
	require.ErrorIs(t, err, ErrEmptySegment)

	_, err = New("a/b")
	require.ErrorIs(t, err, ErrInvalidSegment)

	_, err = Parse("a//b")
	require.ErrorIs(t, err, ErrEmptySegment)
}

func TestDerivedPaths(t *testing.T) {
	p := MustParse("Image/CellData/Foo")

	assert.Equal(t, "Image/CellData", p.Parent().String())
	assert.Equal(t, "", MustParse("Foo").Parent().String())

	child, err := p.Parent().CreateChildPath("Bar")
	require.NoError(t, err)
	assert.Equal(t, "Image/CellData/Bar", child.String())

	renamed, err := p.ReplaceName("Baz")
	require.NoError(t, err)
	assert.Equal(t, "Image/CellData/Baz", renamed.String())

	// Derivations never mutate the receiver.
	assert.Equal(t, "Image/CellData/Foo", p.String())
}

func TestCreateChildPath_DoesNotAlias(t *testing.T) {
	base := MustParse("A/B")
	c1 := base.MustCreateChildPath("C1")
	c2 := base.MustCreateChildPath("C2")

	assert.Equal(t, "A/B/C1", c1.String())
	assert.Equal(t, "A/B/C2", c2.String())
}

func TestEqual(t *testing.T) {
	assert.True(t, MustNew("CellData", "Foo").Equal(MustParse("CellData/Foo")))
	assert.False(t, MustNew("CellData", "Foo").Equal(MustParse("CellData")))
	assert.True(t, DataPath{}.Equal(MustParse("")))
}

func TestEqual_NormalizesUnicode(t *testing.T) {
	// "é" precomposed vs "e" + combining acute accent.
	composed := MustNew("caf\u00e9")
	decomposed := MustNew("cafe\u0301")
	assert.True(t, composed.Equal(decomposed))
}

func TestHasPrefixAndReplaceSection(t *testing.T) {
	p := MustParse("Geom/Vertex/Coords")

	assert.True(t, p.HasPrefix(MustParse("Geom")))
	assert.True(t, p.HasPrefix(DataPath{}))
	assert.False(t, p.HasPrefix(MustParse("Geo")))

	moved, ok := p.ReplaceSection(MustParse("Geom"), MustParse("Other/Geom2"))
	require.True(t, ok)
	assert.Equal(t, "Other/Geom2/Vertex/Coords", moved.String())

	same, ok := p.ReplaceSection(MustParse("Nope"), MustParse("X"))
	assert.False(t, ok)
	assert.True(t, same.Equal(p))
}

func TestJSON(t *testing.T) {
	type holder struct {
		Path DataPath `json:"path"`
	}
	data, err := json.Marshal(holder{Path: MustParse("A/B")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"path":"A/B"}`, string(data))

	var h holder
	require.NoError(t, json.Unmarshal(data, &h))
	assert.True(t, h.Path.Equal(MustParse("A/B")))
}
